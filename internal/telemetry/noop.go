package telemetry

import (
	"context"

	"github.com/meltforce/liftlog/internal/workout"
)

// NoOp discards commit reports.
type NoOp struct{}

func (NoOp) RecordCommit(context.Context, workout.CommitReport) {}

func (NoOp) Close(context.Context) error { return nil }
