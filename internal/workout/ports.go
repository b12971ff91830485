package workout

import (
	"context"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/models"
)

// Persistence is the remote service that allocates sessions and stores completed work.
type Persistence interface {
	CreateSession(ctx context.Context, name, templateID string) (string, error)
	LogSet(ctx context.Context, sessionID, exerciseName string, set models.SetWrite) error
	CompleteSession(ctx context.Context, sessionID string, c models.Completion) error
	GetExerciseHistory(ctx context.Context, userID int) ([]models.ExerciseHistory, error)
}

// ContinuationStore keeps the device-local session snapshot.
// Load returns nil, nil when no snapshot is stored.
type ContinuationStore interface {
	Save(ctx context.Context, snap models.SessionSnapshot) error
	Load(ctx context.Context) (*models.SessionSnapshot, error)
	Clear(ctx context.Context) error
}

// Preferences exposes user settings the engine consults.
type Preferences interface {
	RestTimerEnabled() bool
}

// Catalog resolves exercise metadata for superset suggestions.
type Catalog interface {
	FindByName(name string) (catalog.Exercise, bool)
	List() []catalog.Exercise
}

// Sink receives the outcome of every finish commit.
type Sink interface {
	RecordCommit(ctx context.Context, r CommitReport)
}

// StaticPreferences is a fixed Preferences value.
type StaticPreferences struct {
	RestTimer bool
}

func (p StaticPreferences) RestTimerEnabled() bool { return p.RestTimer }

type nopSink struct{}

func (nopSink) RecordCommit(context.Context, CommitReport) {}
