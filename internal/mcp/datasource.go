package mcp

import (
	"context"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/remote"
)

// SessionSource reads committed sessions from the backend.
type SessionSource interface {
	ListSessions(ctx context.Context, limit int) ([]models.SessionRow, error)
	GetSession(ctx context.Context, sessionID string) (*models.SessionDetail, error)
}

// Compile-time check: *remote.Client satisfies SessionSource.
var _ SessionSource = (*remote.Client)(nil)
