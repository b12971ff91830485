package workout

import (
	"context"
	"log/slog"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

const autosaveTimeout = 2 * time.Second

// Autosave mirrors session snapshots to the continuation store.
// It is a convenience: failures are logged and never returned.
type Autosave struct {
	store    ContinuationStore
	log      *slog.Logger
	readOnly bool
}

// NewAutosave returns an Autosave writing to store. A nil store disables it.
func NewAutosave(store ContinuationStore, log *slog.Logger) *Autosave {
	return &Autosave{store: store, log: log}
}

// writes toggles mirroring; a non-writing Autosave still clears.
func (a *Autosave) writes(on bool) *Autosave {
	a.readOnly = !on
	return a
}

// Write overwrites the device snapshot.
func (a *Autosave) Write(snap models.SessionSnapshot) {
	if a.store == nil || a.readOnly {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := a.store.Save(ctx, snap); err != nil {
		a.log.Warn("autosave failed", "error", err)
	}
}

// Clear removes the device snapshot.
func (a *Autosave) Clear() {
	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := a.store.Clear(ctx); err != nil {
		a.log.Warn("clearing autosave failed", "error", err)
	}
}
