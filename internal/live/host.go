// Package live hosts the single live workout of a device and exposes it over
// a local HTTP API.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/workout"
)

var (
	// ErrNoWorkout indicates no live workout is hosted.
	ErrNoWorkout = errors.New("no live workout")
	// ErrWorkoutInProgress indicates a workout is already live.
	ErrWorkoutInProgress = errors.New("a workout is already in progress")
	// ErrTemplateNotFound indicates an unknown template id.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoSnapshot indicates there is nothing to resume.
	ErrNoSnapshot = errors.New("no saved workout to resume")
)

const (
	restTick      = time.Second
	flushInterval = 30 * time.Second
)

// Host owns at most one engine together with the goroutines that drive its
// rest countdown and periodic snapshot flush.
type Host struct {
	mu      sync.Mutex
	deps    workout.Deps
	opts    workout.Options
	catalog *catalog.Catalog
	log     *slog.Logger

	engine *workout.Engine
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// NewHost returns a host that builds engines from deps and opts.
func NewHost(deps workout.Deps, opts workout.Options, cat *catalog.Catalog, log *slog.Logger) *Host {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if deps.Log == nil {
		deps.Log = log
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if cat != nil && deps.Catalog == nil {
		deps.Catalog = cat
	}
	return &Host{deps: deps, opts: opts, catalog: cat, log: log}
}

// Start begins a new workout. An empty templateID starts a freeform session.
func (h *Host) Start(ctx context.Context, name, templateID string) (*workout.Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.liveLocked() {
		return nil, ErrWorkoutInProgress
	}

	so := workout.StartOptions{Name: name}
	if templateID != "" {
		if h.catalog == nil {
			return nil, ErrTemplateNotFound
		}
		t, ok := h.catalog.Template(templateID)
		if !ok {
			return nil, ErrTemplateNotFound
		}
		so.Template = &t
	}

	e, err := workout.Start(ctx, h.deps, h.opts, so)
	if err != nil {
		return nil, fmt.Errorf("starting workout: %w", err)
	}
	h.attachLocked(e)
	return e, nil
}

// Resume rebuilds the workout stored in the continuation store.
func (h *Host) Resume(ctx context.Context) (*workout.Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.liveLocked() {
		return nil, ErrWorkoutInProgress
	}
	if h.deps.Store == nil {
		return nil, ErrNoSnapshot
	}
	snap, err := h.deps.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading saved workout: %w", err)
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	e, err := workout.Resume(ctx, h.deps, h.opts, *snap)
	if err != nil {
		return nil, fmt.Errorf("resuming workout: %w", err)
	}
	h.attachLocked(e)
	return e, nil
}

// Engine returns the live engine.
func (h *Host) Engine() (*workout.Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.engine == nil {
		return nil, ErrNoWorkout
	}
	return h.engine, nil
}

// Finish commits the live workout and releases it.
func (h *Host) Finish(ctx context.Context) (*models.Summary, error) {
	e, err := h.Engine()
	if err != nil {
		return nil, err
	}
	summary, err := e.Finish(ctx)
	if err != nil {
		return nil, err
	}
	h.release(e)
	return summary, nil
}

// Cancel discards the live workout.
func (h *Host) Cancel() error {
	e, err := h.Engine()
	if err != nil {
		return err
	}
	if err := e.Cancel(); err != nil {
		return err
	}
	h.release(e)
	return nil
}

// SaveForLater stores the live workout for a later Resume and releases it.
func (h *Host) SaveForLater(ctx context.Context) (*models.SessionSnapshot, error) {
	e, err := h.Engine()
	if err != nil {
		return nil, err
	}
	snap, err := e.SaveForLater(ctx)
	if err != nil {
		return nil, err
	}
	h.release(e)
	return snap, nil
}

// Templates lists the catalog templates.
func (h *Host) Templates() []models.Template {
	if h.catalog == nil {
		return nil
	}
	return h.catalog.Templates()
}

// Close flushes the live workout and stops the background goroutines. The
// workout stays resumable from its snapshot.
func (h *Host) Close() {
	h.mu.Lock()
	e := h.engine
	stop := h.stop
	h.engine, h.stop = nil, nil
	h.mu.Unlock()

	if e != nil {
		e.Flush()
	}
	if stop != nil {
		stop()
	}
	h.wg.Wait()
}

func (h *Host) liveLocked() bool {
	if h.engine == nil {
		return false
	}
	switch h.engine.Status() {
	case workout.StatusActive, workout.StatusInitializing, workout.StatusFinishing:
		return true
	}
	return false
}

func (h *Host) attachLocked(e *workout.Engine) {
	if h.stop != nil {
		h.stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.engine = e
	h.stop = cancel

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		e.RestTimer().Run(ctx, restTick)
	}()
	go func() {
		defer h.wg.Done()
		start := h.deps.Clock.Now()
		clock.Observe(ctx, h.deps.Clock, start, flushInterval, func(elapsed int) {
			if elapsed > 0 {
				e.Flush()
			}
		})
	}()
}

func (h *Host) release(e *workout.Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.engine != e {
		return
	}
	if h.stop != nil {
		h.stop()
	}
	h.engine, h.stop = nil, nil
	h.log.Debug("workout released", "status", e.Status())
}
