// Package workout implements the live workout session engine: the in-memory
// session model, its lifecycle, the superset selection handoff, autosave and
// the finish commit.
package workout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/resttimer"
)

// Status is the lifecycle state of an engine.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusPaused       Status = "paused"
	StatusFinishing    Status = "finishing"
	StatusFinished     Status = "finished"
	StatusCancelled    Status = "cancelled"
)

const (
	defaultRestSeconds       = 90
	defaultCommitConcurrency = 4
	defaultCommitTimeout     = 2 * time.Minute
	backgroundTimeout        = 30 * time.Second
)

// Deps are the collaborators of an engine. Persistence is required;
// the others may be nil.
type Deps struct {
	Persistence Persistence
	Store       ContinuationStore
	Preferences Preferences
	Catalog     Catalog
	Sink        Sink
	Clock       clock.Clock
	Log         *slog.Logger
}

// Options tune engine behavior.
type Options struct {
	UserID               int
	RestSeconds          int
	IncludePayloadVolume bool
	CommitConcurrency    int
	// CommitTimeout bounds the whole finish commit. Zero means two minutes.
	CommitTimeout time.Duration
	// DisableAutosave stops mutation snapshots. SaveForLater still writes and
	// terminal transitions still clear the stored snapshot.
	DisableAutosave bool
}

// StartOptions describe a new session. A nil Template starts a freeform session.
type StartOptions struct {
	Name     string
	Template *models.Template
}

// SetInput is the user-editable part of a set.
type SetInput struct {
	Weight  float64
	Reps    int
	RPE     *int
	Payload models.Payload
}

// View is a read-only projection of the engine for rendering.
type View struct {
	Name           string                 `json:"name"`
	SessionID      string                 `json:"session_id,omitempty"`
	TemplateID     string                 `json:"template_id,omitempty"`
	Status         Status                 `json:"status"`
	StartedAt      time.Time              `json:"started_at"`
	ElapsedSeconds int                    `json:"elapsed_seconds"`
	Exercises      []models.ExerciseEntry `json:"exercises"`
	Rest           models.RestTimerState  `json:"rest"`
	Pending        *PendingSet            `json:"pending,omitempty"`
}

// Engine tracks one live workout session. All methods are safe for
// concurrent use; operations are serialized on an internal mutex.
type Engine struct {
	mu sync.Mutex

	deps     Deps
	opts     Options
	log      *slog.Logger
	clock    clock.Clock
	autosave *Autosave
	rest     *resttimer.Timer

	status     Status
	name       string
	templateID string
	sessionID  string
	startedAt  time.Time
	exercises  []models.ExerciseEntry
	history    map[string]models.ExerciseHistory
	pending    *PendingSet
	paused     *models.SessionSnapshot

	allocDone   chan struct{}
	historyDone chan struct{}
	stopBG      context.CancelFunc
}

func newEngine(deps Deps, opts Options) *Engine {
	if deps.Log == nil {
		deps.Log = slog.New(slog.DiscardHandler)
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Sink == nil {
		deps.Sink = nopSink{}
	}
	if opts.RestSeconds <= 0 {
		opts.RestSeconds = defaultRestSeconds
	}
	if opts.CommitConcurrency <= 0 {
		opts.CommitConcurrency = defaultCommitConcurrency
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}
	return &Engine{
		deps:     deps,
		opts:     opts,
		log:      deps.Log,
		clock:    deps.Clock,
		autosave: NewAutosave(deps.Store, deps.Log).writes(!opts.DisableAutosave),
		rest:     resttimer.New(),
		status:   StatusInitializing,
		history:  make(map[string]models.ExerciseHistory),
	}
}

// Start begins a new session, freeform or seeded from a template. Session id
// allocation and the exercise history lookup run in the background; the
// engine accepts mutations before either completes.
func Start(ctx context.Context, deps Deps, opts Options, so StartOptions) (*Engine, error) {
	if deps.Persistence == nil {
		return nil, fmt.Errorf("workout: persistence is required")
	}
	e := newEngine(deps, opts)
	e.name = so.Name
	if so.Template != nil {
		e.templateID = so.Template.ID
		if e.name == "" {
			e.name = so.Template.Name
		}
		for _, te := range so.Template.Exercises {
			entry := models.ExerciseEntry{ID: uuid.NewString(), Name: te.Name}
			for range te.Sets {
				entry.AppendSet(models.SetRecord{Payload: models.Plain{}})
			}
			e.exercises = append(e.exercises, entry)
		}
	}
	if e.name == "" {
		e.name = "Workout"
	}
	e.startedAt = e.clock.Now()

	e.startBackground(ctx, true)
	e.mu.Lock()
	e.status = StatusActive
	e.autosave.Write(e.snapshotLocked())
	e.mu.Unlock()
	e.log.Info("workout started", "name", e.name, "template", e.templateID, "exercises", len(e.exercises))
	return e, nil
}

// Resume builds a new engine from a snapshot. The start instant is
// reconstructed from the snapshot's elapsed seconds so the clock continues
// where it stopped.
func Resume(ctx context.Context, deps Deps, opts Options, snap models.SessionSnapshot) (*Engine, error) {
	if deps.Persistence == nil {
		return nil, fmt.Errorf("workout: persistence is required")
	}
	e := newEngine(deps, opts)
	e.name = snap.Name
	e.templateID = snap.TemplateID
	e.sessionID = snap.SessionID
	e.exercises = models.CloneEntries(snap.Exercises)
	for i := range e.exercises {
		if e.exercises[i].ID == "" {
			e.exercises[i].ID = uuid.NewString()
		}
		for j := range e.exercises[i].Sets {
			e.exercises[i].Sets[j].Position = j + 1
		}
	}
	e.startedAt = clock.StartFromElapsed(e.clock.Now(), snap.ElapsedSeconds)

	e.startBackground(ctx, snap.SessionID == "")
	e.mu.Lock()
	e.status = StatusActive
	e.autosave.Write(e.snapshotLocked())
	e.mu.Unlock()
	e.log.Info("workout resumed", "name", e.name, "session_id", e.sessionID,
		"elapsed", snap.ElapsedSeconds, "saved_at", snap.SnapshotAt)
	return e, nil
}

func (e *Engine) startBackground(ctx context.Context, allocate bool) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
	e.stopBG = cancel

	var wg sync.WaitGroup
	if allocate {
		e.allocDone = make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.allocate(bg)
		}()
	}
	e.historyDone = make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.loadHistory(bg)
	}()
	go func() {
		wg.Wait()
		cancel()
	}()
}

func (e *Engine) allocate(ctx context.Context) {
	defer close(e.allocDone)
	id, err := e.deps.Persistence.CreateSession(ctx, e.name, e.templateID)
	if err != nil {
		e.log.Warn("session id allocation failed, will retry at finish", "error", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionID == "" {
		e.sessionID = id
	}
	if e.status == StatusActive {
		e.autosave.Write(e.snapshotLocked())
	}
	e.log.Debug("session id allocated", "session_id", id)
}

func (e *Engine) loadHistory(ctx context.Context) {
	defer close(e.historyDone)
	rows, err := e.deps.Persistence.GetExerciseHistory(ctx, e.opts.UserID)
	if err != nil {
		e.log.Warn("loading exercise history failed", "error", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range rows {
		e.history[normalizeName(h.ExerciseName)] = h
	}
}

// AddExercise appends an empty exercise and returns its id.
func (e *Engine) AddExercise(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusActive {
		return "", ErrNotActive
	}
	id := uuid.NewString()
	e.exercises = append(e.exercises, models.ExerciseEntry{ID: id, Name: strings.TrimSpace(name)})
	e.mutatedLocked()
	return id, nil
}

// RemoveExercise deletes an exercise with all its sets. A superset
// selection pending on that exercise is dropped.
func (e *Engine) RemoveExercise(exerciseID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusActive {
		return ErrNotActive
	}
	for i := range e.exercises {
		if e.exercises[i].ID == exerciseID {
			e.exercises = append(e.exercises[:i], e.exercises[i+1:]...)
			if e.pending != nil && e.pending.ExerciseID == exerciseID {
				e.pending = nil
			}
			e.mutatedLocked()
			return nil
		}
	}
	return ErrExerciseNotFound
}

// AddEmptySet appends an incomplete set prefilled from the last logged
// weight and reps of the exercise, when known.
func (e *Engine) AddEmptySet(exerciseID string) (models.SetRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, err := e.exerciseLocked(exerciseID)
	if err != nil {
		return models.SetRecord{}, err
	}
	set := models.SetRecord{Payload: models.Plain{}}
	if h, ok := e.history[normalizeName(ex.Name)]; ok {
		set.Weight, set.Reps = h.LastWeight, h.LastReps
	}
	set = ex.AppendSet(set)
	e.mutatedLocked()
	return set.Clone(), nil
}

// LogSet appends a completed set and starts the rest timer when enabled.
func (e *Engine) LogSet(exerciseID string, in SetInput) (models.SetRecord, error) {
	if err := validateInput(&in); err != nil {
		return models.SetRecord{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, err := e.exerciseLocked(exerciseID)
	if err != nil {
		return models.SetRecord{}, err
	}
	set := ex.AppendSet(models.SetRecord{
		Weight:    in.Weight,
		Reps:      in.Reps,
		RPE:       in.RPE,
		Payload:   in.Payload,
		Completed: true,
	})
	e.startRestLocked()
	e.mutatedLocked()
	return set.Clone(), nil
}

// ToggleSetCompleted flips the completed flag of a set and returns the new value.
// The rest timer starts only when a set becomes completed.
func (e *Engine) ToggleSetCompleted(exerciseID string, position int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, err := e.exerciseLocked(exerciseID)
	if err != nil {
		return false, err
	}
	set := ex.Set(position)
	if set == nil {
		return false, ErrSetNotFound
	}
	set.Completed = !set.Completed
	if set.Completed {
		e.startRestLocked()
	}
	e.mutatedLocked()
	return set.Completed, nil
}

// UpdateSet replaces the editable fields of a set, keeping its position and completed flag.
func (e *Engine) UpdateSet(exerciseID string, position int, in SetInput) error {
	if err := validateInput(&in); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, err := e.exerciseLocked(exerciseID)
	if err != nil {
		return err
	}
	set := ex.Set(position)
	if set == nil {
		return ErrSetNotFound
	}
	set.Weight, set.Reps, set.RPE, set.Payload = in.Weight, in.Reps, in.RPE, in.Payload
	e.mutatedLocked()
	return nil
}

// DeleteSet removes a set and renumbers the remaining sets of the exercise.
// A pending superset selection follows its set through the renumbering; if
// its own set is deleted the draft becomes a new set.
func (e *Engine) DeleteSet(exerciseID string, position int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, err := e.exerciseLocked(exerciseID)
	if err != nil {
		return err
	}
	if !ex.DeleteSet(position) {
		return ErrSetNotFound
	}
	if p := e.pending; p != nil && p.ExerciseID == exerciseID && p.Position > 0 {
		switch {
		case p.Position == position:
			p.Position = 0
		case p.Position > position:
			p.Position--
		}
	}
	e.mutatedLocked()
	return nil
}

// Cancel discards the session and its snapshot. It cannot be undone.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusActive {
		return ErrNotActive
	}
	e.status = StatusCancelled
	e.exercises = nil
	e.pending = nil
	e.rest.Skip()
	if e.stopBG != nil {
		e.stopBG()
	}
	e.autosave.Clear()
	e.log.Info("workout cancelled", "name", e.name)
	return nil
}

// SaveForLater stores a snapshot in the continuation store and pauses the
// engine for good. Repeated calls return the first snapshot without writing again.
func (e *Engine) SaveForLater(ctx context.Context) (*models.SessionSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusPaused && e.paused != nil {
		snap := *e.paused
		return &snap, nil
	}
	if e.status != StatusActive {
		return nil, ErrNotActive
	}
	snap := e.snapshotLocked()
	if e.deps.Store != nil {
		if err := e.deps.Store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("saving session for later: %w", err)
		}
	}
	e.status = StatusPaused
	e.paused = &snap
	e.pending = nil
	e.rest.Skip()
	e.log.Info("workout saved for later", "name", e.name, "elapsed", snap.ElapsedSeconds)
	out := snap
	return &out, nil
}

// Flush writes the current snapshot. Hosts call it on termination signals.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusActive {
		e.autosave.Write(e.snapshotLocked())
	}
}

// StartRest starts the rest countdown with the configured duration, or seconds when positive.
func (e *Engine) StartRest(seconds int) {
	if seconds <= 0 {
		seconds = e.opts.RestSeconds
	}
	e.rest.Start(seconds)
}

// SkipRest stops the rest countdown without touching the session.
func (e *Engine) SkipRest() {
	e.rest.Skip()
}

// RestTimer exposes the countdown so the host can drive its ticks.
func (e *Engine) RestTimer() *resttimer.Timer {
	return e.rest
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Elapsed returns the elapsed seconds derived from the start instant.
func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clock.Elapsed(e.startedAt, e.clock.Now())
}

// View returns a deep copy of the session for rendering.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := View{
		Name:           e.name,
		SessionID:      e.sessionID,
		TemplateID:     e.templateID,
		Status:         e.status,
		StartedAt:      e.startedAt,
		ElapsedSeconds: clock.Elapsed(e.startedAt, e.clock.Now()),
		Exercises:      models.CloneEntries(e.exercises),
		Rest:           e.rest.State(),
	}
	if e.pending != nil {
		p := *e.pending
		v.Pending = &p
	}
	return v
}

func (e *Engine) snapshotLocked() models.SessionSnapshot {
	now := e.clock.Now()
	return models.SessionSnapshot{
		Name:           e.name,
		SessionID:      e.sessionID,
		TemplateID:     e.templateID,
		Exercises:      models.CloneEntries(e.exercises),
		ElapsedSeconds: clock.Elapsed(e.startedAt, now),
		StartedAt:      e.startedAt,
		SnapshotAt:     now,
	}
}

func (e *Engine) mutatedLocked() {
	e.autosave.Write(e.snapshotLocked())
}

func (e *Engine) startRestLocked() {
	if e.deps.Preferences != nil && e.deps.Preferences.RestTimerEnabled() {
		e.rest.Start(e.opts.RestSeconds)
	}
}

func (e *Engine) exerciseLocked(id string) (*models.ExerciseEntry, error) {
	if e.status != StatusActive {
		return nil, ErrNotActive
	}
	for i := range e.exercises {
		if e.exercises[i].ID == id {
			return &e.exercises[i], nil
		}
	}
	return nil, ErrExerciseNotFound
}

func validateInput(in *SetInput) error {
	if in.RPE != nil && (*in.RPE < 1 || *in.RPE > 10) {
		return ErrInvalidRPE
	}
	switch p := in.Payload.(type) {
	case nil:
		in.Payload = models.Plain{}
	case models.Superset:
		s, err := models.NewSuperset(p.PartnerName, p.PartnerWeight, p.PartnerReps)
		if err != nil {
			return err
		}
		in.Payload = s
	case models.Dropset:
		d, err := models.NewDropset(p.Drops)
		if err != nil {
			return err
		}
		in.Payload = d
	}
	if in.RPE != nil {
		v := *in.RPE
		in.RPE = &v
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
