package workout

import (
	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/models"
)

// maxSupersetSuggestions caps the partner list shown during selection.
const maxSupersetSuggestions = 6

// SetDraft is a set being composed before it is saved. Position 0 means a new set.
type SetDraft struct {
	ExerciseID string         `json:"exercise_id"`
	Position   int            `json:"position"`
	Weight     float64        `json:"weight"`
	Reps       int            `json:"reps"`
	RPE        *int           `json:"rpe,omitempty"`
	Payload    models.Payload `json:"-"`
}

// Input converts the draft into the input of LogSet or UpdateSet.
func (d SetDraft) Input() SetInput {
	return SetInput{Weight: d.Weight, Reps: d.Reps, RPE: d.RPE, Payload: d.Payload}
}

// PendingSet is the continuation captured while the user picks a superset
// partner. The engine holds at most one.
type PendingSet struct {
	ExerciseID string  `json:"exercise_id"`
	Position   int     `json:"position"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	RPE        *int    `json:"rpe,omitempty"`
}

func (p PendingSet) draft() SetDraft {
	return SetDraft{
		ExerciseID: p.ExerciseID,
		Position:   p.Position,
		Weight:     p.Weight,
		Reps:       p.Reps,
		RPE:        p.RPE,
		Payload:    models.Plain{},
	}
}

// BeginSupersetSelection suspends set composition: the draft is captured as
// the pending continuation and ranked partner suggestions are returned.
func (e *Engine) BeginSupersetSelection(d SetDraft) ([]catalog.Exercise, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex, err := e.exerciseLocked(d.ExerciseID)
	if err != nil {
		return nil, err
	}
	if e.pending != nil {
		return nil, ErrSelectionPending
	}
	if d.Position != 0 && ex.Set(d.Position) == nil {
		return nil, ErrSetNotFound
	}

	p := &PendingSet{
		ExerciseID: d.ExerciseID,
		Position:   d.Position,
		Weight:     d.Weight,
		Reps:       d.Reps,
	}
	if d.RPE != nil {
		v := *d.RPE
		p.RPE = &v
	}
	e.pending = p

	exclude := make(map[string]bool, len(e.exercises))
	for _, entry := range e.exercises {
		exclude[normalizeName(entry.Name)] = true
	}
	return rankPartners(e.deps.Catalog, ex.Name, exclude, maxSupersetSuggestions), nil
}

// CompleteSupersetSelection resumes composition with the chosen partner
// attached. Partner weight and reps are prefilled from history when known.
func (e *Engine) CompleteSupersetSelection(partner string) (SetDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return SetDraft{}, ErrNoPendingSelection
	}
	var weight float64
	var reps int
	if h, ok := e.history[normalizeName(partner)]; ok {
		weight, reps = h.LastWeight, h.LastReps
	}
	ss, err := models.NewSuperset(partner, weight, reps)
	if err != nil {
		return SetDraft{}, err
	}
	d := e.pending.draft()
	d.Payload = ss
	e.pending = nil
	return d, nil
}

// CancelSupersetSelection resumes composition without a partner.
func (e *Engine) CancelSupersetSelection() (SetDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return SetDraft{}, ErrNoPendingSelection
	}
	d := e.pending.draft()
	e.pending = nil
	return d, nil
}

// rankPartners prefers the current exercise's muscle group trained with
// different equipment, then the same equipment. Exercises already in the
// session are excluded. Without catalog data for the current exercise the
// first remaining entries are returned unranked.
func rankPartners(cat Catalog, current string, exclude map[string]bool, limit int) []catalog.Exercise {
	if cat == nil {
		return nil
	}
	cur, known := cat.FindByName(current)

	var varied, same, rest []catalog.Exercise
	for _, ex := range cat.List() {
		if exclude[normalizeName(ex.Name)] {
			continue
		}
		switch {
		case !known:
			rest = append(rest, ex)
		case ex.MuscleGroup != cur.MuscleGroup:
			// other muscle groups are never suggested
		case ex.Equipment != cur.Equipment:
			varied = append(varied, ex)
		default:
			same = append(same, ex)
		}
	}

	out := rest
	if known {
		out = append(varied, same...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
