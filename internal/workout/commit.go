package workout

import (
	"context"
	"fmt"
	"sync"

	"github.com/meltforce/liftlog/internal/clock"
	"github.com/meltforce/liftlog/internal/models"
)

// Totals are the aggregates computed at finish time.
type Totals struct {
	TotalSets     int
	CompletedSets int
	Volume        float64
}

// Aggregate sums sets over all exercises. Volume counts completed sets only;
// payload volume is added only when includePayload is set.
func Aggregate(exercises []models.ExerciseEntry, includePayload bool) Totals {
	var t Totals
	for _, ex := range exercises {
		for _, s := range ex.Sets {
			t.TotalSets++
			if !s.Completed {
				continue
			}
			t.CompletedSets++
			t.Volume += s.Volume()
			if includePayload {
				t.Volume += s.PayloadVolume()
			}
		}
	}
	return t
}

// SetError records one failed "log set" write.
type SetError struct {
	ExerciseName string
	Position     int
	Err          error
}

// CommitReport is the outcome of a finish commit. SetsSkipped counts
// completed sets that are not loggable and therefore never written.
type CommitReport struct {
	SessionID        string
	SetsAttempted    int
	SetsCommitted    int
	SetsSkipped      int
	SetErrors        []SetError
	SessionCompleted bool
	SessionError     error
	Summary          models.Summary
}

// Finish commits the session. Remote failures are logged and reported to the
// Sink but never returned: the summary is always produced once the commit
// has started. Only a session that is not active yields an error.
//
// The commit ignores cancellation of ctx; once started it runs to the end,
// bounded by Options.CommitTimeout.
func (e *Engine) Finish(ctx context.Context) (*models.Summary, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.CommitTimeout)
	defer cancel()

	e.mu.Lock()
	if e.status != StatusActive {
		e.mu.Unlock()
		return nil, ErrNotActive
	}
	e.status = StatusFinishing
	e.pending = nil
	exercises := models.CloneEntries(e.exercises)
	elapsed := clock.Elapsed(e.startedAt, e.clock.Now())
	e.mu.Unlock()

	e.rest.Skip()
	report := e.commit(ctx, exercises, elapsed)
	e.autosave.Clear()

	e.mu.Lock()
	e.status = StatusFinished
	e.sessionID = report.SessionID
	e.mu.Unlock()

	e.deps.Sink.RecordCommit(ctx, report)
	e.log.Info("workout finished",
		"session_id", report.SessionID,
		"sets_committed", report.SetsCommitted,
		"sets_attempted", report.SetsAttempted,
		"session_completed", report.SessionCompleted,
		"volume", report.Summary.TotalVolume)

	summary := report.Summary
	return &summary, nil
}

func (e *Engine) commit(ctx context.Context, exercises []models.ExerciseEntry, elapsed int) CommitReport {
	totals := Aggregate(exercises, e.opts.IncludePayloadVolume)
	report := CommitReport{
		Summary: models.Summary{
			Name:            e.name,
			DurationSeconds: elapsed,
			DurationMinutes: elapsed / 60,
			TotalSets:       totals.TotalSets,
			CompletedSets:   totals.CompletedSets,
			Exercises:       len(exercises),
			TotalVolume:     totals.Volume,
		},
	}

	sessionID, err := e.ensureSessionID(ctx)
	if err != nil {
		e.log.Error("no session id, skipping remote commit", "error", err)
		report.SessionError = err
		return report
	}
	report.SessionID = sessionID
	report.Summary.SessionID = sessionID

	type job struct {
		id   string
		name string
		set  models.SetRecord
	}
	var jobs []job
	for _, ex := range exercises {
		for _, s := range ex.Sets {
			if !s.Completed {
				continue
			}
			if !s.Loggable() {
				report.SetsSkipped++
				continue
			}
			jobs = append(jobs, job{id: ex.ID, name: ex.Name, set: s})
		}
	}
	report.SetsAttempted = len(jobs)
	if report.SetsSkipped > 0 {
		e.log.Info("completed sets without weight or reps not logged", "count", report.SetsSkipped)
	}

	errs := make([]error, len(jobs))
	sem := make(chan struct{}, e.opts.CommitConcurrency)
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = e.deps.Persistence.LogSet(ctx, sessionID, j.name, models.SetWrite{
				ExerciseID: j.id,
				Position:   j.set.Position,
				Weight:     j.set.Weight,
				Reps:       j.set.Reps,
				RPE:        j.set.RPE,
				IsWarmup:   false,
			})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			e.log.Warn("logging set failed", "exercise", jobs[i].name, "position", jobs[i].set.Position, "error", err)
			report.SetErrors = append(report.SetErrors, SetError{
				ExerciseName: jobs[i].name,
				Position:     jobs[i].set.Position,
				Err:          err,
			})
			continue
		}
		report.SetsCommitted++
	}

	// The backend total matches the set rows it actually holds.
	err = e.deps.Persistence.CompleteSession(ctx, sessionID, models.Completion{
		DurationMinutes: elapsed / 60,
		TotalVolume:     totals.Volume,
		ExerciseCount:   len(exercises),
		TotalSets:       report.SetsCommitted,
	})
	if err != nil {
		e.log.Error("completing session failed", "session_id", sessionID, "error", err)
		report.SessionError = err
		return report
	}
	report.SessionCompleted = true
	return report
}

// ensureSessionID waits for a background allocation still in flight and
// allocates synchronously when none succeeded.
func (e *Engine) ensureSessionID(ctx context.Context) (string, error) {
	if e.allocDone != nil {
		select {
		case <-e.allocDone:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	e.mu.Lock()
	id := e.sessionID
	e.mu.Unlock()
	if id != "" {
		return id, nil
	}

	id, err := e.deps.Persistence.CreateSession(ctx, e.name, e.templateID)
	if err != nil {
		return "", fmt.Errorf("allocating session at finish: %w", err)
	}
	if id == "" {
		return "", ErrNoSessionID
	}
	return id, nil
}
