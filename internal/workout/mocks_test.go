package workout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/meltforce/liftlog/internal/models"
)

// mockPersistence is a testify mock for Persistence.
type mockPersistence struct {
	mock.Mock
}

func (m *mockPersistence) CreateSession(ctx context.Context, name, templateID string) (string, error) {
	args := m.Called(ctx, name, templateID)
	return args.String(0), args.Error(1)
}

func (m *mockPersistence) LogSet(ctx context.Context, sessionID, exerciseName string, set models.SetWrite) error {
	args := m.Called(ctx, sessionID, exerciseName, set)
	return args.Error(0)
}

func (m *mockPersistence) CompleteSession(ctx context.Context, sessionID string, c models.Completion) error {
	args := m.Called(ctx, sessionID, c)
	return args.Error(0)
}

func (m *mockPersistence) GetExerciseHistory(ctx context.Context, userID int) ([]models.ExerciseHistory, error) {
	args := m.Called(ctx, userID)
	if rows, ok := args.Get(0).([]models.ExerciseHistory); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

// newPersistence returns a mock that answers the history lookup every engine
// issues on start.
func newPersistence(history ...models.ExerciseHistory) *mockPersistence {
	p := &mockPersistence{}
	p.On("GetExerciseHistory", mock.Anything, mock.Anything).Return(history, nil)
	return p
}

// memStore is an in-memory ContinuationStore.
type memStore struct {
	mu     sync.Mutex
	snap   *models.SessionSnapshot
	saves  int
	clears int
	err    error
}

func (s *memStore) Save(_ context.Context, snap models.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.snap = &snap
	return nil
}

func (s *memStore) Load(context.Context) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, nil
	}
	c := *s.snap
	return &c, nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.snap = nil
	return nil
}

func (s *memStore) current() *models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// recordingSink keeps every commit report.
type recordingSink struct {
	mu      sync.Mutex
	reports []CommitReport
}

func (s *recordingSink) RecordCommit(_ context.Context, r CommitReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
}

func (s *recordingSink) last() CommitReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[len(s.reports)-1]
}

// waitBackground blocks until the start-time allocation and history lookup
// have finished.
func waitBackground(t *testing.T, e *Engine) {
	t.Helper()
	for _, ch := range []chan struct{}{e.allocDone, e.historyDone} {
		if ch == nil {
			continue
		}
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("background work did not finish")
		}
	}
}

func intPtr(v int) *int { return &v }
