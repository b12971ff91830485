package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// fakeRepo is an in-memory Repository keyed by session id.
type fakeRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*models.SessionDetail
	history   []models.ExerciseHistory
	failWrite error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[uuid.UUID]*models.SessionDetail)}
}

func (f *fakeRepo) CreateSession(_ context.Context, userID int, name, templateID string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	row := models.SessionRow{ID: id, UserID: userID, Name: name}
	if templateID != "" {
		row.TemplateID = &templateID
	}
	f.sessions[id] = &models.SessionDetail{Session: row}
	return id, nil
}

func (f *fakeRepo) InsertSessionSet(_ context.Context, userID int, sessionID uuid.UUID, exerciseName string, set models.SetWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	d, ok := f.sessions[sessionID]
	if !ok || d.Session.UserID != userID {
		return storage.ErrNotFound
	}
	row := models.SessionSetRow{
		SessionID: sessionID, UserID: userID, ExerciseID: set.ExerciseID, ExerciseName: exerciseName,
		Position: set.Position, Weight: set.Weight, Reps: set.Reps, RPE: set.RPE,
	}
	for i, r := range d.Sets {
		if r.ExerciseID == set.ExerciseID && r.Position == set.Position {
			d.Sets[i] = row
			return nil
		}
	}
	d.Sets = append(d.Sets, row)
	return nil
}

func (f *fakeRepo) CompleteSession(_ context.Context, userID int, sessionID uuid.UUID, c models.Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.sessions[sessionID]
	if !ok || d.Session.UserID != userID {
		return storage.ErrNotFound
	}
	d.Session.TotalVolume = &c.TotalVolume
	d.Session.TotalSets = &c.TotalSets
	return nil
}

func (f *fakeRepo) GetExerciseHistory(context.Context, int) ([]models.ExerciseHistory, error) {
	return f.history, nil
}

func (f *fakeRepo) ListSessions(_ context.Context, userID, _ int) ([]models.SessionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SessionRow
	for _, d := range f.sessions {
		if d.Session.UserID == userID {
			out = append(out, d.Session)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSession(_ context.Context, userID int, sessionID uuid.UUID) (*models.SessionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.sessions[sessionID]
	if !ok || d.Session.UserID != userID {
		return nil, storage.ErrNotFound
	}
	c := *d
	return &c, nil
}

const testKey = "test-key"

func newTestServer(repo Repository) *Server {
	return New(repo, testKey, nil, slog.New(slog.DiscardHandler))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestSessionLifecycle walks create, log set, complete and detail through the router.
func TestSessionLifecycle(t *testing.T) {
	repo := newFakeRepo()
	s := newTestServer(repo)

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", `{"name":"Push A","template_id":"push-a"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/sessions/"+created.ID+"/sets",
		`{"exercise_id":"e1","exercise_name":"Bench Press","position":1,"weight":80,"reps":5,"rpe":8}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("log set status = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/sessions/"+created.ID+"/complete",
		`{"duration_minutes":45,"total_volume":400,"exercise_count":1,"total_sets":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want 200: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/sessions/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var detail models.SessionDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.Session.Name != "Push A" {
		t.Errorf("name = %q, want Push A", detail.Session.Name)
	}
	if len(detail.Sets) != 1 || detail.Sets[0].Weight != 80 {
		t.Errorf("sets = %+v", detail.Sets)
	}
	if detail.Session.TotalVolume == nil || *detail.Session.TotalVolume != 400 {
		t.Errorf("total_volume = %v, want 400", detail.Session.TotalVolume)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/sessions", "")
	var rows []models.SessionRow
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("list len = %d, want 1", len(rows))
	}
}

// TestCreateSessionDefaultsName verifies that a blank name becomes "Workout".
func TestCreateSessionDefaultsName(t *testing.T) {
	repo := newFakeRepo()
	rec := do(t, newTestServer(repo), http.MethodPost, "/api/v1/sessions", `{"name":"  "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	for _, d := range repo.sessions {
		if d.Session.Name != "Workout" {
			t.Errorf("name = %q, want Workout", d.Session.Name)
		}
	}
}

// TestLogSetErrors covers request validation and missing sessions.
func TestLogSetErrors(t *testing.T) {
	repo := newFakeRepo()
	s := newTestServer(repo)
	id, _ := repo.CreateSession(context.Background(), 1, "x", "")
	missing := uuid.New().String()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad uuid", "/api/v1/sessions/nope/sets", `{}`, http.StatusBadRequest},
		{"bad json", "/api/v1/sessions/" + id.String() + "/sets", `{`, http.StatusBadRequest},
		{"no exercise", "/api/v1/sessions/" + id.String() + "/sets", `{"exercise_id":"e1","position":1}`, http.StatusBadRequest},
		{"no exercise id", "/api/v1/sessions/" + id.String() + "/sets", `{"exercise_name":"Dips","position":1}`, http.StatusBadRequest},
		{"zero position", "/api/v1/sessions/" + id.String() + "/sets", `{"exercise_id":"e1","exercise_name":"Dips"}`, http.StatusBadRequest},
		{"bad rpe", "/api/v1/sessions/" + id.String() + "/sets", `{"exercise_id":"e1","exercise_name":"Dips","position":1,"rpe":11}`, http.StatusBadRequest},
		{"unknown session", "/api/v1/sessions/" + missing + "/sets", `{"exercise_id":"e1","exercise_name":"Dips","position":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// TestLogSetStorageError verifies that unexpected storage errors surface as 500.
func TestLogSetStorageError(t *testing.T) {
	repo := newFakeRepo()
	id, _ := repo.CreateSession(context.Background(), 1, "x", "")
	repo.failWrite = errors.New("connection reset")

	rec := do(t, newTestServer(repo), http.MethodPost, "/api/v1/sessions/"+id.String()+"/sets",
		`{"exercise_id":"e1","exercise_name":"Dips","position":1,"reps":10,"weight":-1}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// TestLogSetSameNameEntries verifies that two entries of the same exercise keep
// separate rows while a repeated write of one entry's set replaces it.
func TestLogSetSameNameEntries(t *testing.T) {
	repo := newFakeRepo()
	s := newTestServer(repo)
	id, _ := repo.CreateSession(context.Background(), 1, "Legs", "")
	path := "/api/v1/sessions/" + id.String() + "/sets"

	bodies := []string{
		`{"exercise_id":"a","exercise_name":"Squat","position":1,"weight":100,"reps":5}`,
		`{"exercise_id":"b","exercise_name":"Squat","position":1,"weight":60,"reps":12}`,
		`{"exercise_id":"a","exercise_name":"Squat","position":1,"weight":100,"reps":5}`,
	}
	for _, body := range bodies {
		if rec := do(t, s, http.MethodPost, path, body); rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}
	}

	d, err := repo.GetSession(context.Background(), 1, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(d.Sets))
	}
	if d.Sets[0].Weight != 100 || d.Sets[1].Weight != 60 {
		t.Errorf("weights = %v, %v, want 100, 60", d.Sets[0].Weight, d.Sets[1].Weight)
	}
}

// TestCompleteUnknownSession verifies the 404 mapping for completion.
func TestCompleteUnknownSession(t *testing.T) {
	rec := do(t, newTestServer(newFakeRepo()), http.MethodPost,
		"/api/v1/sessions/"+uuid.New().String()+"/complete", `{}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestExerciseHistory verifies the history endpoint returns an array even when empty.
func TestExerciseHistory(t *testing.T) {
	repo := newFakeRepo()
	s := newTestServer(repo)

	rec := do(t, s, http.MethodGet, "/api/v1/exercises/history", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty history body = %s, want []", got)
	}

	repo.history = []models.ExerciseHistory{{ExerciseName: "Bench Press", LastWeight: 80, LastReps: 5}}
	rec = do(t, s, http.MethodGet, "/api/v1/exercises/history", "")
	var rows []models.ExerciseHistory
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].LastReps != 5 {
		t.Errorf("rows = %+v", rows)
	}
}

// TestAPIKeyRequired verifies that the API routes reject missing and wrong keys.
func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(newFakeRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	rec := do(t, newTestServer(newFakeRepo()), http.MethodGet, "/api/v1/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}
