package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/live"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/workout"
)

type fakeBackend struct {
	mu   sync.Mutex
	sets []models.SetWrite
}

func (f *fakeBackend) CreateSession(context.Context, string, string) (string, error) {
	return "s1", nil
}

func (f *fakeBackend) LogSet(_ context.Context, _, _ string, set models.SetWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, set)
	return nil
}

func (f *fakeBackend) CompleteSession(context.Context, string, models.Completion) error { return nil }

func (f *fakeBackend) GetExerciseHistory(context.Context, int) ([]models.ExerciseHistory, error) {
	return nil, nil
}

type fakeSessions struct{}

func (fakeSessions) ListSessions(_ context.Context, limit int) ([]models.SessionRow, error) {
	return make([]models.SessionRow, limit), nil
}

func (fakeSessions) GetSession(_ context.Context, id string) (*models.SessionDetail, error) {
	return &models.SessionDetail{Session: models.SessionRow{Name: id}}, nil
}

func newHandlers(t *testing.T) (*handlers, *fakeBackend) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	backend := &fakeBackend{}
	host := live.NewHost(workout.Deps{Persistence: backend}, workout.Options{}, cat, nil)
	t.Cleanup(host.Close)
	return &handlers{host: host, sessions: fakeSessions{}, log: slog.New(slog.DiscardHandler)}, backend
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), v))
}

// TestParseDrops verifies the WEIGHTxREPS list format.
func TestParseDrops(t *testing.T) {
	tests := []struct {
		in      string
		want    []models.DropEntry
		wantErr bool
	}{
		{in: "60x8", want: []models.DropEntry{{Weight: 60, Reps: 8}}},
		{in: "60x8, 45.5X6", want: []models.DropEntry{{Weight: 60, Reps: 8}, {Weight: 45.5, Reps: 6}}},
		{in: " , ", want: nil},
		{in: "60", wantErr: true},
		{in: "ax8", wantErr: true},
		{in: "60xb", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseDrops(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDrops(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDrops(%q) error: %v", tt.in, err)
			continue
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// TestWorkoutTools drives a workout through the tool handlers.
func TestWorkoutTools(t *testing.T) {
	h, backend := newHandlers(t)
	ctx := context.Background()

	res, err := h.startWorkout(ctx, call(map[string]any{"name": "Tool Day"}))
	require.NoError(t, err)
	var view workout.View
	decodeResult(t, res, &view)
	assert.Equal(t, "Tool Day", view.Name)

	res, err = h.startWorkout(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.addExercise(ctx, call(map[string]any{"name": "Bench Press"}))
	require.NoError(t, err)
	var added struct {
		ExerciseID string `json:"exercise_id"`
	}
	decodeResult(t, res, &added)
	require.NotEmpty(t, added.ExerciseID)

	res, err = h.logSet(ctx, call(map[string]any{
		"exercise_id": added.ExerciseID, "weight": 100.0, "reps": 5.0, "rpe": 9.0,
	}))
	require.NoError(t, err)
	var set models.SetRecord
	decodeResult(t, res, &set)
	assert.True(t, set.Completed)
	require.NotNil(t, set.RPE)
	assert.Equal(t, 9, *set.RPE)

	res, err = h.logSet(ctx, call(map[string]any{
		"exercise_id": added.ExerciseID, "weight": 80.0, "reps": 8.0, "drops": "60x8, 45x8",
	}))
	require.NoError(t, err)
	decodeResult(t, res, &set)
	assert.Equal(t, models.KindDropset, set.Kind())

	res, err = h.logSet(ctx, call(map[string]any{
		"exercise_id": added.ExerciseID, "reps": 8.0, "drops": "60x8", "superset_partner": "Dips",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.toggleSet(ctx, call(map[string]any{"exercise_id": added.ExerciseID, "position": 2.0}))
	require.NoError(t, err)
	var toggled struct {
		Completed bool `json:"completed"`
	}
	decodeResult(t, res, &toggled)
	assert.False(t, toggled.Completed)

	res, err = h.finishWorkout(ctx, call(nil))
	require.NoError(t, err)
	var summary models.Summary
	decodeResult(t, res, &summary)
	assert.Equal(t, "s1", summary.SessionID)
	assert.Equal(t, 500.0, summary.TotalVolume)

	backend.mu.Lock()
	assert.Len(t, backend.sets, 1)
	backend.mu.Unlock()

	res, err = h.getWorkout(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// TestSupersetTools verifies the selection handoff preserves the draft.
func TestSupersetTools(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()
	_, err := h.startWorkout(ctx, call(nil))
	require.NoError(t, err)
	res, err := h.addExercise(ctx, call(map[string]any{"name": "Bench Press"}))
	require.NoError(t, err)
	var added struct {
		ExerciseID string `json:"exercise_id"`
	}
	decodeResult(t, res, &added)

	res, err = h.suggestSuperset(ctx, call(map[string]any{"exercise_id": added.ExerciseID, "weight": 70.0, "reps": 10.0}))
	require.NoError(t, err)
	var begin struct {
		Suggestions []catalog.Exercise `json:"suggestions"`
	}
	decodeResult(t, res, &begin)
	assert.NotEmpty(t, begin.Suggestions)

	res, err = h.selectSuperset(ctx, call(map[string]any{"partner": "Cable Fly"}))
	require.NoError(t, err)
	var sel struct {
		Draft    workout.SetDraft `json:"draft"`
		Superset models.Superset  `json:"superset"`
	}
	decodeResult(t, res, &sel)
	assert.Equal(t, 70.0, sel.Draft.Weight)
	assert.Equal(t, 10, sel.Draft.Reps)
	assert.Equal(t, "Cable Fly", sel.Superset.PartnerName)

	res, err = h.cancelSuperset(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// TestSuggestDropsTool verifies defaults and validation.
func TestSuggestDropsTool(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	res, err := h.suggestDrops(ctx, call(map[string]any{"weight": 100.0, "reps": 8.0}))
	require.NoError(t, err)
	var drops []models.DropEntry
	decodeResult(t, res, &drops)
	assert.Len(t, drops, 3)
	assert.Equal(t, 75.0, drops[0].Weight)

	res, err = h.suggestDrops(ctx, call(map[string]any{"weight": 0.0, "reps": 8.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// TestSessionTools verifies the backend session lookups.
func TestSessionTools(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	res, err := h.listSessions(ctx, call(nil))
	require.NoError(t, err)
	var rows []models.SessionRow
	decodeResult(t, res, &rows)
	assert.Len(t, rows, defaultSessionLimit)

	res, err = h.getSession(ctx, call(map[string]any{"session_id": "abc"}))
	require.NoError(t, err)
	var detail models.SessionDetail
	decodeResult(t, res, &detail)
	assert.Equal(t, "abc", detail.Session.Name)
}

// TestResources verifies the template and current workout resources.
func TestResources(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	var req mcp.ReadResourceRequest
	req.Params.URI = "liftlog://templates"
	contents, err := h.templates(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents).Text
	assert.True(t, strings.Contains(text, "push-a"), text)

	req.Params.URI = "liftlog://current_workout"
	_, err = h.currentWorkout(ctx, req)
	assert.ErrorIs(t, err, live.ErrNoWorkout)
}
