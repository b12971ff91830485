package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/workout"
)

const (
	defaultDropCount    = 3
	defaultSessionLimit = 10
)

// parseDrops parses "60x8, 45x8" into dropset entries.
func parseDrops(s string) ([]models.DropEntry, error) {
	var drops []models.DropEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, r, ok := strings.Cut(strings.ToLower(part), "x")
		if !ok {
			return nil, fmt.Errorf("drop %q: want WEIGHTxREPS", part)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return nil, fmt.Errorf("drop %q: bad weight", part)
		}
		reps, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("drop %q: bad reps", part)
		}
		drops = append(drops, models.DropEntry{Weight: weight, Reps: reps})
	}
	return drops, nil
}

// setInput builds engine input from the weight/reps/rpe arguments and an
// optional superset partner or drop list.
func setInput(req mcp.CallToolRequest) (workout.SetInput, error) {
	in := workout.SetInput{
		Weight:  req.GetFloat("weight", 0),
		Reps:    req.GetInt("reps", 0),
		Payload: models.Plain{},
	}
	if rpe := req.GetInt("rpe", 0); rpe != 0 {
		in.RPE = &rpe
	}

	partner := req.GetString("superset_partner", "")
	dropSpec := req.GetString("drops", "")
	switch {
	case partner != "" && dropSpec != "":
		return in, fmt.Errorf("a set is either a superset or a dropset")
	case partner != "":
		in.Payload = models.Superset{
			PartnerName:   partner,
			PartnerWeight: req.GetFloat("superset_weight", 0),
			PartnerReps:   req.GetInt("superset_reps", 0),
		}
	case dropSpec != "":
		drops, err := parseDrops(dropSpec)
		if err != nil {
			return in, err
		}
		in.Payload = models.Dropset{Drops: drops}
	}
	return in, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a new live workout, freeform or from a template. Fails when a workout is already in progress."),
	mcp.WithString("name", mcp.Description("Workout name. Defaults to the template name or 'Workout'.")),
	mcp.WithString("template_id", mcp.Description("Template to seed exercises from (see liftlog://templates)")),
)

var toolResumeWorkout = mcp.NewTool("resume_workout",
	mcp.WithDescription("Resume the workout saved on this device. Elapsed time continues from where it stopped."),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get the live workout: exercises with their sets, elapsed seconds, rest timer and any pending superset selection."),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Add an exercise to the live workout. Returns the exercise id used by the set tools."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. 'Bench Press')")),
)

var toolRemoveExercise = mcp.NewTool("remove_exercise",
	mcp.WithDescription("Remove an exercise and all its sets from the live workout."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id")),
)

var toolLogSet = mcp.NewTool("log_set",
	mcp.WithDescription("Log a completed set. With position, edits that set instead of appending one. Use weight -1 for bodyweight."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id")),
	mcp.WithNumber("weight", mcp.Description("Weight; -1 means bodyweight")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions")),
	mcp.WithNumber("rpe", mcp.Description("Rate of perceived exertion, 1-10")),
	mcp.WithNumber("position", mcp.Description("Existing set position to edit (1-based)")),
	mcp.WithString("superset_partner", mcp.Description("Superset partner exercise")),
	mcp.WithNumber("superset_weight", mcp.Description("Superset partner weight")),
	mcp.WithNumber("superset_reps", mcp.Description("Superset partner reps")),
	mcp.WithString("drops", mcp.Description("Dropset drops as 'WEIGHTxREPS' list, e.g. '60x8, 45x8'")),
)

var toolToggleSet = mcp.NewTool("toggle_set",
	mcp.WithDescription("Flip a set between completed and not completed."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id")),
	mcp.WithNumber("position", mcp.Required(), mcp.Description("Set position (1-based)")),
)

var toolDeleteSet = mcp.NewTool("delete_set",
	mcp.WithDescription("Delete a set. Later sets of the exercise are renumbered."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id")),
	mcp.WithNumber("position", mcp.Required(), mcp.Description("Set position (1-based)")),
)

var toolSuggestSuperset = mcp.NewTool("suggest_superset",
	mcp.WithDescription("Begin a superset: keeps the set being composed and returns partner suggestions from the same muscle group. Finish with select_superset_partner or cancel_superset."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id")),
	mcp.WithNumber("position", mcp.Description("Existing set position, or omit for a new set")),
	mcp.WithNumber("weight", mcp.Description("Weight entered so far")),
	mcp.WithNumber("reps", mcp.Description("Reps entered so far")),
	mcp.WithNumber("rpe", mcp.Description("RPE entered so far")),
)

var toolSelectSuperset = mcp.NewTool("select_superset_partner",
	mcp.WithDescription("Pick the superset partner. Returns the preserved draft with the partner attached; partner weight and reps are prefilled from history."),
	mcp.WithString("partner", mcp.Required(), mcp.Description("Partner exercise name")),
)

var toolCancelSuperset = mcp.NewTool("cancel_superset",
	mcp.WithDescription("Abandon the superset selection and return the preserved draft."),
)

var toolSuggestDrops = mcp.NewTool("suggest_drops",
	mcp.WithDescription("Suggest dropset drops: each drop is 75% of the previous weight, rounded to 0.5."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Main set weight")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Main set reps")),
	mcp.WithNumber("count", mcp.Description("Number of drops. Defaults to 3.")),
)

var toolStartRest = mcp.NewTool("start_rest",
	mcp.WithDescription("Start the rest countdown."),
	mcp.WithNumber("seconds", mcp.Description("Countdown length. Defaults to the configured rest time.")),
)

var toolSkipRest = mcp.NewTool("skip_rest",
	mcp.WithDescription("Stop the rest countdown."),
)

var toolFinishWorkout = mcp.NewTool("finish_workout",
	mcp.WithDescription("Finish the live workout and commit completed sets to the backend. Returns the summary even if the backend is unreachable."),
)

var toolSaveForLater = mcp.NewTool("save_for_later",
	mcp.WithDescription("Store the live workout on this device to resume later."),
)

var toolCancelWorkout = mcp.NewTool("cancel_workout",
	mcp.WithDescription("Discard the live workout. Nothing is committed and the saved copy is removed."),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List recently committed workout sessions from the backend."),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 10.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get a committed session with all its logged sets."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

// --- Tool handlers ---

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.host.Start(ctx, strings.TrimSpace(req.GetString("name", "")), req.GetString("template_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e.View())
}

func (h *handlers) resumeWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.host.Resume(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e.View())
}

func (h *handlers) getWorkout(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e.View())
}

func (h *handlers) addExercise(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := e.AddExercise(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{"exercise_id": id, "name": strings.TrimSpace(name)})
}

func (h *handlers) removeExercise(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := e.RemoveExercise(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("exercise removed"), nil
}

func (h *handlers) logSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	in, err := setInput(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if pos := req.GetInt("position", 0); pos > 0 {
		if err := e.UpdateSet(id, pos, in); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(e.View())
	}
	set, err := e.LogSet(id, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(set)
}

func (h *handlers) toggleSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	pos, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError("position parameter is required"), nil
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed, err := e.ToggleSetCompleted(id, pos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]bool{"completed": completed})
}

func (h *handlers) deleteSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	pos, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError("position parameter is required"), nil
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := e.DeleteSet(id, pos); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e.View())
}

func (h *handlers) suggestSuperset(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	d := workout.SetDraft{
		ExerciseID: id,
		Position:   req.GetInt("position", 0),
		Weight:     req.GetFloat("weight", 0),
		Reps:       req.GetInt("reps", 0),
	}
	if rpe := req.GetInt("rpe", 0); rpe != 0 {
		d.RPE = &rpe
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	suggestions, err := e.BeginSupersetSelection(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"suggestions": suggestions})
}

// draftResult renders a resumed draft with its superset partner, if any.
func draftResult(d workout.SetDraft) (*mcp.CallToolResult, error) {
	out := map[string]any{"draft": d}
	if ss, ok := d.Payload.(models.Superset); ok {
		out["superset"] = ss
	}
	return jsonResult(out)
}

func (h *handlers) selectSuperset(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	partner, err := req.RequireString("partner")
	if err != nil {
		return mcp.NewToolResultError("partner parameter is required"), nil
	}
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := e.CompleteSupersetSelection(partner)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return draftResult(d)
}

func (h *handlers) cancelSuperset(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := e.CancelSupersetSelection()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return draftResult(d)
}

func (h *handlers) suggestDrops(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil || weight <= 0 {
		return mcp.NewToolResultError("weight must be a positive number"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil || reps < 0 {
		return mcp.NewToolResultError("reps must be a non-negative integer"), nil
	}
	n := req.GetInt("count", defaultDropCount)
	if n < 1 || n > 10 {
		n = defaultDropCount
	}
	return jsonResult(models.SuggestDrops(weight, reps, n))
}

func (h *handlers) startRest(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e.StartRest(req.GetInt("seconds", 0))
	return jsonResult(e.RestTimer().State())
}

func (h *handlers) skipRest(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.host.Engine()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e.SkipRest()
	return jsonResult(e.RestTimer().State())
}

func (h *handlers) finishWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.host.Finish(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summary)
}

func (h *handlers) saveForLater(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.host.SaveForLater(ctx)
	if err != nil {
		h.log.Error("mcp save_for_later", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap)
}

func (h *handlers) cancelWorkout(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.host.Cancel(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("workout cancelled"), nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := h.sessions.ListSessions(ctx, req.GetInt("limit", defaultSessionLimit))
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(rows)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	detail, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(detail)
}
