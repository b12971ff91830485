package live

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/workout"
)

const defaultDropCount = 3

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.host.Templates()
	if templates == nil {
		templates = []models.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleSuggestDrops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weight, err := strconv.ParseFloat(q.Get("weight"), 64)
	if err != nil || weight <= 0 {
		s.writeError(w, badRequest("weight must be a positive number"))
		return
	}
	reps, err := strconv.Atoi(q.Get("reps"))
	if err != nil || reps < 0 {
		s.writeError(w, badRequest("reps must be a non-negative integer"))
		return
	}
	n := defaultDropCount
	if v := q.Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 10 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, models.SuggestDrops(weight, reps, n))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		TemplateID string `json:"template_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Start(r.Context(), strings.TrimSpace(req.Name), req.TemplateID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e.View())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	e, err := s.host.Resume(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	summary, err := s.host.Finish(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.host.Cancel(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.SaveForLater(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, badRequest("name is required"))
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := e.AddExercise(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := e.RemoveExercise(chi.URLParam(r, "exerciseID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	set, err := e.LogSet(chi.URLParam(r, "exerciseID"), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleAddEmptySet(w http.ResponseWriter, r *http.Request) {
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	set, err := e.AddEmptySet(chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req setRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := e.UpdateSet(chi.URLParam(r, "exerciseID"), pos, in); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	completed, err := e.ToggleSetCompleted(chi.URLParam(r, "exerciseID"), pos)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := e.DeleteSet(chi.URLParam(r, "exerciseID"), pos); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBeginSuperset(w http.ResponseWriter, r *http.Request) {
	var d workout.SetDraft
	if err := decode(r, &d); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	suggestions, err := e.BeginSupersetSelection(d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleSelectSuperset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Partner string `json:"partner"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := e.CompleteSupersetSelection(req.Partner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(d))
}

func (s *Server) handleCancelSuperset(w http.ResponseWriter, r *http.Request) {
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := e.CancelSupersetSelection()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(d))
}

func (s *Server) handleStartRest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	e.StartRest(req.Seconds)
	writeJSON(w, http.StatusOK, e.RestTimer().State())
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	e, err := s.host.Engine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	e.SkipRest()
	writeJSON(w, http.StatusOK, e.RestTimer().State())
}
