package live

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/server"
	"github.com/meltforce/liftlog/internal/workout"
)

// Server is the device-local HTTP API over a Host.
type Server struct {
	host   *Host
	log    *slog.Logger
	router chi.Router
}

// NewServer creates the device API.
func NewServer(host *Host, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{host: host, log: log}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(server.RequestLogging(s.log))
	r.Use(server.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/templates", s.handleTemplates)
		r.Get("/dropset/suggest", s.handleSuggestDrops)

		r.Route("/workout", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Post("/", s.handleStart)
			r.Post("/resume", s.handleResume)
			r.Post("/finish", s.handleFinish)
			r.Post("/cancel", s.handleCancel)
			r.Post("/save", s.handleSave)

			r.Post("/exercises", s.handleAddExercise)
			r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
			r.Post("/exercises/{exerciseID}/sets", s.handleLogSet)
			r.Post("/exercises/{exerciseID}/sets/empty", s.handleAddEmptySet)
			r.Put("/exercises/{exerciseID}/sets/{position}", s.handleUpdateSet)
			r.Post("/exercises/{exerciseID}/sets/{position}/toggle", s.handleToggleSet)
			r.Delete("/exercises/{exerciseID}/sets/{position}", s.handleDeleteSet)

			r.Post("/superset", s.handleBeginSuperset)
			r.Post("/superset/select", s.handleSelectSuperset)
			r.Post("/superset/cancel", s.handleCancelSuperset)

			r.Post("/rest", s.handleStartRest)
			r.Post("/rest/skip", s.handleSkipRest)
		})
	})

	s.router = r
}

// writeError maps engine and host errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workout.ErrExerciseNotFound),
		errors.Is(err, workout.ErrSetNotFound),
		errors.Is(err, ErrTemplateNotFound),
		errors.Is(err, ErrNoSnapshot):
		status = http.StatusNotFound
	case errors.Is(err, workout.ErrNotActive),
		errors.Is(err, workout.ErrSelectionPending),
		errors.Is(err, workout.ErrNoPendingSelection),
		errors.Is(err, ErrNoWorkout),
		errors.Is(err, ErrWorkoutInProgress):
		status = http.StatusConflict
	case errors.Is(err, workout.ErrInvalidRPE),
		errors.Is(err, workout.ErrInvalidPayload),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return badRequest("invalid JSON: " + err.Error())
	}
	return nil
}

func positionParam(r *http.Request) (int, error) {
	p, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || p < 1 {
		return 0, badRequest("position must be a positive integer")
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errBadRequest = errors.New("bad request")

type requestError struct{ msg string }

func (e *requestError) Error() string        { return e.msg }
func (e *requestError) Is(target error) bool { return target == errBadRequest }

func badRequest(msg string) error { return &requestError{msg: msg} }

// setRequest is the JSON form of a set edit. At most one of Superset and
// Dropset may be given.
type setRequest struct {
	Weight   float64          `json:"weight"`
	Reps     int              `json:"reps"`
	RPE      *int             `json:"rpe,omitempty"`
	Superset *models.Superset `json:"superset,omitempty"`
	Dropset  *models.Dropset  `json:"dropset,omitempty"`
}

func (req setRequest) input() (workout.SetInput, error) {
	in := workout.SetInput{Weight: req.Weight, Reps: req.Reps, RPE: req.RPE, Payload: models.Plain{}}
	switch {
	case req.Superset != nil && req.Dropset != nil:
		return in, badRequest("a set is either a superset or a dropset")
	case req.Superset != nil:
		in.Payload = *req.Superset
	case req.Dropset != nil:
		in.Payload = *req.Dropset
	}
	return in, nil
}

// draftResponse is a set draft handed back after a superset selection.
type draftResponse struct {
	workout.SetDraft
	Superset *models.Superset `json:"superset,omitempty"`
}

func newDraftResponse(d workout.SetDraft) draftResponse {
	out := draftResponse{SetDraft: d}
	if ss, ok := d.Payload.(models.Superset); ok {
		out.Superset = &ss
	}
	return out
}
