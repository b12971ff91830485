// Package server is the REST backend that persists finished workouts.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// Repository is the storage the handlers need. *storage.DB implements it.
type Repository interface {
	CreateSession(ctx context.Context, userID int, name, templateID string) (uuid.UUID, error)
	InsertSessionSet(ctx context.Context, userID int, sessionID uuid.UUID, exerciseName string, set models.SetWrite) error
	CompleteSession(ctx context.Context, userID int, sessionID uuid.UUID, c models.Completion) error
	GetExerciseHistory(ctx context.Context, userID int) ([]models.ExerciseHistory, error)
	ListSessions(ctx context.Context, userID, limit int) ([]models.SessionRow, error)
	GetSession(ctx context.Context, userID int, sessionID uuid.UUID) (*models.SessionDetail, error)
}

var _ Repository = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Repository
	log      *slog.Logger
	apiKey   string
	identity func(http.Handler) http.Handler
	router   chi.Router
}

// New creates a new Server. identity resolves the calling user; nil means
// every request belongs to the local dev user.
func New(db Repository, apiKey string, identity func(http.Handler) http.Handler, log *slog.Logger) *Server {
	if identity == nil {
		identity = DevIdentity
	}
	s := &Server{
		db:       db,
		log:      log,
		apiKey:   apiKey,
		identity: identity,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Use(s.identity)

		r.Get("/me", s.handleMe)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/sets", s.handleLogSet)
		r.Post("/sessions/{id}/complete", s.handleCompleteSession)

		r.Get("/exercises/history", s.handleExerciseHistory)
	})
}
