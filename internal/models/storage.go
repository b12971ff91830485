package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRow is a row of the workout_sessions table.
type SessionRow struct {
	ID              uuid.UUID  `json:"id"`
	UserID          int        `json:"user_id"`
	Name            string     `json:"name"`
	TemplateID      *string    `json:"template_id,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	TotalVolume     *float64   `json:"total_volume,omitempty"`
	ExerciseCount   *int       `json:"exercise_count,omitempty"`
	TotalSets       *int       `json:"total_sets,omitempty"`
}

// SessionSetRow is a row of the session_sets table.
type SessionSetRow struct {
	SessionID    uuid.UUID `json:"session_id"`
	UserID       int       `json:"user_id"`
	ExerciseID   string    `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Position     int       `json:"position"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	RPE          *int      `json:"rpe,omitempty"`
	IsWarmup     bool      `json:"is_warmup"`
	LoggedAt     time.Time `json:"logged_at"`
}

// SetWrite is the payload of a single "log set" call to the persistence service.
// ExerciseID is the session-local entry id, so two entries with the same
// exercise name keep separate sets.
type SetWrite struct {
	ExerciseID string  `json:"exercise_id"`
	Position   int     `json:"position"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	RPE        *int    `json:"rpe,omitempty"`
	IsWarmup   bool    `json:"is_warmup"`
}

// Completion is the payload of the "complete session" call.
type Completion struct {
	DurationMinutes int     `json:"duration_minutes"`
	TotalVolume     float64 `json:"total_volume"`
	ExerciseCount   int     `json:"exercise_count"`
	TotalSets       int     `json:"total_sets"`
}

// ExerciseHistory is the most recent weight and reps logged for an exercise.
type ExerciseHistory struct {
	ExerciseName string  `json:"exercise_name"`
	LastWeight   float64 `json:"last_weight"`
	LastReps     int     `json:"last_reps"`
}

// SessionDetail is a stored session together with its logged sets.
type SessionDetail struct {
	Session SessionRow      `json:"session"`
	Sets    []SessionSetRow `json:"sets"`
}
