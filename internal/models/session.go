package models

import "time"

// SessionSnapshot is the resumable projection of a live session.
// One snapshot is kept per device and overwritten on every write.
type SessionSnapshot struct {
	Name           string          `json:"name"`
	SessionID      string          `json:"session_id,omitempty"`
	TemplateID     string          `json:"template_id,omitempty"`
	Exercises      []ExerciseEntry `json:"exercises"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	StartedAt      time.Time       `json:"started_at"`
	SnapshotAt     time.Time       `json:"snapshot_at"`
}

// Summary is returned to the caller once a session is finished.
type Summary struct {
	SessionID       string  `json:"session_id"`
	Name            string  `json:"name"`
	DurationSeconds int     `json:"duration_seconds"`
	DurationMinutes int     `json:"duration_minutes"`
	TotalSets       int     `json:"total_sets"`
	CompletedSets   int     `json:"completed_sets"`
	Exercises       int     `json:"exercises"`
	TotalVolume     float64 `json:"total_volume"`
}

// Template is a predefined workout that seeds exercises with empty sets.
type Template struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	Exercises []TemplateExercise `json:"exercises" yaml:"exercises"`
}

// TemplateExercise is one exercise of a template with its planned set count.
type TemplateExercise struct {
	Name string `json:"name" yaml:"name"`
	Sets int    `json:"sets" yaml:"sets"`
}

// RestTimerState is the ephemeral rest countdown shown between sets.
type RestTimerState struct {
	Remaining int  `json:"remaining"`
	Running   bool `json:"running"`
}
