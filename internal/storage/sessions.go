package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meltforce/liftlog/internal/models"
)

// ErrNotFound is returned when a session does not exist for the user.
var ErrNotFound = errors.New("not found")

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// pgForeignKeyViolation is the SQLSTATE for a missing referenced row.
const pgForeignKeyViolation = "23503"

// CreateSession inserts a new open session and returns its id.
func (db *DB) CreateSession(ctx context.Context, userID int, name, templateID string) (uuid.UUID, error) {
	id := uuid.New()
	var tmpl *string
	if templateID != "" {
		tmpl = &templateID
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, name, template_id) VALUES ($1, $2, $3, $4)`,
		id, userID, name, tmpl)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting session: %w", err)
	}
	return id, nil
}

// InsertSessionSet records one set. A repeated write of the same
// (session, exercise entry, position) overwrites the earlier one, so client
// retries are harmless. Entries sharing a name keep separate rows.
func (db *DB) InsertSessionSet(ctx context.Context, userID int, sessionID uuid.UUID, exerciseName string, set models.SetWrite) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO session_sets (session_id, user_id, exercise_id, exercise_name, position, weight, reps, rpe, is_warmup)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id, exercise_id, position) DO UPDATE
		 SET exercise_name = EXCLUDED.exercise_name, weight = EXCLUDED.weight, reps = EXCLUDED.reps,
		     rpe = EXCLUDED.rpe, is_warmup = EXCLUDED.is_warmup, logged_at = NOW()`,
		sessionID, userID, set.ExerciseID, exerciseName, set.Position, set.Weight, set.Reps, set.RPE, set.IsWarmup)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("inserting session set: %w", err)
	}
	return nil
}

// CompleteSession stamps the session with its completion time and aggregates.
func (db *DB) CompleteSession(ctx context.Context, userID int, sessionID uuid.UUID, c models.Completion) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions
		 SET completed_at = NOW(), duration_minutes = $3, total_volume = $4,
		     exercise_count = $5, total_sets = $6
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID, c.DurationMinutes, c.TotalVolume, c.ExerciseCount, c.TotalSets)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetExerciseHistory returns the most recently logged working set per exercise.
func (db *DB) GetExerciseHistory(ctx context.Context, userID int) ([]models.ExerciseHistory, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (lower(exercise_name)) exercise_name, weight, reps
		 FROM session_sets
		 WHERE user_id = $1 AND NOT is_warmup
		 ORDER BY lower(exercise_name), logged_at DESC, position DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseHistory
	for rows.Next() {
		var h models.ExerciseHistory
		if err := rows.Scan(&h.ExerciseName, &h.LastWeight, &h.LastReps); err != nil {
			return nil, fmt.Errorf("scanning exercise history: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// ListSessions returns the user's sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, userID, limit int) ([]models.SessionRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, template_id, started_at, completed_at,
		 duration_minutes, total_volume, exercise_count, total_sets
		 FROM workout_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		userID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionRow
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSession returns one session with its sets ordered by log time, entry and position.
func (db *DB) GetSession(ctx context.Context, userID int, sessionID uuid.UUID) (*models.SessionDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, template_id, started_at, completed_at,
		 duration_minutes, total_volume, exercise_count, total_sets
		 FROM workout_sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := &models.SessionDetail{Session: s}

	setRows, err := db.Pool.Query(ctx,
		`SELECT session_id, user_id, exercise_id, exercise_name, position, weight, reps, rpe, is_warmup, logged_at
		 FROM session_sets
		 WHERE session_id = $1 AND user_id = $2
		 ORDER BY logged_at ASC, exercise_id ASC, position ASC`,
		sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var r models.SessionSetRow
		if err := setRows.Scan(&r.SessionID, &r.UserID, &r.ExerciseID, &r.ExerciseName, &r.Position,
			&r.Weight, &r.Reps, &r.RPE, &r.IsWarmup, &r.LoggedAt); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		detail.Sets = append(detail.Sets, r)
	}
	return detail, setRows.Err()
}

// ClampLimit bounds a list limit to 1..200, defaulting to 20.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

func scanSession(row pgx.Row) (models.SessionRow, error) {
	var s models.SessionRow
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.TemplateID, &s.StartedAt, &s.CompletedAt,
		&s.DurationMinutes, &s.TotalVolume, &s.ExerciseCount, &s.TotalSets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scanning session: %w", err)
	}
	return s, nil
}
