// Package continuation keeps the device-local snapshot of the live workout
// in a small SQLite database so an interrupted session can be resumed.
package continuation

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/meltforce/liftlog/internal/models"
)

// ErrCorrupt is returned by Load when the stored payload does not match its hash.
var ErrCorrupt = errors.New("continuation snapshot is corrupt")

// Store is a single-slot snapshot store. Every Save overwrites the slot.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the continuation database at dir/continuation.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "continuation.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening continuation db: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS continuation (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		payload     TEXT NOT NULL,
		hash        TEXT NOT NULL,
		session_id  TEXT NOT NULL DEFAULT '',
		saved_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating continuation table: %w", err)
	}

	return &Store{db: db}, nil
}

// Save overwrites the stored snapshot.
func (s *Store) Save(ctx context.Context, snap models.SessionSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO continuation (id, payload, hash, session_id, saved_at)
		 VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)`,
		string(payload), hashPayload(payload), snap.SessionID,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when the slot is empty.
func (s *Store) Load(ctx context.Context) (*models.SessionSnapshot, error) {
	var payload, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, hash FROM continuation WHERE id = 1`,
	).Scan(&payload, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if hashPayload([]byte(payload)) != hash {
		return nil, ErrCorrupt
	}

	var snap models.SessionSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM continuation`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func hashPayload(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
