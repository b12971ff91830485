package workout

import (
	"errors"

	"github.com/meltforce/liftlog/internal/models"
)

var (
	// ErrNotActive indicates the session no longer accepts this operation.
	ErrNotActive = errors.New("workout session is not active")
	// ErrExerciseNotFound indicates an unknown exercise id.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrSetNotFound indicates an unknown set position.
	ErrSetNotFound = errors.New("set not found")
	// ErrInvalidRPE indicates an RPE outside 1..10.
	ErrInvalidRPE = errors.New("rpe must be between 1 and 10")
	// ErrSelectionPending indicates a superset selection is already in progress.
	ErrSelectionPending = errors.New("superset selection already in progress")
	// ErrNoPendingSelection indicates there is no superset selection to resume.
	ErrNoPendingSelection = errors.New("no superset selection in progress")
	// ErrNoSessionID indicates the persistence service never allocated a session.
	ErrNoSessionID = errors.New("no session id allocated")
	// ErrInvalidPayload indicates a malformed superset or dropset payload.
	ErrInvalidPayload = models.ErrInvalidPayload
)
