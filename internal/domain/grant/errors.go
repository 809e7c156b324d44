package grant

import (
	"errors"
	"strings"
)

var (
	// ErrGrantNotFound indicates the grant doesn't exist.
	ErrGrantNotFound = errors.New("grant not found")
	// ErrTransitionBlocked indicates a stage transition has unmet preconditions.
	ErrTransitionBlocked = errors.New("grant transition blocked")
	// ErrConflict indicates the grant changed since it was read.
	ErrConflict = errors.New("grant modified concurrently")
	// ErrNotEditable indicates the field can't be changed in the grant's current stage.
	ErrNotEditable = errors.New("grant not editable in current stage")
	// ErrInvalidAmount indicates a missing or non-positive amount.
	ErrInvalidAmount = errors.New("invalid grant amount")
	// ErrInvalidInput indicates invalid grant input.
	ErrInvalidInput = errors.New("invalid grant input")
)

// BlockedError carries every reason a transition was refused.
type BlockedError struct {
	From     Stage
	To       Stage
	Blockers []string
}

func (e *BlockedError) Error() string {
	return "grant transition " + string(e.From) + " -> " + string(e.To) + " blocked: " + strings.Join(e.Blockers, "; ")
}

// Unwrap lets errors.Is match ErrTransitionBlocked.
func (e *BlockedError) Unwrap() error {
	return ErrTransitionBlocked
}
