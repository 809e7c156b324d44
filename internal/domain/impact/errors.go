package impact

import (
	"errors"
	"strings"
)

var (
	// ErrReportNotFound indicates the report doesn't exist.
	ErrReportNotFound = errors.New("impact report not found")
	// ErrNotPublishable indicates the report fails publish eligibility.
	ErrNotPublishable = errors.New("impact report cannot be published")
	// ErrNotEditable indicates the report has left draft.
	ErrNotEditable = errors.New("impact report is not editable")
	// ErrInvalidStatusChange indicates a disallowed status change.
	ErrInvalidStatusChange = errors.New("invalid report status change")
	// ErrGrantNotEligible indicates the grant has not been approved.
	ErrGrantNotEligible = errors.New("grant is not eligible for impact reporting")
	// ErrConflict indicates the report changed concurrently.
	ErrConflict = errors.New("impact report was modified concurrently")
	// ErrInvalidInput indicates invalid report input.
	ErrInvalidInput = errors.New("invalid impact report input")
)

// PublishError lists every reason a report cannot be published.
type PublishError struct {
	Reasons []string
}

func (e *PublishError) Error() string {
	return ErrNotPublishable.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *PublishError) Unwrap() error { return ErrNotPublishable }
