package approval

import "errors"

var (
	// ErrApprovalNotFound indicates the approval doesn't exist.
	ErrApprovalNotFound = errors.New("approval not found")
	// ErrAlreadyDecided indicates the approval already carries a final decision.
	ErrAlreadyDecided = errors.New("approval already decided")
	// ErrInvalidDecision indicates a decision other than approved or rejected.
	ErrInvalidDecision = errors.New("invalid approval decision")
	// ErrInvalidInput indicates invalid approval input.
	ErrInvalidInput = errors.New("invalid approval input")
)
