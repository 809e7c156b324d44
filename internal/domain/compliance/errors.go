package compliance

import "errors"

var (
	// ErrCheckNotFound indicates the check doesn't exist.
	ErrCheckNotFound = errors.New("compliance check not found")
	// ErrInvalidDecision indicates an unknown reviewer decision.
	ErrInvalidDecision = errors.New("invalid review decision")
	// ErrMissingReviewer indicates a review without a reviewer.
	ErrMissingReviewer = errors.New("reviewer required")
	// ErrNoSanctionsCheck indicates screening was requested before checks were seeded.
	ErrNoSanctionsCheck = errors.New("grant has no sanctions check")
	// ErrInvalidInput indicates invalid compliance input.
	ErrInvalidInput = errors.New("invalid compliance input")
)
