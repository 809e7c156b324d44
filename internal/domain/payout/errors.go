package payout

import (
	"errors"
	"strings"
)

var (
	// ErrPayoutNotFound indicates the payout doesn't exist.
	ErrPayoutNotFound = errors.New("payout not found")
	// ErrInvalidPayout indicates the payout failed validation.
	ErrInvalidPayout = errors.New("invalid payout")
	// ErrInvalidStatusChange indicates a status change the payout lifecycle doesn't allow.
	ErrInvalidStatusChange = errors.New("invalid payout status change")
	// ErrOverpayment indicates confirming the payout would exceed the approved amount.
	ErrOverpayment = errors.New("confirmed payouts would exceed approved amount")
	// ErrConflict indicates the payout changed since it was read.
	ErrConflict = errors.New("payout modified concurrently")
	// ErrInvalidInput indicates invalid payout input.
	ErrInvalidInput = errors.New("invalid payout input")
)

// ValidationError carries every validation failure of a payout.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid payout: " + strings.Join(e.Errors, "; ")
}

// Unwrap lets errors.Is match ErrInvalidPayout.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPayout
}
