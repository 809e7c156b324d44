package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method is the disbursement instrument.
type Method string

const (
	MethodCheck Method = "check"
	MethodACH   Method = "ach"
	MethodWire  Method = "wire"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCheck, MethodACH, MethodWire:
		return true
	}
	return false
}

// Status is the lifecycle state of a payout.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusConfirmed Status = "confirmed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusSent, StatusConfirmed:
		return true
	}
	return false
}

// CanChangeStatus reports whether a payout may move from one status to another. Confirmed
// is final; a sent payout falls back to scheduled when the payment fails.
func CanChangeStatus(from, to Status) bool {
	switch from {
	case StatusScheduled:
		return to == StatusSent || to == StatusConfirmed
	case StatusSent:
		return to == StatusConfirmed || to == StatusScheduled
	case StatusConfirmed:
		return false
	}
	return false
}

// Payout is a disbursement against an approved grant.
type Payout struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	GrantID  string `json:"grant_id"`
	EntityID string `json:"entity_id"`
	// RequestID is the caller-supplied idempotency key, unique per grant.
	RequestID       string          `json:"request_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PayoutDate      time.Time       `json:"payout_date"`
	Method          Method          `json:"method"`
	Status          Status          `json:"status"`
	LinkedPaymentID *string         `json:"linked_payment_id,omitempty"`
	// SubmitAttempts counts submissions to Bill-Pay. Each attempt uses its own reference.
	SubmitAttempts  int             `json:"submit_attempts"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ValidationResult lists every field-level problem with a payout.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
