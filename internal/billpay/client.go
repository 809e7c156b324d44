// Package billpay is the boundary to the external Bill-Pay payment service.
package billpay

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates no Bill-Pay endpoint is configured.
	ErrNotConfigured = errors.New("bill-pay not configured")
	// ErrRejected indicates Bill-Pay refused the request; retrying won't help.
	ErrRejected = errors.New("bill-pay rejected request")
	// ErrUnavailable indicates Bill-Pay could not be reached after retries.
	ErrUnavailable = errors.New("bill-pay unavailable")
)

// Status is a payment state as reported by Bill-Pay.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// PaymentRequest is the outbound payment instruction.
type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        string          `json:"method"`
	ScheduledDate string          `json:"scheduled_date"`
	// Reference is stable per payout and doubles as the idempotency key.
	Reference string `json:"reference"`
	Payee     string `json:"payee"`
	Memo      string `json:"memo,omitempty"`
}

// Payment is Bill-Pay's view of a submitted payment.
type Payment struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client submits payments and reports their status.
type Client interface {
	Submit(ctx context.Context, req PaymentRequest) (*Payment, error)
	Status(ctx context.Context, paymentID string) (*Payment, error)
}

// Disabled is the Client used when no Bill-Pay endpoint is configured.
type Disabled struct{}

// Submit always fails with ErrNotConfigured.
func (Disabled) Submit(context.Context, PaymentRequest) (*Payment, error) {
	return nil, ErrNotConfigured
}

// Status always fails with ErrNotConfigured.
func (Disabled) Status(context.Context, string) (*Payment, error) {
	return nil, ErrNotConfigured
}
