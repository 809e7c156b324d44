package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/billpay"
	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/money"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ganot/grantflow/internal/domain/payout")

// Service handles payout scheduling, submission and status tracking.
type Service struct {
	payouts    Repository
	grants     GrantReader
	billpay    billpay.Client
	activities ActivityRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new payout service. A nil Bill-Pay client disables submission.
func NewService(payouts Repository, grants GrantReader, client billpay.Client, activities ActivityRepository, logger *slog.Logger) *Service {
	if client == nil {
		client = billpay.Disabled{}
	}
	return &Service{
		payouts:    payouts,
		grants:     grants,
		billpay:    client,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRequest describes a new payout.
type CreateRequest struct {
	GrantID string
	// RequestID makes creation idempotent per grant when set.
	RequestID  string
	Amount     decimal.Decimal
	Method     Method
	PayoutDate time.Time
	Actor      string
}

// StatusUpdate describes an inbound status change for a payout.
type StatusUpdate struct {
	PayoutID string
	Status   Status
	Actor    string
}

// Create validates and stores a scheduled payout. Repeating a request id for the same grant
// returns the payout created the first time.
func (s *Service) Create(ctx context.Context, clientID string, req CreateRequest) (*Payout, ValidationResult, error) {
	ctx, span := tracer.Start(ctx, "payout.Create")
	defer span.End()
	span.SetAttributes(attribute.String("grant.id", req.GrantID))

	if strings.TrimSpace(req.GrantID) == "" {
		return nil, ValidationResult{}, ErrInvalidInput
	}
	requestID := strings.TrimSpace(req.RequestID)
	if requestID != "" {
		existing, err := s.byRequestID(ctx, clientID, req.GrantID, requestID)
		if err != nil || existing != nil {
			return existing, ValidationResult{Valid: existing != nil, Errors: []string{}}, err
		}
	}

	g, err := s.grants.Get(ctx, clientID, req.GrantID)
	if err != nil {
		return nil, ValidationResult{}, err
	}

	p := NewRequest(*g, req.Amount, req.Method, req.PayoutDate, clientID)
	p.RequestID = requestID
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	var result ValidationResult
	err = s.payouts.Create(ctx, clientID, &p, func(history []Payout) error {
		result = Validate(p, *g, history)
		if !result.Valid {
			return &ValidationError{Errors: result.Errors}
		}
		return nil
	})
	if err != nil {
		var invalid *ValidationError
		switch {
		case errors.As(err, &invalid):
			return nil, result, invalid
		case errors.Is(err, repository.ErrDuplicate) && requestID != "":
			existing, lookupErr := s.byRequestID(ctx, clientID, req.GrantID, requestID)
			if lookupErr != nil {
				return nil, result, lookupErr
			}
			if existing != nil {
				return existing, ValidationResult{Valid: true, Errors: []string{}}, nil
			}
		}
		return nil, result, fmt.Errorf("creating payout: %w", err)
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     p.EntityID,
		GrantID:      &p.GrantID,
		ActivityType: activity.TypePayoutCreated,
		Actor:        req.Actor,
		Summary:      fmt.Sprintf("scheduled %s %s payout for %s", money.Format(p.Amount, p.Currency), p.Method, Day(p.PayoutDate).Format(time.DateOnly)),
		Details:      activity.Details(map[string]string{"payout_id": p.ID, "request_id": p.RequestID}),
	})
	if s.logger != nil {
		s.logger.Info("payout created", "payout_id", p.ID, "grant_id", p.GrantID, "amount", p.Amount.String())
	}
	return &p, result, nil
}

// Submit sends a scheduled payout to Bill-Pay and links the resulting payment. A retry after
// a transport failure reuses the attempt's reference; a payout returned to scheduled by a
// failed payment is submitted as a new attempt.
func (s *Service) Submit(ctx context.Context, clientID, payoutID, actor string) (*Payout, error) {
	p, err := s.Get(ctx, clientID, payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: payout is %s", ErrInvalidStatusChange, p.Status)
	}
	g, err := s.grants.Get(ctx, clientID, p.GrantID)
	if err != nil {
		return nil, err
	}

	payment, err := s.billpay.Submit(ctx, BillPayRequestFor(*p, *g))
	if err != nil {
		return nil, fmt.Errorf("submitting payout: %w", err)
	}

	status, ok := StatusFromBillPay(payment.Status)
	if !ok || status == StatusScheduled {
		status = StatusSent
	}
	updated := *p
	updated.LinkedPaymentID = &payment.ID
	updated.SubmitAttempts = p.SubmitAttempts + 1
	updated.UpdatedAt = s.now()
	if status == StatusConfirmed {
		if err := s.checkConfirmable(ctx, clientID, &updated); err != nil {
			return nil, err
		}
	}
	updated.Status = status

	if err := s.write(ctx, clientID, &updated, p.Status); err != nil {
		return nil, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     updated.EntityID,
		GrantID:      &updated.GrantID,
		ActivityType: activity.TypePayoutSubmitted,
		Actor:        actor,
		Summary:      fmt.Sprintf("payout %s submitted to bill-pay as %s", updated.ID, payment.ID),
	})
	return &updated, nil
}

// ApplyStatus records a status change reported for a payout. Confirming a payout re-checks
// that confirmed payouts never exceed the grant's approved amount.
func (s *Service) ApplyStatus(ctx context.Context, clientID string, update StatusUpdate) (*Payout, error) {
	if !update.Status.Valid() {
		return nil, ErrInvalidInput
	}
	p, err := s.Get(ctx, clientID, update.PayoutID)
	if err != nil {
		return nil, err
	}
	if p.Status == update.Status {
		return p, nil
	}
	if !CanChangeStatus(p.Status, update.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, p.Status, update.Status)
	}

	updated := *p
	updated.Status = update.Status
	updated.UpdatedAt = s.now()
	if update.Status == StatusScheduled {
		updated.LinkedPaymentID = nil
	}
	if update.Status == StatusConfirmed {
		if err := s.checkConfirmable(ctx, clientID, &updated); err != nil {
			return nil, err
		}
	}

	if err := s.write(ctx, clientID, &updated, p.Status); err != nil {
		return nil, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     updated.EntityID,
		GrantID:      &updated.GrantID,
		ActivityType: activity.TypePayoutStatusChanged,
		Actor:        update.Actor,
		Summary:      fmt.Sprintf("payout %s %s -> %s", updated.ID, p.Status, updated.Status),
	})
	if s.logger != nil {
		s.logger.Info("payout status changed", "payout_id", updated.ID, "from", p.Status, "to", updated.Status)
	}
	return &updated, nil
}

// Sync polls Bill-Pay for a submitted payout and applies the reported status.
func (s *Service) Sync(ctx context.Context, clientID, payoutID, actor string) (*Payout, error) {
	p, err := s.Get(ctx, clientID, payoutID)
	if err != nil {
		return nil, err
	}
	if p.LinkedPaymentID == nil {
		return nil, fmt.Errorf("%w: payout has not been submitted", ErrInvalidStatusChange)
	}
	payment, err := s.billpay.Status(ctx, *p.LinkedPaymentID)
	if err != nil {
		return nil, fmt.Errorf("fetching payment status: %w", err)
	}
	status, ok := StatusFromBillPay(payment.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown bill-pay status %q", ErrInvalidStatusChange, payment.Status)
	}
	return s.ApplyStatus(ctx, clientID, StatusUpdate{PayoutID: p.ID, Status: status, Actor: actor})
}

// Get returns a payout by ID.
func (s *Service) Get(ctx context.Context, clientID, id string) (*Payout, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.payouts.Get(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("getting payout: %w", err)
	}
	return p, nil
}

// GrantPayouts is a grant's payout history with its paid and remaining totals.
type GrantPayouts struct {
	Payouts   []Payout        `json:"payouts"`
	Paid      decimal.Decimal `json:"paid"`
	InFlight  decimal.Decimal `json:"in_flight"`
	Remaining decimal.Decimal `json:"remaining"`
}

// ListForGrant returns a grant's payouts with totals.
func (s *Service) ListForGrant(ctx context.Context, clientID, grantID string) (*GrantPayouts, error) {
	g, err := s.grants.Get(ctx, clientID, grantID)
	if err != nil {
		return nil, err
	}
	list, err := s.payouts.ListByGrant(ctx, clientID, grantID)
	if err != nil {
		return nil, fmt.Errorf("listing payouts: %w", err)
	}
	return &GrantPayouts{
		Payouts:   list,
		Paid:      CalculateGrantPaid(list, grantID),
		InFlight:  InFlight(list, grantID),
		Remaining: RemainingToPay(*g, list),
	}, nil
}

// Upcoming returns scheduled payouts due within days, earliest first.
func (s *Service) Upcoming(ctx context.Context, clientID string, days int) ([]Payout, error) {
	if days < 0 {
		return nil, ErrInvalidInput
	}
	scheduled, err := s.payouts.ListByStatus(ctx, clientID, StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled payouts: %w", err)
	}
	return Upcoming(scheduled, s.now(), days), nil
}

// Overdue returns scheduled payouts whose date has passed.
func (s *Service) Overdue(ctx context.Context, clientID string) ([]Payout, error) {
	scheduled, err := s.payouts.ListByStatus(ctx, clientID, StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled payouts: %w", err)
	}
	return Overdue(scheduled, s.now()), nil
}

func (s *Service) checkConfirmable(ctx context.Context, clientID string, p *Payout) error {
	g, err := s.grants.Get(ctx, clientID, p.GrantID)
	if err != nil {
		return err
	}
	history, err := s.payouts.ListByGrant(ctx, clientID, p.GrantID)
	if err != nil {
		return fmt.Errorf("listing payouts: %w", err)
	}
	others := make([]Payout, 0, len(history))
	for _, h := range history {
		if h.ID != p.ID {
			others = append(others, h)
		}
	}
	if g.ApprovedAmount == nil {
		return fmt.Errorf("%w: grant has no approved amount", ErrOverpayment)
	}
	confirmed := CalculateGrantPaid(others, g.ID).Add(p.Amount)
	if confirmed.GreaterThan(*g.ApprovedAmount) {
		return fmt.Errorf("%w: %s of %s", ErrOverpayment,
			money.Format(confirmed, g.Currency), money.Format(*g.ApprovedAmount, g.Currency))
	}
	return nil
}

func (s *Service) byRequestID(ctx context.Context, clientID, grantID, requestID string) (*Payout, error) {
	p, err := s.payouts.GetByRequestID(ctx, clientID, grantID, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up payout request: %w", err)
	}
	return p, nil
}

func (s *Service) write(ctx context.Context, clientID string, p *Payout, expected Status) error {
	if err := s.payouts.Update(ctx, clientID, p, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return ErrPayoutNotFound
		}
		return fmt.Errorf("updating payout: %w", err)
	}
	return nil
}
