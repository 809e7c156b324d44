package grant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/money"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/ganot/grantflow/internal/domain/grant")

// refreshAttempts bounds retries of the cached compliance status write under contention.
const refreshAttempts = 3

// Service handles grant business logic.
type Service struct {
	grants     Repository
	checks     CheckRepository
	approvals  ApprovalRepository
	payouts    PayoutLedger
	activities ActivityRepository
	search     SearchRepository
	logger     *slog.Logger
}

// NewService creates a new grant service.
func NewService(
	grants Repository,
	checks CheckRepository,
	approvals ApprovalRepository,
	payouts PayoutLedger,
	activities ActivityRepository,
	search SearchRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		grants:     grants,
		checks:     checks,
		approvals:  approvals,
		payouts:    payouts,
		activities: activities,
		search:     search,
		logger:     logger,
	}
}

// CreateRequest describes a grant creation request.
type CreateRequest struct {
	EntityID        string
	ProgramID       *string
	GranteeName     string
	GranteeCountry  string
	Purpose         string
	RequestedAmount decimal.Decimal
	Currency        string
	DocsStatus      DocsStatus
	ApprovalIDs     []string
	Actor           string
}

// UpdateRequest describes a partial grant update. Nil fields are left unchanged.
type UpdateRequest struct {
	ID              string
	ProgramID       *string
	GranteeName     *string
	GranteeCountry  *string
	Purpose         *string
	RequestedAmount *decimal.Decimal
	Currency        *string
	DocsStatus      *DocsStatus
	ApprovalIDs     []string
	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int64
	Actor           string
}

// TransitionRequest describes a stage change.
type TransitionRequest struct {
	ID      string
	ToStage Stage
	// ApprovedAmount overrides the requested amount when entering approved.
	ApprovedAmount *decimal.Decimal
	Actor          string
}

// Create creates a draft grant.
func (s *Service) Create(ctx context.Context, clientID string, req CreateRequest) (*Grant, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	docs := req.DocsStatus
	if docs == "" {
		docs = DocsPending
	}

	now := time.Now()
	g := &Grant{
		ID:               uuid.NewString(),
		ClientID:         clientID,
		EntityID:         strings.TrimSpace(req.EntityID),
		ProgramID:        req.ProgramID,
		GranteeName:      strings.TrimSpace(req.GranteeName),
		GranteeCountry:   strings.ToUpper(strings.TrimSpace(req.GranteeCountry)),
		Purpose:          req.Purpose,
		RequestedAmount:  req.RequestedAmount,
		Currency:         money.NormalizeCurrency(req.Currency),
		Stage:            StageDraft,
		ComplianceStatus: compliance.GrantStatusNone,
		DocsStatus:       docs,
		ApprovalIDs:      dedupe(req.ApprovalIDs),
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.grants.Create(ctx, clientID, g); err != nil {
		return nil, fmt.Errorf("creating grant: %w", err)
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     g.EntityID,
		GrantID:      &g.ID,
		ActivityType: activity.TypeGrantCreated,
		Actor:        req.Actor,
		Summary:      fmt.Sprintf("created grant for %s (%s)", g.GranteeName, money.Format(g.RequestedAmount, g.Currency)),
	})
	if s.logger != nil {
		s.logger.Info("grant created", "grant_id", g.ID, "entity_id", g.EntityID)
	}
	return g, nil
}

// Get returns a grant by ID.
func (s *Service) Get(ctx context.Context, clientID, id string) (*Grant, error) {
	g, err := s.grants.Get(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("getting grant: %w", err)
	}
	return g, nil
}

// List returns grants based on options.
func (s *Service) List(ctx context.Context, clientID string, opts ListOptions) ([]Grant, error) {
	for _, stage := range opts.Stages {
		if !stage.Valid() {
			return nil, ErrInvalidInput
		}
	}
	return s.grants.List(ctx, clientID, opts)
}

// Search runs full-text search over grantee names and purposes.
func (s *Service) Search(ctx context.Context, clientID, query string, opts SearchOptions) ([]SearchResult, error) {
	if s.search == nil {
		return nil, fmt.Errorf("search repository not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	return s.search.Search(ctx, clientID, query, opts)
}

// Update applies a partial update with optimistic concurrency on the grant's stage and version.
func (s *Service) Update(ctx context.Context, clientID string, req UpdateRequest) (*Grant, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, ErrInvalidInput
	}
	current, err := s.Get(ctx, clientID, req.ID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != current.Version {
		return nil, ErrConflict
	}
	if err := ValidateUpdateInput(*current, req); err != nil {
		return nil, err
	}

	updated := *current
	if req.ProgramID != nil {
		updated.ProgramID = req.ProgramID
		if *req.ProgramID == "" {
			updated.ProgramID = nil
		}
	}
	if req.GranteeName != nil {
		updated.GranteeName = strings.TrimSpace(*req.GranteeName)
	}
	if req.GranteeCountry != nil {
		updated.GranteeCountry = strings.ToUpper(strings.TrimSpace(*req.GranteeCountry))
	}
	if req.Purpose != nil {
		updated.Purpose = *req.Purpose
	}
	if req.RequestedAmount != nil {
		updated.RequestedAmount = *req.RequestedAmount
	}
	if req.Currency != nil {
		updated.Currency = money.NormalizeCurrency(*req.Currency)
	}
	if req.DocsStatus != nil {
		updated.DocsStatus = *req.DocsStatus
	}
	if req.ApprovalIDs != nil {
		updated.ApprovalIDs = dedupe(req.ApprovalIDs)
	}
	updated.Version = current.Version + 1
	updated.UpdatedAt = time.Now()

	if err := s.write(ctx, clientID, &updated, current); err != nil {
		return nil, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     updated.EntityID,
		GrantID:      &updated.ID,
		ActivityType: activity.TypeGrantUpdated,
		Actor:        req.Actor,
		Summary:      fmt.Sprintf("updated grant %s", updated.ID),
	})
	return &updated, nil
}

// Blockers previews the decision for moving a grant to target without changing it.
func (s *Service) Blockers(ctx context.Context, clientID, id string, target Stage) (TransitionResult, error) {
	if !target.Valid() {
		return TransitionResult{}, ErrInvalidInput
	}
	g, err := s.Get(ctx, clientID, id)
	if err != nil {
		return TransitionResult{}, err
	}
	result, _, err := s.decide(ctx, clientID, g, target, nil)
	return result, err
}

// Transition moves a grant to a new stage. A refused transition returns the decision together
// with a *BlockedError. Concurrent transitions from the same stage race on the stored
// stage and version; the loser gets ErrConflict.
func (s *Service) Transition(ctx context.Context, clientID string, req TransitionRequest) (*Grant, TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "grant.Transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("grant.id", req.ID),
		attribute.String("grant.to_stage", string(req.ToStage)),
	)

	g, result, err := s.transition(ctx, clientID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return g, result, err
}

func (s *Service) transition(ctx context.Context, clientID string, req TransitionRequest) (*Grant, TransitionResult, error) {
	if strings.TrimSpace(req.ID) == "" || !req.ToStage.Valid() {
		return nil, TransitionResult{}, ErrInvalidInput
	}

	current, err := s.Get(ctx, clientID, req.ID)
	if err != nil {
		return nil, TransitionResult{}, err
	}
	result, checks, err := s.decide(ctx, clientID, current, req.ToStage, req.ApprovedAmount)
	if err != nil {
		return nil, TransitionResult{}, err
	}
	if !result.Allowed {
		activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
			EntityID:     current.EntityID,
			GrantID:      &current.ID,
			ActivityType: activity.TypeTransitionBlocked,
			Actor:        req.Actor,
			Summary:      fmt.Sprintf("%s -> %s blocked", current.Stage, req.ToStage),
			Details:      activity.Details(map[string]any{"blockers": result.Blockers}),
		})
		return current, result, &BlockedError{From: current.Stage, To: req.ToStage, Blockers: result.Blockers}
	}

	now := time.Now()
	next, err := Apply(*current, result, req.ApprovedAmount, now)
	if err != nil {
		return nil, result, err
	}

	if req.ToStage == StageSubmitted {
		checks, err = s.seedChecks(ctx, clientID, current.ID, checks, now)
		if err != nil {
			return nil, result, err
		}
	}
	next.ComplianceStatus = compliance.StatusFor(checks, next.ID)
	next.Version = current.Version + 1

	if err := s.write(ctx, clientID, &next, current); err != nil {
		return nil, result, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     next.EntityID,
		GrantID:      &next.ID,
		ActivityType: activity.TypeStageTransition,
		Actor:        req.Actor,
		Summary:      fmt.Sprintf("%s -> %s", current.Stage, next.Stage),
		Details:      activity.Details(map[string]string{"from": string(current.Stage), "to": string(next.Stage)}),
	})
	if s.logger != nil {
		s.logger.Info("grant transitioned", "grant_id", next.ID, "from", current.Stage, "to", next.Stage)
	}
	return &next, result, nil
}

// RefreshComplianceStatus recomputes the cached compliance status of a grant from its checks.
func (s *Service) RefreshComplianceStatus(ctx context.Context, clientID, grantID string) error {
	for attempt := 0; ; attempt++ {
		current, err := s.Get(ctx, clientID, grantID)
		if err != nil {
			return err
		}
		checks, err := s.checks.ListByGrant(ctx, clientID, grantID)
		if err != nil {
			return fmt.Errorf("listing checks: %w", err)
		}
		status := compliance.StatusFor(checks, grantID)
		if status == current.ComplianceStatus {
			return nil
		}

		updated := *current
		updated.ComplianceStatus = status
		updated.Version = current.Version + 1
		updated.UpdatedAt = time.Now()
		err = s.write(ctx, clientID, &updated, current)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) || attempt+1 >= refreshAttempts {
			return err
		}
	}
}

// Grantee returns the screening subject of a grant.
func (s *Service) Grantee(ctx context.Context, clientID, grantID string) (string, string, error) {
	g, err := s.Get(ctx, clientID, grantID)
	if err != nil {
		return "", "", err
	}
	return g.GranteeName, g.GranteeCountry, nil
}

// decide combines the gate decision with the payout rules for g. It also returns the checks
// the decision was made against.
func (s *Service) decide(ctx context.Context, clientID string, g *Grant, target Stage, approvedAmount *decimal.Decimal) (TransitionResult, []compliance.Check, error) {
	checks, approvals, err := s.gateInputs(ctx, clientID, g)
	if err != nil {
		return TransitionResult{}, nil, err
	}
	result := TransitionGrant(*g, target, checks, approvals)
	if !CanTransition(g.Stage, target) {
		return result, checks, nil
	}
	extra, err := s.payoutBlockers(ctx, clientID, g, target, approvedAmount)
	if err != nil {
		return TransitionResult{}, nil, err
	}
	return WithBlockers(result, extra), checks, nil
}

func (s *Service) payoutBlockers(ctx context.Context, clientID string, g *Grant, target Stage, approvedAmount *decimal.Decimal) ([]string, error) {
	if target != StageApproved && target != StageRejected {
		return nil, nil
	}
	totals, err := s.payouts.PayoutTotals(ctx, clientID, g.ID)
	if err != nil {
		return nil, fmt.Errorf("totalling payouts: %w", err)
	}
	return PayoutBlockers(*g, target, approvedAmount, totals), nil
}

func (s *Service) gateInputs(ctx context.Context, clientID string, g *Grant) ([]compliance.Check, []approval.Approval, error) {
	checks, err := s.checks.ListByGrant(ctx, clientID, g.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing checks: %w", err)
	}
	var approvals []approval.Approval
	if len(g.ApprovalIDs) > 0 {
		approvals, err = s.approvals.ListByIDs(ctx, clientID, g.ApprovalIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("listing approvals: %w", err)
		}
	}
	return checks, approvals, nil
}

// seedChecks creates the default checks the first time a grant is submitted. A reopened
// grant keeps the checks it already has.
func (s *Service) seedChecks(ctx context.Context, clientID, grantID string, existing []compliance.Check, now time.Time) ([]compliance.Check, error) {
	if len(existing) > 0 {
		return existing, nil
	}
	seeded := compliance.CreateDefaultChecks(grantID, now)
	if err := s.checks.CreateBatch(ctx, clientID, seeded); err != nil {
		return nil, fmt.Errorf("seeding compliance checks: %w", err)
	}
	return seeded, nil
}

func (s *Service) write(ctx context.Context, clientID string, next, current *Grant) error {
	if err := s.grants.Update(ctx, clientID, next, current.Stage, current.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return ErrGrantNotFound
		}
		return fmt.Errorf("updating grant: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
