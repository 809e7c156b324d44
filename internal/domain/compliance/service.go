package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/repository"
)

// Service handles reviewer actions on compliance checks.
type Service struct {
	checks     Repository
	grantees   Grantee
	refresher  StatusRefresher
	screener   Screener
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new compliance service. A nil screener falls back to StaticScreener.
func NewService(
	checks Repository,
	grantees Grantee,
	refresher StatusRefresher,
	screener Screener,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	if screener == nil {
		screener = StaticScreener{}
	}
	return &Service{
		checks:     checks,
		grantees:   grantees,
		refresher:  refresher,
		screener:   screener,
		activities: activities,
		logger:     logger,
	}
}

// ReviewRequest describes a reviewer clearing or flagging a check.
type ReviewRequest struct {
	CheckID        string
	Decision       Decision
	Reviewer       string
	Findings       string
	EvidenceDocIDs []string
}

// ListForGrant returns a grant's checks together with their summary.
func (s *Service) ListForGrant(ctx context.Context, clientID, grantID string) ([]Check, Summary, error) {
	if strings.TrimSpace(grantID) == "" {
		return nil, Summary{}, ErrInvalidInput
	}
	checks, err := s.checks.ListByGrant(ctx, clientID, grantID)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("listing checks: %w", err)
	}
	return checks, CalculateSummary(checks), nil
}

// Review applies a reviewer decision to a check and refreshes the grant's cached status.
func (s *Service) Review(ctx context.Context, clientID string, req ReviewRequest) (*Check, error) {
	if strings.TrimSpace(req.CheckID) == "" {
		return nil, ErrInvalidInput
	}
	status, ok := req.Decision.status()
	if !ok {
		return nil, ErrInvalidDecision
	}
	if strings.TrimSpace(req.Reviewer) == "" {
		return nil, ErrMissingReviewer
	}

	current, err := s.checks.Get(ctx, clientID, req.CheckID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckNotFound
		}
		return nil, fmt.Errorf("loading check: %w", err)
	}

	updated := *current
	now := time.Now()
	reviewer := req.Reviewer
	updated.Status = status
	updated.ReviewedAt = &now
	updated.ReviewedBy = &reviewer
	if req.Findings != "" {
		updated.Findings = req.Findings
	}
	if len(req.EvidenceDocIDs) > 0 {
		updated.EvidenceDocIDs = append(append([]string(nil), current.EvidenceDocIDs...), req.EvidenceDocIDs...)
	}
	updated.UpdatedAt = now

	if err := s.persist(ctx, clientID, &updated); err != nil {
		return nil, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		GrantID:      &updated.GrantID,
		ActivityType: activity.TypeCheckReviewed,
		Actor:        reviewer,
		Summary:      fmt.Sprintf("%s check %s", updated.Type, updated.Status),
		Details:      activity.Details(map[string]string{"check_id": updated.ID, "from": string(current.Status), "to": string(updated.Status)}),
	})

	if s.logger != nil {
		s.logger.Info("compliance check reviewed", "check_id", updated.ID, "grant_id", updated.GrantID, "type", updated.Type, "status", updated.Status)
	}
	return &updated, nil
}

// Screen runs sanctions screening for a grant's grantee and records the outcome on its
// sanctions check.
func (s *Service) Screen(ctx context.Context, clientID, grantID, reviewer string) (*Check, ScreeningResult, error) {
	if strings.TrimSpace(grantID) == "" {
		return nil, ScreeningResult{}, ErrInvalidInput
	}
	if strings.TrimSpace(reviewer) == "" {
		return nil, ScreeningResult{}, ErrMissingReviewer
	}

	name, country, err := s.grantees.Grantee(ctx, clientID, grantID)
	if err != nil {
		return nil, ScreeningResult{}, fmt.Errorf("loading grantee: %w", err)
	}

	checks, err := s.checks.ListByGrant(ctx, clientID, grantID)
	if err != nil {
		return nil, ScreeningResult{}, fmt.Errorf("listing checks: %w", err)
	}
	var target *Check
	for i := range checks {
		if checks[i].Type == TypeSanctions {
			target = &checks[i]
			break
		}
	}
	if target == nil {
		return nil, ScreeningResult{}, ErrNoSanctionsCheck
	}

	result, err := s.screener.Screen(ctx, name, country)
	if err != nil {
		return nil, ScreeningResult{}, fmt.Errorf("screening grantee: %w", err)
	}

	now := time.Now()
	updated := *target
	updated.ReviewedAt = &now
	updated.ReviewedBy = &reviewer
	updated.UpdatedAt = now
	if result.Cleared {
		updated.Status = StatusCleared
		updated.Findings = "no sanctions matches"
	} else {
		updated.Status = StatusFlagged
		updated.Findings = strings.Join(result.Matches, "\n")
	}

	if err := s.persist(ctx, clientID, &updated); err != nil {
		return nil, ScreeningResult{}, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		GrantID:      &grantID,
		ActivityType: activity.TypeSanctionsScreened,
		Actor:        reviewer,
		Summary:      fmt.Sprintf("sanctions screening %s", updated.Status),
		Details:      activity.Details(result),
	})

	return &updated, result, nil
}

func (s *Service) persist(ctx context.Context, clientID string, check *Check) error {
	if err := s.checks.Update(ctx, clientID, check); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCheckNotFound
		}
		return fmt.Errorf("updating check: %w", err)
	}
	if s.refresher != nil {
		if err := s.refresher.RefreshComplianceStatus(ctx, clientID, check.GrantID); err != nil {
			return fmt.Errorf("refreshing grant compliance status: %w", err)
		}
	}
	return nil
}
