package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/google/uuid"
)

// Service handles approval records.
type Service struct {
	repo       Repository
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new approval service.
func NewService(repo Repository, activities ActivityRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, activities: activities, logger: logger}
}

// RequestInput describes a new approval request.
type RequestInput struct {
	Approver string
	Notes    string
}

// DecideInput describes a decision on a pending approval.
type DecideInput struct {
	ID       string
	Decision Status
	Approver string
	Notes    string
}

// Request creates a pending approval. The caller attaches the returned id to a grant.
func (s *Service) Request(ctx context.Context, clientID string, in RequestInput) (*Approval, error) {
	now := time.Now()
	a := &Approval{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Status:    StatusPending,
		Approver:  strings.TrimSpace(in.Approver),
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, clientID, a); err != nil {
		return nil, fmt.Errorf("creating approval: %w", err)
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		ActivityType: activity.TypeApprovalRequested,
		Actor:        a.Approver,
		Summary:      fmt.Sprintf("approval %s requested", a.ID),
	})
	return a, nil
}

// Decide records a final decision on a pending approval.
func (s *Service) Decide(ctx context.Context, clientID string, in DecideInput) (*Approval, error) {
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.Approver) == "" {
		return nil, ErrInvalidInput
	}
	if in.Decision != StatusApproved && in.Decision != StatusRejected {
		return nil, ErrInvalidDecision
	}

	a, err := s.Get(ctx, clientID, in.ID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	now := time.Now()
	a.Status = in.Decision
	a.Approver = strings.TrimSpace(in.Approver)
	if in.Notes != "" {
		a.Notes = in.Notes
	}
	a.DecidedAt = &now
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, clientID, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrApprovalNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAlreadyDecided
		}
		return nil, fmt.Errorf("updating approval: %w", err)
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		ActivityType: activity.TypeApprovalDecided,
		Actor:        a.Approver,
		Summary:      fmt.Sprintf("approval %s %s", a.ID, a.Status),
	})
	if s.logger != nil {
		s.logger.Info("approval decided", "approval_id", a.ID, "status", a.Status)
	}
	return a, nil
}

// Get fetches an approval by ID.
func (s *Service) Get(ctx context.Context, clientID, id string) (*Approval, error) {
	a, err := s.repo.Get(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("getting approval: %w", err)
	}
	return a, nil
}

// ListByIDs returns the stored approvals among ids. Unknown ids are omitted.
func (s *Service) ListByIDs(ctx context.Context, clientID string, ids []string) ([]Approval, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	list, err := s.repo.ListByIDs(ctx, clientID, ids)
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	return list, nil
}
