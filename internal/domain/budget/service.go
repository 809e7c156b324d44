package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/money"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("github.com/ganot/grantflow/internal/domain/budget")

// Service maintains budget ceilings and derives summaries from grants and payouts.
type Service struct {
	budgets    Repository
	snapshots  SnapshotReader
	activities ActivityRepository
	logger     *slog.Logger
	group      singleflight.Group
	now        func() time.Time
}

// NewService creates a new budget service.
func NewService(budgets Repository, snapshots SnapshotReader, activities ActivityRepository, logger *slog.Logger) *Service {
	return &Service{
		budgets:    budgets,
		snapshots:  snapshots,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// UpsertRequest sets the annual ceiling of an entity.
type UpsertRequest struct {
	EntityID string
	Year     int
	Amount   decimal.Decimal
	Currency string
	Actor    string
}

// Upsert creates or replaces the ceiling for (entity, year).
func (s *Service) Upsert(ctx context.Context, clientID string, req UpsertRequest) (*Budget, error) {
	if strings.TrimSpace(req.EntityID) == "" || req.Year < 1900 || req.Year > 9999 {
		return nil, ErrInvalidInput
	}
	if req.Amount.IsNegative() {
		return nil, ErrInvalidInput
	}
	if err := money.ValidateCurrency(req.Currency); err != nil {
		return nil, ErrInvalidInput
	}

	now := s.now()
	b := &Budget{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		EntityID:  strings.TrimSpace(req.EntityID),
		Year:      req.Year,
		Amount:    req.Amount,
		Currency:  money.NormalizeCurrency(req.Currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.budgets.Upsert(ctx, clientID, b); err != nil {
		return nil, fmt.Errorf("saving budget: %w", err)
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     b.EntityID,
		ActivityType: activity.TypeBudgetSet,
		Actor:        req.Actor,
		Summary:      fmt.Sprintf("%d budget set to %s", b.Year, money.Format(b.Amount, b.Currency)),
	})
	return b, nil
}

// Get returns the ceiling for (entity, year).
func (s *Service) Get(ctx context.Context, clientID, entityID string, year int) (*Budget, error) {
	b, err := s.budgets.Get(ctx, clientID, entityID, year)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("getting budget: %w", err)
	}
	return b, nil
}

// List returns every ceiling set for an entity.
func (s *Service) List(ctx context.Context, clientID, entityID string) ([]Budget, error) {
	return s.budgets.List(ctx, clientID, entityID)
}

// Summary derives the budget summary of (entity, year) from one consistent snapshot.
// Concurrent requests for the same key share a single aggregation. The shared read is
// detached from any one caller's cancellation; each caller stops waiting when its own
// context ends.
func (s *Service) Summary(ctx context.Context, clientID, entityID string, year int) (*Summary, error) {
	if strings.TrimSpace(entityID) == "" || year <= 0 {
		return nil, ErrInvalidInput
	}

	key := fmt.Sprintf("%s\x00%s\x00%d", clientID, entityID, year)
	flight := s.group.DoChan(key, func() (any, error) {
		return s.aggregate(context.WithoutCancel(ctx), clientID, entityID, year)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared && s.logger != nil {
			s.logger.Debug("budget summary shared", "entity_id", entityID, "year", year)
		}
		summary := res.Val.(Summary)
		return &summary, nil
	}
}

func (s *Service) aggregate(ctx context.Context, clientID, entityID string, year int) (Summary, error) {
	ctx, span := tracer.Start(ctx, "budget.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("budget.entity_id", entityID), attribute.Int("budget.year", year))

	snap, err := s.snapshots.Snapshot(ctx, clientID, entityID, year)
	if err != nil {
		return Summary{}, fmt.Errorf("reading ledger snapshot: %w", err)
	}
	if snap.Budget == nil {
		return Summary{}, ErrBudgetNotFound
	}
	summary := ComputeSummary(*snap.Budget, snap.Grants, snap.Payouts, snap.Programs)
	span.SetAttributes(attribute.Int64("budget.utilization_percent", summary.UtilizationPercent))

	if summary.Status != StatusOK && s.logger != nil {
		s.logger.Warn("budget utilization high", "entity_id", entityID, "year", year,
			"utilization", summary.UtilizationPercent, "status", summary.Status)
	}
	return summary, nil
}

// Forecast totals the entity's scheduled payouts due within days.
func (s *Service) Forecast(ctx context.Context, clientID, entityID string, days int) (*Forecast, error) {
	if strings.TrimSpace(entityID) == "" || days < 0 {
		return nil, ErrInvalidInput
	}
	scheduled, err := s.snapshots.ScheduledPayouts(ctx, clientID, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled payouts: %w", err)
	}
	now := s.now()
	return &Forecast{
		EntityID: entityID,
		Days:     days,
		Total:    SumScheduledPayouts(scheduled, now, days),
		Payouts:  ScheduledPayouts(scheduled, now, days),
	}, nil
}
