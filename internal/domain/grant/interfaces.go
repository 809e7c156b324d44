package grant

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/compliance"
)

// Repository provides persistence for grants.
type Repository interface {
	Create(ctx context.Context, clientID string, g *Grant) error
	Get(ctx context.Context, clientID, id string) (*Grant, error)
	// Update writes g only if the stored row still has expectedStage and expectedVersion.
	Update(ctx context.Context, clientID string, g *Grant, expectedStage Stage, expectedVersion int64) error
	List(ctx context.Context, clientID string, opts ListOptions) ([]Grant, error)
}

// SearchRepository provides full-text search over grants.
type SearchRepository interface {
	Search(ctx context.Context, clientID, query string, opts SearchOptions) ([]SearchResult, error)
}

// CheckRepository provides the compliance checks a transition is decided against.
type CheckRepository interface {
	CreateBatch(ctx context.Context, clientID string, checks []compliance.Check) error
	ListByGrant(ctx context.Context, clientID, grantID string) ([]compliance.Check, error)
}

// ApprovalRepository provides the approvals referenced by a grant.
type ApprovalRepository interface {
	ListByIDs(ctx context.Context, clientID string, ids []string) ([]approval.Approval, error)
}

// PayoutLedger totals the payouts recorded against a grant.
type PayoutLedger interface {
	PayoutTotals(ctx context.Context, clientID, grantID string) (PayoutTotals, error)
}

// ActivityRepository logs grant activities.
type ActivityRepository interface {
	Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error
}
