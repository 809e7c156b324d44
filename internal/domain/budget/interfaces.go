package budget

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
)

// Repository provides persistence for budget ceilings.
type Repository interface {
	// Upsert stores the ceiling for (entity, year), keeping the existing id and creation time.
	Upsert(ctx context.Context, clientID string, b *Budget) error
	Get(ctx context.Context, clientID, entityID string, year int) (*Budget, error)
	List(ctx context.Context, clientID, entityID string) ([]Budget, error)
}

// Snapshot is a consistent read of everything a budget summary is derived from.
type Snapshot struct {
	Budget   *Budget
	Grants   []grant.Grant
	Payouts  []payout.Payout
	Programs []program.Program
}

// SnapshotReader reads ledger inputs in a single consistent view.
type SnapshotReader interface {
	Snapshot(ctx context.Context, clientID, entityID string, year int) (*Snapshot, error)
	ScheduledPayouts(ctx context.Context, clientID, entityID string) ([]payout.Payout, error)
}

// ActivityRepository logs budget activities.
type ActivityRepository interface {
	Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error
}
