package compliance

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
)

// Repository provides persistence for compliance checks.
type Repository interface {
	CreateBatch(ctx context.Context, clientID string, checks []Check) error
	Get(ctx context.Context, clientID, id string) (*Check, error)
	Update(ctx context.Context, clientID string, check *Check) error
	ListByGrant(ctx context.Context, clientID, grantID string) ([]Check, error)
}

// Grantee resolves the screening subject of a grant.
type Grantee interface {
	Grantee(ctx context.Context, clientID, grantID string) (name, country string, err error)
}

// StatusRefresher recomputes the cached compliance status stored on a grant.
type StatusRefresher interface {
	RefreshComplianceStatus(ctx context.Context, clientID, grantID string) error
}

// ActivityRepository logs compliance activities.
type ActivityRepository interface {
	Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error
}

// Screener is a sanctions screening provider.
type Screener interface {
	Screen(ctx context.Context, name, country string) (ScreeningResult, error)
}

// StaticScreener adapts RunSanctionsScreening to the Screener interface.
type StaticScreener struct{}

// Screen runs the deterministic high-risk country screen.
func (StaticScreener) Screen(_ context.Context, name, country string) (ScreeningResult, error) {
	return RunSanctionsScreening(name, country), nil
}
