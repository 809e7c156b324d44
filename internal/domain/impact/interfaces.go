package impact

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/program"
)

// Repository provides persistence for impact reports.
type Repository interface {
	Create(ctx context.Context, clientID string, r *Report) error
	Get(ctx context.Context, clientID, id string) (*Report, error)
	// Update writes r only if the stored status is still expectedStatus.
	Update(ctx context.Context, clientID string, r *Report, expectedStatus Status) error
	List(ctx context.Context, clientID string, opts ListOptions) ([]Report, error)
}

// GrantReader loads the grant a report belongs to.
type GrantReader interface {
	Get(ctx context.Context, clientID, id string) (*grant.Grant, error)
}

// ProgramReader loads program KPI targets.
type ProgramReader interface {
	Get(ctx context.Context, clientID, id string) (*program.Program, error)
}

// ActivityRepository logs report activities.
type ActivityRepository interface {
	Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error
}
