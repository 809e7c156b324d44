package approval

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
)

// Repository provides persistence for approvals.
type Repository interface {
	Create(ctx context.Context, clientID string, a *Approval) error
	Get(ctx context.Context, clientID, id string) (*Approval, error)
	// Update writes a decision only while the stored approval is still pending. A decided
	// approval yields repository.ErrConflict.
	Update(ctx context.Context, clientID string, a *Approval) error
	ListByIDs(ctx context.Context, clientID string, ids []string) ([]Approval, error)
}

// ActivityRepository logs approval activities.
type ActivityRepository interface {
	Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error
}
