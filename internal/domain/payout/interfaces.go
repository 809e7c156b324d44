package payout

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/grant"
)

// Repository provides persistence for payouts.
type Repository interface {
	// Create inserts p after validate accepts the grant's current payout history. The history
	// read and the insert are atomic. A duplicate (grant, request id) yields
	// repository.ErrDuplicate.
	Create(ctx context.Context, clientID string, p *Payout, validate func(history []Payout) error) error
	Get(ctx context.Context, clientID, id string) (*Payout, error)
	GetByRequestID(ctx context.Context, clientID, grantID, requestID string) (*Payout, error)
	// Update writes p only if the stored status is still expectedStatus.
	Update(ctx context.Context, clientID string, p *Payout, expectedStatus Status) error
	ListByGrant(ctx context.Context, clientID, grantID string) ([]Payout, error)
	ListByStatus(ctx context.Context, clientID string, status Status) ([]Payout, error)
}

// GrantReader loads the grant a payout disburses.
type GrantReader interface {
	Get(ctx context.Context, clientID, id string) (*grant.Grant, error)
}

// ActivityRepository logs payout activities.
type ActivityRepository interface {
	Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error
}
