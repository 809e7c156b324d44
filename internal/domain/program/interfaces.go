package program

import "context"

// Repository provides persistence for programs.
type Repository interface {
	Create(ctx context.Context, clientID string, p *Program) error
	Get(ctx context.Context, clientID, id string) (*Program, error)
	List(ctx context.Context, clientID string) ([]Program, error)
}
