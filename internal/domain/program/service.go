package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/repository"
	"github.com/google/uuid"
)

// Service handles program reference data.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new program service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines program creation inputs.
type CreateRequest struct {
	ID          string
	Name        string
	Theme       string
	Description string
	KPITargets  []KPITarget
}

// Create creates a new program.
func (s *Service) Create(ctx context.Context, clientID string, req CreateRequest) (*Program, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(req.KPITargets))
	for _, t := range req.KPITargets {
		key := strings.TrimSpace(t.Key)
		if key == "" {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[key]; dup {
			return nil, ErrInvalidInput
		}
		seen[key] = struct{}{}
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	p := &Program{
		ID:          id,
		ClientID:    clientID,
		Name:        strings.TrimSpace(req.Name),
		Theme:       strings.TrimSpace(req.Theme),
		Description: req.Description,
		KPITargets:  req.KPITargets,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, clientID, p); err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	return p, nil
}

// Get fetches a program by ID.
func (s *Service) Get(ctx context.Context, clientID, id string) (*Program, error) {
	p, err := s.repo.Get(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("getting program: %w", err)
	}
	return p, nil
}

// List returns all programs of a client.
func (s *Service) List(ctx context.Context, clientID string) ([]Program, error) {
	return s.repo.List(ctx, clientID)
}
