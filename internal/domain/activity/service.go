package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, clientID string, entry *ActivityEntry) error {
	if entry == nil || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, clientID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, clientID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, clientID, opts)
}

// Details encodes v as the JSON details payload of an entry. Encoding failures yield "".
func Details(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Record logs entry through repo, ignoring a nil repository. Audit failures never fail the
// calling operation; they are reported to logger.
func Record(ctx context.Context, repo Logger, logger *slog.Logger, clientID string, entry *ActivityEntry) {
	if repo == nil || entry == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := repo.Log(ctx, clientID, entry); err != nil && logger != nil {
		logger.Warn("failed to record activity", "type", entry.ActivityType, "error", err)
	}
}
