package impact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/ganot/grantflow/internal/money"
	"github.com/ganot/grantflow/internal/narrative"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/google/uuid"
)

// Service handles impact reports.
type Service struct {
	reports    Repository
	grants     GrantReader
	programs   ProgramReader
	generator  narrative.Generator
	activities ActivityRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new impact service. A nil generator drafts narratives from a template.
func NewService(reports Repository, grants GrantReader, programs ProgramReader, generator narrative.Generator, activities ActivityRepository, logger *slog.Logger) *Service {
	if generator == nil {
		generator = narrative.TemplateGenerator{}
	}
	return &Service{
		reports:    reports,
		grants:     grants,
		programs:   programs,
		generator:  generator,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRequest defines report creation inputs.
type CreateRequest struct {
	GrantID   string
	Period    string
	DueDate   *time.Time
	Narrative string
	Metrics   []Metric
	Actor     string
}

// UpdateRequest changes a draft report. Nil fields are left unchanged.
type UpdateRequest struct {
	ID        string
	Narrative *string
	Metrics   []Metric
	DueDate   *time.Time
}

// Progress is a program's aggregated impact against its KPI targets.
type Progress struct {
	ProgramID   string             `json:"program_id"`
	ProgramName string             `json:"program_name"`
	Reports     int                `json:"reports"`
	Metrics     []AggregatedMetric `json:"metrics"`
	Targets     []TargetComparison `json:"targets"`
}

// Create starts a draft report for an approved grant.
func (s *Service) Create(ctx context.Context, clientID string, req CreateRequest) (*Report, error) {
	if strings.TrimSpace(req.GrantID) == "" || strings.TrimSpace(req.Period) == "" {
		return nil, ErrInvalidInput
	}
	if err := validateMetrics(req.Metrics); err != nil {
		return nil, err
	}
	g, err := s.grants.Get(ctx, clientID, req.GrantID)
	if err != nil {
		return nil, err
	}
	if !g.Stage.HoldsApprovedAmount() {
		return nil, fmt.Errorf("%w: grant is %s", ErrGrantNotEligible, g.Stage)
	}

	now := s.now()
	r := &Report{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		GrantID:   g.ID,
		EntityID:  g.EntityID,
		ProgramID: g.ProgramID,
		Period:    strings.TrimSpace(req.Period),
		DueDate:   req.DueDate,
		Status:    StatusDraft,
		Narrative: strings.TrimSpace(req.Narrative),
		Metrics:   metricsOrEmpty(req.Metrics),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reports.Create(ctx, clientID, r); err != nil {
		return nil, fmt.Errorf("creating impact report: %w", err)
	}
	return r, nil
}

// Update edits a draft report.
func (s *Service) Update(ctx context.Context, clientID string, req UpdateRequest) (*Report, error) {
	if req.Metrics != nil {
		if err := validateMetrics(req.Metrics); err != nil {
			return nil, err
		}
	}
	r, err := s.Get(ctx, clientID, req.ID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusDraft {
		return nil, ErrNotEditable
	}

	updated := *r
	if req.Narrative != nil {
		updated.Narrative = strings.TrimSpace(*req.Narrative)
	}
	if req.Metrics != nil {
		updated.Metrics = req.Metrics
	}
	if req.DueDate != nil {
		updated.DueDate = req.DueDate
	}
	updated.UpdatedAt = s.now()
	if err := s.write(ctx, clientID, &updated, r.Status); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Submit moves a draft report to submitted.
func (s *Service) Submit(ctx context.Context, clientID, id, actor string) (*Report, error) {
	r, err := s.Get(ctx, clientID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusDraft {
		return nil, fmt.Errorf("%w: report is %s", ErrInvalidStatusChange, r.Status)
	}

	now := s.now()
	updated := *r
	updated.Status = StatusSubmitted
	updated.SubmittedAt = &now
	updated.UpdatedAt = now
	if err := s.write(ctx, clientID, &updated, r.Status); err != nil {
		return nil, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     updated.EntityID,
		GrantID:      &updated.GrantID,
		ActivityType: activity.TypeReportSubmitted,
		Actor:        actor,
		Summary:      fmt.Sprintf("impact report for %s submitted", updated.Period),
	})
	return &updated, nil
}

// Publish releases a submitted report to the portal. All unmet requirements are returned in a
// *PublishError.
func (s *Service) Publish(ctx context.Context, clientID, id, actor string) (*Report, error) {
	r, err := s.Get(ctx, clientID, id)
	if err != nil {
		return nil, err
	}
	if ok, reasons := CanPublishToPortal(*r); !ok {
		return nil, &PublishError{Reasons: reasons}
	}

	now := s.now()
	updated := *r
	updated.Status = StatusPublished
	updated.PublishedAt = &now
	updated.UpdatedAt = now
	if err := s.write(ctx, clientID, &updated, r.Status); err != nil {
		return nil, err
	}

	activity.Record(ctx, s.activities, s.logger, clientID, &activity.ActivityEntry{
		EntityID:     updated.EntityID,
		GrantID:      &updated.GrantID,
		ActivityType: activity.TypeReportPublished,
		Actor:        actor,
		Summary:      fmt.Sprintf("impact report for %s published", updated.Period),
		Details:      activity.Details(map[string]string{"report_id": updated.ID}),
	})
	if s.logger != nil {
		s.logger.Info("impact report published", "report_id", updated.ID, "grant_id", updated.GrantID)
	}
	return &updated, nil
}

// Get returns a report by ID.
func (s *Service) Get(ctx context.Context, clientID, id string) (*Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	r, err := s.reports.Get(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("getting impact report: %w", err)
	}
	return r, nil
}

// List returns reports matching opts.
func (s *Service) List(ctx context.Context, clientID string, opts ListOptions) ([]Report, error) {
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, ErrInvalidInput
		}
	}
	return s.reports.List(ctx, clientID, opts)
}

// Due returns draft reports due within days, overdue ones included.
func (s *Service) Due(ctx context.Context, clientID string, days int) ([]Report, error) {
	if days < 0 {
		return nil, ErrInvalidInput
	}
	drafts, err := s.reports.List(ctx, clientID, ListOptions{Statuses: []Status{StatusDraft}})
	if err != nil {
		return nil, fmt.Errorf("listing draft reports: %w", err)
	}
	return ReportsDue(drafts, s.now(), days), nil
}

// ProgramProgress aggregates a program's submitted and published reports against its KPI
// targets.
func (s *Service) ProgramProgress(ctx context.Context, clientID, programID string) (*Progress, error) {
	p, err := s.programs.Get(ctx, clientID, programID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.List(ctx, clientID, ListOptions{
		ProgramID: &p.ID,
		Statuses:  []Status{StatusSubmitted, StatusPublished},
	})
	if err != nil {
		return nil, fmt.Errorf("listing program reports: %w", err)
	}
	aggregated := AggregateMetrics(reports)
	return &Progress{
		ProgramID:   p.ID,
		ProgramName: p.Name,
		Reports:     len(reports),
		Metrics:     aggregated,
		Targets:     CompareWithTargets(aggregated, p.KPITargets),
	}, nil
}

// DraftNarrative asks the narrative generator for advisory text about a report. The draft is
// returned to the caller and never stored on the report.
func (s *Service) DraftNarrative(ctx context.Context, clientID, reportID string) (*narrative.Draft, error) {
	r, err := s.Get(ctx, clientID, reportID)
	if err != nil {
		return nil, err
	}
	g, err := s.grants.Get(ctx, clientID, r.GrantID)
	if err != nil {
		return nil, err
	}

	in := narrative.Input{
		GranteeName: g.GranteeName,
		Purpose:     g.Purpose,
		Stage:       string(g.Stage),
		Period:      r.Period,
	}
	if g.ApprovedAmount != nil {
		in.Amount = money.Format(*g.ApprovedAmount, g.Currency)
	}

	var prog *program.Program
	if r.ProgramID != nil {
		prog, err = s.programs.Get(ctx, clientID, *r.ProgramID)
		if err != nil && !errors.Is(err, program.ErrProgramNotFound) {
			return nil, err
		}
	}
	if prog != nil {
		in.ProgramName = prog.Name
		in.Theme = prog.Theme
	}
	for _, m := range r.Metrics {
		nm := narrative.Metric{Key: m.Key, Value: m.Value, Unit: m.Unit}
		if prog != nil {
			if t, ok := prog.Target(m.Key); ok {
				nm.Target = t.Target
			}
		}
		in.Metrics = append(in.Metrics, nm)
	}

	return narrative.Compose(ctx, s.generator, in)
}

func (s *Service) write(ctx context.Context, clientID string, r *Report, expected Status) error {
	if err := s.reports.Update(ctx, clientID, r, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return ErrReportNotFound
		}
		return fmt.Errorf("updating impact report: %w", err)
	}
	return nil
}

func validateMetrics(metrics []Metric) error {
	seen := make(map[string]struct{}, len(metrics))
	for _, m := range metrics {
		key := strings.TrimSpace(m.Key)
		if key == "" {
			return fmt.Errorf("%w: metric key is required", ErrInvalidInput)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate metric %q", ErrInvalidInput, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func metricsOrEmpty(m []Metric) []Metric {
	if m == nil {
		return []Metric{}
	}
	return m
}
