package mocks

import (
	"context"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/stretchr/testify/mock"
)

// GrantRepository is a mock for grant.Repository.
type GrantRepository struct {
	mock.Mock
}

func (m *GrantRepository) Create(ctx context.Context, clientID string, g *grant.Grant) error {
	args := m.Called(ctx, clientID, g)
	return args.Error(0)
}

func (m *GrantRepository) Get(ctx context.Context, clientID, id string) (*grant.Grant, error) {
	args := m.Called(ctx, clientID, id)
	if g, ok := args.Get(0).(*grant.Grant); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *GrantRepository) Update(ctx context.Context, clientID string, g *grant.Grant, expectedStage grant.Stage, expectedVersion int64) error {
	args := m.Called(ctx, clientID, g, expectedStage, expectedVersion)
	return args.Error(0)
}

func (m *GrantRepository) List(ctx context.Context, clientID string, opts grant.ListOptions) ([]grant.Grant, error) {
	args := m.Called(ctx, clientID, opts)
	if list, ok := args.Get(0).([]grant.Grant); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SearchRepository is a mock for grant.SearchRepository.
type SearchRepository struct {
	mock.Mock
}

func (m *SearchRepository) Search(ctx context.Context, clientID, query string, opts grant.SearchOptions) ([]grant.SearchResult, error) {
	args := m.Called(ctx, clientID, query, opts)
	if list, ok := args.Get(0).([]grant.SearchResult); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// CheckRepository is a mock for compliance.Repository.
type CheckRepository struct {
	mock.Mock
}

func (m *CheckRepository) CreateBatch(ctx context.Context, clientID string, checks []compliance.Check) error {
	args := m.Called(ctx, clientID, checks)
	return args.Error(0)
}

func (m *CheckRepository) Get(ctx context.Context, clientID, id string) (*compliance.Check, error) {
	args := m.Called(ctx, clientID, id)
	if c, ok := args.Get(0).(*compliance.Check); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CheckRepository) Update(ctx context.Context, clientID string, check *compliance.Check) error {
	args := m.Called(ctx, clientID, check)
	return args.Error(0)
}

func (m *CheckRepository) ListByGrant(ctx context.Context, clientID, grantID string) ([]compliance.Check, error) {
	args := m.Called(ctx, clientID, grantID)
	if list, ok := args.Get(0).([]compliance.Check); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ApprovalRepository is a mock for approval.Repository.
type ApprovalRepository struct {
	mock.Mock
}

func (m *ApprovalRepository) Create(ctx context.Context, clientID string, a *approval.Approval) error {
	args := m.Called(ctx, clientID, a)
	return args.Error(0)
}

func (m *ApprovalRepository) Get(ctx context.Context, clientID, id string) (*approval.Approval, error) {
	args := m.Called(ctx, clientID, id)
	if a, ok := args.Get(0).(*approval.Approval); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApprovalRepository) Update(ctx context.Context, clientID string, a *approval.Approval) error {
	args := m.Called(ctx, clientID, a)
	return args.Error(0)
}

func (m *ApprovalRepository) ListByIDs(ctx context.Context, clientID string, ids []string) ([]approval.Approval, error) {
	args := m.Called(ctx, clientID, ids)
	if list, ok := args.Get(0).([]approval.Approval); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProgramRepository is a mock for program.Repository.
type ProgramRepository struct {
	mock.Mock
}

func (m *ProgramRepository) Create(ctx context.Context, clientID string, p *program.Program) error {
	args := m.Called(ctx, clientID, p)
	return args.Error(0)
}

func (m *ProgramRepository) Get(ctx context.Context, clientID, id string) (*program.Program, error) {
	args := m.Called(ctx, clientID, id)
	if p, ok := args.Get(0).(*program.Program); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProgramRepository) List(ctx context.Context, clientID string) ([]program.Program, error) {
	args := m.Called(ctx, clientID)
	if list, ok := args.Get(0).([]program.Program); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// PayoutRepository is a mock for payout.Repository. Create passes the history returned as
// its first value to the validate callback.
type PayoutRepository struct {
	mock.Mock
}

func (m *PayoutRepository) Create(ctx context.Context, clientID string, p *payout.Payout, validate func(history []payout.Payout) error) error {
	args := m.Called(ctx, clientID, p)
	if history, ok := args.Get(0).([]payout.Payout); ok && validate != nil {
		if err := validate(history); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *PayoutRepository) Get(ctx context.Context, clientID, id string) (*payout.Payout, error) {
	args := m.Called(ctx, clientID, id)
	if p, ok := args.Get(0).(*payout.Payout); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PayoutRepository) GetByRequestID(ctx context.Context, clientID, grantID, requestID string) (*payout.Payout, error) {
	args := m.Called(ctx, clientID, grantID, requestID)
	if p, ok := args.Get(0).(*payout.Payout); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PayoutRepository) Update(ctx context.Context, clientID string, p *payout.Payout, expectedStatus payout.Status) error {
	args := m.Called(ctx, clientID, p, expectedStatus)
	return args.Error(0)
}

func (m *PayoutRepository) ListByGrant(ctx context.Context, clientID, grantID string) ([]payout.Payout, error) {
	args := m.Called(ctx, clientID, grantID)
	if list, ok := args.Get(0).([]payout.Payout); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PayoutRepository) ListByStatus(ctx context.Context, clientID string, status payout.Status) ([]payout.Payout, error) {
	args := m.Called(ctx, clientID, status)
	if list, ok := args.Get(0).([]payout.Payout); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// PayoutLedger is a mock for grant.PayoutLedger.
type PayoutLedger struct {
	mock.Mock
}

func (m *PayoutLedger) PayoutTotals(ctx context.Context, clientID, grantID string) (grant.PayoutTotals, error) {
	args := m.Called(ctx, clientID, grantID)
	return args.Get(0).(grant.PayoutTotals), args.Error(1)
}

// BudgetRepository is a mock for budget.Repository.
type BudgetRepository struct {
	mock.Mock
}

func (m *BudgetRepository) Upsert(ctx context.Context, clientID string, b *budget.Budget) error {
	args := m.Called(ctx, clientID, b)
	return args.Error(0)
}

func (m *BudgetRepository) Get(ctx context.Context, clientID, entityID string, year int) (*budget.Budget, error) {
	args := m.Called(ctx, clientID, entityID, year)
	if b, ok := args.Get(0).(*budget.Budget); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BudgetRepository) List(ctx context.Context, clientID, entityID string) ([]budget.Budget, error) {
	args := m.Called(ctx, clientID, entityID)
	if list, ok := args.Get(0).([]budget.Budget); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SnapshotReader is a mock for budget.SnapshotReader.
type SnapshotReader struct {
	mock.Mock
}

func (m *SnapshotReader) Snapshot(ctx context.Context, clientID, entityID string, year int) (*budget.Snapshot, error) {
	args := m.Called(ctx, clientID, entityID, year)
	if s, ok := args.Get(0).(*budget.Snapshot); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotReader) ScheduledPayouts(ctx context.Context, clientID, entityID string) ([]payout.Payout, error) {
	args := m.Called(ctx, clientID, entityID)
	if list, ok := args.Get(0).([]payout.Payout); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReportRepository is a mock for impact.Repository.
type ReportRepository struct {
	mock.Mock
}

func (m *ReportRepository) Create(ctx context.Context, clientID string, r *impact.Report) error {
	args := m.Called(ctx, clientID, r)
	return args.Error(0)
}

func (m *ReportRepository) Get(ctx context.Context, clientID, id string) (*impact.Report, error) {
	args := m.Called(ctx, clientID, id)
	if r, ok := args.Get(0).(*impact.Report); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReportRepository) Update(ctx context.Context, clientID string, r *impact.Report, expectedStatus impact.Status) error {
	args := m.Called(ctx, clientID, r, expectedStatus)
	return args.Error(0)
}

func (m *ReportRepository) List(ctx context.Context, clientID string, opts impact.ListOptions) ([]impact.Report, error) {
	args := m.Called(ctx, clientID, opts)
	if list, ok := args.Get(0).([]impact.Report); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, clientID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, clientID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, clientID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, clientID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
