package budget_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type blockingSnapshots struct {
	calls   atomic.Int32
	release chan struct{}
	snap    *budget.Snapshot
}

func (b *blockingSnapshots) Snapshot(context.Context, string, string, int) (*budget.Snapshot, error) {
	b.calls.Add(1)
	<-b.release
	return b.snap, nil
}

func (b *blockingSnapshots) ScheduledPayouts(context.Context, string, string) ([]payout.Payout, error) {
	return nil, nil
}

func TestBudgetService_UpsertValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.BudgetRepository{}
	svc := budget.NewService(repo, &mocks.SnapshotReader{}, nil, nil)

	_, err := svc.Upsert(ctx, "client1", budget.UpsertRequest{EntityID: "", Year: 2026, Amount: decimal.NewFromInt(1), Currency: "USD"})
	require.ErrorIs(t, err, budget.ErrInvalidInput)
	_, err = svc.Upsert(ctx, "client1", budget.UpsertRequest{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(-1), Currency: "USD"})
	require.ErrorIs(t, err, budget.ErrInvalidInput)
	_, err = svc.Upsert(ctx, "client1", budget.UpsertRequest{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(1), Currency: "ABC"})
	require.ErrorIs(t, err, budget.ErrInvalidInput)

	repo.On("Upsert", mock.Anything, "client1", mock.Anything).Return(nil)
	b, err := svc.Upsert(ctx, "client1", budget.UpsertRequest{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(100000), Currency: "usd"})
	require.NoError(t, err)
	require.Equal(t, "USD", b.Currency)
}

func TestBudgetService_Summary(t *testing.T) {
	ctx := context.Background()
	snapshots := &mocks.SnapshotReader{}
	snapshots.On("Snapshot", mock.Anything, "client1", "ent1", 2026).Return(&budget.Snapshot{
		Budget: &budget.Budget{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(100000), Currency: "USD"},
		Grants: []grant.Grant{
			grantOf("g1", grant.StageApproved, 50000, ""),
			grantOf("g2", grant.StageApproved, 35000, ""),
		},
	}, nil)

	svc := budget.NewService(&mocks.BudgetRepository{}, snapshots, nil, nil)
	summary, err := svc.Summary(ctx, "client1", "ent1", 2026)
	require.NoError(t, err)
	require.Equal(t, int64(85), summary.UtilizationPercent)
	require.Equal(t, budget.StatusWarning, summary.Status)
}

func TestBudgetService_SummaryWithoutBudget(t *testing.T) {
	ctx := context.Background()
	snapshots := &mocks.SnapshotReader{}
	snapshots.On("Snapshot", mock.Anything, "client1", "ent1", 2026).Return(&budget.Snapshot{}, nil)

	svc := budget.NewService(&mocks.BudgetRepository{}, snapshots, nil, nil)
	_, err := svc.Summary(ctx, "client1", "ent1", 2026)
	require.ErrorIs(t, err, budget.ErrBudgetNotFound)
}

func TestBudgetService_ConcurrentSummariesShareOneRead(t *testing.T) {
	snapshots := &blockingSnapshots{
		release: make(chan struct{}),
		snap: &budget.Snapshot{
			Budget: &budget.Budget{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(1000), Currency: "USD"},
			Grants: []grant.Grant{grantOf("g1", grant.StageApproved, 1000, "")},
		},
	}
	svc := budget.NewService(&mocks.BudgetRepository{}, snapshots, nil, nil)

	const callers = 8
	var started, done sync.WaitGroup
	results := make([]*budget.Summary, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = svc.Summary(context.Background(), "client1", "ent1", 2026)
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(snapshots.release)
	done.Wait()

	require.Equal(t, int32(1), snapshots.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, budget.StatusCritical, results[i].Status)
	}
}

type cancellableSnapshots struct {
	blockingSnapshots
}

func (c *cancellableSnapshots) Snapshot(ctx context.Context, _ string, _ string, _ int) (*budget.Snapshot, error) {
	c.calls.Add(1)
	select {
	case <-c.release:
		return c.snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestBudgetService_CancelledCallerDoesNotFailSharedSummary(t *testing.T) {
	snapshots := &cancellableSnapshots{blockingSnapshots{
		release: make(chan struct{}),
		snap: &budget.Snapshot{
			Budget: &budget.Budget{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(1000), Currency: "USD"},
			Grants: []grant.Grant{grantOf("g1", grant.StageApproved, 500, "")},
		},
	}}
	svc := budget.NewService(&mocks.BudgetRepository{}, snapshots, nil, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Summary(firstCtx, "client1", "ent1", 2026)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return snapshots.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type outcome struct {
		summary *budget.Summary
		err     error
	}
	second := make(chan outcome, 1)
	go func() {
		summary, err := svc.Summary(context.Background(), "client1", "ent1", 2026)
		second <- outcome{summary, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(snapshots.release)
	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, int64(50), got.summary.UtilizationPercent)
	require.Equal(t, int32(1), snapshots.calls.Load())
}

func TestBudgetService_Forecast(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	snapshots := &mocks.SnapshotReader{}
	snapshots.On("ScheduledPayouts", mock.Anything, "client1", "ent1").Return([]payout.Payout{
		{ID: "p1", Amount: decimal.NewFromInt(700), Status: payout.StatusScheduled, PayoutDate: now.AddDate(0, 0, 3)},
		{ID: "p2", Amount: decimal.NewFromInt(300), Status: payout.StatusScheduled, PayoutDate: now.AddDate(0, 0, 20)},
		{ID: "p3", Amount: decimal.NewFromInt(900), Status: payout.StatusScheduled, PayoutDate: now.AddDate(0, 0, 90)},
	}, nil)

	svc := budget.NewService(&mocks.BudgetRepository{}, snapshots, nil, nil)
	forecast, err := svc.Forecast(ctx, "client1", "ent1", 30)
	require.NoError(t, err)
	require.True(t, forecast.Total.Equal(decimal.NewFromInt(1000)))
	require.Len(t, forecast.Payouts, 2)

	_, err = svc.Forecast(ctx, "client1", "ent1", -1)
	require.ErrorIs(t, err, budget.ErrInvalidInput)
}
