package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var payoutDay = time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)

func newPayout(g *grant.Grant, amount int64, requestID string) *payout.Payout {
	p := payout.NewRequest(*g, decimal.NewFromInt(amount), payout.MethodACH, payoutDay, "client1")
	p.RequestID = requestID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	return &p
}

func validatorFor(p *payout.Payout, g *grant.Grant) func([]payout.Payout) error {
	return func(history []payout.Payout) error {
		if result := payout.Validate(*p, *g, history); !result.Valid {
			return &payout.ValidationError{Errors: result.Errors}
		}
		return nil
	}
}

func TestPayoutRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	g := insertGrant(t, db, "client1", "g1", grant.StageApproved)
	repo := NewPayoutRepository(db)

	p := newPayout(g, 4000, "req-1")
	require.NoError(t, repo.Create(ctx, "client1", p, validatorFor(p, g)))

	got, err := repo.Get(ctx, "client1", p.ID)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(4000)))
	require.True(t, got.PayoutDate.Equal(payoutDay))
	require.Equal(t, payout.StatusScheduled, got.Status)
	require.Equal(t, "family-foundation", got.EntityID)
	require.Nil(t, got.LinkedPaymentID)

	byRequest, err := repo.GetByRequestID(ctx, "client1", "g1", "req-1")
	require.NoError(t, err)
	require.Equal(t, p.ID, byRequest.ID)

	_, err = repo.GetByRequestID(ctx, "client1", "g1", "")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Get(ctx, "client2", p.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPayoutRepository_CreateRejectsDuplicateRequest(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	g := insertGrant(t, db, "client1", "g1", grant.StageApproved)
	repo := NewPayoutRepository(db)

	require.NoError(t, repo.Create(ctx, "client1", newPayout(g, 1000, "req-1"), nil))
	require.ErrorIs(t, repo.Create(ctx, "client1", newPayout(g, 1000, "req-1"), nil), repository.ErrDuplicate)

	// Payouts without a request id never collide
	require.NoError(t, repo.Create(ctx, "client1", newPayout(g, 1000, ""), nil))
	require.NoError(t, repo.Create(ctx, "client1", newPayout(g, 1000, ""), nil))

	list, err := repo.ListByGrant(ctx, "client1", "g1")
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestPayoutRepository_CreateValidatesHistory(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	g := insertGrant(t, db, "client1", "g1", grant.StageApproved)
	repo := NewPayoutRepository(db)

	first := newPayout(g, 10000, "")
	require.NoError(t, repo.Create(ctx, "client1", first, validatorFor(first, g)))

	over := newPayout(g, 1, "")
	err := repo.Create(ctx, "client1", over, validatorFor(over, g))
	require.ErrorIs(t, err, payout.ErrInvalidPayout)

	list, err := repo.ListByGrant(ctx, "client1", "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPayoutRepository_ConcurrentCreatesCannotOverpay(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	g := insertGrant(t, db, "client1", "g1", grant.StageApproved)
	repo := NewPayoutRepository(db)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := newPayout(g, 6000, "")
			errs[i] = repo.Create(ctx, "client1", p, validatorFor(p, g))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, payout.ErrInvalidPayout)
		}
	}
	require.Equal(t, 1, succeeded)
}

func TestPayoutRepository_UpdateStatus(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	g := insertGrant(t, db, "client1", "g1", grant.StageApproved)
	repo := NewPayoutRepository(db)
	p := newPayout(g, 2500, "")
	require.NoError(t, repo.Create(ctx, "client1", p, nil))

	paymentID := "pay_123"
	sent := *p
	sent.Status = payout.StatusSent
	sent.LinkedPaymentID = &paymentID
	require.NoError(t, repo.Update(ctx, "client1", &sent, payout.StatusScheduled))
	require.ErrorIs(t, repo.Update(ctx, "client1", &sent, payout.StatusScheduled), repository.ErrConflict)

	missing := sent
	missing.ID = "nope"
	require.ErrorIs(t, repo.Update(ctx, "client1", &missing, payout.StatusScheduled), repository.ErrNotFound)

	got, err := repo.Get(ctx, "client1", p.ID)
	require.NoError(t, err)
	require.Equal(t, payout.StatusSent, got.Status)
	require.Equal(t, paymentID, *got.LinkedPaymentID)

	byStatus, err := repo.ListByStatus(ctx, "client1", payout.StatusSent)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	scheduled, err := repo.ListByStatus(ctx, "client1", payout.StatusScheduled)
	require.NoError(t, err)
	require.Empty(t, scheduled)
}

func TestPayoutRepository_PayoutTotals(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	g := insertGrant(t, db, "client1", "g1", grant.StageApproved)
	repo := NewPayoutRepository(db)

	confirmed := newPayout(g, 3000, "req-1")
	require.NoError(t, repo.Create(ctx, "client1", confirmed, nil))
	confirmed.Status = payout.StatusConfirmed
	require.NoError(t, repo.Update(ctx, "client1", confirmed, payout.StatusScheduled))
	require.NoError(t, repo.Create(ctx, "client1", newPayout(g, 1500, "req-2"), nil))
	require.NoError(t, repo.Create(ctx, "client1", newPayout(g, 500, "req-3"), nil))

	totals, err := repo.PayoutTotals(ctx, "client1", "g1")
	require.NoError(t, err)
	require.Equal(t, 1, totals.ConfirmedCount)
	require.True(t, totals.Confirmed.Equal(decimal.NewFromInt(3000)))
	require.Equal(t, 2, totals.InFlightCount)
	require.True(t, totals.InFlight.Equal(decimal.NewFromInt(2000)))

	other, err := repo.PayoutTotals(ctx, "client2", "g1")
	require.NoError(t, err)
	require.Zero(t, other.ConfirmedCount+other.InFlightCount)
}
