package payout_test

import (
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/billpay"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

func approvedGrant(amount int64) grant.Grant {
	approved := decimal.NewFromInt(amount)
	return grant.Grant{
		ID:              "g1",
		EntityID:        "ent1",
		GranteeName:     "Clean Water Trust",
		RequestedAmount: approved,
		ApprovedAmount:  &approved,
		Currency:        "USD",
		Stage:           grant.StageApproved,
	}
}

func payoutOf(id string, amount int64, status payout.Status, date time.Time) payout.Payout {
	return payout.Payout{
		ID:         id,
		GrantID:    "g1",
		EntityID:   "ent1",
		Amount:     decimal.NewFromInt(amount),
		Currency:   "USD",
		PayoutDate: date,
		Method:     payout.MethodACH,
		Status:     status,
	}
}

func TestNewRequest(t *testing.T) {
	g := approvedGrant(10000)
	p := payout.NewRequest(g, decimal.NewFromInt(2500), payout.MethodWire, today, "client1")
	require.NotEmpty(t, p.ID)
	require.Equal(t, payout.StatusScheduled, p.Status)
	require.Equal(t, "g1", p.GrantID)
	require.Equal(t, "ent1", p.EntityID)
	require.Equal(t, "USD", p.Currency)
	require.Equal(t, "client1", p.ClientID)
}

func TestCalculateGrantPaidAndRemaining(t *testing.T) {
	g := approvedGrant(10000)
	payouts := []payout.Payout{
		payoutOf("p1", 3000, payout.StatusConfirmed, today),
		payoutOf("p2", 2000, payout.StatusSent, today),
		payoutOf("p3", 1000, payout.StatusScheduled, today),
		{ID: "p4", GrantID: "g2", Amount: decimal.NewFromInt(9000), Status: payout.StatusConfirmed},
	}
	require.True(t, payout.CalculateGrantPaid(payouts, "g1").Equal(decimal.NewFromInt(3000)))
	require.True(t, payout.InFlight(payouts, "g1").Equal(decimal.NewFromInt(3000)))
	require.True(t, payout.RemainingToPay(g, payouts).Equal(decimal.NewFromInt(7000)))

	over := append(payouts, payoutOf("p5", 9000, payout.StatusConfirmed, today))
	require.True(t, payout.RemainingToPay(g, over).IsZero(), "remaining is never negative")

	g.ApprovedAmount = nil
	require.True(t, payout.RemainingToPay(g, payouts).IsZero())
}

func TestUpcomingAndOverdue(t *testing.T) {
	payouts := []payout.Payout{
		payoutOf("late", 100, payout.StatusScheduled, today.AddDate(0, 0, -2)),
		payoutOf("today", 100, payout.StatusScheduled, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)),
		payoutOf("week", 100, payout.StatusScheduled, today.AddDate(0, 0, 7)),
		payoutOf("soon", 100, payout.StatusScheduled, today.AddDate(0, 0, 3)),
		payoutOf("far", 100, payout.StatusScheduled, today.AddDate(0, 0, 60)),
		payoutOf("sent", 100, payout.StatusSent, today.AddDate(0, 0, 1)),
		payoutOf("sent-late", 100, payout.StatusSent, today.AddDate(0, 0, -5)),
	}

	upcoming := payout.Upcoming(payouts, today, 7)
	ids := make([]string, 0, len(upcoming))
	for _, p := range upcoming {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"today", "soon", "week"}, ids)

	overdue := payout.Overdue(payouts, today)
	require.Len(t, overdue, 1)
	require.Equal(t, "late", overdue[0].ID)
}

func TestValidate(t *testing.T) {
	g := approvedGrant(10000)

	valid := payoutOf("new", 4000, payout.StatusScheduled, today)
	result := payout.Validate(valid, g, nil)
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)

	bad := payout.Payout{ID: "bad", GrantID: "g1", Currency: "USD", Method: "cash"}
	result = payout.Validate(bad, g, nil)
	require.False(t, result.Valid)
	require.Equal(t, []string{
		"amount must be greater than zero",
		"payout date is required",
		`unknown payout method "cash"`,
	}, result.Errors)

	draft := g
	draft.Stage = grant.StageDraft
	draft.ApprovedAmount = nil
	result = payout.Validate(valid, draft, nil)
	require.Contains(t, result.Errors, "grant must be approved to schedule payouts (stage draft)")
	require.Contains(t, result.Errors, "amount $4,000.00 exceeds remaining to pay $0.00")

	euro := valid
	euro.Currency = "EUR"
	require.Contains(t, payout.Validate(euro, g, nil).Errors, "currency EUR does not match grant currency USD")
}

// A fully paid grant must refuse further payouts, but only when the real history is supplied.
func TestValidate_FullyPaidGrant(t *testing.T) {
	g := approvedGrant(10000)
	history := []payout.Payout{payoutOf("p1", 10000, payout.StatusConfirmed, today)}
	require.True(t, payout.RemainingToPay(g, history).IsZero())

	second := payoutOf("p2", 1, payout.StatusScheduled, today)

	// Validating against an empty history can't see the confirmed payout.
	require.True(t, payout.Validate(second, g, nil).Valid)

	result := payout.Validate(second, g, history)
	require.False(t, result.Valid)
	require.Equal(t, []string{"amount $1.00 exceeds remaining to pay $0.00"}, result.Errors)
}

func TestValidate_CountsInFlightPayouts(t *testing.T) {
	g := approvedGrant(10000)
	history := []payout.Payout{
		payoutOf("p1", 4000, payout.StatusConfirmed, today),
		payoutOf("p2", 5000, payout.StatusScheduled, today),
	}

	result := payout.Validate(payoutOf("p3", 2000, payout.StatusScheduled, today), g, history)
	require.False(t, result.Valid)
	require.Equal(t, []string{"amount $2,000.00 exceeds $1,000.00 available after scheduled payouts"}, result.Errors)

	require.True(t, payout.Validate(payoutOf("p3", 1000, payout.StatusScheduled, today), g, history).Valid)

	// a payout is not counted against itself
	require.True(t, payout.Validate(history[1], g, history).Valid)
}

func TestBillPayRequestFor(t *testing.T) {
	g := approvedGrant(10000)
	p := payoutOf("p1", 2500, payout.StatusScheduled, today)

	req := payout.BillPayRequestFor(p, g)
	require.Equal(t, "PHIL-g1-p1", req.Reference)
	require.Equal(t, "2026-06-15", req.ScheduledDate)
	require.Equal(t, "ach", req.Method)
	require.Equal(t, "Clean Water Trust", req.Payee)
	require.True(t, req.Amount.Equal(decimal.NewFromInt(2500)))
	require.Equal(t, req, payout.BillPayRequestFor(p, g))

	p.SubmitAttempts = 1
	require.Equal(t, "PHIL-g1-p1-2", payout.BillPayRequestFor(p, g).Reference)
}

func TestReference(t *testing.T) {
	require.Equal(t, "PHIL-g1-p1", payout.Reference("g1", "p1", 0))
	require.Equal(t, "PHIL-g1-p1", payout.Reference("g1", "p1", 1))
	require.Equal(t, "PHIL-g1-p1-3", payout.Reference("g1", "p1", 3))
}

func TestStatusFromBillPay(t *testing.T) {
	tests := map[billpay.Status]payout.Status{
		billpay.StatusPending:    payout.StatusSent,
		billpay.StatusProcessing: payout.StatusSent,
		billpay.StatusSent:       payout.StatusSent,
		billpay.StatusCompleted:  payout.StatusConfirmed,
		billpay.StatusFailed:     payout.StatusScheduled,
		billpay.StatusCancelled:  payout.StatusScheduled,
	}
	for in, want := range tests {
		got, ok := payout.StatusFromBillPay(in)
		require.True(t, ok)
		require.Equal(t, want, got, in)
	}
	_, ok := payout.StatusFromBillPay("refunded")
	require.False(t, ok)
}

func TestCanChangeStatus(t *testing.T) {
	require.True(t, payout.CanChangeStatus(payout.StatusScheduled, payout.StatusSent))
	require.True(t, payout.CanChangeStatus(payout.StatusScheduled, payout.StatusConfirmed))
	require.True(t, payout.CanChangeStatus(payout.StatusSent, payout.StatusConfirmed))
	require.True(t, payout.CanChangeStatus(payout.StatusSent, payout.StatusScheduled))
	require.False(t, payout.CanChangeStatus(payout.StatusConfirmed, payout.StatusSent))
	require.False(t, payout.CanChangeStatus(payout.StatusConfirmed, payout.StatusScheduled))
}
