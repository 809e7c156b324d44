package budget_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

func grantOf(id string, stage grant.Stage, approved int64, programID string) grant.Grant {
	g := grant.Grant{
		ID:              id,
		EntityID:        "ent1",
		RequestedAmount: decimal.NewFromInt(approved),
		Currency:        "USD",
		Stage:           stage,
		CreatedAt:       created,
	}
	if stage.HoldsApprovedAmount() {
		amount := decimal.NewFromInt(approved)
		g.ApprovedAmount = &amount
	}
	if programID != "" {
		g.ProgramID = &programID
	}
	return g
}

func paid(grantID string, amount int64, status payout.Status, date time.Time) payout.Payout {
	return payout.Payout{ID: grantID + date.String(), GrantID: grantID, Amount: decimal.NewFromInt(amount), Status: status, PayoutDate: date}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		percent int64
		want    budget.Status
	}{
		{0, budget.StatusOK},
		{79, budget.StatusOK},
		{80, budget.StatusWarning},
		{99, budget.StatusWarning},
		{100, budget.StatusCritical},
		{250, budget.StatusCritical},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, budget.StatusFor(tt.percent), "percent %d", tt.percent)
	}
}

func TestUtilization(t *testing.T) {
	require.Equal(t, int64(85), budget.Utilization(decimal.NewFromInt(85000), decimal.NewFromInt(100000)))
	require.Equal(t, int64(0), budget.Utilization(decimal.Zero, decimal.NewFromInt(100)))
	require.Equal(t, int64(100), budget.Utilization(decimal.Zero, decimal.Zero))
	require.Equal(t, int64(100), budget.Utilization(decimal.NewFromInt(10), decimal.NewFromInt(-1)))
}

func TestCalculateCommitted(t *testing.T) {
	grants := []grant.Grant{
		grantOf("approved", grant.StageApproved, 50000, ""),
		grantOf("paid", grant.StagePaid, 20000, ""),
		grantOf("closed", grant.StageClosed, 7000, ""),
		grantOf("review", grant.StageInReview, 9000, ""),
		grantOf("draft", grant.StageDraft, 1000, ""),
		grantOf("rejected", grant.StageRejected, 3000, ""),
	}
	other := grantOf("other-entity", grant.StageApproved, 99000, "")
	other.EntityID = "ent2"
	lastYear := grantOf("last-year", grant.StageApproved, 99000, "")
	lastYear.CreatedAt = created.AddDate(-1, 0, 0)
	grants = append(grants, other, lastYear)

	require.True(t, budget.CalculateCommitted(grants, "ent1", 2026).Equal(decimal.NewFromInt(70000)))
	require.True(t, budget.CalculateCommitted(grants, "ent1", 2025).Equal(decimal.NewFromInt(99000)))
	require.True(t, budget.CalculateCommitted(nil, "ent1", 2026).IsZero())
}

func TestCalculatePaid(t *testing.T) {
	grants := []grant.Grant{grantOf("g1", grant.StageApproved, 50000, "")}
	other := grantOf("g2", grant.StageApproved, 50000, "")
	other.EntityID = "ent2"
	grants = append(grants, other)

	payouts := []payout.Payout{
		paid("g1", 10000, payout.StatusConfirmed, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		paid("g1", 5000, payout.StatusSent, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		paid("g1", 4000, payout.StatusConfirmed, time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)),
		paid("g2", 8000, payout.StatusConfirmed, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		paid("unknown", 8000, payout.StatusConfirmed, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
	}
	require.True(t, budget.CalculatePaid(payouts, grants, "ent1", 2026).Equal(decimal.NewFromInt(10000)))
}

func TestComputeSummary_Warning(t *testing.T) {
	b := budget.Budget{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(100000), Currency: "USD"}
	grants := []grant.Grant{
		grantOf("g1", grant.StageApproved, 60000, "water"),
		grantOf("g2", grant.StagePaid, 25000, ""),
	}
	payouts := []payout.Payout{
		paid("g2", 25000, payout.StatusConfirmed, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
	programs := []program.Program{{ID: "water", Name: "Clean Water"}, {ID: "arts", Name: "Arts"}}

	summary := budget.ComputeSummary(b, grants, payouts, programs)
	require.True(t, summary.Committed.Equal(decimal.NewFromInt(85000)))
	require.True(t, summary.Paid.Equal(decimal.NewFromInt(25000)))
	require.True(t, summary.Remaining.Equal(decimal.NewFromInt(15000)))
	require.Equal(t, int64(85), summary.UtilizationPercent)
	require.Equal(t, budget.StatusWarning, summary.Status)

	require.Len(t, summary.Programs, 3)
	require.Equal(t, "water", summary.Programs[0].ProgramID)
	require.Equal(t, "Clean Water", summary.Programs[0].ProgramName)
	require.True(t, summary.Programs[0].Committed.Equal(decimal.NewFromInt(60000)))
	require.Equal(t, "arts", summary.Programs[1].ProgramID)
	require.True(t, summary.Programs[1].Committed.IsZero())
	require.Equal(t, "", summary.Programs[2].ProgramID)
	require.True(t, summary.Programs[2].Committed.Equal(decimal.NewFromInt(25000)))
	require.True(t, summary.Programs[2].Paid.Equal(decimal.NewFromInt(25000)))
}

func TestComputeSummary_UnknownProgramsListedAfterKnown(t *testing.T) {
	b := budget.Budget{EntityID: "ent1", Year: 2026, Amount: decimal.NewFromInt(10)}
	grants := []grant.Grant{
		grantOf("g1", grant.StageApproved, 1, "zeta"),
		grantOf("g2", grant.StageApproved, 1, "alpha"),
	}
	summary := budget.ComputeSummary(b, grants, nil, []program.Program{{ID: "known"}})
	ids := []string{}
	for _, a := range summary.Programs {
		ids = append(ids, a.ProgramID)
	}
	require.Equal(t, []string{"known", "alpha", "zeta"}, ids)
}

func TestComputeSummary_ZeroBudget(t *testing.T) {
	empty := budget.ComputeSummary(budget.Budget{EntityID: "ent1", Year: 2026}, nil, nil, nil)
	require.Equal(t, int64(100), empty.UtilizationPercent)
	require.Equal(t, budget.StatusCritical, empty.Status, "nothing committed still meets a zero ceiling")

	over := budget.ComputeSummary(budget.Budget{EntityID: "ent1", Year: 2026}, []grant.Grant{grantOf("g1", grant.StageApproved, 5, "")}, nil, nil)
	require.Equal(t, int64(100), over.UtilizationPercent)
	require.Equal(t, budget.StatusCritical, over.Status)
	require.True(t, over.Remaining.Equal(decimal.NewFromInt(-5)))
}

// Over-commitment is allowed but always reported as critical.
func TestComputeSummary_OverCommitmentIsCritical(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		amount := decimal.NewFromInt(int64(rng.Intn(100000) + 1))
		var grants []grant.Grant
		for j := 0; j < rng.Intn(6); j++ {
			grants = append(grants, grantOf(string(rune('a'+j)), grant.StageApproved, int64(rng.Intn(60000)+1), ""))
		}
		summary := budget.ComputeSummary(budget.Budget{EntityID: "ent1", Year: 2026, Amount: amount}, grants, nil, nil)
		if summary.Committed.GreaterThanOrEqual(amount) {
			require.Equal(t, budget.StatusCritical, summary.Status, "committed %s of %s", summary.Committed, amount)
		}
	}
}

func TestScheduledPayouts(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	payouts := []payout.Payout{
		paid("g1", 100, payout.StatusScheduled, now.AddDate(0, 0, 10)),
		paid("g1", 200, payout.StatusScheduled, now.AddDate(0, 0, 2)),
		paid("g1", 400, payout.StatusScheduled, now.AddDate(0, 0, 45)),
		paid("g1", 800, payout.StatusConfirmed, now.AddDate(0, 0, 1)),
		paid("g1", 1600, payout.StatusScheduled, now.AddDate(0, 0, -1)),
	}
	scheduled := budget.ScheduledPayouts(payouts, now, 30)
	require.Len(t, scheduled, 2)
	require.True(t, scheduled[0].Amount.Equal(decimal.NewFromInt(200)))
	require.True(t, budget.SumScheduledPayouts(payouts, now, 30).Equal(decimal.NewFromInt(300)))
	require.True(t, budget.SumScheduledPayouts(payouts, now, 0).IsZero())
}
