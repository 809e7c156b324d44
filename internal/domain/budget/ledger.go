package budget

import (
	"sort"
	"time"

	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/ganot/grantflow/internal/money"
	"github.com/shopspring/decimal"
)

const (
	warningPercent  = 80
	criticalPercent = 100
)

// StatusFor is the only place utilization thresholds are applied: ok below 80%, warning from
// 80% to below 100%, critical at or above 100%.
func StatusFor(utilizationPercent int64) Status {
	switch {
	case utilizationPercent >= criticalPercent:
		return StatusCritical
	case utilizationPercent >= warningPercent:
		return StatusWarning
	default:
		return StatusOK
	}
}

// Utilization returns committed as a rounded percentage of the ceiling. A ceiling of zero or
// less is always fully used, since committed can't be below it, so it reports 100%.
func Utilization(committed, budgetAmount decimal.Decimal) int64 {
	if !budgetAmount.IsPositive() {
		return criticalPercent
	}
	return money.Percent(committed, budgetAmount)
}

func inScope(g grant.Grant, entityID string, year int) bool {
	return g.EntityID == entityID && g.CreatedAt.Year() == year
}

func commits(g grant.Grant) bool {
	return (g.Stage == grant.StageApproved || g.Stage == grant.StagePaid) && g.ApprovedAmount != nil
}

// CalculateCommitted sums approved amounts of the entity's approved or paid grants created in year.
func CalculateCommitted(grants []grant.Grant, entityID string, year int) decimal.Decimal {
	total := decimal.Zero
	for _, g := range grants {
		if inScope(g, entityID, year) && commits(g) {
			total = total.Add(*g.ApprovedAmount)
		}
	}
	return total
}

func paidInYear(p payout.Payout, year int) bool {
	return p.Status == payout.StatusConfirmed && p.PayoutDate.Year() == year
}

// CalculatePaid sums confirmed payouts dated in year against the entity's grants created in year.
func CalculatePaid(payouts []payout.Payout, grants []grant.Grant, entityID string, year int) decimal.Decimal {
	scope := make(map[string]struct{})
	for _, g := range grants {
		if inScope(g, entityID, year) {
			scope[g.ID] = struct{}{}
		}
	}
	total := decimal.Zero
	for _, p := range payouts {
		if _, ok := scope[p.GrantID]; ok && paidInYear(p, year) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// ComputeSummary derives committed, paid and remaining amounts, utilization, status and the
// per-program breakdown of b. Remaining is measured against committed spend.
func ComputeSummary(b Budget, grants []grant.Grant, payouts []payout.Payout, programs []program.Program) Summary {
	committed := CalculateCommitted(grants, b.EntityID, b.Year)
	utilization := Utilization(committed, b.Amount)
	return Summary{
		EntityID:           b.EntityID,
		Year:               b.Year,
		Currency:           b.Currency,
		BudgetAmount:       b.Amount,
		Committed:          committed,
		Paid:               CalculatePaid(payouts, grants, b.EntityID, b.Year),
		Remaining:          b.Amount.Sub(committed),
		UtilizationPercent: utilization,
		Status:             StatusFor(utilization),
		Programs:           allocate(b, grants, payouts, programs),
	}
}

// allocate lists every known program in the supplied order, then programs referenced only by
// grants sorted by id, then the unassigned bucket when it has activity.
func allocate(b Budget, grants []grant.Grant, payouts []payout.Payout, programs []program.Program) []ProgramAllocation {
	index := make(map[string]int, len(programs))
	out := make([]ProgramAllocation, 0, len(programs)+1)
	for _, p := range programs {
		if _, dup := index[p.ID]; dup {
			continue
		}
		index[p.ID] = len(out)
		out = append(out, ProgramAllocation{ProgramID: p.ID, ProgramName: p.Name, Committed: decimal.Zero, Paid: decimal.Zero})
	}

	var extra []string
	programOf := make(map[string]string)
	for _, g := range grants {
		if !inScope(g, b.EntityID, b.Year) {
			continue
		}
		key := ""
		if g.ProgramID != nil {
			key = *g.ProgramID
		}
		programOf[g.ID] = key
		if _, ok := index[key]; !ok && key != "" {
			index[key] = -1
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		index[id] = len(out)
		out = append(out, ProgramAllocation{ProgramID: id, Committed: decimal.Zero, Paid: decimal.Zero})
	}
	unassigned := ProgramAllocation{Committed: decimal.Zero, Paid: decimal.Zero}

	bucket := func(key string) *ProgramAllocation {
		if key == "" {
			return &unassigned
		}
		return &out[index[key]]
	}
	for _, g := range grants {
		if inScope(g, b.EntityID, b.Year) && commits(g) {
			a := bucket(programOf[g.ID])
			a.Committed = a.Committed.Add(*g.ApprovedAmount)
		}
	}
	for _, p := range payouts {
		key, ok := programOf[p.GrantID]
		if ok && paidInYear(p, b.Year) {
			a := bucket(key)
			a.Paid = a.Paid.Add(p.Amount)
		}
	}

	if !unassigned.Committed.IsZero() || !unassigned.Paid.IsZero() {
		out = append(out, unassigned)
	}
	return out
}

// ScheduledPayouts returns scheduled payouts dated within the next days, earliest first.
func ScheduledPayouts(payouts []payout.Payout, now time.Time, days int) []payout.Payout {
	return payout.Upcoming(payouts, now, days)
}

// SumScheduledPayouts totals ScheduledPayouts.
func SumScheduledPayouts(payouts []payout.Payout, now time.Time, days int) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ScheduledPayouts(payouts, now, days) {
		total = total.Add(p.Amount)
	}
	return total
}
