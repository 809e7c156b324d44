package payout

import (
	"fmt"
	"sort"
	"time"

	"github.com/ganot/grantflow/internal/billpay"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// referencePrefix tags Bill-Pay references created by the grant engine.
const referencePrefix = "PHIL"

// NewRequest builds an unsaved, unvalidated scheduled payout for g. Call Validate before
// persisting it.
func NewRequest(g grant.Grant, amount decimal.Decimal, method Method, date time.Time, clientID string) Payout {
	return Payout{
		ID:         uuid.NewString(),
		ClientID:   clientID,
		GrantID:    g.ID,
		EntityID:   g.EntityID,
		Amount:     amount,
		Currency:   g.Currency,
		PayoutDate: date,
		Method:     method,
		Status:     StatusScheduled,
	}
}

// CalculateGrantPaid sums the confirmed payouts of grantID.
func CalculateGrantPaid(payouts []Payout, grantID string) decimal.Decimal {
	return sum(payouts, grantID, func(s Status) bool { return s == StatusConfirmed })
}

// InFlight sums the scheduled and sent payouts of grantID.
func InFlight(payouts []Payout, grantID string) decimal.Decimal {
	return sum(payouts, grantID, func(s Status) bool { return s == StatusScheduled || s == StatusSent })
}

func sum(payouts []Payout, grantID string, include func(Status) bool) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		if p.GrantID == grantID && include(p.Status) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// RemainingToPay is the unpaid part of the approved amount, never negative.
func RemainingToPay(g grant.Grant, payouts []Payout) decimal.Decimal {
	if g.ApprovedAmount == nil {
		return decimal.Zero
	}
	return money.NonNegative(g.ApprovedAmount.Sub(CalculateGrantPaid(payouts, g.ID)))
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Upcoming returns scheduled payouts dated from today through today+days, earliest first.
func Upcoming(payouts []Payout, now time.Time, days int) []Payout {
	today := Day(now)
	end := today.AddDate(0, 0, days)
	var out []Payout
	for _, p := range payouts {
		if p.Status != StatusScheduled {
			continue
		}
		date := Day(p.PayoutDate)
		if !date.Before(today) && !date.After(end) {
			out = append(out, p)
		}
	}
	sortByDate(out)
	return out
}

// Overdue returns scheduled payouts dated before today, earliest first.
func Overdue(payouts []Payout, now time.Time) []Payout {
	today := Day(now)
	var out []Payout
	for _, p := range payouts {
		if p.Status == StatusScheduled && Day(p.PayoutDate).Before(today) {
			out = append(out, p)
		}
	}
	sortByDate(out)
	return out
}

func sortByDate(payouts []Payout) {
	sort.SliceStable(payouts, func(i, j int) bool {
		if !payouts[i].PayoutDate.Equal(payouts[j].PayoutDate) {
			return payouts[i].PayoutDate.Before(payouts[j].PayoutDate)
		}
		return payouts[i].ID < payouts[j].ID
	})
}

// Validate checks p against g and the grant's payout history. history must be the grant's
// real payouts; p itself is ignored if present.
func Validate(p Payout, g grant.Grant, history []Payout) ValidationResult {
	errs := []string{}

	if !p.Amount.IsPositive() {
		errs = append(errs, "amount must be greater than zero")
	}
	if p.PayoutDate.IsZero() {
		errs = append(errs, "payout date is required")
	}
	if !p.Method.Valid() {
		errs = append(errs, fmt.Sprintf("unknown payout method %q", p.Method))
	}
	if p.GrantID != g.ID {
		errs = append(errs, "payout does not belong to grant")
	}
	if g.Stage != grant.StageApproved {
		errs = append(errs, fmt.Sprintf("grant must be approved to schedule payouts (stage %s)", g.Stage))
	}
	if p.Currency != g.Currency {
		errs = append(errs, fmt.Sprintf("currency %s does not match grant currency %s", p.Currency, g.Currency))
	}

	others := make([]Payout, 0, len(history))
	for _, h := range history {
		if h.ID != p.ID {
			others = append(others, h)
		}
	}

	if p.Amount.IsPositive() {
		remaining := RemainingToPay(g, others)
		if p.Amount.GreaterThan(remaining) {
			errs = append(errs, fmt.Sprintf("amount %s exceeds remaining to pay %s",
				money.Format(p.Amount, g.Currency), money.Format(remaining, g.Currency)))
		} else if available := money.NonNegative(remaining.Sub(InFlight(others, g.ID))); p.Amount.GreaterThan(available) {
			errs = append(errs, fmt.Sprintf("amount %s exceeds %s available after scheduled payouts",
				money.Format(p.Amount, g.Currency), money.Format(available, g.Currency)))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Reference is the idempotent Bill-Pay reference of one submission attempt of a payout.
// The first attempt carries no suffix; later attempts append the attempt number so a
// resubmission after a failed payment is not collapsed onto the failed one.
func Reference(grantID, payoutID string, attempt int) string {
	base := fmt.Sprintf("%s-%s-%s", referencePrefix, grantID, payoutID)
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

// BillPayRequestFor maps the next submission attempt of a payout to a Bill-Pay payment
// instruction.
func BillPayRequestFor(p Payout, g grant.Grant) billpay.PaymentRequest {
	return billpay.PaymentRequest{
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        string(p.Method),
		ScheduledDate: Day(p.PayoutDate).Format(time.DateOnly),
		Reference:     Reference(g.ID, p.ID, p.SubmitAttempts+1),
		Payee:         g.GranteeName,
		Memo:          fmt.Sprintf("Grant %s", g.ID),
	}
}

// StatusFromBillPay maps a Bill-Pay payment state onto a payout status. Failed and
// cancelled payments return the payout to scheduled; the next Submit is a new attempt
// under a new reference.
func StatusFromBillPay(s billpay.Status) (Status, bool) {
	switch s {
	case billpay.StatusPending, billpay.StatusProcessing, billpay.StatusSent:
		return StatusSent, true
	case billpay.StatusCompleted:
		return StatusConfirmed, true
	case billpay.StatusFailed, billpay.StatusCancelled:
		return StatusScheduled, true
	}
	return "", false
}
