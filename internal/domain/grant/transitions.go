package grant

import (
	"fmt"
	"time"

	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/shopspring/decimal"
)

// transitions is the lifecycle graph. rejected -> draft is the only back-edge.
var transitions = map[Stage][]Stage{
	StageDraft:     {StageSubmitted},
	StageSubmitted: {StageInReview, StageRejected},
	StageInReview:  {StageApproved, StageRejected},
	StageApproved:  {StagePaid, StageRejected},
	StageRejected:  {StageDraft},
	StagePaid:      {StageClosed},
	StageClosed:    {},
}

// AllowedTransitions returns the successors of stage. Unknown stages have none.
func AllowedTransitions(stage Stage) []Stage {
	next := transitions[stage]
	out := make([]Stage, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether to is a successor of from in the lifecycle graph.
func CanTransition(from, to Stage) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionBlockers lists, in a stable order, every reason g can't move to target.
// An empty list means the transition is permitted.
func TransitionBlockers(g Grant, target Stage, checks []compliance.Check, approvals []approval.Approval) []string {
	if !CanTransition(g.Stage, target) {
		return []string{fmt.Sprintf("transition from %s to %s is not allowed", g.Stage, target)}
	}

	blockers := []string{}
	switch target {
	case StageSubmitted:
		if !g.RequestedAmount.IsPositive() {
			blockers = append(blockers, "requested amount must be greater than zero")
		}
	case StageApproved:
		own := compliance.ForGrant(checks, g.ID)
		if len(own) == 0 {
			blockers = append(blockers, "no compliance checks recorded")
		}
		counts := compliance.CalculateSummary(own).Counts
		if counts.Open > 0 {
			blockers = append(blockers, fmt.Sprintf("%d compliance checks not completed", counts.Open))
		}
		if counts.Flagged > 0 {
			blockers = append(blockers, fmt.Sprintf("%d compliance checks flagged", counts.Flagged))
		}
		signoffs := approval.Summarize(approvals, g.ApprovalIDs)
		if signoffs.Pending > 0 {
			blockers = append(blockers, fmt.Sprintf("%d approvals pending", signoffs.Pending))
		}
		if signoffs.Rejected > 0 {
			blockers = append(blockers, fmt.Sprintf("%d approvals rejected", signoffs.Rejected))
		}
		if g.DocsStatus != DocsComplete {
			blockers = append(blockers, fmt.Sprintf("documents are not complete (status %s)", docsLabel(g.DocsStatus)))
		}
	case StagePaid:
		if g.ApprovedAmount == nil || !g.ApprovedAmount.IsPositive() {
			blockers = append(blockers, "approved amount must be set and positive")
		}
	case StageDraft, StageInReview, StageRejected, StageClosed:
	}
	return blockers
}

func docsLabel(d DocsStatus) string {
	if d == "" {
		return "unset"
	}
	return string(d)
}

// PayoutTotals summarises the payouts recorded against a grant.
type PayoutTotals struct {
	Confirmed      decimal.Decimal
	ConfirmedCount int
	// InFlight covers scheduled and sent payouts.
	InFlight      decimal.Decimal
	InFlightCount int
}

// PayoutBlockers lists the reasons a grant's payouts prevent the move to target. A grant
// with confirmed or in-flight payouts can't be rejected, and an approval can't fix an
// amount below what has already been confirmed. approvedAmount is the amount requested
// for the approval; nil means the requested amount.
func PayoutBlockers(g Grant, target Stage, approvedAmount *decimal.Decimal, totals PayoutTotals) []string {
	if !CanTransition(g.Stage, target) {
		return nil
	}

	var blockers []string
	switch target {
	case StageRejected:
		if totals.ConfirmedCount > 0 {
			blockers = append(blockers, fmt.Sprintf("%d payouts already confirmed", totals.ConfirmedCount))
		}
		if totals.InFlightCount > 0 {
			blockers = append(blockers, fmt.Sprintf("%d payouts scheduled or sent", totals.InFlightCount))
		}
	case StageApproved:
		amount := g.RequestedAmount
		if approvedAmount != nil {
			amount = *approvedAmount
		}
		if totals.ConfirmedCount > 0 && amount.LessThan(totals.Confirmed) {
			blockers = append(blockers, fmt.Sprintf("approved amount %s is below confirmed payouts %s",
				amount.StringFixed(2), totals.Confirmed.StringFixed(2)))
		}
	case StageDraft, StageSubmitted, StageInReview, StagePaid, StageClosed:
	}
	return blockers
}

// WithBlockers folds extra blockers into a decision. A decision that gains blockers is refused
// and keeps the grant in its current stage.
func WithBlockers(result TransitionResult, extra []string) TransitionResult {
	if len(extra) == 0 {
		return result
	}
	blockers := make([]string, 0, len(result.Blockers)+len(extra))
	blockers = append(blockers, result.Blockers...)
	blockers = append(blockers, extra...)
	return TransitionResult{Allowed: false, From: result.From, Stage: result.From, Blockers: blockers}
}

// TransitionGrant decides whether g may move to target. It never mutates g.
func TransitionGrant(g Grant, target Stage, checks []compliance.Check, approvals []approval.Approval) TransitionResult {
	blockers := TransitionBlockers(g, target, checks, approvals)
	if len(blockers) > 0 {
		return TransitionResult{Allowed: false, From: g.Stage, Stage: g.Stage, Blockers: blockers}
	}
	return TransitionResult{Allowed: true, From: g.Stage, Stage: target, Blockers: blockers}
}

// Apply returns the grant that results from an allowed transition. Entering approved fixes
// the approved amount (approvedAmount when given, else the requested amount); entering
// rejected or draft clears it.
func Apply(g Grant, result TransitionResult, approvedAmount *decimal.Decimal, now time.Time) (Grant, error) {
	if !result.Allowed {
		return g, &BlockedError{From: g.Stage, To: result.Stage, Blockers: result.Blockers}
	}
	if result.From != g.Stage {
		return g, ErrConflict
	}

	next := g
	next.Stage = result.Stage
	switch result.Stage {
	case StageApproved:
		amount := g.RequestedAmount
		if approvedAmount != nil {
			amount = *approvedAmount
		}
		if !amount.IsPositive() {
			return g, ErrInvalidAmount
		}
		next.ApprovedAmount = &amount
	case StageRejected, StageDraft:
		next.ApprovedAmount = nil
	case StageSubmitted, StageInReview, StagePaid, StageClosed:
	}
	next.UpdatedAt = now

	if err := CheckApprovedAmountInvariant(next); err != nil {
		return g, err
	}
	return next, nil
}

// CheckApprovedAmountInvariant verifies the approved amount is set exactly in the stages
// that hold one.
func CheckApprovedAmountInvariant(g Grant) error {
	has := g.ApprovedAmount != nil
	if has != g.Stage.HoldsApprovedAmount() {
		return fmt.Errorf("%w: stage %s with approved amount set=%t", ErrInvalidAmount, g.Stage, has)
	}
	return nil
}
