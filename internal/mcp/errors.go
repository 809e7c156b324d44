package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/grantflow/internal/billpay"
	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
)

var (
	// ErrUnknownMethod is returned for a method or tool name the handler does not serve.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrInvalidParams is returned when arguments cannot be decoded.
	ErrInvalidParams = errors.New("invalid params")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var blocked *grant.BlockedError
	if errors.As(err, &blocked) {
		return &APIError{
			Code:         "TRANSITION_BLOCKED",
			Message:      fmt.Sprintf("cannot move grant from %s to %s", blocked.From, blocked.To),
			Details:      blocked.Blockers,
			RecoveryHint: "Resolve every blocker, then retry; grant_blockers previews them",
		}
	}
	var invalidPayout *payout.ValidationError
	if errors.As(err, &invalidPayout) {
		return &APIError{
			Code:         "PAYOUT_INVALID",
			Message:      "payout failed validation",
			Details:      invalidPayout.Errors,
			RecoveryHint: "Fix the listed problems and resubmit with the same request_id",
		}
	}
	var unpublishable *impact.PublishError
	if errors.As(err, &unpublishable) {
		return &APIError{
			Code:         "NOT_PUBLISHABLE",
			Message:      "report cannot be published",
			Details:      unpublishable.Reasons,
			RecoveryHint: "Submit the report with a narrative and metrics first",
		}
	}

	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error(), RecoveryHint: "List tools to see supported methods"}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check argument names and types"}

	case errors.Is(err, grant.ErrGrantNotFound):
		return &APIError{Code: "GRANT_NOT_FOUND", Message: "grant not found", RecoveryHint: "Check ID spelling or use grant_search"}
	case errors.Is(err, grant.ErrTransitionBlocked):
		return &APIError{Code: "TRANSITION_BLOCKED", Message: err.Error(), RecoveryHint: "Preview blockers with grant_blockers"}
	case errors.Is(err, payout.ErrInvalidPayout):
		return &APIError{Code: "PAYOUT_INVALID", Message: err.Error()}
	case errors.Is(err, grant.ErrNotEditable):
		return &APIError{Code: "GRANT_NOT_EDITABLE", Message: "grant cannot be edited in its current stage", RecoveryHint: "Reopen a rejected grant to draft before editing"}
	case errors.Is(err, grant.ErrInvalidAmount):
		return &APIError{Code: "INVALID_AMOUNT", Message: err.Error(), RecoveryHint: "Amounts must be positive and within the requested amount"}
	case errors.Is(err, compliance.ErrCheckNotFound):
		return &APIError{Code: "CHECK_NOT_FOUND", Message: "compliance check not found", RecoveryHint: "List checks with compliance_list"}
	case errors.Is(err, compliance.ErrNoSanctionsCheck):
		return &APIError{Code: "NO_SANCTIONS_CHECK", Message: err.Error(), RecoveryHint: "Submit the grant first so its checks exist"}
	case errors.Is(err, approval.ErrApprovalNotFound):
		return &APIError{Code: "APPROVAL_NOT_FOUND", Message: "approval not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, approval.ErrAlreadyDecided):
		return &APIError{Code: "ALREADY_DECIDED", Message: err.Error(), RecoveryHint: "Request a new approval instead"}
	case errors.Is(err, budget.ErrBudgetNotFound):
		return &APIError{Code: "BUDGET_NOT_FOUND", Message: "budget not found", RecoveryHint: "Set a ceiling with budget_upsert"}
	case errors.Is(err, payout.ErrPayoutNotFound):
		return &APIError{Code: "PAYOUT_NOT_FOUND", Message: "payout not found", RecoveryHint: "List payouts with payout_list"}
	case errors.Is(err, payout.ErrOverpayment):
		return &APIError{Code: "OVERPAYMENT", Message: err.Error(), RecoveryHint: "Check remaining amount with payout_list"}
	case errors.Is(err, program.ErrProgramNotFound):
		return &APIError{Code: "PROGRAM_NOT_FOUND", Message: "program not found", RecoveryHint: "List programs with program_list"}
	case errors.Is(err, impact.ErrReportNotFound):
		return &APIError{Code: "REPORT_NOT_FOUND", Message: "impact report not found", RecoveryHint: "List reports with impact_list"}
	case errors.Is(err, impact.ErrNotEditable):
		return &APIError{Code: "REPORT_NOT_EDITABLE", Message: err.Error(), RecoveryHint: "Only draft reports can be edited"}
	case errors.Is(err, impact.ErrGrantNotEligible):
		return &APIError{Code: "GRANT_NOT_ELIGIBLE", Message: err.Error(), RecoveryHint: "Approve the grant before reporting on it"}

	case errors.Is(err, payout.ErrInvalidStatusChange), errors.Is(err, impact.ErrInvalidStatusChange):
		return &APIError{Code: "INVALID_STATUS_CHANGE", Message: err.Error(), RecoveryHint: "Fetch the current status and retry"}
	case errors.Is(err, grant.ErrConflict), errors.Is(err, payout.ErrConflict), errors.Is(err, impact.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: err.Error(), RecoveryHint: "Re-read the entity and retry"}

	case errors.Is(err, billpay.ErrNotConfigured):
		return &APIError{Code: "BILLPAY_NOT_CONFIGURED", Message: err.Error(), RecoveryHint: "Record status changes with payout_status instead"}
	case errors.Is(err, billpay.ErrRejected):
		return &APIError{Code: "BILLPAY_REJECTED", Message: err.Error()}
	case errors.Is(err, billpay.ErrUnavailable):
		return &APIError{Code: "BILLPAY_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Retry later; the payout stays scheduled"}

	case errors.Is(err, grant.ErrInvalidInput),
		errors.Is(err, compliance.ErrInvalidInput),
		errors.Is(err, compliance.ErrInvalidDecision),
		errors.Is(err, compliance.ErrMissingReviewer),
		errors.Is(err, approval.ErrInvalidInput),
		errors.Is(err, approval.ErrInvalidDecision),
		errors.Is(err, budget.ErrInvalidInput),
		errors.Is(err, payout.ErrInvalidInput),
		errors.Is(err, program.ErrInvalidInput),
		errors.Is(err, impact.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required fields"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
