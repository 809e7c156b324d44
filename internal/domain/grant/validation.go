package grant

import (
	"strings"

	"github.com/ganot/grantflow/internal/money"
)

// ValidateCreateInput validates fields required to create a grant.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.EntityID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(req.GranteeName) == "" {
		return ErrInvalidInput
	}
	if req.RequestedAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := money.ValidateCurrency(req.Currency); err != nil {
		return ErrInvalidInput
	}
	if req.DocsStatus != "" && !req.DocsStatus.Valid() {
		return ErrInvalidInput
	}
	return nil
}

// ReviewEditable reports whether documentation status and approval references can still
// change in stage.
func ReviewEditable(stage Stage) bool {
	switch stage {
	case StageDraft, StageSubmitted, StageInReview, StageRejected:
		return true
	}
	return false
}

// ValidateUpdateInput checks an update against the grant's current stage. Financial and
// grantee fields are editable only in draft; documentation and approval references until
// the grant is approved.
func ValidateUpdateInput(current Grant, req UpdateRequest) error {
	financial := req.RequestedAmount != nil || req.Currency != nil || req.GranteeName != nil ||
		req.GranteeCountry != nil || req.Purpose != nil || req.ProgramID != nil
	if financial && current.Stage != StageDraft {
		return ErrNotEditable
	}
	review := req.DocsStatus != nil || req.ApprovalIDs != nil
	if review && !ReviewEditable(current.Stage) {
		return ErrNotEditable
	}
	if req.RequestedAmount != nil && req.RequestedAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if req.Currency != nil {
		if err := money.ValidateCurrency(*req.Currency); err != nil {
			return ErrInvalidInput
		}
	}
	if req.GranteeName != nil && strings.TrimSpace(*req.GranteeName) == "" {
		return ErrInvalidInput
	}
	if req.DocsStatus != nil && !req.DocsStatus.Valid() {
		return ErrInvalidInput
	}
	return nil
}
