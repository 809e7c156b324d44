package grant

import (
	"time"

	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/shopspring/decimal"
)

// Stage represents the lifecycle stage of a grant
type Stage string

const (
	StageDraft     Stage = "draft"
	StageSubmitted Stage = "submitted"
	StageInReview  Stage = "in_review"
	StageApproved  Stage = "approved"
	StageRejected  Stage = "rejected"
	StagePaid      Stage = "paid"
	StageClosed    Stage = "closed"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{StageDraft, StageSubmitted, StageInReview, StageApproved, StageRejected, StagePaid, StageClosed}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageDraft, StageSubmitted, StageInReview, StageApproved, StageRejected, StagePaid, StageClosed:
		return true
	}
	return false
}

// HoldsApprovedAmount reports whether a grant in stage s must carry an approved amount.
func (s Stage) HoldsApprovedAmount() bool {
	switch s {
	case StageApproved, StagePaid, StageClosed:
		return true
	}
	return false
}

// DocsStatus tracks supporting documentation for a grant.
type DocsStatus string

const (
	DocsPending    DocsStatus = "pending"
	DocsIncomplete DocsStatus = "incomplete"
	DocsComplete   DocsStatus = "complete"
)

// Valid reports whether d is a known docs status.
func (d DocsStatus) Valid() bool {
	switch d {
	case DocsPending, DocsIncomplete, DocsComplete:
		return true
	}
	return false
}

// Grant is a charitable award moving through the lifecycle.
type Grant struct {
	ID               string                 `json:"id"`
	ClientID         string                 `json:"client_id"`
	EntityID         string                 `json:"entity_id"`
	ProgramID        *string                `json:"program_id,omitempty"`
	GranteeName      string                 `json:"grantee_name"`
	GranteeCountry   string                 `json:"grantee_country,omitempty"`
	Purpose          string                 `json:"purpose,omitempty"`
	RequestedAmount  decimal.Decimal        `json:"requested_amount"`
	ApprovedAmount   *decimal.Decimal       `json:"approved_amount,omitempty"`
	Currency         string                 `json:"currency"`
	Stage            Stage                  `json:"stage"`
	ComplianceStatus compliance.GrantStatus `json:"compliance_status"`
	DocsStatus       DocsStatus             `json:"docs_status"`
	ApprovalIDs      []string               `json:"approval_ids"`
	Version          int64                  `json:"version"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// TransitionResult is the decision for a requested stage change.
type TransitionResult struct {
	Allowed  bool     `json:"allowed"`
	From     Stage    `json:"from"`
	Stage    Stage    `json:"stage"`
	Blockers []string `json:"blockers"`
}

// SearchResult is a full-text hit over grantee and purpose.
type SearchResult struct {
	Grant   Grant   `json:"grant"`
	Rank    float64 `json:"rank"`
	Snippet string  `json:"snippet,omitempty"`
}
