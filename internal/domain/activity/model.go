package activity

import "time"

// ActivityType represents the type of workflow event
type ActivityType string

const (
	TypeGrantCreated        ActivityType = "grant_created"
	TypeGrantUpdated        ActivityType = "grant_updated"
	TypeStageTransition     ActivityType = "stage_transition"
	TypeTransitionBlocked   ActivityType = "transition_blocked"
	TypeCheckReviewed       ActivityType = "check_reviewed"
	TypeSanctionsScreened   ActivityType = "sanctions_screened"
	TypeApprovalRequested   ActivityType = "approval_requested"
	TypeApprovalDecided     ActivityType = "approval_decided"
	TypeBudgetSet           ActivityType = "budget_set"
	TypePayoutCreated       ActivityType = "payout_created"
	TypePayoutSubmitted     ActivityType = "payout_submitted"
	TypePayoutStatusChanged ActivityType = "payout_status_changed"
	TypeReportSubmitted     ActivityType = "report_submitted"
	TypeReportPublished     ActivityType = "report_published"
)

// ActivityEntry represents an event in the audit log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ClientID     string       `json:"client_id"`
	EntityID     string       `json:"entity_id,omitempty"`
	GrantID      *string      `json:"grant_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Actor        string       `json:"actor,omitempty"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
