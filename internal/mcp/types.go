package mcp

import (
	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/shopspring/decimal"
)

type CreateGrantParams struct {
	EntityID        string           `json:"entity_id"`
	ProgramID       *string          `json:"program_id,omitempty"`
	GranteeName     string           `json:"grantee_name"`
	GranteeCountry  string           `json:"grantee_country,omitempty"`
	Purpose         string           `json:"purpose,omitempty"`
	RequestedAmount decimal.Decimal  `json:"requested_amount"`
	Currency        string           `json:"currency"`
	DocsStatus      grant.DocsStatus `json:"docs_status,omitempty"`
	Actor           string           `json:"actor,omitempty"`
}

type GetGrantParams struct {
	ID string `json:"id"`
}

type ListGrantsParams struct {
	EntityID  string        `json:"entity_id,omitempty"`
	ProgramID *string       `json:"program_id,omitempty"`
	Stages    []grant.Stage `json:"stages,omitempty"`
	Year      int           `json:"year,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}

type SearchGrantsParams struct {
	Query  string        `json:"query"`
	Stages []grant.Stage `json:"stages,omitempty"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

type UpdateGrantParams struct {
	ID              string            `json:"id"`
	ProgramID       *string           `json:"program_id,omitempty"`
	GranteeName     *string           `json:"grantee_name,omitempty"`
	GranteeCountry  *string           `json:"grantee_country,omitempty"`
	Purpose         *string           `json:"purpose,omitempty"`
	RequestedAmount *decimal.Decimal  `json:"requested_amount,omitempty"`
	Currency        *string           `json:"currency,omitempty"`
	DocsStatus      *grant.DocsStatus `json:"docs_status,omitempty"`
	ApprovalIDs     []string          `json:"approval_ids,omitempty"`
	ExpectedVersion *int64            `json:"expected_version,omitempty"`
	Actor           string            `json:"actor,omitempty"`
}

type GrantBlockersParams struct {
	ID      string      `json:"id"`
	ToStage grant.Stage `json:"to_stage"`
}

type TransitionGrantParams struct {
	ID             string           `json:"id"`
	ToStage        grant.Stage      `json:"to_stage"`
	ApprovedAmount *decimal.Decimal `json:"approved_amount,omitempty"`
	Actor          string           `json:"actor,omitempty"`
}

type GrantBlockersResponse struct {
	grant.TransitionResult
	AllowedNext []grant.Stage `json:"allowed_next"`
}

type TransitionGrantResponse struct {
	Grant    *grant.Grant           `json:"grant"`
	Decision grant.TransitionResult `json:"decision"`
}

type ListChecksParams struct {
	GrantID string `json:"grant_id"`
}

type ListChecksResponse struct {
	Checks  []compliance.Check `json:"checks"`
	Summary compliance.Summary `json:"summary"`
}

type ReviewCheckParams struct {
	CheckID        string              `json:"check_id"`
	Decision       compliance.Decision `json:"decision"`
	Reviewer       string              `json:"reviewer"`
	Findings       string              `json:"findings,omitempty"`
	EvidenceDocIDs []string            `json:"evidence_doc_ids,omitempty"`
}

type ScreenGrantParams struct {
	GrantID  string `json:"grant_id"`
	Reviewer string `json:"reviewer,omitempty"`
}

type ScreenGrantResponse struct {
	Check     *compliance.Check          `json:"check"`
	Screening compliance.ScreeningResult `json:"screening"`
}

type RequestApprovalParams struct {
	GrantID  string `json:"grant_id"`
	Approver string `json:"approver"`
	Notes    string `json:"notes,omitempty"`
	Actor    string `json:"actor,omitempty"`
}

type RequestApprovalResponse struct {
	Approval *approval.Approval `json:"approval"`
	Grant    *grant.Grant       `json:"grant"`
}

type DecideApprovalParams struct {
	ID       string          `json:"id"`
	Decision approval.Status `json:"decision"`
	Approver string          `json:"approver"`
	Notes    string          `json:"notes,omitempty"`
}

type UpsertBudgetParams struct {
	EntityID string          `json:"entity_id"`
	Year     int             `json:"year"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Actor    string          `json:"actor,omitempty"`
}

type BudgetSummaryParams struct {
	EntityID string `json:"entity_id"`
	Year     int    `json:"year"`
}

type BudgetForecastParams struct {
	EntityID string `json:"entity_id"`
	Days     int    `json:"days,omitempty"`
}

type CreatePayoutParams struct {
	GrantID string `json:"grant_id"`
	// RequestID defaults to the transport's idempotency key.
	RequestID  string          `json:"request_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     payout.Method   `json:"method"`
	PayoutDate string          `json:"payout_date"`
	Actor      string          `json:"actor,omitempty"`
}

type CreatePayoutResponse struct {
	Payout     *payout.Payout          `json:"payout"`
	Validation payout.ValidationResult `json:"validation"`
}

type PayoutParams struct {
	ID    string `json:"id"`
	Actor string `json:"actor,omitempty"`
}

type PayoutStatusParams struct {
	ID string `json:"id"`
	// Status, when empty, refreshes the payout from Bill-Pay.
	Status payout.Status `json:"status,omitempty"`
	Actor  string        `json:"actor,omitempty"`
}

type ListPayoutsParams struct {
	GrantID string `json:"grant_id"`
}

type UpcomingPayoutsParams struct {
	Days int `json:"days,omitempty"`
}

type CreateProgramParams struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name"`
	Theme       string              `json:"theme,omitempty"`
	Description string              `json:"description,omitempty"`
	KPITargets  []program.KPITarget `json:"kpi_targets,omitempty"`
}

type CreateReportParams struct {
	GrantID   string          `json:"grant_id"`
	Period    string          `json:"period"`
	DueDate   string          `json:"due_date,omitempty"`
	Narrative string          `json:"narrative,omitempty"`
	Metrics   []impact.Metric `json:"metrics,omitempty"`
	Actor     string          `json:"actor,omitempty"`
}

type UpdateReportParams struct {
	ID        string          `json:"id"`
	Narrative *string         `json:"narrative,omitempty"`
	Metrics   []impact.Metric `json:"metrics,omitempty"`
	DueDate   string          `json:"due_date,omitempty"`
}

type ReportParams struct {
	ID    string `json:"id"`
	Actor string `json:"actor,omitempty"`
}

type ListReportsParams struct {
	GrantID   *string         `json:"grant_id,omitempty"`
	ProgramID *string         `json:"program_id,omitempty"`
	Statuses  []impact.Status `json:"statuses,omitempty"`
}

type ReportsDueParams struct {
	Days int `json:"days,omitempty"`
}

type ProgramProgressParams struct {
	ProgramID string `json:"program_id"`
}

type GetRecentActivityParams struct {
	EntityID     string                 `json:"entity_id,omitempty"`
	GrantID      *string                `json:"grant_id,omitempty"`
	ActivityType *activity.ActivityType `json:"activity_type,omitempty"`
	Limit        int                    `json:"limit,omitempty"`
	Offset       int                    `json:"offset,omitempty"`
}
