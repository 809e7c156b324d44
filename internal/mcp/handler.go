package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
)

const (
	defaultForecastDays = 90
	defaultUpcomingDays = 30
)

// Handler dispatches MCP commands.
type Handler struct {
	svc    Services
	logger *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Handle dispatches a method to domain services. idempotencyKey is the transport-level request
// key; payout creation uses it when the arguments carry no request_id.
func (h *Handler) Handle(ctx context.Context, clientID, idempotencyKey, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, clientID, idempotencyKey, method, params)
	if err != nil {
		if h.logger != nil && MapError(err) == nil {
			h.logger.Error("tool failed", "method", method, "client_id", clientID, "error", err)
		}
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, clientID, idempotencyKey, method string, params json.RawMessage) (any, error) {
	switch method {
	// Grants
	case "grant_create":
		var req CreateGrantParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Grants.Create(ctx, clientID, grant.CreateRequest{
			EntityID:        req.EntityID,
			ProgramID:       req.ProgramID,
			GranteeName:     req.GranteeName,
			GranteeCountry:  req.GranteeCountry,
			Purpose:         req.Purpose,
			RequestedAmount: req.RequestedAmount,
			Currency:        req.Currency,
			DocsStatus:      req.DocsStatus,
			Actor:           actorOr(req.Actor, clientID),
		})
	case "grant_get":
		var req GetGrantParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Grants.Get(ctx, clientID, req.ID)
	case "grant_list":
		var req ListGrantsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Grants.List(ctx, clientID, grant.ListOptions{
			EntityID:  req.EntityID,
			ProgramID: req.ProgramID,
			Stages:    req.Stages,
			Year:      req.Year,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
	case "grant_search":
		var req SearchGrantsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Grants.Search(ctx, clientID, req.Query, grant.SearchOptions{
			Stages: req.Stages,
			Limit:  req.Limit,
			Offset: req.Offset,
		})
	case "grant_update":
		var req UpdateGrantParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Grants.Update(ctx, clientID, grant.UpdateRequest{
			ID:              req.ID,
			ProgramID:       req.ProgramID,
			GranteeName:     req.GranteeName,
			GranteeCountry:  req.GranteeCountry,
			Purpose:         req.Purpose,
			RequestedAmount: req.RequestedAmount,
			Currency:        req.Currency,
			DocsStatus:      req.DocsStatus,
			ApprovalIDs:     req.ApprovalIDs,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actorOr(req.Actor, clientID),
		})
	case "grant_blockers":
		var req GrantBlockersParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		result, err := h.svc.Grants.Blockers(ctx, clientID, req.ID, req.ToStage)
		if err != nil {
			return nil, err
		}
		return GrantBlockersResponse{
			TransitionResult: result,
			AllowedNext:      grant.AllowedTransitions(result.From),
		}, nil
	case "grant_transition":
		var req TransitionGrantParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		g, result, err := h.svc.Grants.Transition(ctx, clientID, grant.TransitionRequest{
			ID:             req.ID,
			ToStage:        req.ToStage,
			ApprovedAmount: req.ApprovedAmount,
			Actor:          actorOr(req.Actor, clientID),
		})
		if err != nil {
			return nil, err
		}
		return TransitionGrantResponse{Grant: g, Decision: result}, nil

	// Compliance
	case "compliance_list":
		var req ListChecksParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		checks, summary, err := h.svc.Compliance.ListForGrant(ctx, clientID, req.GrantID)
		if err != nil {
			return nil, err
		}
		if checks == nil {
			checks = []compliance.Check{}
		}
		return ListChecksResponse{Checks: checks, Summary: summary}, nil
	case "compliance_review":
		var req ReviewCheckParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Compliance.Review(ctx, clientID, compliance.ReviewRequest{
			CheckID:        req.CheckID,
			Decision:       req.Decision,
			Reviewer:       req.Reviewer,
			Findings:       req.Findings,
			EvidenceDocIDs: req.EvidenceDocIDs,
		})
	case "compliance_screen":
		var req ScreenGrantParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		check, screening, err := h.svc.Compliance.Screen(ctx, clientID, req.GrantID, actorOr(req.Reviewer, clientID))
		if err != nil {
			return nil, err
		}
		return ScreenGrantResponse{Check: check, Screening: screening}, nil

	// Approvals
	case "approval_request":
		var req RequestApprovalParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.requestApproval(ctx, clientID, req)
	case "approval_decide":
		var req DecideApprovalParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Approvals.Decide(ctx, clientID, approval.DecideInput{
			ID:       req.ID,
			Decision: req.Decision,
			Approver: req.Approver,
			Notes:    req.Notes,
		})

	// Budgets
	case "budget_upsert":
		var req UpsertBudgetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Budgets.Upsert(ctx, clientID, budget.UpsertRequest{
			EntityID: req.EntityID,
			Year:     req.Year,
			Amount:   req.Amount,
			Currency: req.Currency,
			Actor:    actorOr(req.Actor, clientID),
		})
	case "budget_summary":
		var req BudgetSummaryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Year == 0 {
			req.Year = time.Now().Year()
		}
		return h.svc.Budgets.Summary(ctx, clientID, req.EntityID, req.Year)
	case "budget_forecast":
		var req BudgetForecastParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Days == 0 {
			req.Days = defaultForecastDays
		}
		return h.svc.Budgets.Forecast(ctx, clientID, req.EntityID, req.Days)

	// Payouts
	case "payout_create":
		var req CreatePayoutParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		date, err := parseDate("payout_date", req.PayoutDate)
		if err != nil {
			return nil, err
		}
		requestID := req.RequestID
		if requestID == "" {
			requestID = idempotencyKey
		}
		p, validation, err := h.svc.Payouts.Create(ctx, clientID, payout.CreateRequest{
			GrantID:    req.GrantID,
			RequestID:  requestID,
			Amount:     req.Amount,
			Method:     req.Method,
			PayoutDate: date,
			Actor:      actorOr(req.Actor, clientID),
		})
		if err != nil {
			return nil, err
		}
		return CreatePayoutResponse{Payout: p, Validation: validation}, nil
	case "payout_get":
		var req PayoutParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Payouts.Get(ctx, clientID, req.ID)
	case "payout_submit":
		var req PayoutParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Payouts.Submit(ctx, clientID, req.ID, actorOr(req.Actor, clientID))
	case "payout_status":
		var req PayoutStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Status == "" {
			return h.svc.Payouts.Sync(ctx, clientID, req.ID, actorOr(req.Actor, clientID))
		}
		return h.svc.Payouts.ApplyStatus(ctx, clientID, payout.StatusUpdate{
			PayoutID: req.ID,
			Status:   req.Status,
			Actor:    actorOr(req.Actor, clientID),
		})
	case "payout_list":
		var req ListPayoutsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Payouts.ListForGrant(ctx, clientID, req.GrantID)
	case "payout_upcoming":
		var req UpcomingPayoutsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Days == 0 {
			req.Days = defaultUpcomingDays
		}
		return nonNil(h.svc.Payouts.Upcoming(ctx, clientID, req.Days))
	case "payout_overdue":
		return nonNil(h.svc.Payouts.Overdue(ctx, clientID))

	// Programs
	case "program_create":
		var req CreateProgramParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Programs.Create(ctx, clientID, program.CreateRequest{
			ID:          req.ID,
			Name:        req.Name,
			Theme:       req.Theme,
			Description: req.Description,
			KPITargets:  req.KPITargets,
		})
	case "program_list":
		return nonNil(h.svc.Programs.List(ctx, clientID))

	// Impact
	case "impact_create":
		var req CreateReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		due, err := parseOptionalDate("due_date", req.DueDate)
		if err != nil {
			return nil, err
		}
		return h.svc.Impact.Create(ctx, clientID, impact.CreateRequest{
			GrantID:   req.GrantID,
			Period:    req.Period,
			DueDate:   due,
			Narrative: req.Narrative,
			Metrics:   req.Metrics,
			Actor:     actorOr(req.Actor, clientID),
		})
	case "impact_update":
		var req UpdateReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		due, err := parseOptionalDate("due_date", req.DueDate)
		if err != nil {
			return nil, err
		}
		return h.svc.Impact.Update(ctx, clientID, impact.UpdateRequest{
			ID:        req.ID,
			Narrative: req.Narrative,
			Metrics:   req.Metrics,
			DueDate:   due,
		})
	case "impact_submit":
		var req ReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Impact.Submit(ctx, clientID, req.ID, actorOr(req.Actor, clientID))
	case "impact_publish":
		var req ReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Impact.Publish(ctx, clientID, req.ID, actorOr(req.Actor, clientID))
	case "impact_list":
		var req ListReportsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return nonNil(h.svc.Impact.List(ctx, clientID, impact.ListOptions{
			GrantID:   req.GrantID,
			ProgramID: req.ProgramID,
			Statuses:  req.Statuses,
		}))
	case "impact_due":
		var req ReportsDueParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Days == 0 {
			req.Days = defaultUpcomingDays
		}
		return nonNil(h.svc.Impact.Due(ctx, clientID, req.Days))
	case "impact_progress":
		var req ProgramProgressParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Impact.ProgramProgress(ctx, clientID, req.ProgramID)
	case "impact_draft_narrative":
		var req ReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Impact.DraftNarrative(ctx, clientID, req.ID)

	// Activity
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return nonNil(h.svc.Activity.GetRecentActivity(ctx, clientID, activity.ListActivityOptions{
			EntityID:     req.EntityID,
			GrantID:      req.GrantID,
			ActivityType: req.ActivityType,
			Limit:        req.Limit,
			Offset:       req.Offset,
		}))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// requestApproval creates a pending approval and attaches it to the grant's required set.
// A grant past review is refused before any approval is created. If attaching still fails,
// the error names the unattached approval.
func (h *Handler) requestApproval(ctx context.Context, clientID string, req RequestApprovalParams) (*RequestApprovalResponse, error) {
	g, err := h.svc.Grants.Get(ctx, clientID, req.GrantID)
	if err != nil {
		return nil, err
	}
	if !grant.ReviewEditable(g.Stage) {
		return nil, fmt.Errorf("%w: grant is %s", grant.ErrNotEditable, g.Stage)
	}
	a, err := h.svc.Approvals.Request(ctx, clientID, approval.RequestInput{
		Approver: req.Approver,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	version := g.Version
	updated, err := h.svc.Grants.Update(ctx, clientID, grant.UpdateRequest{
		ID:              g.ID,
		ApprovalIDs:     append(slices.Clone(g.ApprovalIDs), a.ID),
		ExpectedVersion: &version,
		Actor:           actorOr(req.Actor, clientID),
	})
	if err != nil {
		return nil, fmt.Errorf("attaching approval %s (left unattached): %w", a.ID, err)
	}
	return &RequestApprovalResponse{Approval: a, Grant: updated}, nil
}

// Methods returns the names Handle dispatches, in catalog order.
func (h *Handler) Methods() []string {
	catalog := buildToolCatalog()
	names := make([]string, 0, len(catalog))
	for _, def := range catalog {
		names = append(names, def.Name)
	}
	return names
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidParams, field)
	}
	return t, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func actorOr(actor, fallback string) string {
	if strings.TrimSpace(actor) == "" {
		return fallback
	}
	return actor
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](list []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []T{}, nil
	}
	return list, nil
}
