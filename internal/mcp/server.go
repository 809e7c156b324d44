package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ganot/grantflow/internal/config"
	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/ganot/grantflow/internal/narrative"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// GrantService defines grant operations needed by MCP.
type GrantService interface {
	Create(ctx context.Context, clientID string, req grant.CreateRequest) (*grant.Grant, error)
	Get(ctx context.Context, clientID, id string) (*grant.Grant, error)
	List(ctx context.Context, clientID string, opts grant.ListOptions) ([]grant.Grant, error)
	Search(ctx context.Context, clientID, query string, opts grant.SearchOptions) ([]grant.SearchResult, error)
	Update(ctx context.Context, clientID string, req grant.UpdateRequest) (*grant.Grant, error)
	Blockers(ctx context.Context, clientID, id string, target grant.Stage) (grant.TransitionResult, error)
	Transition(ctx context.Context, clientID string, req grant.TransitionRequest) (*grant.Grant, grant.TransitionResult, error)
}

// ComplianceService defines compliance operations needed by MCP.
type ComplianceService interface {
	ListForGrant(ctx context.Context, clientID, grantID string) ([]compliance.Check, compliance.Summary, error)
	Review(ctx context.Context, clientID string, req compliance.ReviewRequest) (*compliance.Check, error)
	Screen(ctx context.Context, clientID, grantID, reviewer string) (*compliance.Check, compliance.ScreeningResult, error)
}

// ApprovalService defines approval operations needed by MCP.
type ApprovalService interface {
	Request(ctx context.Context, clientID string, in approval.RequestInput) (*approval.Approval, error)
	Decide(ctx context.Context, clientID string, in approval.DecideInput) (*approval.Approval, error)
}

// BudgetService defines budget operations needed by MCP.
type BudgetService interface {
	Upsert(ctx context.Context, clientID string, req budget.UpsertRequest) (*budget.Budget, error)
	Summary(ctx context.Context, clientID, entityID string, year int) (*budget.Summary, error)
	Forecast(ctx context.Context, clientID, entityID string, days int) (*budget.Forecast, error)
}

// PayoutService defines payout operations needed by MCP.
type PayoutService interface {
	Create(ctx context.Context, clientID string, req payout.CreateRequest) (*payout.Payout, payout.ValidationResult, error)
	Submit(ctx context.Context, clientID, payoutID, actor string) (*payout.Payout, error)
	ApplyStatus(ctx context.Context, clientID string, update payout.StatusUpdate) (*payout.Payout, error)
	Sync(ctx context.Context, clientID, payoutID, actor string) (*payout.Payout, error)
	Get(ctx context.Context, clientID, id string) (*payout.Payout, error)
	ListForGrant(ctx context.Context, clientID, grantID string) (*payout.GrantPayouts, error)
	Upcoming(ctx context.Context, clientID string, days int) ([]payout.Payout, error)
	Overdue(ctx context.Context, clientID string) ([]payout.Payout, error)
}

// ProgramService defines program operations needed by MCP.
type ProgramService interface {
	Create(ctx context.Context, clientID string, req program.CreateRequest) (*program.Program, error)
	List(ctx context.Context, clientID string) ([]program.Program, error)
}

// ImpactService defines impact reporting operations needed by MCP.
type ImpactService interface {
	Create(ctx context.Context, clientID string, req impact.CreateRequest) (*impact.Report, error)
	Update(ctx context.Context, clientID string, req impact.UpdateRequest) (*impact.Report, error)
	Submit(ctx context.Context, clientID, id, actor string) (*impact.Report, error)
	Publish(ctx context.Context, clientID, id, actor string) (*impact.Report, error)
	List(ctx context.Context, clientID string, opts impact.ListOptions) ([]impact.Report, error)
	Due(ctx context.Context, clientID string, days int) ([]impact.Report, error)
	ProgramProgress(ctx context.Context, clientID, programID string) (*impact.Progress, error)
	DraftNarrative(ctx context.Context, clientID, reportID string) (*narrative.Draft, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, clientID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Grants     GrantService
	Compliance ComplianceService
	Approvals  ApprovalService
	Budgets    BudgetService
	Payouts    PayoutService
	Programs   ProgramService
	Impact     ImpactService
	Activity   ActivityService
}

// Config contains server configuration.
type Config struct {
	Services        Services
	Resolver        ClientResolver
	AuthEnabled     bool
	DefaultClientID string
	TransportMode   string
	Version         string
	Logger          *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "grantflow",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	defaultClient := cfg.DefaultClientID
	if defaultClient == "" {
		defaultClient = "default"
	}
	// Stdio is local and single-user; it never authenticates.
	if cfg.TransportMode != config.TransportStdio && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(defaultClient))
	}
	server.AddReceivingMiddleware(idempotencyMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.Logger))

	return server
}

// registerTools exposes every catalog entry as an SDK tool backed by the handler.
func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, getClientID(ctx), getIdempotencyKey(ctx), name, args)
			if err != nil {
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports a failure inside the tool result so the model can read the code and hint.
func toolError(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, marshalErr := json.Marshal(apiErr)
	if marshalErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
