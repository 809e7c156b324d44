// Package testserver runs the full grantflow HTTP stack against an in-memory database.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/grantflow/internal/billpay"
	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/ganot/grantflow/internal/mcp"
	"github.com/ganot/grantflow/internal/narrative"
	"github.com/ganot/grantflow/internal/sqlite"
	"github.com/ganot/grantflow/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Token    string
	ClientID string
}

// Option customizes the server.
type Option func(*options)

type options struct {
	billpay billpay.Client
}

// WithBillPay routes payout submissions to client instead of the disabled stub.
func WithBillPay(client billpay.Client) Option {
	return func(o *options) { o.billpay = client }
}

func New(t *testing.T, token, clientID string, opts ...Option) *TestServer {
	t.Helper()

	cfg := options{billpay: billpay.Disabled{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	grantRepo := sqlite.NewGrantRepository(db)
	checkRepo := sqlite.NewCheckRepository(db)
	approvalRepo := sqlite.NewApprovalRepository(db)
	payoutRepo := sqlite.NewPayoutRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	grantSvc := grant.NewService(grantRepo, checkRepo, approvalRepo, payoutRepo, activityRepo, sqlite.NewSearchRepository(db), nil)
	programSvc := program.NewService(sqlite.NewProgramRepository(db), nil)
	services := mcp.Services{
		Grants:     grantSvc,
		Compliance: compliance.NewService(checkRepo, grantSvc, grantSvc, nil, activityRepo, nil),
		Approvals:  approval.NewService(approvalRepo, activityRepo, nil),
		Budgets:    budget.NewService(sqlite.NewBudgetRepository(db), sqlite.NewLedgerReader(db), activityRepo, nil),
		Payouts:    payout.NewService(payoutRepo, grantSvc, cfg.billpay, activityRepo, nil),
		Programs:   programSvc,
		Impact:     impact.NewService(sqlite.NewReportRepository(db), grantSvc, programSvc, narrative.TemplateGenerator{}, activityRepo, nil),
		Activity:   activity.NewService(activityRepo, nil),
	}

	keys := sqlite.NewKeyRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services:    services,
		Resolver:    keys,
		AuthEnabled: true,
		Version:     "test",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	server := httptest.NewServer(transport.NewServer(mcp.NewHandler(services, nil), transport.Options{
		Auth: transport.AuthMiddleware(keys),
		MCP:  mcpHandler,
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Token:    token,
		ClientID: clientID,
	}

	require.NoError(t, ts.AddAPIKey(token, clientID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers token for clientID.
func (ts *TestServer) AddAPIKey(token, clientID string) error {
	return sqlite.NewKeyRepository(ts.DB).Add(context.Background(), token, clientID, "test")
}
