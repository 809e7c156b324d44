package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/grantflow/internal/billpay"
	"github.com/ganot/grantflow/internal/config"
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
	"github.com/ganot/grantflow/internal/telemetry"
	"github.com/ganot/grantflow/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools over http or stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Transport.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&mode, "transport", "", "transport mode (http, stdio); overrides config")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	shutdownTracing, err := telemetry.Setup(ctx, "grantflow", cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	services, err := buildServices(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	keys := sqlite.NewKeyRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services:        services,
		Resolver:        keys,
		AuthEnabled:     cfg.Auth.Enabled,
		DefaultClientID: cfg.Auth.DefaultClientID,
		TransportMode:   cfg.Transport.Mode,
		Version:         version,
		Logger:          logger,
	})

	if cfg.Transport.Mode == config.TransportStdio {
		return runStdio(ctx, logger, mcpServer)
	}

	auth := transport.StaticClient(cfg.Auth.DefaultClientID)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(keys)
	}
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)
	router := transport.NewServer(mcp.NewHandler(services, logger), transport.Options{
		Auth:   auth,
		MCP:    mcpHandler,
		Logger: logger,
	})
	return runHTTP(ctx, logger, router, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
}

func buildServices(ctx context.Context, cfg config.Config, db *sqlite.DB, logger *slog.Logger) (mcp.Services, error) {
	grantRepo := sqlite.NewGrantRepository(db)
	checkRepo := sqlite.NewCheckRepository(db)
	approvalRepo := sqlite.NewApprovalRepository(db)
	budgetRepo := sqlite.NewBudgetRepository(db)
	payoutRepo := sqlite.NewPayoutRepository(db)
	programRepo := sqlite.NewProgramRepository(db)
	reportRepo := sqlite.NewReportRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	searchRepo := sqlite.NewSearchRepository(db)
	ledger := sqlite.NewLedgerReader(db)

	payments, err := newBillPay(cfg, logger)
	if err != nil {
		return mcp.Services{}, err
	}
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return mcp.Services{}, err
	}

	grantSvc := grant.NewService(grantRepo, checkRepo, approvalRepo, payoutRepo, activityRepo, searchRepo, logger)
	programSvc := program.NewService(programRepo, logger)

	return mcp.Services{
		Grants:     grantSvc,
		Compliance: compliance.NewService(checkRepo, grantSvc, grantSvc, nil, activityRepo, logger),
		Approvals:  approval.NewService(approvalRepo, activityRepo, logger),
		Budgets:    budget.NewService(budgetRepo, ledger, activityRepo, logger),
		Payouts:    payout.NewService(payoutRepo, grantSvc, payments, activityRepo, logger),
		Programs:   programSvc,
		Impact:     impact.NewService(reportRepo, grantSvc, programSvc, generator, activityRepo, logger),
		Activity:   activity.NewService(activityRepo, logger),
	}, nil
}

func newBillPay(cfg config.Config, logger *slog.Logger) (billpay.Client, error) {
	if cfg.BillPay.URL == "" {
		logger.Info("bill-pay not configured; payouts are tracked manually")
		return billpay.Disabled{}, nil
	}
	client, err := billpay.NewHTTPClient(billpay.Config{
		BaseURL:    cfg.BillPay.URL,
		Token:      cfg.BillPay.Token,
		Timeout:    cfg.BillPay.Timeout,
		MaxRetries: cfg.BillPay.MaxRetries,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create bill-pay client: %w", err)
	}
	return client, nil
}

func newGenerator(ctx context.Context, cfg config.Config) (narrative.Generator, error) {
	if cfg.Narrative.Provider != config.NarrativeGemini {
		return narrative.TemplateGenerator{}, nil
	}
	gen, err := narrative.NewGeminiGenerator(ctx, cfg.Narrative.Model)
	if err != nil {
		return nil, fmt.Errorf("create narrative generator: %w", err)
	}
	return gen, nil
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, handler http.Handler, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
