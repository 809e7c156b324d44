package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	version = "dev"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grantflow",
		Short: "Grant lifecycle engine for family-office philanthropy",
		Long: `grantflow tracks grants from draft to close: compliance checks, approvals,
budget headroom, payouts and impact reports. It serves MCP tools over stdio or HTTP and a
JSON-RPC endpoint at /rpc.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if cfgFile != "" {
				return os.Setenv("GRANTFLOW_CONFIG_PATH", cfgFile)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $GRANTFLOW_CONFIG_PATH)")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(keysCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
