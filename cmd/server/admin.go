package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ganot/grantflow/internal/config"
	"github.com/ganot/grantflow/internal/sqlite"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.DB.Path)
			return nil
		},
	}
}

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(keysAddCmd())
	return cmd
}

func keysAddCmd() *cobra.Command {
	var (
		clientID    string
		description string
		token       string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an API key for a client",
		Long: `Create an API key for a client. The key is printed once; only its hash is stored.
Pass --token to register a known value instead of generating one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clientID == "" {
				return fmt.Errorf("--client is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			keys := sqlite.NewKeyRepository(db)
			if token != "" {
				if err := keys.Add(cmd.Context(), token, clientID, description); err != nil {
					return fmt.Errorf("add key: %w", err)
				}
			} else {
				token, err = keys.Generate(cmd.Context(), clientID, description)
				if err != nil {
					return fmt.Errorf("generate key: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "client id the key authenticates as")
	cmd.Flags().StringVar(&description, "description", "", "free-form note stored with the key")
	cmd.Flags().StringVar(&token, "token", "", "use this token instead of generating one")
	return cmd
}

// openDB opens the database at path and applies migrations.
func openDB(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
