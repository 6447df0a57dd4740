package commands

import (
	"fmt"

	"github.com/benvon/newsfeed/internal/config"
	"github.com/benvon/newsfeed/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command with up and status subcommands.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  "Apply the embedded schema migrations or report the applied version.",
	}
	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
			return printSchemaVersion(cmd, cfg.DatabaseURL)
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return printSchemaVersion(cmd, cfg.DatabaseURL)
		},
	}
}

func printSchemaVersion(cmd *cobra.Command, databaseURL string) error {
	version, dirty, err := database.SchemaVersion(databaseURL)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if version == 0 {
		fmt.Fprintln(out, "No migrations applied")
		return nil
	}
	fmt.Fprintf(out, "Schema version: %d\n", version)
	if dirty {
		fmt.Fprintln(out, "Warning: schema is dirty, a migration failed part way")
	}
	return nil
}
