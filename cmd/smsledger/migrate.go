package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate automatically; use --status to inspect the
schema without changing it.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	dbPath := config.ExpandPath(viper.GetString("database.path"))
	slog.Debug("Opening database", "database", dbPath, "status_only", statusOnly)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusOnly {
		fmt.Fprintln(out, cli.LabelStyle.Render("Database")+dbPath)
		fmt.Fprintln(out, cli.LabelStyle.Render("Current")+fmt.Sprint(current))
		fmt.Fprintln(out, cli.LabelStyle.Render("Latest")+fmt.Sprint(storage.ExpectedSchemaVersion))
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning("Migrations pending"))
		}
		return nil
	}

	if current == storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database is up to date (version %d)", current)))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated database from version %d to %d", current, storage.ExpectedSchemaVersion)))
	return nil
}
