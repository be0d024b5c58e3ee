package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/internal/iocache"
	"github.com/huangsam/tagchurn/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsBackend resolves the run store backend for management commands.
// Unlike churn, an unset backend means the default SQLite file.
func runsBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend, err := contract.ParseBackend(viper.GetString("runs-backend"))
	if err != nil {
		return "", "", err
	}
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	connStr := viper.GetString("runs-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup opens only the run store.
func runsSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := runsBackend()
	if err != nil {
		return err
	}
	if err := iocache.InitCaching("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsCmd manages stored churn runs.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded churn runs",
	Long: `Inspect, export or remove churn runs recorded with --runs-backend.

Every churn run with tracking enabled stores its configuration, summary and
rows. The runs subcommands work on that store without touching a repository.

Subcommands:
  status  - Show how many runs and rows are stored
  export  - Write all runs and rows to Parquet files
  clear   - Remove all recorded runs
  migrate - Move the run store schema to a given version`,
}

var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run store statistics",
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("run tracking is disabled"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs and rows to Parquet",
	Long: `Write every recorded run and churn row to two Parquet files:

  <output-file>.runs.parquet
  <output-file>.rows.parquet

Examples:
  tagchurn runs export --output-file churn-history`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		outputFile := viper.GetString("output-file")
		if err := iocache.ExportRuns(os.Stdout, iocache.Manager.GetRunStore(), outputFile); err != nil {
			contract.LogFatal("Failed to export runs", err)
		}
	},
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete every recorded run and row from the configured run store.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the run tables`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseCaching()
		path := sqlitePath(cfg.RunsDBConnect, iocache.GetRunsDBFilePath())
		if err := iocache.ClearRuns(cfg.RunsBackend, path, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear runs", err)
		}
		fmt.Println("Runs cleared successfully.")
	},
}

var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the run store schema",
	Long: `Apply or roll back run store migrations.

Examples:
  tagchurn runs migrate
  tagchurn runs migrate --target-version 0
  tagchurn runs migrate --runs-backend postgresql --runs-db-connect "host=..."`,
	RunE: func(_ *cobra.Command, _ []string) error {
		backend, connStr, err := runsBackend()
		if err != nil {
			return err
		}
		return iocache.MigrateRuns(os.Stdout, backend, connStr, viper.GetInt("target-version"))
	},
}
