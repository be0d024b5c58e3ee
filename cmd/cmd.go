// Package cmd defines the command-line interface for tagchurn.
package cmd

import (
	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(churnCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	pf := rootCmd.PersistentFlags()
	pf.String("repo", "", "Path to the Git repository (default: current directory)")
	pf.String("git-path", contract.DefaultGitPath, "Git binary to run")
	pf.String("ctags-path", contract.DefaultCTagsPath, "Universal Ctags binary to run")
	pf.String("ctags-args", "", "Extra arguments passed to ctags, space separated (e.g. --extras=+f for file-level rows)")
	pf.String("analyzer", string(schema.CTagsAnalyzer), "Tag analyzer: ctags or treesitter")
	pf.String("format", string(schema.HumanFormat), "Tag label format: human or short or json")
	pf.Int("max-changes", 0, "Skip commits touching more files than this (0 = no limit)")
	pf.Bool("untagged", false, "Report changed lines outside any tag as <untagged>")
	pf.Bool("split", false, "Print added and removed line counts next to churn")
	pf.Bool("reverse", false, "Walk history oldest first")
	pf.StringP("filter", "f", "", "Only consider files under this path prefix")
	pf.String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	pf.Bool("skip-vendor", false, "Skip vendored and third-party files")
	pf.Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	pf.String("output", string(schema.TSVOut), "Output format: tsv or text or csv or json or parquet")
	pf.String("output-file", "", "Optional path to write output to")
	pf.Int("width", 0, "Terminal width override (0 = auto-detect)")
	pf.String("color", "yes", "Enable colored churn in table output (yes/no/true/false/1/0)")
	pf.String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	pf.String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
	pf.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	pf.String("cache-backend", string(schema.SQLiteBackend), "Tag cache backend: sqlite or mysql or postgresql or none")
	pf.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	pf.String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none (empty disables tracking)")
	pf.String("runs-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	pf.String("config", "", "Path to config file")
	if err := viper.BindPFlags(pf); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
