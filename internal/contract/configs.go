package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/tagchurn/schema"
)

// Default values for configuration.
const (
	DefaultGitPath   = "git"
	DefaultCTagsPath = "ctags"
	DefaultLogLevel  = "warn"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a churn run.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath   string
	PathFilter string
	Excludes   []string
	SkipVendor bool
	RangeArgs  []string // Passed verbatim to git log

	GitPath   string
	CTagsPath string
	CTagsArgs []string
	Analyzer  schema.AnalyzerKind

	Format     schema.TagFormat
	MaxChanges int // 0 disables the filter
	Untagged   bool
	Split      bool
	Reverse    bool
	Workers    int

	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	LogLevel    string
	MetricsFile string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from --repo or positional args, so no tag
	RepoPathStr string

	Repo           string `mapstructure:"repo"`
	GitPath        string `mapstructure:"git-path"`
	CTagsPath      string `mapstructure:"ctags-path"`
	CTagsArgs      string `mapstructure:"ctags-args"`
	Analyzer       string `mapstructure:"analyzer"`
	Format         string `mapstructure:"format"`
	MaxChanges     int    `mapstructure:"max-changes"`
	Untagged       bool   `mapstructure:"untagged"`
	Split          bool   `mapstructure:"split"`
	Reverse        bool   `mapstructure:"reverse"`
	Filter         string `mapstructure:"filter"`
	Exclude        string `mapstructure:"exclude"`
	SkipVendor     bool   `mapstructure:"skip-vendor"`
	Workers        int    `mapstructure:"workers"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	LogLevel       string `mapstructure:"log-level"`
	MetricsFile    string `mapstructure:"metrics-file"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Excludes = slices.Clone(c.Excludes)
	clone.RangeArgs = slices.Clone(c.RangeArgs)
	clone.CTagsArgs = slices.Clone(c.CTagsArgs)
	return &clone
}

// RevalidateChurn applies per-request overrides on top of an already
// validated Config, as the MCP tools do.
func RevalidateChurn(cfg *Config, format string, maxChanges int) error {
	if format != "" {
		f := schema.TagFormat(strings.ToLower(format))
		if _, ok := schema.ValidTagFormats[f]; !ok {
			return fmt.Errorf("invalid format '%s'. must be human, short or json", format)
		}
		cfg.Format = f
	}
	if maxChanges < 0 {
		return fmt.Errorf("max_changes must be zero or positive, got %d", maxChanges)
	}
	if maxChanges > 0 {
		cfg.MaxChanges = maxChanges
	}
	return nil
}

// RunParams returns the settings recorded with a churn run.
func (c *Config) RunParams() map[string]any {
	return map[string]any{
		"repo":        c.RepoPath,
		"range":       c.RangeArgs,
		"filter":      c.PathFilter,
		"excludes":    c.Excludes,
		"analyzer":    string(c.Analyzer),
		"format":      string(c.Format),
		"max_changes": c.MaxChanges,
		"untagged":    c.Untagged,
		"reverse":     c.Reverse,
		"workers":     c.Workers,
	}
}

// ProcessAndValidate turns raw input into a validated Config.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveGitPathAndFilter(ctx, cfg, client, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend validates a backend name. An empty name stays empty, meaning "not configured".
func ParseBackend(name string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(name)))
	if backend == "" {
		return "", nil
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", name)
	}
	return backend, nil
}

// validateBackendConfigs validates tag cache and run store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cacheBackend, err := ParseBackend(input.CacheBackend)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if cacheBackend == "" {
		cacheBackend = schema.SQLiteBackend
	}
	cfg.CacheBackend = cacheBackend
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.RunsBackend, err = ParseBackend(input.RunsBackend)
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	if cfg.RunsBackend == "" {
		return nil
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// SQLite files must differ so clearing one store never wipes the other
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runsDBPath := cfg.RunsDBConnect
		if runsDBPath == "" {
			runsDBPath = GetRunsDBFilePath()
		}
		if cacheDBPath == runsDBPath {
			return fmt.Errorf("tag cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.PathFilter = input.Filter
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Untagged = input.Untagged
	cfg.Split = input.Split
	cfg.Reverse = input.Reverse
	cfg.SkipVendor = input.SkipVendor
	cfg.MetricsFile = input.MetricsFile
	cfg.CTagsArgs = strings.Fields(input.CTagsArgs)

	cfg.GitPath = input.GitPath
	if cfg.GitPath == "" {
		cfg.GitPath = DefaultGitPath
	}
	cfg.CTagsPath = input.CTagsPath
	if cfg.CTagsPath == "" {
		cfg.CTagsPath = DefaultCTagsPath
	}

	cfg.Analyzer = schema.AnalyzerKind(strings.ToLower(input.Analyzer))
	if cfg.Analyzer == "" {
		cfg.Analyzer = schema.CTagsAnalyzer
	}
	if _, ok := schema.ValidAnalyzers[cfg.Analyzer]; !ok {
		return fmt.Errorf("invalid analyzer '%s'. must be ctags or treesitter", input.Analyzer)
	}

	cfg.Format = schema.TagFormat(strings.ToLower(input.Format))
	if cfg.Format == "" {
		cfg.Format = schema.HumanFormat
	}
	if _, ok := schema.ValidTagFormats[cfg.Format]; !ok {
		return fmt.Errorf("invalid format '%s'. must be human, short or json", input.Format)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TSVOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output '%s'. must be tsv, text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required when using parquet output")
	}

	if input.MaxChanges < 0 {
		return fmt.Errorf("max-changes must be zero or positive, got %d", input.MaxChanges)
	}
	cfg.MaxChanges = input.MaxChanges

	cfg.Workers = input.Workers
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", input.Workers)
	}

	if input.Color == "" {
		cfg.UseColors = true
	} else {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	cfg.LogLevel = input.LogLevel
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	cfg.Excludes = nil
	for _, ex := range strings.Split(input.Exclude, ",") {
		if ex = strings.TrimSpace(ex); ex != "" {
			cfg.Excludes = append(cfg.Excludes, ex)
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveGitPathAndFilter resolves the Git repository path and sets the implicit path filter.
func resolveGitPathAndFilter(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = input.Repo
	}
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	gitContextPath := absSearchPath
	if statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}

	cfg.RepoPath = gitRoot

	if cfg.PathFilter != "" { // User-provided --filter flag takes precedence
		return nil
	}

	if absSearchPath != gitRoot {
		relativePath, err := filepath.Rel(gitRoot, absSearchPath)
		if err != nil {
			return err
		}

		if relativePath != "." {
			filter := relativePath
			if statErr == nil && info.IsDir() {
				filter += "/"
			}
			cfg.PathFilter = strings.ReplaceAll(filter, string(os.PathSeparator), "/")
		}
	}

	return nil
}
