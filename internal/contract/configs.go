package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/codemetrics/codemetrics/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 10000
	DefaultPrecision   = 2
	DefaultMinChanges  = 20
	DefaultGitClient   = "git"
	DefaultSvnClient   = "svn"
	DefaultClocClient  = "cloc"
)

// CacheGranularity defines the time granularity for caching log results.
// This ensures consistent cache key generation across the application and tests.
const CacheGranularity = time.Hour

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath string // working copy root, absolute
	Path     string // path inside the working copy, defaults to "."
	Backend  schema.ScmBackend

	GitClient  string
	SvnClient  string
	ClocClient string

	After       time.Time
	Before      time.Time // zero means up to HEAD / now
	RelativeURL string    // svn only; empty means resolve with `svn info`

	Progress    bool
	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	ResultLimit int
	Width       int // Terminal width override (0 = auto-detect)
	Excludes    []string
	Workers     int
	MinChanges  int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	UseColors bool
	LogLevel  string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	Backend        string `mapstructure:"backend"`
	Path           string `mapstructure:"path"`
	GitClient      string `mapstructure:"git-client"`
	SvnClient      string `mapstructure:"svn-client"`
	ClocClient     string `mapstructure:"cloc-client"`
	After          string `mapstructure:"after"`
	Before         string `mapstructure:"before"`
	RelativeURL    string `mapstructure:"relative-url"`
	Progress       bool   `mapstructure:"progress"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Limit          int    `mapstructure:"limit"`
	Width          int    `mapstructure:"width"`
	Exclude        string `mapstructure:"exclude"`
	Workers        int    `mapstructure:"workers"`
	MinChanges     int    `mapstructure:"min-changes"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	Color          string `mapstructure:"color"`
	LogLevel       string `mapstructure:"log-level"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// ClientFor returns the configured executable for backend.
func (c *Config) ClientFor(backend schema.ScmBackend) string {
	if backend == schema.SvnScm {
		return c.SvnClient
	}
	return c.GitClient
}

// GetCacheBeforeTime returns the upper date bound, truncated to the caching granularity.
// An open bound resolves to now so that cached logs expire as history grows.
func (c *Config) GetCacheBeforeTime() time.Time {
	before := c.Before
	if before.IsZero() {
		before = Now()
	}
	return before.UTC().Truncate(CacheGranularity)
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := resolveRepoPath(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
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

// validateBackendConfigs validates the SCM and cache backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.Backend = schema.ScmBackend(strings.ToLower(strings.TrimSpace(input.Backend)))
	if cfg.Backend == "" {
		cfg.Backend = schema.AutoScm
	}
	if _, ok := schema.ValidScmBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be auto, git, svn", input.Backend)
	}

	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	return ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Progress = input.Progress
	cfg.RelativeURL = strings.TrimSpace(input.RelativeURL)

	cfg.GitClient = defaultString(input.GitClient, DefaultGitClient)
	cfg.SvnClient = defaultString(input.SvnClient, DefaultSvnClient)
	cfg.ClocClient = defaultString(input.ClocClient, DefaultClocClient)

	if err := SetLogLevel(input.LogLevel); err != nil {
		return err
	}
	cfg.LogLevel = input.LogLevel

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.MinChanges < 0 {
		return fmt.Errorf("min-changes cannot be negative (received %d)", input.MinChanges)
	}
	cfg.MinChanges = input.MinChanges

	if input.Precision < 0 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 0 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.Excludes = nil
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}
	return nil
}

// processTimeRange parses the date bounds and applies the one-year default.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := Now()

	before, err := ParseDateBound(input.Before, now)
	if err != nil {
		return fmt.Errorf("invalid before date: %w", err)
	}
	after, err := ParseDateBound(input.After, now)
	if err != nil {
		return fmt.Errorf("invalid after date: %w", err)
	}
	cfg.After, cfg.Before = DefaultDateRange(after, before)

	if !cfg.Before.IsZero() && cfg.After.After(cfg.Before) {
		return fmt.Errorf("after (%s) cannot be later than before (%s)", cfg.After.Format(time.RFC3339), cfg.Before.Format(time.RFC3339))
	}
	return nil
}

// resolveRepoPath makes the working copy path absolute and, when the backend
// is auto, detects it from the .git or .svn directory of the working copy.
func resolveRepoPath(cfg *Config, input *ConfigRawInput) error {
	repo := defaultString(input.RepoPathStr, ".")
	abs, err := filepath.Abs(repo)
	if err != nil {
		return err
	}
	cfg.RepoPath = filepath.Clean(abs)
	cfg.Path = defaultString(strings.TrimSpace(input.Path), ".")

	if cfg.Backend != schema.AutoScm {
		return nil
	}
	backend, err := DetectBackend(cfg.RepoPath)
	if err != nil {
		return err
	}
	cfg.Backend = backend
	return nil
}

// DetectBackend returns the SCM backend of the working copy containing dir.
func DetectBackend(dir string) (schema.ScmBackend, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for cur := abs; ; {
		if isDir(filepath.Join(cur, ".git")) || isFile(filepath.Join(cur, ".git")) {
			return schema.GitScm, nil
		}
		if isDir(filepath.Join(cur, ".svn")) {
			return schema.SvnScm, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", fmt.Errorf("%s is not inside a git or svn working copy. Use --backend to force one", dir)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// isFile catches git worktrees and submodules where .git is a file.
func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
