package contract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/loadcompare/schema"
	"github.com/jackc/pgx/v5"
)

// Default values for configuration.
const (
	DefaultDataConfig   = "config.yaml"
	DefaultBasePath     = "."
	DefaultPrecision    = 2
	MaxPrecision        = 6
	DefaultFetchRetries = 3
	DefaultFetchTimeout = "30s"
	DefaultListenAddr   = "127.0.0.1:8080"
	DefaultLogLevel     = "info"
	SQLiteMemoryConnect = ":memory:"
)

// Config holds the runtime configuration for a comparison session.
// This struct is the "final, validated" config.
type Config struct {
	DataConfigPath string
	BasePath       string

	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext
	TableName string

	Scenario   string
	Metric     string
	Parameters map[string]*float64
	ChartAxis  string

	AllMetrics bool
	Detail     bool
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	RenderFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	FetchRetries int
	FetchTimeout time.Duration

	LogLevel  string
	LogFormat string

	ListenAddr string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DataConfig   string   `mapstructure:"data-config"`
	BasePath     string   `mapstructure:"base-path"`
	Backend      string   `mapstructure:"backend"`
	DBConnect    string   `mapstructure:"db-connect"`
	Table        string   `mapstructure:"table"`
	Scenario     string   `mapstructure:"scenario"`
	Metric       string   `mapstructure:"metric"`
	Params       []string `mapstructure:"param"`
	Axis         string   `mapstructure:"axis"`
	Precision    int      `mapstructure:"precision"`
	Output       string   `mapstructure:"output"`
	OutputFile   string   `mapstructure:"output-file"`
	Width        int      `mapstructure:"width"`
	Color        string   `mapstructure:"color"`
	FetchRetries int      `mapstructure:"fetch-retries"`
	FetchTimeout string   `mapstructure:"fetch-timeout"`
	LogLevel     string   `mapstructure:"log-level"`
	LogFormat    string   `mapstructure:"log-format"`

	// --- Fields from compareCmd.Flags() ---
	AllMetrics bool `mapstructure:"all-metrics"`
	Detail     bool `mapstructure:"detail"`

	// --- Fields from chartCmd.Flags() ---
	Render string `mapstructure:"render"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Parameters != nil {
		clone.Parameters = make(map[string]*float64, len(c.Parameters))
		for k, v := range c.Parameters {
			if v == nil {
				clone.Parameters[k] = nil
				continue
			}
			val := *v
			clone.Parameters[k] = &val
		}
	}
	return &clone
}

// Filter returns the session filter described by the config.
func (c *Config) Filter() schema.Filter {
	return schema.Filter{
		SelectedScenario: c.Scenario,
		SelectedMetric:   c.Metric,
		Parameters:       c.Clone().Parameters,
		ChartAxis:        c.ChartAxis,
	}
}

// FilterUpdate returns the partial update that applies the config's selection to a session.
func (c *Config) FilterUpdate() schema.FilterUpdate {
	var update schema.FilterUpdate
	if c.Scenario != "" {
		update.Scenario = schema.StringPtr(c.Scenario)
	}
	if c.Metric != "" {
		update.Metric = schema.StringPtr(c.Metric)
	}
	if len(c.Parameters) > 0 {
		update.Parameters = c.Clone().Parameters
	}
	if c.ChartAxis != "" {
		update.ChartAxis = schema.StringPtr(c.ChartAxis)
	}
	return update
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processSelection(cfg, input); err != nil {
		return err
	}
	if err := processFetchSettings(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		dsn, err := mysql.ParseDSN(connStr)
		if err != nil {
			return fmt.Errorf("invalid MySQL connection string: %w. Expected user:password@tcp(host:port)/dbname", err)
		}
		if dsn.DBName == "" {
			return errors.New("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		pgCfg, err := pgx.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("invalid PostgreSQL connection string: %w. Expected host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		if pgCfg.Host == "" {
			return errors.New("PostgreSQL connection string must contain 'host=' parameter")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
	return nil
}

// validateSimpleInputs processes and validates output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.RenderFile = input.Render
	cfg.Width = input.Width
	cfg.AllMetrics = input.AllMetrics
	cfg.Detail = input.Detail
	cfg.LogLevel = input.LogLevel
	cfg.LogFormat = input.LogFormat

	cfg.ListenAddr = strings.TrimSpace(input.Listen)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return errors.New("parquet output requires --output-file")
	}

	// --- 2. Width Validation ---
	if cfg.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", cfg.Width)
	}

	return nil
}

// validateBackendConfig validates the query table backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.Backend = schema.DatabaseBackend(strings.ToLower(input.Backend))
	if cfg.Backend == "" {
		cfg.Backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql", input.Backend)
	}

	cfg.DBConnect = input.DBConnect
	if cfg.Backend == schema.SQLiteBackend && cfg.DBConnect == "" {
		cfg.DBConnect = SQLiteMemoryConnect
	}
	if err := ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect); err != nil {
		return err
	}

	cfg.TableName = strings.TrimSpace(input.Table)
	if cfg.TableName == "" {
		cfg.TableName = schema.DefaultTableName
	}
	if !IsValidIdentifier(cfg.TableName) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, cfg.TableName)
	}
	return nil
}

// processSelection handles the scenario, metric, parameter and axis selection.
func processSelection(cfg *Config, input *ConfigRawInput) error {
	cfg.DataConfigPath = strings.TrimSpace(input.DataConfig)
	if cfg.DataConfigPath == "" {
		cfg.DataConfigPath = DefaultDataConfig
	}
	cfg.BasePath = strings.TrimSpace(input.BasePath)
	if cfg.BasePath == "" {
		cfg.BasePath = DefaultBasePath
	}

	cfg.Scenario = strings.TrimSpace(input.Scenario)
	cfg.Metric = strings.TrimSpace(input.Metric)
	if cfg.Metric != "" && !IsValidIdentifier(cfg.Metric) {
		return fmt.Errorf("%w: metric %q", ErrInvalidColumnName, cfg.Metric)
	}

	params, err := ParseParameterAssignments(input.Params)
	if err != nil {
		return fmt.Errorf("invalid --param: %w", err)
	}
	cfg.Parameters = params

	cfg.ChartAxis = strings.TrimSpace(input.Axis)
	if cfg.ChartAxis != "" && cfg.ChartAxis != schema.TestConditionKey && !schema.IsParameterKey(cfg.ChartAxis) {
		return fmt.Errorf("invalid axis '%s'. must be %s or one of %s", cfg.ChartAxis, schema.TestConditionKey, strings.Join(schema.ParameterKeys, ", "))
	}
	return nil
}

// processFetchSettings validates retry and timeout settings for remote documents.
func processFetchSettings(cfg *Config, input *ConfigRawInput) error {
	if input.FetchRetries < 1 {
		return fmt.Errorf("fetch-retries must be at least 1 (received %d)", input.FetchRetries)
	}
	cfg.FetchRetries = input.FetchRetries

	timeout := input.FetchTimeout
	if timeout == "" {
		timeout = DefaultFetchTimeout
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("invalid fetch-timeout '%s': %w", timeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("fetch-timeout must be positive (received %s)", d)
	}
	cfg.FetchTimeout = d
	return nil
}
