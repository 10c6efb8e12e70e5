// Package config builds the immutable run configuration from defaults, the YAML
// configuration file and command line arguments.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newrelic/infra-integrations-sdk/v3/log"
	"gopkg.in/yaml.v2"

	"github.com/taqo-project/taqo/src/args"
	"github.com/taqo-project/taqo/src/models"
)

const (
	// NumRetriesDefault is the number of retained timed executions per query.
	NumRetriesDefault = 5
	// NumWarmupDefault is the number of discarded executions before the retained ones.
	NumWarmupDefault = 2
	// SkipPercentageDeltaDefault is the relative timing change tolerated as noise.
	SkipPercentageDeltaDefault = 0.05
	// SkipTimeoutDeltaDefault is how close to the test timeout, in seconds, a timing must be
	// to be treated as timed out.
	SkipTimeoutDeltaDefault  = 1.0
	DDLQueryTimeoutDefault   = 3600
	TestQueryTimeoutDefault  = 1200
	AllPairsThresholdDefault = 3
	ExplainClauseDefault     = "EXPLAIN"
	AsciidoctorPathDefault   = "asciidoctor"
	ReportDirDefault         = "report"
)

// ConnectionConfig holds the target database coordinates.
type ConnectionConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// DatabaseConfig describes how the database process lifecycle is driven.
type DatabaseConfig struct {
	Kind           string `yaml:"kind"`
	StartCommand   string `yaml:"start-command"`
	StopCommand    string `yaml:"stop-command"`
	SwitchCommand  string `yaml:"switch-command"`
	DestroyCommand string `yaml:"destroy-command"`
	StartupWait    int    `yaml:"startup-wait"`
}

// Config is read once at startup and passed by value afterwards.
type Config struct {
	Connection ConnectionConfig
	Database   DatabaseConfig

	Model          string
	ModelsPath     string
	Output         string
	DDLs           models.DDLSteps
	DDLPrefix      string
	RemoteDataPath string

	WithOptimizations bool
	PlansOnly         bool
	EnableStatistics  bool
	Parametrized      bool
	ExplainClause     string
	SessionProps      []string
	NumQueries        int

	NumRetries          int
	NumWarmup           int
	Aggregation         models.Aggregation
	SkipPercentageDelta float64
	SkipTimeoutDelta    float64
	DDLQueryTimeout     int
	TestQueryTimeout    int
	LookNearBestPlan    bool
	AllPairsThreshold   int

	CleanDB        bool
	AllowDestroyDB bool

	ReportDir       string
	AsciidoctorPath string
}

// fileConfig mirrors the YAML document. Pointers distinguish absent keys from zero values.
type fileConfig struct {
	NumRetries          *int            `yaml:"num-retries"`
	NumWarmup           *int            `yaml:"num-warmup"`
	Aggregation         *string         `yaml:"aggregation"`
	SkipPercentageDelta *float64        `yaml:"skip-percentage-delta"`
	SkipTimeoutDelta    *float64        `yaml:"skip-timeout-delta"`
	DDLQueryTimeout     *int            `yaml:"ddl-query-timeout"`
	TestQueryTimeout    *int            `yaml:"test-query-timeout"`
	LookNearBestPlan    *bool           `yaml:"look-near-best-plan"`
	AllPairsThreshold   *int            `yaml:"all-pairs-threshold"`
	NumQueries          *int            `yaml:"num-queries"`
	EnableStatistics    *bool           `yaml:"enable-statistics"`
	ExplainClause       *string         `yaml:"explain-clause"`
	SessionProps        []string        `yaml:"session-props"`
	ModelsPath          *string         `yaml:"models-path"`
	ReportDir           *string         `yaml:"report-dir"`
	AsciidoctorPath     *string         `yaml:"asciidoctor-path"`
	Database            *DatabaseConfig `yaml:"database"`
}

// Default returns the configuration used when neither file nor flags set a value.
func Default() Config {
	return Config{
		DDLs:                models.NewDDLSteps(),
		ExplainClause:       ExplainClauseDefault,
		NumQueries:          -1,
		NumRetries:          NumRetriesDefault,
		NumWarmup:           NumWarmupDefault,
		Aggregation:         models.AggregationMean,
		SkipPercentageDelta: SkipPercentageDeltaDefault,
		SkipTimeoutDelta:    SkipTimeoutDeltaDefault,
		DDLQueryTimeout:     DDLQueryTimeoutDefault,
		TestQueryTimeout:    TestQueryTimeoutDefault,
		LookNearBestPlan:    true,
		AllPairsThreshold:   AllPairsThresholdDefault,
		CleanDB:             true,
		AllowDestroyDB:      true,
		ReportDir:           ReportDirDefault,
		AsciidoctorPath:     AsciidoctorPathDefault,
		Database:            DatabaseConfig{Kind: "external"},
	}
}

// New merges defaults, the configuration file named by arguments.Config (if it exists) and
// the command line arguments, in that order of precedence.
func New(arguments args.ArgumentList) (Config, error) {
	cfg := Default()

	if arguments.Config != "" {
		b, err := os.ReadFile(arguments.Config)
		switch {
		case err == nil:
			if err := cfg.applyFile(b); err != nil {
				return Config{}, fmt.Errorf("%w: failed to parse %s: %w", models.ErrConfiguration, arguments.Config, err)
			}
		case os.IsNotExist(err):
			log.Warn("Configuration file %s not found, using defaults", arguments.Config)
		default:
			return Config{}, fmt.Errorf("%w: failed to read %s: %w", models.ErrConfiguration, arguments.Config, err)
		}
	}

	if err := cfg.applyArguments(arguments); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyFile(b []byte) error {
	var fc fileConfig
	if err := yaml.UnmarshalStrict(b, &fc); err != nil {
		return err
	}

	setInt(&c.NumRetries, fc.NumRetries)
	setInt(&c.NumWarmup, fc.NumWarmup)
	setFloat(&c.SkipPercentageDelta, fc.SkipPercentageDelta)
	setFloat(&c.SkipTimeoutDelta, fc.SkipTimeoutDelta)
	setInt(&c.DDLQueryTimeout, fc.DDLQueryTimeout)
	setInt(&c.TestQueryTimeout, fc.TestQueryTimeout)
	setBool(&c.LookNearBestPlan, fc.LookNearBestPlan)
	setInt(&c.AllPairsThreshold, fc.AllPairsThreshold)
	setInt(&c.NumQueries, fc.NumQueries)
	setBool(&c.EnableStatistics, fc.EnableStatistics)
	setString(&c.ExplainClause, fc.ExplainClause)
	setString(&c.ModelsPath, fc.ModelsPath)
	setString(&c.ReportDir, fc.ReportDir)
	setString(&c.AsciidoctorPath, fc.AsciidoctorPath)

	if fc.Aggregation != nil {
		aggregation, err := models.ParseAggregation(*fc.Aggregation)
		if err != nil {
			return err
		}
		c.Aggregation = aggregation
	}

	if fc.SessionProps != nil {
		c.SessionProps = fc.SessionProps
	}

	if fc.Database != nil {
		c.Database = *fc.Database
		if c.Database.Kind == "" {
			c.Database.Kind = "external"
		}
	}

	return nil
}

func (c *Config) applyArguments(al args.ArgumentList) error {
	c.Connection = ConnectionConfig{
		Host:     al.Host,
		Port:     al.Port,
		Username: al.Username,
		Password: al.Password,
		Database: al.Database,
		SSLMode:  al.SslMode,
	}

	c.Model = al.Model
	c.Output = al.Output
	c.DDLs = al.DDLSteps()
	c.DDLPrefix = al.DdlPrefix
	c.RemoteDataPath = al.RemoteDataPath
	c.WithOptimizations = al.Optimizations
	c.PlansOnly = al.PlansOnly
	c.Parametrized = al.Parametrized
	c.EnableStatistics = c.EnableStatistics || al.EnableStatistics
	c.CleanDB = al.CleanDb
	c.AllowDestroyDB = al.AllowDestroyDb

	if al.ModelsPath != "" {
		c.ModelsPath = al.ModelsPath
	}
	if al.ExplainClause != "" {
		c.ExplainClause = al.ExplainClause
	}
	if al.NumQueries > 0 {
		c.NumQueries = al.NumQueries
	}
	if al.NumRetries > 0 {
		c.NumRetries = al.NumRetries
	}
	if al.NumWarmup >= 0 {
		c.NumWarmup = al.NumWarmup
	}
	if al.TestQueryTimeout > 0 {
		c.TestQueryTimeout = al.TestQueryTimeout
	}
	if al.DdlQueryTimeout > 0 {
		c.DDLQueryTimeout = al.DdlQueryTimeout
	}
	if al.ReportDir != "" {
		c.ReportDir = al.ReportDir
	}
	if al.DbType != "" {
		c.Database.Kind = al.DbType
	}
	if al.AggregationPolicy != "" {
		aggregation, err := models.ParseAggregation(al.AggregationPolicy)
		if err != nil {
			return err
		}
		c.Aggregation = aggregation
	}

	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.NumRetries < 1:
		return fmt.Errorf("%w: num-retries must be at least 1, got %d", models.ErrConfiguration, c.NumRetries)
	case c.NumWarmup < 0:
		return fmt.Errorf("%w: num-warmup must not be negative, got %d", models.ErrConfiguration, c.NumWarmup)
	case c.SkipPercentageDelta < 0:
		return fmt.Errorf("%w: skip-percentage-delta must not be negative, got %v", models.ErrConfiguration, c.SkipPercentageDelta)
	case c.SkipTimeoutDelta < 0:
		return fmt.Errorf("%w: skip-timeout-delta must not be negative, got %v", models.ErrConfiguration, c.SkipTimeoutDelta)
	case c.TestQueryTimeout < 1 || c.DDLQueryTimeout < 1:
		return fmt.Errorf("%w: query timeouts must be positive", models.ErrConfiguration)
	case c.AllPairsThreshold < 0:
		return fmt.Errorf("%w: all-pairs-threshold must not be negative, got %d", models.ErrConfiguration, c.AllPairsThreshold)
	}

	switch c.Database.Kind {
	case "external", "command":
	default:
		return fmt.Errorf("%w: unknown database kind %q", models.ErrConfiguration, c.Database.Kind)
	}

	return nil
}

// TestQueryTimeoutSeconds returns the test query timeout as float seconds, the unit of every
// timing the engine records.
func (c Config) TestQueryTimeoutSeconds() float64 {
	return float64(c.TestQueryTimeout)
}

// String renders the configuration for the start-of-run log, without the password.
func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target: %s:%s/%s as %s\n", c.Connection.Host, c.Connection.Port, c.Connection.Database, c.Connection.Username)
	fmt.Fprintf(&b, "model: %s (ddls: %s, prefix: %q)\n", c.Model, c.DDLs, c.DDLPrefix)
	fmt.Fprintf(&b, "optimizations: %t, plans only: %t, parametrized: %t\n", c.WithOptimizations, c.PlansOnly, c.Parametrized)
	fmt.Fprintf(&b, "explain clause: %s, statistics: %t, session props: %v\n", c.ExplainClause, c.EnableStatistics, c.SessionProps)
	fmt.Fprintf(&b, "retries: %d, warmup: %d, aggregation: %s\n", c.NumRetries, c.NumWarmup, c.Aggregation)
	fmt.Fprintf(&b, "timeouts: test %ds, ddl %ds\n", c.TestQueryTimeout, c.DDLQueryTimeout)
	fmt.Fprintf(&b, "skip delta: %.2f%%, skip timeout delta: %.1fs\n", c.SkipPercentageDelta*100, c.SkipTimeoutDelta)
	fmt.Fprintf(&b, "near best plan: %t, all pairs threshold: %d", c.LookNearBestPlan, c.AllPairsThreshold)
	return b.String()
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
