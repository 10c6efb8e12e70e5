// Package args contains the argument list, defined as a struct, along with methods that validate passed-in args
package args

import (
	"errors"
	"fmt"
	"strings"

	sdkArgs "github.com/newrelic/infra-integrations-sdk/v3/args"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/models"
)

// Actions accepted as the first positional argument.
const (
	ActionCollect    = "collect"
	ActionRegression = "regression"
	ActionReport     = "report"
)

const defaultPort = "5433"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingOutput = errors.New("-output is required")
	ErrMissingType   = errors.New("-type is required for report")
	ErrMissingHost   = errors.New("must specify a host")
	ErrMissingModel  = errors.New("must specify a model")
)

// ArgumentList struct that holds all taqo arguments
type ArgumentList struct {
	sdkArgs.DefaultArgumentList
	Config string `default:"config/default.yml" help:"Configuration file path"`

	// Target database
	DbType   string `default:"external" help:"Database lifecycle: external or command"`
	Host     string `default:"127.0.0.1" help:"Target host for the postgres compatible database"`
	Port     string `default:"" help:"Target port for the postgres compatible database"`
	Username string `default:"yugabyte" help:"Username for connection"`
	Password string `default:"yugabyte" help:"Password for the connection user"`
	Database string `default:"taqo" help:"Target database in the postgres compatible database"`
	SslMode  string `default:"disable" help:"sslmode passed to the driver"`

	// Collection
	Model             string `default:"simple" help:"Test model to use, a directory under models_path"`
	ModelsPath        string `default:"models" help:"Directory holding the test models"`
	Ddls              string `default:"database,create,analyze,import,drop" help:"Model creation queries, comma separated: database,create,analyze,import,drop or none"`
	DdlPrefix         string `default:"" help:"DDL file prefix (default empty, might be postgres)"`
	RemoteDataPath    string `default:"" help:"Path to remote data files ($DATA_PATH/*.csv)"`
	PlansOnly         bool   `default:"false" help:"Collect only execution plans, execution time will be equal to cost"`
	Optimizations     bool   `default:"false" help:"Evaluate optimizations for each query"`
	EnableStatistics  bool   `default:"false" help:"Enable yb_enable_optimizer_statistics before running queries"`
	ExplainClause     string `default:"" help:"Explain clause that will be placed before query. Default EXPLAIN"`
	NumQueries        int    `default:"-1" help:"Number of queries to evaluate"`
	Parametrized      bool   `default:"false" help:"Run parametrized query instead of normal"`
	CleanDb           bool   `default:"true" help:"Stop the database after the test"`
	AllowDestroyDb    bool   `default:"true" help:"Allow destroying the database cluster during teardown"`
	Output            string `default:"" help:"Output JSON file name, .json will be added"`
	Yes               bool   `default:"false" help:"Confirm test start"`
	ReportDir         string `default:"" help:"Directory where reports are written"`
	TestQueryTimeout  int    `default:"0" help:"Timeout in seconds for a single test query, overrides config"`
	DdlQueryTimeout   int    `default:"0" help:"Timeout in seconds for a single DDL statement, overrides config"`
	NumRetries        int    `default:"0" help:"Number of retained executions per query, overrides config"`
	NumWarmup         int    `default:"-1" help:"Number of discarded warmup executions per query, overrides config"`
	AggregationPolicy string `default:"" help:"Timing aggregation: mean or median, overrides config"`

	// Report
	Type                  string `default:"" help:"Report type: taqo, score, score_xls, regression, regression_xls, comparison or selectivity"`
	Results               string `default:"" help:"TAQO/Comparison: path to results with optimizations"`
	PgResults             string `default:"" help:"TAQO/Comparison: path to results for PG, optimizations are optional"`
	V1Results             string `default:"" help:"Regression: results for first version"`
	V2Results             string `default:"" help:"Regression: results for second version"`
	DefaultResults        string `default:"" help:"Selectivity: results for no optimizer tuned DB"`
	DefaultAnalyzeResults string `default:"" help:"Selectivity: results for no optimizer tuned DB with EXPLAIN ANALYZE"`
	TaResults             string `default:"" help:"Selectivity: results with table analyze"`
	TaAnalyzeResults      string `default:"" help:"Selectivity: results with table analyze with EXPLAIN ANALYZE"`
	StatsResults          string `default:"" help:"Selectivity: results with table analyze and enabled statistics"`
	StatsAnalyzeResults   string `default:"" help:"Selectivity: results with table analyze, statistics and EXPLAIN ANALYZE"`
}

// Validate validates connection and collection arguments
func (al *ArgumentList) Validate() error {
	if al.Host == "" {
		return fmt.Errorf("%w: %w", models.ErrConfiguration, ErrMissingHost)
	}

	if al.Model == "" {
		return fmt.Errorf("%w: %w", models.ErrConfiguration, ErrMissingModel)
	}

	if al.Port == "" {
		log.Info("Port was not specified, using default port %s", defaultPort)
		al.Port = defaultPort
	}

	return nil
}

// ValidateAction checks the arguments the given action needs. Report type specific inputs are
// checked by the reports package once the type is resolved.
func (al *ArgumentList) ValidateAction(action string) error {
	switch action {
	case ActionCollect, ActionRegression:
		if al.Output == "" {
			return fmt.Errorf("%w: %w for %s", models.ErrConfiguration, ErrMissingOutput, action)
		}
		return al.Validate()
	case ActionReport:
		if al.Type == "" {
			return fmt.Errorf("%w: %w", models.ErrConfiguration, ErrMissingType)
		}
		return nil
	default:
		return fmt.Errorf("%w: %w %q", models.ErrConfiguration, ErrUnknownAction, action)
	}
}

// DDLSteps maps the -ddls selector to the set of requested steps. Unrecognized tokens are
// ignored with a warning.
func (al *ArgumentList) DDLSteps() models.DDLSteps {
	return ParseDDLs(al.Ddls)
}

// ParseDDLs maps a comma-separated selector to a step set; "none" selects nothing.
func ParseDDLs(selector string) models.DDLSteps {
	steps := models.NewDDLSteps()
	if strings.TrimSpace(selector) == "none" {
		return steps
	}

	for _, token := range strings.Split(selector, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		step, ok := models.ParseDDLStep(token)
		if !ok {
			log.Warn("Ignoring unknown DDL step %q", token)
			continue
		}
		steps[step] = struct{}{}
	}

	return steps
}
