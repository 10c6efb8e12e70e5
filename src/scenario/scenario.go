// Package scenario orchestrates collection runs: a single version collection and the two
// version regression run.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/collector"
	"github.com/taqo-project/taqo/src/comparator"
	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/connection"
	"github.com/taqo-project/taqo/src/database"
	"github.com/taqo-project/taqo/src/explorer"
	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/provision"
	"github.com/taqo-project/taqo/src/results"
	"github.com/taqo-project/taqo/src/validation"
)

const (
	enableStatisticsStatement = "SET yb_enable_optimizer_statistics = true"
	unknownVersion            = "unknown"
)

// Connection is a session the scenario owns and closes.
type Connection interface {
	connection.Session
	Close()
}

// Connector opens a fresh session on the database under test.
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
}

// Model provides the schema and the workload.
type Model interface {
	provision.DDLSource
	Queries() ([]models.Query, error)
}

// Reporter renders the outcome of a regression run.
type Reporter interface {
	Report(ctx context.Context, v1, v2 *results.Document, rows []models.ComparisonResult) error
}

// EvaluateFunc measures one query on a session.
type EvaluateFunc func(ctx context.Context, session connection.Session, query models.Query) (*models.QueryResult, error)

// Scenario runs the phases of a collection against one database lifecycle. A Scenario is
// used for a single run.
type Scenario struct {
	cfg         config.Config
	database    database.Lifecycle
	connector   Connector
	model       Model
	provisioner *provision.Provisioner
	comparator  *comparator.Comparator
	evaluate    EvaluateFunc
	reporter    Reporter

	session Connection
	state   State
	history []State
}

// New wires a scenario. Queries are evaluated by the variant explorer when optimizations
// are enabled, by the plain collector otherwise. reporter may be nil for collect runs.
func New(cfg config.Config, lifecycle database.Lifecycle, connector Connector, model Model, reporter Reporter) *Scenario {
	c := collector.NewCollector(cfg)
	evaluate := c.Collect
	if cfg.WithOptimizations {
		evaluate = explorer.NewExplorer(cfg, c).Explore
	}

	return &Scenario{
		cfg:         cfg,
		database:    lifecycle,
		connector:   connector,
		model:       model,
		provisioner: provision.NewProvisioner(cfg),
		comparator:  comparator.NewComparator(cfg),
		evaluate:    evaluate,
		reporter:    reporter,
		state:       StateInit,
		history:     []State{StateInit},
	}
}

// State returns the current state of the run.
func (s *Scenario) State() State {
	return s.state
}

// History returns every state the run went through, in order.
func (s *Scenario) History() []State {
	return append([]State(nil), s.history...)
}

func (s *Scenario) moveTo(state State) {
	log.Debug("Scenario state %s -> %s", s.state, state)
	s.state = state
	s.history = append(s.history, state)
}

// Collect provisions the model, evaluates every query once and saves the results document
// to the configured output.
func (s *Scenario) Collect(ctx context.Context) (document *results.Document, err error) {
	defer s.finish(ctx, &err)

	version, err := s.setup(ctx)
	if err != nil {
		return nil, err
	}

	document, err = s.collectPhase(ctx, version)
	if err != nil {
		return nil, err
	}
	s.moveTo(StateCollectedV1)

	if _, err = results.Save(s.cfg.Output, document); err != nil {
		return nil, err
	}
	return document, nil
}

// Regression collects the workload on the current version and saves it before switching the
// database to the next version. It then collects again on a fresh session and compares both runs.
func (s *Scenario) Regression(ctx context.Context) (rows []models.ComparisonResult, err error) {
	defer s.finish(ctx, &err)

	firstVersion, err := s.setup(ctx)
	if err != nil {
		return nil, err
	}

	first, err := s.collectPhase(ctx, firstVersion)
	if err != nil {
		return nil, err
	}
	s.moveTo(StateCollectedV1)

	output := strings.TrimSuffix(s.cfg.Output, ".json")
	if _, err = results.Save(output+"_v1", first); err != nil {
		return nil, err
	}

	s.closeSession()
	if err = s.database.SwitchVersion(ctx); err != nil {
		return nil, err
	}
	if err = s.connect(ctx); err != nil {
		return nil, err
	}
	secondVersion := s.detectVersion(ctx)
	log.Info("Switched database version: %s", validation.DescribeVersionChange(firstVersion, secondVersion))
	s.moveTo(StateSwitched)

	second, err := s.collectPhase(ctx, secondVersion)
	if err != nil {
		return nil, err
	}
	s.moveTo(StateCollectedV2)

	rows = s.comparator.CompareAll(first.Queries, second.Queries)
	s.moveTo(StateCompared)
	logSummary(models.Summarize(rows))

	if _, err = results.Save(output+"_v2", second); err != nil {
		return nil, err
	}
	if s.reporter != nil {
		if err = s.reporter.Report(ctx, first, second, rows); err != nil {
			return nil, err
		}
	}
	s.moveTo(StateReported)
	return rows, nil
}

// setup starts the database, opens the first session and applies every requested DDL step
// except DROP.
func (s *Scenario) setup(ctx context.Context) (validation.DatabaseVersion, error) {
	if err := s.database.Start(ctx); err != nil {
		return validation.DatabaseVersion{}, err
	}
	if err := s.connect(ctx); err != nil {
		return validation.DatabaseVersion{}, err
	}
	version := s.detectVersion(ctx)

	if err := s.provisioner.Apply(ctx, s.session, s.model, s.cfg.DDLs.Without(models.DDLDrop)); err != nil {
		return version, err
	}
	s.moveTo(StateProvisioned)
	return version, nil
}

func (s *Scenario) collectPhase(ctx context.Context, version validation.DatabaseVersion) (*results.Document, error) {
	queries, err := s.model.Queries()
	if err != nil {
		return nil, err
	}

	document := results.NewDocument(s.cfg.Model, version.Raw, results.Settings{
		NumRetries:        s.cfg.NumRetries,
		NumWarmup:         s.cfg.NumWarmup,
		Aggregation:       s.cfg.Aggregation,
		WithOptimizations: s.cfg.WithOptimizations,
		PlansOnly:         s.cfg.PlansOnly,
		ExplainClause:     s.cfg.ExplainClause,
	})

	for i, query := range queries {
		log.Info("Evaluating query %s [%d/%d]", query.Short(40), i+1, len(queries))
		result, err := s.evaluate(ctx, s.session, query)
		if err != nil {
			return nil, err
		}
		document.Queries = append(document.Queries, result)
	}

	if failed := document.Failed(); failed > 0 {
		log.Warn("%d of %d queries failed on %s", failed, len(queries), document.DatabaseVersion)
	}
	return document, nil
}

func (s *Scenario) connect(ctx context.Context) error {
	session, err := s.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrConnectionLost, err)
	}
	s.session = session

	for _, prop := range s.cfg.SessionProps {
		if err := session.Exec(ctx, prop); err != nil {
			log.Warn("Failed to apply session property %q: %s", prop, err)
		}
	}
	if s.cfg.EnableStatistics {
		if err := session.Exec(ctx, enableStatisticsStatement); err != nil {
			log.Warn("Failed to enable optimizer statistics: %s", err)
		}
	}
	return nil
}

func (s *Scenario) detectVersion(ctx context.Context) validation.DatabaseVersion {
	version, err := validation.DetectVersion(ctx, s.session)
	if err != nil {
		log.Warn("Could not detect database version: %s", err)
		if version.Raw == "" {
			version.Raw = unknownVersion
		}
		return version
	}
	log.Info("Database version: %s", version)
	return version
}

func (s *Scenario) closeSession() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

// finish tears the run down and records its final state. Teardown errors are logged and
// never replace the error of the run.
func (s *Scenario) finish(ctx context.Context, runErr *error) {
	s.teardown(context.WithoutCancel(ctx), *runErr)
	if *runErr != nil {
		log.Error("Scenario failed in state %s: %s", s.state, *runErr)
		s.moveTo(StateFailed)
		return
	}
	s.moveTo(StateDone)
}

func (s *Scenario) teardown(ctx context.Context, runErr error) {
	if s.cfg.DDLs.Has(models.DDLDrop) {
		if s.session != nil && errors.Is(runErr, models.ErrConnectionLost) {
			s.closeSession()
		}
		if s.session == nil {
			if err := s.connect(ctx); err != nil {
				log.Warn("Skipping DROP, cannot reconnect: %s", err)
			}
		}
		if s.session != nil {
			// DROP failures are logged by the provisioner and never returned
			_ = s.provisioner.Apply(ctx, s.session, s.model, s.cfg.DDLs.Only(models.DDLDrop))
		}
	}
	s.closeSession()

	if err := s.database.Stop(ctx); err != nil {
		log.Warn("Failed to stop database: %s", err)
	}
	if s.cfg.CleanDB && s.cfg.AllowDestroyDB {
		if err := s.database.Destroy(ctx); err != nil {
			log.Warn("Failed to destroy database: %s", err)
		}
	}
}

func logSummary(summary models.Summary) {
	log.Info("Comparison: %d improved, %d regressed, %d unchanged, %d skipped",
		summary[models.Improved], summary[models.Regressed], summary[models.Unchanged], summary[models.Skipped])
}
