// Package collector measures a single query: it captures the plan and optimizer score, then
// times repeated executions into one aggregated timing.
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/connection"
	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/queryplan"
	"github.com/taqo-project/taqo/src/retrymechanism"
)

const (
	preparedStatementName = "taqo_query"
	// a failing retained sample gets exactly one more attempt
	sampleAttempts = 2
)

// Collector runs queries on a session sequentially. It holds no per-query state.
type Collector struct {
	explainClause    string
	numWarmup        int
	numRetries       int
	testQueryTimeout int
	aggregation      models.Aggregation
	plansOnly        bool
	parametrized     bool
	retry            retrymechanism.RetryMechanism
	now              func() time.Time
}

func NewCollector(cfg config.Config) *Collector {
	return &Collector{
		explainClause:    cfg.ExplainClause,
		numWarmup:        cfg.NumWarmup,
		numRetries:       cfg.NumRetries,
		testQueryTimeout: cfg.TestQueryTimeout,
		aggregation:      cfg.Aggregation,
		plansOnly:        cfg.PlansOnly,
		parametrized:     cfg.Parametrized,
		retry: &retrymechanism.RetryMechanismImpl{
			MaxAttempts: sampleAttempts,
			IsRetryable: func(err error) bool {
				return !connection.IsConnectionLost(err)
			},
		},
		now: time.Now,
	}
}

// Collect explains and times query. Query level failures are recorded on the returned result
// with a nil error; only a lost connection is returned, wrapped in ErrConnectionLost.
func (c *Collector) Collect(ctx context.Context, session connection.Session, query models.Query) (*models.QueryResult, error) {
	result, err := c.Explain(ctx, session, query)
	if err != nil || result.Failed {
		return result, err
	}

	if err := c.Time(ctx, session, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Explain captures the plan and optimizer score of query without executing it.
func (c *Collector) Explain(ctx context.Context, session connection.Session, query models.Query) (*models.QueryResult, error) {
	result := models.NewQueryResult(query, c.aggregation)

	lines, err := c.explain(ctx, session, query)
	if err != nil {
		if err := c.phaseError(result, err); err != nil {
			return nil, err
		}
		return result, nil
	}

	result.ExecutionPlan = strings.Join(lines, "\n")
	score, err := queryplan.ParseOptimizerScore(result.ExecutionPlan)
	if err != nil {
		log.Warn("Query %s: %s", query.Short(40), err)
	} else {
		result.OptimizerScore = &score
	}
	return result, nil
}

func (c *Collector) explain(ctx context.Context, session connection.Session, query models.Query) ([]string, error) {
	if err := session.SetStatementTimeout(ctx, c.testQueryTimeout); err != nil {
		return nil, err
	}

	if !c.parametrized || !query.IsParametrized() {
		return session.FetchColumn(ctx, query.Explain(c.explainClause))
	}

	if err := c.prepare(ctx, session, query); err != nil {
		return nil, err
	}
	defer c.deallocate(ctx, session)
	return session.FetchColumn(ctx, fmt.Sprintf("%s %s", strings.TrimSpace(c.explainClause), executeStatement(query)))
}

// Time runs the query NumWarmup + NumRetries times, keeping the last NumRetries timings, and
// freezes the result. A retained execution that fails, statement timeouts included, is retried
// once; failing again fails the result and discards its samples. In plans only mode the optimizer score stands in for the timing and nothing runs.
func (c *Collector) Time(ctx context.Context, session connection.Session, result *models.QueryResult) error {
	if c.plansOnly {
		if result.OptimizerScore == nil {
			result.Fail(fmt.Errorf("%w: plans only run without a score", models.ErrPlanParse))
			return nil
		}
		result.AddSample(models.ExecutionSample{Elapsed: *result.OptimizerScore, Succeeded: true})
		result.Freeze()
		return nil
	}

	query := result.Query
	statement := query.Text
	if c.parametrized && query.IsParametrized() {
		if err := c.prepare(ctx, session, query); err != nil {
			return c.phaseError(result, err)
		}
		defer c.deallocate(ctx, session)
		statement = executeStatement(query)
	}

	for i := 0; i < c.numWarmup; i++ {
		sample := c.execute(ctx, session, statement)
		if connection.IsConnectionLost(sample.Err) {
			return fmt.Errorf("%w: %w", models.ErrConnectionLost, sample.Err)
		}
		if sample.Err != nil {
			log.Debug("Warmup %d of %s failed: %s", i+1, query.Short(40), sample.Err)
		}
	}

	for i := 0; i < c.numRetries; i++ {
		var sample models.ExecutionSample
		err := c.retry.Retry(func() error {
			sample = c.execute(ctx, session, statement)
			return sample.Err
		})

		switch {
		case err == nil:
			result.AddSample(sample)
		case connection.IsConnectionLost(err):
			return fmt.Errorf("%w: %w", models.ErrConnectionLost, err)
		case connection.IsStatementTimeout(err):
			log.Warn("Query %s exceeded %ds twice", query.Short(40), c.testQueryTimeout)
			result.Fail(fmt.Errorf("%w: %w", models.ErrQueryExecution, err))
			return nil
		default:
			log.Warn("Query %s failed: %s", query.Short(40), err)
			result.Fail(fmt.Errorf("%w: %w", models.ErrQueryExecution, err))
			return nil
		}
	}

	result.Freeze()
	return nil
}

func (c *Collector) execute(ctx context.Context, session connection.Session, statement string) models.ExecutionSample {
	start := c.now()
	_, err := session.Execute(ctx, statement)
	elapsed := c.now().Sub(start).Seconds()
	return models.ExecutionSample{Elapsed: elapsed, Succeeded: err == nil, Err: err}
}

// phaseError converts err into the return value of a query level operation: a lost connection
// is returned, anything else fails the result.
func (c *Collector) phaseError(result *models.QueryResult, err error) error {
	if connection.IsConnectionLost(err) {
		return fmt.Errorf("%w: %w", models.ErrConnectionLost, err)
	}
	log.Warn("Query %s failed: %s", result.Query.Short(40), err)
	result.Fail(fmt.Errorf("%w: %w", models.ErrQueryExecution, err))
	return nil
}

func (c *Collector) prepare(ctx context.Context, session connection.Session, query models.Query) error {
	return session.Exec(ctx, fmt.Sprintf("PREPARE %s AS %s", preparedStatementName, query.Text))
}

func (c *Collector) deallocate(ctx context.Context, session connection.Session) {
	if err := session.Exec(ctx, "DEALLOCATE "+preparedStatementName); err != nil {
		log.Debug("Failed to deallocate prepared statement: %s", err)
	}
}

func executeStatement(query models.Query) string {
	return fmt.Sprintf("EXECUTE %s(%s)", preparedStatementName, strings.Join(query.Parameters, ", "))
}
