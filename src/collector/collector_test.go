package collector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/models"
)

var (
	errSyntax      = errors.New("syntax error at or near")
	errConnection  = &pgconn.PgError{Code: "08006", Message: "connection failure"}
	errStmtTimeout = &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
)

const seqScanPlan = "Seq Scan on t1  (cost=0.00..35.50 rows=2550 width=4)"

// fakeSession advances clock by the next duration on every Execute call and fails the calls
// listed in executeErrs.
type fakeSession struct {
	clock       time.Time
	durations   []time.Duration
	executeErrs map[int]error
	explainRows []string
	explainErr  error

	executed []string
	execs    []string
}

func (s *fakeSession) Exec(_ context.Context, statement string) error {
	s.execs = append(s.execs, statement)
	return nil
}

func (s *fakeSession) Execute(_ context.Context, query string) (int, error) {
	call := len(s.executed)
	s.executed = append(s.executed, query)
	if call < len(s.durations) {
		s.clock = s.clock.Add(s.durations[call])
	}
	return 1, s.executeErrs[call]
}

func (s *fakeSession) FetchColumn(_ context.Context, _ string) ([]string, error) {
	return s.explainRows, s.explainErr
}

func (s *fakeSession) SetStatementTimeout(ctx context.Context, seconds int) error {
	return s.Exec(ctx, "timeout")
}

func seconds(values ...float64) []time.Duration {
	durations := make([]time.Duration, len(values))
	for i, v := range values {
		durations[i] = time.Duration(v * float64(time.Second))
	}
	return durations
}

func newTestCollector(session *fakeSession, configure func(*config.Config)) *Collector {
	cfg := config.Default()
	cfg.NumWarmup = 0
	cfg.NumRetries = 2
	if configure != nil {
		configure(&cfg)
	}
	c := NewCollector(cfg)
	c.now = func() time.Time { return session.clock }
	return c
}

var testQuery = models.Query{Text: "SELECT * FROM t1"}

func TestCollect_WarmupDiscarded(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		durations:   seconds(10, 10, 1, 2, 3),
	}
	c := newTestCollector(session, func(cfg *config.Config) {
		cfg.NumWarmup = 2
		cfg.NumRetries = 3
	})

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Len(t, session.executed, 5)
	assert.Equal(t, []float64{1, 2, 3}, result.Samples)
	assert.InDelta(t, 2.0, result.AggregatedTime, 1e-9)
	assert.False(t, result.Failed)
	require.NotNil(t, result.OptimizerScore)
	assert.InDelta(t, 35.5, *result.OptimizerScore, 1e-9)
	assert.Equal(t, seqScanPlan, result.ExecutionPlan)
}

func TestCollect_WarmupFailureIgnored(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		durations:   seconds(1, 2, 4),
		executeErrs: map[int]error{0: errSyntax},
	}
	c := newTestCollector(session, func(cfg *config.Config) { cfg.NumWarmup = 1 })

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Len(t, session.executed, 3)
	assert.Equal(t, []float64{2, 4}, result.Samples)
}

func TestCollect_Median(t *testing.T) {
	session := &fakeSession{explainRows: []string{seqScanPlan}, durations: seconds(1, 2, 9)}
	c := newTestCollector(session, func(cfg *config.Config) {
		cfg.NumRetries = 3
		cfg.Aggregation = models.AggregationMedian
	})

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.AggregatedTime, 1e-9)
}

func TestCollect_RetriesOnce(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		durations:   seconds(5, 1, 2),
		executeErrs: map[int]error{0: errSyntax},
	}
	c := newTestCollector(session, nil)

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Len(t, session.executed, 3)
	assert.Equal(t, []float64{1, 2}, result.Samples)
	assert.False(t, result.Failed)
}

func TestCollect_FailsAfterSecondFailure(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		durations:   seconds(1, 1, 1),
		executeErrs: map[int]error{1: errSyntax, 2: errSyntax},
	}
	c := newTestCollector(session, nil)

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Empty(t, result.Samples)
	assert.Contains(t, result.FailureReason, models.ErrQueryExecution.Error())
	assert.False(t, result.Succeeded())
}

func TestCollect_ConnectionLost(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		executeErrs: map[int]error{0: errConnection},
	}
	c := newTestCollector(session, nil)

	result, err := c.Collect(context.Background(), session, testQuery)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, models.ErrConnectionLost))
	assert.Len(t, session.executed, 1)
}

func TestCollect_StatementTimeoutRetried(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		durations:   seconds(30, 1, 2),
		executeErrs: map[int]error{0: errStmtTimeout},
	}
	c := newTestCollector(session, func(cfg *config.Config) { cfg.TestQueryTimeout = 30 })

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Len(t, session.executed, 3)
	assert.Equal(t, []float64{1, 2}, result.Samples)
	assert.False(t, result.Failed)
}

func TestCollect_StatementTimeoutAfterGoodSampleFails(t *testing.T) {
	session := &fakeSession{
		explainRows: []string{seqScanPlan},
		durations:   seconds(1, 30, 30),
		executeErrs: map[int]error{1: errStmtTimeout, 2: errStmtTimeout},
	}
	c := newTestCollector(session, func(cfg *config.Config) {
		cfg.NumRetries = 3
		cfg.TestQueryTimeout = 30
	})

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Len(t, session.executed, 3)
	assert.True(t, result.Failed)
	assert.Empty(t, result.Samples)
	assert.Zero(t, result.AggregatedTime)
	assert.Contains(t, result.FailureReason, models.ErrQueryExecution.Error())
	assert.False(t, result.Succeeded())
}

func TestCollect_PlanParseFailureKeepsTiming(t *testing.T) {
	session := &fakeSession{explainRows: []string{"Result"}, durations: seconds(1, 3)}
	c := newTestCollector(session, nil)

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Nil(t, result.OptimizerScore)
	assert.Equal(t, "n/a", result.ScoreString())
	assert.InDelta(t, 2.0, result.AggregatedTime, 1e-9)
}

func TestCollect_ExplainFailure(t *testing.T) {
	session := &fakeSession{explainErr: errSyntax}
	c := newTestCollector(session, nil)

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Empty(t, session.executed)
}

func TestCollect_ExplainConnectionLost(t *testing.T) {
	session := &fakeSession{explainErr: errConnection}
	c := newTestCollector(session, nil)

	_, err := c.Collect(context.Background(), session, testQuery)
	assert.True(t, errors.Is(err, models.ErrConnectionLost))
}

func TestCollect_PlansOnly(t *testing.T) {
	session := &fakeSession{explainRows: []string{seqScanPlan}}
	c := newTestCollector(session, func(cfg *config.Config) { cfg.PlansOnly = true })

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.Empty(t, session.executed)
	assert.Equal(t, []float64{35.5}, result.Samples)
	assert.InDelta(t, 35.5, result.AggregatedTime, 1e-9)
}

func TestCollect_PlansOnlyWithoutScore(t *testing.T) {
	session := &fakeSession{explainRows: []string{"Result"}}
	c := newTestCollector(session, func(cfg *config.Config) { cfg.PlansOnly = true })

	result, err := c.Collect(context.Background(), session, testQuery)
	require.NoError(t, err)
	assert.True(t, result.Failed)
}

func TestCollect_Parametrized(t *testing.T) {
	session := &fakeSession{explainRows: []string{seqScanPlan}, durations: seconds(1, 1)}
	c := newTestCollector(session, func(cfg *config.Config) { cfg.Parametrized = true })

	query := models.Query{Text: "SELECT * FROM t1 WHERE id = $1", Parameters: []string{"42"}}
	result, err := c.Collect(context.Background(), session, query)
	require.NoError(t, err)
	assert.Len(t, result.Samples, 2)
	for _, executed := range session.executed {
		assert.Equal(t, "EXECUTE taqo_query(42)", executed)
	}

	prepares := 0
	for _, exec := range session.execs {
		if strings.HasPrefix(exec, "PREPARE taqo_query AS SELECT") {
			prepares++
		}
	}
	assert.Equal(t, 2, prepares)
	assert.Equal(t, "DEALLOCATE taqo_query", session.execs[len(session.execs)-1])
}
