package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taqo-project/taqo/src/args"
	"github.com/taqo-project/taqo/src/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taqo.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func baseArguments(configPath string) args.ArgumentList {
	return args.ArgumentList{
		Config:    configPath,
		Host:      "127.0.0.1",
		Port:      "5433",
		Model:     "simple",
		Ddls:      "create,import,drop",
		NumWarmup: -1,
		CleanDb:   true,
	}
}

func TestNew_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := New(baseArguments(filepath.Join(t.TempDir(), "absent.yml")))
	require.NoError(t, err)

	assert.Equal(t, NumRetriesDefault, cfg.NumRetries)
	assert.Equal(t, NumWarmupDefault, cfg.NumWarmup)
	assert.Equal(t, SkipPercentageDeltaDefault, cfg.SkipPercentageDelta)
	assert.Equal(t, TestQueryTimeoutDefault, cfg.TestQueryTimeout)
	assert.Equal(t, ExplainClauseDefault, cfg.ExplainClause)
	assert.True(t, cfg.LookNearBestPlan)
	assert.Equal(t, models.AggregationMean, cfg.Aggregation)
	assert.Equal(t, []models.DDLStep{models.DDLCreate, models.DDLImport, models.DDLDrop}, cfg.DDLs.Ordered())
}

func TestNew_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
num-retries: 3
num-warmup: 1
skip-percentage-delta: 0.1
look-near-best-plan: false
aggregation: median
explain-clause: EXPLAIN (COSTS ON)
session-props:
  - SET enable_hashjoin = off
database:
  kind: command
  start-command: yugabyted start
`)

	cfg, err := New(baseArguments(path))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.NumRetries)
	assert.Equal(t, 1, cfg.NumWarmup)
	assert.Equal(t, 0.1, cfg.SkipPercentageDelta)
	assert.False(t, cfg.LookNearBestPlan)
	assert.Equal(t, models.AggregationMedian, cfg.Aggregation)
	assert.Equal(t, "EXPLAIN (COSTS ON)", cfg.ExplainClause)
	assert.Equal(t, []string{"SET enable_hashjoin = off"}, cfg.SessionProps)
	assert.Equal(t, "command", cfg.Database.Kind)
	assert.Equal(t, "yugabyted start", cfg.Database.StartCommand)
}

func TestNew_ArgumentsOverrideFile(t *testing.T) {
	path := writeConfig(t, "num-retries: 3\nnum-warmup: 4\ntest-query-timeout: 60\n")

	al := baseArguments(path)
	al.NumRetries = 7
	al.NumWarmup = 0
	al.ExplainClause = "EXPLAIN ANALYZE"

	cfg, err := New(al)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.NumRetries)
	assert.Equal(t, 0, cfg.NumWarmup)
	assert.Equal(t, 60, cfg.TestQueryTimeout)
	assert.Equal(t, "EXPLAIN ANALYZE", cfg.ExplainClause)
}

func TestNew_InvalidFile(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"unknown key", "num-retriez: 3\n"},
		{"bad aggregation", "aggregation: p99\n"},
		{"zero retries", "num-retries: 0\n"},
		{"negative delta", "skip-percentage-delta: -0.5\n"},
		{"bad database kind", "database:\n  kind: docker\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(baseArguments(writeConfig(t, tc.content)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}
}

func TestConfig_StringHidesPassword(t *testing.T) {
	al := baseArguments("")
	al.Password = "s3cret"

	cfg, err := New(al)
	require.NoError(t, err)
	assert.NotContains(t, cfg.String(), "s3cret")
}
