package results

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taqo-project/taqo/src/models"
)

func sampleDocument() *Document {
	document := NewDocument("simple", "PostgreSQL 11.2-YB-2.17.1.0-b439", Settings{
		NumRetries:  5,
		NumWarmup:   2,
		Aggregation: models.AggregationMean,
	})

	score := 35.5
	ok := models.NewQueryResult(models.Query{Tag: "a.1", Text: "SELECT * FROM t1"}, models.AggregationMean)
	ok.ExecutionPlan = "Seq Scan on t1  (cost=0.00..35.50 rows=2550 width=4)"
	ok.OptimizerScore = &score
	ok.AddSample(models.ExecutionSample{Elapsed: 0.5, Succeeded: true})
	ok.Freeze()
	ok.Variants = []models.VariantResult{{Result: *ok}, {Hints: "SeqScan(t1)", Result: *ok}}
	ok.SelectedVariant = 1

	failed := models.NewQueryResult(models.Query{Tag: "a.2", Text: "SELECT broken"}, models.AggregationMean)
	failed.Fail(models.ErrQueryExecution)

	document.Queries = append(document.Queries, ok, failed)
	return document
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "v1")

	written, err := Save(path, sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, path+".json", written)

	document, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, document.RunID)
	assert.Equal(t, "simple", document.Model)
	require.Len(t, document.Queries, 2)
	assert.Equal(t, 1, document.Failed())

	first := document.Queries[0]
	require.NotNil(t, first.OptimizerScore)
	assert.InDelta(t, 35.5, *first.OptimizerScore, 1e-9)
	assert.Equal(t, "SeqScan(t1)", first.Best().Hints)

	second := document.Queries[1]
	assert.True(t, second.Failed)
	assert.Nil(t, second.OptimizerScore)
	assert.False(t, second.Succeeded())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "out.json", FileName("out"))
	assert.Equal(t, "out.json", FileName("out.json"))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestLoad_InvalidDocument(t *testing.T) {
	tests := map[string]string{
		"missing run id":  `{"model": "m", "database_version": "v", "collected_at": "2024-01-01T00:00:00Z", "queries": []}`,
		"negative sample": `{"run_id": "r", "model": "m", "database_version": "v", "collected_at": "2024-01-01T00:00:00Z", "queries": [{"query": {"query": "SELECT 1"}, "execution_plan": "", "optimizer_score": null, "samples": [-1], "aggregated_time": 0, "failed": false}]}`,
		"not json":        `not json`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "doc.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := Load(path)
			assert.True(t, errors.Is(err, models.ErrConfiguration))
		})
	}
}
