package models

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregation selects how retained samples collapse into one timing. Both versions of a
// comparison must use the same policy.
type Aggregation string

const (
	AggregationMean   Aggregation = "mean"
	AggregationMedian Aggregation = "median"
)

// ParseAggregation accepts "mean" or "median", case-insensitively.
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(strings.ToLower(strings.TrimSpace(s))) {
	case AggregationMean, "":
		return AggregationMean, nil
	case AggregationMedian:
		return AggregationMedian, nil
	default:
		return "", fmt.Errorf("%w: unknown aggregation %q", ErrConfiguration, s)
	}
}

// Apply aggregates the given timings. It returns 0 for an empty slice.
func (a Aggregation) Apply(timings []float64) float64 {
	if len(timings) == 0 {
		return 0
	}
	if a == AggregationMedian {
		sorted := append([]float64(nil), timings...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	}
	var sum float64
	for _, t := range timings {
		sum += t
	}
	return sum / float64(len(timings))
}

// ExecutionSample is one timed run of a query.
type ExecutionSample struct {
	Elapsed   float64
	Succeeded bool
	Err       error
}

// QueryResult aggregates every measurement of one query in one version or configuration.
type QueryResult struct {
	Query          Query           `json:"query"`
	Hints          string          `json:"hints,omitempty"`
	ExecutionPlan  string          `json:"execution_plan"`
	OptimizerScore *float64        `json:"optimizer_score"`
	Samples        []float64       `json:"samples"`
	AggregatedTime float64         `json:"aggregated_time"`
	Aggregation    Aggregation     `json:"aggregation"`
	Failed         bool            `json:"failed"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	Variants       []VariantResult `json:"variants,omitempty"`
	// SelectedVariant indexes Variants; -1 when no variant was selected.
	SelectedVariant int `json:"selected_variant"`
}

// NewQueryResult returns an empty result for q.
func NewQueryResult(q Query, aggregation Aggregation) *QueryResult {
	return &QueryResult{
		Query:           q,
		Samples:         make([]float64, 0),
		Aggregation:     aggregation,
		SelectedVariant: -1,
	}
}

// AddSample retains one successful post-warmup timing.
func (r *QueryResult) AddSample(sample ExecutionSample) {
	if !sample.Succeeded {
		return
	}
	r.Samples = append(r.Samples, sample.Elapsed)
}

// Fail marks the result as failed. Retained samples are dropped so that every downstream
// consumer treats the query as skipped.
func (r *QueryResult) Fail(err error) {
	r.Failed = true
	r.FailureReason = err.Error()
	r.Samples = make([]float64, 0)
	r.AggregatedTime = 0
}

// Freeze computes the aggregated timing from the retained samples.
func (r *QueryResult) Freeze() {
	r.AggregatedTime = r.Aggregation.Apply(r.Samples)
}

// Succeeded reports whether the result carries a usable timing.
func (r *QueryResult) Succeeded() bool {
	return r != nil && !r.Failed && len(r.Samples) > 0
}

// Best returns the selected variant, or the result itself when no variant was selected.
func (r *QueryResult) Best() *QueryResult {
	if r.SelectedVariant < 0 || r.SelectedVariant >= len(r.Variants) {
		return r
	}
	return &r.Variants[r.SelectedVariant].Result
}

// ScoreString formats the optimizer score for reports.
func (r *QueryResult) ScoreString() string {
	if r.OptimizerScore == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *r.OptimizerScore)
}

// VariantResult is a QueryResult produced with a specific hint combination.
type VariantResult struct {
	Hints  string      `json:"hints"`
	Result QueryResult `json:"result"`
}
