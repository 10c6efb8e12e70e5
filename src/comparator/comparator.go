// Package comparator classifies each query of a candidate run against a reference run.
package comparator

import (
	"math"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/models"
)

type Comparator struct {
	skipPercentageDelta float64
	timeoutThreshold    float64
}

func NewComparator(cfg config.Config) *Comparator {
	return &Comparator{
		skipPercentageDelta: cfg.SkipPercentageDelta,
		timeoutThreshold:    cfg.TestQueryTimeoutSeconds() - cfg.SkipTimeoutDelta,
	}
}

// Compare classifies the selected timings of reference and candidate. The delta is relative
// to the faster of the two, so swapping the arguments negates it and inverts the
// classification. Both boundaries are multiplicative: IMPROVED needs r > c*(1+p), so a
// candidate at 0.951 of the reference is IMPROVED although (c-r)/r is above -p.
func (c *Comparator) Compare(reference, candidate *models.QueryResult) models.ComparisonResult {
	row := models.ComparisonResult{
		Reference:      reference,
		Candidate:      candidate,
		Classification: models.Skipped,
	}
	if !reference.Succeeded() || !candidate.Succeeded() {
		return row
	}

	r := reference.Best().AggregatedTime
	cand := candidate.Best().AggregatedTime
	if r > c.timeoutThreshold || cand > c.timeoutThreshold {
		return row
	}

	if lo := math.Min(r, cand); lo > 0 {
		row.Delta = (cand - r) / lo
	}

	switch {
	case cand > r*(1+c.skipPercentageDelta):
		row.Classification = models.Regressed
	case r > cand*(1+c.skipPercentageDelta):
		row.Classification = models.Improved
	default:
		row.Classification = models.Unchanged
	}
	return row
}

// CompareAll pairs two result lists by position. A pair whose texts differ is re-matched by
// query text; a query without a counterpart is compared against nil and ends up SKIPPED.
func (c *Comparator) CompareAll(references, candidates []*models.QueryResult) []models.ComparisonResult {
	byText := make(map[string]*models.QueryResult, len(candidates))
	for _, candidate := range candidates {
		if candidate != nil {
			byText[candidate.Query.Text] = candidate
		}
	}

	rows := make([]models.ComparisonResult, 0, len(references))
	for i, reference := range references {
		if reference == nil {
			continue
		}
		var candidate *models.QueryResult
		if i < len(candidates) && candidates[i] != nil && candidates[i].Query.Text == reference.Query.Text {
			candidate = candidates[i]
		} else {
			candidate = byText[reference.Query.Text]
		}
		if candidate == nil {
			log.Warn("No candidate result for query %s", reference.Query.Short(40))
		}
		rows = append(rows, c.Compare(reference, candidate))
	}
	return rows
}
