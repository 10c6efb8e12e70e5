// Package explorer evaluates optimizer hint variants of a query and selects the fastest one.
package explorer

import (
	"context"
	"math"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/connection"
	"github.com/taqo-project/taqo/src/hints"
	"github.com/taqo-project/taqo/src/models"
)

// NearBestTolerance is the relative score band around the best score inside which variants
// are considered equivalent by the optimizer.
const NearBestTolerance = 0.05

// QueryCollector is the part of collector.Collector the explorer drives.
type QueryCollector interface {
	Collect(ctx context.Context, session connection.Session, query models.Query) (*models.QueryResult, error)
	Explain(ctx context.Context, session connection.Session, query models.Query) (*models.QueryResult, error)
	Time(ctx context.Context, session connection.Session, result *models.QueryResult) error
}

type Explorer struct {
	collector         QueryCollector
	allPairsThreshold int
	lookNearBestPlan  bool
	generate          func(plan string) []string
}

func NewExplorer(cfg config.Config, collector QueryCollector) *Explorer {
	return &Explorer{
		collector:         collector,
		allPairsThreshold: cfg.AllPairsThreshold,
		lookNearBestPlan:  cfg.LookNearBestPlan,
		generate:          hints.Generate,
	}
}

// Explore collects the baseline of query and its hint variants. The returned result is the
// baseline with every variant attached, the baseline itself being variant 0, and
// SelectedVariant pointing at the winner.
func (e *Explorer) Explore(ctx context.Context, session connection.Session, query models.Query) (*models.QueryResult, error) {
	baseline, err := e.collector.Collect(ctx, session, query)
	if err != nil {
		return nil, err
	}
	if baseline.Failed || baseline.ExecutionPlan == "" {
		return baseline, nil
	}

	hintSets := e.generate(baseline.ExecutionPlan)
	if len(hintSets) == 0 {
		return baseline, nil
	}

	variants := make([]models.VariantResult, 0, len(hintSets)+1)
	variants = append(variants, models.VariantResult{Result: *baseline})

	if len(hintSets)+1 <= e.allPairsThreshold {
		log.Debug("Timing all %d variants of %s", len(hintSets)+1, query.Short(40))
		for _, h := range hintSets {
			result, err := e.collector.Collect(ctx, session, query.Hinted(h))
			if err != nil {
				return nil, err
			}
			result.Hints = h
			variants = append(variants, models.VariantResult{Hints: h, Result: *result})
		}
	} else {
		log.Debug("Explaining %d variants of %s", len(hintSets)+1, query.Short(40))
		for _, h := range hintSets {
			result, err := e.collector.Explain(ctx, session, query.Hinted(h))
			if err != nil {
				return nil, err
			}
			result.Hints = h
			variants = append(variants, models.VariantResult{Hints: h, Result: *result})
		}

		for _, i := range e.timedVariants(variants) {
			if err := e.collector.Time(ctx, session, &variants[i].Result); err != nil {
				return nil, err
			}
		}
	}

	baseline.Variants = variants
	baseline.SelectedVariant = Select(variants)
	if baseline.SelectedVariant >= 0 {
		log.Debug("Selected variant %d [%s] of %s", baseline.SelectedVariant,
			variants[baseline.SelectedVariant].Hints, query.Short(40))
	}
	return baseline, nil
}

// timedVariants returns the indexes of explained variants worth timing: the best scoring one
// and, when looking near the best plan, every variant within NearBestTolerance of it. The
// baseline at index 0 is already timed.
func (e *Explorer) timedVariants(variants []models.VariantResult) []int {
	best := -1
	for i := 1; i < len(variants); i++ {
		score := variants[i].Result.OptimizerScore
		if variants[i].Result.Failed || score == nil {
			continue
		}
		if best < 0 || *score < *variants[best].Result.OptimizerScore {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	if !e.lookNearBestPlan {
		return []int{best}
	}

	bestScore := *variants[best].Result.OptimizerScore
	timed := make([]int, 0)
	for i := 1; i < len(variants); i++ {
		score := variants[i].Result.OptimizerScore
		if variants[i].Result.Failed || score == nil {
			continue
		}
		if i == best || NearBest(*score, bestScore) {
			timed = append(timed, i)
		}
	}
	return timed
}

// NearBest reports whether score lies within the relative tolerance band around best.
func NearBest(score, best float64) bool {
	return math.Abs(score-best) <= NearBestTolerance*math.Abs(best)
}

// Select returns the index of the variant with the lowest aggregated timing among those with
// usable timings. Ties go to the lowest optimizer score, a missing score ranking last, then to
// the earliest variant. It returns -1 when no variant has a timing.
func Select(variants []models.VariantResult) int {
	selected := -1
	for i := range variants {
		candidate := &variants[i].Result
		if !candidate.Succeeded() {
			continue
		}
		if selected < 0 || better(candidate, &variants[selected].Result) {
			selected = i
		}
	}
	return selected
}

func better(candidate, current *models.QueryResult) bool {
	if candidate.AggregatedTime != current.AggregatedTime {
		return candidate.AggregatedTime < current.AggregatedTime
	}
	switch {
	case candidate.OptimizerScore == nil:
		return false
	case current.OptimizerScore == nil:
		return true
	default:
		return *candidate.OptimizerScore < *current.OptimizerScore
	}
}
