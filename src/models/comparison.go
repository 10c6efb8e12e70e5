package models

// Classification is the outcome of comparing two timings of the same query.
type Classification int

const (
	Unchanged Classification = iota
	Improved
	Regressed
	Skipped
)

func (c Classification) String() string {
	switch c {
	case Improved:
		return "IMPROVED"
	case Regressed:
		return "REGRESSED"
	case Skipped:
		return "SKIPPED"
	default:
		return "UNCHANGED"
	}
}

// Inverse swaps IMPROVED and REGRESSED, leaving the others as they are.
func (c Classification) Inverse() Classification {
	switch c {
	case Improved:
		return Regressed
	case Regressed:
		return Improved
	default:
		return c
	}
}

// ComparisonResult is one row of a regression comparison.
type ComparisonResult struct {
	Reference      *QueryResult
	Candidate      *QueryResult
	Delta          float64
	Classification Classification
}

// Summary counts comparison rows per classification.
type Summary map[Classification]int

// Summarize counts the classifications of rows.
func Summarize(rows []ComparisonResult) Summary {
	summary := make(Summary)
	for _, row := range rows {
		summary[row.Classification]++
	}
	return summary
}
