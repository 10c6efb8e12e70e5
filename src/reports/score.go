package reports

import (
	"fmt"

	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/results"
)

// ScoreAccuracy is the share of query pairs whose optimizer scores are ordered like their
// timings. Pairs without a score or timing are ignored; it returns 0 without any pair.
func ScoreAccuracy(queries []*models.QueryResult) float64 {
	usable := make([]*models.QueryResult, 0, len(queries))
	for _, q := range queries {
		if q.Succeeded() && q.OptimizerScore != nil {
			usable = append(usable, q)
		}
	}

	pairs, concordant := 0, 0
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			scoreOrder := compare(*usable[i].OptimizerScore, *usable[j].OptimizerScore)
			timeOrder := compare(usable[i].AggregatedTime, usable[j].AggregatedTime)
			pairs++
			if scoreOrder == timeOrder {
				concordant++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(concordant) / float64(pairs)
}

func compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// renderScore reports optimizer scores next to measured timings.
func renderScore(document, pg *results.Document) string {
	doc := newAsciidoc("Optimizer score report: " + document.Model)
	describeDocument(doc, "Database", document)
	if pg != nil {
		describeDocument(doc, "Postgres", pg)
	}
	describeSettings(doc, document.Settings)

	doc.section(1, "Score accuracy")
	doc.line("Share of query pairs ordered the same by score and by timing: *%.1f%%*",
		ScoreAccuracy(document.Queries)*100)
	if pg != nil {
		doc.blank()
		doc.line("Postgres: *%.1f%%*", ScoreAccuracy(pg.Queries)*100)
	}
	doc.blank()

	headers := []string{"Query", "Score", "Time"}
	if pg != nil {
		headers = append(headers, "Postgres score", "Postgres time")
	}
	rows := make([][]string, 0, len(document.Queries))
	for _, result := range document.Queries {
		row := []string{queryTitle(result.Query), result.ScoreString(), formatTime(result)}
		if pg != nil {
			other := counterpart(pg, result.Query)
			score := "-"
			if other != nil {
				score = other.ScoreString()
			}
			row = append(row, score, formatTime(other))
		}
		rows = append(rows, row)
	}
	doc.section(1, "Queries")
	doc.table(headers, rows)

	for _, result := range document.Queries {
		doc.section(2, queryTitle(result.Query))
		doc.source("sql", result.Query.Text)
		writeFailure(doc, "Execution", result)
		writePlan(doc, fmt.Sprintf("Plan, %s s", formatTime(result)), result)
		if pg != nil {
			writePlan(doc, "Postgres plan", counterpart(pg, result.Query))
		}
	}

	return doc.String()
}
