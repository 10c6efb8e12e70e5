package reports

import (
	"strconv"

	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/results"
)

// renderTaqo reports what hint exploration found: default against best timing per query,
// optionally next to Postgres.
func renderTaqo(document, pg *results.Document) string {
	doc := newAsciidoc("Taqo report: " + document.Model)
	describeDocument(doc, "Database", document)
	if pg != nil {
		describeDocument(doc, "Postgres", pg)
	}
	describeSettings(doc, document.Settings)

	improved := 0
	for _, result := range document.Queries {
		if result.Succeeded() && result.Best() != result && result.Best().AggregatedTime < result.AggregatedTime {
			improved++
		}
	}

	doc.section(1, "Summary")
	doc.table([]string{"Queries", "Failed", "Faster with hints"}, [][]string{{
		strconv.Itoa(len(document.Queries)), strconv.Itoa(document.Failed()), strconv.Itoa(improved),
	}})

	headers := []string{"Query", "Default", "Best", "Best hints"}
	if pg != nil {
		headers = append(headers, "Postgres")
	}
	rows := make([][]string, 0, len(document.Queries))
	for _, result := range document.Queries {
		row := []string{queryTitle(result.Query), formatTime(result), formatTime(result.Best()), result.Best().Hints}
		if pg != nil {
			row = append(row, formatTime(counterpart(pg, result.Query)))
		}
		rows = append(rows, row)
	}
	doc.section(1, "Queries")
	doc.table(headers, rows)

	for _, result := range document.Queries {
		doc.section(2, queryTitle(result.Query))
		doc.source("sql", result.Query.Text)
		writeFailure(doc, "Default execution", result)
		writePlan(doc, "Default plan", result)
		if best := result.Best(); best.Hints != "" {
			writePlan(doc, "Best plan: "+best.Hints, best)
		}
		if pg != nil {
			writePlan(doc, "Postgres plan", counterpart(pg, result.Query))
		}
		if len(result.Variants) > 0 {
			writeVariants(doc, result)
		}
	}

	return doc.String()
}

func writeVariants(doc *asciidoc, result *models.QueryResult) {
	doc.collapsible("Explored variants", func() {
		rows := make([][]string, 0, len(result.Variants))
		for i, variant := range result.Variants {
			hints := variant.Hints
			if hints == "" {
				hints = "(default)"
			}
			selected := ""
			if i == result.SelectedVariant {
				selected = "*"
			}
			rows = append(rows, []string{selected, hints, variant.Result.ScoreString(), formatTime(&variant.Result)})
		}
		doc.table([]string{"", "Hints", "Score", "Time"}, rows)
	})
}
