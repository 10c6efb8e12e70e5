package reports

import (
	"strconv"

	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/results"
)

// renderRegression reports the comparison of the two phases of a regression run.
func renderRegression(v1, v2 *results.Document, rows []models.ComparisonResult) string {
	doc := newAsciidoc("Regression report: " + v1.Model)
	describeDocument(doc, "First", v1)
	describeDocument(doc, "Second", v2)
	describeSettings(doc, v1.Settings)

	writeSummary(doc, rows)

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			queryTitle(row.Reference.Query),
			formatTime(row.Reference),
			formatTime(row.Candidate),
			formatDelta(row),
			row.Classification.String(),
			strconv.FormatBool(planChanged(row)),
		})
	}
	doc.section(1, "Queries")
	doc.table([]string{"Query", v1.DatabaseVersion, v2.DatabaseVersion, "Delta", "Result", "Plan changed"}, table)

	for _, classification := range []models.Classification{models.Regressed, models.Improved, models.Skipped} {
		doc.section(1, classification.String())
		for _, row := range rows {
			if row.Classification != classification {
				continue
			}
			doc.section(2, queryTitle(row.Reference.Query))
			doc.source("sql", row.Reference.Query.Text)
			writeFailure(doc, "First version", row.Reference)
			writeFailure(doc, "Second version", row.Candidate)
			writePlan(doc, "First version plan", row.Reference.Best())
			if row.Candidate != nil && planChanged(row) {
				writePlan(doc, "Second version plan", row.Candidate.Best())
			}
		}
	}

	return doc.String()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
