package reports

import (
	"github.com/taqo-project/taqo/src/comparator"
	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/queryplan"
	"github.com/taqo-project/taqo/src/results"
)

// renderComparison compares a run against a Postgres run of the same model. Postgres is the
// reference: REGRESSED means slower than Postgres.
func renderComparison(document, pg *results.Document, cmp *comparator.Comparator) string {
	doc := newAsciidoc("Comparison report: " + document.Model)
	describeDocument(doc, "Database", document)
	describeDocument(doc, "Postgres", pg)

	rows := cmp.CompareAll(pg.Queries, document.Queries)
	writeSummary(doc, rows)

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			queryTitle(row.Reference.Query),
			formatTime(row.Reference),
			formatTime(row.Candidate),
			formatDelta(row),
			row.Classification.String(),
		})
	}
	doc.section(1, "Queries")
	doc.table([]string{"Query", "Postgres", "Database", "Delta", "Result"}, table)

	for _, row := range rows {
		doc.section(2, queryTitle(row.Reference.Query))
		doc.source("sql", row.Reference.Query.Text)
		writeFailure(doc, "Postgres", row.Reference)
		writeFailure(doc, "Database", row.Candidate)
		writePlan(doc, "Postgres plan", row.Reference.Best())
		if row.Candidate != nil {
			writePlan(doc, "Database plan", row.Candidate.Best())
		}
	}

	return doc.String()
}

func writeSummary(doc *asciidoc, rows []models.ComparisonResult) {
	summary := models.Summarize(rows)
	doc.section(1, "Summary")
	doc.table(
		[]string{models.Improved.String(), models.Regressed.String(), models.Unchanged.String(), models.Skipped.String()},
		[][]string{{
			itoa(summary[models.Improved]), itoa(summary[models.Regressed]),
			itoa(summary[models.Unchanged]), itoa(summary[models.Skipped]),
		}})
}

// planChanged reports whether the selected plans of a row differ in shape.
func planChanged(row models.ComparisonResult) bool {
	if row.Reference == nil || row.Candidate == nil {
		return false
	}
	return !queryplan.SamePlan(row.Reference.Best().ExecutionPlan, row.Candidate.Best().ExecutionPlan)
}
