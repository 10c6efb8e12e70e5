package reports

import (
	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/queryplan"
)

var selectivityLabels = map[Input]string{
	InputDefaultResults:        "Default",
	InputDefaultAnalyzeResults: "Default analyze",
	InputTaResults:             "Table analyze",
	InputTaAnalyzeResults:      "Table analyze, analyze",
	InputStatsResults:          "Statistics",
	InputStatsAnalyzeResults:   "Statistics, analyze",
}

// renderSelectivity reports how table analysis and optimizer statistics change the plans and
// timings of the default configuration.
func renderSelectivity(documents Documents) string {
	base := documents[InputDefaultResults]
	doc := newAsciidoc("Selectivity report: " + base.Model)
	for _, input := range selectivityInputs {
		describeDocument(doc, selectivityLabels[input], documents[input])
	}

	headers := []string{"Query"}
	for _, input := range selectivityInputs {
		headers = append(headers, selectivityLabels[input])
	}
	headers = append(headers, "Fastest")

	rows := make([][]string, 0, len(base.Queries))
	for _, result := range base.Queries {
		row := []string{queryTitle(result.Query)}
		var fastest *models.QueryResult
		fastestLabel := "-"
		for _, input := range selectivityInputs {
			other := counterpart(documents[input], result.Query)
			row = append(row, formatTime(other))
			if other.Succeeded() && (fastest == nil || other.AggregatedTime < fastest.AggregatedTime) {
				fastest = other
				fastestLabel = selectivityLabels[input]
			}
		}
		rows = append(rows, append(row, fastestLabel))
	}
	doc.section(1, "Timings")
	doc.table(headers, rows)

	doc.section(1, "Plan changes")
	for _, result := range base.Queries {
		changed := make([]Input, 0)
		for _, input := range selectivityInputs[1:] {
			other := counterpart(documents[input], result.Query)
			if other != nil && !queryplan.SamePlan(result.ExecutionPlan, other.ExecutionPlan) {
				changed = append(changed, input)
			}
		}
		if len(changed) == 0 {
			continue
		}

		doc.section(2, queryTitle(result.Query))
		doc.source("sql", result.Query.Text)
		writePlan(doc, selectivityLabels[InputDefaultResults]+" plan", result)
		for _, input := range changed {
			writePlan(doc, selectivityLabels[input]+" plan", counterpart(documents[input], result.Query))
		}
	}

	return doc.String()
}
