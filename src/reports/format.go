package reports

import (
	"fmt"
	"strconv"

	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/results"
)

const queryWidth = 60

func formatTime(result *models.QueryResult) string {
	if result == nil {
		return "-"
	}
	if !result.Succeeded() {
		return models.Skipped.String()
	}
	return strconv.FormatFloat(result.AggregatedTime, 'f', 3, 64)
}

func formatDelta(row models.ComparisonResult) string {
	if row.Classification == models.Skipped {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", row.Delta*100)
}

func queryTitle(q models.Query) string {
	if q.Tag == "" {
		return q.Short(queryWidth)
	}
	return fmt.Sprintf("%s: %s", q.Tag, q.Short(queryWidth))
}

func describeDocument(doc *asciidoc, label string, document *results.Document) {
	doc.attribute(label+" version", document.DatabaseVersion)
	doc.attribute(label+" run", fmt.Sprintf("%s (%s)", document.RunID, document.CollectedAt.Format("2006-01-02 15:04:05")))
}

func describeSettings(doc *asciidoc, settings results.Settings) {
	doc.attribute("Retries", fmt.Sprintf("%d (+%d warmup)", settings.NumRetries, settings.NumWarmup))
	doc.attribute("Aggregation", string(settings.Aggregation))
	doc.attribute("Optimizations", strconv.FormatBool(settings.WithOptimizations))
	if settings.PlansOnly {
		doc.attribute("Plans only", "timings are optimizer scores")
	}
}

// counterpart finds the result of the same query in another document.
func counterpart(document *results.Document, query models.Query) *models.QueryResult {
	if document == nil {
		return nil
	}
	for _, result := range document.Queries {
		if result.Query.Text == query.Text {
			return result
		}
	}
	return nil
}

func writePlan(doc *asciidoc, title string, result *models.QueryResult) {
	if result == nil || result.ExecutionPlan == "" {
		return
	}
	doc.line(".%s (score %s)", title, result.ScoreString())
	doc.source("text", result.ExecutionPlan)
}

func writeFailure(doc *asciidoc, label string, result *models.QueryResult) {
	if result != nil && result.Failed {
		doc.line("WARNING: %s failed: %s", label, result.FailureReason)
		doc.blank()
	}
}
