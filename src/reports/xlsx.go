package reports

import (
	"github.com/xuri/excelize/v2"

	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/results"
)

const (
	scoreSheet      = "Scores"
	regressionSheet = "Regression"
	defaultSheet    = "Sheet1"
)

var classificationFills = map[models.Classification]string{
	models.Regressed: "#FFC7CE",
	models.Improved:  "#C6EFCE",
	models.Skipped:   "#EDEDED",
}

// newWorkbook returns a workbook whose only sheet is named sheet, with a bold header row.
func newWorkbook(sheet string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "B", 80); err != nil {
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// timingValue returns the selected timing or nil, which leaves the cell empty.
func timingValue(result *models.QueryResult) interface{} {
	if !result.Succeeded() {
		return nil
	}
	return result.Best().AggregatedTime
}

func scoreValue(result *models.QueryResult) interface{} {
	if result == nil || result.OptimizerScore == nil {
		return nil
	}
	return *result.OptimizerScore
}

func writeScoreXLSX(path string, document *results.Document) error {
	f, err := newWorkbook(scoreSheet, []string{"Tag", "Query", "Score", "Time", "Hints", "Failure"})
	if err != nil {
		return err
	}
	defer f.Close()

	for i, result := range document.Queries {
		best := result.Best()
		values := []interface{}{result.Query.Tag, result.Query.Text, scoreValue(best), timingValue(result), best.Hints, result.FailureReason}
		if err := setRow(f, scoreSheet, i+2, values); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeRegressionXLSX(path string, v1, v2 *results.Document, rows []models.ComparisonResult) error {
	headers := []string{"Tag", "Query", "Score " + v1.DatabaseVersion, "Time " + v1.DatabaseVersion,
		"Score " + v2.DatabaseVersion, "Time " + v2.DatabaseVersion, "Delta", "Result", "Plan changed"}
	f, err := newWorkbook(regressionSheet, headers)
	if err != nil {
		return err
	}
	defer f.Close()

	styles := make(map[models.Classification]int, len(classificationFills))
	for classification, color := range classificationFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		styles[classification] = style
	}

	for i, row := range rows {
		var candidateScore, candidateTime interface{}
		if row.Candidate != nil {
			candidateScore, candidateTime = scoreValue(row.Candidate.Best()), timingValue(row.Candidate)
		}
		var delta interface{}
		if row.Classification != models.Skipped {
			delta = row.Delta
		}

		values := []interface{}{
			row.Reference.Query.Tag, row.Reference.Query.Text,
			scoreValue(row.Reference.Best()), timingValue(row.Reference),
			candidateScore, candidateTime,
			delta, row.Classification.String(), planChanged(row),
		}
		if err := setRow(f, regressionSheet, i+2, values); err != nil {
			return err
		}

		if style, ok := styles[row.Classification]; ok {
			cell, err := excelize.CoordinatesToCellName(len(headers)-1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(regressionSheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
