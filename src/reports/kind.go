// Package reports renders results documents as asciidoc or xlsx reports.
package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taqo-project/taqo/src/models"
)

// Kind is a report type. The set is closed; ParseKind rejects anything else.
type Kind string

const (
	KindTaqo          Kind = "taqo"
	KindScore         Kind = "score"
	KindScoreXLS      Kind = "score_xls"
	KindRegression    Kind = "regression"
	KindRegressionXLS Kind = "regression_xls"
	KindComparison    Kind = "comparison"
	KindSelectivity   Kind = "selectivity"
)

// Input names one results document a report reads.
type Input string

const (
	InputResults               Input = "results"
	InputPgResults             Input = "pg_results"
	InputV1Results             Input = "v1_results"
	InputV2Results             Input = "v2_results"
	InputDefaultResults        Input = "default_results"
	InputDefaultAnalyzeResults Input = "default_analyze_results"
	InputTaResults             Input = "ta_results"
	InputTaAnalyzeResults      Input = "ta_analyze_results"
	InputStatsResults          Input = "stats_results"
	InputStatsAnalyzeResults   Input = "stats_analyze_results"
)

// Inputs maps each input to the path of its results document. Empty paths are absent inputs.
type Inputs map[Input]string

type kindSpec struct {
	required []Input
	optional []Input
	xlsx     bool
}

var selectivityInputs = []Input{
	InputDefaultResults, InputDefaultAnalyzeResults,
	InputTaResults, InputTaAnalyzeResults,
	InputStatsResults, InputStatsAnalyzeResults,
}

var kinds = map[Kind]kindSpec{
	KindTaqo:          {required: []Input{InputResults}, optional: []Input{InputPgResults}},
	KindScore:         {required: []Input{InputResults}, optional: []Input{InputPgResults}},
	KindScoreXLS:      {required: []Input{InputResults}, xlsx: true},
	KindRegression:    {required: []Input{InputV1Results, InputV2Results}},
	KindRegressionXLS: {required: []Input{InputV1Results, InputV2Results}, xlsx: true},
	KindComparison:    {required: []Input{InputResults, InputPgResults}},
	KindSelectivity:   {required: selectivityInputs},
}

// Kinds lists every report kind in name order.
func Kinds() []Kind {
	all := make([]Kind, 0, len(kinds))
	for kind := range kinds {
		all = append(all, kind)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// ParseKind maps a --type value to a Kind.
func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[kind]; !ok {
		names := make([]string, 0, len(kinds))
		for _, k := range Kinds() {
			names = append(names, string(k))
		}
		return "", fmt.Errorf("%w: unknown report type %q, expected one of %s",
			models.ErrConfiguration, s, strings.Join(names, "|"))
	}
	return kind, nil
}

// RequiredInputs lists the results documents the report cannot be built without.
func (k Kind) RequiredInputs() []Input {
	return kinds[k].required
}

// OptionalInputs lists the results documents the report uses when given.
func (k Kind) OptionalInputs() []Input {
	return kinds[k].optional
}

// IsSpreadsheet reports whether the kind renders to xlsx rather than asciidoc.
func (k Kind) IsSpreadsheet() bool {
	return kinds[k].xlsx
}

// Validate checks that every required input has a path.
func (k Kind) Validate(inputs Inputs) error {
	missing := make([]string, 0)
	for _, input := range k.RequiredInputs() {
		if inputs[input] == "" {
			missing = append(missing, "-"+string(input))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s report requires %s", models.ErrConfiguration, k, strings.Join(missing, ", "))
	}
	return nil
}
