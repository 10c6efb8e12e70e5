// Package queryplan extracts the pieces of a textual execution plan the engine relies on:
// the optimizer score of the root node, the scanned relations and a cost-free fingerprint.
package queryplan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/taqo-project/taqo/src/models"
)

var (
	costRegex = regexp.MustCompile(`cost=(\d+(?:\.\d+)?)\.\.(\d+(?:\.\d+)?)`)
	scanRegex = regexp.MustCompile(
		`(?:YB )?(?:Seq Scan|Index Only Scan|Index Scan|Bitmap Heap Scan)(?: Backward)?(?: using \S+)? on (\S+)(?: (\w+))?\s+\(`)
	// estimates and measurements vary between runs without the plan shape changing
	estimateRegex = regexp.MustCompile(`\s*\((?:cost|actual)[^)]*\)`)
)

// Relation is a scanned table as it appears in the plan.
type Relation struct {
	Table string
	Alias string
}

// Name is the identifier hints must use for the relation: the alias when present.
func (r Relation) Name() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Table
}

// ParseOptimizerScore returns the total estimated cost of the root node, read from the first
// line of the plan.
func ParseOptimizerScore(plan string) (float64, error) {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(plan), "\n")
	m := costRegex.FindStringSubmatch(firstLine)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", models.ErrPlanParse, firstLine)
	}

	score, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrPlanParse, err)
	}
	return score, nil
}

// Relations lists the scanned relations of the plan in order of appearance, each name once.
func Relations(plan string) []Relation {
	relations := make([]Relation, 0)
	seen := make(map[string]bool)
	for _, line := range strings.Split(plan, "\n") {
		// Bitmap Index Scan names an index, not a relation.
		if strings.Contains(line, "Bitmap Index Scan") {
			continue
		}
		m := scanRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		relation := Relation{Table: m[1], Alias: m[2]}
		if relation.Alias == relation.Table {
			relation.Alias = ""
		}
		if seen[relation.Name()] {
			continue
		}
		seen[relation.Name()] = true
		relations = append(relations, relation)
	}
	return relations
}

// Fingerprint strips cost estimates and runtime measurements from the plan so that two plans
// of the same shape compare equal.
func Fingerprint(plan string) string {
	lines := strings.Split(strings.TrimSpace(plan), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(estimateRegex.ReplaceAllString(line, ""), " ")
	}
	return strings.Join(lines, "\n")
}

// SamePlan reports whether two plans have the same shape.
func SamePlan(a, b string) bool {
	return Fingerprint(a) == Fingerprint(b)
}
