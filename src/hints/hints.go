// Package hints builds optimizer hint combinations, in pg_hint_plan syntax, for the relations
// of a captured plan.
package hints

import (
	"fmt"

	"github.com/taqo-project/taqo/src/queryplan"
)

// MaxVariants caps the number of generated combinations per query.
const MaxVariants = 64

var (
	scanMethods = []string{"SeqScan", "IndexScan"}
	joinMethods = []string{"HashJoin", "NestLoop", "MergeJoin"}
)

// Generate returns the hint combinations to explore for plan, in a stable order. The empty
// baseline is not part of the result.
func Generate(plan string) []string {
	return ForRelations(queryplan.Relations(plan))
}

// ForRelations returns scan hints for every relation followed by a forced join order and
// join method for every ordered pair.
func ForRelations(relations []queryplan.Relation) []string {
	variants := make([]string, 0)
	add := func(hint string) bool {
		if len(variants) >= MaxVariants {
			return false
		}
		variants = append(variants, hint)
		return true
	}

	for _, relation := range relations {
		for _, method := range scanMethods {
			if !add(fmt.Sprintf("%s(%s)", method, relation.Name())) {
				return variants
			}
		}
	}

	for i, outer := range relations {
		for j, inner := range relations {
			if i == j {
				continue
			}
			for _, method := range joinMethods {
				hint := fmt.Sprintf("Leading((%s %s)) %s(%s %s)",
					outer.Name(), inner.Name(), method, outer.Name(), inner.Name())
				if !add(hint) {
					return variants
				}
			}
		}
	}

	return variants
}
