package hints

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taqo-project/taqo/src/queryplan"
)

func TestGenerate_SingleRelation(t *testing.T) {
	variants := Generate("Seq Scan on t1  (cost=0.00..35.50 rows=2550 width=4)")
	assert.Equal(t, []string{"SeqScan(t1)", "IndexScan(t1)"}, variants)
}

func TestGenerate_Join(t *testing.T) {
	plan := `Hash Join  (cost=12.50..45.75 rows=100 width=16)
  ->  Seq Scan on t1 a  (cost=0.00..20.00 rows=1000 width=8)
  ->  Hash  (cost=10.00..10.00 rows=200 width=8)
        ->  Seq Scan on t2 b  (cost=0.00..10.00 rows=200 width=8)`

	variants := Generate(plan)
	assert.Len(t, variants, 4+2*3)
	assert.Equal(t, "SeqScan(a)", variants[0])
	assert.Contains(t, variants, "Leading((a b)) HashJoin(a b)")
	assert.Contains(t, variants, "Leading((b a)) MergeJoin(b a)")
}

func TestGenerate_NoRelations(t *testing.T) {
	assert.Empty(t, Generate("Result  (cost=0.00..0.01 rows=1 width=4)"))
}

func TestForRelations_Capped(t *testing.T) {
	relations := make([]queryplan.Relation, 0)
	for i := 0; i < 10; i++ {
		relations = append(relations, queryplan.Relation{Table: fmt.Sprintf("t%d", i)})
	}

	assert.Len(t, ForRelations(relations), MaxVariants)
}
