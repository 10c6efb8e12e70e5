package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDDLSteps_OrderedIgnoresInputOrder(t *testing.T) {
	steps := NewDDLSteps(DDLDrop, DDLCreate, DDLImport)

	assert.Equal(t, []DDLStep{DDLCreate, DDLImport, DDLDrop}, steps.Ordered())
}

func TestDDLSteps_WithoutAndOnly(t *testing.T) {
	steps := NewDDLSteps(DDLDatabase, DDLCreate, DDLAnalyze, DDLDrop)

	assert.Equal(t, []DDLStep{DDLDatabase, DDLCreate, DDLAnalyze}, steps.Without(DDLDrop).Ordered())
	assert.Equal(t, []DDLStep{DDLDrop}, steps.Only(DDLDrop).Ordered())
	assert.Empty(t, steps.Only(DDLImport).Ordered())
	assert.True(t, steps.Has(DDLDrop), "Without must not mutate the receiver")
}

func TestDDLSteps_String(t *testing.T) {
	assert.Equal(t, "none", NewDDLSteps().String())
	assert.Equal(t, "create,import,drop", NewDDLSteps(DDLDrop, DDLImport, DDLCreate).String())
}

func TestParseDDLStep(t *testing.T) {
	step, ok := ParseDDLStep(" Analyze ")
	assert.True(t, ok)
	assert.Equal(t, DDLAnalyze, step)

	_, ok = ParseDDLStep("truncate")
	assert.False(t, ok)
}
