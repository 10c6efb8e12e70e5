package models

import (
	"sort"
	"strings"
)

// DDLStep is one phase of schema lifecycle management.
type DDLStep int

// Declaration order is execution order: later steps depend on earlier ones.
const (
	DDLDatabase DDLStep = iota
	DDLCreate
	DDLImport
	DDLAnalyze
	DDLDrop
)

var ddlStepNames = map[DDLStep]string{
	DDLDatabase: "database",
	DDLCreate:   "create",
	DDLImport:   "import",
	DDLAnalyze:  "analyze",
	DDLDrop:     "drop",
}

func (s DDLStep) String() string {
	if name, ok := ddlStepNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseDDLStep maps a selector token to a step.
func ParseDDLStep(token string) (DDLStep, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	for step, name := range ddlStepNames {
		if name == token {
			return step, true
		}
	}
	return 0, false
}

// DDLSteps is the set of steps requested for a run.
type DDLSteps map[DDLStep]struct{}

// NewDDLSteps builds a set from the given steps.
func NewDDLSteps(steps ...DDLStep) DDLSteps {
	set := make(DDLSteps, len(steps))
	for _, s := range steps {
		set[s] = struct{}{}
	}
	return set
}

// Has reports whether the step was requested.
func (s DDLSteps) Has(step DDLStep) bool {
	_, ok := s[step]
	return ok
}

// Ordered returns the requested steps in dependency order, regardless of input order.
func (s DDLSteps) Ordered() []DDLStep {
	ordered := make([]DDLStep, 0, len(s))
	for step := range s {
		ordered = append(ordered, step)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	return ordered
}

// Without returns a copy of the set minus the given step.
func (s DDLSteps) Without(step DDLStep) DDLSteps {
	out := make(DDLSteps, len(s))
	for k := range s {
		if k != step {
			out[k] = struct{}{}
		}
	}
	return out
}

// Only returns a set holding step if it was requested, empty otherwise.
func (s DDLSteps) Only(step DDLStep) DDLSteps {
	if s.Has(step) {
		return NewDDLSteps(step)
	}
	return NewDDLSteps()
}

func (s DDLSteps) String() string {
	if len(s) == 0 {
		return "none"
	}
	names := make([]string, 0, len(s))
	for _, step := range s.Ordered() {
		names = append(names, step.String())
	}
	return strings.Join(names, ",")
}
