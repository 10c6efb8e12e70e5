package models

import (
	"fmt"
	"strings"
)

// Query is one statement of the workload produced by the model. Its identity is its position
// and text in the generated query set.
type Query struct {
	Tag        string   `json:"tag"`
	Text       string   `json:"query"`
	Parameters []string `json:"parameters,omitempty"`
}

// IsParametrized reports whether the query carries values for a prepared execution.
func (q Query) IsParametrized() bool {
	return len(q.Parameters) > 0
}

// Explain returns the query prefixed with the explain clause.
func (q Query) Explain(clause string) string {
	return fmt.Sprintf("%s %s", strings.TrimSpace(clause), q.Text)
}

// Hinted returns a copy of the query annotated with an optimizer hint comment.
func (q Query) Hinted(hints string) Query {
	if hints == "" {
		return q
	}
	hinted := q
	hinted.Text = fmt.Sprintf("/*+ %s */ %s", hints, q.Text)
	return hinted
}

// Short returns the first n characters of the query text, for log lines.
func (q Query) Short(n int) string {
	text := strings.Join(strings.Fields(q.Text), " ")
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
