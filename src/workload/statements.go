package workload

import (
	"strings"
)

// Statement is one SQL statement of a model file with the markers found in the comment lines
// right above it.
type Statement struct {
	Text       string
	Tag        string
	Parameters []string
}

// SplitStatements splits a SQL script on semicolons outside of single quoted literals.
// Comment lines are dropped; "-- tag:" and "-- params:" lines annotate the next statement.
func SplitStatements(script string) []Statement {
	statements := make([]Statement, 0)
	var (
		current  Statement
		buffer   strings.Builder
		inString bool
	)

	emit := func() {
		current.Text = strings.TrimSpace(buffer.String())
		if current.Text != "" {
			statements = append(statements, current)
		}
		current = Statement{}
		buffer.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inString && strings.HasPrefix(trimmed, "--") {
			if strings.TrimSpace(buffer.String()) == "" {
				parseMarker(&current, trimmed)
			}
			continue
		}

		for _, r := range line {
			switch {
			case r == '\'':
				inString = !inString
			case r == ';' && !inString:
				emit()
				continue
			}
			buffer.WriteRune(r)
		}
		buffer.WriteRune('\n')
	}
	emit()

	return statements
}

func parseMarker(statement *Statement, line string) {
	switch {
	case strings.HasPrefix(line, paramsMarker):
		statement.Parameters = make([]string, 0)
		for _, value := range strings.Split(strings.TrimPrefix(line, paramsMarker), ",") {
			if value = strings.TrimSpace(value); value != "" {
				statement.Parameters = append(statement.Parameters, value)
			}
		}
	case strings.HasPrefix(line, tagMarker):
		statement.Tag = strings.TrimSpace(strings.TrimPrefix(line, tagMarker))
	}
}
