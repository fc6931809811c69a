package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// FieldError describes one malformed or missing field
type FieldError struct {
	Source  string // "threats" or "controls"
	Record  string // record ID, or a positional label when the ID is missing
	Field   string
	Problem string
	Line    int
}

func (e FieldError) String() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Record)
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(" ")
	b.WriteString(e.Problem)
	return b.String()
}

// SchemaError is returned when the catalogs cannot be turned into typed records.
// It is fatal: nothing downstream of the loader runs.
type SchemaError struct {
	Problems []FieldError
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 0 {
		return "schema error"
	}
	msg := "schema error: " + e.Problems[0].String()
	if len(e.Problems) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Problems)-1)
	}
	return msg
}

// Lines returns every problem rendered on its own line
func (e *SchemaError) Lines() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.String()
	}
	return out
}

func (e *SchemaError) add(fe FieldError) {
	e.Problems = append(e.Problems, fe)
}

func (e *SchemaError) sort() {
	sort.SliceStable(e.Problems, func(i, j int) bool {
		a, b := e.Problems[i], e.Problems[j]
		if a.Source != b.Source {
			return a.Source > b.Source // threats before controls
		}
		return a.Line < b.Line
	})
}
