package etl

import (
	"fmt"
	"strconv"
)

// ── Record / Row ───────────────────────────────────────────
// Sources emit Records (raw text fields), the transformer turns each one
// into a Row, destinations consume Rows.

// FieldType is the value type of an output column.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
)

// Field describes a single output column.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema describes the shape of the rows a job produces.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Record is one parsed line of the source file.
// Line is the 1-based record number in the source, header included.
type Record struct {
	Line   int      `json:"line"`
	Fields []string `json:"fields"`
}

// Row is the transformed output of exactly one Record.
// Values hold string for text columns and float64 for number columns.
type Row struct {
	Line   int   `json:"line"`
	Values []any `json:"values"`
}

// Strings renders the row as text fields for delimited output.
func (r Row) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = FormatValue(v)
	}
	return out
}

// FormatValue renders a row value. Floats use the shortest representation
// that round-trips, which is what fmt prints for a float64.
func FormatValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(n)
	}
}
