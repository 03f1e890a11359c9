package etl

import (
	"fmt"
	"strconv"
	"strings"
)

// ── Transformer ────────────────────────────────────────────
// A Transformer turns one source Record into one output Row.
// Any error aborts the run; there is no skip path.

// Transformer processes a single record.
type Transformer interface {
	Transform(Record) (Row, error)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Record) (Row, error)

func (f TransformerFunc) Transform(r Record) (Row, error) { return f(r) }

// ColumnTransformer selects and converts fields according to a Mapping.
type ColumnTransformer struct {
	Mapping Mapping
}

// NewColumnTransformer returns a transformer for m, or for DefaultMapping
// when m is empty.
func NewColumnTransformer(m Mapping) *ColumnTransformer {
	if len(m) == 0 {
		m = DefaultMapping
	}
	return &ColumnTransformer{Mapping: m}
}

func (t *ColumnTransformer) Transform(r Record) (Row, error) {
	if need := t.Mapping.MinFields(); len(r.Fields) < need {
		return Row{}, &RowError{
			Line:   r.Line,
			Column: need - 1,
			Kind:   KindIndexOutOfRange,
			Err:    fmt.Errorf("%w: record has %d fields, need %d", ErrIndexOutOfRange, len(r.Fields), need),
		}
	}

	values := make([]any, len(t.Mapping))
	for i, col := range t.Mapping {
		raw := r.Fields[col.Index]
		switch col.Type {
		case FieldNumber:
			f, err := ParseNumber(raw)
			if err != nil {
				return Row{}, &RowError{
					Line:   r.Line,
					Column: col.Index,
					Kind:   KindNumericParse,
					Err:    fmt.Errorf("%w: %q", ErrNumericParse, raw),
				}
			}
			values[i] = f
		default:
			values[i] = raw
		}
	}
	return Row{Line: r.Line, Values: values}, nil
}

// ParseNumber parses a decimal float, ignoring surrounding whitespace.
// Hexadecimal floats, which strconv would accept, are rejected.
func ParseNumber(s string) (float64, error) {
	t := strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(t, "+"), "-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, &strconv.NumError{Func: "ParseNumber", Num: t, Err: strconv.ErrSyntax}
	}
	return strconv.ParseFloat(t, 64)
}
