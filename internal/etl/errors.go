package etl

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a run stopped.
type ErrorKind string

const (
	KindIO              ErrorKind = "io"
	KindIndexOutOfRange ErrorKind = "index_out_of_range"
	KindNumericParse    ErrorKind = "numeric_parse"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNumericParse    = errors.New("numeric parse error")
)

// RowError reports a failure tied to one source record.
// Column is the source field index involved, or -1.
type RowError struct {
	Line   int
	Column int
	Kind   ErrorKind
	Err    error
}

func (e *RowError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("line %d, field %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// KindOf returns the error kind carried by err. Errors that are not row
// errors are treated as I/O failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var re *RowError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindIO
}

// LineOf returns the source line a failure happened on, or 0.
func LineOf(err error) int {
	var re *RowError
	if errors.As(err, &re) {
		return re.Line
	}
	return 0
}
