package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"stationcsv/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads records from a local CSV file, one at a time.

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Path to the CSV file"},
			{Key: "delimiter", Label: "Delimiter", Required: false, Default: ",", Help: "Column delimiter (default: comma)"},
			{Key: "hasHeader", Label: "Has Header", Required: false, Options: []string{"true", "false"}, Default: "true", Help: "Whether the first row is a header to skip"},
		},
	}
}

func (s *csvFileSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	r, err := s.open(cfg)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	schema := &etl.Schema{Fields: make([]etl.Field, len(r.header))}
	for i, h := range r.header {
		schema.Fields[i] = etl.Field{Name: h, Type: etl.FieldText}
	}
	return schema, nil
}

func (s *csvFileSource) Open(ctx context.Context, cfg etl.SourceConfig) (etl.RecordReader, error) {
	return s.open(cfg)
}

func (s *csvFileSource) open(cfg etl.SourceConfig) (*csvReader, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	reader := csv.NewReader(f)
	if delim, ok := cfg["delimiter"].(string); ok && len(delim) > 0 {
		reader.Comma = rune(delim[0])
	}
	// Short rows must reach the transformer, not fail inside the parser.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	r := &csvReader{f: f, reader: reader, expect: 1}
	if hasHeader(cfg) {
		header, err := r.read()
		if errors.Is(err, io.EOF) {
			f.Close()
			return nil, fmt.Errorf("empty csv file")
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read header: %w", err)
		}
		if header.Line > 1 {
			// Line 1 is blank, so it is the (empty) header and the
			// record just read is data.
			r.pending = &header
			r.expect = 2
		} else {
			r.header = header.Fields
			r.expect = r.after
		}
	}
	return r, nil
}

func hasHeader(cfg etl.SourceConfig) bool {
	switch v := cfg["hasHeader"].(type) {
	case bool:
		return v
	case string:
		return strings.ToLower(v) != "false"
	default:
		return true
	}
}

// csvReader is the RecordReader for an open CSV file.
// encoding/csv skips blank lines; the reader reports each one as a record
// with no fields so it fails like any other short row.
type csvReader struct {
	f      *os.File
	reader *csv.Reader
	header []string
	closed bool

	expect  int         // physical line the next record is expected on
	pending *etl.Record // record read ahead while reporting blank lines
	after   int         // line following the pending record
	offset  int64       // input offset after the last record
}

func (r *csvReader) Header() []string { return r.header }

func (r *csvReader) Next() (etl.Record, error) {
	if r.pending == nil {
		rec, err := r.read()
		if err != nil {
			return etl.Record{}, err
		}
		r.pending = &rec
	}
	if r.pending.Line > r.expect {
		blank := etl.Record{Line: r.expect}
		r.expect++
		return blank, nil
	}
	rec := *r.pending
	r.pending = nil
	r.expect = r.after
	return rec, nil
}

// read returns the next record with its physical starting line and records
// where the following one should start.
func (r *csvReader) read() (etl.Record, error) {
	fields, err := r.reader.Read()
	if err == io.EOF {
		if off := r.reader.InputOffset(); off > r.offset {
			// Only blank lines were consumed before the end of the file.
			r.offset = off
			r.after = r.expect + 1
			return etl.Record{Line: r.expect}, nil
		}
		return etl.Record{}, io.EOF
	}
	if err != nil {
		return etl.Record{}, fmt.Errorf("parse csv line %d: %w", r.expect, err)
	}

	line, _ := r.reader.FieldPos(0)
	last := len(fields) - 1
	lastLine, _ := r.reader.FieldPos(last)
	r.after = lastLine + strings.Count(fields[last], "\n") + 1
	r.offset = r.reader.InputOffset()
	return etl.Record{Line: line, Fields: fields}, nil
}

func (r *csvReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}
