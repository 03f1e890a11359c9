package etl

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ── Job ────────────────────────────────────────────────────
// Orchestrates: source.Open → per-record transform → destination.Write.

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Job holds the configuration for one source → destination transform.
type Job struct {
	Name       string            `json:"name"`
	SourceType string            `json:"sourceType"`
	SourceCfg  SourceConfig      `json:"sourceConfig"`
	DestType   string            `json:"destinationType"`
	DestCfg    DestinationConfig `json:"destinationConfig"`
	Mode       WriteMode         `json:"mode"`
	Mapping    Mapping           `json:"mapping,omitempty"`
}

// Result is the outcome of running a job.
// Counts are valid even when the run failed part way.
type Result struct {
	RunID       string        `json:"runId,omitempty"`
	Job         string        `json:"job"`
	Status      string        `json:"status"`
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	Duration    time.Duration `json:"duration"`
	ErrorKind   ErrorKind     `json:"errorKind,omitempty"`
	FailedLine  int           `json:"failedLine,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RunLog is a historical record of a run.
type RunLog struct {
	ID          string    `json:"id"`
	Job         string    `json:"job"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Status      string    `json:"status"`
	RowsRead    int       `json:"rowsRead"`
	RowsWritten int       `json:"rowsWritten"`
	ErrorKind   string    `json:"errorKind,omitempty"`
	FailedLine  int       `json:"failedLine,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs jobs against the registered sources and destinations.
// Echo, when set, receives every source record before it is transformed.
type Engine struct {
	Echo        io.Writer
	Transformer Transformer
}

// Run executes a job end-to-end. It stops at the first failing record;
// rows written before it stay written.
func (e *Engine) Run(ctx context.Context, job *Job) (*Result, error) {
	start := time.Now()
	result := &Result{Job: job.Name, Status: StatusRunning}

	err := e.run(ctx, job, result)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		result.ErrorKind = KindOf(err)
		result.FailedLine = LineOf(err)
		return result, err
	}
	result.Status = StatusSuccess
	return result, nil
}

func (e *Engine) run(ctx context.Context, job *Job, result *Result) (err error) {
	source, err := GetSource(job.SourceType)
	if err != nil {
		return err
	}
	dest, err := GetDestination(job.DestType)
	if err != nil {
		return err
	}
	transformer := e.transformer(job)

	reader, err := source.Open(ctx, job.SourceCfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer reader.Close()

	writer, err := dest.Open(ctx, job.DestCfg, e.schema(job), job.Mode)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close destination: %w", cerr)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		result.RowsRead++
		e.echo(rec)

		row, err := transformer.Transform(rec)
		if err != nil {
			return err
		}
		if err := writer.Write(ctx, row); err != nil {
			return &RowError{Line: rec.Line, Column: -1, Kind: KindIO, Err: fmt.Errorf("write: %w", err)}
		}
		result.RowsWritten++
	}
}

// Preview reads at most maxRows records and transforms them without writing.
// On a transform failure it returns what it has so far plus the error.
func (e *Engine) Preview(ctx context.Context, job *Job, maxRows int) (*Preview, error) {
	source, err := GetSource(job.SourceType)
	if err != nil {
		return nil, err
	}
	sourceSchema, err := source.Discover(ctx, job.SourceCfg)
	if err != nil {
		return nil, fmt.Errorf("discover source: %w", err)
	}
	reader, err := source.Open(ctx, job.SourceCfg)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer reader.Close()

	p := &Preview{Header: sourceSchema.FieldNames(), Schema: e.schema(job)}
	transformer := e.transformer(job)
	for len(p.Records) < maxRows {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, fmt.Errorf("read: %w", err)
		}
		p.Records = append(p.Records, rec)
		row, err := transformer.Transform(rec)
		if err != nil {
			return p, err
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

// Preview is the response of Engine.Preview.
type Preview struct {
	Header  []string `json:"header"`
	Schema  *Schema  `json:"schema"`
	Records []Record `json:"records"`
	Rows    []Row    `json:"rows"`
}

func (e *Engine) transformer(job *Job) Transformer {
	if e.Transformer != nil {
		return e.Transformer
	}
	return NewColumnTransformer(job.Mapping)
}

func (e *Engine) schema(job *Job) *Schema {
	if len(job.Mapping) == 0 {
		return DefaultMapping.Schema()
	}
	return job.Mapping.Schema()
}

func (e *Engine) echo(rec Record) {
	if e.Echo == nil {
		return
	}
	fmt.Fprintf(e.Echo, "%q\n", rec.Fields)
}
