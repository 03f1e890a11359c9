package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"stationcsv/internal/etl"
)

// RunOnce runs the job a single time.
func (a *App) RunOnce(ctx context.Context) (*etl.Result, error) {
	return a.transform.Run(ctx)
}

// PrintPreview writes the source header and the first n transformed rows.
func (a *App) PrintPreview(ctx context.Context, w io.Writer, n int) error {
	p, err := a.transform.Preview(ctx, n)
	if p == nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "header:\t%s\n", strings.Join(p.Header, ", "))
	fmt.Fprintf(tw, "columns:\t%s\n", strings.Join(p.Schema.FieldNames(), ", "))
	for _, row := range p.Rows {
		fmt.Fprintf(tw, "line %d:\t%s\n", row.Line, strings.Join(row.Strings(), ","))
	}
	if ferr := tw.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// PrintHistory writes the most recent runs, newest first.
func (a *App) PrintHistory(w io.Writer, limit int) error {
	runs, err := a.transform.History(limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tREAD\tWRITTEN\tFAILED LINE\tERROR")
	for _, r := range runs {
		failed := "-"
		if r.FailedLine > 0 {
			failed = fmt.Sprint(r.FailedLine)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.RowsRead, r.RowsWritten, failed, r.Error)
	}
	return tw.Flush()
}

// ClearHistory deletes the recorded runs of the job.
func (a *App) ClearHistory(w io.Writer) error {
	if err := a.transform.ClearHistory(); err != nil {
		return err
	}
	fmt.Fprintln(w, "history cleared")
	return nil
}

// Watch reruns the job whenever the source file changes, until ctx ends.
func (a *App) Watch(ctx context.Context) error {
	if err := a.transform.Watch(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Schedule runs the job on expr (or the configured schedule) until ctx ends.
func (a *App) Schedule(ctx context.Context, expr string) error {
	if expr == "" {
		expr = a.cfg.Schedule
	}
	if expr == "" {
		return fmt.Errorf("schedule: no cron expression given")
	}
	if err := a.transform.Schedule(ctx, expr); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
