package destinations

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"stationcsv/internal/etl"
)

// ── CSV File Destination ────────────────────────────────────
// Writes rows to a local CSV file without a header line.

type csvFileDestination struct{}

func init() { etl.RegisterDestination(&csvFileDestination{}) }

func (d *csvFileDestination) Spec() etl.DestinationSpec {
	return etl.DestinationSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Output CSV file, created if missing"},
			{Key: "delimiter", Label: "Delimiter", Default: ",", Help: "Column delimiter (default: comma)"},
			{Key: "crlf", Label: "CRLF line endings", Options: []string{"true", "false"}, Default: "false"},
		},
	}
}

func (d *csvFileDestination) Open(ctx context.Context, cfg etl.DestinationConfig, schema *etl.Schema, mode etl.WriteMode) (etl.RowWriter, error) {
	filePath := stringOpt(cfg, "filePath")
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	flags := os.O_CREATE | os.O_WRONLY
	if mode == etl.WriteReplace {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	w := csv.NewWriter(f)
	if delim := stringOpt(cfg, "delimiter"); len(delim) > 0 {
		w.Comma = rune(delim[0])
	}
	w.UseCRLF = stringOpt(cfg, "crlf") == "true"
	return &csvRowWriter{f: f, w: w}, nil
}

type csvRowWriter struct {
	f *os.File
	w *csv.Writer
}

// Write flushes after every row so rows survive a later failure.
func (c *csvRowWriter) Write(ctx context.Context, row etl.Row) error {
	if err := c.w.Write(row.Strings()); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvRowWriter) Close() error {
	c.w.Flush()
	werr := c.w.Error()
	if err := c.f.Close(); err != nil {
		return err
	}
	return werr
}
