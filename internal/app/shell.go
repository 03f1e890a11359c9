package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

const shellHelp = `commands:
  run                 transform the input once
  preview [n]         show the first n transformed rows (default 10)
  history [n]         list the last n runs (default 20)
  clear-history       delete the recorded runs
  watch               rerun whenever the input file changes
  schedule <cron>     rerun on a cron expression, e.g. schedule @every 1m
  stop                stop watching and scheduling
  status              show whether a run is in progress
  exit                leave the shell
`

var errShellExit = errors.New("exit")

// Shell runs an interactive prompt until the user exits or ctx ends.
// History is kept in historyPath when it is not empty.
func (a *App) Shell(ctx context.Context, w io.Writer, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(in string) []string {
		var out []string
		for _, c := range []string{"run", "preview", "history", "clear-history", "watch", "schedule", "stop", "status", "help", "exit"} {
			if strings.HasPrefix(c, in) {
				out = append(out, c)
			}
		}
		return out
	})

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(line, historyPath)
	}

	for ctx.Err() == nil {
		in, err := line.Prompt("stationcsv> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(w)
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: %w", err)
		}

		fields := strings.Fields(in)
		if len(fields) == 0 {
			continue
		}
		line.AppendHistory(in)

		if err := a.execShell(ctx, w, fields); err != nil {
			if errors.Is(err, errShellExit) {
				return nil
			}
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return nil
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// execShell runs one shell command line.
func (a *App) execShell(ctx context.Context, w io.Writer, fields []string) error {
	switch fields[0] {
	case "run":
		res, err := a.RunOnce(ctx)
		if res != nil {
			fmt.Fprintf(w, "%s: read %d, wrote %d\n", res.Status, res.RowsRead, res.RowsWritten)
		}
		return err
	case "preview":
		n, err := countArg(fields, 10)
		if err != nil {
			return err
		}
		return a.PrintPreview(ctx, w, n)
	case "history":
		n, err := countArg(fields, 20)
		if err != nil {
			return err
		}
		return a.PrintHistory(w, n)
	case "clear-history":
		return a.ClearHistory(w)
	case "watch":
		return a.transform.Watch(ctx)
	case "schedule":
		if len(fields) < 2 {
			return fmt.Errorf("missing cron expression")
		}
		return a.transform.Schedule(ctx, strings.Join(fields[1:], " "))
	case "stop":
		a.transform.Stop()
		return nil
	case "status":
		if a.transform.IsRunning() {
			fmt.Fprintln(w, "running")
		} else {
			fmt.Fprintln(w, "idle")
		}
		return nil
	case "help":
		fmt.Fprint(w, shellHelp)
		return nil
	case "exit", "quit":
		return errShellExit
	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

func countArg(fields []string, def int) (int, error) {
	if len(fields) < 2 {
		return def, nil
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count %q", fields[1])
	}
	return n, nil
}
