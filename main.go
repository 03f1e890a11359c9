package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stationcsv/internal/app"
	"stationcsv/internal/config"
	"stationcsv/internal/service"
)

const version = "1.0.0"

const usage = `usage: stationcsv [command] [flags]

commands:
  run        transform the input once (default)
  preview    show the first transformed rows without writing
  watch      rerun whenever the input file changes
  schedule   rerun on a cron expression
  history    list recorded runs, or delete them with -clear (needs -state)
  mcp        serve the transform tools over MCP stdio
  shell      interactive prompt for the commands above

flags:
`

func main() {
	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("stationcsv", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "YAML job file")
	in := fs.String("in", "", "input CSV (default "+config.DefaultInput+")")
	out := fs.String("out", "", "output CSV (default "+config.DefaultOutput+")")
	mode := fs.String("mode", "", "write mode: append or replace")
	state := fs.String("state", "", "SQLite file for run history")
	cronExpr := fs.String("cron", "", "cron expression for schedule")
	rows := fs.Int("rows", 10, "rows shown by preview")
	limit := fs.Int("limit", 20, "runs shown by history")
	clearRuns := fs.Bool("clear", false, "history: delete recorded runs")
	quiet := fs.Bool("quiet", false, "do not print source rows")
	fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *in != "" {
		cfg.Source.Path = *in
	}
	if *out != "" {
		cfg.Destination.Path = *out
	}
	if *mode != "" {
		cfg.Destination.Mode = *mode
	}
	if *state != "" {
		cfg.StateDB = *state
	}
	if *quiet {
		cfg.Echo = false
	}

	opts := app.Options{Emitter: service.NoopEmitter{}}
	if cfg.Echo {
		opts.Echo = os.Stdout
	}
	switch cmd {
	case "run", "preview", "history":
	case "watch", "schedule", "shell":
		opts.Emitter = service.LogEmitter{}
	case "mcp":
		// stdout carries the protocol
		opts.Echo = nil
		if cfg.Echo {
			opts.Echo = log.Writer()
		}
	default:
		fs.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfg, opts)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	if cmd == "history" && *clearRuns {
		err = a.ClearHistory(os.Stdout)
	} else {
		err = runCommand(ctx, a, cmd, os.Stdout, *rows, *limit, *cronExpr)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	a.Shutdown(shutdownCtx)
	stop()

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runCommand(ctx context.Context, a *app.App, cmd string, w io.Writer, rows, limit int, cronExpr string) error {
	switch cmd {
	case "preview":
		return a.PrintPreview(ctx, w, rows)
	case "history":
		return a.PrintHistory(w, limit)
	case "watch":
		return a.Watch(ctx)
	case "schedule":
		return a.Schedule(ctx, cronExpr)
	case "mcp":
		return a.ServeMCP(version)
	case "shell":
		return a.Shell(ctx, w, shellHistoryPath())
	default:
		_, err := a.RunOnce(ctx)
		return err
	}
}

func shellHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "stationcsv", "history")
}
