package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stationcsv/internal/config"
	"stationcsv/internal/secret"
)

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "garbage_station.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunOnce_EchoesAndRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.Path = writeInput(t, dir, "h0,h1,h2,h3,h4,h5,h6,h7,h8,h9\na,b,c,d,10.5,20.25,e,f,g,h\n")
	cfg.Destination.Path = filepath.Join(dir, "test.csv")
	cfg.StateDB = filepath.Join(dir, "state.db")

	var echo bytes.Buffer
	a, err := New(cfg, Options{Echo: &echo})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if _, err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !strings.Contains(echo.String(), `"10.5"`) {
		t.Errorf("record was not echoed: %q", echo.String())
	}
	if strings.Contains(echo.String(), "h0") {
		t.Errorf("header was echoed: %q", echo.String())
	}

	var hist bytes.Buffer
	if err := a.PrintHistory(&hist, 10); err != nil {
		t.Fatalf("PrintHistory: %v", err)
	}
	if !strings.Contains(hist.String(), "success") {
		t.Errorf("history missing run: %s", hist.String())
	}
}

func TestPrintHistory_WithoutStateDB(t *testing.T) {
	cfg := config.Default()
	a, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if err := a.PrintHistory(&bytes.Buffer{}, 10); err == nil {
		t.Error("expected error when history is disabled")
	}
}

func TestPrintPreview(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.Path = writeInput(t, dir, "h0,h1,h2,h3,h4,h5,h6,h7,h8,h9\na,b,c,d,1e6,-2,e,f,g,h\n")
	cfg.Destination.Path = filepath.Join(dir, "test.csv")

	a, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	var out bytes.Buffer
	if err := a.PrintPreview(context.Background(), &out, 5); err != nil {
		t.Fatalf("PrintPreview: %v", err)
	}
	if !strings.Contains(out.String(), "b,1e+06,-2,f,g,h") {
		t.Errorf("unexpected preview:\n%s", out.String())
	}
	if _, err := os.Stat(cfg.Destination.Path); !os.IsNotExist(err) {
		t.Error("preview created the destination")
	}
}

func TestSchedule_RequiresExpression(t *testing.T) {
	a, err := New(config.Default(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if err := a.Schedule(context.Background(), ""); err == nil {
		t.Error("expected error without a cron expression")
	}
}

func TestNew_ResolvesDestinationSecrets(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "station.db")
	t.Setenv("STATIONCSV_SECRET_STATION_DB", dbPath)

	cfg := config.Default()
	cfg.Source.Path = writeInput(t, dir, "h0,h1,h2,h3,h4,h5,h6,h7,h8,h9\na,b,c,d,10.5,20.25,e,f,g,h\n")
	cfg.Destination = config.Destination{
		Type: "sql_table",
		Mode: "replace",
		Options: map[string]any{
			"driver":    "sqlite",
			"table":     "station",
			"dsnSecret": "station-db",
		},
	}

	a, err := New(cfg, Options{Secrets: secret.NewEnvStore()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if got := a.Transform().Job().DestCfg["dsn"]; got != dbPath {
		t.Fatalf("dsn = %v, want %s", got, dbPath)
	}
	res, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.RowsWritten != 1 {
		t.Errorf("RowsWritten = %d", res.RowsWritten)
	}
}

func TestNew_MissingSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Destination.Options = map[string]any{"passwordSecret": "nowhere"}
	if _, err := New(cfg, Options{Secrets: secret.NewEnvStore()}); err == nil {
		t.Error("expected error for an unresolved secret")
	}
}
