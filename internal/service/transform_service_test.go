package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stationcsv/internal/etl"
	_ "stationcsv/internal/etl/destinations"
	_ "stationcsv/internal/etl/sources"
	"stationcsv/internal/service"
	"stationcsv/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// TransformService tests
// Runs real csv_file jobs in temp dirs with a SQLite run store.
// ─────────────────────────────────────────────────────────────

const (
	headerLine = "id,name,kind,ward,lat,lng,memo,a,b,c\n"
	goodLine   = "1,station-1,burnable,north,35.1,139.2,-,mon,thu,8:00\n"
	badLine    = "2,station-2,burnable,north,N/A,139.2,-,mon,thu,8:00\n"
)

type fixture struct {
	dir     string
	in      string
	out     string
	emitter *service.MockEmitter
	svc     *service.TransformService
}

func newFixture(t *testing.T, input string, withStore bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		in:      filepath.Join(dir, "garbage_station.csv"),
		out:     filepath.Join(dir, "test.csv"),
		emitter: &service.MockEmitter{},
	}
	if err := os.WriteFile(f.in, []byte(input), 0644); err != nil {
		t.Fatal(err)
	}

	job := &etl.Job{
		Name:       "garbage_station",
		SourceType: "csv_file",
		SourceCfg:  etl.SourceConfig{"filePath": f.in},
		DestType:   "csv_file",
		DestCfg:    etl.DestinationConfig{"filePath": f.out},
		Mode:       etl.WriteAppend,
	}

	var runs service.RunLogStore
	if withStore {
		db, err := storage.New(filepath.Join(dir, "state.db"))
		if err != nil {
			t.Fatalf("open state db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		runs = storage.NewRunStore(db)
	}
	f.svc = service.NewTransformService(job, &etl.Engine{}, runs, f.emitter)
	t.Cleanup(f.svc.Stop)
	return f
}

func (f *fixture) lines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.out)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestTransformService_RunSuccess(t *testing.T) {
	f := newFixture(t, headerLine+goodLine+goodLine, true)

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID == "" || result.RowsWritten != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := f.lines(t); len(got) != 2 || got[0] != "station-1,35.1,139.2,mon,thu,8:00" {
		t.Fatalf("unexpected output: %q", got)
	}

	events := f.emitter.Snapshot()
	if len(events) != 1 || events[0].Event != service.EventRunCompleted {
		t.Fatalf("unexpected events: %+v", events)
	}

	history, err := f.svc.History(10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != result.RunID || history[0].Status != etl.StatusSuccess {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestTransformService_RunFailureIsRecorded(t *testing.T) {
	f := newFixture(t, headerLine+goodLine+badLine+goodLine, true)

	result, err := f.svc.Run(context.Background())
	if !errors.Is(err, etl.ErrNumericParse) {
		t.Fatalf("expected numeric parse error, got %v", err)
	}
	if result == nil || result.FailedLine != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := f.lines(t); len(got) != 1 {
		t.Fatalf("only the row before the failure should be written, got %q", got)
	}

	events := f.emitter.Snapshot()
	if len(events) != 1 || events[0].Event != service.EventRunFailed {
		t.Fatalf("unexpected events: %+v", events)
	}

	history, _ := f.svc.History(10)
	if len(history) != 1 {
		t.Fatalf("want 1 history entry, got %d", len(history))
	}
	h := history[0]
	if h.Status != etl.StatusError || h.ErrorKind != "numeric_parse" || h.FailedLine != 3 || h.RowsWritten != 1 {
		t.Errorf("unexpected history entry: %+v", h)
	}
}

func TestTransformService_HistoryDisabled(t *testing.T) {
	f := newFixture(t, headerLine+goodLine, false)
	if _, err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := f.svc.History(10); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestTransformService_RunLogAndClearHistory(t *testing.T) {
	f := newFixture(t, headerLine+goodLine, true)
	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	run, err := f.svc.RunLog(result.RunID)
	if err != nil {
		t.Fatalf("run log: %v", err)
	}
	if run.RowsWritten != 1 || run.Job != "garbage_station" {
		t.Errorf("unexpected run log: %+v", run)
	}
	if _, err := f.svc.RunLog("no-such-run"); err == nil {
		t.Error("expected error for unknown run")
	}

	if err := f.svc.ClearHistory(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	history, err := f.svc.History(10)
	if err != nil || len(history) != 0 {
		t.Fatalf("history after clear = %+v, %v", history, err)
	}
}

func TestTransformService_ClearHistoryDisabled(t *testing.T) {
	f := newFixture(t, headerLine+goodLine, false)
	if err := f.svc.ClearHistory(); err == nil {
		t.Fatal("expected error when history is disabled")
	}
	if _, err := f.svc.RunLog("x"); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestTransformService_Preview(t *testing.T) {
	f := newFixture(t, headerLine+goodLine+goodLine+goodLine, false)

	p, err := f.svc.Preview(context.Background(), 2)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(p.Rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(p.Rows))
	}
	if f.lines(t) != nil {
		t.Fatal("preview must not write output")
	}
	if len(f.emitter.Snapshot()) != 0 {
		t.Fatal("preview must not emit run events")
	}
}

func TestTransformService_RejectsConcurrentRun(t *testing.T) {
	f := newFixture(t, headerLine+goodLine, false)

	block := make(chan struct{})
	release := make(chan struct{})
	slow := etl.TransformerFunc(func(r etl.Record) (etl.Row, error) {
		close(block)
		<-release
		return etl.NewColumnTransformer(nil).Transform(r)
	})
	svc := service.NewTransformService(f.svc.Job(), &etl.Engine{Transformer: slow}, nil, f.emitter)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background())
		errCh <- err
	}()
	<-block

	if !svc.IsRunning() {
		t.Error("expected service to report a run in flight")
	}
	if _, err := svc.Run(context.Background()); !errors.Is(err, service.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Wait(ctx)
	if svc.IsRunning() {
		t.Fatal("expected run to be finished")
	}
}

func TestTransformService_WatchRunsOnChange(t *testing.T) {
	f := newFixture(t, headerLine, false)

	if err := f.svc.Watch(context.Background()); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := os.WriteFile(f.in, []byte(headerLine+goodLine), 0644); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		for _, e := range f.emitter.Snapshot() {
			if e.Event == service.EventRunCompleted {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatal("watch did not trigger a run")
	}
	f.svc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f.svc.Wait(ctx)

	if got := f.lines(t); len(got) == 0 || got[0] != "station-1,35.1,139.2,mon,thu,8:00" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestTransformService_WatchRequiresPath(t *testing.T) {
	svc := service.NewTransformService(&etl.Job{Name: "x", SourceCfg: etl.SourceConfig{}}, nil, nil, nil)
	if err := svc.Watch(context.Background()); err == nil {
		t.Fatal("expected error without filePath")
	}
}

func TestTransformService_Schedule(t *testing.T) {
	f := newFixture(t, headerLine+goodLine, true)

	if err := f.svc.Schedule(context.Background(), "not a cron expr"); err == nil {
		t.Fatal("expected error for invalid expression")
	}
	if err := f.svc.Schedule(context.Background(), "@every 1s"); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		h, _ := f.svc.History(10)
		return len(h) > 0
	})
	f.svc.Stop()
	if !ok {
		t.Fatal("scheduled run did not happen")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f.svc.Wait(ctx)
}

func TestTransformService_StopIdempotent(t *testing.T) {
	svc := service.NewTransformService(&etl.Job{Name: "x"}, nil, nil, nil)
	svc.Stop()
	svc.Stop()
}
