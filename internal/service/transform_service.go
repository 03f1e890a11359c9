package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"stationcsv/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Transform Service: runs one job and keeps its history
// ─────────────────────────────────────────────────────────────

// ErrAlreadyRunning is returned when a run is requested while one is active.
var ErrAlreadyRunning = errors.New("job is already running")

var errHistoryDisabled = errors.New("run history is disabled (no state database)")

const (
	defaultRunTimeout = 5 * time.Minute
	previewTimeout    = 30 * time.Second
	watchDebounce     = 500 * time.Millisecond
)

// RunLogStore persists run history. *storage.RunStore implements it.
type RunLogStore interface {
	CreateRunLog(log *etl.RunLog) error
	GetRunLog(id string) (*etl.RunLog, error)
	ListRunLogs(job string, limit int) ([]etl.RunLog, error)
	DeleteRunLogs(job string) error
}

// TransformService runs a job on demand, on a cron schedule, or whenever
// its source file changes.
type TransformService struct {
	job         *etl.Job
	engine      *etl.Engine
	runs        RunLogStore
	emitter     EventEmitter
	runningJobs runningJobsGuard

	// RunTimeout bounds a single run.
	RunTimeout time.Duration

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewTransformService creates a TransformService. runs may be nil to
// disable history.
func NewTransformService(job *etl.Job, engine *etl.Engine, runs RunLogStore, emitter EventEmitter) *TransformService {
	if engine == nil {
		engine = &etl.Engine{}
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &TransformService{
		job:        job,
		engine:     engine,
		runs:       runs,
		emitter:    emitter,
		RunTimeout: defaultRunTimeout,
	}
}

// Job returns the job this service runs.
func (s *TransformService) Job() *etl.Job {
	return s.job
}

// ── Run ────────────────────────────────────────────────────

// Run executes the job synchronously, records it and emits an event.
// The returned result is non-nil whenever the run was started.
func (s *TransformService) Run(ctx context.Context) (*etl.Result, error) {
	name := s.job.Name
	if !s.runningJobs.TryLock(name) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}
	defer s.runningJobs.Unlock(name)

	runCtx, cancel := context.WithTimeout(ctx, s.RunTimeout)
	defer cancel()

	start := time.Now()
	result, runErr := s.engine.Run(runCtx, s.job)
	result.RunID = uuid.New().String()

	if s.runs != nil {
		runLog := &etl.RunLog{
			ID:          result.RunID,
			Job:         name,
			StartedAt:   start,
			FinishedAt:  time.Now(),
			Status:      result.Status,
			RowsRead:    result.RowsRead,
			RowsWritten: result.RowsWritten,
			ErrorKind:   string(result.ErrorKind),
			FailedLine:  result.FailedLine,
			Error:       result.Error,
		}
		if err := s.runs.CreateRunLog(runLog); err != nil {
			log.Printf("transform: save run log: %v", err)
		}
	}

	if runErr != nil {
		log.Printf("transform: %s failed after %d row(s): %v", name, result.RowsWritten, runErr)
		s.emitter.Emit(ctx, EventRunFailed, result)
		return result, runErr
	}
	log.Printf("transform: %s wrote %d row(s) in %s", name, result.RowsWritten, result.Duration)
	s.emitter.Emit(ctx, EventRunCompleted, result)
	return result, nil
}

// IsRunning reports whether a run is in flight.
func (s *TransformService) IsRunning() bool {
	return s.runningJobs.IsRunning(s.job.Name)
}

// History returns the most recent runs of the job, newest first.
func (s *TransformService) History(limit int) ([]etl.RunLog, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled
	}
	return s.runs.ListRunLogs(s.job.Name, limit)
}

// RunLog returns one recorded run by ID.
func (s *TransformService) RunLog(id string) (*etl.RunLog, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled
	}
	return s.runs.GetRunLog(id)
}

// ClearHistory deletes every recorded run of the job.
func (s *TransformService) ClearHistory() error {
	if s.runs == nil {
		return errHistoryDisabled
	}
	if err := s.runs.DeleteRunLogs(s.job.Name); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	log.Printf("transform: cleared history of %s", s.job.Name)
	return nil
}

// Preview transforms the first maxRows records without writing them.
func (s *TransformService) Preview(ctx context.Context, maxRows int) (*etl.Preview, error) {
	previewCtx, cancel := context.WithTimeout(ctx, previewTimeout)
	defer cancel()
	// Preview never echoes.
	engine := &etl.Engine{Transformer: s.engine.Transformer}
	return engine.Preview(previewCtx, s.job, maxRows)
}

// ListSources returns the available source descriptors.
func (s *TransformService) ListSources() []etl.SourceSpec {
	return etl.ListSources()
}

// ListDestinations returns the available destination descriptors.
func (s *TransformService) ListDestinations() []etl.DestinationSpec {
	return etl.ListDestinations()
}

// ── Triggers (cron + file watch) ──────────────────────────

// Schedule runs the job on a cron expression until Stop is called.
func (s *TransformService) Schedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		log.Printf("cron: running %s", s.job.Name)
		if _, err := s.Run(ctx); err != nil {
			log.Printf("cron: %s: %v", s.job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
	}
	c.Start()
	s.cronSched = c
	log.Printf("cron: scheduled %s at %q", s.job.Name, expr)
	return nil
}

// Watch runs the job each time the source file is written or created,
// debounced so a burst of writes triggers one run.
func (s *TransformService) Watch(ctx context.Context) error {
	path, _ := s.job.SourceCfg["filePath"].(string)
	if path == "" {
		return fmt.Errorf("watch: source has no filePath")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: bad path %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are seen too.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch: add %q: %w", filepath.Dir(absPath), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.stopWatcherLocked()
	s.watcher = watcher
	s.watchCancel = cancel
	s.mu.Unlock()

	go s.watchLoop(watchCtx, watcher, absPath)
	log.Printf("watch: watching %q", absPath)
	return nil
}

func (s *TransformService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, absPath string) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != absPath {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				log.Printf("watch: %q changed, running %s", absPath, s.job.Name)
				if _, err := s.Run(ctx); err != nil {
					log.Printf("watch: %s: %v", s.job.Name, err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: error: %v", err)
		}
	}
}

// Wait blocks until the current run finishes or ctx is cancelled.
// Used for graceful shutdown.
func (s *TransformService) Wait(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}

// Stop tears down the watcher and the scheduler. Safe to call repeatedly.
func (s *TransformService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatcherLocked()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

func (s *TransformService) stopWatcherLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
