// Package app wires configuration, storage and services into the commands
// the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"stationcsv/internal/config"
	"stationcsv/internal/etl"
	_ "stationcsv/internal/etl/destinations"
	_ "stationcsv/internal/etl/sources"
	"stationcsv/internal/secret"
	"stationcsv/internal/service"
	"stationcsv/internal/storage"
)

// App holds the long-lived pieces of one CLI invocation.
type App struct {
	cfg       *config.Config
	db        *storage.DB
	transform *service.TransformService
}

// Options tune how the app is assembled for a given command.
type Options struct {
	// Echo receives every source record; nil disables echoing.
	Echo io.Writer
	// Emitter receives run events; nil means no events.
	Emitter service.EventEmitter
	// Secrets resolves "<option>Secret" destination options; nil uses
	// secret.Default().
	Secrets secret.SecretStore
}

// New builds the app. The state database is opened only when the
// configuration names one.
func New(cfg *config.Config, opts Options) (*App, error) {
	job, err := cfg.Job()
	if err != nil {
		return nil, err
	}
	secrets := opts.Secrets
	if secrets == nil {
		secrets = secret.Default()
	}
	if err := secret.ResolveRefs(job.DestCfg, secrets); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	a := &App{cfg: cfg}
	var runs service.RunLogStore
	if cfg.StateDB != "" {
		db, err := storage.New(cfg.StateDB)
		if err != nil {
			return nil, fmt.Errorf("open state database: %w", err)
		}
		a.db = db
		runs = storage.NewRunStore(db)
	}

	engine := &etl.Engine{Echo: opts.Echo}
	a.transform = service.NewTransformService(job, engine, runs, opts.Emitter)
	return a, nil
}

// Transform returns the transform service.
func (a *App) Transform() *service.TransformService {
	return a.transform
}

// Shutdown stops triggers, waits for an in-flight run and closes storage.
func (a *App) Shutdown(ctx context.Context) {
	a.transform.Stop()
	a.transform.Wait(ctx)
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("close state database: %v", err)
		}
	}
}
