package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"fedpipeline/internal/config"
	"fedpipeline/internal/dbclient"
	"fedpipeline/internal/etl"
	"fedpipeline/internal/etl/sources"
	"fedpipeline/internal/logging"
	"fedpipeline/internal/metrics"
	"fedpipeline/internal/service"
	"fedpipeline/internal/storage"
)

// App wires the pipeline together and owns everything that must be closed
// on shutdown.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	logCloser io.Closer
	history   *storage.DB
	pipeline  *service.PipelineService
}

// New creates a new App. The logger is built here so failures later in
// Startup are recorded in the configured log file.
func New(cfg *config.Config) (*App, error) {
	log, closer, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return &App{cfg: cfg, log: log, logCloser: closer}, nil
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.log
}

// Startup builds the pipeline and starts the scheduler. Ticks run until ctx
// is cancelled or Shutdown is called.
func (a *App) Startup(ctx context.Context) error {
	conn, err := dbclient.NewConnector(a.cfg.Database.Connection())
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	catalog := sources.NewCatalogClient(a.cfg.API, a.cfg.Credentials, a.log)
	writer := etl.NewSQLWriter(conn, a.log)
	engine := etl.NewEngine(catalog, catalog, writer, conn.Dialect().Placeholder, a.log)

	var observers []service.TickObserver

	// Optional run history
	if path := a.cfg.History.Path; path != "" {
		db, err := storage.New(path)
		if err != nil {
			return fmt.Errorf("run history: %w", err)
		}
		a.history = db
		observers = append(observers, service.HistoryObserver(storage.NewRunStore(db), a.log))
		a.log.Info().Str("path", path).Msg("run history enabled")
	}

	// Optional metrics listener
	if addr := a.cfg.Metrics.Addr; addr != "" {
		m := metrics.New()
		m.Serve(ctx, addr, a.log)
		observers = append(observers, m)
	}

	a.pipeline = service.NewPipelineService(engine, a.cfg.Schedule.Interval, a.log,
		service.WithObservers(observers...),
		service.WithRunOnStart(a.cfg.Schedule.RunOnStart),
	)
	if err := a.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	a.log.Info().
		Str("api", a.cfg.API.BaseURL).
		Str("driver", a.cfg.Database.Driver).
		Dur("interval", a.cfg.Schedule.Interval).
		Msg("Pipeline started")
	return nil
}

// Shutdown stops scheduling, waits for a running tick until ctx expires and
// releases resources.
func (a *App) Shutdown(ctx context.Context) {
	if a.pipeline != nil {
		a.pipeline.Stop()
		a.pipeline.WaitRunning(ctx)
		if a.pipeline.Running() {
			a.log.Warn().Msg("shutdown deadline reached with a tick still running")
		}
	}
	if a.history != nil {
		a.history.Close()
	}
	a.log.Info().Msg("Pipeline stopped")
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}
