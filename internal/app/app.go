package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/faciam-dev/snapcopy/internal/config"
	"github.com/faciam-dev/snapcopy/internal/events"
	"github.com/faciam-dev/snapcopy/internal/logger"
	"github.com/faciam-dev/snapcopy/internal/report"
	"github.com/faciam-dev/snapcopy/internal/snapcopy"
)

// flushTimeout bounds how long a run waits for event delivery.
const flushTimeout = 10 * time.Second

// App wires the copier with its optional event dispatcher and report
// destination. It is built once per process.
type App struct {
	Config config.Config
	Logger *zap.SugaredLogger
	Copier *snapcopy.Copier

	events *events.Dispatcher
	dest   report.Dest
}

// Setup resolves the logger, the RDS client, the event sinks and the report
// destination from cfg.
func Setup(ctx context.Context, cfg config.Config) (*App, error) {
	lvl, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(lvl)
	if err != nil {
		return nil, err
	}
	api, err := snapcopy.NewRDSClient(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("rds client: %w", err)
	}
	evtConf, err := events.LoadConfig(cfg.EventsConfig)
	if err != nil {
		return nil, fmt.Errorf("events config: %w", err)
	}
	d, err := events.Build(evtConf, log)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	dest, err := report.ParseDest(ctx, cfg.Region, cfg.ReportDest)
	if err != nil {
		return nil, fmt.Errorf("report destination: %w", err)
	}
	return New(cfg, api, log, d, dest), nil
}

// New assembles an App from already constructed parts. d and dest may be nil.
func New(cfg config.Config, api snapcopy.API, log *zap.SugaredLogger, d *events.Dispatcher, dest report.Dest) *App {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	opts := snapcopy.Options{Region: cfg.Region, KMSKey: cfg.KMSKey, Logger: log}
	if d != nil {
		opts.Events = d
	}
	return &App{
		Config: cfg,
		Logger: log,
		Copier: snapcopy.New(api, opts),
		events: d,
		dest:   dest,
	}
}

// RunOnce performs one copy pass, waits for pending notifications and writes
// the report when a destination is configured. Errors from the pass are
// returned unchanged.
func (a *App) RunOnce(ctx context.Context) (*snapcopy.Result, error) {
	res, err := a.Copier.Run(ctx)
	a.flush(ctx)
	if err != nil {
		return res, err
	}
	a.Logger.Infow("run finished", "run_id", res.RunID, "copied", len(res.Copied()), "clusters", len(res.Actions))
	if a.dest != nil {
		if err := report.Export(ctx, res, a.dest); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
	}
	return res, nil
}

// Handle is the Lambda entry point. The event payload is not inspected.
func (a *App) Handle(ctx context.Context, _ json.RawMessage) error {
	_, err := a.RunOnce(ctx)
	return err
}

// Close waits briefly for pending notifications, closes the event sinks
// and flushes the logger.
func (a *App) Close() {
	if a.events != nil {
		a.flush(context.Background())
		if err := a.events.Close(); err != nil {
			a.Logger.Warnw("close event sinks", "err", err)
		}
	}
	_ = a.Logger.Sync()
}

func (a *App) flush(ctx context.Context) {
	if a.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := a.events.Wait(ctx); err != nil {
		a.Logger.Warnw("event delivery still pending", "err", err)
	}
}
