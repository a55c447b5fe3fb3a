package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/ranking-reports/internal/config"
	"github.com/jonathan/ranking-reports/internal/db"
	"github.com/jonathan/ranking-reports/internal/gate"
	"github.com/jonathan/ranking-reports/internal/jobsource"
	"github.com/jonathan/ranking-reports/internal/metrics"
	"github.com/jonathan/ranking-reports/internal/notify"
	"github.com/jonathan/ranking-reports/internal/pipeline"
	"github.com/jonathan/ranking-reports/internal/rendering"
	"github.com/jonathan/ranking-reports/internal/reports"
	"github.com/prometheus/client_golang/prometheus"
)

// app holds the wired collaborators of one process.
type app struct {
	cfg      *config.Config
	service  *pipeline.Service
	jobs     pipeline.JobStore
	registry *prometheus.Registry

	closers []func()
}

// buildApp wires stores, gate, renderer, notifier and metrics from cfg.
func buildApp(ctx context.Context, cfg *config.Config, onProgress pipeline.ProgressCallback) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}

	var database *db.DB
	if cfg.DatabaseURL != "" && (cfg.Store == config.StorePostgres || cfg.JobsFile == "") {
		var err error
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	store, err := a.openStore(cfg, database)
	if err != nil {
		a.Close()
		return nil, err
	}
	if _, err := reports.FailInterrupted(ctx, store); err != nil {
		a.Close()
		return nil, err
	}

	switch {
	case cfg.JobsFile != "":
		src, err := jobsource.LoadFile(cfg.JobsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.jobs = src
	case database != nil:
		a.jobs = database
	default:
		a.Close()
		return nil, fmt.Errorf("no job source: set JOBS_FILE or DATABASE_URL")
	}

	g, err := gate.New(cfg.Gate.Capacity)
	if err != nil {
		a.Close()
		return nil, err
	}

	renderer, err := rendering.New(cfg.Report.Format, rendering.Options{
		OutputDir:  cfg.Report.OutputDir,
		PDFTimeout: cfg.Report.PDFTimeout,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL, notify.DefaultWebhookTimeout)
	}

	a.service, err = pipeline.NewService(pipeline.Deps{
		Store:      store,
		Jobs:       a.jobs,
		Gate:       g,
		Renderer:   renderer,
		Notifier:   notifier,
		Metrics:    metrics.NewCollector(a.registry),
		OnProgress: onProgress,
	}, pipeline.Options{Timeout: cfg.Report.Timeout})
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Printf("[SERVER] Store=%s format=%s gate=%d timeout=%s", cfg.Store, cfg.Report.Format, cfg.Gate.Capacity, cfg.Report.Timeout)
	return a, nil
}

func (a *app) openStore(cfg *config.Config, database *db.DB) (reports.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := reports.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	case config.StorePostgres:
		if database == nil {
			return nil, fmt.Errorf("postgres store requires DATABASE_URL")
		}
		return database.Reports(), nil
	default:
		return reports.NewMemoryStore(), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
