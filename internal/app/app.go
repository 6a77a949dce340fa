// Package app wires repositories and services for the API server and the CLI.
package app

import (
	"log/slog"

	"erp/internal/config"
	"erp/internal/metrics"
	"erp/internal/recompute"
	"erp/internal/repository"
	"erp/internal/service"

	"gorm.io/gorm"
)

// Options selects how snapshot rebuilds triggered by writes are run.
type Options struct {
	// Async routes write-triggered rebuilds through a Dispatcher. When false
	// writes trigger nothing and callers recompute explicitly.
	Async    bool
	Notifier service.SnapshotNotifier
}

// Container holds the service graph.
type Container struct {
	Projects   service.ProjectService
	Ledgers    service.LedgerService
	Variations service.VariationService
	Snapshots  service.SnapshotService
	CVR        service.CVRService
	Audit      service.AuditService

	// Dispatcher is nil unless Options.Async is set; the caller runs it.
	Dispatcher *recompute.Dispatcher
}

// Build constructs repositories over db and the services on top of them.
func Build(db *gorm.DB, cfg config.Config, log *slog.Logger, rec *metrics.Recorder, opts Options) *Container {
	txManager := repository.NewTransactionManager(db)
	projectRepo := repository.NewProjectRepository(db)
	variationRepo := repository.NewVariationRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	ledgers := service.LedgerRepos{
		BudgetLines: repository.NewBudgetLineRepository(db),
		Commitments: repository.NewCommitmentRepository(db),
		ActualCosts: repository.NewActualCostRepository(db),
		Forecasts:   repository.NewForecastRepository(db),
	}

	snapshots := service.NewSnapshotService(projectRepo, snapshotRepo, variationRepo, ledgers, opts.Notifier, log, rec)

	c := &Container{Snapshots: snapshots}
	var trigger recompute.Trigger = recompute.Noop{}
	if opts.Async {
		c.Dispatcher = recompute.NewDispatcher(snapshots, recompute.Options{
			Workers:   cfg.Recompute.Workers,
			QueueSize: cfg.Recompute.QueueSize,
			Timeout:   cfg.Recompute.Timeout,
		}, log, rec)
		trigger = c.Dispatcher
	}

	c.Projects = service.NewProjectService(projectRepo, auditRepo, txManager, trigger)
	c.Ledgers = service.NewLedgerService(ledgers, projectRepo, auditRepo, txManager, trigger)
	c.Variations = service.NewVariationService(variationRepo, projectRepo, auditRepo, txManager, trigger, rec)
	c.CVR = service.NewCVRService(ledgers, variationRepo, projectRepo, service.CVRLimits{
		DefaultTrend: cfg.CVR.TrendLimit,
		MaxTrend:     cfg.CVR.MaxTrendLimit,
	})
	c.Audit = service.NewAuditService(auditRepo)
	return c
}
