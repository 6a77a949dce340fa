package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"erp/internal/metrics"
	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
)

// SnapshotNotifier is told about every snapshot that changed.
type SnapshotNotifier interface {
	PublishSnapshot(snap *model.ProjectSnapshot)
}

type SnapshotService interface {
	Get(ctx context.Context, scope Scope, projectID uuid.UUID) (*model.ProjectSnapshot, error)
	// Recompute rebuilds the named categories (all when none are named). A
	// failing category does not stop the others; the failures are joined
	// under ErrRecomputeFailure.
	Recompute(ctx context.Context, projectID uuid.UUID, categories ...model.SnapshotCategory) error
	// RecomputeForTenant is Recompute behind a tenant check, for the REST trigger.
	RecomputeForTenant(ctx context.Context, scope Scope, projectID uuid.UUID, categories ...model.SnapshotCategory) (*model.ProjectSnapshot, error)
	RecomputeAll(ctx context.Context) (int, error)
}

type snapshotService struct {
	projectRepo   repository.ProjectRepository
	snapshotRepo  repository.SnapshotRepository
	variationRepo repository.VariationRepository
	ledgers       LedgerRepos
	notifier      SnapshotNotifier
	log           *slog.Logger
	metrics       *metrics.Recorder
	now           func() time.Time
}

func NewSnapshotService(
	projectRepo repository.ProjectRepository,
	snapshotRepo repository.SnapshotRepository,
	variationRepo repository.VariationRepository,
	ledgers LedgerRepos,
	notifier SnapshotNotifier,
	log *slog.Logger,
	rec *metrics.Recorder,
) SnapshotService {
	return &snapshotService{
		projectRepo:   projectRepo,
		snapshotRepo:  snapshotRepo,
		variationRepo: variationRepo,
		ledgers:       ledgers,
		notifier:      notifier,
		log:           log.With("component", "snapshot"),
		metrics:       rec,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *snapshotService) Get(ctx context.Context, scope Scope, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	snap, err := s.snapshotRepo.FindByProject(ctx, scope.TenantID, projectID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	// Not rebuilt yet: report zeros for a project that exists.
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return nil, err
	}
	return &model.ProjectSnapshot{ProjectID: projectID, TenantID: scope.TenantID}, nil
}

func (s *snapshotService) Recompute(ctx context.Context, projectID uuid.UUID, categories ...model.SnapshotCategory) error {
	project, err := s.projectRepo.FindAnyByID(ctx, projectID)
	if err != nil {
		return repoErr(fmt.Sprintf("project %s", projectID), err)
	}
	if len(categories) == 0 {
		categories = model.AllSnapshotCategories
	}
	for _, c := range categories {
		if !c.Valid() {
			return validationf("unknown snapshot category %q", c)
		}
	}

	var failures []error
	succeeded := 0
	for _, category := range categories {
		start := time.Now()
		err := s.rebuild(ctx, project, category)
		s.metrics.ObserveRecompute(string(category), time.Since(start), err)
		if err != nil {
			s.log.Error("snapshot category rebuild failed",
				"project_id", projectID, "category", category, "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", category, err))
			continue
		}
		succeeded++
	}

	if succeeded > 0 && s.notifier != nil {
		if snap, err := s.snapshotRepo.FindByProject(ctx, project.TenantID, project.ID); err == nil {
			s.notifier.PublishSnapshot(snap)
		}
	}
	if len(failures) > 0 {
		return errors.Join(append([]error{ErrRecomputeFailure}, failures...)...)
	}
	return nil
}

func (s *snapshotService) RecomputeForTenant(ctx context.Context, scope Scope, projectID uuid.UUID, categories ...model.SnapshotCategory) (*model.ProjectSnapshot, error) {
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return nil, err
	}
	if err := s.Recompute(ctx, projectID, categories...); err != nil {
		return nil, err
	}
	return s.Get(ctx, scope, projectID)
}

func (s *snapshotService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.projectRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	var failures []error
	for _, id := range ids {
		if err := s.Recompute(ctx, id); err != nil {
			failures = append(failures, fmt.Errorf("project %s: %w", id, err))
		}
	}
	return len(ids), errors.Join(failures...)
}

// rebuild reads one category's sources, folds them into a partial snapshot
// and upserts only that category's columns.
func (s *snapshotService) rebuild(ctx context.Context, project *model.Project, category model.SnapshotCategory) error {
	tenantID, projectID := project.TenantID, project.ID
	now := s.now()
	snap := &model.ProjectSnapshot{ProjectID: projectID, TenantID: tenantID, UpdatedAt: now}

	switch category {
	case model.CategoryVariation:
		variations, err := s.variationRepo.ListByProject(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		applyVariationCounters(snap, variations)
	case model.CategoryTask:
		tasks, err := s.snapshotRepo.Tasks(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		applyTaskCounters(snap, tasks, now)
	case model.CategoryFinancial:
		sums, err := loadLedgerSums(ctx, s.ledgers, tenantID, projectID)
		if err != nil {
			return err
		}
		snap.BudgetTotal = sums.budget
		snap.CommittedTotal = sums.committed
		snap.ActualTotal = sums.actual
		snap.ForecastTotal = sums.forecast
	case model.CategoryProcurement:
		orders, err := s.snapshotRepo.PurchaseOrders(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		deliveries, err := s.snapshotRepo.Deliveries(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		applyProcurementCounters(snap, orders, deliveries, now)
	case model.CategoryRFI:
		rows, err := s.snapshotRepo.RFIs(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		snap.RFIsOpen = countOpen(rows, func(r model.RFI) string { return r.Status })
	case model.CategoryQA:
		rows, err := s.snapshotRepo.QAItems(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		snap.QAOpen = countOpen(rows, func(r model.QAItem) string { return r.Status })
	case model.CategoryHS:
		rows, err := s.snapshotRepo.HSEvents(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		snap.HSOpen = countOpen(rows, func(r model.HSEvent) string { return r.Status })
	case model.CategoryCarbon:
		entries, err := s.snapshotRepo.CarbonEntries(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		applyCarbonTotals(snap, entries, now)
	default:
		return validationf("unknown snapshot category %q", category)
	}

	if err := s.snapshotRepo.UpsertColumns(ctx, snap, category.Columns()); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
