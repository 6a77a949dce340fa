package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"erp/internal/finance"
	"erp/internal/model"
	"erp/internal/recompute"
	"erp/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

// Ledger inputs double as create bodies and update patches: on update only
// the non-nil fields are applied.

type BudgetLineInput struct {
	Code        *string      `json:"code"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Amount      *AmountInput `json:"amount" swaggertype:"string"`
	PeriodMonth *string      `json:"period_month"`
}

type CommitmentInput struct {
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Amount      *AmountInput `json:"amount" swaggertype:"string"`
	Status      *string      `json:"status"`
	LinkedPOID  *string      `json:"linked_po_id"`
	PeriodMonth *string      `json:"period_month"`
}

type ActualCostInput struct {
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Amount      *AmountInput `json:"amount" swaggertype:"string"`
	IncurredAt  *time.Time   `json:"incurred_at"`
	PeriodMonth *string      `json:"period_month"`
}

type ForecastInput struct {
	Period      *string      `json:"period"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Amount      *AmountInput `json:"amount" swaggertype:"string"`
}

// --- Interface ---

type LedgerService interface {
	CreateBudgetLine(ctx context.Context, scope Scope, projectID uuid.UUID, in BudgetLineInput) (*model.BudgetLine, error)
	UpdateBudgetLine(ctx context.Context, scope Scope, projectID, id uuid.UUID, in BudgetLineInput) (*model.BudgetLine, error)
	DeleteBudgetLine(ctx context.Context, scope Scope, projectID, id uuid.UUID) error
	ListBudgetLines(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.BudgetLine, int64, error)

	CreateCommitment(ctx context.Context, scope Scope, projectID uuid.UUID, in CommitmentInput) (*model.Commitment, error)
	UpdateCommitment(ctx context.Context, scope Scope, projectID, id uuid.UUID, in CommitmentInput) (*model.Commitment, error)
	DeleteCommitment(ctx context.Context, scope Scope, projectID, id uuid.UUID) error
	ListCommitments(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.Commitment, int64, error)

	CreateActualCost(ctx context.Context, scope Scope, projectID uuid.UUID, in ActualCostInput) (*model.ActualCost, error)
	UpdateActualCost(ctx context.Context, scope Scope, projectID, id uuid.UUID, in ActualCostInput) (*model.ActualCost, error)
	DeleteActualCost(ctx context.Context, scope Scope, projectID, id uuid.UUID) error
	ListActualCosts(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.ActualCost, int64, error)

	// CreateForecast upserts: a second forecast for the same period replaces the first.
	CreateForecast(ctx context.Context, scope Scope, projectID uuid.UUID, in ForecastInput) (*model.Forecast, error)
	UpdateForecast(ctx context.Context, scope Scope, projectID, id uuid.UUID, in ForecastInput) (*model.Forecast, error)
	DeleteForecast(ctx context.Context, scope Scope, projectID, id uuid.UUID) error
	ListForecasts(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.Forecast, int64, error)
}

// LedgerRepos groups the four ledger stores.
type LedgerRepos struct {
	BudgetLines repository.ScopedRepository[model.BudgetLine]
	Commitments repository.ScopedRepository[model.Commitment]
	ActualCosts repository.ScopedRepository[model.ActualCost]
	Forecasts   repository.ForecastRepository
}

type ledgerService struct {
	repos       LedgerRepos
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	trigger     recompute.Trigger
}

func NewLedgerService(
	repos LedgerRepos,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	trigger recompute.Trigger,
) LedgerService {
	return &ledgerService{
		repos:       repos,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		trigger:     trigger,
	}
}

// ledgerKind describes how one ledger is audited and which snapshot
// categories its writes invalidate.
type ledgerKind[T repository.LedgerRow] struct {
	entity     string
	onCreate   string
	onUpdate   string
	onDelete   string
	categories []model.SnapshotCategory
	ids        func(*T) (id, projectID uuid.UUID)
}

var (
	budgetLineKind = ledgerKind[model.BudgetLine]{
		entity: "budget_line", onCreate: model.ActionCreateBudgetLine, onUpdate: model.ActionUpdateBudgetLine, onDelete: model.ActionDeleteBudgetLine,
		categories: []model.SnapshotCategory{model.CategoryFinancial},
		ids:        func(r *model.BudgetLine) (uuid.UUID, uuid.UUID) { return r.ID, r.ProjectID },
	}
	commitmentKind = ledgerKind[model.Commitment]{
		entity: "commitment", onCreate: model.ActionCreateCommitment, onUpdate: model.ActionUpdateCommitment, onDelete: model.ActionDeleteCommitment,
		categories: []model.SnapshotCategory{model.CategoryFinancial, model.CategoryProcurement},
		ids:        func(r *model.Commitment) (uuid.UUID, uuid.UUID) { return r.ID, r.ProjectID },
	}
	actualCostKind = ledgerKind[model.ActualCost]{
		entity: "actual_cost", onCreate: model.ActionCreateActualCost, onUpdate: model.ActionUpdateActualCost, onDelete: model.ActionDeleteActualCost,
		categories: []model.SnapshotCategory{model.CategoryFinancial},
		ids:        func(r *model.ActualCost) (uuid.UUID, uuid.UUID) { return r.ID, r.ProjectID },
	}
	forecastKind = ledgerKind[model.Forecast]{
		entity: "forecast", onCreate: model.ActionUpsertForecast, onUpdate: model.ActionUpdateForecast, onDelete: model.ActionDeleteForecast,
		categories: []model.SnapshotCategory{model.CategoryFinancial},
		ids:        func(r *model.Forecast) (uuid.UUID, uuid.UUID) { return r.ID, r.ProjectID },
	}
)

// --- Generic write paths ---

func createLedgerRow[T repository.LedgerRow](
	ctx context.Context, s *ledgerService, kind ledgerKind[T], scope Scope, projectID uuid.UUID,
	build func() (*T, error), store func(context.Context, *T) (*T, error),
) (*T, error) {
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return nil, err
	}
	row, err := build()
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stored, storeErr := store(txCtx, row)
		if storeErr != nil {
			return repoErr("create "+kind.entity, storeErr)
		}
		row = stored
		id, _ := kind.ids(row)
		return writeAudit(txCtx, s.auditRepo, scope, kind.entity, id.String(), kind.onCreate, map[string]any{"after": row})
	})
	if err != nil {
		return nil, err
	}

	s.trigger.Enqueue(projectID, kind.categories...)
	return row, nil
}

func updateLedgerRow[T repository.LedgerRow](
	ctx context.Context, s *ledgerService, kind ledgerKind[T], repo repository.ScopedRepository[T],
	scope Scope, projectID, id uuid.UUID, apply func(*T) error,
) (*T, error) {
	var row *T
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := lockLedgerRow(txCtx, kind, repo, scope, projectID, id)
		if err != nil {
			return err
		}
		before := *existing
		if err := apply(existing); err != nil {
			return err
		}
		if err := repo.Update(txCtx, scope.TenantID, existing); err != nil {
			return repoErr(fmt.Sprintf("%s %s", kind.entity, id), err)
		}
		row = existing
		return writeAudit(txCtx, s.auditRepo, scope, kind.entity, id.String(), kind.onUpdate, beforeAfter(before, *existing))
	})
	if err != nil {
		return nil, err
	}

	s.trigger.Enqueue(projectID, kind.categories...)
	return row, nil
}

func deleteLedgerRow[T repository.LedgerRow](
	ctx context.Context, s *ledgerService, kind ledgerKind[T], repo repository.ScopedRepository[T],
	scope Scope, projectID, id uuid.UUID,
) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := lockLedgerRow(txCtx, kind, repo, scope, projectID, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(txCtx, scope.TenantID, id); err != nil {
			return repoErr(fmt.Sprintf("%s %s", kind.entity, id), err)
		}
		return writeAudit(txCtx, s.auditRepo, scope, kind.entity, id.String(), kind.onDelete, beforeAfter(*existing, nil))
	})
	if err != nil {
		return err
	}

	s.trigger.Enqueue(projectID, kind.categories...)
	return nil
}

// lockLedgerRow loads the row FOR UPDATE. A row filed under another project
// resolves to ErrNotFound like a foreign tenant's.
func lockLedgerRow[T repository.LedgerRow](
	ctx context.Context, kind ledgerKind[T], repo repository.ScopedRepository[T],
	scope Scope, projectID, id uuid.UUID,
) (*T, error) {
	row, err := repo.FindByIDForUpdate(ctx, scope.TenantID, id)
	if err != nil {
		return nil, repoErr(fmt.Sprintf("%s %s", kind.entity, id), err)
	}
	if _, owner := kind.ids(row); owner != projectID {
		return nil, fmt.Errorf("%s %s %w", kind.entity, id, ErrNotFound)
	}
	return row, nil
}

func listLedgerRows[T repository.LedgerRow](
	ctx context.Context, s *ledgerService, repo repository.ScopedRepository[T],
	scope Scope, projectID uuid.UUID, filter repository.ListFilter,
) ([]T, int64, error) {
	if filter.Period != "" {
		p, err := finance.ParsePeriod(filter.Period)
		if err != nil {
			return nil, 0, validationf("%v", err)
		}
		filter.Period = p.String()
	}
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return nil, 0, err
	}
	rows, total, err := repo.List(ctx, scope.TenantID, projectID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger rows: %w", err)
	}
	return rows, total, nil
}

func insertWith[T repository.LedgerRow](repo repository.ScopedRepository[T]) func(context.Context, *T) (*T, error) {
	return func(ctx context.Context, row *T) (*T, error) {
		if err := repo.Create(ctx, row); err != nil {
			return nil, err
		}
		return row, nil
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// --- Budget lines ---

func (s *ledgerService) applyBudgetLine(row *model.BudgetLine, in BudgetLineInput) error {
	setString(&row.Code, in.Code)
	setString(&row.Category, in.Category)
	setString(&row.Description, in.Description)
	if in.Amount != nil {
		amount, err := parseAmount("amount", *in.Amount)
		if err != nil {
			return err
		}
		row.Amount = amount
	}
	if in.PeriodMonth != nil {
		period, err := parsePeriodPtr("period_month", in.PeriodMonth)
		if err != nil {
			return err
		}
		row.PeriodMonth = period
	}
	return nil
}

func (s *ledgerService) CreateBudgetLine(ctx context.Context, scope Scope, projectID uuid.UUID, in BudgetLineInput) (*model.BudgetLine, error) {
	return createLedgerRow(ctx, s, budgetLineKind, scope, projectID, func() (*model.BudgetLine, error) {
		if in.Amount == nil {
			return nil, validationf("amount is required")
		}
		row := &model.BudgetLine{TenantID: scope.TenantID, ProjectID: projectID}
		return row, s.applyBudgetLine(row, in)
	}, insertWith(s.repos.BudgetLines))
}

func (s *ledgerService) UpdateBudgetLine(ctx context.Context, scope Scope, projectID, id uuid.UUID, in BudgetLineInput) (*model.BudgetLine, error) {
	return updateLedgerRow(ctx, s, budgetLineKind, s.repos.BudgetLines, scope, projectID, id, func(row *model.BudgetLine) error {
		return s.applyBudgetLine(row, in)
	})
}

func (s *ledgerService) DeleteBudgetLine(ctx context.Context, scope Scope, projectID, id uuid.UUID) error {
	return deleteLedgerRow(ctx, s, budgetLineKind, s.repos.BudgetLines, scope, projectID, id)
}

func (s *ledgerService) ListBudgetLines(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.BudgetLine, int64, error) {
	return listLedgerRows(ctx, s, s.repos.BudgetLines, scope, projectID, filter)
}

// --- Commitments ---

func (s *ledgerService) applyCommitment(row *model.Commitment, in CommitmentInput) error {
	setString(&row.Category, in.Category)
	setString(&row.Description, in.Description)
	if in.Amount != nil {
		amount, err := parseAmount("amount", *in.Amount)
		if err != nil {
			return err
		}
		row.Amount = amount
	}
	if in.Status != nil {
		switch status := strings.TrimSpace(*in.Status); status {
		case model.CommitmentOpen, model.CommitmentClosed:
			row.Status = status
		default:
			return validationf("status must be %s or %s, got %q", model.CommitmentOpen, model.CommitmentClosed, status)
		}
	}
	if in.LinkedPOID != nil {
		if *in.LinkedPOID == "" {
			row.LinkedPOID = nil
		} else {
			poID, err := uuid.Parse(*in.LinkedPOID)
			if err != nil {
				return validationf("linked_po_id: %v", err)
			}
			row.LinkedPOID = &poID
		}
	}
	if in.PeriodMonth != nil {
		period, err := parsePeriodPtr("period_month", in.PeriodMonth)
		if err != nil {
			return err
		}
		row.PeriodMonth = period
	}
	return nil
}

func (s *ledgerService) CreateCommitment(ctx context.Context, scope Scope, projectID uuid.UUID, in CommitmentInput) (*model.Commitment, error) {
	return createLedgerRow(ctx, s, commitmentKind, scope, projectID, func() (*model.Commitment, error) {
		if in.Amount == nil {
			return nil, validationf("amount is required")
		}
		row := &model.Commitment{TenantID: scope.TenantID, ProjectID: projectID, Status: model.CommitmentOpen}
		return row, s.applyCommitment(row, in)
	}, insertWith(s.repos.Commitments))
}

func (s *ledgerService) UpdateCommitment(ctx context.Context, scope Scope, projectID, id uuid.UUID, in CommitmentInput) (*model.Commitment, error) {
	return updateLedgerRow(ctx, s, commitmentKind, s.repos.Commitments, scope, projectID, id, func(row *model.Commitment) error {
		return s.applyCommitment(row, in)
	})
}

func (s *ledgerService) DeleteCommitment(ctx context.Context, scope Scope, projectID, id uuid.UUID) error {
	return deleteLedgerRow(ctx, s, commitmentKind, s.repos.Commitments, scope, projectID, id)
}

func (s *ledgerService) ListCommitments(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.Commitment, int64, error) {
	return listLedgerRows(ctx, s, s.repos.Commitments, scope, projectID, filter)
}

// --- Actual costs ---

func (s *ledgerService) applyActualCost(row *model.ActualCost, in ActualCostInput) error {
	setString(&row.Category, in.Category)
	setString(&row.Description, in.Description)
	if in.Amount != nil {
		amount, err := parseAmount("amount", *in.Amount)
		if err != nil {
			return err
		}
		row.Amount = amount
	}
	if in.IncurredAt != nil {
		row.IncurredAt = in.IncurredAt.UTC()
		if in.PeriodMonth == nil {
			row.PeriodMonth = nil
		}
	}
	if in.PeriodMonth != nil {
		period, err := parsePeriodPtr("period_month", in.PeriodMonth)
		if err != nil {
			return err
		}
		row.PeriodMonth = period
	}
	// Untagged costs are bucketed by the month they were incurred.
	if row.PeriodMonth == nil {
		p := finance.PeriodOf(row.IncurredAt).String()
		row.PeriodMonth = &p
	}
	return nil
}

func (s *ledgerService) CreateActualCost(ctx context.Context, scope Scope, projectID uuid.UUID, in ActualCostInput) (*model.ActualCost, error) {
	return createLedgerRow(ctx, s, actualCostKind, scope, projectID, func() (*model.ActualCost, error) {
		if in.Amount == nil {
			return nil, validationf("amount is required")
		}
		if in.IncurredAt == nil || in.IncurredAt.IsZero() {
			return nil, validationf("incurred_at is required")
		}
		row := &model.ActualCost{TenantID: scope.TenantID, ProjectID: projectID}
		return row, s.applyActualCost(row, in)
	}, insertWith(s.repos.ActualCosts))
}

func (s *ledgerService) UpdateActualCost(ctx context.Context, scope Scope, projectID, id uuid.UUID, in ActualCostInput) (*model.ActualCost, error) {
	return updateLedgerRow(ctx, s, actualCostKind, s.repos.ActualCosts, scope, projectID, id, func(row *model.ActualCost) error {
		return s.applyActualCost(row, in)
	})
}

func (s *ledgerService) DeleteActualCost(ctx context.Context, scope Scope, projectID, id uuid.UUID) error {
	return deleteLedgerRow(ctx, s, actualCostKind, s.repos.ActualCosts, scope, projectID, id)
}

func (s *ledgerService) ListActualCosts(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.ActualCost, int64, error) {
	return listLedgerRows(ctx, s, s.repos.ActualCosts, scope, projectID, filter)
}

// --- Forecasts ---

func (s *ledgerService) applyForecast(row *model.Forecast, in ForecastInput) error {
	setString(&row.Category, in.Category)
	setString(&row.Description, in.Description)
	if in.Amount != nil {
		amount, err := parseAmount("amount", *in.Amount)
		if err != nil {
			return err
		}
		row.Amount = amount
	}
	if in.Period != nil {
		p, err := finance.ParsePeriod(strings.TrimSpace(*in.Period))
		if err != nil {
			return validationf("period: %v", err)
		}
		row.Period = p.String()
	}
	return nil
}

func (s *ledgerService) CreateForecast(ctx context.Context, scope Scope, projectID uuid.UUID, in ForecastInput) (*model.Forecast, error) {
	return createLedgerRow(ctx, s, forecastKind, scope, projectID, func() (*model.Forecast, error) {
		if in.Amount == nil || in.Period == nil {
			return nil, validationf("amount and period are required")
		}
		row := &model.Forecast{TenantID: scope.TenantID, ProjectID: projectID}
		return row, s.applyForecast(row, in)
	}, s.repos.Forecasts.Upsert)
}

func (s *ledgerService) UpdateForecast(ctx context.Context, scope Scope, projectID, id uuid.UUID, in ForecastInput) (*model.Forecast, error) {
	return updateLedgerRow[model.Forecast](ctx, s, forecastKind, s.repos.Forecasts, scope, projectID, id, func(row *model.Forecast) error {
		return s.applyForecast(row, in)
	})
}

func (s *ledgerService) DeleteForecast(ctx context.Context, scope Scope, projectID, id uuid.UUID) error {
	return deleteLedgerRow[model.Forecast](ctx, s, forecastKind, s.repos.Forecasts, scope, projectID, id)
}

func (s *ledgerService) ListForecasts(ctx context.Context, scope Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.Forecast, int64, error) {
	return listLedgerRows[model.Forecast](ctx, s, s.repos.Forecasts, scope, projectID, filter)
}
