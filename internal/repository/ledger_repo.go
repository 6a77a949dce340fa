package repository

import (
	"context"
	"fmt"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRow is the set of project ledgers stored through ScopedRepository.
type LedgerRow interface {
	model.BudgetLine | model.Commitment | model.ActualCost | model.Forecast
}

// ListFilter narrows a paginated ledger listing.
type ListFilter struct {
	Period string // "YYYY-MM", empty for all
	Page   int
	Limit  int
}

// ScopedRepository stores rows that belong to a (tenant, project) pair. Every
// lookup is filtered by tenant so a foreign id resolves to ErrNotFound.
type ScopedRepository[T LedgerRow] interface {
	Create(ctx context.Context, row *T) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*T, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*T, error)
	// Update rewrites an existing row. It never inserts: a row that is gone
	// (or belongs to another tenant) yields ErrNotFound.
	Update(ctx context.Context, tenantID uuid.UUID, row *T) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID, projectID uuid.UUID, filter ListFilter) ([]T, int64, error)
	ListAll(ctx context.Context, tenantID, projectID uuid.UUID) ([]T, error)
}

type scopedRepository[T LedgerRow] struct {
	db         *gorm.DB
	periodExpr string
	orderBy    string
}

func NewBudgetLineRepository(db *gorm.DB) ScopedRepository[model.BudgetLine] {
	return &scopedRepository[model.BudgetLine]{db: db, periodExpr: "period_month", orderBy: "code, created_at"}
}

func NewCommitmentRepository(db *gorm.DB) ScopedRepository[model.Commitment] {
	return &scopedRepository[model.Commitment]{db: db, periodExpr: "period_month", orderBy: "created_at desc"}
}

// NewActualCostRepository falls back to the UTC month of incurred_at for
// untagged rows when filtering by period.
func NewActualCostRepository(db *gorm.DB) ScopedRepository[model.ActualCost] {
	return &scopedRepository[model.ActualCost]{
		db:         db,
		periodExpr: "COALESCE(period_month, to_char(incurred_at AT TIME ZONE 'UTC', 'YYYY-MM'))",
		orderBy:    "incurred_at desc",
	}
}

func (r *scopedRepository[T]) Create(ctx context.Context, row *T) error {
	return translate(GetDB(ctx, r.db).Create(row).Error)
}

func (r *scopedRepository[T]) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*T, error) {
	return r.find(GetDB(ctx, r.db), tenantID, id)
}

func (r *scopedRepository[T]) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*T, error) {
	return r.find(forUpdate(GetDB(ctx, r.db)), tenantID, id)
}

func (r *scopedRepository[T]) find(db *gorm.DB, tenantID, id uuid.UUID) (*T, error) {
	var row T
	if err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *scopedRepository[T]) Update(ctx context.Context, tenantID uuid.UUID, row *T) error {
	res := GetDB(ctx, r.db).Model(row).
		Where("tenant_id = ?", tenantID).
		Select("*").
		Omit("id", "tenant_id", "project_id", "created_at").
		Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *scopedRepository[T]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	var row T
	res := GetDB(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *scopedRepository[T]) scope(db *gorm.DB, tenantID, projectID uuid.UUID) *gorm.DB {
	var row T
	return db.Model(&row).Where("tenant_id = ? AND project_id = ?", tenantID, projectID)
}

func (r *scopedRepository[T]) List(ctx context.Context, tenantID, projectID uuid.UUID, filter ListFilter) ([]T, int64, error) {
	var rows []T
	var total int64

	db := GetDB(ctx, r.db)
	filtered := func() *gorm.DB {
		q := r.scope(db, tenantID, projectID)
		if filter.Period != "" {
			q = q.Where(r.periodExpr+" = ?", filter.Period)
		}
		return q
	}

	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	fetch := filtered().Order(r.orderBy)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		fetch = fetch.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	if err := fetch.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *scopedRepository[T]) ListAll(ctx context.Context, tenantID, projectID uuid.UUID) ([]T, error) {
	var rows []T
	if err := r.scope(GetDB(ctx, r.db), tenantID, projectID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ForecastRepository adds the per-period upsert to the scoped store.
type ForecastRepository interface {
	ScopedRepository[model.Forecast]
	Upsert(ctx context.Context, f *model.Forecast) (*model.Forecast, error)
}

type forecastRepository struct {
	scopedRepository[model.Forecast]
}

func NewForecastRepository(db *gorm.DB) ForecastRepository {
	return &forecastRepository{scopedRepository[model.Forecast]{db: db, periodExpr: "period", orderBy: "period"}}
}

// Upsert writes f, replacing the amount and labels of an existing row for the
// same (tenant, project, period). The stored row is returned.
func (r *forecastRepository) Upsert(ctx context.Context, f *model.Forecast) (*model.Forecast, error) {
	db := GetDB(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "project_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "description", "amount", "updated_at"}),
	}).Create(f).Error
	if err != nil {
		return nil, translate(err)
	}

	var stored model.Forecast
	err = db.Where("tenant_id = ? AND project_id = ? AND period = ?", f.TenantID, f.ProjectID, f.Period).
		First(&stored).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}
