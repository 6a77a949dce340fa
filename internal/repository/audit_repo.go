package repository

import (
	"context"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows the audit listing; zero values match everything.
type AuditFilter struct {
	Entity   string
	EntityID string
	Page     int
	Limit    int
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, tenantID uuid.UUID, filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log joins the caller's transaction when there is one.
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return translate(GetDB(ctx, r.db).Create(entry).Error)
}

func (r *auditRepository) List(ctx context.Context, tenantID uuid.UUID, filter AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db)
	scoped := func() *gorm.DB {
		q := db.Model(&model.AuditLog{}).Where("tenant_id = ?", tenantID)
		if filter.Entity != "" {
			q = q.Where("entity = ?", filter.Entity)
		}
		if filter.EntityID != "" {
			q = q.Where("entity_id = ?", filter.EntityID)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := scoped().Order("created_at desc")
	if filter.Limit > 0 {
		page := max(filter.Page, 1)
		fetch = fetch.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	if err := fetch.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
