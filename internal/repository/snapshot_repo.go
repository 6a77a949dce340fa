package repository

import (
	"context"
	"fmt"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository persists ProjectSnapshot rows and reads the trackers the
// snapshot categories aggregate.
type SnapshotRepository interface {
	FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) (*model.ProjectSnapshot, error)
	// UpsertColumns inserts the snapshot or, when one exists, overwrites only
	// the named columns plus updated_at.
	UpsertColumns(ctx context.Context, snap *model.ProjectSnapshot, columns []string) error

	Tasks(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.Task, error)
	PurchaseOrders(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.PurchaseOrder, error)
	Deliveries(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.Delivery, error)
	RFIs(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.RFI, error)
	QAItems(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.QAItem, error)
	HSEvents(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.HSEvent, error)
	CarbonEntries(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.CarbonEntry, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	var snap model.ProjectSnapshot
	if err := GetDB(ctx, r.db).Where("tenant_id = ? AND project_id = ?", tenantID, projectID).First(&snap).Error; err != nil {
		return nil, translate(err)
	}
	return &snap, nil
}

func (r *snapshotRepository) UpsertColumns(ctx context.Context, snap *model.ProjectSnapshot, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("upsert snapshot %s: no columns", snap.ProjectID)
	}
	assign := append(append([]string{}, columns...), "updated_at")
	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns(assign),
	}).Create(snap).Error
	return translate(err)
}

func scopedRows[T any](ctx context.Context, db *gorm.DB, tenantID, projectID uuid.UUID) ([]T, error) {
	var rows []T
	if err := GetDB(ctx, db).Where("tenant_id = ? AND project_id = ?", tenantID, projectID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *snapshotRepository) Tasks(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.Task, error) {
	return scopedRows[model.Task](ctx, r.db, tenantID, projectID)
}

func (r *snapshotRepository) PurchaseOrders(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.PurchaseOrder, error) {
	return scopedRows[model.PurchaseOrder](ctx, r.db, tenantID, projectID)
}

func (r *snapshotRepository) Deliveries(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.Delivery, error) {
	return scopedRows[model.Delivery](ctx, r.db, tenantID, projectID)
}

func (r *snapshotRepository) RFIs(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.RFI, error) {
	return scopedRows[model.RFI](ctx, r.db, tenantID, projectID)
}

func (r *snapshotRepository) QAItems(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.QAItem, error) {
	return scopedRows[model.QAItem](ctx, r.db, tenantID, projectID)
}

func (r *snapshotRepository) HSEvents(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.HSEvent, error) {
	return scopedRows[model.HSEvent](ctx, r.db, tenantID, projectID)
}

func (r *snapshotRepository) CarbonEntries(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.CarbonEntry, error) {
	return scopedRows[model.CarbonEntry](ctx, r.db, tenantID, projectID)
}
