package repository

import (
	"context"
	"fmt"
	"time"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VariationFields are the editable columns written by Update.
var VariationFields = []string{
	"title", "description", "type", "reason_code",
	"estimated_cost", "estimated_sell", "agreed_cost", "agreed_sell", "updated_at",
}

type VariationRepository interface {
	Create(ctx context.Context, v *model.Variation) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Variation, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Variation, error)
	List(ctx context.Context, tenantID, projectID uuid.UUID, status string, page, limit int) ([]model.Variation, int64, error)
	ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.Variation, error)
	ListApprovedInWindow(ctx context.Context, tenantID, projectID uuid.UUID, from, to time.Time) ([]model.Variation, error)
	Update(ctx context.Context, v *model.Variation, replaceLines bool) error
	UpdateStatus(ctx context.Context, v *model.Variation, expected model.VariationStatus) error
	AppendHistory(ctx context.Context, h *model.VariationStatusHistory) error
	History(ctx context.Context, tenantID, variationID uuid.UUID) ([]model.VariationStatusHistory, error)
	NextReference(ctx context.Context, tenantID, projectID uuid.UUID) (string, error)
}

type variationRepository struct {
	db *gorm.DB
}

func NewVariationRepository(db *gorm.DB) VariationRepository {
	return &variationRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (r *variationRepository) Create(ctx context.Context, v *model.Variation) error {
	return translate(GetDB(ctx, r.db).Create(v).Error)
}

func (r *variationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Variation, error) {
	var v model.Variation
	if err := GetDB(ctx, r.db).Preload("Lines", orderedLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// FindByIDForUpdate locks the variation row until the surrounding transaction ends.
func (r *variationRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Variation, error) {
	var v model.Variation
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *variationRepository) List(ctx context.Context, tenantID, projectID uuid.UUID, status string, page, limit int) ([]model.Variation, int64, error) {
	var variations []model.Variation
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Variation{}).Where("tenant_id = ? AND project_id = ?", tenantID, projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Lines", orderedLines).Where("tenant_id = ? AND project_id = ?", tenantID, projectID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("reference").Offset(offset).Limit(limit).Find(&variations).Error; err != nil {
		return nil, 0, err
	}

	return variations, total, nil
}

func (r *variationRepository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]model.Variation, error) {
	var variations []model.Variation
	if err := GetDB(ctx, r.db).Preload("Lines", orderedLines).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}

// ListApprovedInWindow returns approved-bucket variations whose approval or
// decision date falls in [from, to).
func (r *variationRepository) ListApprovedInWindow(ctx context.Context, tenantID, projectID uuid.UUID, from, to time.Time) ([]model.Variation, error) {
	var variations []model.Variation
	if err := GetDB(ctx, r.db).Preload("Lines", orderedLines).
		Where("tenant_id = ? AND project_id = ? AND status IN ?", tenantID, projectID, model.ApprovedVariationStatuses()).
		Where("((approved_date >= ? AND approved_date < ?) OR (decision_date >= ? AND decision_date < ?))", from, to, from, to).
		Order("reference").
		Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}

// Update writes the editable columns and, when replaceLines is set, swaps the
// line set for v.Lines. Callers run it inside a transaction.
func (r *variationRepository) Update(ctx context.Context, v *model.Variation, replaceLines bool) error {
	db := GetDB(ctx, r.db)
	res := db.Model(v).Where("tenant_id = ?", v.TenantID).Select(VariationFields).Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if !replaceLines {
		return nil
	}

	if err := db.Where("variation_id = ?", v.ID).Delete(&model.VariationLine{}).Error; err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	if len(v.Lines) == 0 {
		return nil
	}
	for i := range v.Lines {
		v.Lines[i].VariationID = v.ID
	}
	if err := db.Create(&v.Lines).Error; err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// UpdateStatus writes v.Status and its date stamps only if the stored status
// still equals expected. ErrConflict means another writer got there first.
func (r *variationRepository) UpdateStatus(ctx context.Context, v *model.Variation, expected model.VariationStatus) error {
	cols := append([]string{"status", "updated_at"}, model.StatusDateColumns(v.Status)...)
	res := GetDB(ctx, r.db).Model(v).
		Where("tenant_id = ? AND status = ?", v.TenantID, expected).
		Select(cols).
		Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *variationRepository) AppendHistory(ctx context.Context, h *model.VariationStatusHistory) error {
	return translate(GetDB(ctx, r.db).Create(h).Error)
}

func (r *variationRepository) History(ctx context.Context, tenantID, variationID uuid.UUID) ([]model.VariationStatusHistory, error) {
	var rows []model.VariationStatusHistory
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND variation_id = ?", tenantID, variationID).
		Order("seq").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// NextReference allocates the next VO-nnnn for the project. It holds a
// transaction-scoped advisory lock, so it must run inside RunInTx.
func (r *variationRepository) NextReference(ctx context.Context, tenantID, projectID uuid.UUID) (string, error) {
	db := GetDB(ctx, r.db)
	if err := advisoryXactLock(db, "variation-ref:"+projectID.String()); err != nil {
		return "", fmt.Errorf("lock reference sequence: %w", err)
	}

	var count int64
	if err := db.Model(&model.Variation{}).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("VO-%04d", count+1), nil
}
