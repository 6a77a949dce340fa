package repository

import (
	"context"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Project, error)
	// FindAnyByID resolves a project without a tenant scope. Only the
	// recompute engine uses it, to learn the owning tenant.
	FindAnyByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return translate(GetDB(ctx, r.db).Create(project).Error)
}

func (r *projectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *projectRepository) FindAnyByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *projectRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := GetDB(ctx, r.db).Model(&model.Project{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
