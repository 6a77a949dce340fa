package service

import (
	"context"
	"fmt"
	"strings"

	"erp/internal/model"
	"erp/internal/recompute"
	"erp/internal/repository"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type ProjectService interface {
	Create(ctx context.Context, scope Scope, req CreateProjectRequest) (*model.Project, error)
	Get(ctx context.Context, scope Scope, id uuid.UUID) (*model.Project, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	trigger     recompute.Trigger
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	trigger recompute.Trigger,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		trigger:     trigger,
	}
}

func (s *projectService) Create(ctx context.Context, scope Scope, req CreateProjectRequest) (*model.Project, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, validationf("code and name are required")
	}

	project := &model.Project{TenantID: scope.TenantID, Code: code, Name: name}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return repoErr("create project", err)
		}
		return writeAudit(txCtx, s.auditRepo, scope, "project", project.ID.String(), model.ActionCreateProject,
			map[string]any{"after": project})
	})
	if err != nil {
		return nil, err
	}

	// Seed an all-zero snapshot so dashboards have a row to read.
	s.trigger.Enqueue(project.ID)
	return project, nil
}

func (s *projectService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, scope.TenantID, id)
	if err != nil {
		return nil, repoErr(fmt.Sprintf("project %s", id), err)
	}
	return project, nil
}
