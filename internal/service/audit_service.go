package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"erp/internal/model"
	"erp/internal/repository"
)

type AuditLogResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Action    string          `json:"action"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type AuditQuery struct {
	Entity   string
	EntityID string
	Page     int
	Limit    int
}

type AuditService interface {
	List(ctx context.Context, scope Scope, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// List pages the tenant's audit trail, newest first.
func (s *auditService) List(ctx context.Context, scope Scope, q AuditQuery) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, scope.TenantID, repository.AuditFilter{
		Entity:   q.Entity,
		EntityID: q.EntityID,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditLogResponse(l))
	}
	return res, total, nil
}

func toAuditLogResponse(l model.AuditLog) AuditLogResponse {
	userID := ""
	if l.UserID != nil {
		userID = l.UserID.String()
	}
	var changes json.RawMessage
	if len(l.Changes) > 0 {
		changes = json.RawMessage(l.Changes)
	}
	return AuditLogResponse{
		ID:        l.ID.String(),
		UserID:    userID,
		Entity:    l.Entity,
		EntityID:  l.EntityID,
		Action:    l.Action,
		Changes:   changes,
		CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
}
