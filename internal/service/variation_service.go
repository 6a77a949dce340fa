package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erp/internal/metrics"
	"erp/internal/model"
	"erp/internal/recompute"
	"erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type VariationLineInput struct {
	CostCode    string      `json:"cost_code"`
	Description string      `json:"description"`
	Qty         AmountInput `json:"qty" swaggertype:"string"`
	UnitCost    AmountInput `json:"unit_cost" swaggertype:"string"`
	UnitSell    AmountInput `json:"unit_sell" swaggertype:"string"`
}

type CreateVariationRequest struct {
	Title         string               `json:"title" binding:"required"`
	Description   string               `json:"description"`
	Type          string               `json:"type"`
	ReasonCode    string               `json:"reason_code"`
	EstimatedCost *AmountInput         `json:"estimated_cost" swaggertype:"string"`
	EstimatedSell *AmountInput         `json:"estimated_sell" swaggertype:"string"`
	Lines         []VariationLineInput `json:"lines"`
}

// UpdateVariationRequest is a patch; Lines, when present, replaces every line.
type UpdateVariationRequest struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	Type          *string               `json:"type"`
	ReasonCode    *string               `json:"reason_code"`
	EstimatedCost *AmountInput          `json:"estimated_cost" swaggertype:"string"`
	EstimatedSell *AmountInput          `json:"estimated_sell" swaggertype:"string"`
	AgreedCost    *AmountInput          `json:"agreed_cost" swaggertype:"string"`
	AgreedSell    *AmountInput          `json:"agreed_sell" swaggertype:"string"`
	Lines         *[]VariationLineInput `json:"lines"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type VariationResponse struct {
	model.Variation
	TotalCost decimal.Decimal `json:"total_cost"`
	TotalSell decimal.Decimal `json:"total_sell"`
	Value     decimal.Decimal `json:"value"`
}

func toVariationResponse(v *model.Variation) VariationResponse {
	return VariationResponse{
		Variation: *v,
		TotalCost: v.TotalCost(),
		TotalSell: v.TotalSell(),
		Value:     v.Value(),
	}
}

// --- Interface ---

type VariationService interface {
	Create(ctx context.Context, scope Scope, projectID uuid.UUID, req CreateVariationRequest) (VariationResponse, error)
	Get(ctx context.Context, scope Scope, projectID, id uuid.UUID) (VariationResponse, error)
	List(ctx context.Context, scope Scope, projectID uuid.UUID, status string, page, limit int) ([]VariationResponse, int64, error)
	Update(ctx context.Context, scope Scope, projectID, id uuid.UUID, req UpdateVariationRequest) (VariationResponse, error)
	ChangeStatus(ctx context.Context, scope Scope, projectID, id uuid.UUID, req ChangeStatusRequest) (VariationResponse, error)
	History(ctx context.Context, scope Scope, projectID, id uuid.UUID) ([]model.VariationStatusHistory, error)
}

type variationService struct {
	variationRepo repository.VariationRepository
	projectRepo   repository.ProjectRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	trigger       recompute.Trigger
	metrics       *metrics.Recorder
	now           func() time.Time
}

func NewVariationService(
	variationRepo repository.VariationRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	trigger recompute.Trigger,
	rec *metrics.Recorder,
) VariationService {
	return &variationService{
		variationRepo: variationRepo,
		projectRepo:   projectRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		trigger:       trigger,
		metrics:       rec,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

func buildLines(in []VariationLineInput) ([]model.VariationLine, error) {
	lines := make([]model.VariationLine, 0, len(in))
	for i, l := range in {
		qty, err := parseAmount(fmt.Sprintf("lines[%d].qty", i), l.Qty)
		if err != nil {
			return nil, err
		}
		unitCost, err := parseAmount(fmt.Sprintf("lines[%d].unit_cost", i), l.UnitCost)
		if err != nil {
			return nil, err
		}
		unitSell, err := parseAmount(fmt.Sprintf("lines[%d].unit_sell", i), l.UnitSell)
		if err != nil {
			return nil, err
		}
		lines = append(lines, model.VariationLine{
			Position:    i + 1,
			CostCode:    strings.TrimSpace(l.CostCode),
			Description: l.Description,
			Qty:         qty,
			UnitCost:    unitCost,
			UnitSell:    unitSell,
		})
	}
	return lines, nil
}

func (s *variationService) Create(ctx context.Context, scope Scope, projectID uuid.UUID, req CreateVariationRequest) (VariationResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return VariationResponse{}, validationf("title is required")
	}
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return VariationResponse{}, err
	}

	v := &model.Variation{
		TenantID:      scope.TenantID,
		ProjectID:     projectID,
		Title:         title,
		Description:   req.Description,
		Type:          req.Type,
		ReasonCode:    req.ReasonCode,
		Status:        model.VariationDraft,
		EstimatedCost: decimal.Zero,
		EstimatedSell: decimal.Zero,
	}
	if req.EstimatedCost != nil {
		d, err := parseAmount("estimated_cost", *req.EstimatedCost)
		if err != nil {
			return VariationResponse{}, err
		}
		v.EstimatedCost = d
	}
	if req.EstimatedSell != nil {
		d, err := parseAmount("estimated_sell", *req.EstimatedSell)
		if err != nil {
			return VariationResponse{}, err
		}
		v.EstimatedSell = d
	}
	lines, err := buildLines(req.Lines)
	if err != nil {
		return VariationResponse{}, err
	}
	v.Lines = lines

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ref, err := s.variationRepo.NextReference(txCtx, scope.TenantID, projectID)
		if err != nil {
			return fmt.Errorf("allocate reference: %w", err)
		}
		v.Reference = ref

		if err := s.variationRepo.Create(txCtx, v); err != nil {
			return repoErr("create variation", err)
		}
		history := &model.VariationStatusHistory{
			TenantID:    scope.TenantID,
			VariationID: v.ID,
			ToStatus:    model.VariationDraft,
			Note:        "created",
			ChangedBy:   scope.UserID,
			ChangedAt:   s.now(),
		}
		if err := s.variationRepo.AppendHistory(txCtx, history); err != nil {
			return repoErr("write variation history", err)
		}
		return writeAudit(txCtx, s.auditRepo, scope, "variation", v.ID.String(), model.ActionCreateVariation,
			map[string]any{"after": toVariationResponse(v)})
	})
	if err != nil {
		return VariationResponse{}, err
	}

	s.trigger.Enqueue(projectID, model.CategoryVariation)
	return toVariationResponse(v), nil
}

func (s *variationService) Get(ctx context.Context, scope Scope, projectID, id uuid.UUID) (VariationResponse, error) {
	v, err := s.variationRepo.FindByID(ctx, scope.TenantID, id)
	if err == nil {
		err = inProject(v, projectID)
	}
	if err != nil {
		return VariationResponse{}, repoErr(fmt.Sprintf("variation %s", id), err)
	}
	return toVariationResponse(v), nil
}

// inProject reports a variation filed under another project as missing.
func inProject(v *model.Variation, projectID uuid.UUID) error {
	if v.ProjectID != projectID {
		return repository.ErrNotFound
	}
	return nil
}

func (s *variationService) List(ctx context.Context, scope Scope, projectID uuid.UUID, status string, page, limit int) ([]VariationResponse, int64, error) {
	if status != "" && !model.VariationStatus(status).Valid() {
		return nil, 0, validationf("unknown status %q", status)
	}
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return nil, 0, err
	}

	variations, total, err := s.variationRepo.List(ctx, scope.TenantID, projectID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list variations: %w", err)
	}
	res := make([]VariationResponse, 0, len(variations))
	for i := range variations {
		res = append(res, toVariationResponse(&variations[i]))
	}
	return res, total, nil
}

func (s *variationService) Update(ctx context.Context, scope Scope, projectID, id uuid.UUID, req UpdateVariationRequest) (VariationResponse, error) {
	var lines []model.VariationLine
	if req.Lines != nil {
		built, err := buildLines(*req.Lines)
		if err != nil {
			return VariationResponse{}, err
		}
		lines = built
	}

	var updated *model.Variation
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.variationRepo.FindByIDForUpdate(txCtx, scope.TenantID, id)
		if err == nil {
			err = inProject(locked, projectID)
		}
		if err != nil {
			return repoErr(fmt.Sprintf("variation %s", id), err)
		}
		v, err := s.variationRepo.FindByID(txCtx, scope.TenantID, id)
		if err != nil {
			return repoErr(fmt.Sprintf("variation %s", id), err)
		}
		if v.Status == model.VariationDeleted {
			return validationf("variation %s is deleted", v.Reference)
		}
		before := toVariationResponse(v)

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return validationf("title cannot be blank")
			}
			v.Title = title
		}
		setString(&v.Description, req.Description)
		setString(&v.Type, req.Type)
		setString(&v.ReasonCode, req.ReasonCode)
		for _, f := range []struct {
			name string
			in   *AmountInput
			dst  *decimal.Decimal
		}{
			{"estimated_cost", req.EstimatedCost, &v.EstimatedCost},
			{"estimated_sell", req.EstimatedSell, &v.EstimatedSell},
		} {
			if f.in == nil {
				continue
			}
			d, err := parseAmount(f.name, *f.in)
			if err != nil {
				return err
			}
			*f.dst = d
		}
		if v.AgreedCost, err = mergeOptionalAmount("agreed_cost", req.AgreedCost, v.AgreedCost); err != nil {
			return err
		}
		if v.AgreedSell, err = mergeOptionalAmount("agreed_sell", req.AgreedSell, v.AgreedSell); err != nil {
			return err
		}
		if req.Lines != nil {
			v.Lines = lines
		}
		v.UpdatedAt = s.now()

		if err := s.variationRepo.Update(txCtx, v, req.Lines != nil); err != nil {
			return repoErr("update variation", err)
		}
		updated = v
		return writeAudit(txCtx, s.auditRepo, scope, "variation", v.ID.String(), model.ActionUpdateVariation,
			beforeAfter(before, toVariationResponse(v)))
	})
	if err != nil {
		return VariationResponse{}, err
	}

	s.trigger.Enqueue(updated.ProjectID, model.CategoryVariation)
	return toVariationResponse(updated), nil
}

// mergeOptionalAmount applies a patch to a nullable amount. An empty string
// clears the value.
func mergeOptionalAmount(field string, in *AmountInput, current *decimal.Decimal) (*decimal.Decimal, error) {
	if in == nil {
		return current, nil
	}
	if strings.TrimSpace(string(*in)) == "" {
		return nil, nil
	}
	return parseOptionalAmount(field, in)
}

// ChangeStatus moves a variation along the workflow. The row is locked for
// the whole transaction and the status write is conditional on the status
// that was read, so two racing transitions cannot both succeed.
func (s *variationService) ChangeStatus(ctx context.Context, scope Scope, projectID, id uuid.UUID, req ChangeStatusRequest) (VariationResponse, error) {
	to := model.VariationStatus(strings.TrimSpace(req.Status))
	if !to.Valid() {
		return VariationResponse{}, validationf("unknown status %q", req.Status)
	}

	var (
		result  *model.Variation
		from    model.VariationStatus
		changed bool
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := s.variationRepo.FindByIDForUpdate(txCtx, scope.TenantID, id)
		if err == nil {
			err = inProject(v, projectID)
		}
		if err != nil {
			return repoErr(fmt.Sprintf("variation %s", id), err)
		}
		from = v.Status
		result = v
		if from == to {
			return nil
		}
		if !from.CanTransitionTo(to) {
			return &TransitionError{From: from, To: to}
		}

		now := s.now()
		v.Status = to
		v.StampStatus(to, now)
		v.UpdatedAt = now
		if err := s.variationRepo.UpdateStatus(txCtx, v, from); err != nil {
			return repoErr("update variation status", err)
		}

		history := &model.VariationStatusHistory{
			TenantID:    scope.TenantID,
			VariationID: v.ID,
			FromStatus:  from,
			ToStatus:    to,
			Note:        req.Note,
			ChangedBy:   scope.UserID,
			ChangedAt:   now,
		}
		if err := s.variationRepo.AppendHistory(txCtx, history); err != nil {
			return repoErr("write variation history", err)
		}
		changed = true
		return writeAudit(txCtx, s.auditRepo, scope, "variation", v.ID.String(), model.ActionVariationStatusChange,
			map[string]any{
				"before": map[string]any{"status": from},
				"after":  map[string]any{"status": to},
				"note":   req.Note,
			})
	})
	switch {
	case errors.Is(err, ErrInvalidTransition):
		s.metrics.VariationTransition(string(from), string(to), "invalid")
		return VariationResponse{}, err
	case errors.Is(err, ErrConflict):
		s.metrics.VariationTransition(string(from), string(to), "conflict")
		return VariationResponse{}, err
	case err != nil:
		return VariationResponse{}, err
	}

	if changed {
		s.metrics.VariationTransition(string(from), string(to), "ok")
		s.trigger.Enqueue(result.ProjectID, model.CategoryVariation)
	}
	return s.Get(ctx, scope, projectID, id)
}

func (s *variationService) History(ctx context.Context, scope Scope, projectID, id uuid.UUID) ([]model.VariationStatusHistory, error) {
	v, err := s.variationRepo.FindByID(ctx, scope.TenantID, id)
	if err == nil {
		err = inProject(v, projectID)
	}
	if err != nil {
		return nil, repoErr(fmt.Sprintf("variation %s", id), err)
	}
	rows, err := s.variationRepo.History(ctx, scope.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("load variation history: %w", err)
	}
	return rows, nil
}
