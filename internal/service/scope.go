package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"erp/internal/finance"
	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Scope identifies the tenant a request acts for and, when known, the user.
type Scope struct {
	TenantID uuid.UUID
	UserID   *uuid.UUID
}

// AmountInput accepts a JSON number or a numeric string. Parsing is deferred
// so a bad value is reported as a validation error on the named field.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	*a = AmountInput(raw)
	return nil
}

func parseAmount(field string, in AmountInput) (decimal.Decimal, error) {
	d, err := finance.ParseAmount(string(in))
	if err != nil {
		return decimal.Zero, validationf("%s: %v", field, err)
	}
	return d, nil
}

func parseOptionalAmount(field string, in *AmountInput) (*decimal.Decimal, error) {
	if in == nil {
		return nil, nil
	}
	d, err := parseAmount(field, *in)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parsePeriodPtr validates an optional "YYYY-MM"; an empty string clears it.
func parsePeriodPtr(field string, raw *string) (*string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	p, err := finance.ParsePeriod(*raw)
	if err != nil {
		return nil, validationf("%s: %v", field, err)
	}
	s := p.String()
	return &s, nil
}

// writeAudit records an audit row on the transaction carried by ctx.
func writeAudit(ctx context.Context, repo repository.AuditRepository, scope Scope, entity, entityID, action string, changes any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encode audit changes: %w", err)
	}
	entry := &model.AuditLog{
		TenantID: scope.TenantID,
		UserID:   scope.UserID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Changes:  datatypes.JSON(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func beforeAfter(before, after any) map[string]any {
	return map[string]any{"before": before, "after": after}
}

// requireProject resolves the project within the caller's tenant.
func requireProject(ctx context.Context, repo repository.ProjectRepository, scope Scope, projectID uuid.UUID) (*model.Project, error) {
	project, err := repo.FindByID(ctx, scope.TenantID, projectID)
	if err != nil {
		return nil, repoErr(fmt.Sprintf("project %s", projectID), err)
	}
	return project, nil
}
