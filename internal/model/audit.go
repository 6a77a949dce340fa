package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionCreateProject = "CREATE_PROJECT"

	ActionCreateBudgetLine = "CREATE_BUDGET_LINE"
	ActionUpdateBudgetLine = "UPDATE_BUDGET_LINE"
	ActionDeleteBudgetLine = "DELETE_BUDGET_LINE"
	ActionCreateCommitment = "CREATE_COMMITMENT"
	ActionUpdateCommitment = "UPDATE_COMMITMENT"
	ActionDeleteCommitment = "DELETE_COMMITMENT"
	ActionCreateActualCost = "CREATE_ACTUAL_COST"
	ActionUpdateActualCost = "UPDATE_ACTUAL_COST"
	ActionDeleteActualCost = "DELETE_ACTUAL_COST"
	ActionUpsertForecast   = "UPSERT_FORECAST"
	ActionUpdateForecast   = "UPDATE_FORECAST"
	ActionDeleteForecast   = "DELETE_FORECAST"

	// Variation workflow actions
	ActionCreateVariation       = "CREATE_VARIATION"
	ActionUpdateVariation       = "UPDATE_VARIATION"
	ActionVariationStatusChange = "VARIATION_STATUS_CHANGE"
)

// AuditLog records who changed what, per tenant. Updates and deletes carry
// {"before": ..., "after": ...} in Changes.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // nil for system writes
	Entity    string         `gorm:"type:varchar(50);not null;index" json:"entity"`
	EntityID  string         `gorm:"type:varchar(50);index" json:"entity_id"`
	Action    string         `gorm:"type:varchar(50);not null;index" json:"action"`
	Changes   datatypes.JSON `gorm:"type:jsonb" json:"changes"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
