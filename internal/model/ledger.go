package model

import (
	"time"

	"erp/internal/finance"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommitmentStatus enum constants
const (
	CommitmentOpen   = "Open"
	CommitmentClosed = "Closed"
)

// BudgetLine is planned spend against a cost code.
type BudgetLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_budget_scope,priority:1" json:"tenant_id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_budget_scope,priority:2" json:"project_id"`
	Code        string          `gorm:"type:varchar(50)" json:"code"`
	Category    string          `gorm:"type:varchar(100)" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PeriodMonth *string         `gorm:"type:varchar(7);index" json:"period_month"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Commitment is money obligated through a purchase order or contract.
// Only Open commitments count as committed exposure.
type Commitment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_commitment_scope,priority:1" json:"tenant_id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_commitment_scope,priority:2" json:"project_id"`
	Category    string          `gorm:"type:varchar(100)" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Status      string          `gorm:"type:varchar(20);not null;default:'Open';index" json:"status"` // Open, Closed
	LinkedPOID  *uuid.UUID      `gorm:"column:linked_po_id;type:uuid" json:"linked_po_id"`
	PeriodMonth *string         `gorm:"type:varchar(7);index" json:"period_month"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ActualCost is money actually spent.
type ActualCost struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_actual_scope,priority:1" json:"tenant_id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_actual_scope,priority:2" json:"project_id"`
	Category    string          `gorm:"type:varchar(100)" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	IncurredAt  time.Time       `gorm:"not null;index" json:"incurred_at"`
	PeriodMonth *string         `gorm:"type:varchar(7);index" json:"period_month"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Period falls back to the month of IncurredAt when no period was tagged.
func (a ActualCost) Period() finance.Period {
	if a.PeriodMonth != nil && *a.PeriodMonth != "" {
		return finance.Period(*a.PeriodMonth)
	}
	return finance.PeriodOf(a.IncurredAt)
}

// Forecast is projected spend; one row per (tenant, project, period).
type Forecast struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_forecast_period,priority:1" json:"tenant_id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_forecast_period,priority:2" json:"project_id"`
	Period      string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_forecast_period,priority:3" json:"period"`
	Category    string          `gorm:"type:varchar(100)" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func periodOrEmpty(p *string) finance.Period {
	if p == nil {
		return ""
	}
	return finance.Period(*p)
}

// Period returns the tagged period or "" when untagged.
func (b BudgetLine) Period() finance.Period { return periodOrEmpty(b.PeriodMonth) }

// Period returns the tagged period or "" when untagged.
func (c Commitment) Period() finance.Period { return periodOrEmpty(c.PeriodMonth) }

// IsOpen reports whether the commitment still counts as exposure.
func (c Commitment) IsOpen() bool { return c.Status == CommitmentOpen }
