package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotCategory names an independently rebuilt group of snapshot columns.
type SnapshotCategory string

const (
	CategoryVariation   SnapshotCategory = "variation"
	CategoryTask        SnapshotCategory = "task"
	CategoryFinancial   SnapshotCategory = "financial"
	CategoryProcurement SnapshotCategory = "procurement"
	CategoryRFI         SnapshotCategory = "rfi"
	CategoryQA          SnapshotCategory = "qa"
	CategoryHS          SnapshotCategory = "hs"
	CategoryCarbon      SnapshotCategory = "carbon"
)

// AllSnapshotCategories is the rebuild order used when no category is named.
var AllSnapshotCategories = []SnapshotCategory{
	CategoryVariation,
	CategoryTask,
	CategoryFinancial,
	CategoryProcurement,
	CategoryRFI,
	CategoryQA,
	CategoryHS,
	CategoryCarbon,
}

// Valid reports whether c is a known category.
func (c SnapshotCategory) Valid() bool {
	for _, known := range AllSnapshotCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Columns lists the snapshot columns owned by the category.
func (c SnapshotCategory) Columns() []string {
	switch c {
	case CategoryVariation:
		return []string{"variations_draft", "variations_submitted", "variations_approved", "variations_approved_value"}
	case CategoryTask:
		return []string{"tasks_overdue", "tasks_due_this_week", "schedule_pct"}
	case CategoryFinancial:
		return []string{"budget_total", "committed_total", "actual_total", "forecast_total"}
	case CategoryProcurement:
		return []string{"open_purchase_orders", "critical_late_deliveries"}
	case CategoryRFI:
		return []string{"rfis_open"}
	case CategoryQA:
		return []string{"qa_open"}
	case CategoryHS:
		return []string{"hs_open"}
	case CategoryCarbon:
		return []string{"carbon_mtd", "carbon_ytd"}
	}
	return nil
}

// ProjectSnapshot is the denormalised, eventually consistent rollup of a project.
// It is written only by the recompute engine.
type ProjectSnapshot struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"project_id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	VariationsDraft         int64           `gorm:"not null;default:0" json:"variations_draft"`
	VariationsSubmitted     int64           `gorm:"not null;default:0" json:"variations_submitted"`
	VariationsApproved      int64           `gorm:"not null;default:0" json:"variations_approved"`
	VariationsApprovedValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"variations_approved_value"`

	TasksOverdue     int64           `gorm:"not null;default:0" json:"tasks_overdue"`
	TasksDueThisWeek int64           `gorm:"not null;default:0" json:"tasks_due_this_week"`
	SchedulePct      decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"schedule_pct"`

	BudgetTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"budget_total"`
	CommittedTotal decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"committed_total"`
	ActualTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"actual_total"`
	ForecastTotal  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"forecast_total"`

	OpenPurchaseOrders     int64 `gorm:"not null;default:0" json:"open_purchase_orders"`
	CriticalLateDeliveries int64 `gorm:"not null;default:0" json:"critical_late_deliveries"`

	RFIsOpen  int64           `gorm:"column:rfis_open;not null;default:0" json:"rfis_open"`
	QAOpen    int64           `gorm:"column:qa_open;not null;default:0" json:"qa_open"`
	HSOpen    int64           `gorm:"column:hs_open;not null;default:0" json:"hs_open"`
	CarbonMTD decimal.Decimal `gorm:"column:carbon_mtd;type:decimal(18,4);not null;default:0" json:"carbon_mtd"`
	CarbonYTD decimal.Decimal `gorm:"column:carbon_ytd;type:decimal(18,4);not null;default:0" json:"carbon_ytd"`

	UpdatedAt time.Time `json:"updated_at"`
}
