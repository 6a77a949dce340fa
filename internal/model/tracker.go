package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tracker status constants shared by the cross-module registers.
const (
	TaskStatusDone      = "Done"
	TrackerStatusOpen   = "Open"
	TrackerStatusClosed = "Closed"
	POStatusOpen        = "Open"
)

// The tracker tables below are owned by the surrounding CRUD layer.
// Only the columns the snapshot categories read are mapped.

// Task is a programme activity.
type Task struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_scope,priority:1" json:"tenant_id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_scope,priority:2" json:"project_id"`
	Title     string     `gorm:"type:varchar(255)" json:"title"`
	Status    string     `gorm:"type:varchar(30);not null" json:"status"`
	DueDate   *time.Time `json:"due_date"`
}

// PurchaseOrder is a procurement order.
type PurchaseOrder struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_po_scope,priority:1" json:"tenant_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_po_scope,priority:2" json:"project_id"`
	Number    string    `gorm:"type:varchar(50)" json:"number"`
	Status    string    `gorm:"type:varchar(30);not null" json:"status"`
}

// Delivery is an expected receipt against a purchase order.
type Delivery struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_delivery_scope,priority:1" json:"tenant_id"`
	ProjectID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_delivery_scope,priority:2" json:"project_id"`
	PurchaseOrderID *uuid.UUID `gorm:"type:uuid" json:"purchase_order_id"`
	ExpectedAt      time.Time  `gorm:"not null" json:"expected_at"`
	ReceivedAt      *time.Time `json:"received_at"`
}

// RFI is a request for information.
type RFI struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_rfi_scope,priority:1" json:"tenant_id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index:idx_rfi_scope,priority:2" json:"project_id"`
	Subject   string         `gorm:"type:varchar(255)" json:"subject"`
	Status    string         `gorm:"type:varchar(30);not null" json:"status"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName keeps the acronym readable.
func (RFI) TableName() string { return "rfis" }

// QAItem is an inspection or non-conformance record.
type QAItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_qa_scope,priority:1" json:"tenant_id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index:idx_qa_scope,priority:2" json:"project_id"`
	Title     string         `gorm:"type:varchar(255)" json:"title"`
	Status    string         `gorm:"type:varchar(30);not null" json:"status"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName keeps the acronym readable.
func (QAItem) TableName() string { return "qa_items" }

// HSEvent is a health and safety incident or observation.
type HSEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_hs_scope,priority:1" json:"tenant_id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index:idx_hs_scope,priority:2" json:"project_id"`
	Kind      string         `gorm:"type:varchar(50)" json:"kind"`
	Status    string         `gorm:"type:varchar(30);not null" json:"status"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName keeps the acronym readable.
func (HSEvent) TableName() string { return "hs_events" }

// CarbonEntry is a recorded emission quantity (kgCO2e).
type CarbonEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_carbon_scope,priority:1" json:"tenant_id"`
	ProjectID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_carbon_scope,priority:2" json:"project_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	RecordedAt time.Time       `gorm:"not null;index" json:"recorded_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}
