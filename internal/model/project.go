package model

import (
	"time"

	"github.com/google/uuid"
)

// Project is the tenant-scoped container owning ledgers, variations and the snapshot.
type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_projects_tenant_code,priority:1" json:"tenant_id"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_projects_tenant_code,priority:2" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
