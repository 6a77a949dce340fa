package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariationStatus is a state of the change-order approval lifecycle.
type VariationStatus string

const (
	VariationDraft       VariationStatus = "draft"
	VariationSubmitted   VariationStatus = "submitted"
	VariationUnderReview VariationStatus = "under_review"
	VariationApproved    VariationStatus = "approved"
	VariationRejected    VariationStatus = "rejected"
	VariationInstructed  VariationStatus = "instructed"
	VariationPriced      VariationStatus = "priced"
	VariationAgreed      VariationStatus = "agreed"
	VariationVOIssued    VariationStatus = "vo_issued"
	VariationVOAccepted  VariationStatus = "vo_accepted"
	// VariationDeleted withdraws a draft while keeping its audit trail.
	VariationDeleted VariationStatus = "deleted"
)

// AllVariationStatuses lists every status in lifecycle order.
var AllVariationStatuses = []VariationStatus{
	VariationDraft,
	VariationSubmitted,
	VariationUnderReview,
	VariationApproved,
	VariationRejected,
	VariationInstructed,
	VariationPriced,
	VariationAgreed,
	VariationVOIssued,
	VariationVOAccepted,
	VariationDeleted,
}

// Valid reports whether s is a known status.
func (s VariationStatus) Valid() bool {
	switch s {
	case VariationDraft, VariationSubmitted, VariationUnderReview, VariationApproved,
		VariationRejected, VariationInstructed, VariationPriced, VariationAgreed,
		VariationVOIssued, VariationVOAccepted, VariationDeleted:
		return true
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func (s VariationStatus) Next() []VariationStatus {
	switch s {
	case VariationDraft:
		return []VariationStatus{VariationSubmitted, VariationDeleted}
	case VariationSubmitted:
		return []VariationStatus{VariationUnderReview, VariationDraft}
	case VariationUnderReview:
		return []VariationStatus{VariationApproved, VariationRejected}
	case VariationApproved:
		return []VariationStatus{VariationInstructed, VariationPriced, VariationAgreed, VariationVOIssued}
	case VariationInstructed:
		return []VariationStatus{VariationPriced, VariationAgreed, VariationVOIssued}
	case VariationPriced:
		return []VariationStatus{VariationAgreed, VariationVOIssued}
	case VariationAgreed:
		return []VariationStatus{VariationVOIssued}
	case VariationVOIssued:
		return []VariationStatus{VariationVOAccepted}
	case VariationRejected, VariationVOAccepted, VariationDeleted:
		return nil
	}
	return nil
}

// CanTransitionTo reports whether moving from s to to is allowed.
// A self-transition is always allowed and is treated as a no-op by callers.
func (s VariationStatus) CanTransitionTo(to VariationStatus) bool {
	if s == to {
		return true
	}
	for _, n := range s.Next() {
		if n == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s VariationStatus) Terminal() bool {
	return len(s.Next()) == 0
}

// IsPending is the snapshot "submitted" bucket.
func (s VariationStatus) IsPending() bool {
	return s == VariationSubmitted || s == VariationUnderReview
}

// IsApproved is true for approved and every post-approval status.
func (s VariationStatus) IsApproved() bool {
	switch s {
	case VariationApproved, VariationInstructed, VariationPriced, VariationAgreed,
		VariationVOIssued, VariationVOAccepted:
		return true
	}
	return false
}

// ApprovedVariationStatuses is the approved bucket as a query argument.
func ApprovedVariationStatuses() []VariationStatus {
	var out []VariationStatus
	for _, s := range AllVariationStatuses {
		if s.IsApproved() {
			out = append(out, s)
		}
	}
	return out
}

// Variation is a change order tracked through its approval lifecycle.
type Variation struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_variation_scope,priority:1" json:"tenant_id"`
	ProjectID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_variation_scope,priority:2" json:"project_id"`
	Reference     string           `gorm:"type:varchar(30);not null" json:"reference"` // VO-0001, per project
	Title         string           `gorm:"type:varchar(255);not null" json:"title"`
	Description   string           `gorm:"type:text" json:"description"`
	Type          string           `gorm:"type:varchar(50)" json:"type"`
	Status        VariationStatus  `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ReasonCode    string           `gorm:"type:varchar(50)" json:"reason_code"`
	EstimatedCost decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"estimated_cost"`
	EstimatedSell decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"estimated_sell"`
	AgreedCost    *decimal.Decimal `gorm:"type:decimal(18,4)" json:"agreed_cost"`
	AgreedSell    *decimal.Decimal `gorm:"type:decimal(18,4)" json:"agreed_sell"`

	SubmittedDate   *time.Time `json:"submitted_date"`
	UnderReviewDate *time.Time `json:"under_review_date"`
	ApprovedDate    *time.Time `gorm:"index" json:"approved_date"`
	RejectedDate    *time.Time `json:"rejected_date"`
	InstructedDate  *time.Time `json:"instructed_date"`
	PricedDate      *time.Time `json:"priced_date"`
	AgreedDate      *time.Time `json:"agreed_date"`
	VOIssuedDate    *time.Time `gorm:"column:vo_issued_date" json:"vo_issued_date"`
	VOAcceptedDate  *time.Time `gorm:"column:vo_accepted_date" json:"vo_accepted_date"`
	DeletedDate     *time.Time `json:"deleted_date"`
	DecisionDate    *time.Time `gorm:"index" json:"decision_date"`

	Lines     []VariationLine `gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VariationLine is one priced item of a variation.
type VariationLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VariationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"variation_id"`
	Position    int             `gorm:"not null" json:"position"`
	CostCode    string          `gorm:"type:varchar(50)" json:"cost_code"`
	Description string          `gorm:"type:text" json:"description"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"qty"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`
	UnitSell    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_sell"`
}

// VariationStatusHistory is the append-only transition log of a variation.
type VariationStatusHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VariationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_history_variation,priority:1" json:"variation_id"`
	FromStatus  VariationStatus `gorm:"type:varchar(20)" json:"from_status"` // empty for the creation row
	ToStatus    VariationStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	Note        string          `gorm:"type:text" json:"note"`
	ChangedBy   *uuid.UUID      `gorm:"type:uuid" json:"changed_by"`
	ChangedAt   time.Time       `gorm:"not null" json:"changed_at"`
	// Seq orders rows by insertion; transitions of one variation are
	// serialised by its row lock, so Seq order is transition order.
	Seq         int64           `gorm:"autoIncrement;not null;index:idx_history_variation,priority:2" json:"seq"`
}

// TableName keeps the history table name singular-per-entity.
func (VariationStatusHistory) TableName() string {
	return "variation_status_history"
}

// TotalCost sums line costs, falling back to the estimate when there are no lines.
func (v Variation) TotalCost() decimal.Decimal {
	if len(v.Lines) == 0 {
		return v.EstimatedCost
	}
	total := decimal.Zero
	for _, l := range v.Lines {
		total = total.Add(l.Qty.Mul(l.UnitCost))
	}
	return total
}

// TotalSell sums line sell values, falling back to the estimate when there are no lines.
func (v Variation) TotalSell() decimal.Decimal {
	if len(v.Lines) == 0 {
		return v.EstimatedSell
	}
	total := decimal.Zero
	for _, l := range v.Lines {
		total = total.Add(l.Qty.Mul(l.UnitSell))
	}
	return total
}

// Value is the contract value of the variation: the agreed sell once agreed,
// otherwise the derived sell total.
func (v Variation) Value() decimal.Decimal {
	if v.AgreedSell != nil {
		return *v.AgreedSell
	}
	return v.TotalSell()
}

// StampStatus records the date the variation reached status.
func (v *Variation) StampStatus(status VariationStatus, at time.Time) {
	t := at
	switch status {
	case VariationSubmitted:
		v.SubmittedDate = &t
	case VariationUnderReview:
		v.UnderReviewDate = &t
	case VariationApproved:
		v.ApprovedDate = &t
		v.DecisionDate = &t
	case VariationRejected:
		v.RejectedDate = &t
		v.DecisionDate = &t
	case VariationInstructed:
		v.InstructedDate = &t
	case VariationPriced:
		v.PricedDate = &t
	case VariationAgreed:
		v.AgreedDate = &t
	case VariationVOIssued:
		v.VOIssuedDate = &t
	case VariationVOAccepted:
		v.VOAcceptedDate = &t
	case VariationDeleted:
		v.DeletedDate = &t
	case VariationDraft:
		// returning to draft keeps earlier stamps
	}
}

// StatusDateColumns returns the columns StampStatus writes for status.
func StatusDateColumns(status VariationStatus) []string {
	switch status {
	case VariationSubmitted:
		return []string{"submitted_date"}
	case VariationUnderReview:
		return []string{"under_review_date"}
	case VariationApproved:
		return []string{"approved_date", "decision_date"}
	case VariationRejected:
		return []string{"rejected_date", "decision_date"}
	case VariationInstructed:
		return []string{"instructed_date"}
	case VariationPriced:
		return []string{"priced_date"}
	case VariationAgreed:
		return []string{"agreed_date"}
	case VariationVOIssued:
		return []string{"vo_issued_date"}
	case VariationVOAccepted:
		return []string{"vo_accepted_date"}
	case VariationDeleted:
		return []string{"deleted_date"}
	}
	return nil
}
