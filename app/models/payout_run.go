package models

import (
	"time"
)

const (
	PAYOUT_RUN_STATUS_DRAFT    = "draft"
	PAYOUT_RUN_STATUS_APPROVED = "approved"
)

// PayoutRun batches eligible and approved commissions for one payout
// period. A draft run can be reviewed and discarded; approving it marks
// every member commission paid in a single transaction.
type PayoutRun struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ShopID          uint         `gorm:"not null;index" json:"shop_id"`
	PeriodStart     time.Time    `gorm:"type:timestamp;not null" json:"period_start"`
	PeriodEnd       time.Time    `gorm:"type:timestamp;not null" json:"period_end"`
	Status          string       `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	TotalAmount     float64      `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Currency        string       `gorm:"type:varchar(3);not null" json:"currency"`
	PayoutReference string       `gorm:"type:varchar(100)" json:"payout_reference,omitempty"`
	ApprovedAt      *time.Time   `gorm:"type:timestamp;default:null" json:"approved_at,omitempty"`
	Commissions     []Commission `gorm:"foreignKey:PayoutRunID" json:"commissions,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsDraft reports whether the run can still be modified or approved.
func (p *PayoutRun) IsDraft() bool {
	return p.Status == PAYOUT_RUN_STATUS_DRAFT
}
