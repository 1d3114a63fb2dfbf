package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Fraud flag types raised by the screening rules.
const (
	FRAUD_FLAG_SELF_PURCHASE = "self_purchase"
	FRAUD_FLAG_VELOCITY      = "velocity"
	FRAUD_FLAG_ORDER_VALUE   = "order_value"
)

// FraudFlag marks a commission as suspicious. An unresolved flag blocks
// approval of its commission. Resolution is one-way: a resolved flag can
// never be reopened, and resolving it does not advance the commission.
type FraudFlag struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ShopID       uint       `gorm:"not null;index" json:"shop_id"`
	CommissionID uint       `gorm:"not null;index" json:"commission_id"`
	FlagType     string     `gorm:"type:varchar(50);not null" json:"flag_type" validate:"required"`
	Score        int        `gorm:"not null" json:"score" validate:"min=0,max=100"`
	Reason       string     `gorm:"type:varchar(500)" json:"reason"`
	Resolved     bool       `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedAt   *time.Time `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *FraudFlag) Validate() error {
	v := validator.New()

	return v.Struct(f)
}

// Resolve marks the flag handled. Calling it on an already resolved flag
// is a no-op so the operation stays idempotent.
func (f *FraudFlag) Resolve() {
	if f.Resolved {
		return
	}
	now := time.Now()
	f.Resolved = true
	f.ResolvedAt = &now
}
