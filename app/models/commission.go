package models

import (
	"time"
)

// Commission lifecycle. Pending commissions wait out the payout terms,
// eligible ones passed validation, approved ones cleared fraud review.
// Paid and reversed are terminal.
const (
	COMMISSION_STATUS_PENDING  = "pending"
	COMMISSION_STATUS_ELIGIBLE = "eligible"
	COMMISSION_STATUS_APPROVED = "approved"
	COMMISSION_STATUS_PAID     = "paid"
	COMMISSION_STATUS_REVERSED = "reversed"
)

const (
	ATTRIBUTION_TYPE_REF_CODE = "ref_code"
	ATTRIBUTION_TYPE_SESSION  = "session"
	ATTRIBUTION_TYPE_MANUAL   = "manual"
)

// Commission is the money an affiliate earned on one attributed order
// payment. Rebills of the same subscription create separate rows with an
// increasing SubscriptionPaymentNumber.
type Commission struct {
	ID                        uint        `gorm:"primaryKey" json:"id"`
	ShopID                    uint        `gorm:"not null;index;uniqueIndex:ux_commissions_shop_order,priority:1" json:"shop_id"`
	AffiliateID               uint        `gorm:"not null;index" json:"affiliate_id"`
	Affiliate                 Affiliate   `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	OfferID                   uint        `gorm:"index" json:"offer_id"`
	OrderID                   string      `gorm:"type:varchar(64);not null;uniqueIndex:ux_commissions_shop_order,priority:2" json:"order_id"`
	OrderNumber               string      `gorm:"type:varchar(64)" json:"order_number"`
	Amount                    float64     `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency                  string      `gorm:"type:varchar(3);not null" json:"currency"`
	Status                    string      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EligibleDate              time.Time   `gorm:"type:timestamp;not null" json:"eligible_date"`
	AttributionType           string      `gorm:"type:varchar(20);not null;default:'ref_code'" json:"attribution_type"`
	SessionID                 string      `gorm:"type:char(36);index" json:"session_id,omitempty"`
	SubscriptionPaymentNumber int         `gorm:"not null;default:1" json:"subscription_payment_number"`
	PayoutRunID               *uint       `gorm:"index" json:"payout_run_id,omitempty"`
	ReversalReason            string      `gorm:"type:varchar(500)" json:"reversal_reason,omitempty"`
	PaidAt                    *time.Time  `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	FraudFlags                []FraudFlag `gorm:"foreignKey:CommissionID" json:"fraud_flags,omitempty"`
	CreatedAt                 time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// commissionTransitions lists every legal forward edge of the lifecycle.
// Reversal is handled separately because it is legal from any
// non-terminal state.
var commissionTransitions = map[string]string{
	COMMISSION_STATUS_PENDING:  COMMISSION_STATUS_ELIGIBLE,
	COMMISSION_STATUS_ELIGIBLE: COMMISSION_STATUS_APPROVED,
	COMMISSION_STATUS_APPROVED: COMMISSION_STATUS_PAID,
}

// CanTransitionCommission reports whether a commission may move from one
// status to another. Terminal states have no exits.
func CanTransitionCommission(from, to string) bool {
	if to == COMMISSION_STATUS_REVERSED {
		return !IsTerminalCommissionStatus(from)
	}
	next, ok := commissionTransitions[from]
	return ok && next == to
}

// IsTerminalCommissionStatus reports whether no further transition is
// allowed out of the given status.
func IsTerminalCommissionStatus(status string) bool {
	return status == COMMISSION_STATUS_PAID || status == COMMISSION_STATUS_REVERSED
}

// IsTerminal reports whether the commission reached a final state.
func (c *Commission) IsTerminal() bool {
	return IsTerminalCommissionStatus(c.Status)
}

// HasUnresolvedFlags reports whether any loaded fraud flag is still open.
// FraudFlags must have been preloaded.
func (c *Commission) HasUnresolvedFlags() bool {
	for _, f := range c.FraudFlags {
		if !f.Resolved {
			return true
		}
	}
	return false
}

// IsInitialPayment reports whether this commission belongs to the first
// payment of an order rather than a rebill.
func (c *Commission) IsInitialPayment() bool {
	return c.SubscriptionPaymentNumber <= 1
}
