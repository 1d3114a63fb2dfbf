package models

import (
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	COMMISSION_TYPE_FLAT       = "flat_rate"
	COMMISSION_TYPE_PERCENTAGE = "percentage"
)

// Rebill policies decide how recurring subscription payments are
// credited after the initial sale.
const (
	REBILL_POLICY_NO         = "no"
	REBILL_POLICY_ALL        = "credit_all"
	REBILL_POLICY_NONE       = "credit_none"
	REBILL_POLICY_FIRST_ONLY = "credit_first_only"
)

// Offer defines the commission terms an affiliate earns under: the rate,
// the attribution window and how subscription rebills are treated.
type Offer struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	ShopID                 uint           `gorm:"not null;index;uniqueIndex:ux_offers_shop_number,priority:1" json:"shop_id"`
	OfferNumber            uint           `gorm:"not null;uniqueIndex:ux_offers_shop_number,priority:2" json:"offer_number"`
	Name                   string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	CommissionType         string         `gorm:"type:varchar(20);not null;default:'flat_rate'" json:"commission_type" validate:"oneof=flat_rate percentage"`
	CommissionAmount       float64        `gorm:"type:decimal(10,2);not null" json:"commission_amount" validate:"min=0"`
	Currency               string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency" validate:"len=3"`
	AttributionWindowDays  int            `gorm:"not null;default:30" json:"attribution_window_days" validate:"min=1,max=365"`
	RebillPolicy           string         `gorm:"type:varchar(30);not null;default:'no'" json:"rebill_policy" validate:"oneof=no credit_all credit_none credit_first_only"`
	RebillMaxPayments      int            `gorm:"default:0" json:"rebill_max_payments" validate:"min=0"`
	RebillCommissionAmount float64        `gorm:"type:decimal(10,2);default:0" json:"rebill_commission_amount" validate:"min=0"`
	IsPrivate              bool           `gorm:"default:false" json:"is_private"`
	CreatedAt              time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}

func (o *Offer) Validate() error {
	v := validator.New()

	if err := v.Struct(o); err != nil {
		return err
	}

	// rebill-only fields belong to the credit_first_only policy
	if o.RebillPolicy != REBILL_POLICY_FIRST_ONLY && (o.RebillMaxPayments != 0 || o.RebillCommissionAmount != 0) {
		return errors.New("rebill max payments and rebill amount require the credit_first_only policy")
	}

	return nil
}

// IsPercentage reports whether commissions are computed from the order total.
func (o *Offer) IsPercentage() bool {
	return o.CommissionType == COMMISSION_TYPE_PERCENTAGE
}

// CommissionFor computes the commission amount for an order total under
// this offer's base terms, rounded to cents.
func (o *Offer) CommissionFor(orderTotal float64) float64 {
	if o.IsPercentage() {
		return RoundCents(orderTotal * o.CommissionAmount / 100)
	}
	return RoundCents(o.CommissionAmount)
}

// RoundCents rounds a monetary amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// FindOfferByNumber resolves a public offer number within a shop.
func FindOfferByNumber(db *gorm.DB, shopID uint, number uint) (*Offer, error) {
	var offer Offer
	result := db.Where("shop_id = ? AND offer_number = ?", shopID, number).First(&offer)
	return &offer, result.Error
}
