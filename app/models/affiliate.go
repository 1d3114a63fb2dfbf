package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	AFFILIATE_STATUS_ACTIVE    = "active"
	AFFILIATE_STATUS_SUSPENDED = "suspended"
	AFFILIATE_STATUS_BANNED    = "banned"
)

const (
	PAYOUT_METHOD_PAYPAL = "paypal"
	PAYOUT_METHOD_BANK   = "bank_transfer"
	PAYOUT_METHOD_MANUAL = "manual"
)

// Webhook parameter kinds. A fixed parameter always sends the stored
// value, a dynamic one is resolved from commission data at send time.
const (
	WEBHOOK_PARAM_FIXED   = "fixed"
	WEBHOOK_PARAM_DYNAMIC = "dynamic"
)

// WebhookParam is one entry of an affiliate postback mapping. Exactly one
// of Value (fixed) or Field (dynamic) is meaningful, selected by Kind.
type WebhookParam struct {
	Kind  string `json:"kind" validate:"oneof=fixed dynamic"`
	Value string `json:"value,omitempty"`
	Field string `json:"field,omitempty"`
}

// WebhookParamMap stores the postback parameter mapping as a JSON column.
type WebhookParamMap map[string]WebhookParam

// Value implements the driver.Valuer interface
func (m WebhookParamMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (m *WebhookParamMap) Scan(value interface{}) error {
	if value == nil {
		*m = WebhookParamMap{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	if len(bytes) == 0 {
		*m = WebhookParamMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Affiliate is a partner promoting the shop. The AffiliateNumber is the
// public identifier used in tracking links; it is assigned once at
// creation and never changes afterwards.
type Affiliate struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ShopID          uint            `gorm:"not null;index;uniqueIndex:ux_affiliates_shop_number,priority:1" json:"shop_id"`
	AffiliateNumber uint            `gorm:"not null;uniqueIndex:ux_affiliates_shop_number,priority:2" json:"affiliate_number"`
	FirstName       string          `gorm:"type:varchar(100)" json:"first_name" validate:"max=100"`
	LastName        string          `gorm:"type:varchar(100)" json:"last_name" validate:"max=100"`
	CompanyName     string          `gorm:"type:varchar(150)" json:"company_name" validate:"max=150"`
	Email           string          `gorm:"type:varchar(200);index" json:"email" validate:"required,email,min=5,max=200"`
	Status          string          `gorm:"type:varchar(50);default:'active';index" json:"status" validate:"oneof=active suspended banned"`
	OfferID         uint            `gorm:"not null;index" json:"offer_id" validate:"required"`
	Offer           Offer           `gorm:"foreignKey:OfferID" json:"offer,omitempty"`
	PayoutMethod    string          `gorm:"type:varchar(50);default:'paypal'" json:"payout_method" validate:"oneof=paypal bank_transfer manual"`
	PayoutAccount   string          `gorm:"type:varchar(255)" json:"payout_account" validate:"max=255"`
	PayoutTermsDays int             `gorm:"not null;default:30" json:"payout_terms_days" validate:"min=0,max=365"`
	DestinationURL  string          `gorm:"type:varchar(500)" json:"destination_url" validate:"max=500"`
	WebhookURL      string          `gorm:"type:varchar(500)" json:"webhook_url" validate:"omitempty,url,max=500"`
	WebhookParams   WebhookParamMap `gorm:"type:json" json:"webhook_params"`
	ClickCount      int             `gorm:"default:0" json:"click_count"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (a *Affiliate) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// IsActive reports whether the affiliate may receive new attribution.
func (a *Affiliate) IsActive() bool {
	return a.Status == AFFILIATE_STATUS_ACTIVE
}

// DisplayName returns the company name when present, otherwise the
// personal name, otherwise the email.
func (a *Affiliate) DisplayName() string {
	if a.CompanyName != "" {
		return a.CompanyName
	}
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name != "" {
		return name
	}
	return a.Email
}

// FindActiveAffiliateByNumber resolves a public affiliate number to an
// active affiliate of the given shop. Suspended and banned affiliates
// are not returned.
func FindActiveAffiliateByNumber(db *gorm.DB, shopID uint, number uint) (*Affiliate, error) {
	var affiliate Affiliate
	result := db.Where("shop_id = ? AND affiliate_number = ? AND status = ?", shopID, number, AFFILIATE_STATUS_ACTIVE).First(&affiliate)
	return &affiliate, result.Error
}
