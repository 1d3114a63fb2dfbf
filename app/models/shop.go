package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SHOP_STATUS_ACTIVE   = "active"
	SHOP_STATUS_INACTIVE = "inactive"
	SHOP_STATUS_DISABLED = "disabled"
)

// Shop is the merchant account that owns affiliates, offers and all
// tracking data. Every domain row carries its ShopID.
type Shop struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Domain        string         `gorm:"uniqueIndex;type:varchar(255) CHARACTER SET utf8 COLLATE utf8_bin" json:"domain" validate:"required,min=4,max=255"`
	Email         string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password      string         `gorm:"type:text" json:"-" validate:"required,min=8"`
	WebhookSecret string         `gorm:"type:varchar(100)" json:"-"`
	TrackingKey   string         `gorm:"type:varchar(64);uniqueIndex" json:"tracking_key"`
	Currency      string         `gorm:"type:varchar(3);default:'USD'" json:"currency" validate:"len=3"`
	Status        string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	LastLoginAt   *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Shop) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// CreateShop builds a validated shop with a hashed password and a fresh
// webhook secret for order intake verification.
func CreateShop(name, domain, email, password string) (*Shop, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	s := &Shop{
		Name:     name,
		Domain:   domain,
		Email:    email,
		Password: pw,
		Currency: "USD",
		Status:   SHOP_STATUS_ACTIVE,
	}
	if err := s.GenerateWebhookSecret(); err != nil {
		return nil, err
	}
	if err := s.GenerateTrackingKey(); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// GenerateWebhookSecret creates a random shared secret used to verify
// incoming order webhooks.
func (s *Shop) GenerateWebhookSecret() error {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	s.WebhookSecret = hex.EncodeToString(b)
	return nil
}

// GenerateTrackingKey creates the public key the storefront tracking
// snippet sends with every beacon. It identifies the shop, nothing more.
func (s *Shop) GenerateTrackingKey() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	s.TrackingKey = "rt_" + hex.EncodeToString(b)
	return nil
}

// IsActive reports whether the shop status is active
func (s *Shop) IsActive() bool {
	return s.Status == SHOP_STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the stored hash
func (s *Shop) CheckPassword(password string) bool {
	return CheckPasswordHash(password, s.Password)
}

// SetPassword hashes and sets a new password for the shop account
func (s *Shop) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.Password = hashed
	return nil
}

// FindShopByEmail looks a shop up by its login email.
func FindShopByEmail(db *gorm.DB, email string) (*Shop, error) {
	var shop Shop
	result := db.Where("email = ?", email).First(&shop)
	return &shop, result.Error
}

// FindShopByDomain looks a shop up by its storefront domain.
func FindShopByDomain(db *gorm.DB, domain string) (*Shop, error) {
	var shop Shop
	result := db.Where("domain = ?", domain).First(&shop)
	return &shop, result.Error
}

// FindShopByTrackingKey resolves a tracking beacon key to its shop.
func FindShopByTrackingKey(db *gorm.DB, key string) (*Shop, error) {
	var shop Shop
	result := db.Where("tracking_key = ?", key).First(&shop)
	return &shop, result.Error
}
