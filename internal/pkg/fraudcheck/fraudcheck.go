package fraudcheck

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/attribution"
	"github.com/RefTrackApp/RefTrack/internal/pkg/env"
)

// Rule scores. A flag never blocks a commission by itself; it parks the
// commission in front of the approve guard until an admin resolves it.
const (
	ScoreSelfPurchase = 90
	ScoreVelocity     = 60
	ScoreOrderValue   = 40
)

const velocityWindow = time.Hour

// Config holds the tunable rule thresholds.
type Config struct {
	// VelocityThreshold is the number of commissions one affiliate may
	// earn within an hour before the velocity rule trips.
	VelocityThreshold int
	// MaxPlausibleTotal is the order total above which the order-value
	// rule trips.
	MaxPlausibleTotal float64
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		VelocityThreshold: 5,
		MaxPlausibleTotal: 10000,
	}
}

// ConfigFromEnv reads the thresholds from the environment, falling back
// to the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, err := strconv.Atoi(env.GetEnv("FRAUD_VELOCITY_THRESHOLD", "")); err == nil && v > 0 {
		cfg.VelocityThreshold = v
	}
	if v, err := strconv.ParseFloat(env.GetEnv("FRAUD_MAX_ORDER_VALUE", ""), 64); err == nil && v > 0 {
		cfg.MaxPlausibleTotal = v
	}
	return cfg
}

// Repository provides the DB operations used by the checker.
type Repository interface {
	CountByAffiliateSince(shopID, affiliateID uint, since time.Time) (int64, error)
	CreateFlag(flag *models.FraudFlag) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a fraud-check repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CountByAffiliateSince(shopID, affiliateID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND affiliate_id = ? AND created_at >= ?", shopID, affiliateID, since).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CreateFlag(flag *models.FraudFlag) error {
	return r.db.Create(flag).Error
}

// Checker screens fresh commissions against the rule list and persists
// one unresolved flag per hit.
type Checker struct {
	repo Repository
	cfg  Config
}

// NewChecker creates a checker from an injected repository.
func NewChecker(repo Repository, cfg Config) *Checker {
	return &Checker{repo: repo, cfg: cfg}
}

// NewCheckerFromDB creates a checker from a GORM DB handle with the
// environment-configured thresholds.
func NewCheckerFromDB(db *gorm.DB) *Checker {
	return NewChecker(NewRepository(db), ConfigFromEnv())
}

// Screen evaluates every rule against the commission and its order and
// persists the resulting flags. It returns the created flags; an empty
// slice means the commission looks clean.
func (c *Checker) Screen(ctx context.Context, commission *models.Commission, order *attribution.OrderEvent, affiliate *models.Affiliate) ([]models.FraudFlag, error) {
	_ = ctx

	flags := make([]models.FraudFlag, 0, 3)

	if flag := c.checkSelfPurchase(order, affiliate); flag != nil {
		flags = append(flags, *flag)
	}

	velocityFlag, err := c.checkVelocity(commission)
	if err != nil {
		return nil, err
	}
	if velocityFlag != nil {
		flags = append(flags, *velocityFlag)
	}

	if flag := c.checkOrderValue(order); flag != nil {
		flags = append(flags, *flag)
	}

	for i := range flags {
		flags[i].ShopID = commission.ShopID
		flags[i].CommissionID = commission.ID
		if err := c.repo.CreateFlag(&flags[i]); err != nil {
			return nil, err
		}
	}
	return flags, nil
}

func (c *Checker) checkSelfPurchase(order *attribution.OrderEvent, affiliate *models.Affiliate) *models.FraudFlag {
	if order.CustomerEmail == "" || affiliate.Email == "" {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(order.CustomerEmail), strings.TrimSpace(affiliate.Email)) {
		return nil
	}
	return &models.FraudFlag{
		FlagType: models.FRAUD_FLAG_SELF_PURCHASE,
		Score:    ScoreSelfPurchase,
		Reason:   fmt.Sprintf("customer email %s matches the affiliate email", order.CustomerEmail),
	}
}

func (c *Checker) checkVelocity(commission *models.Commission) (*models.FraudFlag, error) {
	// the commission under screening is already persisted and counts
	count, err := c.repo.CountByAffiliateSince(commission.ShopID, commission.AffiliateID, time.Now().Add(-velocityWindow))
	if err != nil {
		return nil, err
	}
	if count < int64(c.cfg.VelocityThreshold) {
		return nil, nil
	}
	return &models.FraudFlag{
		FlagType: models.FRAUD_FLAG_VELOCITY,
		Score:    ScoreVelocity,
		Reason:   fmt.Sprintf("affiliate earned %d commissions within an hour (threshold %d)", count, c.cfg.VelocityThreshold),
	}, nil
}

func (c *Checker) checkOrderValue(order *attribution.OrderEvent) *models.FraudFlag {
	if order.Total <= 0 {
		return &models.FraudFlag{
			FlagType: models.FRAUD_FLAG_ORDER_VALUE,
			Score:    ScoreOrderValue,
			Reason:   fmt.Sprintf("order total %.2f is not positive", order.Total),
		}
	}
	if order.Total > c.cfg.MaxPlausibleTotal {
		return &models.FraudFlag{
			FlagType: models.FRAUD_FLAG_ORDER_VALUE,
			Score:    ScoreOrderValue,
			Reason:   fmt.Sprintf("order total %.2f exceeds the plausible maximum %.2f", order.Total, c.cfg.MaxPlausibleTotal),
		}
	}
	return nil
}
