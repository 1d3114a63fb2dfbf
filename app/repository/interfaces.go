package repository

import (
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// AffiliateRepository defines the interface for affiliate-related database operations
type AffiliateRepository interface {
	Create(affiliate *models.Affiliate) error
	GetByID(shopID, id uint) (*models.Affiliate, error)
	GetByNumber(shopID uint, number uint) (*models.Affiliate, error)
	GetByIDs(shopID uint, ids []uint) ([]models.Affiliate, error)
	Update(affiliate *models.Affiliate) error
	Delete(shopID, id uint) error
	List(shopID uint, offset, limit int) ([]models.Affiliate, error)
	Count(shopID uint) (int64, error)
	CountByStatus(shopID uint, status string) (int64, error)
	Search(shopID uint, query string) ([]models.Affiliate, error)
	NextNumber(shopID uint) (uint, error)
}

// OfferRepository defines the interface for offer-related database operations
type OfferRepository interface {
	Create(offer *models.Offer) error
	GetByID(shopID, id uint) (*models.Offer, error)
	GetByNumber(shopID uint, number uint) (*models.Offer, error)
	Update(offer *models.Offer) error
	Delete(shopID, id uint) error
	List(shopID uint, offset, limit int) ([]models.Offer, error)
	Count(shopID uint) (int64, error)
	NextNumber(shopID uint) (uint, error)
}

// CommissionRepository defines the read and query surface for commissions.
// Lifecycle transitions run through the commission service, which owns the
// transactional writes.
type CommissionRepository interface {
	Create(commission *models.Commission) error
	GetByID(shopID, id uint) (*models.Commission, error)
	GetByIDs(shopID uint, ids []uint) ([]models.Commission, error)
	List(shopID uint, status string, affiliateID uint, offset, limit int) ([]models.Commission, error)
	Count(shopID uint, status string, affiliateID uint) (int64, error)
	CountCreatedToday(shopID uint) (int64, error)
	CountByAffiliateSince(shopID, affiliateID uint, since time.Time) (int64, error)
	ExistsForOrder(shopID uint, orderID string) (bool, error)
	ListPaidBetween(shopID uint, start, end time.Time, affiliateID uint) ([]models.Commission, error)
	SumAmountByStatus(shopID uint, status string) (float64, error)
	GetDailyStats(shopID uint, startDate, endDate time.Time) ([]models.DailyStats, error)
}

// FraudFlagRepository defines the interface for fraud flag database operations
type FraudFlagRepository interface {
	Create(flag *models.FraudFlag) error
	GetByID(shopID, id uint) (*models.FraudFlag, error)
	ListByCommission(shopID, commissionID uint) ([]models.FraudFlag, error)
	List(shopID uint, resolved *bool, offset, limit int) ([]models.FraudFlag, error)
	Count(shopID uint, resolved *bool) (int64, error)
	Update(flag *models.FraudFlag) error
}

// PayoutRunRepository defines the read surface for payout runs. Creation
// and approval are transactional and live in the commission service.
type PayoutRunRepository interface {
	GetByID(shopID, id uint) (*models.PayoutRun, error)
	List(shopID uint, offset, limit int) ([]models.PayoutRun, error)
	Count(shopID uint) (int64, error)
}

// VisitorSessionRepository defines the interface for visitor session operations
type VisitorSessionRepository interface {
	Create(session *models.VisitorSession) error
	Update(session *models.VisitorSession) error
	GetByID(shopID uint, id string) (*models.VisitorSession, error)
	// GetAttributedByIDs returns the attributed sessions among the given ids,
	// most recently updated first, capped at limit.
	GetAttributedByIDs(shopID uint, ids []string, limit int) ([]models.VisitorSession, error)
	// ListAttributed returns attributed sessions newest start first, capped at
	// limit. It deliberately takes no date range; time filtering happens in
	// the aggregator.
	ListAttributed(shopID uint, limit int) ([]models.VisitorSession, error)
	CountActiveSince(shopID uint, since time.Time) (int64, error)
	GetDailyStats(shopID uint, startDate, endDate time.Time) ([]models.DailyStats, error)
}

// VisitorEventRepository defines the interface for visitor event operations
type VisitorEventRepository interface {
	Create(event *models.VisitorEvent) error
	// RecentPageViews returns page view events since the given time, newest
	// first, capped at limit.
	RecentPageViews(shopID uint, since time.Time, limit int) ([]models.VisitorEvent, error)
	// PageViewsBySessions returns page view events of the given sessions,
	// newest first, capped at limit, without any time filter.
	PageViewsBySessions(shopID uint, sessionIDs []string, limit int) ([]models.VisitorEvent, error)
}

// QueueRepository defines the interface for cache/queue operations
type QueueRepository interface {
	GetAllKeys() ([]string, error)
	GetValue(key string) (string, error)
	GetTTL(key string) (time.Duration, error)
	DeleteKey(key string) (int64, error)
	GetListLength(key string) (int64, error)
	FindKeysByPatterns(patterns []string) ([]string, error)
	DeleteKeys(keys []string) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Affiliate      AffiliateRepository
	Offer          OfferRepository
	Commission     CommissionRepository
	FraudFlag      FraudFlagRepository
	PayoutRun      PayoutRunRepository
	VisitorSession VisitorSessionRepository
	VisitorEvent   VisitorEventRepository
	Queue          QueueRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Affiliate:      NewAffiliateRepository(db),
		Offer:          NewOfferRepository(db),
		Commission:     NewCommissionRepository(db),
		FraudFlag:      NewFraudFlagRepository(db),
		PayoutRun:      NewPayoutRunRepository(db),
		VisitorSession: NewVisitorSessionRepository(db),
		VisitorEvent:   NewVisitorEventRepository(db),
		Queue:          NewQueueRepository(),
	}
}
