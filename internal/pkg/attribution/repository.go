package attribution

import (
	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the attribution service.
type Repository interface {
	ExistsForOrder(shopID uint, orderID string) (bool, error)
	GetCommissionByOrder(shopID uint, orderID string) (*models.Commission, error)
	GetActiveAffiliateByNumber(shopID uint, number uint) (*models.Affiliate, error)
	GetAffiliate(shopID, id uint) (*models.Affiliate, error)
	GetOffer(shopID, id uint) (*models.Offer, error)
	GetSession(shopID uint, id string) (*models.VisitorSession, error)
	GetLatestAttributedSession(shopID uint, visitorID string) (*models.VisitorSession, error)
	CreateCommission(commission *models.Commission) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an attribution repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ExistsForOrder(shopID uint, orderID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND order_id = ?", shopID, orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) GetCommissionByOrder(shopID uint, orderID string) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.Where("shop_id = ? AND order_id = ?", shopID, orderID).First(&commission).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *gormRepository) GetActiveAffiliateByNumber(shopID uint, number uint) (*models.Affiliate, error) {
	return models.FindActiveAffiliateByNumber(r.db, shopID, number)
}

func (r *gormRepository) GetAffiliate(shopID, id uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.Where("shop_id = ? AND id = ?", shopID, id).First(&affiliate).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *gormRepository) GetOffer(shopID, id uint) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.Where("shop_id = ? AND id = ?", shopID, id).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *gormRepository) GetSession(shopID uint, id string) (*models.VisitorSession, error) {
	var session models.VisitorSession
	err := r.db.Where("shop_id = ? AND id = ?", shopID, id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *gormRepository) GetLatestAttributedSession(shopID uint, visitorID string) (*models.VisitorSession, error) {
	var session models.VisitorSession
	err := r.db.
		Where("shop_id = ? AND visitor_id = ? AND affiliate_id IS NOT NULL", shopID, visitorID).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *gormRepository) CreateCommission(commission *models.Commission) error {
	return r.db.Create(commission).Error
}
