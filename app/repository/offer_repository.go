package repository

import (
	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// offerRepository implements the OfferRepository interface
type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository instance
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

// Create creates a new offer in the database
func (r *offerRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

// GetByID retrieves an offer by its ID within a shop
func (r *offerRepository) GetByID(shopID, id uint) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.Where("shop_id = ?", shopID).First(&offer, id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetByNumber retrieves an offer by its public offer number
func (r *offerRepository) GetByNumber(shopID uint, number uint) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.Where("shop_id = ? AND offer_number = ?", shopID, number).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// Update updates an existing offer in the database
func (r *offerRepository) Update(offer *models.Offer) error {
	return r.db.Save(offer).Error
}

// Delete soft deletes an offer by its ID
func (r *offerRepository) Delete(shopID, id uint) error {
	return r.db.Where("shop_id = ?", shopID).Delete(&models.Offer{}, id).Error
}

// List retrieves a paginated list of offers
func (r *offerRepository) List(shopID uint, offset, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Where("shop_id = ?", shopID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&offers).Error
	return offers, err
}

// Count returns the total number of offers of a shop
func (r *offerRepository) Count(shopID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Offer{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}

// NextNumber returns the next free public offer number for a shop
func (r *offerRepository) NextNumber(shopID uint) (uint, error) {
	var max uint
	err := r.db.Unscoped().Model(&models.Offer{}).
		Where("shop_id = ?", shopID).
		Select("COALESCE(MAX(offer_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
