package repository

import (
	"strings"

	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// affiliateRepository implements the AffiliateRepository interface
type affiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository creates a new affiliate repository instance
func NewAffiliateRepository(db *gorm.DB) AffiliateRepository {
	return &affiliateRepository{db: db}
}

// Create creates a new affiliate in the database
func (r *affiliateRepository) Create(affiliate *models.Affiliate) error {
	return r.db.Create(affiliate).Error
}

// GetByID retrieves an affiliate by its ID within a shop
func (r *affiliateRepository) GetByID(shopID, id uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.Preload("Offer").Where("shop_id = ?", shopID).First(&affiliate, id).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// GetByNumber retrieves an affiliate by its public affiliate number
func (r *affiliateRepository) GetByNumber(shopID uint, number uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.Preload("Offer").Where("shop_id = ? AND affiliate_number = ?", shopID, number).First(&affiliate).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// GetByIDs retrieves all affiliates of a shop with the given IDs
func (r *affiliateRepository) GetByIDs(shopID uint, ids []uint) ([]models.Affiliate, error) {
	var affiliates []models.Affiliate
	if len(ids) == 0 {
		return affiliates, nil
	}
	err := r.db.Where("shop_id = ? AND id IN ?", shopID, ids).Find(&affiliates).Error
	return affiliates, err
}

// Update updates an existing affiliate in the database
func (r *affiliateRepository) Update(affiliate *models.Affiliate) error {
	return r.db.Save(affiliate).Error
}

// Delete soft deletes an affiliate by its ID
func (r *affiliateRepository) Delete(shopID, id uint) error {
	return r.db.Where("shop_id = ?", shopID).Delete(&models.Affiliate{}, id).Error
}

// List retrieves a paginated list of affiliates
func (r *affiliateRepository) List(shopID uint, offset, limit int) ([]models.Affiliate, error) {
	var affiliates []models.Affiliate
	err := r.db.Where("shop_id = ?", shopID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&affiliates).Error
	return affiliates, err
}

// Count returns the total number of affiliates of a shop
func (r *affiliateRepository) Count(shopID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Affiliate{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of affiliates with the given status
func (r *affiliateRepository) CountByStatus(shopID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Affiliate{}).Where("shop_id = ? AND status = ?", shopID, status).Count(&count).Error
	return count, err
}

// Search searches affiliates by name, company or email
func (r *affiliateRepository) Search(shopID uint, query string) ([]models.Affiliate, error) {
	var affiliates []models.Affiliate
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("shop_id = ?", shopID).
		Where("first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ? OR email LIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern).
		Find(&affiliates).Error
	return affiliates, err
}

// NextNumber returns the next free public affiliate number for a shop.
// Numbers are assigned once and never reused, soft deleted rows included.
func (r *affiliateRepository) NextNumber(shopID uint) (uint, error) {
	var max uint
	err := r.db.Unscoped().Model(&models.Affiliate{}).
		Where("shop_id = ?", shopID).
		Select("COALESCE(MAX(affiliate_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
