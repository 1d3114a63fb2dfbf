package repository

import (
	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// fraudFlagRepository implements the FraudFlagRepository interface
type fraudFlagRepository struct {
	db *gorm.DB
}

// NewFraudFlagRepository creates a new fraud flag repository instance
func NewFraudFlagRepository(db *gorm.DB) FraudFlagRepository {
	return &fraudFlagRepository{db: db}
}

// Create creates a new fraud flag in the database
func (r *fraudFlagRepository) Create(flag *models.FraudFlag) error {
	return r.db.Create(flag).Error
}

// GetByID retrieves a fraud flag by its ID within a shop
func (r *fraudFlagRepository) GetByID(shopID, id uint) (*models.FraudFlag, error) {
	var flag models.FraudFlag
	err := r.db.Where("shop_id = ?", shopID).First(&flag, id).Error
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// ListByCommission returns all fraud flags of one commission
func (r *fraudFlagRepository) ListByCommission(shopID, commissionID uint) ([]models.FraudFlag, error) {
	var flags []models.FraudFlag
	err := r.db.Where("shop_id = ? AND commission_id = ?", shopID, commissionID).Order("created_at DESC").Find(&flags).Error
	return flags, err
}

// List retrieves a paginated list of fraud flags, optionally filtered by
// resolution state
func (r *fraudFlagRepository) List(shopID uint, resolved *bool, offset, limit int) ([]models.FraudFlag, error) {
	var flags []models.FraudFlag
	query := r.db.Where("shop_id = ?", shopID)
	if resolved != nil {
		query = query.Where("resolved = ?", *resolved)
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&flags).Error
	return flags, err
}

// Count returns the number of fraud flags matching the filter
func (r *fraudFlagRepository) Count(shopID uint, resolved *bool) (int64, error) {
	var count int64
	query := r.db.Model(&models.FraudFlag{}).Where("shop_id = ?", shopID)
	if resolved != nil {
		query = query.Where("resolved = ?", *resolved)
	}
	err := query.Count(&count).Error
	return count, err
}

// Update updates an existing fraud flag in the database
func (r *fraudFlagRepository) Update(flag *models.FraudFlag) error {
	return r.db.Save(flag).Error
}
