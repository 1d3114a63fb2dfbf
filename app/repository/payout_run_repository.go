package repository

import (
	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// payoutRunRepository implements the PayoutRunRepository interface
type payoutRunRepository struct {
	db *gorm.DB
}

// NewPayoutRunRepository creates a new payout run repository instance
func NewPayoutRunRepository(db *gorm.DB) PayoutRunRepository {
	return &payoutRunRepository{db: db}
}

// GetByID retrieves a payout run with its member commissions
func (r *payoutRunRepository) GetByID(shopID, id uint) (*models.PayoutRun, error) {
	var run models.PayoutRun
	err := r.db.Preload("Commissions").Preload("Commissions.Affiliate").Where("shop_id = ?", shopID).First(&run, id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List retrieves a paginated list of payout runs, newest first
func (r *payoutRunRepository) List(shopID uint, offset, limit int) ([]models.PayoutRun, error) {
	var runs []models.PayoutRun
	err := r.db.Where("shop_id = ?", shopID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error
	return runs, err
}

// Count returns the total number of payout runs of a shop
func (r *payoutRunRepository) Count(shopID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PayoutRun{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}
