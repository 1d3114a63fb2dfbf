package repository

import (
	"fmt"
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// commissionRepository implements the CommissionRepository interface
type commissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates a new commission repository instance
func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

// Create creates a new commission in the database
func (r *commissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// GetByID retrieves a commission with its fraud flags
func (r *commissionRepository) GetByID(shopID, id uint) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.Preload("FraudFlags").Preload("Affiliate").Where("shop_id = ?", shopID).First(&commission, id).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// GetByIDs retrieves all commissions of a shop with the given IDs,
// fraud flags included
func (r *commissionRepository) GetByIDs(shopID uint, ids []uint) ([]models.Commission, error) {
	var commissions []models.Commission
	if len(ids) == 0 {
		return commissions, nil
	}
	err := r.db.Preload("FraudFlags").Where("shop_id = ? AND id IN ?", shopID, ids).Find(&commissions).Error
	return commissions, err
}

// List retrieves a filtered, paginated list of commissions. Empty status
// and zero affiliateID mean no filter.
func (r *commissionRepository) List(shopID uint, status string, affiliateID uint, offset, limit int) ([]models.Commission, error) {
	var commissions []models.Commission
	query := r.db.Preload("FraudFlags").Preload("Affiliate").Where("shop_id = ?", shopID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if affiliateID != 0 {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&commissions).Error
	return commissions, err
}

// Count returns the number of commissions matching the given filters
func (r *commissionRepository) Count(shopID uint, status string, affiliateID uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Commission{}).Where("shop_id = ?", shopID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if affiliateID != 0 {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountCreatedToday returns the number of commissions created since midnight
func (r *commissionRepository) CountCreatedToday(shopID uint) (int64, error) {
	var count int64
	today := time.Now().Truncate(24 * time.Hour)
	err := r.db.Model(&models.Commission{}).Where("shop_id = ? AND created_at >= ?", shopID, today).Count(&count).Error
	return count, err
}

// CountByAffiliateSince counts commissions one affiliate earned after the
// given time, used by the velocity fraud rule
func (r *commissionRepository) CountByAffiliateSince(shopID, affiliateID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND affiliate_id = ? AND created_at >= ?", shopID, affiliateID, since).
		Count(&count).Error
	return count, err
}

// ExistsForOrder reports whether an order already produced a commission
func (r *commissionRepository) ExistsForOrder(shopID uint, orderID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Commission{}).Where("shop_id = ? AND order_id = ?", shopID, orderID).Count(&count).Error
	return count > 0, err
}

// ListPaidBetween returns paid commissions whose payout date falls into
// the given range, optionally restricted to one affiliate
func (r *commissionRepository) ListPaidBetween(shopID uint, start, end time.Time, affiliateID uint) ([]models.Commission, error) {
	var commissions []models.Commission
	query := r.db.Preload("Affiliate").
		Where("shop_id = ? AND status = ? AND paid_at BETWEEN ? AND ?", shopID, models.COMMISSION_STATUS_PAID, start, end)
	if affiliateID != 0 {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	err := query.Order("paid_at ASC").Find(&commissions).Error
	return commissions, err
}

// SumAmountByStatus returns the summed amount of all commissions in the
// given status
func (r *commissionRepository) SumAmountByStatus(shopID uint, status string) (float64, error) {
	var sum float64
	err := r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND status = ?", shopID, status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

// GetDailyStats returns daily commission counts for dashboard charts
func (r *commissionRepository) GetDailyStats(shopID uint, startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	// DATE_FORMAT keeps the grouping MySQL friendly
	err := r.db.Model(&models.Commission{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("shop_id = ? AND created_at BETWEEN ? AND ?", shopID, startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily commission stats: %w", err)
	}

	dailyStats := make([]models.DailyStats, len(results))
	for i, result := range results {
		dailyStats[i] = models.DailyStats{
			Date:  result.Date,
			Count: int(result.Count),
		}
	}

	return dailyStats, nil
}
