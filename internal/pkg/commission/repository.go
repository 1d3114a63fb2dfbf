package commission

import (
	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the commission service.
// Transaction hands the callback a repository bound to the transaction,
// so a failing batch never applies partially.
type Repository interface {
	GetCommissionsWithFlags(shopID uint, ids []uint) ([]models.Commission, error)
	UpdateCommission(shopID, id uint, updates map[string]interface{}) error

	GetFraudFlag(shopID, id uint) (*models.FraudFlag, error)
	SaveFraudFlag(flag *models.FraudFlag) error

	GetPayoutRunWithCommissions(shopID, id uint) (*models.PayoutRun, error)
	CreatePayoutRun(run *models.PayoutRun) error
	UpdatePayoutRun(shopID, id uint, updates map[string]interface{}) error
	ClearPayoutRunMembers(shopID, runID uint) error
	DeletePayoutRun(shopID, id uint) error

	GetAffiliate(shopID, id uint) (*models.Affiliate, error)
	SaveAffiliate(affiliate *models.Affiliate) error
	RecomputeEligibleDates(shopID, affiliateID uint, days int) (int64, error)

	Transaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a commission repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCommissionsWithFlags(shopID uint, ids []uint) ([]models.Commission, error) {
	var commissions []models.Commission
	err := r.db.Preload("FraudFlags").
		Where("shop_id = ? AND id IN ?", shopID, ids).
		Find(&commissions).Error
	return commissions, err
}

func (r *gormRepository) UpdateCommission(shopID, id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND id = ?", shopID, id).
		Updates(updates).Error
}

func (r *gormRepository) GetFraudFlag(shopID, id uint) (*models.FraudFlag, error) {
	var flag models.FraudFlag
	err := r.db.Where("shop_id = ? AND id = ?", shopID, id).First(&flag).Error
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *gormRepository) SaveFraudFlag(flag *models.FraudFlag) error {
	return r.db.Save(flag).Error
}

func (r *gormRepository) GetPayoutRunWithCommissions(shopID, id uint) (*models.PayoutRun, error) {
	var run models.PayoutRun
	err := r.db.Preload("Commissions").Preload("Commissions.FraudFlags").
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *gormRepository) CreatePayoutRun(run *models.PayoutRun) error {
	return r.db.Omit("Commissions").Create(run).Error
}

func (r *gormRepository) UpdatePayoutRun(shopID, id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.PayoutRun{}).
		Where("shop_id = ? AND id = ?", shopID, id).
		Updates(updates).Error
}

func (r *gormRepository) ClearPayoutRunMembers(shopID, runID uint) error {
	return r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND payout_run_id = ?", shopID, runID).
		Update("payout_run_id", nil).Error
}

func (r *gormRepository) DeletePayoutRun(shopID, id uint) error {
	return r.db.Where("shop_id = ?", shopID).Delete(&models.PayoutRun{}, id).Error
}

func (r *gormRepository) GetAffiliate(shopID, id uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.Where("shop_id = ? AND id = ?", shopID, id).First(&affiliate).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *gormRepository) SaveAffiliate(affiliate *models.Affiliate) error {
	return r.db.Save(affiliate).Error
}

// RecomputeEligibleDates rebases the eligible date of every non-terminal
// commission of the affiliate onto the new term length.
func (r *gormRepository) RecomputeEligibleDates(shopID, affiliateID uint, days int) (int64, error) {
	result := r.db.Model(&models.Commission{}).
		Where("shop_id = ? AND affiliate_id = ? AND status IN ?", shopID, affiliateID, []string{
			models.COMMISSION_STATUS_PENDING,
			models.COMMISSION_STATUS_ELIGIBLE,
			models.COMMISSION_STATUS_APPROVED,
		}).
		Update("eligible_date", gorm.Expr("DATE_ADD(created_at, INTERVAL ? DAY)", days))
	return result.RowsAffected, result.Error
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
