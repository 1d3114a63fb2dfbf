package repository

import (
	"fmt"
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// visitorSessionRepository implements the VisitorSessionRepository interface
type visitorSessionRepository struct {
	db *gorm.DB
}

// NewVisitorSessionRepository creates a new visitor session repository instance
func NewVisitorSessionRepository(db *gorm.DB) VisitorSessionRepository {
	return &visitorSessionRepository{db: db}
}

// Create creates a new visitor session in the database
func (r *visitorSessionRepository) Create(session *models.VisitorSession) error {
	return r.db.Create(session).Error
}

// Update updates an existing visitor session in the database
func (r *visitorSessionRepository) Update(session *models.VisitorSession) error {
	return r.db.Save(session).Error
}

// GetByID retrieves a visitor session by its ID within a shop
func (r *visitorSessionRepository) GetByID(shopID uint, id string) (*models.VisitorSession, error) {
	var session models.VisitorSession
	err := r.db.Where("shop_id = ? AND id = ?", shopID, id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetAttributedByIDs returns the attributed sessions among the given ids,
// most recently updated first. Sessions without an affiliate never appear
// in the result.
func (r *visitorSessionRepository) GetAttributedByIDs(shopID uint, ids []string, limit int) ([]models.VisitorSession, error) {
	var sessions []models.VisitorSession
	if len(ids) == 0 {
		return sessions, nil
	}
	err := r.db.Where("shop_id = ? AND id IN ? AND affiliate_id IS NOT NULL", shopID, ids).
		Order("updated_at DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// ListAttributed returns attributed sessions newest start first. The query
// carries no date predicate; callers narrow the window in memory.
func (r *visitorSessionRepository) ListAttributed(shopID uint, limit int) ([]models.VisitorSession, error) {
	var sessions []models.VisitorSession
	err := r.db.Where("shop_id = ? AND affiliate_id IS NOT NULL", shopID).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// CountActiveSince counts sessions with activity after the given time
func (r *visitorSessionRepository) CountActiveSince(shopID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.VisitorSession{}).
		Where("shop_id = ? AND updated_at >= ?", shopID, since).
		Count(&count).Error
	return count, err
}

// GetDailyStats returns daily session counts for dashboard charts
func (r *visitorSessionRepository) GetDailyStats(shopID uint, startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	err := r.db.Model(&models.VisitorSession{}).
		Select("DATE_FORMAT(start_time, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("shop_id = ? AND start_time BETWEEN ? AND ?", shopID, startDate, endDate).
		Group("DATE_FORMAT(start_time, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily session stats: %w", err)
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
