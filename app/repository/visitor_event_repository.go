package repository

import (
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
	"gorm.io/gorm"
)

// visitorEventRepository implements the VisitorEventRepository interface
type visitorEventRepository struct {
	db *gorm.DB
}

// NewVisitorEventRepository creates a new visitor event repository instance
func NewVisitorEventRepository(db *gorm.DB) VisitorEventRepository {
	return &visitorEventRepository{db: db}
}

// Create creates a new visitor event in the database
func (r *visitorEventRepository) Create(event *models.VisitorEvent) error {
	return r.db.Create(event).Error
}

// RecentPageViews returns page view events since the given time, newest first
func (r *visitorEventRepository) RecentPageViews(shopID uint, since time.Time, limit int) ([]models.VisitorEvent, error) {
	var events []models.VisitorEvent
	err := r.db.Where("shop_id = ? AND event_type = ? AND created_at >= ?", shopID, models.EVENT_TYPE_PAGE_VIEW, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// PageViewsBySessions returns page view events belonging to the given
// sessions, newest first. There is deliberately no time predicate; the
// limit alone caps the result.
func (r *visitorEventRepository) PageViewsBySessions(shopID uint, sessionIDs []string, limit int) ([]models.VisitorEvent, error) {
	var events []models.VisitorEvent
	if len(sessionIDs) == 0 {
		return events, nil
	}
	err := r.db.Where("shop_id = ? AND event_type = ? AND session_id IN ?", shopID, models.EVENT_TYPE_PAGE_VIEW, sessionIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
