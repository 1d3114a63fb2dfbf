package models

import (
	"time"
)

const (
	EVENT_TYPE_PAGE_VIEW = "page_view"
	EVENT_TYPE_CLICK     = "click"
	EVENT_TYPE_CUSTOM    = "custom"
)

// VisitorEvent is one raw tracking beacon. Events are immutable once
// written; the realtime dashboard reads them newest-first to find the
// page a visitor is currently on.
type VisitorEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    uint      `gorm:"not null;index" json:"shop_id"`
	SessionID string    `gorm:"type:char(36);not null;index" json:"session_id"`
	VisitorID string    `gorm:"type:char(36);not null;index" json:"visitor_id"`
	EventType string    `gorm:"type:varchar(50);not null;index" json:"event_type"`
	PageURL   string    `gorm:"type:varchar(1000)" json:"page_url"`
	Page      string    `gorm:"type:varchar(500)" json:"page"`
	PageTitle string    `gorm:"type:varchar(255)" json:"page_title"`
	Referrer  string    `gorm:"type:varchar(1000)" json:"referrer"`
	EventData JSON      `gorm:"type:json" json:"event_data"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// IsPageView reports whether the event is a page view beacon.
func (e *VisitorEvent) IsPageView() bool {
	return e.EventType == EVENT_TYPE_PAGE_VIEW
}
