package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DEVICE_DESKTOP = "desktop"
	DEVICE_MOBILE  = "mobile"
	DEVICE_TABLET  = "tablet"
)

const (
	REFERRER_TYPE_DIRECT   = "direct"
	REFERRER_TYPE_SEARCH   = "search"
	REFERRER_TYPE_SOCIAL   = "social"
	REFERRER_TYPE_REFERRAL = "referral"
)

// VisitorSession is one browsing session on the storefront. Sessions are
// append-only: pages accumulate in PagesVisited in visit order, the
// bounce flag always mirrors whether exactly one page was seen, and an
// affiliate attribution is never overwritten once set. Sessions are kept
// forever; there is no cleanup.
type VisitorSession struct {
	ID             string      `gorm:"type:char(36);primaryKey" json:"id"`
	ShopID         uint        `gorm:"not null;index" json:"shop_id"`
	VisitorID      string      `gorm:"type:char(36);not null;index" json:"visitor_id"`
	AffiliateID    *uint       `gorm:"index" json:"affiliate_id,omitempty"`
	Affiliate      *Affiliate  `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	StartTime      time.Time   `gorm:"type:timestamp;not null;index" json:"start_time"`
	PagesVisited   StringSlice `gorm:"type:json" json:"pages_visited"`
	EntryPage      string      `gorm:"type:varchar(500)" json:"entry_page"`
	ExitPage       string      `gorm:"type:varchar(500)" json:"exit_page"`
	PageViews      int         `gorm:"not null;default:0" json:"page_views"`
	IsBounce       bool        `gorm:"not null;default:true" json:"is_bounce"`
	TotalTime      *int        `gorm:"default:null" json:"total_time,omitempty"`
	DeviceType     string      `gorm:"type:varchar(20)" json:"device_type"`
	Browser        string      `gorm:"type:varchar(500)" json:"browser"`
	ReferrerDomain string      `gorm:"type:varchar(255)" json:"referrer_domain"`
	ReferrerType   string      `gorm:"type:varchar(20)" json:"referrer_type"`
	Country        string      `gorm:"type:varchar(2)" json:"country"`
	LandingPage    string      `gorm:"type:varchar(1000)" json:"landing_page"`
	URLParams      StringMap   `gorm:"type:json" json:"url_params"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime;index" json:"updated_at"`
}

// BeforeCreate assigns the session id when the caller did not bring one.
func (s *VisitorSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// RecordPageView appends a page to the visit history and keeps the
// derived fields consistent: page view count, exit page and the bounce
// flag, which is true exactly while a single page was visited.
func (s *VisitorSession) RecordPageView(page string, at time.Time) {
	s.PagesVisited = append(s.PagesVisited, page)
	s.PageViews = len(s.PagesVisited)
	s.IsBounce = len(s.PagesVisited) == 1
	s.ExitPage = page
	if s.EntryPage == "" {
		s.EntryPage = page
	}
	seconds := int(at.Sub(s.StartTime).Seconds())
	if seconds >= 0 && !s.IsBounce {
		s.TotalTime = &seconds
	}
}

// Attribute assigns the session to an affiliate. A session that already
// belongs to an affiliate keeps its original attribution.
func (s *VisitorSession) Attribute(affiliateID uint) bool {
	if s.AffiliateID != nil {
		return false
	}
	s.AffiliateID = &affiliateID
	return true
}

// IsAttributed reports whether the session belongs to an affiliate.
func (s *VisitorSession) IsAttributed() bool {
	return s.AffiliateID != nil
}

// CurrentPage returns the page the visitor saw last.
func (s *VisitorSession) CurrentPage() string {
	if len(s.PagesVisited) == 0 {
		return s.EntryPage
	}
	return s.PagesVisited[len(s.PagesVisited)-1]
}

// FindVisitorSession loads a session by id scoped to a shop.
func FindVisitorSession(db *gorm.DB, shopID uint, id string) (*VisitorSession, error) {
	var session VisitorSession
	result := db.Where("shop_id = ? AND id = ?", shopID, id).First(&session)
	return &session, result.Error
}
