package analytics

import (
	"time"
)

// View modes of the stats endpoint. Realtime looks at the last 30
// minutes of events; historical looks back over a named time range.
const (
	ViewModeRealtime   = "realtime"
	ViewModeHistorical = "historical"
)

// Stats is the full aggregation payload the dashboard renders. All
// metrics are derived from one selected session set; none of them is
// precomputed or cached.
type Stats struct {
	ViewMode        string              `json:"view_mode"`
	TimeRange       string              `json:"time_range,omitempty"`
	TotalVisitors   int                 `json:"total_visitors"`
	UniqueVisitors  int                 `json:"unique_visitors"`
	BounceRate      float64             `json:"bounce_rate"`
	AvgSessionTime  float64             `json:"avg_session_time"`
	PagesPerSession float64             `json:"pages_per_session"`
	TopPages        []PageStat          `json:"top_pages"`
	EntryPages      []PageCount         `json:"entry_pages"`
	ExitPages       []PageCount         `json:"exit_pages"`
	TrafficSources  []SourceStat        `json:"traffic_sources"`
	Devices         []CountStat         `json:"devices"`
	Browsers        []CountStat         `json:"browsers"`
	Geography       []CountryStat       `json:"geography"`
	Affiliates      []AffiliateActivity `json:"affiliates"`
	ActiveVisitors  []ActiveVisitor     `json:"active_visitors"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// PageStat is one row of the top-pages table. Views counts every
// occurrence of the page across all selected sessions; the bounce rate
// counts only single-page sessions whose sole page is this one.
type PageStat struct {
	Page       string  `json:"page"`
	Views      int     `json:"views"`
	BounceRate float64 `json:"bounce_rate"`
}

// PageCount is a simple page-to-count grouping (entry and exit pages).
type PageCount struct {
	Page  string `json:"page"`
	Count int    `json:"count"`
}

// SourceStat is one traffic source with its share of all sessions.
type SourceStat struct {
	Source     string  `json:"source"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CountStat is a generic name-to-count grouping (devices, browsers).
type CountStat struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CountryStat is one country with its share of all sessions.
type CountryStat struct {
	Country    string  `json:"country"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ActiveVisitor is one live session entry, enriched with the page the
// visitor is currently on and the merged URL parameters of the session.
type ActiveVisitor struct {
	SessionID       string            `json:"session_id"`
	VisitorID       string            `json:"visitor_id"`
	AffiliateID     uint              `json:"affiliate_id"`
	AffiliateName   string            `json:"affiliate_name"`
	AffiliateNumber uint              `json:"affiliate_number"`
	CurrentPage     string            `json:"current_page"`
	Device          string            `json:"device"`
	Country         string            `json:"country"`
	PageViews       int               `json:"page_views"`
	LastSeen        time.Time         `json:"last_seen"`
	URLParams       map[string]string `json:"url_params"`
}

// AffiliateActivity folds the selected sessions of one affiliate into
// per-affiliate metrics plus the list of its live visitors.
type AffiliateActivity struct {
	AffiliateID     uint            `json:"affiliate_id"`
	AffiliateNumber uint            `json:"affiliate_number"`
	AffiliateName   string          `json:"affiliate_name"`
	Sessions        int             `json:"sessions"`
	UniqueVisitors  int             `json:"unique_visitors"`
	PageViews       int             `json:"page_views"`
	BounceRate      float64         `json:"bounce_rate"`
	AvgSessionTime  float64         `json:"avg_session_time"`
	Visitors        []ActiveVisitor `json:"visitors"`
}
