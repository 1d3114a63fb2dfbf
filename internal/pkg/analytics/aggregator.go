package analytics

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
)

// Selection bounds. Realtime looks at a short sliding window of raw
// events; historical walks the attributed session list backwards from
// now. Both are capped so one oversized shop cannot stall the dashboard.
const (
	realtimeWindow       = 30 * time.Minute
	realtimeEventLimit   = 1000
	realtimeSessionLimit = 50

	historicalSessionLimit = 1000
	historicalEventLimit   = 5000
)

// Aggregator computes dashboard statistics straight from raw sessions
// and events on every call. There is no materialized view; a failed call
// is simply re-issued by the dashboard on its next refresh tick.
type Aggregator struct {
	sessions   repository.VisitorSessionRepository
	events     repository.VisitorEventRepository
	affiliates repository.AffiliateRepository
}

// NewAggregator creates an aggregator from injected repositories.
func NewAggregator(
	sessions repository.VisitorSessionRepository,
	events repository.VisitorEventRepository,
	affiliates repository.AffiliateRepository,
) *Aggregator {
	return &Aggregator{
		sessions:   sessions,
		events:     events,
		affiliates: affiliates,
	}
}

// NewAggregatorFromDB creates an aggregator from a GORM DB handle.
func NewAggregatorFromDB(db *gorm.DB) *Aggregator {
	return NewAggregator(
		repository.NewVisitorSessionRepository(db),
		repository.NewVisitorEventRepository(db),
		repository.NewAffiliateRepository(db),
	)
}

// BuildStats produces the full aggregation payload for one shop. The
// time range only applies to the historical view; the realtime view is
// always the last 30 minutes.
func (a *Aggregator) BuildStats(shopID uint, viewMode, timeRange string) (*Stats, error) {
	var (
		sessions []models.VisitorSession
		latest   map[string]*models.VisitorEvent
		err      error
	)

	switch viewMode {
	case ViewModeRealtime:
		sessions, latest, err = a.collectRealtime(shopID)
	case ViewModeHistorical:
		window, werr := Window(timeRange)
		if werr != nil {
			return nil, werr
		}
		sessions, latest, err = a.collectHistorical(shopID, window)
	default:
		return nil, fmt.Errorf("invalid view mode %q, expected realtime or historical", viewMode)
	}
	if err != nil {
		return nil, err
	}

	stats, err := a.assemble(shopID, viewMode, sessions, latest)
	if err != nil {
		return nil, err
	}
	if viewMode == ViewModeHistorical {
		stats.TimeRange = timeRange
	}
	return stats, nil
}

// collectRealtime selects the sessions that had a page view in the last
// 30 minutes and are attributed to an affiliate. One pass over the
// newest-first events yields both the candidate session ids in arrival
// order and, since the first occurrence of each session id is its newest
// event, the current page of every session.
func (a *Aggregator) collectRealtime(shopID uint) ([]models.VisitorSession, map[string]*models.VisitorEvent, error) {
	since := time.Now().Add(-realtimeWindow)
	events, err := a.events.RecentPageViews(shopID, since, realtimeEventLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting recent page views: %w", err)
	}

	ids := make([]string, 0, len(events))
	latest := make(map[string]*models.VisitorEvent, len(events))
	for i := range events {
		event := &events[i]
		if _, seen := latest[event.SessionID]; seen {
			continue
		}
		latest[event.SessionID] = event
		ids = append(ids, event.SessionID)
	}
	if len(ids) == 0 {
		return nil, latest, nil
	}

	sessions, err := a.sessions.GetAttributedByIDs(shopID, ids, realtimeSessionLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting active sessions: %w", err)
	}
	return sessions, latest, nil
}

// collectHistorical selects attributed sessions whose start falls inside
// the window. The rows are fetched without a date predicate and narrowed
// here: the store's date comparison returned inconsistent rows for this
// query, so the window check runs in memory on the capped result.
func (a *Aggregator) collectHistorical(shopID uint, window time.Duration) ([]models.VisitorSession, map[string]*models.VisitorEvent, error) {
	rows, err := a.sessions.ListAttributed(shopID, historicalSessionLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting attributed sessions: %w", err)
	}

	windowStart := time.Now().Add(-window)
	sessions := make([]models.VisitorSession, 0, len(rows))
	for _, session := range rows {
		if session.StartTime.Before(windowStart) {
			continue
		}
		sessions = append(sessions, session)
	}

	latest := make(map[string]*models.VisitorEvent, len(sessions))
	if len(sessions) == 0 {
		return sessions, latest, nil
	}

	ids := make([]string, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
	}

	// No timestamp filter here: historical sessions may be arbitrarily old
	// and still need their most recent page resolved.
	events, err := a.events.PageViewsBySessions(shopID, ids, historicalEventLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting session page views: %w", err)
	}
	for i := range events {
		event := &events[i]
		if _, seen := latest[event.SessionID]; !seen {
			latest[event.SessionID] = event
		}
	}
	return sessions, latest, nil
}

// assemble derives every metric from the one selected session set and
// enriches the per-session entries with affiliate display data.
func (a *Aggregator) assemble(shopID uint, viewMode string, sessions []models.VisitorSession, latest map[string]*models.VisitorEvent) (*Stats, error) {
	affiliates, err := a.lookupAffiliates(shopID, sessions)
	if err != nil {
		return nil, err
	}

	visitors := make([]ActiveVisitor, 0, len(sessions))
	for i := range sessions {
		visitors = append(visitors, buildVisitor(&sessions[i], latest[sessions[i].ID], affiliates))
	}

	return &Stats{
		ViewMode:        viewMode,
		TotalVisitors:   len(sessions),
		UniqueVisitors:  UniqueVisitors(sessions),
		BounceRate:      BounceRate(sessions),
		AvgSessionTime:  AvgSessionTime(sessions),
		PagesPerSession: PagesPerSession(sessions),
		TopPages:        TopPages(sessions),
		EntryPages:      EntryPages(sessions),
		ExitPages:       ExitPages(sessions),
		TrafficSources:  TrafficSources(sessions),
		Devices:         Devices(sessions),
		Browsers:        Browsers(sessions),
		Geography:       Geography(sessions),
		Affiliates:      foldAffiliates(sessions, visitors, affiliates),
		ActiveVisitors:  visitors,
		GeneratedAt:     time.Now(),
	}, nil
}

// lookupAffiliates resolves the affiliates referenced by the session set
// in one query. Sessions are not joined against affiliates at the store
// level, so display data comes from this separate lookup.
func (a *Aggregator) lookupAffiliates(shopID uint, sessions []models.VisitorSession) (map[uint]models.Affiliate, error) {
	seen := make(map[uint]struct{}, len(sessions))
	ids := make([]uint, 0, len(sessions))
	for i := range sessions {
		if sessions[i].AffiliateID == nil {
			continue
		}
		id := *sessions[i].AffiliateID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	byID := make(map[uint]models.Affiliate, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	rows, err := a.affiliates.GetByIDs(shopID, ids)
	if err != nil {
		return nil, fmt.Errorf("looking up affiliates: %w", err)
	}
	for _, affiliate := range rows {
		byID[affiliate.ID] = affiliate
	}
	return byID, nil
}

// buildVisitor turns one session into its dashboard entry. The most
// recent event, when known, beats the session record for current page
// and last-seen time.
func buildVisitor(session *models.VisitorSession, latest *models.VisitorEvent, affiliates map[uint]models.Affiliate) ActiveVisitor {
	visitor := ActiveVisitor{
		SessionID:   session.ID,
		VisitorID:   session.VisitorID,
		CurrentPage: session.CurrentPage(),
		Device:      session.DeviceType,
		Country:     session.Country,
		PageViews:   session.PageViews,
		LastSeen:    session.UpdatedAt,
		URLParams:   MergeURLParams(session, latest),
	}
	if latest != nil {
		if latest.Page != "" {
			visitor.CurrentPage = latest.Page
		}
		visitor.LastSeen = latest.CreatedAt
	}
	if session.AffiliateID != nil {
		visitor.AffiliateID = *session.AffiliateID
		if affiliate, ok := affiliates[*session.AffiliateID]; ok {
			visitor.AffiliateName = affiliate.DisplayName()
			visitor.AffiliateNumber = affiliate.AffiliateNumber
		}
	}
	return visitor
}

// foldAffiliates groups the selected sessions by affiliate and derives
// the per-affiliate metrics the same way as the global ones, scoped to
// that affiliate's subset. Visitors are aligned with sessions by index.
func foldAffiliates(sessions []models.VisitorSession, visitors []ActiveVisitor, affiliates map[uint]models.Affiliate) []AffiliateActivity {
	type fold struct {
		activity   AffiliateActivity
		visitorIDs map[string]struct{}
		timeSum    int
		timeCount  int
		bounces    int
	}

	order := make([]uint, 0)
	folds := make(map[uint]*fold)

	for i := range sessions {
		session := &sessions[i]
		if session.AffiliateID == nil {
			continue
		}
		id := *session.AffiliateID

		f, ok := folds[id]
		if !ok {
			f = &fold{visitorIDs: make(map[string]struct{})}
			f.activity.AffiliateID = id
			if affiliate, found := affiliates[id]; found {
				f.activity.AffiliateNumber = affiliate.AffiliateNumber
				f.activity.AffiliateName = affiliate.DisplayName()
			}
			folds[id] = f
			order = append(order, id)
		}

		f.activity.Sessions++
		f.visitorIDs[session.VisitorID] = struct{}{}
		f.activity.PageViews += len(session.PagesVisited)
		if session.TotalTime != nil {
			f.timeSum += *session.TotalTime
			f.timeCount++
		}
		if session.IsBounce {
			f.bounces++
		}
		f.activity.Visitors = append(f.activity.Visitors, visitors[i])
	}

	result := make([]AffiliateActivity, 0, len(order))
	for _, id := range order {
		f := folds[id]
		f.activity.UniqueVisitors = len(f.visitorIDs)
		if f.activity.Sessions > 0 {
			f.activity.BounceRate = float64(f.bounces) / float64(f.activity.Sessions) * 100
		}
		if f.timeCount > 0 {
			f.activity.AvgSessionTime = float64(f.timeSum) / float64(f.timeCount)
		}
		result = append(result, f.activity)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Sessions != result[j].Sessions {
			return result[i].Sessions > result[j].Sessions
		}
		return result[i].AffiliateNumber < result[j].AffiliateNumber
	})
	return result
}
