package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
)

// The fakes embed the repository interfaces so only the methods the
// aggregator calls need an implementation. They replicate the store's
// affiliate_id predicate so the selection behavior stays honest.

type fakeSessionRepo struct {
	repository.VisitorSessionRepository
	rows         []models.VisitorSession
	requestedIDs []string
}

func (f *fakeSessionRepo) GetAttributedByIDs(shopID uint, ids []string, limit int) ([]models.VisitorSession, error) {
	f.requestedIDs = ids
	out := make([]models.VisitorSession, 0, len(ids))
	for _, row := range f.rows {
		if row.AffiliateID == nil {
			continue
		}
		for _, id := range ids {
			if row.ID == id {
				out = append(out, row)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListAttributed(shopID uint, limit int) ([]models.VisitorSession, error) {
	out := make([]models.VisitorSession, 0, len(f.rows))
	for _, row := range f.rows {
		if row.AffiliateID == nil {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	repository.VisitorEventRepository
	rows []models.VisitorEvent
}

func (f *fakeEventRepo) RecentPageViews(shopID uint, since time.Time, limit int) ([]models.VisitorEvent, error) {
	return f.rows, nil
}

func (f *fakeEventRepo) PageViewsBySessions(shopID uint, sessionIDs []string, limit int) ([]models.VisitorEvent, error) {
	return f.rows, nil
}

type fakeAffiliateRepo struct {
	repository.AffiliateRepository
	rows []models.Affiliate
}

func (f *fakeAffiliateRepo) GetByIDs(shopID uint, ids []uint) ([]models.Affiliate, error) {
	return f.rows, nil
}

func uintPtr(v uint) *uint { return &v }

func TestBuildStatsRealtimeTracksOnlyAttributedSessions(t *testing.T) {
	now := time.Now()

	sessionRepo := &fakeSessionRepo{rows: []models.VisitorSession{
		{
			ID:           "s1",
			VisitorID:    "v1",
			AffiliateID:  uintPtr(7),
			PagesVisited: []string{"/a", "/b"},
			PageViews:    2,
			StartTime:    now.Add(-10 * time.Minute),
		},
		{
			// had a recent event but never got attributed
			ID:           "s2",
			VisitorID:    "v2",
			PagesVisited: []string{"/x"},
			IsBounce:     true,
			StartTime:    now.Add(-5 * time.Minute),
		},
	}}
	// newest first, the way the store returns them
	eventRepo := &fakeEventRepo{rows: []models.VisitorEvent{
		{SessionID: "s1", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/b", CreatedAt: now.Add(-1 * time.Minute)},
		{SessionID: "s1", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/a", CreatedAt: now.Add(-9 * time.Minute)},
		{SessionID: "s2", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/x", CreatedAt: now.Add(-4 * time.Minute)},
	}}
	affiliateRepo := &fakeAffiliateRepo{rows: []models.Affiliate{
		{ID: 7, AffiliateNumber: 12, CompanyName: "Nord Media"},
	}}

	aggregator := NewAggregator(sessionRepo, eventRepo, affiliateRepo)
	stats, err := aggregator.BuildStats(1, ViewModeRealtime, "")
	require.NoError(t, err)

	// candidate ids keep the newest-first arrival order, deduplicated
	assert.Equal(t, []string{"s1", "s2"}, sessionRepo.requestedIDs)

	require.Len(t, stats.ActiveVisitors, 1)
	visitor := stats.ActiveVisitors[0]
	assert.Equal(t, "s1", visitor.SessionID)
	assert.Equal(t, "/b", visitor.CurrentPage, "first occurrence in the newest-first events is the current page")
	assert.Equal(t, "Nord Media", visitor.AffiliateName)
	assert.Equal(t, uint(12), visitor.AffiliateNumber)
	assert.Equal(t, now.Add(-1*time.Minute), visitor.LastSeen)

	assert.Equal(t, 1, stats.TotalVisitors)
	assert.Equal(t, ViewModeRealtime, stats.ViewMode)
	assert.Empty(t, stats.TimeRange)
	for _, v := range stats.ActiveVisitors {
		assert.NotZero(t, v.AffiliateID)
	}
}

func TestBuildStatsMergesURLParamsByPrecedence(t *testing.T) {
	now := time.Now()

	sessionRepo := &fakeSessionRepo{rows: []models.VisitorSession{
		{
			ID:          "s1",
			VisitorID:   "v1",
			AffiliateID: uintPtr(3),
			URLParams:   map[string]string{"a": "1", "keep": "s"},
			LandingPage: "https://shop.example/land?a=4&d=9",
			StartTime:   now.Add(-10 * time.Minute),
		},
	}}
	eventRepo := &fakeEventRepo{rows: []models.VisitorEvent{
		{
			SessionID: "s1",
			EventType: models.EVENT_TYPE_PAGE_VIEW,
			Page:      "/p",
			PageURL:   "https://shop.example/p?a=3&c=5",
			EventData: models.JSON(`{"url_params":{"a":"2","b":"3"}}`),
			CreatedAt: now.Add(-1 * time.Minute),
		},
	}}
	affiliateRepo := &fakeAffiliateRepo{rows: []models.Affiliate{{ID: 3, AffiliateNumber: 1, Email: "p@example.com"}}}

	aggregator := NewAggregator(sessionRepo, eventRepo, affiliateRepo)
	stats, err := aggregator.BuildStats(1, ViewModeRealtime, "")
	require.NoError(t, err)

	require.Len(t, stats.ActiveVisitors, 1)
	assert.Equal(t, map[string]string{
		"a":    "4", // landing page wins over event URL, event data and session
		"b":    "3",
		"c":    "5",
		"d":    "9",
		"keep": "s",
	}, stats.ActiveVisitors[0].URLParams)
}

func TestBuildStatsHistoricalFiltersWindowInMemory(t *testing.T) {
	now := time.Now()

	sessionRepo := &fakeSessionRepo{rows: []models.VisitorSession{
		{
			ID:           "inside",
			VisitorID:    "v1",
			AffiliateID:  uintPtr(1),
			StartTime:    now.Add(-2 * time.Hour),
			PagesVisited: []string{"/a"},
			IsBounce:     true,
		},
		{
			ID:           "outside",
			VisitorID:    "v2",
			AffiliateID:  uintPtr(1),
			StartTime:    now.Add(-30 * time.Hour),
			PagesVisited: []string{"/b"},
			IsBounce:     true,
		},
	}}
	eventRepo := &fakeEventRepo{rows: []models.VisitorEvent{
		{SessionID: "inside", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/a", CreatedAt: now.Add(-2 * time.Hour)},
	}}
	affiliateRepo := &fakeAffiliateRepo{rows: []models.Affiliate{{ID: 1, AffiliateNumber: 4, CompanyName: "Acme"}}}

	aggregator := NewAggregator(sessionRepo, eventRepo, affiliateRepo)
	stats, err := aggregator.BuildStats(1, ViewModeHistorical, TimeRangeDay)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalVisitors)
	require.Len(t, stats.ActiveVisitors, 1)
	assert.Equal(t, "inside", stats.ActiveVisitors[0].SessionID)
	assert.Equal(t, TimeRangeDay, stats.TimeRange)
	assert.Equal(t, ViewModeHistorical, stats.ViewMode)
}

func TestBuildStatsRejectsInvalidInput(t *testing.T) {
	aggregator := NewAggregator(&fakeSessionRepo{}, &fakeEventRepo{}, &fakeAffiliateRepo{})

	_, err := aggregator.BuildStats(1, "live", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view mode")

	_, err = aggregator.BuildStats(1, ViewModeHistorical, "12h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time range")
}

func TestBuildStatsFoldsPerAffiliateMetrics(t *testing.T) {
	now := time.Now()
	thirty := 30
	ten := 10

	sessionRepo := &fakeSessionRepo{rows: []models.VisitorSession{
		{
			ID: "s1", VisitorID: "v1", AffiliateID: uintPtr(1),
			PagesVisited: []string{"/a"}, IsBounce: true,
			StartTime: now.Add(-20 * time.Minute),
		},
		{
			ID: "s2", VisitorID: "v1", AffiliateID: uintPtr(1),
			PagesVisited: []string{"/a", "/b"}, TotalTime: &thirty,
			StartTime: now.Add(-15 * time.Minute),
		},
		{
			ID: "s3", VisitorID: "v2", AffiliateID: uintPtr(2),
			PagesVisited: []string{"/c"}, IsBounce: true, TotalTime: &ten,
			StartTime: now.Add(-10 * time.Minute),
		},
	}}
	eventRepo := &fakeEventRepo{rows: []models.VisitorEvent{
		{SessionID: "s3", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/c", CreatedAt: now.Add(-10 * time.Minute)},
		{SessionID: "s2", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/b", CreatedAt: now.Add(-14 * time.Minute)},
		{SessionID: "s1", EventType: models.EVENT_TYPE_PAGE_VIEW, Page: "/a", CreatedAt: now.Add(-19 * time.Minute)},
	}}
	affiliateRepo := &fakeAffiliateRepo{rows: []models.Affiliate{
		{ID: 1, AffiliateNumber: 10, CompanyName: "Alpha"},
		{ID: 2, AffiliateNumber: 20, CompanyName: "Beta"},
	}}

	aggregator := NewAggregator(sessionRepo, eventRepo, affiliateRepo)
	stats, err := aggregator.BuildStats(1, ViewModeRealtime, "")
	require.NoError(t, err)

	require.Len(t, stats.Affiliates, 2)

	alpha := stats.Affiliates[0]
	assert.Equal(t, uint(1), alpha.AffiliateID)
	assert.Equal(t, "Alpha", alpha.AffiliateName)
	assert.Equal(t, 2, alpha.Sessions)
	assert.Equal(t, 1, alpha.UniqueVisitors)
	assert.Equal(t, 3, alpha.PageViews)
	assert.Equal(t, float64(50), alpha.BounceRate)
	assert.Equal(t, float64(30), alpha.AvgSessionTime, "sessions without a time stay out of the average")
	assert.Len(t, alpha.Visitors, 2)

	beta := stats.Affiliates[1]
	assert.Equal(t, uint(2), beta.AffiliateID)
	assert.Equal(t, 1, beta.Sessions)
	assert.Equal(t, float64(100), beta.BounceRate)
	assert.Equal(t, float64(10), beta.AvgSessionTime)

	// global metrics cover all selected sessions
	assert.Equal(t, 3, stats.TotalVisitors)
	assert.Equal(t, 2, stats.UniqueVisitors)
	assert.InDelta(t, 66.66, stats.BounceRate, 0.01)
	assert.Equal(t, float64(20), stats.AvgSessionTime)
}
