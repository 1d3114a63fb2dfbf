package analytics

import (
	"testing"

	"github.com/RefTrackApp/RefTrack/app/models"
)

func intPtr(v int) *int { return &v }

func sessionWithPages(pages ...string) models.VisitorSession {
	s := models.VisitorSession{PagesVisited: pages, IsBounce: len(pages) == 1}
	if len(pages) > 0 {
		s.EntryPage = pages[0]
		s.ExitPage = pages[len(pages)-1]
		s.PageViews = len(pages)
	}
	return s
}

func TestBounceRate(t *testing.T) {
	if got := BounceRate(nil); got != 0 {
		t.Fatalf("BounceRate(empty) = %v, want 0", got)
	}

	sessions := []models.VisitorSession{
		sessionWithPages("/a"),
		sessionWithPages("/a", "/b"),
		sessionWithPages("/c"),
		sessionWithPages("/d", "/e", "/f"),
	}
	if got := BounceRate(sessions); got != 50 {
		t.Fatalf("BounceRate = %v, want 50", got)
	}
}

func TestAvgSessionTimeExcludesMissingValues(t *testing.T) {
	sessions := []models.VisitorSession{
		{TotalTime: intPtr(10)},
		{TotalTime: intPtr(20)},
		{TotalTime: nil},
	}
	if got := AvgSessionTime(sessions); got != 15 {
		t.Fatalf("AvgSessionTime = %v, want 15 (nil excluded from sum and count)", got)
	}

	if got := AvgSessionTime([]models.VisitorSession{{TotalTime: nil}}); got != 0 {
		t.Fatalf("AvgSessionTime(all nil) = %v, want 0", got)
	}
}

func TestPagesPerSession(t *testing.T) {
	if got := PagesPerSession(nil); got != 0 {
		t.Fatalf("PagesPerSession(empty) = %v, want 0", got)
	}

	sessions := []models.VisitorSession{
		sessionWithPages("/a"),
		sessionWithPages("/a", "/b", "/c"),
	}
	if got := PagesPerSession(sessions); got != 2 {
		t.Fatalf("PagesPerSession = %v, want 2", got)
	}
}

func TestTopPagesCountsBouncesOnlyForSinglePageSessions(t *testing.T) {
	sessions := []models.VisitorSession{
		sessionWithPages("/a"),
		sessionWithPages("/a", "/b"),
		sessionWithPages("/a"),
		sessionWithPages("/c"),
		sessionWithPages("/a"),
	}

	got := TopPages(sessions)
	want := []PageStat{
		{Page: "/a", Views: 4, BounceRate: 75},
		{Page: "/b", Views: 1, BounceRate: 0},
		{Page: "/c", Views: 1, BounceRate: 100},
	}

	if len(got) != len(want) {
		t.Fatalf("TopPages returned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TopPages[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTopPagesCapsAtTen(t *testing.T) {
	pages := []string{"/0", "/1", "/2", "/3", "/4", "/5", "/6", "/7", "/8", "/9", "/10", "/11"}
	sessions := make([]models.VisitorSession, 0, len(pages))
	for _, p := range pages {
		sessions = append(sessions, sessionWithPages(p))
	}
	if got := TopPages(sessions); len(got) != 10 {
		t.Fatalf("TopPages returned %d rows, want 10", len(got))
	}
}

func TestEntryAndExitPages(t *testing.T) {
	sessions := []models.VisitorSession{
		sessionWithPages("/a", "/b"),
		sessionWithPages("/a", "/c"),
		sessionWithPages("/d"),
		{EntryPage: "/e"}, // no pages recorded yet, no exit
	}

	entries := EntryPages(sessions)
	if entries[0].Page != "/a" || entries[0].Count != 2 {
		t.Fatalf("EntryPages[0] = %+v, want /a with count 2", entries[0])
	}

	exits := ExitPages(sessions)
	for _, e := range exits {
		if e.Page == "" {
			t.Fatalf("ExitPages must skip sessions without an exit page")
		}
	}
	if len(exits) != 3 {
		t.Fatalf("ExitPages returned %d rows, want 3", len(exits))
	}
}

func TestTrafficSources(t *testing.T) {
	sessions := []models.VisitorSession{
		{ReferrerType: models.REFERRER_TYPE_DIRECT},
		{ReferrerType: models.REFERRER_TYPE_DIRECT, ReferrerDomain: "ignored.example"},
		{ReferrerType: models.REFERRER_TYPE_SEARCH, ReferrerDomain: "google.com"},
		{ReferrerType: models.REFERRER_TYPE_REFERRAL},
	}

	got := TrafficSources(sessions)
	if len(got) != 3 {
		t.Fatalf("TrafficSources returned %d rows, want 3", len(got))
	}
	if got[0].Source != "direct" || got[0].Count != 2 || got[0].Percentage != 50 {
		t.Fatalf("TrafficSources[0] = %+v, want direct count 2 pct 50", got[0])
	}

	rest := map[string]bool{}
	for _, s := range got[1:] {
		rest[s.Source] = true
	}
	if !rest["google.com"] || !rest["unknown"] {
		t.Fatalf("TrafficSources = %+v, want google.com and unknown rows", got)
	}
}

func TestGeographyTopTenWithPercentage(t *testing.T) {
	sessions := []models.VisitorSession{
		{Country: "DE"}, {Country: "DE"}, {Country: "US"}, {Country: ""},
	}
	got := Geography(sessions)
	if got[0].Country != "DE" || got[0].Count != 2 || got[0].Percentage != 50 {
		t.Fatalf("Geography[0] = %+v, want DE count 2 pct 50", got[0])
	}
	found := false
	for _, g := range got {
		if g.Country == "unknown" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Geography must map empty country to unknown: %+v", got)
	}
}

func TestClassifyBrowser(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", BrowserChrome},
		{"Mozilla/5.0 (Macintosh) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15", BrowserSafari},
		{"Mozilla/5.0 (Windows NT 10.0; rv:109.0) Gecko/20100101 Firefox/119.0", BrowserFirefox},
		{"Edg/118.0", BrowserEdge},
		{"Opera/9.80 (Windows NT 6.0) Presto/2.12", BrowserOpera},
		{"OPR/104.0", BrowserOpera},
		{"curl/8.4.0", BrowserUnknown},
		{"", BrowserUnknown},
		// fixed match order: an Edge UA that still carries the Chrome token
		// lands in the Chrome bucket
		{"Mozilla/5.0 AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0", BrowserChrome},
	}

	for _, tt := range tests {
		if got := ClassifyBrowser(tt.ua); got != tt.want {
			t.Fatalf("ClassifyBrowser(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", models.DEVICE_TABLET},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", models.DEVICE_MOBILE},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8)", models.DEVICE_MOBILE},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", models.DEVICE_DESKTOP},
		{"", models.DEVICE_DESKTOP},
	}

	for _, tt := range tests {
		if got := ClassifyDevice(tt.ua); got != tt.want {
			t.Fatalf("ClassifyDevice(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

func TestWindow(t *testing.T) {
	if _, err := Window("12h"); err == nil {
		t.Fatalf("Window(12h) must fail, range is not supported")
	}
	d, err := Window(TimeRangeWeek)
	if err != nil {
		t.Fatalf("Window(7d) returned error: %v", err)
	}
	if d.Hours() != 7*24 {
		t.Fatalf("Window(7d) = %v, want 168h", d)
	}
}
