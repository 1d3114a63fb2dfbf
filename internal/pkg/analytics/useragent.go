package analytics

import (
	"strings"

	"github.com/RefTrackApp/RefTrack/app/models"
)

// Browser buckets of the dashboard.
const (
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
	BrowserFirefox = "Firefox"
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserUnknown = "Unknown"
)

// ClassifyBrowser buckets a user-agent string by substring match. The
// match order is fixed: Chrome first, then Safari (which at this point
// cannot contain Chrome anymore), Firefox, Edge, Opera. Anything else is
// Unknown.
func ClassifyBrowser(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return BrowserChrome
	case strings.Contains(userAgent, "Safari"):
		return BrowserSafari
	case strings.Contains(userAgent, "Firefox"):
		return BrowserFirefox
	case strings.Contains(userAgent, "Edg"):
		return BrowserEdge
	case strings.Contains(userAgent, "Opera"), strings.Contains(userAgent, "OPR"):
		return BrowserOpera
	default:
		return BrowserUnknown
	}
}

// ClassifyDevice buckets a user-agent string into desktop, mobile or
// tablet for the session's device_type field at ingest time.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return models.DEVICE_TABLET
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return models.DEVICE_MOBILE
	default:
		return models.DEVICE_DESKTOP
	}
}
