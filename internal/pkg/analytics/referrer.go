package analytics

import (
	"net/url"
	"strings"

	"github.com/RefTrackApp/RefTrack/app/models"
)

var searchDomains = []string{
	"google.", "bing.", "yahoo.", "duckduckgo.", "baidu.", "yandex.", "ecosia.",
}

var socialDomains = []string{
	"facebook.", "instagram.", "twitter.", "x.com", "t.co", "linkedin.",
	"pinterest.", "tiktok.", "youtube.", "reddit.", "snapchat.",
}

// ClassifyReferrer derives the referrer domain and its traffic bucket for
// a new session. Empty referrers and navigation within the shop's own
// domain count as direct traffic.
func ClassifyReferrer(referrer, ownDomain string) (string, string) {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return "", models.REFERRER_TYPE_DIRECT
	}

	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Host == "" {
		return "", models.REFERRER_TYPE_DIRECT
	}

	domain := strings.ToLower(parsed.Hostname())
	domain = strings.TrimPrefix(domain, "www.")

	own := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ownDomain), "www."))
	if own != "" && (domain == own || strings.HasSuffix(domain, "."+own)) {
		return "", models.REFERRER_TYPE_DIRECT
	}

	for _, s := range searchDomains {
		if strings.Contains(domain, s) {
			return domain, models.REFERRER_TYPE_SEARCH
		}
	}
	for _, s := range socialDomains {
		if strings.Contains(domain, s) {
			return domain, models.REFERRER_TYPE_SOCIAL
		}
	}

	return domain, models.REFERRER_TYPE_REFERRAL
}
