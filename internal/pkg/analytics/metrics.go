package analytics

import (
	"sort"

	"github.com/RefTrackApp/RefTrack/app/models"
)

// Each metric is a pure function from the selected session set to its
// result. Nothing here touches the database; the aggregator fetches the
// rows once and every derivation folds over that one slice.

// BounceRate returns the share of single-page sessions in percent, and
// exactly 0 for an empty session set.
func BounceRate(sessions []models.VisitorSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	bounced := 0
	for _, s := range sessions {
		if s.IsBounce {
			bounced++
		}
	}
	return float64(bounced) / float64(len(sessions)) * 100
}

// AvgSessionTime returns the mean total time in seconds over sessions
// that have a recorded time. Sessions without one are excluded from both
// the sum and the count, not treated as zero.
func AvgSessionTime(sessions []models.VisitorSession) float64 {
	sum := 0
	counted := 0
	for _, s := range sessions {
		if s.TotalTime == nil {
			continue
		}
		sum += *s.TotalTime
		counted++
	}
	if counted == 0 {
		return 0
	}
	return float64(sum) / float64(counted)
}

// PagesPerSession returns the mean number of page views per session.
func PagesPerSession(sessions []models.VisitorSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	total := 0
	for _, s := range sessions {
		total += len(s.PagesVisited)
	}
	return float64(total) / float64(len(sessions))
}

// UniqueVisitors counts distinct visitor ids in the session set.
func UniqueVisitors(sessions []models.VisitorSession) int {
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		seen[s.VisitorID] = struct{}{}
	}
	return len(seen)
}

// TopPages groups page views by path. Views counts every occurrence of
// the page across all sessions. A bounce is counted against a page only
// when a session visited exactly that one page and nothing else; the per
// page bounce rate is bounces over views. Top 10 by views.
func TopPages(sessions []models.VisitorSession) []PageStat {
	views := make(map[string]int)
	bounces := make(map[string]int)

	for _, s := range sessions {
		for _, page := range s.PagesVisited {
			views[page]++
		}
		if len(s.PagesVisited) == 1 {
			bounces[s.PagesVisited[0]]++
		}
	}

	stats := make([]PageStat, 0, len(views))
	for page, count := range views {
		rate := 0.0
		if count > 0 {
			rate = float64(bounces[page]) / float64(count) * 100
		}
		stats = append(stats, PageStat{Page: page, Views: count, BounceRate: rate})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Views != stats[j].Views {
			return stats[i].Views > stats[j].Views
		}
		return stats[i].Page < stats[j].Page
	})

	return capPageStats(stats, 10)
}

// EntryPages counts sessions by their entry page, top 10.
func EntryPages(sessions []models.VisitorSession) []PageCount {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.EntryPage]++
	}
	return topPageCounts(counts, 10)
}

// ExitPages counts sessions by their exit page, skipping sessions that
// have none, top 10.
func ExitPages(sessions []models.VisitorSession) []PageCount {
	counts := make(map[string]int)
	for _, s := range sessions {
		if s.ExitPage == "" {
			continue
		}
		counts[s.ExitPage]++
	}
	return topPageCounts(counts, 10)
}

// TrafficSources groups sessions into direct traffic, referrer domains
// and unknown, with each source's share of the total. Top 10.
func TrafficSources(sessions []models.VisitorSession) []SourceStat {
	counts := make(map[string]int)
	for _, s := range sessions {
		source := "unknown"
		if s.ReferrerType == models.REFERRER_TYPE_DIRECT {
			source = "direct"
		} else if s.ReferrerDomain != "" {
			source = s.ReferrerDomain
		}
		counts[source]++
	}

	total := len(sessions)
	stats := make([]SourceStat, 0, len(counts))
	for source, count := range counts {
		stats = append(stats, SourceStat{
			Source:     source,
			Count:      count,
			Percentage: percentage(count, total),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Source < stats[j].Source
	})

	if len(stats) > 10 {
		stats = stats[:10]
	}
	return stats
}

// Devices counts sessions per device type, sorted descending, unlimited.
func Devices(sessions []models.VisitorSession) []CountStat {
	counts := make(map[string]int)
	for _, s := range sessions {
		device := s.DeviceType
		if device == "" {
			device = "unknown"
		}
		counts[device]++
	}
	return sortedCountStats(counts, len(sessions), 0)
}

// Browsers classifies each session's user-agent string and counts the
// buckets, sorted descending, unlimited.
func Browsers(sessions []models.VisitorSession) []CountStat {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[ClassifyBrowser(s.Browser)]++
	}
	return sortedCountStats(counts, len(sessions), 0)
}

// Geography counts sessions per country with each country's share,
// top 10.
func Geography(sessions []models.VisitorSession) []CountryStat {
	counts := make(map[string]int)
	for _, s := range sessions {
		country := s.Country
		if country == "" {
			country = "unknown"
		}
		counts[country]++
	}

	total := len(sessions)
	stats := make([]CountryStat, 0, len(counts))
	for country, count := range counts {
		stats = append(stats, CountryStat{
			Country:    country,
			Count:      count,
			Percentage: percentage(count, total),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Country < stats[j].Country
	})

	if len(stats) > 10 {
		stats = stats[:10]
	}
	return stats
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func capPageStats(stats []PageStat, limit int) []PageStat {
	if len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

func topPageCounts(counts map[string]int, limit int) []PageCount {
	stats := make([]PageCount, 0, len(counts))
	for page, count := range counts {
		stats = append(stats, PageCount{Page: page, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Page < stats[j].Page
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func sortedCountStats(counts map[string]int, total, limit int) []CountStat {
	stats := make([]CountStat, 0, len(counts))
	for name, count := range counts {
		stats = append(stats, CountStat{
			Name:       name,
			Count:      count,
			Percentage: percentage(count, total),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
