package analytics

import (
	"fmt"
	"time"
)

// Named time ranges accepted by the historical view.
const (
	TimeRangeHour  = "1h"
	TimeRangeDay   = "24h"
	TimeRangeWeek  = "7d"
	TimeRangeMonth = "30d"
)

var timeRangeWindows = map[string]time.Duration{
	TimeRangeHour:  time.Hour,
	TimeRangeDay:   24 * time.Hour,
	TimeRangeWeek:  7 * 24 * time.Hour,
	TimeRangeMonth: 30 * 24 * time.Hour,
}

// Window maps a named time range to its duration ending now. Unknown
// ranges are a validation error, answered with a 400 at the boundary.
func Window(timeRange string) (time.Duration, error) {
	d, ok := timeRangeWindows[timeRange]
	if !ok {
		return 0, fmt.Errorf("invalid time range %q, expected one of 1h, 24h, 7d, 30d", timeRange)
	}
	return d, nil
}

// ValidViewMode reports whether the given view mode is supported.
func ValidViewMode(viewMode string) bool {
	return viewMode == ViewModeRealtime || viewMode == ViewModeHistorical
}
