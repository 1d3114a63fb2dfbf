package controllers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/RefTrackApp/RefTrack/internal/pkg/analytics"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/realtime"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
	"github.com/RefTrackApp/RefTrack/internal/pkg/statistics"
)

var liveHub *realtime.Hub

// InitializeAnalyticsController wires the realtime hub into the live
// endpoint. Called once at boot; without it the SSE endpoint answers 503
// and the dashboard falls back to polling.
func InitializeAnalyticsController(hub *realtime.Hub) {
	liveHub = hub
}

// HandleAnalyticsStats computes the visitor aggregation for the dashboard.
// viewMode picks the session selection (realtime = last 30 minutes,
// historical = named time range); every metric is derived fresh from the
// selected sessions.
func HandleAnalyticsStats(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)

	viewMode := c.Query("viewMode", analytics.ViewModeRealtime)
	if !analytics.ValidViewMode(viewMode) {
		return badRequest(c, fmt.Sprintf("viewMode must be %s or %s", analytics.ViewModeRealtime, analytics.ViewModeHistorical))
	}

	timeRange := c.Query("timeRange", analytics.TimeRangeDay)
	if viewMode == analytics.ViewModeHistorical {
		if _, err := analytics.Window(timeRange); err != nil {
			return badRequest(c, err.Error())
		}
	}

	agg := analytics.NewAggregatorFromDB(database.GetDB())
	stats, err := agg.BuildStats(shopID, viewMode, timeRange)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stats)
}

// HandleAnalyticsLive streams visitor snapshots as server-sent events.
// The hub pushes a fresh realtime aggregation every interval; comment
// heartbeats keep idle proxies from closing the stream.
func HandleAnalyticsLive(c *fiber.Ctx) error {
	if liveHub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "unavailable",
			"message": "Live updates are not running, use the stats endpoint",
		})
	}

	shopID := shopcontext.GetShopID(c)
	frames, cancel := liveHub.Subscribe(shopID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		heartbeat := time.NewTicker(realtime.SnapshotInterval)
		defer heartbeat.Stop()

		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if _, err := w.Write(frame); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := w.Write(realtime.Heartbeat()); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// HandleDashboardSummary returns the cached KPI counters for the
// dashboard header.
func HandleDashboardSummary(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	return c.JSON(statistics.GetDashboardData(shopID))
}
