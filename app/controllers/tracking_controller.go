package controllers

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/analytics"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/metrics/counter"
	"github.com/RefTrackApp/RefTrack/internal/pkg/middleware"
)

type trackEventRequest struct {
	VisitorID    string            `json:"visitor_id"`
	SessionID    string            `json:"session_id"`
	EventType    string            `json:"event_type"`
	PageURL      string            `json:"page_url"`
	PageTitle    string            `json:"page_title"`
	Referrer     string            `json:"referrer"`
	URLParams    map[string]string `json:"url_params"`
	AffiliateRef string            `json:"affiliate_ref"`
}

// HandleTrackEvent ingests one tracking beacon from the storefront
// snippet. The first beacon of a session creates the session row;
// later page views append to it. Every beacon is also stored as an
// immutable event. The response echoes the ids the snippet must keep
// sending for the rest of the visit.
func HandleTrackEvent(c *fiber.Ctx) error {
	shop := middleware.GetTrackingShop(c)
	if shop == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing tracking key"})
	}

	var req trackEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.PageURL) == "" {
		return badRequest(c, "page_url is required")
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = models.EVENT_TYPE_PAGE_VIEW
	}
	switch eventType {
	case models.EVENT_TYPE_PAGE_VIEW, models.EVENT_TYPE_CLICK, models.EVENT_TYPE_CUSTOM:
	default:
		return badRequest(c, "event_type must be page_view, click or custom")
	}

	visitorID := strings.TrimSpace(req.VisitorID)
	if visitorID == "" {
		visitorID = uuid.New().String()
	}

	now := time.Now()
	page := pagePath(req.PageURL)
	params := req.URLParams
	if len(params) == 0 {
		params = analytics.ParseQueryParams(req.PageURL)
	}

	session, err := resolveTrackedSession(shop, &req, visitorID)
	if err != nil {
		return respondError(c, err)
	}

	repos := repository.GetGlobalFactory()
	if session == nil {
		session = newTrackedSession(c, shop, &req, visitorID, page, params, now)
		applyAffiliateRef(shop, session, &req, params)
		if err := repos.GetVisitorSessionRepository().Create(session); err != nil {
			return respondError(c, err)
		}
	} else {
		if eventType == models.EVENT_TYPE_PAGE_VIEW {
			session.RecordPageView(page, now)
		}
		for k, v := range params {
			if session.URLParams == nil {
				session.URLParams = models.StringMap{}
			}
			session.URLParams[k] = v
		}
		applyAffiliateRef(shop, session, &req, params)
		if err := repos.GetVisitorSessionRepository().Update(session); err != nil {
			return respondError(c, err)
		}
	}

	event := &models.VisitorEvent{
		ShopID:    shop.ID,
		SessionID: session.ID,
		VisitorID: visitorID,
		EventType: eventType,
		PageURL:   req.PageURL,
		Page:      page,
		PageTitle: req.PageTitle,
		Referrer:  req.Referrer,
	}
	if len(params) > 0 {
		if data, err := json.Marshal(map[string]interface{}{"url_params": params}); err == nil {
			event.EventData = models.JSON(data)
		}
	}
	if err := repos.GetVisitorEventRepository().Create(event); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"session_id": session.ID,
		"visitor_id": visitorID,
	})
}

// resolveTrackedSession loads the session named by the beacon. A missing
// or foreign session id silently starts a new session instead of failing
// the beacon; tracking must never bounce because a cookie went stale.
func resolveTrackedSession(shop *models.Shop, req *trackEventRequest, visitorID string) (*models.VisitorSession, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, nil
	}

	session, err := repository.GetGlobalFactory().GetVisitorSessionRepository().GetByID(shop.ID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.VisitorID != visitorID {
		return nil, nil
	}
	return session, nil
}

func newTrackedSession(c *fiber.Ctx, shop *models.Shop, req *trackEventRequest, visitorID, page string, params map[string]string, now time.Time) *models.VisitorSession {
	ua := c.Get(fiber.HeaderUserAgent)
	referrerDomain, referrerType := analytics.ClassifyReferrer(req.Referrer, shop.Domain)

	session := &models.VisitorSession{
		ID:             uuid.New().String(),
		ShopID:         shop.ID,
		VisitorID:      visitorID,
		StartTime:      now,
		PagesVisited:   models.StringSlice{},
		DeviceType:     analytics.ClassifyDevice(ua),
		Browser:        ua,
		ReferrerDomain: referrerDomain,
		ReferrerType:   referrerType,
		Country:        strings.ToUpper(strings.TrimSpace(c.Get("CF-IPCountry"))),
		LandingPage:    req.PageURL,
		URLParams:      models.StringMap(params),
	}
	session.RecordPageView(page, now)
	return session
}

// applyAffiliateRef attributes the session when the beacon carries a ref
// code, either explicitly or as a ref URL parameter. Attribution sticks:
// a session that already belongs to an affiliate is never moved.
func applyAffiliateRef(shop *models.Shop, session *models.VisitorSession, req *trackEventRequest, params map[string]string) {
	if session.IsAttributed() {
		return
	}

	ref := strings.TrimSpace(req.AffiliateRef)
	if ref == "" {
		ref = params["ref"]
	}
	if ref == "" {
		return
	}
	number, err := strconv.ParseUint(ref, 10, 32)
	if err != nil || number == 0 {
		return
	}

	db := database.GetDB()
	if db == nil {
		return
	}
	affiliate, err := models.FindActiveAffiliateByNumber(db, shop.ID, uint(number))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Tracking] Affiliate lookup for ref %q failed: %v", ref, err)
		}
		return
	}
	session.Attribute(affiliate.ID)
}

// pagePath reduces a full page URL to its path for grouping. Unparseable
// URLs keep their raw string so no page view is lost.
func pagePath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		if err != nil {
			return rawURL
		}
		return "/"
	}
	return parsed.Path
}

// HandleAffiliateRedirect is the public affiliate link: it counts the
// click and bounces the visitor to the affiliate's destination with the
// ref code and any utm parameters attached.
func HandleAffiliateRedirect(c *fiber.Ctx) error {
	shopID, err := parseIDParam(c, "shop")
	if err != nil {
		return notFound(c, "Unknown link")
	}
	number, err := parseIDParam(c, "number")
	if err != nil {
		return notFound(c, "Unknown link")
	}

	db := database.GetDB()
	if db == nil {
		return respondError(c, errors.New("database unavailable"))
	}

	var shop models.Shop
	if err := db.First(&shop, shopID).Error; err != nil || !shop.IsActive() {
		return notFound(c, "Unknown link")
	}

	affiliate, err := models.FindActiveAffiliateByNumber(db, shop.ID, number)
	if err != nil {
		return notFound(c, "Unknown link")
	}

	dest := affiliate.DestinationURL
	if dest == "" {
		dest = "https://" + shop.Domain
	}

	target, err := url.Parse(dest)
	if err != nil {
		return notFound(c, "Unknown link")
	}
	query := target.Query()
	query.Set("ref", strconv.FormatUint(uint64(affiliate.AffiliateNumber), 10))
	for key, value := range c.Queries() {
		if strings.HasPrefix(key, "utm_") {
			query.Set(key, value)
		}
	}
	target.RawQuery = query.Encode()

	if err := counter.AddAffiliateClick(affiliate.ID); err != nil {
		log.Warnf("[Tracking] Click counter for affiliate %d failed: %v", affiliate.ID, err)
	}

	return c.Redirect(target.String(), fiber.StatusFound)
}
