package attribution

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/analytics"
)

// Skip reasons of attribution attempts that created no commission. They
// are logged and reported back to the webhook caller, never treated as
// errors: an unattributed order is a normal outcome.
const (
	SkipDuplicateOrder = "duplicate_order"
	SkipNoAffiliate    = "no_affiliate"
	SkipInactive       = "affiliate_inactive"
	SkipWindowExpired  = "attribution_window_expired"
	SkipRebillPolicy   = "rebill_not_credited"
)

// Result is the outcome of one attribution attempt: either a created
// commission or the reason none was created.
type Result struct {
	Commission *models.Commission
	Skipped    string
}

// Created reports whether the attempt produced a commission.
func (r *Result) Created() bool {
	return r.Commission != nil
}

// Service turns incoming orders into commissions. Resolution prefers an
// explicit ref code over the landing-site ref parameter over the
// visitor's most recent attributed session; inactive affiliates never
// attribute.
type Service struct {
	repo Repository
}

// NewService creates an attribution service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates an attribution service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Attribute processes one order event and creates at most one commission
// for it. Replayed order ids are skipped, which makes webhook redelivery
// harmless.
func (s *Service) Attribute(ctx context.Context, shop *models.Shop, order *OrderEvent) (*Result, error) {
	_ = ctx
	if order.OrderID == "" {
		return nil, errors.New("order id is required for attribution")
	}

	exists, err := s.repo.ExistsForOrder(shop.ID, order.OrderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &Result{Skipped: SkipDuplicateOrder}, nil
	}

	if order.IsRebill() {
		return s.attributeRebill(shop, order)
	}
	return s.attributeInitial(shop, order)
}

func (s *Service) attributeInitial(shop *models.Shop, order *OrderEvent) (*Result, error) {
	res, err := s.resolve(shop, order)
	if err != nil {
		return nil, err
	}
	if res.affiliate == nil {
		return &Result{Skipped: res.skip}, nil
	}

	offer := res.offer
	if offer == nil {
		offer, err = s.repo.GetOffer(shop.ID, res.affiliate.OfferID)
		if err != nil {
			return nil, err
		}
	}

	commission := s.buildCommission(shop, order, res.affiliate, offer, offer.CommissionFor(order.Total))
	commission.AttributionType = res.attributionType
	commission.SessionID = res.sessionID
	if err := s.repo.CreateCommission(commission); err != nil {
		return nil, err
	}
	return &Result{Commission: commission}, nil
}

// attributeRebill credits a recurring payment to the affiliate of the
// subscription's initial order, governed by the offer's rebill policy.
func (s *Service) attributeRebill(shop *models.Shop, order *OrderEvent) (*Result, error) {
	if order.InitialOrderID == "" {
		return &Result{Skipped: SkipNoAffiliate}, nil
	}

	initial, err := s.repo.GetCommissionByOrder(shop.ID, order.InitialOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Result{Skipped: SkipNoAffiliate}, nil
		}
		return nil, err
	}

	offer, err := s.repo.GetOffer(shop.ID, initial.OfferID)
	if err != nil {
		return nil, err
	}

	var amount float64
	switch offer.RebillPolicy {
	case models.REBILL_POLICY_ALL:
		amount = offer.CommissionFor(order.Total)
	case models.REBILL_POLICY_FIRST_ONLY:
		if offer.RebillMaxPayments > 0 && order.SubscriptionPaymentNumber > offer.RebillMaxPayments {
			return &Result{Skipped: SkipRebillPolicy}, nil
		}
		amount = rebillAmount(offer, order.Total)
	default:
		// "no" and "credit_none" stop after the initial payment
		return &Result{Skipped: SkipRebillPolicy}, nil
	}

	affiliate, err := s.repo.GetAffiliate(shop.ID, initial.AffiliateID)
	if err != nil {
		return nil, err
	}
	if !affiliate.IsActive() {
		return &Result{Skipped: SkipInactive}, nil
	}

	commission := s.buildCommission(shop, order, affiliate, offer, amount)
	commission.AttributionType = initial.AttributionType
	commission.SessionID = initial.SessionID
	commission.SubscriptionPaymentNumber = order.SubscriptionPaymentNumber
	if err := s.repo.CreateCommission(commission); err != nil {
		return nil, err
	}
	return &Result{Commission: commission}, nil
}

// CreateManual records an admin-entered commission outside the webhook
// flow, for orders the tracking never saw.
func (s *Service) CreateManual(ctx context.Context, shop *models.Shop, affiliateID uint, orderID, orderNumber string, amount float64, currency string) (*models.Commission, error) {
	_ = ctx
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	exists, err := s.repo.ExistsForOrder(shop.ID, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("a commission for this order already exists")
	}

	affiliate, err := s.repo.GetAffiliate(shop.ID, affiliateID)
	if err != nil {
		return nil, err
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = shop.Currency
	}

	now := time.Now()
	commission := &models.Commission{
		ShopID:                    shop.ID,
		AffiliateID:               affiliate.ID,
		OfferID:                   affiliate.OfferID,
		OrderID:                   orderID,
		OrderNumber:               orderNumber,
		Amount:                    models.RoundCents(amount),
		Currency:                  currency,
		Status:                    models.COMMISSION_STATUS_PENDING,
		EligibleDate:              now.AddDate(0, 0, affiliate.PayoutTermsDays),
		AttributionType:           models.ATTRIBUTION_TYPE_MANUAL,
		SubscriptionPaymentNumber: 1,
	}
	if err := s.repo.CreateCommission(commission); err != nil {
		return nil, err
	}
	return commission, nil
}

func (s *Service) buildCommission(shop *models.Shop, order *OrderEvent, affiliate *models.Affiliate, offer *models.Offer, amount float64) *models.Commission {
	currency := offer.Currency
	if offer.IsPercentage() {
		currency = order.Currency
	}
	if currency == "" {
		currency = shop.Currency
	}

	return &models.Commission{
		ShopID:                    shop.ID,
		AffiliateID:               affiliate.ID,
		OfferID:                   offer.ID,
		OrderID:                   order.OrderID,
		OrderNumber:               order.OrderNumber,
		Amount:                    amount,
		Currency:                  currency,
		Status:                    models.COMMISSION_STATUS_PENDING,
		EligibleDate:              order.OccurredAt.AddDate(0, 0, affiliate.PayoutTermsDays),
		SubscriptionPaymentNumber: 1,
	}
}

type resolved struct {
	affiliate       *models.Affiliate
	offer           *models.Offer
	attributionType string
	sessionID       string
	skip            string
}

func (s *Service) resolve(shop *models.Shop, order *OrderEvent) (*resolved, error) {
	// explicit ref code written into the cart wins
	if number, ok := parseRef(order.RefCode); ok {
		affiliate, err := s.repo.GetActiveAffiliateByNumber(shop.ID, number)
		if err == nil {
			return &resolved{
				affiliate:       affiliate,
				attributionType: models.ATTRIBUTION_TYPE_REF_CODE,
				sessionID:       order.SessionID,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// ref parameter of the landing site
	if ref := analytics.ParseQueryParams(order.LandingSite)["ref"]; ref != "" {
		if number, ok := parseRef(ref); ok {
			affiliate, err := s.repo.GetActiveAffiliateByNumber(shop.ID, number)
			if err == nil {
				return &resolved{
					affiliate:       affiliate,
					attributionType: models.ATTRIBUTION_TYPE_REF_CODE,
					sessionID:       order.SessionID,
				}, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	// fall back to the visitor's most recent attributed session
	session, err := s.lookupSession(shop.ID, order)
	if err != nil {
		return nil, err
	}
	if session == nil || session.AffiliateID == nil {
		return &resolved{skip: SkipNoAffiliate}, nil
	}

	affiliate, err := s.repo.GetAffiliate(shop.ID, *session.AffiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &resolved{skip: SkipNoAffiliate}, nil
		}
		return nil, err
	}
	if !affiliate.IsActive() {
		return &resolved{skip: SkipInactive}, nil
	}

	offer, err := s.repo.GetOffer(shop.ID, affiliate.OfferID)
	if err != nil {
		return nil, err
	}
	window := time.Duration(offer.AttributionWindowDays) * 24 * time.Hour
	if order.OccurredAt.Sub(session.StartTime) > window {
		return &resolved{skip: SkipWindowExpired}, nil
	}

	return &resolved{
		affiliate:       affiliate,
		offer:           offer,
		attributionType: models.ATTRIBUTION_TYPE_SESSION,
		sessionID:       session.ID,
	}, nil
}

func (s *Service) lookupSession(shopID uint, order *OrderEvent) (*models.VisitorSession, error) {
	if order.SessionID != "" {
		session, err := s.repo.GetSession(shopID, order.SessionID)
		if err == nil && session.IsAttributed() {
			return session, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if order.VisitorID == "" {
		return nil, nil
	}
	session, err := s.repo.GetLatestAttributedSession(shopID, order.VisitorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// rebillAmount computes a credit_first_only rebill: the configured
// rebill amount replaces the base amount when set, under the offer's
// commission type.
func rebillAmount(offer *models.Offer, orderTotal float64) float64 {
	amount := offer.CommissionAmount
	if offer.RebillCommissionAmount > 0 {
		amount = offer.RebillCommissionAmount
	}
	if offer.IsPercentage() {
		return models.RoundCents(orderTotal * amount / 100)
	}
	return models.RoundCents(amount)
}

func parseRef(code string) (uint, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, false
	}
	number, err := strconv.ParseUint(code, 10, 32)
	if err != nil || number == 0 {
		return 0, false
	}
	return uint(number), true
}
