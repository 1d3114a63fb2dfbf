package webhooknotify

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2/log"

	"github.com/RefTrackApp/RefTrack/app/models"
)

// Events a postback can announce.
const (
	EventCommissionCreated  = "commission_created"
	EventCommissionApproved = "commission_approved"
	EventCommissionReversed = "commission_reversed"
	EventCommissionPaid     = "commission_paid"
)

// Delivery carries everything one postback needs.
type Delivery struct {
	Commission *models.Commission
	Affiliate  *models.Affiliate
	Event      string
}

// fieldTable lists the dynamic fields an affiliate may map into its
// postback parameters.
func fieldTable(d *Delivery) map[string]string {
	return map[string]string{
		"commission_id":    strconv.FormatUint(uint64(d.Commission.ID), 10),
		"order_number":     d.Commission.OrderNumber,
		"amount":           strconv.FormatFloat(d.Commission.Amount, 'f', 2, 64),
		"currency":         d.Commission.Currency,
		"status":           d.Commission.Status,
		"affiliate_number": strconv.FormatUint(uint64(d.Affiliate.AffiliateNumber), 10),
		"affiliate_email":  d.Affiliate.Email,
		"event":            d.Event,
	}
}

// ResolveParams turns the affiliate's stored parameter mapping into the
// concrete query values for one delivery. Fixed parameters pass their
// stored value through; dynamic ones are looked up in the field table.
// An unknown dynamic field resolves to an empty value so a stale mapping
// never blocks the delivery.
func ResolveParams(mapping models.WebhookParamMap, d *Delivery) url.Values {
	values := url.Values{}
	table := fieldTable(d)
	for name, param := range mapping {
		switch param.Kind {
		case models.WEBHOOK_PARAM_FIXED:
			values.Set(name, param.Value)
		case models.WEBHOOK_PARAM_DYNAMIC:
			value, ok := table[param.Field]
			if !ok {
				log.Warnf("[Webhook] Unknown dynamic field %q for parameter %q", param.Field, name)
			}
			values.Set(name, value)
		default:
			log.Warnf("[Webhook] Skipping parameter %q with unknown kind %q", name, param.Kind)
		}
	}
	return values
}
