package attribution

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// OrderEvent is the attribution-relevant slice of one order webhook.
// Fields the tracking snippet wrote into the cart (ref code, visitor and
// session ids, subscription metadata) arrive as note attributes.
type OrderEvent struct {
	OrderID                   string
	OrderNumber               string
	Total                     float64
	Currency                  string
	CustomerEmail             string
	LandingSite               string
	RefCode                   string
	VisitorID                 string
	SessionID                 string
	SubscriptionPaymentNumber int
	InitialOrderID            string
	OccurredAt                time.Time
}

// IsRebill reports whether this order is a recurring subscription
// payment rather than the initial sale.
func (o *OrderEvent) IsRebill() bool {
	return o.SubscriptionPaymentNumber > 1
}

type shopifyOrder struct {
	ID             int64             `json:"id"`
	OrderNumber    int64             `json:"order_number"`
	TotalPrice     string            `json:"total_price"`
	Currency       string            `json:"currency"`
	CreatedAt      time.Time         `json:"created_at"`
	LandingSite    string            `json:"landing_site"`
	Customer       shopifyCustomer   `json:"customer"`
	NoteAttributes []shopifyNoteAttr `json:"note_attributes"`
}

type shopifyCustomer struct {
	Email string `json:"email"`
}

type shopifyNoteAttr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseOrderPayload maps a raw Shopify order webhook body onto an
// OrderEvent. Total prices arrive as decimal strings.
func ParseOrderPayload(payload []byte) (*OrderEvent, error) {
	var raw shopifyOrder
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if raw.ID == 0 {
		return nil, errors.New("order payload is missing the order id")
	}

	total := 0.0
	if raw.TotalPrice != "" {
		parsed, err := strconv.ParseFloat(raw.TotalPrice, 64)
		if err != nil {
			return nil, errors.New("order payload has a malformed total_price")
		}
		total = parsed
	}

	attrs := make(map[string]string, len(raw.NoteAttributes))
	for _, attr := range raw.NoteAttributes {
		attrs[strings.ToLower(strings.TrimSpace(attr.Name))] = strings.TrimSpace(attr.Value)
	}

	paymentNumber := 1
	if v := attrs["subscription_payment_number"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			paymentNumber = n
		}
	}

	occurredAt := raw.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &OrderEvent{
		OrderID:                   strconv.FormatInt(raw.ID, 10),
		OrderNumber:               strconv.FormatInt(raw.OrderNumber, 10),
		Total:                     total,
		Currency:                  strings.ToUpper(strings.TrimSpace(raw.Currency)),
		CustomerEmail:             strings.TrimSpace(raw.Customer.Email),
		LandingSite:               raw.LandingSite,
		RefCode:                   attrs["ref"],
		VisitorID:                 attrs["rt_visitor"],
		SessionID:                 attrs["rt_session"],
		SubscriptionPaymentNumber: paymentNumber,
		InitialOrderID:            attrs["initial_order_id"],
		OccurredAt:                occurredAt,
	}, nil
}
