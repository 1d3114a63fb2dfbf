package webhooknotify

import (
	"testing"

	"github.com/RefTrackApp/RefTrack/app/models"
)

func deliveryFixture() *Delivery {
	return &Delivery{
		Commission: &models.Commission{
			ID:          77,
			OrderNumber: "1042",
			Amount:      12.5,
			Currency:    "EUR",
			Status:      models.COMMISSION_STATUS_APPROVED,
		},
		Affiliate: &models.Affiliate{
			ID:              3,
			AffiliateNumber: 42,
			Email:           "nord@example.com",
		},
		Event: EventCommissionApproved,
	}
}

func TestResolveParams(t *testing.T) {
	mapping := models.WebhookParamMap{
		"source":  {Kind: models.WEBHOOK_PARAM_FIXED, Value: "reftrack"},
		"cid":     {Kind: models.WEBHOOK_PARAM_DYNAMIC, Field: "commission_id"},
		"payout":  {Kind: models.WEBHOOK_PARAM_DYNAMIC, Field: "amount"},
		"cur":     {Kind: models.WEBHOOK_PARAM_DYNAMIC, Field: "currency"},
		"partner": {Kind: models.WEBHOOK_PARAM_DYNAMIC, Field: "affiliate_number"},
		"what":    {Kind: models.WEBHOOK_PARAM_DYNAMIC, Field: "event"},
	}

	values := ResolveParams(mapping, deliveryFixture())

	want := map[string]string{
		"source":  "reftrack",
		"cid":     "77",
		"payout":  "12.50",
		"cur":     "EUR",
		"partner": "42",
		"what":    EventCommissionApproved,
	}
	for key, expected := range want {
		if got := values.Get(key); got != expected {
			t.Errorf("param %s = %q, want %q", key, got, expected)
		}
	}
	if len(values) != len(want) {
		t.Errorf("resolved %d params, want %d", len(values), len(want))
	}
}

func TestResolveParamsUnknownDynamicFieldResolvesEmpty(t *testing.T) {
	mapping := models.WebhookParamMap{
		"x": {Kind: models.WEBHOOK_PARAM_DYNAMIC, Field: "no_such_field"},
	}

	values := ResolveParams(mapping, deliveryFixture())

	if _, present := values["x"]; !present {
		t.Fatal("expected the unknown field to still produce a parameter")
	}
	if got := values.Get("x"); got != "" {
		t.Errorf("unknown field resolved to %q, want empty", got)
	}
}

func TestResolveParamsSkipsUnknownKind(t *testing.T) {
	mapping := models.WebhookParamMap{
		"bad": {Kind: "computed", Value: "x"},
		"ok":  {Kind: models.WEBHOOK_PARAM_FIXED, Value: "1"},
	}

	values := ResolveParams(mapping, deliveryFixture())

	if _, present := values["bad"]; present {
		t.Error("parameter with unknown kind must be skipped")
	}
	if got := values.Get("ok"); got != "1" {
		t.Errorf("ok = %q, want %q", got, "1")
	}
}

func TestResolveParamsEmptyMappingIsNeverNil(t *testing.T) {
	values := ResolveParams(nil, deliveryFixture())
	if values == nil {
		t.Fatal("resolved params must not be nil")
	}
	if len(values) != 0 {
		t.Errorf("expected no params, got %v", values)
	}
}
