package payoutreport

import (
	"sort"
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
)

// Report lists paid commissions of one period grouped per affiliate.
type Report struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Affiliates  []Group         `json:"affiliates"`
	Totals      []CurrencyTotal `json:"totals"`
	TotalCount  int             `json:"total_count"`
}

// Group is one affiliate's slice of the report.
type Group struct {
	AffiliateID     uint                `json:"affiliate_id"`
	AffiliateNumber uint                `json:"affiliate_number"`
	AffiliateName   string              `json:"affiliate_name"`
	PayoutMethod    string              `json:"payout_method"`
	PayoutAccount   string              `json:"payout_account,omitempty"`
	Commissions     []models.Commission `json:"commissions"`
	Totals          []CurrencyTotal     `json:"totals"`
}

// CurrencyTotal sums amounts per currency. Payout runs are single
// currency, but a report period may span runs in different currencies.
type CurrencyTotal struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// Build groups paid commissions per affiliate. Affiliates are ordered by
// affiliate number; commissions keep the order they were fetched in.
// Commissions of unknown affiliates are grouped under a placeholder name
// so money never silently disappears from a report.
func Build(periodStart, periodEnd time.Time, commissions []models.Commission, affiliates map[uint]models.Affiliate) *Report {
	groups := make(map[uint]*Group)
	order := make([]uint, 0)

	for _, c := range commissions {
		group, ok := groups[c.AffiliateID]
		if !ok {
			group = &Group{AffiliateID: c.AffiliateID, AffiliateName: "(deleted affiliate)"}
			if affiliate, found := affiliates[c.AffiliateID]; found {
				group.AffiliateNumber = affiliate.AffiliateNumber
				group.AffiliateName = affiliate.DisplayName()
				group.PayoutMethod = affiliate.PayoutMethod
				group.PayoutAccount = affiliate.PayoutAccount
			}
			groups[c.AffiliateID] = group
			order = append(order, c.AffiliateID)
		}
		group.Commissions = append(group.Commissions, c)
	}

	report := &Report{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Affiliates:  make([]Group, 0, len(order)),
		TotalCount:  len(commissions),
	}

	grandTotals := make(map[string]float64)
	for _, id := range order {
		group := groups[id]
		perCurrency := make(map[string]float64)
		for _, c := range group.Commissions {
			perCurrency[c.Currency] += c.Amount
			grandTotals[c.Currency] += c.Amount
		}
		group.Totals = sortedTotals(perCurrency)
		report.Affiliates = append(report.Affiliates, *group)
	}
	report.Totals = sortedTotals(grandTotals)

	sort.Slice(report.Affiliates, func(i, j int) bool {
		return report.Affiliates[i].AffiliateNumber < report.Affiliates[j].AffiliateNumber
	})

	return report
}

func sortedTotals(perCurrency map[string]float64) []CurrencyTotal {
	totals := make([]CurrencyTotal, 0, len(perCurrency))
	for currency, amount := range perCurrency {
		totals = append(totals, CurrencyTotal{Currency: currency, Amount: models.RoundCents(amount)})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })
	return totals
}
