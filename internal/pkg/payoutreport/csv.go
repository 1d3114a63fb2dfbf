package payoutreport

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"affiliate_number",
	"affiliate_name",
	"payout_method",
	"payout_account",
	"commission_id",
	"order_number",
	"order_id",
	"amount",
	"currency",
	"paid_at",
}

// WriteCSV renders the report as one CSV row per paid commission,
// followed by one summary row per currency.
func WriteCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, group := range report.Affiliates {
		number := strconv.FormatUint(uint64(group.AffiliateNumber), 10)
		for _, c := range group.Commissions {
			paidAt := ""
			if c.PaidAt != nil {
				paidAt = c.PaidAt.UTC().Format(time.RFC3339)
			}
			row := []string{
				number,
				group.AffiliateName,
				group.PayoutMethod,
				group.PayoutAccount,
				strconv.FormatUint(uint64(c.ID), 10),
				c.OrderNumber,
				c.OrderID,
				strconv.FormatFloat(c.Amount, 'f', 2, 64),
				c.Currency,
				paidAt,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	for _, total := range report.Totals {
		row := []string{
			"", "total", "", "",
			"",
			"",
			"",
			strconv.FormatFloat(total.Amount, 'f', 2, 64),
			total.Currency,
			"",
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
