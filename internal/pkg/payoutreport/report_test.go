package payoutreport

import (
	"strings"
	"testing"
	"time"

	"github.com/RefTrackApp/RefTrack/app/models"
)

func reportFixture() (time.Time, time.Time, []models.Commission, map[uint]models.Affiliate) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	paidAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	commissions := []models.Commission{
		{ID: 11, ShopID: 1, AffiliateID: 3, OrderID: "9001", OrderNumber: "#1042", Amount: 12.50, Currency: "EUR", Status: models.COMMISSION_STATUS_PAID, PaidAt: &paidAt},
		{ID: 12, ShopID: 1, AffiliateID: 5, OrderID: "9002", OrderNumber: "#1043", Amount: 40.00, Currency: "EUR", Status: models.COMMISSION_STATUS_PAID, PaidAt: &paidAt},
		{ID: 13, ShopID: 1, AffiliateID: 3, OrderID: "9003", OrderNumber: "#1044", Amount: 7.25, Currency: "USD", Status: models.COMMISSION_STATUS_PAID, PaidAt: &paidAt},
	}
	affiliates := map[uint]models.Affiliate{
		3: {ID: 3, AffiliateNumber: 42, CompanyName: "Nord Media", Email: "nord@example.com", PayoutMethod: "paypal", PayoutAccount: "nord@example.com"},
		5: {ID: 5, AffiliateNumber: 17, FirstName: "Alba", LastName: "Blog", Email: "alba@example.com", PayoutMethod: "bank_transfer"},
	}
	return start, end, commissions, affiliates
}

func TestBuildGroupsPerAffiliate(t *testing.T) {
	start, end, commissions, affiliates := reportFixture()

	report := Build(start, end, commissions, affiliates)

	if report.TotalCount != 3 {
		t.Fatalf("expected 3 commissions in report, got %d", report.TotalCount)
	}
	if len(report.Affiliates) != 2 {
		t.Fatalf("expected 2 affiliate groups, got %d", len(report.Affiliates))
	}

	// Ordered by affiliate number: #17 before #42.
	first, second := report.Affiliates[0], report.Affiliates[1]
	if first.AffiliateNumber != 17 || second.AffiliateNumber != 42 {
		t.Fatalf("expected groups ordered 17, 42, got %d, %d", first.AffiliateNumber, second.AffiliateNumber)
	}
	if first.AffiliateName != "Alba Blog" {
		t.Errorf("expected display name Alba Blog, got %q", first.AffiliateName)
	}
	if len(second.Commissions) != 2 {
		t.Fatalf("expected 2 commissions for affiliate 42, got %d", len(second.Commissions))
	}

	wantGroupTotals := []CurrencyTotal{{Currency: "EUR", Amount: 12.50}, {Currency: "USD", Amount: 7.25}}
	if len(second.Totals) != len(wantGroupTotals) {
		t.Fatalf("expected %d currency totals, got %d", len(wantGroupTotals), len(second.Totals))
	}
	for i, want := range wantGroupTotals {
		if second.Totals[i] != want {
			t.Errorf("group total %d: expected %+v, got %+v", i, want, second.Totals[i])
		}
	}

	wantGrand := []CurrencyTotal{{Currency: "EUR", Amount: 52.50}, {Currency: "USD", Amount: 7.25}}
	for i, want := range wantGrand {
		if report.Totals[i] != want {
			t.Errorf("report total %d: expected %+v, got %+v", i, want, report.Totals[i])
		}
	}
}

func TestBuildKeepsCommissionsOfDeletedAffiliates(t *testing.T) {
	start, end, commissions, _ := reportFixture()

	report := Build(start, end, commissions[:1], map[uint]models.Affiliate{})

	if len(report.Affiliates) != 1 {
		t.Fatalf("expected 1 group, got %d", len(report.Affiliates))
	}
	group := report.Affiliates[0]
	if group.AffiliateName != "(deleted affiliate)" {
		t.Errorf("expected placeholder name, got %q", group.AffiliateName)
	}
	if group.AffiliateID != 3 || group.AffiliateNumber != 0 {
		t.Errorf("expected affiliate id 3 with number 0, got id %d number %d", group.AffiliateID, group.AffiliateNumber)
	}
	if len(report.Totals) != 1 || report.Totals[0].Amount != 12.50 {
		t.Errorf("expected the orphaned amount in the totals, got %+v", report.Totals)
	}
}

func TestBuildRoundsTotalsToCents(t *testing.T) {
	start, end, _, affiliates := reportFixture()
	commissions := []models.Commission{
		{ID: 21, AffiliateID: 3, Amount: 0.1, Currency: "EUR"},
		{ID: 22, AffiliateID: 3, Amount: 0.2, Currency: "EUR"},
	}

	report := Build(start, end, commissions, affiliates)

	if got := report.Totals[0].Amount; got != 0.3 {
		t.Errorf("expected total 0.3, got %v", got)
	}
}

func TestBuildEmptyPeriod(t *testing.T) {
	start, end, _, affiliates := reportFixture()

	report := Build(start, end, nil, affiliates)

	if report.TotalCount != 0 {
		t.Errorf("expected empty report, got %d commissions", report.TotalCount)
	}
	if len(report.Affiliates) != 0 || len(report.Totals) != 0 {
		t.Errorf("expected no groups and no totals, got %d groups, %d totals", len(report.Affiliates), len(report.Totals))
	}
}

func TestWriteCSV(t *testing.T) {
	start, end, commissions, affiliates := reportFixture()
	report := Build(start, end, commissions, affiliates)

	var buf strings.Builder
	if err := WriteCSV(&buf, report); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Header, 3 commission rows, 2 currency summary rows.
	if len(lines) != 6 {
		t.Fatalf("expected 6 CSV lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "affiliate_number,affiliate_name,payout_method,payout_account,commission_id,order_number,order_id,amount,currency,paid_at" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "17,Alba Blog,bank_transfer,,12,#1043,9002,40.00,EUR,2025-03-14T09:30:00Z" {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if lines[2] != "42,Nord Media,paypal,nord@example.com,11,#1042,9001,12.50,EUR,2025-03-14T09:30:00Z" {
		t.Errorf("unexpected second row: %s", lines[2])
	}
	if lines[4] != ",total,,,,,,52.50,EUR," {
		t.Errorf("unexpected EUR summary row: %s", lines[4])
	}
	if lines[5] != ",total,,,,,,7.25,USD," {
		t.Errorf("unexpected USD summary row: %s", lines[5])
	}
}

func TestWriteCSVEmptyReport(t *testing.T) {
	report := Build(time.Now(), time.Now(), nil, nil)

	var buf strings.Builder
	if err := WriteCSV(&buf, report); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("expected header only, got %d lines", got)
	}
}
