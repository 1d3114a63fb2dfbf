package fraudcheck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/attribution"
)

type fakeRepo struct {
	recentCount   int64
	sinceReceived time.Time
	flags         []*models.FraudFlag
}

func (f *fakeRepo) CountByAffiliateSince(shopID, affiliateID uint, since time.Time) (int64, error) {
	f.sinceReceived = since
	return f.recentCount, nil
}

func (f *fakeRepo) CreateFlag(flag *models.FraudFlag) error {
	flag.ID = uint(len(f.flags) + 1)
	f.flags = append(f.flags, flag)
	return nil
}

func screenFixture() (*models.Commission, *attribution.OrderEvent, *models.Affiliate) {
	commission := &models.Commission{
		ID:          7,
		ShopID:      1,
		AffiliateID: 3,
		Amount:      10,
		Currency:    "USD",
		Status:      models.COMMISSION_STATUS_PENDING,
	}
	order := &attribution.OrderEvent{
		OrderID:       "1001",
		OrderNumber:   "1001",
		Total:         50,
		Currency:      "USD",
		CustomerEmail: "buyer@example.com",
	}
	affiliate := &models.Affiliate{
		ID:              3,
		ShopID:          1,
		AffiliateNumber: 42,
		Email:           "nord@example.com",
		Status:          models.AFFILIATE_STATUS_ACTIVE,
	}
	return commission, order, affiliate
}

func TestScreenCleanCommission(t *testing.T) {
	repo := &fakeRepo{recentCount: 1}
	checker := NewChecker(repo, DefaultConfig())

	commission, order, affiliate := screenFixture()
	flags, err := checker.Screen(context.Background(), commission, order, affiliate)

	require.NoError(t, err)
	assert.Empty(t, flags)
	assert.Empty(t, repo.flags)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), repo.sinceReceived, 5*time.Second)
}

func TestScreenFlagsSelfPurchase(t *testing.T) {
	repo := &fakeRepo{recentCount: 1}
	checker := NewChecker(repo, DefaultConfig())

	commission, order, affiliate := screenFixture()
	order.CustomerEmail = "  Nord@Example.COM "

	flags, err := checker.Screen(context.Background(), commission, order, affiliate)

	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, models.FRAUD_FLAG_SELF_PURCHASE, flags[0].FlagType)
	assert.Equal(t, ScoreSelfPurchase, flags[0].Score)
	assert.Equal(t, uint(1), flags[0].ShopID)
	assert.Equal(t, uint(7), flags[0].CommissionID)
	assert.False(t, flags[0].Resolved)
	require.Len(t, repo.flags, 1)
}

func TestScreenSelfPurchaseIgnoresEmptyEmails(t *testing.T) {
	repo := &fakeRepo{recentCount: 1}
	checker := NewChecker(repo, DefaultConfig())

	commission, order, affiliate := screenFixture()
	order.CustomerEmail = ""
	affiliate.Email = ""

	flags, err := checker.Screen(context.Background(), commission, order, affiliate)

	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestScreenFlagsVelocity(t *testing.T) {
	repo := &fakeRepo{recentCount: 5}
	checker := NewChecker(repo, DefaultConfig())

	commission, order, affiliate := screenFixture()
	flags, err := checker.Screen(context.Background(), commission, order, affiliate)

	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, models.FRAUD_FLAG_VELOCITY, flags[0].FlagType)
	assert.Equal(t, ScoreVelocity, flags[0].Score)
	assert.Contains(t, flags[0].Reason, "5 commissions")
}

func TestScreenVelocityRespectsConfiguredThreshold(t *testing.T) {
	repo := &fakeRepo{recentCount: 5}
	checker := NewChecker(repo, Config{VelocityThreshold: 6, MaxPlausibleTotal: 10000})

	commission, order, affiliate := screenFixture()
	flags, err := checker.Screen(context.Background(), commission, order, affiliate)

	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestScreenFlagsOrderValue(t *testing.T) {
	cases := []struct {
		name  string
		total float64
	}{
		{"zero total", 0},
		{"negative total", -12.50},
		{"implausibly large total", 25000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{recentCount: 1}
			checker := NewChecker(repo, DefaultConfig())

			commission, order, affiliate := screenFixture()
			order.Total = tc.total

			flags, err := checker.Screen(context.Background(), commission, order, affiliate)

			require.NoError(t, err)
			require.Len(t, flags, 1)
			assert.Equal(t, models.FRAUD_FLAG_ORDER_VALUE, flags[0].FlagType)
			assert.Equal(t, ScoreOrderValue, flags[0].Score)
		})
	}
}

func TestScreenStacksIndependentRules(t *testing.T) {
	repo := &fakeRepo{recentCount: 9}
	checker := NewChecker(repo, DefaultConfig())

	commission, order, affiliate := screenFixture()
	order.CustomerEmail = affiliate.Email
	order.Total = 99999

	flags, err := checker.Screen(context.Background(), commission, order, affiliate)

	require.NoError(t, err)
	require.Len(t, flags, 3)
	types := []string{flags[0].FlagType, flags[1].FlagType, flags[2].FlagType}
	assert.Equal(t, []string{
		models.FRAUD_FLAG_SELF_PURCHASE,
		models.FRAUD_FLAG_VELOCITY,
		models.FRAUD_FLAG_ORDER_VALUE,
	}, types)
	assert.Len(t, repo.flags, 3)
	for _, flag := range repo.flags {
		assert.Equal(t, uint(7), flag.CommissionID)
	}
}
