package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordPageViewKeepsBounceFlagConsistent(t *testing.T) {
	start := time.Now()
	s := &VisitorSession{StartTime: start}

	s.RecordPageView("/products/widget", start)
	assert.Equal(t, 1, s.PageViews)
	assert.True(t, s.IsBounce)
	assert.Equal(t, "/products/widget", s.EntryPage)
	assert.Equal(t, "/products/widget", s.ExitPage)
	assert.Nil(t, s.TotalTime)

	s.RecordPageView("/cart", start.Add(45*time.Second))
	assert.Equal(t, 2, s.PageViews)
	assert.False(t, s.IsBounce)
	assert.Equal(t, "/products/widget", s.EntryPage)
	assert.Equal(t, "/cart", s.ExitPage)
	if assert.NotNil(t, s.TotalTime) {
		assert.Equal(t, 45, *s.TotalTime)
	}

	assert.Equal(t, StringSlice{"/products/widget", "/cart"}, s.PagesVisited)
}

func TestAttributeIsImmutableOnceSet(t *testing.T) {
	s := &VisitorSession{}
	assert.False(t, s.IsAttributed())

	assert.True(t, s.Attribute(7))
	assert.True(t, s.IsAttributed())
	assert.Equal(t, uint(7), *s.AffiliateID)

	// a second attribution attempt must not overwrite the first
	assert.False(t, s.Attribute(9))
	assert.Equal(t, uint(7), *s.AffiliateID)
}

func TestCurrentPageFallsBackToEntryPage(t *testing.T) {
	s := &VisitorSession{EntryPage: "/"}
	assert.Equal(t, "/", s.CurrentPage())

	s.RecordPageView("/pricing", time.Now())
	assert.Equal(t, "/pricing", s.CurrentPage())
}

func TestAffiliateDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		affiliate Affiliate
		want      string
	}{
		{"company wins", Affiliate{CompanyName: "Acme Media", FirstName: "Jo", LastName: "Doe", Email: "jo@acme.test"}, "Acme Media"},
		{"personal name", Affiliate{FirstName: "Jo", LastName: "Doe", Email: "jo@acme.test"}, "Jo Doe"},
		{"first name only", Affiliate{FirstName: "Jo", Email: "jo@acme.test"}, "Jo"},
		{"email fallback", Affiliate{Email: "jo@acme.test"}, "jo@acme.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.affiliate.DisplayName()
			if got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
