package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarMonthPeriod(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid month",
			at:        time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "leap february",
			at:        time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "december rolls into next year",
			at:        time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "non utc input is normalized",
			at:        time.Date(2024, 5, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60)),
			wantStart: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalendarMonthPeriod(tt.at)
			assert.True(t, tt.wantStart.Equal(got.Start), "start = %v", got.Start)
			assert.True(t, tt.wantEnd.Equal(got.End), "end = %v", got.End)
			assert.True(t, got.Contains(tt.at))
		})
	}
}

func TestBillingPeriodContains(t *testing.T) {
	p := CalendarMonthPeriod(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

	assert.True(t, p.Contains(p.Start))
	assert.True(t, p.Contains(p.End))
	assert.False(t, p.Contains(p.Start.Add(-time.Second)))
	assert.False(t, p.Contains(p.End.Add(time.Second)))
}

func TestValidateBillingDay(t *testing.T) {
	assert.False(t, ValidateBillingDay(0))
	assert.True(t, ValidateBillingDay(1))
	assert.True(t, ValidateBillingDay(31))
	assert.False(t, ValidateBillingDay(32))
}

func TestSubscriptionStatusIsBillable(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.IsBillable())
	assert.True(t, SubscriptionStatusPending.IsBillable())
	assert.False(t, SubscriptionStatusPastDue.IsBillable())
	assert.False(t, SubscriptionStatusCancelled.IsBillable())
	assert.False(t, SubscriptionStatusNone.IsBillable())

	assert.Error(t, SubscriptionStatus("trialing").Validate())
	assert.NoError(t, SubscriptionStatusPastDue.Validate())
}

func TestBillingHistoryFilterValidate(t *testing.T) {
	f := &BillingHistoryFilter{}
	assert.NoError(t, f.Validate())
	assert.NotNil(t, f.QueryFilter)

	bad := SubscriptionPaymentStatus("refunded")
	f.Status = &bad
	assert.Error(t, f.Validate())
}
