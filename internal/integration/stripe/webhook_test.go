package stripe

import (
	"testing"
	"time"

	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookPaymentIntentSucceeded(t *testing.T) {
	payload := `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_123",
				"object": "payment_intent",
				"status": "succeeded",
				"amount": 15000,
				"currency": "usd",
				"metadata": {"reference_id": "inv_1"}
			}
		}
	}`

	event, err := ParseWebhook([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, types.WebhookEventPaymentCompleted, event.Kind)
	assert.Equal(t, "pi_123", event.TransactionID)
	assert.Equal(t, "inv_1", event.ReferenceID)
	assert.True(t, event.Paid)
	assert.True(t, event.IsInvoiceSettlement())
}

func TestParseWebhookInvoiceEvents(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		kind         types.WebhookEventKind
		subscription string
	}{
		{
			name:         "paid with parent details",
			payload:      `{"id":"evt_2","type":"invoice.paid","data":{"object":{"id":"in_1","parent":{"subscription_details":{"subscription":"sub_1"}}}}}`,
			kind:         types.WebhookEventSubscriptionPaid,
			subscription: "sub_1",
		},
		{
			name:         "failed with legacy subscription field",
			payload:      `{"id":"evt_3","type":"invoice.payment_failed","data":{"object":{"id":"in_2","subscription":"sub_2"}}}`,
			kind:         types.WebhookEventSubscriptionPaymentFailed,
			subscription: "sub_2",
		},
		{
			name:         "expanded subscription",
			payload:      `{"id":"evt_4","type":"invoice.paid","data":{"object":{"id":"in_3","subscription":{"id":"sub_3"}}}}`,
			kind:         types.WebhookEventSubscriptionPaid,
			subscription: "sub_3",
		},
		{
			name:    "one off invoice is ignored",
			payload: `{"id":"evt_5","type":"invoice.paid","data":{"object":{"id":"in_4"}}}`,
			kind:    types.WebhookEventIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseWebhook([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, event.Kind)
			assert.Equal(t, tt.subscription, event.SubscriptionID)
		})
	}
}

func TestParseWebhookInvoiceBilledPeriod(t *testing.T) {
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
		want    *time.Time
	}{
		{
			name:    "line period wins over invoice period",
			payload: `{"id":"evt_6","type":"invoice.paid","data":{"object":{"id":"in_5","subscription":"sub_1","period_end":1775001600,"lines":{"data":[{"period":{"start":1772323200,"end":1775001600}}]}}}}`,
			want:    &march,
		},
		{
			name:    "renewal without lines uses period end",
			payload: `{"id":"evt_7","type":"invoice.payment_failed","data":{"object":{"id":"in_6","subscription":"sub_1","period_start":1769904000,"period_end":1772323200}}}`,
			want:    &march,
		},
		{
			name:    "no period",
			payload: `{"id":"evt_8","type":"invoice.paid","data":{"object":{"id":"in_7","subscription":"sub_1"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseWebhook([]byte(tt.payload))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, event.PeriodStart)
				return
			}
			require.NotNil(t, event.PeriodStart)
			assert.True(t, tt.want.Equal(*event.PeriodStart), "got %s", event.PeriodStart)
		})
	}
}

func TestParseWebhookIgnoresOtherTypes(t *testing.T) {
	event, err := ParseWebhook([]byte(`{"id":"evt_6","type":"customer.created","data":{"object":{"id":"cus_1"}}}`))
	require.NoError(t, err)
	assert.Equal(t, types.WebhookEventIgnored, event.Kind)
	assert.False(t, event.IsInvoiceSettlement())
}

func TestParseWebhookInvalidPayload(t *testing.T) {
	_, err := ParseWebhook([]byte(`[]`))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
