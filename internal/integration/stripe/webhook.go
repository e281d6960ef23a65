package stripe

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Stripe webhook event types we act on
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventInvoicePaid            = "invoice.paid"
	EventInvoicePaymentFailed   = "invoice.payment_failed"
)

// webhookInvoice reads the subscription id from both the legacy top level
// field and the parent.subscription_details block of newer API versions
type webhookInvoice struct {
	ID           string          `json:"id"`
	Subscription json.RawMessage `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
	PeriodEnd int64 `json:"period_end"`
	Lines     *struct {
		Data []struct {
			Period struct {
				Start int64 `json:"start"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

// billedPeriodStart is the start of the period the invoice charges for. Line
// periods name it directly. The invoice level period_start trails by one
// cycle on renewals, so the fallback is period_end, which is the renewal date.
func (i *webhookInvoice) billedPeriodStart() *time.Time {
	if i.Lines != nil {
		for _, line := range i.Lines.Data {
			if line.Period.Start > 0 {
				return lo.ToPtr(time.Unix(line.Period.Start, 0).UTC())
			}
		}
	}
	if i.PeriodEnd > 0 {
		return lo.ToPtr(time.Unix(i.PeriodEnd, 0).UTC())
	}
	return nil
}

func (i *webhookInvoice) subscriptionID() string {
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil && i.Parent.SubscriptionDetails.Subscription != "" {
		return i.Parent.SubscriptionDetails.Subscription
	}
	if len(i.Subscription) == 0 {
		return ""
	}

	var id string
	if err := json.Unmarshal(i.Subscription, &id); err == nil {
		return id
	}
	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(i.Subscription, &expanded); err == nil {
		return expanded.ID
	}
	return ""
}

// ParseWebhook normalizes a Stripe event payload
func ParseWebhook(payload []byte) (*base.WebhookEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid Stripe webhook payload").
			Mark(ierr.ErrValidation)
	}

	normalized := &base.WebhookEvent{
		Kind:      types.WebhookEventIgnored,
		EventType: string(event.Type),
	}
	if event.Data == nil {
		return normalized, nil
	}

	switch string(event.Type) {
	case EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid Stripe payment intent payload").
				Mark(ierr.ErrValidation)
		}
		normalized.Kind = types.WebhookEventPaymentCompleted
		normalized.TransactionID = pi.ID
		normalized.ReferenceID = pi.Metadata[MetadataReferenceID]
		normalized.Paid = pi.Status == stripe.PaymentIntentStatusSucceeded

	case EventInvoicePaid, EventInvoicePaymentFailed:
		var inv webhookInvoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid Stripe invoice payload").
				Mark(ierr.ErrValidation)
		}
		subscriptionID := inv.subscriptionID()
		if subscriptionID == "" {
			return normalized, nil
		}
		normalized.SubscriptionID = subscriptionID
		normalized.TransactionID = inv.ID
		normalized.PeriodStart = inv.billedPeriodStart()
		if string(event.Type) == EventInvoicePaid {
			normalized.Kind = types.WebhookEventSubscriptionPaid
			normalized.Paid = true
		} else {
			normalized.Kind = types.WebhookEventSubscriptionPaymentFailed
			normalized.Reason = "Subscription invoice payment failed"
		}
	}

	return normalized, nil
}
