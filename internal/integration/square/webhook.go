package square

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
)

// Square webhook event types we act on
const (
	EventPaymentCreated          = "payment.created"
	EventPaymentUpdated          = "payment.updated"
	EventTerminalCheckoutUpdated = "terminal.checkout.updated"
	EventInvoicePaymentMade      = "invoice.payment_made"
	EventInvoiceChargeFailed     = "invoice.scheduled_charge_failed"
)

type webhookEnvelope struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	Data    struct {
		Type   string        `json:"type"`
		ID     string        `json:"id"`
		Object webhookObject `json:"object"`
	} `json:"data"`
}

type webhookObject struct {
	Payment  *Payment          `json:"payment,omitempty"`
	Checkout *TerminalCheckout `json:"checkout,omitempty"`
	Invoice  *webhookInvoice   `json:"invoice,omitempty"`
}

type webhookInvoice struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	SubscriptionID  string `json:"subscription_id"`
	ScheduledAt     string `json:"scheduled_at"`
	PaymentRequests []struct {
		DueDate string `json:"due_date"`
	} `json:"payment_requests"`
}

// billedPeriodStart is the date the subscription invoice was due, which
// falls in the period it bills. scheduled_at covers invoices without a
// payment request.
func (i *webhookInvoice) billedPeriodStart() *time.Time {
	for _, req := range i.PaymentRequests {
		if due, err := time.Parse(time.DateOnly, req.DueDate); err == nil {
			return lo.ToPtr(due.UTC())
		}
	}
	if at, err := time.Parse(time.RFC3339, i.ScheduledAt); err == nil {
		return lo.ToPtr(at.UTC())
	}
	return nil
}

// ParseWebhook normalizes a Square webhook payload. Event types we do not
// act on come back as WebhookEventIgnored rather than an error.
func ParseWebhook(payload []byte) (*base.WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid Square webhook payload").
			Mark(ierr.ErrValidation)
	}

	event := &base.WebhookEvent{
		Kind:      types.WebhookEventIgnored,
		EventType: env.Type,
	}

	obj := env.Data.Object
	switch env.Type {
	case EventPaymentCreated, EventPaymentUpdated:
		if obj.Payment == nil {
			return event, nil
		}
		event.Kind = types.WebhookEventPaymentCompleted
		event.TransactionID = obj.Payment.ID
		event.ReferenceID = obj.Payment.ReferenceID
		event.Paid = obj.Payment.Status == "COMPLETED"

	case EventTerminalCheckoutUpdated:
		if obj.Checkout == nil {
			return event, nil
		}
		event.Kind = types.WebhookEventTerminalCheckoutCompleted
		event.ReferenceID = obj.Checkout.ReferenceID
		event.Paid = obj.Checkout.Status == "COMPLETED"
		if len(obj.Checkout.PaymentIDs) > 0 {
			event.TransactionID = obj.Checkout.PaymentIDs[0]
		}

	case EventInvoicePaymentMade, EventInvoiceChargeFailed:
		if obj.Invoice == nil || obj.Invoice.SubscriptionID == "" {
			return event, nil
		}
		event.SubscriptionID = obj.Invoice.SubscriptionID
		event.TransactionID = obj.Invoice.ID
		event.PeriodStart = obj.Invoice.billedPeriodStart()
		if env.Type == EventInvoicePaymentMade {
			event.Kind = types.WebhookEventSubscriptionPaid
			event.Paid = true
		} else {
			event.Kind = types.WebhookEventSubscriptionPaymentFailed
			event.Reason = "Scheduled subscription charge failed"
		}
	}

	return event, nil
}
