package service

import (
	"context"

	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
)

// WebhookService applies processor callbacks. Callbacks carry no tenant, so
// the tenant is learned from the referenced invoice or subscription.
type WebhookService interface {
	HandleWebhook(ctx context.Context, provider types.PaymentProvider, payload []byte) (*base.WebhookEvent, error)
}

type webhookService struct {
	ServiceParams
	invoiceService InvoiceService
	billingService BillingService
}

func NewWebhookService(params ServiceParams) WebhookService {
	return &webhookService{
		ServiceParams:  params,
		invoiceService: NewInvoiceService(params),
		billingService: NewBillingService(params),
	}
}

func (s *webhookService) HandleWebhook(ctx context.Context, provider types.PaymentProvider, payload []byte) (*base.WebhookEvent, error) {
	parse, err := s.IntegrationFactory.GetWebhookParser(provider)
	if err != nil {
		return nil, err
	}

	event, err := parse(payload)
	if err != nil {
		s.Logger.Warnw("failed to parse webhook payload",
			"provider", provider,
			"error", err)
		return nil, err
	}

	s.Logger.Infow("webhook received",
		"provider", provider,
		"event_type", event.EventType,
		"kind", event.Kind,
		"transaction_id", event.TransactionID,
		"reference_id", event.ReferenceID,
		"subscription_id", event.SubscriptionID)

	switch {
	case event.IsInvoiceSettlement():
		err = s.settleInvoice(ctx, provider, event)
	case event.IsSubscriptionEvent():
		err = s.billingService.ReconcileSubscriptionPayment(ctx, event)
	default:
		s.Logger.Debugw("webhook event ignored",
			"provider", provider,
			"event_type", event.EventType)
		return event, nil
	}

	if err != nil {
		s.Logger.ReconciliationInconsistency("webhook_processing_failed",
			"provider", provider,
			"event_type", event.EventType,
			"transaction_id", event.TransactionID,
			"reference_id", event.ReferenceID,
			"subscription_id", event.SubscriptionID,
			"error", err)
		return event, err
	}
	return event, nil
}

func (s *webhookService) settleInvoice(ctx context.Context, provider types.PaymentProvider, event *base.WebhookEvent) error {
	tenantID, err := s.InvoiceRepo.GetTenantID(ctx, event.ReferenceID)
	if err != nil {
		return err
	}

	ctx = types.WithSystemTenant(ctx, tenantID)
	_, err = s.invoiceService.MarkInvoiceAsPaid(ctx, event.ReferenceID, &dto.MarkInvoicePaidRequest{
		PaymentMethod:    string(provider),
		PaymentReference: event.TransactionID,
	})
	return err
}
