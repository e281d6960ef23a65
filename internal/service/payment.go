package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/idempotency"
	"github.com/shopbench/shopbench/internal/integration"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
)

// PaymentService is the gateway in front of the tenant's payment processor.
// Processor failures surface as ErrPaymentProcessing and are never retried here.
type PaymentService interface {
	IsPaymentConfigured(ctx context.Context) (bool, error)
	GetCurrency(ctx context.Context) string
	GetPaymentConfig(ctx context.Context) (*dto.PaymentConfigResponse, error)

	ProcessPayment(ctx context.Context, req *dto.ProcessPaymentRequest) (*dto.PaymentResultResponse, error)
	PayInvoice(ctx context.Context, invoiceID string, req *dto.PayInvoiceRequest) (*dto.PayInvoiceResponse, error)
	RefundPayment(ctx context.Context, invoiceID string, req *dto.RefundPaymentRequest) (*dto.RefundResponse, error)

	CreateTerminalCheckout(ctx context.Context, req *dto.CreateTerminalCheckoutRequest) (*dto.TerminalCheckoutResponse, error)
	GetTerminalCheckoutStatus(ctx context.Context, checkoutID string) (*dto.TerminalCheckoutResponse, error)
	// WaitForTerminalCheckout polls until the checkout is final or the poll timeout passes.
	// On timeout the last seen status is returned.
	WaitForTerminalCheckout(ctx context.Context, checkoutID string) (*dto.TerminalCheckoutResponse, error)
}

var errCheckoutNotFinal = errors.New("terminal checkout not final")

type paymentService struct {
	ServiceParams
	invoiceService InvoiceService
	pollInterval   time.Duration
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams:  params,
		invoiceService: NewInvoiceService(params),
		pollInterval:   500 * time.Millisecond,
	}
}

func (s *paymentService) IsPaymentConfigured(ctx context.Context) (bool, error) {
	if _, err := s.IntegrationFactory.GetPaymentIntegration(ctx); err != nil {
		if ierr.IsConfiguration(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *paymentService) GetCurrency(ctx context.Context) string {
	conn, err := s.IntegrationFactory.GetPaymentIntegration(ctx)
	if err != nil {
		return s.Config.Billing.Currency
	}
	return strings.ToUpper(conn.Settings.Get(types.IntegrationSettingCurrency, s.Config.Billing.Currency))
}

func (s *paymentService) GetPaymentConfig(ctx context.Context) (*dto.PaymentConfigResponse, error) {
	resp := &dto.PaymentConfigResponse{Currency: s.Config.Billing.Currency}

	conn, err := s.IntegrationFactory.GetPaymentIntegration(ctx)
	if err != nil {
		if ierr.IsConfiguration(err) {
			return resp, nil
		}
		return nil, err
	}

	resp.Configured = true
	resp.Provider = conn.Provider
	resp.Currency = strings.ToUpper(conn.Settings.Get(types.IntegrationSettingCurrency, s.Config.Billing.Currency))
	return resp, nil
}

func (s *paymentService) resolveCurrency(resolved *integration.ResolvedProvider, requested string) string {
	if requested != "" {
		return strings.ToUpper(requested)
	}
	return strings.ToUpper(resolved.Integration.Settings.Get(types.IntegrationSettingCurrency, s.Config.Billing.Currency))
}

func (s *paymentService) ProcessPayment(ctx context.Context, req *dto.ProcessPaymentRequest) (*dto.PaymentResultResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.IntegrationFactory.GetPaymentProvider(ctx)
	if err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = types.GenerateUUID()
	}

	result, err := s.charge(ctx, resolved.Provider, &base.ChargeParams{
		Amount:         req.Amount,
		Currency:       s.resolveCurrency(resolved, req.Currency),
		SourceID:       req.SourceID,
		CustomerID:     req.CustomerID,
		ReferenceID:    req.ReferenceID,
		Note:           req.Note,
		Metadata:       req.Metadata,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewPaymentResultResponse(result), nil
}

// charge runs a charge and treats a declined result like a processor error
func (s *paymentService) charge(ctx context.Context, provider base.PaymentProvider, params *base.ChargeParams) (*base.ChargeResult, error) {
	result, err := provider.Charge(ctx, params)
	if err != nil {
		s.Logger.Warnw("payment failed",
			"tenant_id", types.GetTenantID(ctx),
			"provider", provider.Name(),
			"reference_id", params.ReferenceID,
			"error", err)
		return nil, wrapProviderError(err, "charge")
	}

	if result.Status == types.PaymentStatusFailed || result.Status == types.PaymentStatusCancelled {
		return nil, ierr.NewErrorf("payment %s", result.Status).
			WithHint("The payment was declined").
			WithReportableDetails(map[string]any{
				"transaction_id": result.TransactionID,
				"status":         result.Status,
			}).
			Mark(ierr.ErrPaymentProcessing)
	}

	s.Logger.Infow("payment processed",
		"tenant_id", types.GetTenantID(ctx),
		"provider", provider.Name(),
		"transaction_id", result.TransactionID,
		"status", result.Status,
		"amount", result.Amount.String(),
		"currency", result.Currency)

	return result, nil
}

func (s *paymentService) PayInvoice(ctx context.Context, invoiceID string, req *dto.PayInvoiceRequest) (*dto.PayInvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.IntegrationFactory.GetPaymentProvider(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if !inv.InvoiceStatus.IsPayable() {
		return nil, ierr.NewErrorf("invoice is %s", inv.InvoiceStatus).
			WithHintf("Invoice is already %s", inv.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
				"status":     inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if !inv.TotalAmount.IsPositive() {
		return nil, ierr.NewError("invoice has nothing to pay").
			WithHint("Invoice total must be greater than zero").
			Mark(ierr.ErrInvalidOperation)
	}

	keySource := req.IdempotencyKey
	if keySource == "" {
		keySource = req.SourceID
	}

	currency := inv.Currency
	if currency == "" {
		currency = s.resolveCurrency(resolved, "")
	}

	result, err := s.charge(ctx, resolved.Provider, &base.ChargeParams{
		Amount:      inv.TotalAmount,
		Currency:    strings.ToUpper(currency),
		SourceID:    req.SourceID,
		CustomerID:  req.CustomerID,
		ReferenceID: inv.ID,
		Note:        req.Note,
		Metadata: map[string]string{
			"invoice_id": inv.ID,
			"tenant_id":  inv.TenantID,
		},
		IdempotencyKey: s.IdempotencyKeys.GenerateKey(idempotency.ScopeInvoicePayment, map[string]interface{}{
			"invoice_id": inv.ID,
			"key":        keySource,
		}),
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.PayInvoiceResponse{Payment: dto.NewPaymentResultResponse(result)}

	// pending charges are settled by the processor webhook
	if result.Status != types.PaymentStatusCompleted {
		resp.Invoice = dto.NewInvoiceResponse(inv)
		return resp, nil
	}

	paid, err := s.invoiceService.MarkInvoiceAsPaid(ctx, inv.ID, &dto.MarkInvoicePaidRequest{
		PaymentMethod:    string(resolved.Provider.Name()),
		PaymentReference: result.TransactionID,
	})
	if err != nil {
		s.Logger.ReconciliationInconsistency("invoice_payment_not_recorded",
			"tenant_id", inv.TenantID,
			"invoice_id", inv.ID,
			"transaction_id", result.TransactionID,
			"error", err)
		return nil, err
	}

	resp.Invoice = paid
	return resp, nil
}

func (s *paymentService) RefundPayment(ctx context.Context, invoiceID string, req *dto.RefundPaymentRequest) (*dto.RefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.IntegrationFactory.GetPaymentProvider(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusPaid || lo.FromPtr(inv.PaymentReference) == "" {
		return nil, ierr.NewError("invoice has no payment to refund").
			WithHint("Only paid invoices with a processor payment can be refunded").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
				"status":     inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	refundable := inv.RefundableAmount()
	if !refundable.IsPositive() {
		return nil, ierr.NewError("invoice already fully refunded").
			WithHint("This invoice has already been fully refunded").
			Mark(ierr.ErrInvalidOperation)
	}

	amount := refundable
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.GreaterThan(refundable) {
		return nil, ierr.NewError("refund exceeds refundable amount").
			WithHintf("Refund amount cannot exceed %s", refundable.StringFixed(2)).
			WithReportableDetails(map[string]any{
				"requested":  amount.String(),
				"refundable": refundable.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = s.IdempotencyKeys.GenerateKey(idempotency.ScopeRefund, map[string]interface{}{
			"invoice_id":      inv.ID,
			"amount":          amount.String(),
			"refunded_before": inv.RefundedAmount.String(),
		})
	}

	result, err := resolved.Provider.Refund(ctx, &base.RefundParams{
		TransactionID:  *inv.PaymentReference,
		Amount:         amount,
		Currency:       strings.ToUpper(inv.Currency),
		Reason:         req.Reason,
		IdempotencyKey: key,
	})
	if err != nil {
		s.Logger.Warnw("refund failed",
			"tenant_id", inv.TenantID,
			"invoice_id", inv.ID,
			"error", err)
		return nil, wrapProviderError(err, "refund")
	}

	if result.Status == types.RefundStatusFailed {
		return nil, ierr.NewError("refund failed").
			WithHint("The payment processor rejected the refund").
			WithReportableDetails(map[string]any{
				"refund_id": result.RefundID,
			}).
			Mark(ierr.ErrPaymentProcessing)
	}

	refunded := result.Amount
	if refunded.IsZero() {
		refunded = amount
	}

	resp := &dto.RefundResponse{
		RefundID: result.RefundID,
		Status:   result.Status,
		Amount:   refunded,
		Currency: result.Currency,
	}
	if resp.Currency == "" {
		resp.Currency = strings.ToUpper(inv.Currency)
	}

	if !result.Status.IsRecordable() {
		return resp, nil
	}

	// the processor refund stands even when the invoice annotation fails
	_, err = s.invoiceService.RecordRefund(ctx, inv.ID, &dto.RecordRefundRequest{
		Amount:   refunded,
		RefundID: result.RefundID,
	})
	if err != nil {
		s.Logger.ReconciliationInconsistency("refund_not_recorded",
			"tenant_id", inv.TenantID,
			"invoice_id", inv.ID,
			"refund_id", result.RefundID,
			"amount", refunded.String(),
			"error", err)
		return resp, nil
	}

	resp.Recorded = true
	return resp, nil
}

func (s *paymentService) CreateTerminalCheckout(ctx context.Context, req *dto.CreateTerminalCheckoutRequest) (*dto.TerminalCheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.IntegrationFactory.GetPaymentProvider(ctx)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if req.InvoiceID != "" {
		inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
		if err != nil {
			return nil, err
		}
		if !inv.InvoiceStatus.IsPayable() {
			return nil, ierr.NewErrorf("invoice is %s", inv.InvoiceStatus).
				WithHintf("Invoice is already %s", inv.InvoiceStatus).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = resolved.Integration.Settings.Get(types.IntegrationSettingDeviceID, "")
	}

	key := req.IdempotencyKey
	if key == "" {
		key = s.IdempotencyKeys.GenerateKey(idempotency.ScopeTerminalCheckout, map[string]interface{}{
			"invoice_id": req.InvoiceID,
			"device_id":  deviceID,
			"amount":     amount.String(),
			"request_id": types.GetRequestID(ctx),
		})
	}

	result, err := resolved.Provider.CreateTerminalCheckout(ctx, &base.TerminalCheckoutParams{
		Amount:         amount,
		Currency:       s.resolveCurrency(resolved, req.Currency),
		DeviceID:       deviceID,
		ReferenceID:    req.InvoiceID,
		Note:           req.Note,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, wrapProviderError(err, "create_terminal_checkout")
	}

	s.Logger.Infow("terminal checkout created",
		"tenant_id", types.GetTenantID(ctx),
		"checkout_id", result.CheckoutID,
		"invoice_id", req.InvoiceID,
		"device_id", deviceID)

	return dto.NewTerminalCheckoutResponse(result), nil
}

func (s *paymentService) GetTerminalCheckoutStatus(ctx context.Context, checkoutID string) (*dto.TerminalCheckoutResponse, error) {
	resolved, err := s.IntegrationFactory.GetPaymentProvider(ctx)
	if err != nil {
		return nil, err
	}

	result, err := resolved.Provider.GetTerminalCheckoutStatus(ctx, checkoutID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, err
		}
		return nil, wrapProviderError(err, "get_terminal_checkout")
	}
	return dto.NewTerminalCheckoutResponse(result), nil
}

func (s *paymentService) WaitForTerminalCheckout(ctx context.Context, checkoutID string) (*dto.TerminalCheckoutResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.pollInterval
	b.MaxInterval = 10 * s.pollInterval
	b.MaxElapsedTime = s.Config.Payment.TerminalPollTimeout

	var last *dto.TerminalCheckoutResponse
	operation := func() error {
		status, err := s.GetTerminalCheckoutStatus(ctx, checkoutID)
		if err != nil {
			if ierr.IsNotFound(err) || ierr.IsConfiguration(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		last = status
		if !status.Status.IsFinal() {
			return errCheckoutNotFinal
		}
		return nil
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		s.Logger.Debugw("terminal checkout not final, polling again",
			"checkout_id", checkoutID,
			"wait", wait,
			"reason", err)
	})
	if err != nil && !errors.Is(err, errCheckoutNotFinal) {
		if last == nil {
			return nil, err
		}
		s.Logger.Warnw("terminal checkout polling stopped",
			"checkout_id", checkoutID,
			"error", err)
	}
	return last, nil
}
