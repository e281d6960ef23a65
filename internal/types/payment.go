package types

// PaymentStatus is the normalized outcome of a one-time charge
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) String() string {
	return string(s)
}

// RefundStatus is the normalized outcome of a refund
type RefundStatus string

const (
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusFailed    RefundStatus = "failed"
)

func (s RefundStatus) String() string {
	return string(s)
}

// IsRecordable reports whether the refund should be annotated on the invoice
func (s RefundStatus) IsRecordable() bool {
	return s == RefundStatusCompleted || s == RefundStatusPending
}

// TerminalCheckoutStatus is the normalized state of an in-person device checkout
type TerminalCheckoutStatus string

const (
	TerminalCheckoutStatusPending    TerminalCheckoutStatus = "pending"
	TerminalCheckoutStatusInProgress TerminalCheckoutStatus = "in_progress"
	TerminalCheckoutStatusCompleted  TerminalCheckoutStatus = "completed"
	TerminalCheckoutStatusCancelled  TerminalCheckoutStatus = "cancelled"
	TerminalCheckoutStatusFailed     TerminalCheckoutStatus = "failed"
)

func (s TerminalCheckoutStatus) String() string {
	return string(s)
}

// IsFinal reports whether polling can stop
func (s TerminalCheckoutStatus) IsFinal() bool {
	switch s {
	case TerminalCheckoutStatusCompleted, TerminalCheckoutStatusCancelled, TerminalCheckoutStatusFailed:
		return true
	}
	return false
}

// WebhookEventKind classifies a normalized processor callback
type WebhookEventKind string

const (
	WebhookEventPaymentCompleted          WebhookEventKind = "payment_completed"
	WebhookEventTerminalCheckoutCompleted WebhookEventKind = "terminal_checkout_completed"
	WebhookEventSubscriptionPaid          WebhookEventKind = "subscription_paid"
	WebhookEventSubscriptionPaymentFailed WebhookEventKind = "subscription_payment_failed"
	WebhookEventIgnored                   WebhookEventKind = "ignored"
)
