package email

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message is a rendered email ready for delivery
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// PastDueNotice tells a tenant that a subscription charge failed
type PastDueNotice struct {
	TenantID       string
	TenantName     string
	ToAddress      string
	SubscriptionID string
	Amount         decimal.Decimal
	Currency       string
	Reason         string
	FailedAt       time.Time
}
