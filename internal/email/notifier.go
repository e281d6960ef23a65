package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopbench/shopbench/internal/logger"
)

// Notifier sends billing notices to tenants
type Notifier interface {
	SendPastDueNotice(ctx context.Context, notice *PastDueNotice) error
}

const pastDueSubject = "Action required: your subscription payment failed"

const pastDueTemplate = `<p>Hello {{tenant_name}},</p>
<p>We could not collect your monthly subscription payment of <strong>{{amount}} {{currency}}</strong>.</p>
<p>Reason: {{reason}}</p>
<p>Please update your card in billing settings to keep your account active.</p>`

const pastDueText = `Hello {{tenant_name}},

We could not collect your monthly subscription payment of {{amount}} {{currency}}.
Reason: {{reason}}

Please update your card in billing settings to keep your account active.`

type notifier struct {
	sender  Sender
	enabled bool
	logger  *logger.Logger
}

// NewNotifier creates a notifier on top of the resend client
func NewNotifier(client *Client, logger *logger.Logger) Notifier {
	return &notifier{
		sender:  client,
		enabled: client.IsEnabled(),
		logger:  logger,
	}
}

// NewNotifierWithSender is used by tests to capture outgoing messages
func NewNotifierWithSender(sender Sender, logger *logger.Logger) Notifier {
	return &notifier{
		sender:  sender,
		enabled: true,
		logger:  logger,
	}
}

func (n *notifier) SendPastDueNotice(ctx context.Context, notice *PastDueNotice) error {
	if !n.enabled {
		n.logger.Warnw("email client is disabled, skipping past due notice",
			"tenant_id", notice.TenantID,
			"subscription_id", notice.SubscriptionID,
		)
		return nil
	}

	if notice.ToAddress == "" {
		n.logger.Warnw("tenant has no billing email, skipping past due notice",
			"tenant_id", notice.TenantID,
			"subscription_id", notice.SubscriptionID,
		)
		return nil
	}

	data := map[string]interface{}{
		"tenant_name": notice.TenantName,
		"amount":      notice.Amount.StringFixed(2),
		"currency":    notice.Currency,
		"reason":      notice.Reason,
	}

	messageID, err := n.sender.Send(ctx, &Message{
		To:      notice.ToAddress,
		Subject: pastDueSubject,
		HTML:    replacePlaceholders(pastDueTemplate, data),
		Text:    replacePlaceholders(pastDueText, data),
	})
	if err != nil {
		return err
	}

	n.logger.Infow("past due notice sent",
		"message_id", messageID,
		"tenant_id", notice.TenantID,
		"subscription_id", notice.SubscriptionID,
	)
	return nil
}

// replacePlaceholders replaces {{key}} placeholders in the template with data
func replacePlaceholders(template string, data map[string]interface{}) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
	}
	return result
}
