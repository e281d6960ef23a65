package email

import (
	"context"

	"github.com/resend/resend-go/v2"
	"github.com/shopbench/shopbench/internal/config"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

// Sender delivers one rendered message and returns the provider message id
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// Client wraps the resend API client
type Client struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

// NewClient creates a new email client. A missing API key disables sending.
func NewClient(cfg *config.Configuration) *Client {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		return &Client{
			enabled:     false,
			fromAddress: cfg.Email.FromAddress,
		}
	}

	return &Client{
		client:      resend.NewClient(cfg.Email.APIKey),
		enabled:     true,
		fromAddress: cfg.Email.FromAddress,
		replyTo:     cfg.Email.ReplyTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the default from address
func (c *Client) GetFromAddress() string {
	return c.fromAddress
}

func (c *Client) Send(ctx context.Context, msg *Message) (string, error) {
	if !c.enabled {
		return "", ierr.NewError("email client is disabled").
			WithHint("Email delivery is not configured").
			Mark(ierr.ErrConfiguration)
	}

	from := msg.From
	if from == "" {
		from = c.fromAddress
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			WithReportableDetails(map[string]any{
				"to":      msg.To,
				"subject": msg.Subject,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return sent.Id, nil
}
