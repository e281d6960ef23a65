package stripe

import (
	"errors"
	"net/http"

	"github.com/shopbench/shopbench/internal/domain/integration"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Client wraps a stripe-go client bound to one tenant's secret key
type Client struct {
	api    *stripe.Client
	logger *logger.Logger
}

// NewClient creates a Stripe client from decrypted credentials
func NewClient(creds *integration.Credentials, logger *logger.Logger, opts ...stripe.ClientOption) (*Client, error) {
	if creds == nil || creds.AccessToken == "" {
		return nil, ierr.NewError("missing Stripe secret key").
			WithHint("Configure the Stripe secret key in the payment integration").
			Mark(ierr.ErrConfiguration)
	}

	return &Client{
		api:    stripe.NewClient(creds.AccessToken, opts...),
		logger: logger,
	}, nil
}

// translateError maps a stripe-go error onto our error taxonomy
func (c *Client) translateError(err error, operation string) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		c.logger.Errorw("stripe API request failed", "error", err, "operation", operation)
		return ierr.WithError(err).
			WithHint("Could not reach Stripe").
			Mark(ierr.ErrHTTPClient)
	}

	detail := stripeErr.Msg
	if detail == "" {
		detail = "Stripe rejected the request"
	}

	c.logger.Warnw("stripe API returned error",
		"operation", operation,
		"status_code", stripeErr.HTTPStatusCode,
		"code", stripeErr.Code,
		"type", stripeErr.Type)

	built := ierr.WithError(err).
		WithMessagef("stripe: %s", operation).
		WithHint(detail).
		WithReportableDetails(map[string]interface{}{
			"provider":    types.PaymentProviderStripe,
			"status_code": stripeErr.HTTPStatusCode,
			"code":        stripeErr.Code,
		})

	switch stripeErr.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return built.Mark(ierr.ErrConfiguration)
	case http.StatusNotFound:
		return built.Mark(ierr.ErrNotFound)
	default:
		return built.Mark(ierr.ErrPaymentProcessing)
	}
}
