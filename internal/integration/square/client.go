package square

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/domain/integration"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/httpclient"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/types"
)

// Client talks to the Square REST API with one tenant's access token
type Client struct {
	httpClient  httpclient.Client
	baseURL     string
	version     string
	accessToken string
	locationID  string
	logger      *logger.Logger
}

// NewClient builds a client for the environment named in the credentials
func NewClient(
	httpClient httpclient.Client,
	cfg config.PaymentConfig,
	creds *integration.Credentials,
	logger *logger.Logger,
) (*Client, error) {
	if creds == nil || creds.AccessToken == "" {
		return nil, ierr.NewError("missing Square access token").
			WithHint("Configure the Square access token in the payment integration").
			Mark(ierr.ErrConfiguration)
	}

	baseURL := cfg.SquareBaseURL
	if creds.Environment == types.ProcessorEnvironmentSandbox {
		baseURL = cfg.SquareSandboxBaseURL
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		version:     cfg.SquareVersion,
		accessToken: creds.AccessToken,
		locationID:  creds.LocationID,
		logger:      logger,
	}, nil
}

// LocationID returns the Square location charges are attributed to
func (c *Client) LocationID() string {
	return c.locationID
}

// makeRequest sends a request to Square and decodes the JSON response
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body interface{}, response interface{}) error {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Invalid request data").
				Mark(ierr.ErrSystem)
		}
	}

	httpReq := &httpclient.Request{
		Method: method,
		URL:    fullURL,
		Headers: map[string]string{
			"Authorization":  "Bearer " + c.accessToken,
			"Square-Version": c.version,
			"Accept":         "application/json",
		},
		Body: jsonBody,
	}

	resp, err := c.httpClient.Send(ctx, httpReq)
	if err != nil {
		return c.translateError(err, method, endpoint)
	}

	if response != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, response); err != nil {
			c.logger.Errorw("failed to unmarshal square response", "error", err, "endpoint", endpoint)
			return ierr.WithError(err).
				WithHint("Invalid response from Square").
				Mark(ierr.ErrHTTPClient)
		}
	}

	return nil
}

func (c *Client) translateError(err error, method, endpoint string) error {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok {
		c.logger.Errorw("square API request failed",
			"error", err,
			"method", method,
			"endpoint", endpoint)
		return err
	}

	var envelope errorResponse
	_ = json.Unmarshal(httpErr.Response, &envelope)

	detail := fmt.Sprintf("Square returned status %d", httpErr.StatusCode)
	codes := make([]string, 0, len(envelope.Errors))
	for i, e := range envelope.Errors {
		if i == 0 && e.Detail != "" {
			detail = e.Detail
		}
		codes = append(codes, e.Code)
	}

	c.logger.Warnw("square API returned error",
		"status_code", httpErr.StatusCode,
		"method", method,
		"endpoint", endpoint,
		"codes", codes)

	built := ierr.WithError(err).
		WithMessagef("square: %s", detail).
		WithHint(detail).
		WithReportableDetails(map[string]interface{}{
			"provider":    types.PaymentProviderSquare,
			"status_code": httpErr.StatusCode,
			"codes":       codes,
		})

	switch httpErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return built.Mark(ierr.ErrConfiguration)
	case http.StatusNotFound:
		return built.Mark(ierr.ErrNotFound)
	default:
		return built.Mark(ierr.ErrPaymentProcessing)
	}
}
