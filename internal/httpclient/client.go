package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopbench/shopbench/internal/config"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
)

// Request represents an HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout time.Duration
	// MaxRetries applies to connection errors and 5xx responses only.
	// Callers must send an idempotency key with anything that moves money.
	MaxRetries int
}

// DefaultClient implements the Client interface on top of go-retryablehttp
type DefaultClient struct {
	client *retryablehttp.Client
}

// NewClientConfig derives the client settings from the payment config
func NewClientConfig(cfg *config.Configuration) ClientConfig {
	return ClientConfig{
		Timeout:    cfg.Payment.RequestTimeout,
		MaxRetries: cfg.Payment.MaxRetries,
	}
}

// NewDefaultClient creates a new DefaultClient
func NewDefaultClient(cfg ClientConfig, log *logger.Logger) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil
	if log != nil {
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				log.Warnw("retrying http request", "method", req.Method, "url", req.URL.String(), "attempt", attempt)
			}
		}
	}
	// 4xx responses are final answers from the processor
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	// hand the last response back instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &DefaultClient{client: rc}
}

// Send makes an HTTP request and returns the response
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrHTTPClient)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not reach the payment processor").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not read the payment processor response").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	if resp.StatusCode >= 400 {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}
