package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/shopbench/shopbench/internal/httpclient"
)

// MockHTTPClient implements a mock HTTP client for testing
type MockHTTPClient struct {
	mu       sync.RWMutex
	routes   map[string]MockResponse
	requests []*httpclient.Request
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string]MockResponse),
	}
}

// RegisterResponse registers a mock response for requests whose
// "METHOD url" ends with route, e.g. "POST /v2/payments"
func (m *MockHTTPClient) RegisterResponse(route string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route] = resp
}

// RegisterJSONResponse is a helper to register a JSON response
func (m *MockHTTPClient) RegisterJSONResponse(route string, statusCode int, body string) {
	m.RegisterResponse(route, MockResponse{
		StatusCode: statusCode,
		Body:       []byte(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	})
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	var matched MockResponse
	var found bool
	for route, resp := range m.routes {
		if strings.HasPrefix(route, req.Method+" ") && strings.HasSuffix(req.URL, strings.TrimPrefix(route, req.Method+" ")) {
			matched = resp
			found = true
			break
		}
	}

	if !found {
		return nil, httpclient.NewError(http.StatusNotFound, []byte(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"NOT_FOUND","detail":"Not Found"}]}`))
	}

	if matched.StatusCode >= http.StatusBadRequest {
		return nil, httpclient.NewError(matched.StatusCode, matched.Body)
	}

	return &httpclient.Response{
		StatusCode: matched.StatusCode,
		Body:       matched.Body,
		Headers:    matched.Headers,
	}, nil
}

// Requests returns every request sent so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*httpclient.Request(nil), m.requests...)
}

// Clear removes all registered responses and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string]MockResponse)
	m.requests = nil
}
