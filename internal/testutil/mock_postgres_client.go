package testutil

import (
	"context"

	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient is a mock implementation of postgres client for testing.
// It counts transactions so tests can assert a flow ran inside one.
type MockPostgresClient struct {
	logger *logger.Logger
	txs    int
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.txs++
	return fn(ctx)
}

// TxCount returns how many transactions were opened
func (c *MockPostgresClient) TxCount() int {
	return c.txs
}
