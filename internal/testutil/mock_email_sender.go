package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopbench/shopbench/internal/email"
)

var _ email.Sender = (*MockEmailSender)(nil)

// MockEmailSender records messages instead of delivering them
type MockEmailSender struct {
	mu       sync.Mutex
	messages []*email.Message

	// Err is returned from every Send when set
	Err error
}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

func (m *MockEmailSender) Send(_ context.Context, msg *email.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	m.messages = append(m.messages, msg)
	return fmt.Sprintf("email_%d", len(m.messages)), nil
}

// Messages returns a copy of the sent messages
func (m *MockEmailSender) Messages() []*email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*email.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *MockEmailSender) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.Err = nil
}
