package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg *Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func TestSendPastDueNoticeRendersTemplate(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *Message) bool {
		return msg.To == "owner@acme.test" &&
			msg.Subject == pastDueSubject &&
			strings.Contains(msg.HTML, "<strong>150.00 USD</strong>") &&
			strings.Contains(msg.Text, "Hello Acme Repair") &&
			strings.Contains(msg.Text, "Reason: Card declined")
	})).Return("msg_1", nil).Once()

	n := NewNotifierWithSender(sender, logger.NewNoopLogger())
	err := n.SendPastDueNotice(context.Background(), &PastDueNotice{
		TenantID:   "tenant_1",
		TenantName: "Acme Repair",
		ToAddress:  "owner@acme.test",
		Amount:     decimal.NewFromInt(150),
		Currency:   "USD",
		Reason:     "Card declined",
	})

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestSendPastDueNoticeWithoutAddressIsSkipped(t *testing.T) {
	sender := &mockSender{}
	n := NewNotifierWithSender(sender, logger.NewNoopLogger())

	err := n.SendPastDueNotice(context.Background(), &PastDueNotice{TenantID: "tenant_1"})

	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendPastDueNoticePropagatesSendError(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	n := NewNotifierWithSender(sender, logger.NewNoopLogger())
	err := n.SendPastDueNotice(context.Background(), &PastDueNotice{
		TenantID:  "tenant_1",
		ToAddress: "owner@acme.test",
	})

	assert.Error(t, err)
}

func TestDisabledClientSkipsSending(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Email.Enabled = false

	client := NewClient(cfg)
	assert.False(t, client.IsEnabled())

	n := NewNotifier(client, logger.NewNoopLogger())
	err := n.SendPastDueNotice(context.Background(), &PastDueNotice{ToAddress: "owner@acme.test"})
	assert.NoError(t, err)

	_, err = client.Send(context.Background(), &Message{To: "owner@acme.test"})
	assert.Error(t, err)
}
