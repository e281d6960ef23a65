package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/dto"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookService struct {
	handle func(provider types.PaymentProvider, payload []byte) (*base.WebhookEvent, error)
}

func (s *stubWebhookService) HandleWebhook(_ context.Context, provider types.PaymentProvider, payload []byte) (*base.WebhookEvent, error) {
	return s.handle(provider, payload)
}

func postWebhook(t *testing.T, svc *stubWebhookService) (*httptest.ResponseRecorder, dto.WebhookResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/payments/webhook/:provider", NewWebhookHandler(svc, logger.NewNoopLogger()).HandleWebhook)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/square", bytes.NewBufferString(`{"type":"payment.updated"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body dto.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandleWebhookPanicStillAnswers200(t *testing.T) {
	rec, body := postWebhook(t, &stubWebhookService{
		handle: func(types.PaymentProvider, []byte) (*base.WebhookEvent, error) {
			var event *base.WebhookEvent
			_ = event.Kind
			return nil, nil
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Received)
	assert.Equal(t, webhookFailed, body.Error)
}

func TestHandleWebhookServiceError(t *testing.T) {
	rec, body := postWebhook(t, &stubWebhookService{
		handle: func(types.PaymentProvider, []byte) (*base.WebhookEvent, error) {
			return nil, ierr.NewError("invoice not found").
				WithHint("Invoice not found").
				Mark(ierr.ErrNotFound)
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Received)
	assert.Equal(t, "Invoice not found", body.Error)
}

func TestHandleWebhookPassesProviderAndPayload(t *testing.T) {
	var gotProvider types.PaymentProvider
	var gotPayload string
	rec, body := postWebhook(t, &stubWebhookService{
		handle: func(provider types.PaymentProvider, payload []byte) (*base.WebhookEvent, error) {
			gotProvider = provider
			gotPayload = string(payload)
			return &base.WebhookEvent{Kind: types.WebhookEventIgnored}, nil
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Received)
	assert.Empty(t, body.Error)
	assert.Equal(t, types.PaymentProviderSquare, gotProvider)
	assert.JSONEq(t, `{"type":"payment.updated"}`, gotPayload)
}
