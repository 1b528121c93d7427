package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/service"

	"github.com/stretchr/testify/assert"
)

// stubPaymentService drives the callback endpoint with canned outcomes.
type stubPaymentService struct {
	service.PaymentService
	callbackErr error
	gotParams   url.Values
}

func (s *stubPaymentService) HandleCallback(ctx context.Context, params url.Values) error {
	s.gotParams = params
	return s.callbackErr
}

func postCallback(t *testing.T, handler *PaymentHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.HandleCallback(rec, req)
	return rec
}

func TestPaymentHandler_HandleCallback(t *testing.T) {
	form := url.Values{}
	form.Set("app_id", "app-12345678")
	form.Set("out_trade_no", "PY20260828000017")
	form.Set("trade_status", "TRADE_SUCCESS")

	t.Run("AcksProcessedCallback", func(t *testing.T) {
		stub := &stubPaymentService{}
		rec := postCallback(t, NewPaymentHandler(stub), form)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", rec.Body.String())
		assert.Equal(t, "PY20260828000017", stub.gotParams.Get("out_trade_no"))
	})

	t.Run("RejectsBadSignature", func(t *testing.T) {
		stub := &stubPaymentService{callbackErr: domain.ErrInvalidSignature}
		rec := postCallback(t, NewPaymentHandler(stub), form)

		assert.Equal(t, "failure", rec.Body.String())
	})

	t.Run("UnknownPaymentAcknowledged", func(t *testing.T) {
		// Redelivering a callback for a payment number we never issued can
		// not succeed later; ack it so the provider stops retrying.
		stub := &stubPaymentService{callbackErr: domain.ErrNotFound}
		rec := postCallback(t, NewPaymentHandler(stub), form)

		assert.Equal(t, "success", rec.Body.String())
	})

	t.Run("InternalErrorAsksForRedelivery", func(t *testing.T) {
		stub := &stubPaymentService{callbackErr: errors.New("db down")}
		rec := postCallback(t, NewPaymentHandler(stub), form)

		assert.Equal(t, "failure", rec.Body.String())
	})
}
