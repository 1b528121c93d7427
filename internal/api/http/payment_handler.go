package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/service"
)

// PaymentHandler exposes the settlement engine over HTTP, including the
// unauthenticated provider callback endpoint.
type PaymentHandler struct {
	payments service.PaymentService
}

func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	OrderID     int64  `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	Type        string `json:"type"`
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	claims := PrincipalFromContext(r.Context())
	handle, err := h.payments.CreatePayment(r.Context(), req.OrderID, req.AmountCents,
		domain.PaymentMethod(req.Method), domain.PaymentType(req.Type), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, handle)
}

// HandleCallback receives asynchronous provider notifications. The provider
// expects a plain-text body: "success" stops redelivery, anything else makes
// it retry. Internal no-ops (duplicate delivery, amount mismatch) still ack;
// only a bad signature or unusable payload gets "failure".
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeCallbackAck(w, false)
		return
	}

	if err := h.payments.HandleCallback(r.Context(), r.PostForm); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The payment number matches nothing we issued; redelivery would
			// not change that, so acknowledge and drop it.
			logger.Warn("Callback for unknown payment acknowledged",
				"out_trade_no", r.PostForm.Get("out_trade_no"))
			writeCallbackAck(w, true)
			return
		}
		if !errors.Is(err, domain.ErrInvalidSignature) && !domain.IsValidationError(err) {
			// Transient internal failure: tell the provider to redeliver.
			logger.Error("Callback processing failed", "error", err)
		}
		writeCallbackAck(w, false)
		return
	}
	writeCallbackAck(w, true)
}

func writeCallbackAck(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "text/plain")
	if ok {
		_, _ = w.Write([]byte("success"))
		return
	}
	_, _ = w.Write([]byte("failure"))
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	payment, records, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payment": payment,
		"records": records,
	})
}

func (h *PaymentHandler) QueryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	payment, err := h.payments.QueryStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

type refundRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

func (h *PaymentHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	claims := PrincipalFromContext(r.Context())
	refund, err := h.payments.ProcessRefund(r.Context(), id, req.AmountCents, req.Reason, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, refund)
}

func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	claims := PrincipalFromContext(r.Context())
	payment, err := h.payments.CancelPayment(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
