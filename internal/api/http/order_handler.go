package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"rentease-backend/internal/service"
	"rentease-backend/internal/utils"

	"github.com/gorilla/mux"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	orders       service.OrderService
	availability service.AvailabilityService
}

func NewOrderHandler(orders service.OrderService, availability service.AvailabilityService) *OrderHandler {
	return &OrderHandler{orders: orders, availability: availability}
}

type createOrderRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Remark    string `json:"remark"`
	Lines     []struct {
		ItemID   int64 `json:"item_id"`
		Quantity int32 `json:"quantity"`
	} `json:"lines"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	claims := PrincipalFromContext(r.Context())
	lines := make([]service.OrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.OrderLineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	order, err := h.orders.CreateOrder(r.Context(), claims.UserID, req.StartDate, req.EndDate, lines, req.Remark)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims := PrincipalFromContext(r.Context())
	q := r.URL.Query()
	page := parseInt32(q.Get("page"), 1)
	pageSize := parseInt32(q.Get("page_size"), 20)

	orders, total, err := h.orders.ListOrders(r.Context(), claims.UserID, q.Get("status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
	})
}

func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orders.ConfirmOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type auditOrderRequest struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

func (h *OrderHandler) AuditOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req auditOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	claims := PrincipalFromContext(r.Context())
	order, err := h.orders.AuditOrder(r.Context(), id, req.Approve, req.Comment, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) StartUse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orders.StartUse(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *OrderHandler) ReturnOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req noteRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	order, err := h.orders.ReturnOrder(r.Context(), id, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req noteRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	order, err := h.orders.CancelOrder(r.Context(), id, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	start, err := utils.ParseDate(q.Get("start_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid start_date"})
		return
	}
	end, err := utils.ParseDate(q.Get("end_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid end_date"})
		return
	}

	available, err := h.availability.IsAvailable(r.Context(), id, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func parseInt32(s string, fallback int32) int32 {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v <= 0 {
		return fallback
	}
	return int32(v)
}
