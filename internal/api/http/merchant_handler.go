package http

import (
	"encoding/json"
	"net/http"

	"rentease-backend/internal/service"
)

// MerchantConfigHandler manages merchant payment credentials. Responses never
// include key material in any form.
type MerchantConfigHandler struct {
	configs service.MerchantConfigService
}

func NewMerchantConfigHandler(configs service.MerchantConfigService) *MerchantConfigHandler {
	return &MerchantConfigHandler{configs: configs}
}

func (h *MerchantConfigHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := pathID(w, r, "merchant_id")
	if !ok {
		return
	}
	var req service.MerchantConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cfg, err := h.configs.Save(r.Context(), merchantID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *MerchantConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := pathID(w, r, "merchant_id")
	if !ok {
		return
	}
	cfg, err := h.configs.Get(r.Context(), merchantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *MerchantConfigHandler) EnableConfig(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := pathID(w, r, "merchant_id")
	if !ok {
		return
	}
	if err := h.configs.Enable(r.Context(), merchantID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MerchantConfigHandler) DisableConfig(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := pathID(w, r, "merchant_id")
	if !ok {
		return
	}
	if err := h.configs.Disable(r.Context(), merchantID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
