package http

import (
	"net/http"

	"rentease-backend/internal/security"
	"rentease-backend/internal/service"

	"github.com/gorilla/mux"
)

// NewRouter assembles the HTTP surface. The provider callback endpoint is the
// only unauthenticated route; operator endpoints additionally require the
// payments:manage capability.
func NewRouter(
	tokens security.TokenManager,
	orders service.OrderService,
	availability service.AvailabilityService,
	payments service.PaymentService,
	configs service.MerchantConfigService,
) *mux.Router {
	orderHandler := NewOrderHandler(orders, availability)
	paymentHandler := NewPaymentHandler(payments)
	merchantHandler := NewMerchantConfigHandler(configs)

	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Provider notifications are authenticated by signature, not by token.
	router.HandleFunc("/api/v1/payments/callback", paymentHandler.HandleCallback).Methods("POST")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tokens))

	api.HandleFunc("/orders", orderHandler.CreateOrder).Methods("POST")
	api.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	api.HandleFunc("/orders/{id}", orderHandler.DeleteOrder).Methods("DELETE")
	api.HandleFunc("/orders/{id}/confirm", orderHandler.ConfirmOrder).Methods("POST")
	api.HandleFunc("/orders/{id}/start-use", orderHandler.StartUse).Methods("POST")
	api.HandleFunc("/orders/{id}/return", orderHandler.ReturnOrder).Methods("POST")
	api.HandleFunc("/orders/{id}/cancel", orderHandler.CancelOrder).Methods("POST")
	api.HandleFunc("/orders/{id}/audit",
		RequireCapability(security.CapabilityPaymentsManage, orderHandler.AuditOrder)).Methods("POST")

	api.HandleFunc("/items/{id}/availability", orderHandler.CheckAvailability).Methods("GET")

	api.HandleFunc("/payments", paymentHandler.CreatePayment).Methods("POST")
	api.HandleFunc("/payments/{id}", paymentHandler.GetPayment).Methods("GET")
	api.HandleFunc("/payments/{id}/query", paymentHandler.QueryStatus).Methods("POST")
	api.HandleFunc("/payments/{id}/refund",
		RequireCapability(security.CapabilityPaymentsManage, paymentHandler.ProcessRefund)).Methods("POST")
	api.HandleFunc("/payments/{id}/cancel",
		RequireCapability(security.CapabilityPaymentsManage, paymentHandler.CancelPayment)).Methods("POST")

	api.HandleFunc("/merchants/{merchant_id}/payment-config",
		RequireCapability(security.CapabilityPaymentsManage, merchantHandler.SaveConfig)).Methods("PUT")
	api.HandleFunc("/merchants/{merchant_id}/payment-config",
		RequireCapability(security.CapabilityPaymentsManage, merchantHandler.GetConfig)).Methods("GET")
	api.HandleFunc("/merchants/{merchant_id}/payment-config/enable",
		RequireCapability(security.CapabilityPaymentsManage, merchantHandler.EnableConfig)).Methods("POST")
	api.HandleFunc("/merchants/{merchant_id}/payment-config/disable",
		RequireCapability(security.CapabilityPaymentsManage, merchantHandler.DisableConfig)).Methods("POST")

	return router
}
