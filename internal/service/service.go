package service

import (
	"context"
	"net/url"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/gateway"
)

// AvailabilityService is the pure read path answering whether an item can be
// rented for a date range. Safe to call repeatedly and concurrently.
type AvailabilityService interface {
	IsAvailable(ctx context.Context, itemID int64, start, end time.Time) (bool, error)
}

// OrderLineInput is one requested (item, quantity) pair at order creation.
type OrderLineInput struct {
	ItemID   int64
	Quantity int32
}

type OrderService interface {
	CreateOrder(ctx context.Context, renterID int64, startDate, endDate string, lines []OrderLineInput, remark string) (*domain.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	AuditOrder(ctx context.Context, orderID int64, approve bool, comment string, auditorID int64) (*domain.Order, error)
	StartUse(ctx context.Context, orderID int64) (*domain.Order, error)
	ReturnOrder(ctx context.Context, orderID int64, note string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID int64, reason string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	// MarkPaid is the settlement engine's hook: advance CONFIRMED -> PAID on
	// the first successful rental payment. Idempotent when already PAID.
	MarkPaid(ctx context.Context, orderID int64) error
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Order, int32, error)
}

// PaymentHandle is the settlement engine's answer to a payment creation: the
// persisted payment plus the provider payload the client renders.
type PaymentHandle struct {
	Payment  *domain.Payment              `json:"payment"`
	Provider *gateway.CreatePaymentResult `json:"provider"`
}

type PaymentService interface {
	CreatePayment(ctx context.Context, orderID, amountCents int64, method domain.PaymentMethod, paymentType domain.PaymentType, requesterID int64) (*PaymentHandle, error)
	// HandleCallback processes one provider webhook delivery. Idempotent:
	// replaying a SUCCESS notification never re-transitions anything. The
	// returned error is non-nil only when the signature fails or the payload
	// is unusable; internal no-ops return nil so the provider gets an ack.
	HandleCallback(ctx context.Context, params url.Values) error
	ProcessRefund(ctx context.Context, paymentID, refundAmountCents int64, reason string, operatorID int64) (*domain.Payment, error)
	// QueryStatus polls the provider for a PENDING payment and reconciles
	// through the same idempotent path as HandleCallback.
	QueryStatus(ctx context.Context, paymentID int64) (*domain.Payment, error)
	CancelPayment(ctx context.Context, paymentID, operatorID int64) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*domain.Payment, []domain.PaymentRecord, error)
}

// MerchantConfigRequest carries credential material on save. The private key
// arrives in plaintext over the authenticated channel and is sealed before
// it touches storage.
type MerchantConfigRequest struct {
	AppID             string `json:"app_id"`
	PrivateKeyPEM     string `json:"private_key"`
	ProviderPublicKey string `json:"provider_public_key"`
	SettlementAccount string `json:"settlement_account"`
	NotifyURL         string `json:"notify_url"`
	ReturnURL         string `json:"return_url"`
}

type MerchantConfigService interface {
	// Save creates or replaces a merchant's config; new material always
	// starts PENDING_REVIEW and must be explicitly enabled.
	Save(ctx context.Context, merchantID int64, req *MerchantConfigRequest) (*domain.MerchantPaymentConfig, error)
	Enable(ctx context.Context, merchantID int64) error
	Disable(ctx context.Context, merchantID int64) error
	// Get never includes decrypted key material.
	Get(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error)
	// FindMerchantByAppID maps a callback's app_id to the owning merchant.
	FindMerchantByAppID(ctx context.Context, appID string) (int64, error)
	// SetClientInvalidator binds the gateway client cache after wiring; the
	// adapter and this service reference each other.
	SetClientInvalidator(inv ClientInvalidator)

	gateway.CredentialSource
}
