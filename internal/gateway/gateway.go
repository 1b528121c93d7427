// Package gateway adapts the third-party payment provider behind a
// per-merchant client abstraction. Clients are built from a merchant's
// resolved credentials, cached, and invalidated when credentials change.
package gateway

import (
	"context"
	"net/url"
	"time"

	"rentease-backend/internal/domain"
)

// Credentials is the transient, decrypted credential set for one merchant.
// It exists only long enough to construct a client and is never persisted.
type Credentials struct {
	MerchantID           int64
	AppID                string
	PrivateKeyPEM        string
	ProviderPublicKeyPEM string
	SettlementAccount    string
	NotifyURL            string
	ReturnURL            string
}

// CredentialSource resolves a merchant's ACTIVE credentials. Implemented by
// the merchant credential store.
type CredentialSource interface {
	ResolveActive(ctx context.Context, merchantID int64) (*Credentials, error)
}

// CreatePaymentResult is the provider's synchronous answer to a payment
// creation: a redirect/QR payload the client renders, plus an expiry after
// which an unpaid payment is stale.
type CreatePaymentResult struct {
	PayURL   string        `json:"pay_url,omitempty"`
	QRCode   string        `json:"qr_code,omitempty"`
	Status   domain.PaymentStatus `json:"status"`
	ExpireAt time.Time     `json:"expire_at"`
}

// QueryResult is the provider's answer to a status query.
type QueryResult struct {
	Status        domain.PaymentStatus
	ProviderTxnID string
	RawResponse   string
}

type Gateway interface {
	CreatePayment(ctx context.Context, merchantID int64, payment *domain.Payment, order *domain.Order) (*CreatePaymentResult, error)
	// QueryStatus is idempotent and safe to poll.
	QueryStatus(ctx context.Context, merchantID int64, payment *domain.Payment) (*QueryResult, error)
	// Refund uses the refund payment's own number as the provider-side
	// idempotency key; a retried call never double-refunds.
	Refund(ctx context.Context, merchantID int64, original, refund *domain.Payment, amountCents int64, reason string) (bool, string, error)
	// VerifyCallbackSignature must pass before any callback payload is
	// trusted. A failed verification must not mutate any state.
	VerifyCallbackSignature(ctx context.Context, merchantID int64, params url.Values) (bool, error)
	// Invalidate drops the cached client for a merchant so the next call
	// rebuilds it from fresh credentials.
	Invalidate(merchantID int64)
}
