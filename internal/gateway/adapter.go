package gateway

import (
	"context"
	"net/url"
	"sync"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/logger"
)

// Options configures the adapter from the payment config section.
type Options struct {
	GatewayURL     string
	RequestTimeout time.Duration
	PaymentExpiry  time.Duration
}

// Adapter implements Gateway with one cached client per merchant. The lock
// protects the cache map and the per-merchant generation counters; credential
// resolution, client construction, and provider calls all run outside it.
type Adapter struct {
	source  CredentialSource
	opts    Options
	mu      sync.RWMutex
	clients map[int64]*merchantClient
	// gens is bumped by Invalidate. A client built from credentials resolved
	// under an older generation is never published.
	gens map[int64]uint64
}

func New(source CredentialSource, opts Options) *Adapter {
	return &Adapter{
		source:  source,
		opts:    opts,
		clients: make(map[int64]*merchantClient),
		gens:    make(map[int64]uint64),
	}
}

// client returns the cached client for a merchant, building it on first
// access. Concurrent first accesses publish at most one client, and a build
// raced by Invalidate is discarded and retried so stale credentials never
// re-enter the cache.
func (a *Adapter) client(ctx context.Context, merchantID int64) (*merchantClient, error) {
	for {
		a.mu.RLock()
		c, ok := a.clients[merchantID]
		gen := a.gens[merchantID]
		a.mu.RUnlock()
		if ok {
			return c, nil
		}

		creds, err := a.source.ResolveActive(ctx, merchantID)
		if err != nil {
			return nil, err
		}
		c, err = newMerchantClient(creds, a.opts)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		if cached, ok := a.clients[merchantID]; ok {
			a.mu.Unlock()
			return cached, nil
		}
		if a.gens[merchantID] == gen {
			a.clients[merchantID] = c
			a.mu.Unlock()
			return c, nil
		}
		a.mu.Unlock()
		// Invalidate ran while this client was being built; the credentials
		// it was built from may already be stale, so resolve again.
	}
}

// Invalidate drops the cached client so the next call rebuilds from fresh
// credentials. Must be called whenever a merchant's config changes.
func (a *Adapter) Invalidate(merchantID int64) {
	a.mu.Lock()
	delete(a.clients, merchantID)
	a.gens[merchantID]++
	a.mu.Unlock()
	logger.Debug("Payment client invalidated", "merchant_id", merchantID)
}

func (a *Adapter) CreatePayment(ctx context.Context, merchantID int64, payment *domain.Payment, order *domain.Order) (*CreatePaymentResult, error) {
	c, err := a.client(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	resp, _, err := c.createPayment(ctx, payment, order)
	if err != nil {
		return nil, domain.NewProviderError("createPayment", err)
	}
	return &CreatePaymentResult{
		PayURL:   resp.PayURL,
		QRCode:   resp.QRCode,
		Status:   domain.PaymentStatusPending,
		ExpireAt: time.Now().Add(a.opts.PaymentExpiry),
	}, nil
}

func (a *Adapter) QueryStatus(ctx context.Context, merchantID int64, payment *domain.Payment) (*QueryResult, error) {
	c, err := a.client(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	resp, raw, err := c.queryStatus(ctx, payment)
	if err != nil {
		return nil, domain.NewProviderError("queryStatus", err)
	}
	return &QueryResult{
		Status:        MapProviderStatus(resp.TradeStatus),
		ProviderTxnID: resp.TradeNo,
		RawResponse:   raw,
	}, nil
}

func (a *Adapter) Refund(ctx context.Context, merchantID int64, original, refund *domain.Payment, amountCents int64, reason string) (bool, string, error) {
	c, err := a.client(ctx, merchantID)
	if err != nil {
		return false, "", err
	}
	resp, raw, err := c.refund(ctx, original, refund, amountCents, reason)
	if err != nil {
		return false, raw, domain.NewProviderError("refund", err)
	}
	return resp.Code == providerCodeSuccess, raw, nil
}

func (a *Adapter) VerifyCallbackSignature(ctx context.Context, merchantID int64, params url.Values) (bool, error) {
	c, err := a.client(ctx, merchantID)
	if err != nil {
		return false, err
	}
	return c.verifyCallback(params), nil
}
