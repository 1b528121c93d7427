package repository

import (
	"context"
	"time"

	"rentease-backend/internal/domain"
)

type ItemRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
}

type OrderRepository interface {
	// Create persists the order and its lines in one transaction.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error)
	// TransitionStatus moves the order from->to with a status precondition.
	// Returns false when the precondition no longer holds.
	TransitionStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (bool, error)
	// ConfirmIfAvailable re-checks every line's availability and performs the
	// PENDING->CONFIRMED transition in a single transaction, serialized per
	// item. Returns the first conflicting item id when the check fails.
	ConfirmIfAvailable(ctx context.Context, order *domain.Order) (ok bool, conflictItemID int64, err error)
	// HasOverlapping reports whether any order in one of the blocking states
	// holds a line for itemID with an intersecting inclusive date range.
	HasOverlapping(ctx context.Context, itemID int64, start, end time.Time, blocking []domain.OrderStatus, excludeOrderID int64) (bool, error)
	AppendRemark(ctx context.Context, id int64, note string) error
	SetActualReturnDate(ctx context.Context, id int64, returned time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Order, int32, error)
}

type PaymentRepository interface {
	// CreateForOrder inserts a PENDING payment only if the order has no other
	// non-terminal payment; the existence check and the insert share one
	// transaction. Returns domain.ErrLivePaymentExists otherwise.
	CreateForOrder(ctx context.Context, payment *domain.Payment) error
	// CreateRefund inserts a REFUND payment row; refunds are exempt from the
	// one-live-payment rule.
	CreateRefund(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByPaymentNo(ctx context.Context, paymentNo string) (*domain.Payment, error)
	// TransitionStatus is the compare-and-set anchor for callback idempotency:
	// the row moves from->to only if it is still in from, atomically with
	// respect to concurrent callers on any process instance.
	TransitionStatus(ctx context.Context, id int64, from, to domain.PaymentStatus, providerTxnID *string) (bool, error)
	AppendRecord(ctx context.Context, record *domain.PaymentRecord) error
	ListRecords(ctx context.Context, paymentID int64) ([]domain.PaymentRecord, error)
	SumSuccessfulRefunds(ctx context.Context, originalPaymentID int64) (int64, error)
	// ListPendingCreatedBefore returns PENDING payments older than the cutoff,
	// for scheduled reconciliation and expiry.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int32) ([]domain.Payment, error)
}

type MerchantConfigRepository interface {
	Create(ctx context.Context, cfg *domain.MerchantPaymentConfig) error
	Update(ctx context.Context, cfg *domain.MerchantPaymentConfig) error
	GetByMerchantID(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error)
	GetActiveByMerchantID(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error)
	GetByAppID(ctx context.Context, appID string) (*domain.MerchantPaymentConfig, error)
	// AppIDInUse reports whether another merchant already registered appID.
	AppIDInUse(ctx context.Context, appID string, excludeMerchantID int64) (bool, error)
	SetStatus(ctx context.Context, merchantID int64, status domain.MerchantConfigStatus) error
}

// SequenceRepository hands out collision-free numbers for order and payment
// number generation, backed by database sequences.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
