package service

import (
	"context"
	"net/url"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) TransitionStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) ConfirmIfAvailable(ctx context.Context, order *domain.Order) (bool, int64, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepo) HasOverlapping(ctx context.Context, itemID int64, start, end time.Time, blocking []domain.OrderStatus, excludeOrderID int64) (bool, error) {
	args := m.Called(ctx, itemID, start, end, blocking, excludeOrderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) AppendRemark(ctx context.Context, id int64, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *MockOrderRepo) SetActualReturnDate(ctx context.Context, id int64, returned time.Time) error {
	args := m.Called(ctx, id, returned)
	return args.Error(0)
}

func (m *MockOrderRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepo) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Order), args.Get(1).(int32), args.Error(2)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) CreateForOrder(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) CreateRefund(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByPaymentNo(ctx context.Context, paymentNo string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) TransitionStatus(ctx context.Context, id int64, from, to domain.PaymentStatus, providerTxnID *string) (bool, error) {
	args := m.Called(ctx, id, from, to, providerTxnID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepo) AppendRecord(ctx context.Context, record *domain.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRepo) ListRecords(ctx context.Context, paymentID int64) ([]domain.PaymentRecord, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).([]domain.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepo) SumSuccessfulRefunds(ctx context.Context, originalPaymentID int64) (int64, error) {
	args := m.Called(ctx, originalPaymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int32) ([]domain.Payment, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

type MockMerchantConfigRepo struct {
	mock.Mock
}

func (m *MockMerchantConfigRepo) Create(ctx context.Context, cfg *domain.MerchantPaymentConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockMerchantConfigRepo) Update(ctx context.Context, cfg *domain.MerchantPaymentConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockMerchantConfigRepo) GetByMerchantID(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MerchantPaymentConfig), args.Error(1)
}

func (m *MockMerchantConfigRepo) GetActiveByMerchantID(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MerchantPaymentConfig), args.Error(1)
}

func (m *MockMerchantConfigRepo) GetByAppID(ctx context.Context, appID string) (*domain.MerchantPaymentConfig, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MerchantPaymentConfig), args.Error(1)
}

func (m *MockMerchantConfigRepo) AppIDInUse(ctx context.Context, appID string, excludeMerchantID int64) (bool, error) {
	args := m.Called(ctx, appID, excludeMerchantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMerchantConfigRepo) SetStatus(ctx context.Context, merchantID int64, status domain.MerchantConfigStatus) error {
	args := m.Called(ctx, merchantID, status)
	return args.Error(0)
}

type MockSequenceRepo struct {
	mock.Mock
}

func (m *MockSequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(ctx context.Context, merchantID int64, payment *domain.Payment, order *domain.Order) (*gateway.CreatePaymentResult, error) {
	args := m.Called(ctx, merchantID, payment, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CreatePaymentResult), args.Error(1)
}

func (m *MockGateway) QueryStatus(ctx context.Context, merchantID int64, payment *domain.Payment) (*gateway.QueryResult, error) {
	args := m.Called(ctx, merchantID, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.QueryResult), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, merchantID int64, original, refund *domain.Payment, amountCents int64, reason string) (bool, string, error) {
	args := m.Called(ctx, merchantID, original, refund, amountCents, reason)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockGateway) VerifyCallbackSignature(ctx context.Context, merchantID int64, params url.Values) (bool, error) {
	args := m.Called(ctx, merchantID, params)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) Invalidate(merchantID int64) {
	m.Called(merchantID)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, renterID int64, startDate, endDate string, lines []OrderLineInput, remark string) (*domain.Order, error) {
	args := m.Called(ctx, renterID, startDate, endDate, lines, remark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) AuditOrder(ctx context.Context, orderID int64, approve bool, comment string, auditorID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID, approve, comment, auditorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) StartUse(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ReturnOrder(ctx context.Context, orderID int64, note string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID int64, reason string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderService) MarkPaid(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Order), args.Get(1).(int32), args.Error(2)
}

type MockMerchantConfigService struct {
	mock.Mock
}

func (m *MockMerchantConfigService) Save(ctx context.Context, merchantID int64, req *MerchantConfigRequest) (*domain.MerchantPaymentConfig, error) {
	args := m.Called(ctx, merchantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MerchantPaymentConfig), args.Error(1)
}

func (m *MockMerchantConfigService) Enable(ctx context.Context, merchantID int64) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

func (m *MockMerchantConfigService) Disable(ctx context.Context, merchantID int64) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

func (m *MockMerchantConfigService) Get(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MerchantPaymentConfig), args.Error(1)
}

func (m *MockMerchantConfigService) FindMerchantByAppID(ctx context.Context, appID string) (int64, error) {
	args := m.Called(ctx, appID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMerchantConfigService) SetClientInvalidator(inv ClientInvalidator) {
	m.Called(inv)
}

func (m *MockMerchantConfigService) ResolveActive(ctx context.Context, merchantID int64) (*gateway.Credentials, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Credentials), args.Error(1)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) IsAvailable(ctx context.Context, itemID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, itemID, start, end)
	return args.Bool(0), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(merchantID int64) {
	m.Called(merchantID)
}
