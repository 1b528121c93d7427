package service

import (
	"context"
	"fmt"
	"net/url"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/gateway"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/repository"
	"rentease-backend/internal/utils"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	seqRepo     repository.SequenceRepository
	orderSvc    OrderService
	merchantSvc MerchantConfigService
	gw          gateway.Gateway
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	seqRepo repository.SequenceRepository,
	orderSvc OrderService,
	merchantSvc MerchantConfigService,
	gw gateway.Gateway,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		seqRepo:     seqRepo,
		orderSvc:    orderSvc,
		merchantSvc: merchantSvc,
		gw:          gw,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, orderID, amountCents int64, method domain.PaymentMethod, paymentType domain.PaymentType, requesterID int64) (*PaymentHandle, error) {
	if method != domain.PaymentMethodAlipay {
		return nil, domain.NewValidationError("unsupported payment method %s", method)
	}
	if paymentType != domain.PaymentTypeRental && paymentType != domain.PaymentTypeDeposit {
		return nil, domain.NewValidationError("payment type must be RENTAL or DEPOSIT")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusConfirmed {
		return nil, domain.NewStateConflictError("order", "pay", string(order.Status))
	}

	// No partial payments: the amount must exactly match the order field the
	// payment settles.
	expected := order.TotalAmountCents
	if paymentType == domain.PaymentTypeDeposit {
		expected = order.DepositAmountCents
	}
	if amountCents != expected {
		return nil, domain.NewValidationError("amount %d does not match expected %d for %s payment", amountCents, expected, paymentType)
	}

	seq, err := s.seqRepo.Next(ctx, "payment_no_seq")
	if err != nil {
		return nil, fmt.Errorf("generating payment number: %w", err)
	}

	payment := &domain.Payment{
		OrderID:     orderID,
		PaymentNo:   utils.FormatNumber(utils.PaymentNoPrefix, utils.Today(), seq),
		AmountCents: amountCents,
		Method:      method,
		Type:        paymentType,
		Status:      domain.PaymentStatusPending,
	}
	if err := s.paymentRepo.CreateForOrder(ctx, payment); err != nil {
		return nil, err
	}
	s.appendRecord(ctx, payment.ID, domain.PaymentStatusPending, "", fmt.Sprintf("payment created by user %d", requesterID))

	result, err := s.gw.CreatePayment(ctx, order.MerchantID, payment, order)
	if err != nil {
		// A provider failure at creation is definite: the payment row ends
		// FAILED, never ambiguous.
		if _, terr := s.paymentRepo.TransitionStatus(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed, nil); terr != nil {
			logger.Error("Failed to mark payment FAILED after provider error", "payment_no", payment.PaymentNo, "error", terr)
		}
		s.appendRecord(ctx, payment.ID, domain.PaymentStatusFailed, "", err.Error())
		logger.Error("Provider payment creation failed", "payment_no", payment.PaymentNo, "error", err)
		return nil, err
	}

	logger.Info("Payment created", "payment_no", payment.PaymentNo, "order_no", order.OrderNo,
		"amount_cents", amountCents, "type", paymentType)
	return &PaymentHandle{Payment: payment, Provider: result}, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, params url.Values) error {
	appID := params.Get("app_id")
	paymentNo := params.Get("out_trade_no")
	if appID == "" || paymentNo == "" {
		return domain.NewValidationError("callback is missing app_id or out_trade_no")
	}

	merchantID, err := s.merchantSvc.FindMerchantByAppID(ctx, appID)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	// Nothing in the payload is trusted until the signature checks out.
	verified, err := s.gw.VerifyCallbackSignature(ctx, merchantID, params)
	if err != nil || !verified {
		logger.Warn("Callback signature verification failed", "app_id", appID, "payment_no", paymentNo, "error", err)
		return domain.ErrInvalidSignature
	}

	payment, err := s.paymentRepo.GetByPaymentNo(ctx, paymentNo)
	if err != nil {
		return err
	}

	if amountStr := params.Get("total_amount"); amountStr != "" && amountStr != gateway.FormatAmount(payment.AmountCents) {
		s.appendRecord(ctx, payment.ID, payment.Status, params.Encode(),
			fmt.Sprintf("callback amount %s does not match payment amount %s", amountStr, gateway.FormatAmount(payment.AmountCents)))
		logger.Warn("Callback amount mismatch, ignoring", "payment_no", paymentNo, "callback_amount", amountStr)
		return nil
	}

	status := gateway.MapProviderStatus(params.Get("trade_status"))
	var providerTxnID *string
	if txn := params.Get("trade_no"); txn != "" {
		providerTxnID = &txn
	}

	return s.applyProviderStatus(ctx, payment, status, providerTxnID, params.Encode())
}

// applyProviderStatus is the single reconciliation path shared by webhook
// callbacks and manual status queries. The PENDING->terminal move is a
// per-row compare-and-set, so concurrent deliveries for the same payment
// settle on exactly one transition; every call appends exactly one record.
func (s *paymentService) applyProviderStatus(ctx context.Context, payment *domain.Payment, status domain.PaymentStatus, providerTxnID *string, raw string) error {
	switch status {
	case domain.PaymentStatusSuccess:
		won, err := s.paymentRepo.TransitionStatus(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusSuccess, providerTxnID)
		if err != nil {
			return err
		}
		if !won {
			current, err := s.paymentRepo.GetByID(ctx, payment.ID)
			if err != nil {
				return err
			}
			if current.Status == domain.PaymentStatusSuccess {
				s.appendRecord(ctx, payment.ID, current.Status, raw, "duplicate success notification, no-op")
				logger.Info("Duplicate success notification ignored", "payment_no", payment.PaymentNo)
			} else {
				s.appendRecord(ctx, payment.ID, current.Status, raw,
					fmt.Sprintf("success notification for payment already %s, ignored", current.Status))
				logger.Warn("Success notification for terminal payment ignored",
					"payment_no", payment.PaymentNo, "status", current.Status)
			}
			return nil
		}

		s.appendRecord(ctx, payment.ID, domain.PaymentStatusSuccess, raw, "")
		logger.Info("Payment succeeded", "payment_no", payment.PaymentNo)

		// Only a rental payment drives the order forward; a deposit success
		// is recorded but has no independent order-state effect.
		if payment.Type == domain.PaymentTypeRental {
			if err := s.orderSvc.MarkPaid(ctx, payment.OrderID); err != nil {
				// The payment is settled either way; the order state is
				// reconciled by the defensive re-check, not rolled back.
				logger.Error("Order transition after payment success failed",
					"payment_no", payment.PaymentNo, "order_id", payment.OrderID, "error", err)
			}
		}
		return nil

	case domain.PaymentStatusFailed:
		won, err := s.paymentRepo.TransitionStatus(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed, providerTxnID)
		if err != nil {
			return err
		}
		if won {
			s.appendRecord(ctx, payment.ID, domain.PaymentStatusFailed, raw, "provider reported trade closed")
			logger.Info("Payment failed", "payment_no", payment.PaymentNo)
		} else {
			s.appendRecord(ctx, payment.ID, payment.Status, raw, "failure notification for non-pending payment, ignored")
		}
		return nil

	default:
		// Still pending at the provider; just log the observation.
		s.appendRecord(ctx, payment.ID, domain.PaymentStatusPending, raw, "")
		return nil
	}
}

func (s *paymentService) ProcessRefund(ctx context.Context, paymentID, refundAmountCents int64, reason string, operatorID int64) (*domain.Payment, error) {
	original, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if original.Type == domain.PaymentTypeRefund {
		return nil, domain.NewValidationError("cannot refund a refund")
	}
	if original.Status != domain.PaymentStatusSuccess {
		return nil, domain.NewStateConflictError("payment", "refund", string(original.Status))
	}
	if refundAmountCents <= 0 {
		return nil, domain.NewValidationError("refund amount must be positive")
	}
	if refundAmountCents > original.AmountCents {
		return nil, domain.NewValidationError("refund amount %d exceeds original payment amount %d", refundAmountCents, original.AmountCents)
	}
	alreadyRefunded, err := s.paymentRepo.SumSuccessfulRefunds(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	if refundAmountCents > original.AmountCents-alreadyRefunded {
		return nil, domain.NewValidationError("refund amount %d exceeds un-refunded remainder %d", refundAmountCents, original.AmountCents-alreadyRefunded)
	}

	order, err := s.orderRepo.GetByID(ctx, original.OrderID)
	if err != nil {
		return nil, err
	}

	seq, err := s.seqRepo.Next(ctx, "payment_no_seq")
	if err != nil {
		return nil, fmt.Errorf("generating refund number: %w", err)
	}

	refund := &domain.Payment{
		OrderID:     original.OrderID,
		PaymentNo:   utils.FormatNumber(utils.RefundNoPrefix, utils.Today(), seq),
		AmountCents: refundAmountCents,
		Method:      original.Method,
		Type:        domain.PaymentTypeRefund,
		Status:      domain.PaymentStatusPending,
		RefundOfID:  &original.ID,
	}
	if err := s.paymentRepo.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}
	s.appendRecord(ctx, refund.ID, domain.PaymentStatusPending, "", fmt.Sprintf("refund initiated by operator %d: %s", operatorID, reason))

	// The refund row always ends terminal before this call returns.
	ok, raw, err := s.gw.Refund(ctx, order.MerchantID, original, refund, refundAmountCents, reason)
	if err != nil || !ok {
		if _, terr := s.paymentRepo.TransitionStatus(ctx, refund.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed, nil); terr != nil {
			logger.Error("Failed to mark refund FAILED", "payment_no", refund.PaymentNo, "error", terr)
		}
		msg := "provider declined refund"
		if err != nil {
			msg = err.Error()
		}
		s.appendRecord(ctx, refund.ID, domain.PaymentStatusFailed, raw, msg)
		refund.Status = domain.PaymentStatusFailed
		logger.Error("Refund failed", "payment_no", refund.PaymentNo, "original", original.PaymentNo, "error", err)
		return refund, nil
	}

	if _, err := s.paymentRepo.TransitionStatus(ctx, refund.ID, domain.PaymentStatusPending, domain.PaymentStatusSuccess, nil); err != nil {
		return nil, err
	}
	s.appendRecord(ctx, refund.ID, domain.PaymentStatusSuccess, raw, "")
	refund.Status = domain.PaymentStatusSuccess
	logger.Info("Refund succeeded", "payment_no", refund.PaymentNo, "original", original.PaymentNo,
		"amount_cents", refundAmountCents)
	return refund, nil
}

func (s *paymentService) QueryStatus(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending || payment.Type == domain.PaymentTypeRefund {
		return payment, nil
	}

	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	result, err := s.gw.QueryStatus(ctx, order.MerchantID, payment)
	if err != nil {
		return nil, err
	}

	var providerTxnID *string
	if result.ProviderTxnID != "" {
		providerTxnID = &result.ProviderTxnID
	}
	if err := s.applyProviderStatus(ctx, payment, result.Status, providerTxnID, result.RawResponse); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}

func (s *paymentService) CancelPayment(ctx context.Context, paymentID, operatorID int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	ok, err := s.paymentRepo.TransitionStatus(ctx, paymentID, domain.PaymentStatusPending, domain.PaymentStatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewStateConflictError("payment", "cancel", string(payment.Status))
	}

	s.appendRecord(ctx, paymentID, domain.PaymentStatusCancelled, "", fmt.Sprintf("cancelled by operator %d", operatorID))
	payment.Status = domain.PaymentStatusCancelled
	logger.Info("Payment cancelled", "payment_no", payment.PaymentNo, "operator_id", operatorID)
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int64) (*domain.Payment, []domain.PaymentRecord, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.paymentRepo.ListRecords(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	return payment, records, nil
}

// appendRecord writes one append-only audit entry; a failure to record never
// aborts the settlement flow, it is logged and the flow continues.
func (s *paymentService) appendRecord(ctx context.Context, paymentID int64, status domain.PaymentStatus, providerResponse, errorMessage string) {
	record := &domain.PaymentRecord{
		PaymentID:        paymentID,
		Status:           status,
		ProviderResponse: providerResponse,
		ErrorMessage:     errorMessage,
	}
	if err := s.paymentRepo.AppendRecord(ctx, record); err != nil {
		logger.Error("Failed to append payment record", "payment_id", paymentID, "error", err)
	}
}
