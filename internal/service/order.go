package service

import (
	"context"
	"fmt"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/repository"
	"rentease-backend/internal/utils"
)

type orderService struct {
	orderRepo    repository.OrderRepository
	itemRepo     repository.ItemRepository
	seqRepo      repository.SequenceRepository
	availability AvailabilityService
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.ItemRepository,
	seqRepo repository.SequenceRepository,
	availability AvailabilityService,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		seqRepo:      seqRepo,
		availability: availability,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, renterID int64, startDateStr, endDateStr string, lines []OrderLineInput, remark string) (*domain.Order, error) {
	start, err := utils.ParseDate(startDateStr)
	if err != nil {
		return nil, domain.NewValidationError("%v", err)
	}
	end, err := utils.ParseDate(endDateStr)
	if err != nil {
		return nil, domain.NewValidationError("%v", err)
	}
	if end.Before(start) {
		return nil, domain.NewValidationError("end date must not be before start date")
	}
	if start.Before(utils.Today()) {
		return nil, domain.NewValidationError("start date must not be in the past")
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("order must contain at least one line")
	}

	days, err := utils.RentalDays(start, end)
	if err != nil {
		return nil, domain.NewValidationError("%v", err)
	}

	var merchantID int64
	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, input := range lines {
		if input.Quantity <= 0 {
			return nil, domain.NewValidationError("line quantity must be positive for item %d", input.ItemID)
		}

		item, err := s.itemRepo.GetByID(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		if merchantID == 0 {
			merchantID = item.MerchantID
		} else if merchantID != item.MerchantID {
			return nil, domain.NewValidationError("all items in an order must belong to the same merchant")
		}

		available, err := s.availability.IsAvailable(ctx, input.ItemID, start, end)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, &domain.ItemUnavailableError{ItemID: input.ItemID}
		}

		// Snapshot prices now; later catalog changes never touch this order.
		orderLines = append(orderLines, domain.OrderLine{
			ItemID:           item.ID,
			Quantity:         input.Quantity,
			PricePerDayCents: item.PricePerDayCents,
			DepositCents:     item.DepositCents,
			LineTotalCents:   utils.LineTotalCents(item.PricePerDayCents, input.Quantity, days),
		})
	}

	totalCents, depositCents := utils.OrderTotals(orderLines, days)

	seq, err := s.seqRepo.Next(ctx, "order_no_seq")
	if err != nil {
		return nil, fmt.Errorf("generating order number: %w", err)
	}

	order := &domain.Order{
		OrderNo:            utils.FormatNumber(utils.OrderNoPrefix, utils.Today(), seq),
		RenterID:           renterID,
		MerchantID:         merchantID,
		StartDate:          start,
		EndDate:            end,
		TotalAmountCents:   totalCents,
		DepositAmountCents: depositCents,
		Status:             domain.OrderStatusPending,
		Remark:             remark,
		Lines:              orderLines,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	logger.Info("Order created", "order_no", order.OrderNo, "renter_id", renterID,
		"total_cents", totalCents, "deposit_cents", depositCents)
	return order, nil
}

// ConfirmOrder re-validates every line's availability before transitioning.
// The creation-time check cannot be trusted here: a concurrent booking may
// have consumed the slot since.
func (s *orderService) ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, domain.NewStateConflictError("order", "confirm", string(order.Status))
	}

	ok, conflictItemID, err := s.orderRepo.ConfirmIfAvailable(ctx, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		if conflictItemID != 0 {
			return nil, &domain.ItemUnavailableError{ItemID: conflictItemID}
		}
		// Lost a race on the status itself.
		current, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, domain.NewStateConflictError("order", "confirm", string(current.Status))
	}

	order.Status = domain.OrderStatusConfirmed
	logger.Info("Order confirmed", "order_no", order.OrderNo)
	return order, nil
}

func (s *orderService) AuditOrder(ctx context.Context, orderID int64, approve bool, comment string, auditorID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusConfirmed {
		return nil, domain.NewStateConflictError("order", "audit", string(order.Status))
	}

	target := domain.OrderStatusPaid
	outcome := "approved"
	if !approve {
		target = domain.OrderStatusCancelled
		outcome = "rejected"
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusConfirmed, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewStateConflictError("order", "audit", string(order.Status))
	}

	if err := s.orderRepo.AppendRemark(ctx, orderID, fmt.Sprintf("audit %s by operator %d: %s", outcome, auditorID, comment)); err != nil {
		return nil, err
	}

	order.Status = target
	logger.Info("Order audited", "order_no", order.OrderNo, "outcome", outcome, "auditor_id", auditorID)
	return order, nil
}

func (s *orderService) StartUse(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPaid {
		return nil, domain.NewStateConflictError("order", "start use", string(order.Status))
	}
	if order.StartDate.After(utils.Today()) {
		return nil, domain.NewValidationError("rental period has not started yet")
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusPaid, domain.OrderStatusInUse)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewStateConflictError("order", "start use", string(order.Status))
	}

	order.Status = domain.OrderStatusInUse
	return order, nil
}

// ReturnOrder is permitted from PAID as well as IN_USE; direct return
// without a recorded pickup is intentional flexibility.
func (s *orderService) ReturnOrder(ctx context.Context, orderID int64, note string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPaid && order.Status != domain.OrderStatusInUse {
		return nil, domain.NewStateConflictError("order", "return", string(order.Status))
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, order.Status, domain.OrderStatusReturned)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewStateConflictError("order", "return", string(order.Status))
	}

	now := time.Now()
	if err := s.orderRepo.SetActualReturnDate(ctx, orderID, now); err != nil {
		return nil, err
	}
	if note != "" {
		if err := s.orderRepo.AppendRemark(ctx, orderID, "return: "+note); err != nil {
			return nil, err
		}
	}

	order.Status = domain.OrderStatusReturned
	order.ActualReturnDate = &now
	logger.Info("Order returned", "order_no", order.OrderNo)
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID int64, reason string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusPaid:
		// cancellable
	default:
		return nil, domain.NewStateConflictError("order", "cancel", string(order.Status))
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, order.Status, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewStateConflictError("order", "cancel", string(order.Status))
	}

	if err := s.orderRepo.AppendRemark(ctx, orderID, "cancelled: "+reason); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	logger.Info("Order cancelled", "order_no", order.OrderNo, "reason", reason)
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	// Orders that carried money are never hard-deleted.
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusCancelled {
		return domain.NewStateConflictError("order", "delete", string(order.Status))
	}
	return s.orderRepo.Delete(ctx, orderID)
}

func (s *orderService) MarkPaid(ctx context.Context, orderID int64) error {
	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusConfirmed, domain.OrderStatusPaid)
	if err != nil {
		return err
	}
	if ok {
		logger.Info("Order marked paid", "order_id", orderID)
		return nil
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderStatusPaid || order.Status == domain.OrderStatusInUse || order.Status == domain.OrderStatusReturned {
		// Already advanced; a duplicate settlement signal is a no-op.
		return nil
	}
	return domain.NewStateConflictError("order", "mark paid", string(order.Status))
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.ListByRenter(ctx, renterID, status, page, pageSize)
}
