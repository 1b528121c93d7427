package service

import (
	"context"
	"errors"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/repository"
)

type availabilityService struct {
	itemRepo  repository.ItemRepository
	orderRepo repository.OrderRepository
}

func NewAvailabilityService(itemRepo repository.ItemRepository, orderRepo repository.OrderRepository) AvailabilityService {
	return &availabilityService{itemRepo: itemRepo, orderRepo: orderRepo}
}

// IsAvailable reports whether the item is rentable and no non-terminal order
// holds an overlapping line for it. Bounds are inclusive: a shared boundary
// day counts as a conflict.
func (s *availabilityService) IsAvailable(ctx context.Context, itemID int64, start, end time.Time) (bool, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if item.Status != domain.ItemStatusRentable {
		return false, nil
	}

	conflict, err := s.orderRepo.HasOverlapping(ctx, itemID, start, end, domain.NonTerminalOrderStatuses, 0)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}
