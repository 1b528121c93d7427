package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusInUse     OrderStatus = "IN_USE"
	OrderStatusReturned  OrderStatus = "RETURNED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusReturned || s == OrderStatusCancelled
}

// NonTerminalOrderStatuses is the set of states in which an order still
// occupies its reserved item slots.
var NonTerminalOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPaid,
	OrderStatusInUse,
}

// SlotHoldingOrderStatuses is the subset used by the confirm-time re-check:
// only orders that have actually been confirmed hold a slot against others.
var SlotHoldingOrderStatuses = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusPaid,
	OrderStatusInUse,
}

type Order struct {
	ID                 int64       `json:"id"`
	OrderNo            string      `json:"order_no"`
	RenterID           int64       `json:"renter_id"`
	MerchantID         int64       `json:"merchant_id"`
	StartDate          time.Time   `json:"start_date"`
	EndDate            time.Time   `json:"end_date"`
	// Computed once at creation from the line snapshots; immutable afterwards.
	TotalAmountCents   int64       `json:"total_amount_cents"`
	DepositAmountCents int64       `json:"deposit_amount_cents"`
	Status             OrderStatus `json:"status"`
	ActualReturnDate   *time.Time  `json:"actual_return_date,omitempty"`
	Remark             string      `json:"remark"`
	Lines              []OrderLine `json:"lines"`
	CreatedOn          time.Time   `json:"created_on"`
	UpdatedOn          time.Time   `json:"updated_on"`
}

// OrderLine is one (item, quantity) entry with prices snapshotted at order
// creation time. Catalog price changes never touch existing orders.
type OrderLine struct {
	ID               int64 `json:"id"`
	OrderID          int64 `json:"order_id"`
	ItemID           int64 `json:"item_id"`
	Quantity         int32 `json:"quantity"`
	PricePerDayCents int64 `json:"price_per_day_cents"`
	DepositCents     int64 `json:"deposit_cents"`
	LineTotalCents   int64 `json:"line_total_cents"`
}
