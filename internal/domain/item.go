package domain

import "time"

type ItemStatus string

const (
	ItemStatusRentable    ItemStatus = "RENTABLE"
	ItemStatusOffline     ItemStatus = "OFFLINE"
	ItemStatusMaintenance ItemStatus = "MAINTENANCE"
)

// Item is a catalog entry. The core only reads items: availability checks
// the status, order creation snapshots the prices.
type Item struct {
	ID               int64      `json:"id"`
	MerchantID       int64      `json:"merchant_id"`
	Name             string     `json:"name"`
	Status           ItemStatus `json:"status"`
	PricePerDayCents int64      `json:"price_per_day_cents"`
	DepositCents     int64      `json:"deposit_cents"`
	CreatedOn        time.Time  `json:"created_on"`
	UpdatedOn        time.Time  `json:"updated_on"`
}
