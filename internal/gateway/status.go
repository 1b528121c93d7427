package gateway

import "rentease-backend/internal/domain"

// Provider trade states.
const (
	TradeStatusWaitBuyerPay = "WAIT_BUYER_PAY"
	TradeStatusSuccess      = "TRADE_SUCCESS"
	TradeStatusFinished     = "TRADE_FINISHED"
	TradeStatusClosed       = "TRADE_CLOSED"
)

// MapProviderStatus is the single translation point from the provider's
// trade-state vocabulary to the internal payment statuses. Unrecognized
// values map to PENDING, never to SUCCESS.
func MapProviderStatus(tradeStatus string) domain.PaymentStatus {
	switch tradeStatus {
	case TradeStatusSuccess, TradeStatusFinished:
		return domain.PaymentStatusSuccess
	case TradeStatusClosed:
		return domain.PaymentStatusFailed
	case TradeStatusWaitBuyerPay:
		return domain.PaymentStatusPending
	default:
		return domain.PaymentStatusPending
	}
}
