package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

type PaymentType string

const (
	PaymentTypeRental  PaymentType = "RENTAL"
	PaymentTypeDeposit PaymentType = "DEPOSIT"
	PaymentTypeRefund  PaymentType = "REFUND"
)

type PaymentMethod string

// One provider supported today.
const (
	PaymentMethodAlipay PaymentMethod = "ALIPAY"
)

type Payment struct {
	ID          int64         `json:"id"`
	OrderID     int64         `json:"order_id"`
	// PaymentNo is the provider-facing number and the idempotency key for
	// every outbound call referencing this payment.
	PaymentNo   string        `json:"payment_no"`
	AmountCents int64         `json:"amount_cents"`
	Method      PaymentMethod `json:"method"`
	Type        PaymentType   `json:"type"`
	Status      PaymentStatus `json:"status"`
	// ProviderTxnID is nil until the provider confirms the trade.
	ProviderTxnID *string `json:"provider_txn_id,omitempty"`
	// RefundOfID links a REFUND payment to the original payment row.
	RefundOfID *int64    `json:"refund_of_id,omitempty"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// PaymentRecord is an append-only audit entry. Rows are never updated or
// deleted once written.
type PaymentRecord struct {
	ID               int64         `json:"id"`
	PaymentID        int64         `json:"payment_id"`
	Status           PaymentStatus `json:"status"`
	ProviderResponse string        `json:"provider_response"`
	ErrorMessage     string        `json:"error_message"`
	CreatedOn        time.Time     `json:"created_on"`
}
