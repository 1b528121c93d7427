package domain

import "time"

type MerchantConfigStatus string

const (
	MerchantConfigStatusPendingReview MerchantConfigStatus = "PENDING_REVIEW"
	MerchantConfigStatusActive        MerchantConfigStatus = "ACTIVE"
	MerchantConfigStatusInactive      MerchantConfigStatus = "INACTIVE"
)

// MerchantPaymentConfig holds one merchant's provider credentials. The
// private key is stored encrypted; the decrypted form only ever exists as a
// transient value inside gateway client construction.
type MerchantPaymentConfig struct {
	ID         int64  `json:"id"`
	MerchantID int64  `json:"merchant_id"`
	// AppID is the provider application id, unique across all merchants.
	AppID               string               `json:"app_id"`
	EncryptedPrivateKey string               `json:"-"`
	ProviderPublicKey   string               `json:"provider_public_key"`
	SettlementAccount   string               `json:"settlement_account"`
	NotifyURL           string               `json:"notify_url"`
	ReturnURL           string               `json:"return_url"`
	Status              MerchantConfigStatus `json:"status"`
	CreatedOn           time.Time            `json:"created_on"`
	UpdatedOn           time.Time            `json:"updated_on"`
}

func (c *MerchantPaymentConfig) IsActive() bool {
	return c.Status == MerchantConfigStatusActive
}
