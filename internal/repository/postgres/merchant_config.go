package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/repository"
)

type merchantConfigRepository struct {
	db *sql.DB
}

func NewMerchantConfigRepository(db *sql.DB) repository.MerchantConfigRepository {
	return &merchantConfigRepository{db: db}
}

const merchantConfigColumns = `id, merchant_id, app_id, encrypted_private_key, provider_public_key,
	settlement_account, notify_url, return_url, status, created_on, updated_on`

func (r *merchantConfigRepository) Create(ctx context.Context, cfg *domain.MerchantPaymentConfig) error {
	now := time.Now()
	query := `INSERT INTO merchant_payment_configs (merchant_id, app_id, encrypted_private_key, provider_public_key,
	          settlement_account, notify_url, return_url, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		cfg.MerchantID, cfg.AppID, cfg.EncryptedPrivateKey, cfg.ProviderPublicKey,
		cfg.SettlementAccount, cfg.NotifyURL, cfg.ReturnURL, cfg.Status, now, now,
	).Scan(&cfg.ID)
}

func (r *merchantConfigRepository) Update(ctx context.Context, cfg *domain.MerchantPaymentConfig) error {
	query := `UPDATE merchant_payment_configs SET app_id = $1, encrypted_private_key = $2, provider_public_key = $3,
	          settlement_account = $4, notify_url = $5, return_url = $6, status = $7, updated_on = $8
	          WHERE merchant_id = $9`
	res, err := r.db.ExecContext(ctx, query,
		cfg.AppID, cfg.EncryptedPrivateKey, cfg.ProviderPublicKey,
		cfg.SettlementAccount, cfg.NotifyURL, cfg.ReturnURL, cfg.Status, time.Now(), cfg.MerchantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *merchantConfigRepository) GetByMerchantID(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error) {
	return r.getOne(ctx, "merchant_id = $1", merchantID)
}

func (r *merchantConfigRepository) GetActiveByMerchantID(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error) {
	return r.getOne(ctx, "merchant_id = $1 AND status = 'ACTIVE'", merchantID)
}

func (r *merchantConfigRepository) GetByAppID(ctx context.Context, appID string) (*domain.MerchantPaymentConfig, error) {
	return r.getOne(ctx, "app_id = $1", appID)
}

func (r *merchantConfigRepository) getOne(ctx context.Context, where string, arg any) (*domain.MerchantPaymentConfig, error) {
	cfg := &domain.MerchantPaymentConfig{}
	query := fmt.Sprintf("SELECT %s FROM merchant_payment_configs WHERE %s", merchantConfigColumns, where)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&cfg.ID, &cfg.MerchantID, &cfg.AppID, &cfg.EncryptedPrivateKey, &cfg.ProviderPublicKey,
		&cfg.SettlementAccount, &cfg.NotifyURL, &cfg.ReturnURL, &cfg.Status, &cfg.CreatedOn, &cfg.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *merchantConfigRepository) AppIDInUse(ctx context.Context, appID string, excludeMerchantID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM merchant_payment_configs WHERE app_id = $1 AND merchant_id <> $2)`
	err := r.db.QueryRowContext(ctx, query, appID, excludeMerchantID).Scan(&exists)
	return exists, err
}

func (r *merchantConfigRepository) SetStatus(ctx context.Context, merchantID int64, status domain.MerchantConfigStatus) error {
	query := `UPDATE merchant_payment_configs SET status = $1, updated_on = $2 WHERE merchant_id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), merchantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
