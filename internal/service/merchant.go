package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/gateway"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/repository"
	"rentease-backend/internal/security"
)

// ClientInvalidator drops a merchant's cached gateway client. Satisfied by
// the gateway adapter; wired after construction because the adapter also
// consumes this service as its credential source.
type ClientInvalidator interface {
	Invalidate(merchantID int64)
}

type merchantConfigService struct {
	configRepo  repository.MerchantConfigRepository
	vault       *security.KeyVault
	invalidator ClientInvalidator
}

func NewMerchantConfigService(configRepo repository.MerchantConfigRepository, vault *security.KeyVault) MerchantConfigService {
	return &merchantConfigService{configRepo: configRepo, vault: vault}
}

// SetClientInvalidator binds the gateway cache; called once during wiring.
func (s *merchantConfigService) SetClientInvalidator(inv ClientInvalidator) {
	s.invalidator = inv
}

func (s *merchantConfigService) Save(ctx context.Context, merchantID int64, req *MerchantConfigRequest) (*domain.MerchantPaymentConfig, error) {
	if err := validateConfigRequest(req); err != nil {
		return nil, err
	}

	inUse, err := s.configRepo.AppIDInUse(ctx, req.AppID, merchantID)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, domain.NewValidationError("application id %s is already registered to another merchant", req.AppID)
	}

	sealedKey, err := s.vault.Seal(req.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	cfg := &domain.MerchantPaymentConfig{
		MerchantID:          merchantID,
		AppID:               req.AppID,
		EncryptedPrivateKey: sealedKey,
		ProviderPublicKey:   req.ProviderPublicKey,
		SettlementAccount:   req.SettlementAccount,
		NotifyURL:           req.NotifyURL,
		ReturnURL:           req.ReturnURL,
		// New credential material always waits for an explicit enable.
		Status: domain.MerchantConfigStatusPendingReview,
	}

	existing, err := s.configRepo.GetByMerchantID(ctx, merchantID)
	switch {
	case err == nil:
		cfg.ID = existing.ID
		if err := s.configRepo.Update(ctx, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
		if err := s.configRepo.Create(ctx, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.invalidateClient(merchantID)
	logger.Info("Merchant payment config saved", "merchant_id", merchantID, "app_id", req.AppID)
	return sanitize(cfg), nil
}

func (s *merchantConfigService) Enable(ctx context.Context, merchantID int64) error {
	if err := s.configRepo.SetStatus(ctx, merchantID, domain.MerchantConfigStatusActive); err != nil {
		return err
	}
	s.invalidateClient(merchantID)
	logger.Info("Merchant payment config enabled", "merchant_id", merchantID)
	return nil
}

func (s *merchantConfigService) Disable(ctx context.Context, merchantID int64) error {
	if err := s.configRepo.SetStatus(ctx, merchantID, domain.MerchantConfigStatusInactive); err != nil {
		return err
	}
	s.invalidateClient(merchantID)
	logger.Info("Merchant payment config disabled", "merchant_id", merchantID)
	return nil
}

func (s *merchantConfigService) Get(ctx context.Context, merchantID int64) (*domain.MerchantPaymentConfig, error) {
	cfg, err := s.configRepo.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return sanitize(cfg), nil
}

func (s *merchantConfigService) FindMerchantByAppID(ctx context.Context, appID string) (int64, error) {
	cfg, err := s.configRepo.GetByAppID(ctx, appID)
	if err != nil {
		return 0, err
	}
	return cfg.MerchantID, nil
}

// ResolveActive decrypts the merchant's private key into a transient value
// handed straight to gateway client construction. The decrypted form is
// never persisted or logged.
func (s *merchantConfigService) ResolveActive(ctx context.Context, merchantID int64) (*gateway.Credentials, error) {
	cfg, err := s.configRepo.GetActiveByMerchantID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveConfig
		}
		return nil, err
	}

	privateKeyPEM, err := s.vault.Open(cfg.EncryptedPrivateKey)
	if err != nil {
		return nil, err
	}

	return &gateway.Credentials{
		MerchantID:           cfg.MerchantID,
		AppID:                cfg.AppID,
		PrivateKeyPEM:        privateKeyPEM,
		ProviderPublicKeyPEM: cfg.ProviderPublicKey,
		SettlementAccount:    cfg.SettlementAccount,
		NotifyURL:            cfg.NotifyURL,
		ReturnURL:            cfg.ReturnURL,
	}, nil
}

func (s *merchantConfigService) invalidateClient(merchantID int64) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(merchantID)
	}
}

// validateConfigRequest checks structural well-formedness of the material:
// the keys must parse, the URLs must be absolute. No cryptographic proof of
// ownership is attempted here.
func validateConfigRequest(req *MerchantConfigRequest) error {
	if strings.TrimSpace(req.AppID) == "" {
		return domain.NewValidationError("application id is required")
	}
	if len(req.AppID) < 8 {
		return domain.NewValidationError("application id is too short")
	}
	if _, err := gateway.ParsePrivateKey(req.PrivateKeyPEM); err != nil {
		return domain.NewValidationError("private key is not a valid RSA PEM key")
	}
	if _, err := gateway.ParsePublicKey(req.ProviderPublicKey); err != nil {
		return domain.NewValidationError("provider public key is not a valid RSA PEM key")
	}
	if strings.TrimSpace(req.SettlementAccount) == "" {
		return domain.NewValidationError("settlement account is required")
	}
	for name, raw := range map[string]string{"notify_url": req.NotifyURL, "return_url": req.ReturnURL} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return domain.NewValidationError("%s must be an absolute URL", name)
		}
	}
	return nil
}

// sanitize strips the sealed key blob before a config leaves the service.
func sanitize(cfg *domain.MerchantPaymentConfig) *domain.MerchantPaymentConfig {
	out := *cfg
	out.EncryptedPrivateKey = ""
	return &out
}
