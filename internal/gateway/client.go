package gateway

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/logger"

	"github.com/google/uuid"
)

// merchantClient is a long-lived signed-request client for one merchant.
// The decrypted private key only lives here, parsed into the key object.
type merchantClient struct {
	appID             string
	privateKey        *rsa.PrivateKey
	providerPublicKey *rsa.PublicKey
	settlementAccount string
	notifyURL         string
	returnURL         string
	gatewayURL        string
	timeoutExpress    string
	httpClient        *http.Client
}

func newMerchantClient(creds *Credentials, opts Options) (*merchantClient, error) {
	privateKey, err := ParsePrivateKey(creds.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("merchant %d private key: %w", creds.MerchantID, err)
	}
	publicKey, err := ParsePublicKey(creds.ProviderPublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("merchant %d provider public key: %w", creds.MerchantID, err)
	}
	// The provider-side payment window tracks the internal expiry, so the
	// stale-payment job and the provider close trades at the same point.
	expiryMinutes := int(opts.PaymentExpiry.Minutes())
	if expiryMinutes <= 0 {
		expiryMinutes = 15
	}
	return &merchantClient{
		appID:             creds.AppID,
		privateKey:        privateKey,
		providerPublicKey: publicKey,
		settlementAccount: creds.SettlementAccount,
		notifyURL:         creds.NotifyURL,
		returnURL:         creds.ReturnURL,
		gatewayURL:        opts.GatewayURL,
		timeoutExpress:    fmt.Sprintf("%dm", expiryMinutes),
		httpClient:        &http.Client{Timeout: opts.RequestTimeout},
	}, nil
}

// providerResponse is the provider's JSON envelope.
type providerResponse struct {
	Code        string `json:"code"`
	Msg         string `json:"msg"`
	SubMsg      string `json:"sub_msg"`
	TradeNo     string `json:"trade_no"`
	TradeStatus string `json:"trade_status"`
	PayURL      string `json:"pay_url"`
	QRCode      string `json:"qr_code"`
	RefundFee   string `json:"refund_fee"`
}

const providerCodeSuccess = "10000"

func (c *merchantClient) createPayment(ctx context.Context, payment *domain.Payment, order *domain.Order) (*providerResponse, string, error) {
	biz := map[string]string{
		"out_trade_no":    payment.PaymentNo,
		"total_amount":    FormatAmount(payment.AmountCents),
		"subject":         fmt.Sprintf("rental order %s", order.OrderNo),
		"seller_id":       c.settlementAccount,
		"notify_url":      c.notifyURL,
		"return_url":      c.returnURL,
		"timeout_express": c.timeoutExpress,
	}
	return c.call(ctx, "trade.precreate", biz)
}

func (c *merchantClient) queryStatus(ctx context.Context, payment *domain.Payment) (*providerResponse, string, error) {
	return c.call(ctx, "trade.query", map[string]string{
		"out_trade_no": payment.PaymentNo,
	})
}

func (c *merchantClient) refund(ctx context.Context, original, refund *domain.Payment, amountCents int64, reason string) (*providerResponse, string, error) {
	return c.call(ctx, "trade.refund", map[string]string{
		"out_trade_no": original.PaymentNo,
		// The refund number is the provider-side idempotency key: retrying
		// the same out_request_no never refunds twice.
		"out_request_no": refund.PaymentNo,
		"refund_amount":  FormatAmount(amountCents),
		"refund_reason":  reason,
	})
}

// call signs and posts one provider request, returning the parsed response
// and the raw body for the audit trail.
func (c *merchantClient) call(ctx context.Context, method string, biz map[string]string) (*providerResponse, string, error) {
	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("method", method)
	params.Set("charset", "utf-8")
	params.Set("sign_type", "RSA2")
	params.Set("timestamp", time.Now().UTC().Format("2006-01-02 15:04:05"))
	params.Set("nonce", uuid.New().String())
	for k, v := range biz {
		if v != "" {
			params.Set(k, v)
		}
	}

	sign, err := SignParams(c.privateKey, params)
	if err != nil {
		return nil, "", fmt.Errorf("signing %s request: %w", method, err)
	}
	params.Set("sign", sign)

	logger.ExternalServiceCall("payment-provider", method, "app_id", c.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("payment-provider", method, err)
		return nil, "", fmt.Errorf("provider %s call: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.ExternalServiceResult("payment-provider", method, err)
		return nil, "", fmt.Errorf("reading provider %s response: %w", method, err)
	}
	raw := string(body)

	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		logger.ExternalServiceResult("payment-provider", method, err)
		return nil, raw, fmt.Errorf("decoding provider %s response: %w", method, err)
	}
	if pr.Code != providerCodeSuccess {
		err := fmt.Errorf("provider %s returned code %s: %s %s", method, pr.Code, pr.Msg, pr.SubMsg)
		logger.ExternalServiceResult("payment-provider", method, err)
		return &pr, raw, err
	}
	logger.ExternalServiceResult("payment-provider", method, nil)
	return &pr, raw, nil
}

// verifyCallback checks a callback's RSA2 signature against the provider's
// public key.
func (c *merchantClient) verifyCallback(params url.Values) bool {
	sign := params.Get("sign")
	if sign == "" {
		return false
	}
	signature, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(signBase(params)))
	return rsa.VerifyPKCS1v15(c.providerPublicKey, crypto.SHA256, digest[:], signature) == nil
}

// signBase builds the canonical string: parameters sorted by key, empty
// values and the signature fields excluded, joined as k=v with &.
func signBase(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" || k == "sign_type" {
			continue
		}
		if params.Get(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}
	return strings.Join(pairs, "&")
}

// SignParams produces the base64 RSA-SHA256 signature over the canonical
// parameter string.
func SignParams(key *rsa.PrivateKey, params url.Values) (string, error) {
	digest := sha256.Sum256([]byte(signBase(params)))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// ParsePrivateKey accepts PKCS#1 or PKCS#8 PEM-encoded RSA private keys.
func ParsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("not a PKCS#1 or PKCS#8 RSA key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PKCS#8 key is not RSA")
	}
	return key, nil
}

// ParsePublicKey accepts PKIX or PKCS#1 PEM-encoded RSA public keys.
func ParsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if key, ok := parsed.(*rsa.PublicKey); ok {
			return key, nil
		}
		return nil, fmt.Errorf("PKIX key is not RSA")
	}
	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("not a PKIX or PKCS#1 RSA public key: %w", err)
	}
	return key, nil
}

// FormatAmount renders integer cents as the provider's decimal string.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
