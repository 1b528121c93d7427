package gateway

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPEM(t *testing.T) (*rsa.PrivateKey, string, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
	return key, privatePEM, publicPEM
}

func TestSignBase(t *testing.T) {
	params := url.Values{}
	params.Set("b_key", "2")
	params.Set("a_key", "1")
	params.Set("empty", "")
	params.Set("sign", "should-be-excluded")
	params.Set("sign_type", "RSA2")

	assert.Equal(t, "a_key=1&b_key=2", signBase(params))
}

func TestSignAndVerifyRoundtrip(t *testing.T) {
	_, privatePEM, publicPEM := generateKeyPEM(t)

	client, err := newMerchantClient(&Credentials{
		MerchantID:           3,
		AppID:                "app-12345678",
		PrivateKeyPEM:        privatePEM,
		ProviderPublicKeyPEM: publicPEM,
	}, Options{GatewayURL: "https://gateway.example.com"})
	require.NoError(t, err)

	params := url.Values{}
	params.Set("app_id", "app-12345678")
	params.Set("out_trade_no", "PY20260801000017")
	params.Set("trade_status", "TRADE_SUCCESS")
	params.Set("total_amount", "60.00")

	sign, err := SignParams(client.privateKey, params)
	require.NoError(t, err)
	params.Set("sign", sign)
	params.Set("sign_type", "RSA2")

	assert.True(t, client.verifyCallback(params))
}

func TestVerifyCallback_Rejections(t *testing.T) {
	_, privatePEM, publicPEM := generateKeyPEM(t)
	client, err := newMerchantClient(&Credentials{
		AppID:                "app-12345678",
		PrivateKeyPEM:        privatePEM,
		ProviderPublicKeyPEM: publicPEM,
	}, Options{GatewayURL: "https://gateway.example.com"})
	require.NoError(t, err)

	t.Run("MissingSign", func(t *testing.T) {
		params := url.Values{}
		params.Set("out_trade_no", "PY1")
		assert.False(t, client.verifyCallback(params))
	})

	t.Run("GarbageSign", func(t *testing.T) {
		params := url.Values{}
		params.Set("out_trade_no", "PY1")
		params.Set("sign", "!!!not-base64!!!")
		assert.False(t, client.verifyCallback(params))
	})

	t.Run("TamperedParams", func(t *testing.T) {
		params := url.Values{}
		params.Set("out_trade_no", "PY1")
		params.Set("total_amount", "60.00")
		sign, err := SignParams(client.privateKey, params)
		require.NoError(t, err)
		params.Set("sign", sign)
		params.Set("total_amount", "0.01")
		assert.False(t, client.verifyCallback(params))
	})

	t.Run("WrongKey", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		params := url.Values{}
		params.Set("out_trade_no", "PY1")
		digest := sha256.Sum256([]byte(signBase(params)))
		signature, err := rsa.SignPKCS1v15(rand.Reader, otherKey, crypto.SHA256, digest[:])
		require.NoError(t, err)
		params.Set("sign", base64.StdEncoding.EncodeToString(signature))
		assert.False(t, client.verifyCallback(params))
	})
}

func TestParsePrivateKey(t *testing.T) {
	key, privatePKCS1, _ := generateKeyPEM(t)

	t.Run("PKCS1", func(t *testing.T) {
		parsed, err := ParsePrivateKey(privatePKCS1)
		assert.NoError(t, err)
		assert.Equal(t, key.N, parsed.N)
	})

	t.Run("PKCS8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		pkcs8 := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

		parsed, err := ParsePrivateKey(pkcs8)
		assert.NoError(t, err)
		assert.Equal(t, key.N, parsed.N)
	})

	t.Run("NotPEM", func(t *testing.T) {
		_, err := ParsePrivateKey("plain text")
		assert.Error(t, err)
	})
}

func TestParsePublicKey(t *testing.T) {
	key, _, publicPKIX := generateKeyPEM(t)

	t.Run("PKIX", func(t *testing.T) {
		parsed, err := ParsePublicKey(publicPKIX)
		assert.NoError(t, err)
		assert.Equal(t, key.PublicKey.N, parsed.N)
	})

	t.Run("PKCS1", func(t *testing.T) {
		pkcs1 := string(pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PUBLIC KEY",
			Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey),
		}))
		parsed, err := ParsePublicKey(pkcs1)
		assert.NoError(t, err)
		assert.Equal(t, key.PublicKey.N, parsed.N)
	})

	t.Run("NotPEM", func(t *testing.T) {
		_, err := ParsePublicKey("plain text")
		assert.Error(t, err)
	})
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "60.00", FormatAmount(6000))
	assert.Equal(t, "123.45", FormatAmount(12345))
}
