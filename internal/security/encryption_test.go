package security

import (
	"testing"

	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	AccessToken string `json:"access_token"`
	LocationID  string `json:"location_id"`
}

func newService(t *testing.T) EncryptionService {
	svc, err := NewEncryptionService(config.GetDefaultConfig(), logger.NewNoopLogger())
	require.NoError(t, err)
	return svc
}

func TestEncryptDecrypt(t *testing.T) {
	svc := newService(t)

	ciphertext, err := svc.Encrypt("sq0atp-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "sq0atp-secret", ciphertext)

	plaintext, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "sq0atp-secret", plaintext)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	svc := newService(t)

	a, err := svc.Encrypt("same")
	require.NoError(t, err)
	b, err := svc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptJSON(t *testing.T) {
	svc := newService(t)

	ciphertext, err := svc.EncryptJSON(credentials{AccessToken: "tok", LocationID: "L1"})
	require.NoError(t, err)

	var out credentials
	require.NoError(t, svc.DecryptJSON(ciphertext, &out))
	assert.Equal(t, "tok", out.AccessToken)
	assert.Equal(t, "L1", out.LocationID)
}

func TestDecryptWithOtherKeyFails(t *testing.T) {
	svc := newService(t)
	ciphertext, err := svc.Encrypt("secret")
	require.NoError(t, err)

	cfg := config.GetDefaultConfig()
	cfg.Secrets.EncryptionKey = "another-key"
	other, err := NewEncryptionService(cfg, logger.NewNoopLogger())
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestMissingKey(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Secrets.EncryptionKey = ""
	_, err := NewEncryptionService(cfg, logger.NewNoopLogger())
	assert.Error(t, err)
}
