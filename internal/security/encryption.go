package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/shopbench/shopbench/internal/config"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
)

// EncryptionService encrypts integration credential bundles at rest
type EncryptionService interface {
	// Encrypt encrypts plaintext using AES-GCM
	Encrypt(plaintext string) (string, error)

	// Decrypt decrypts ciphertext using AES-GCM
	Decrypt(ciphertext string) (string, error)

	// EncryptJSON marshals v and encrypts the result
	EncryptJSON(v any) (string, error)

	// DecryptJSON decrypts ciphertext and unmarshals it into v
	DecryptJSON(ciphertext string, v any) error
}

type aesEncryptionService struct {
	key    []byte
	logger *logger.Logger
}

// NewEncryptionService creates a new encryption service using the master key from config
func NewEncryptionService(cfg *config.Configuration, logger *logger.Logger) (EncryptionService, error) {
	if cfg.Secrets.EncryptionKey == "" {
		return nil, ierr.NewError("master encryption key not configured").
			WithHint("Set secrets.encryption_key").
			Mark(ierr.ErrSystem)
	}

	// AES-256 needs exactly 32 bytes, any other length is hashed down
	key := []byte(cfg.Secrets.EncryptionKey)
	if len(key) != 32 {
		sum := sha256.Sum256(key)
		key = sum[:]
	}

	return &aesEncryptionService{
		key:    key,
		logger: logger,
	}, nil
}

func (s *aesEncryptionService) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to create cipher block").Mark(ierr.ErrSystem)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("failed to create GCM").Mark(ierr.ErrSystem)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext using AES-GCM and returns base64-encoded ciphertext
func (s *aesEncryptionService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ierr.WithError(err).WithMessage("failed to generate nonce").Mark(ierr.ErrSystem)
	}

	// nonce is prepended to the sealed payload
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext using AES-GCM
func (s *aesEncryptionService) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("failed to decode ciphertext").Mark(ierr.ErrSystem)
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(decoded) < nonceSize {
		return "", ierr.NewError("ciphertext too short").Mark(ierr.ErrSystem)
	}

	nonce, sealed := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("failed to decrypt ciphertext").Mark(ierr.ErrSystem)
	}

	return string(plaintext), nil
}

func (s *aesEncryptionService) EncryptJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("failed to marshal credentials").Mark(ierr.ErrSystem)
	}
	return s.Encrypt(string(raw))
}

func (s *aesEncryptionService) DecryptJSON(ciphertext string, v any) error {
	plaintext, err := s.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	if plaintext == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(plaintext), v); err != nil {
		return ierr.WithError(err).WithMessage("failed to unmarshal credentials").Mark(ierr.ErrSystem)
	}
	return nil
}
