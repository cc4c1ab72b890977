package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSize = 12 // Рекомендуемый размер nonce для GCM
	tagSize   = 16 // Размер тега аутентификации GCM

	envelopeSeparator = ":"
)

// Причины неудачной расшифровки (только для метрик и логов)
const (
	DecryptFailureFormat     = "format"
	DecryptFailureNonce      = "nonce"
	DecryptFailureTag        = "tag"
	DecryptFailureCiphertext = "ciphertext"
	DecryptFailureAuth       = "auth"
)

var ErrEmptySecret = errors.New("encryption secret is empty")

// DecryptFailureHook вызывается при каждой неудачной расшифровке непустого конверта
type DecryptFailureHook func(reason string)

// CipherOption настраивает SecretCipher
type CipherOption func(*SecretCipher)

// WithDecryptFailureHook подключает наблюдатель неудачных расшифровок
func WithDecryptFailureHook(hook DecryptFailureHook) CipherOption {
	return func(c *SecretCipher) {
		c.onFailure = hook
	}
}

// SecretCipher шифрует секреты локалей (ключи BazaarVoice) с помощью AES-256-GCM
// Конверт: hex(nonce):hex(tag):hex(ciphertext)
// Безопасен для конкурентного использования: хранит только ключ и AEAD
type SecretCipher struct {
	aead      cipher.AEAD
	onFailure DecryptFailureHook
}

// DeriveKey выводит 32-байтный ключ из секрета через SHA-256
func DeriveKey(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// NewSecretCipher выводит ключ один раз и готовит AEAD
func NewSecretCipher(secret string, opts ...CipherOption) (*SecretCipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := DeriveKey(secret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create aes cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	c := &SecretCipher{aead: aead}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt шифрует значение; nil остается nil
func (c *SecretCipher) Encrypt(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}

	envelope, err := c.EncryptString(*plaintext)
	if err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Decrypt расшифровывает конверт
// Любая ошибка (пустое значение, неверный формат, подмена) дает nil
func (c *SecretCipher) Decrypt(envelope *string) *string {
	if envelope == nil {
		return nil
	}

	plaintext, ok := c.DecryptString(*envelope)
	if !ok {
		return nil
	}
	return &plaintext
}

// EncryptString шифрует строку со свежим случайным nonce
// Пустая строка допустима: шифротекст в конверте будет пустым
func (c *SecretCipher) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal дописывает тег в конец шифротекста
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, envelopeSeparator), nil
}

// DecryptString возвращает исходную строку и true только для подлинного конверта
func (c *SecretCipher) DecryptString(envelope string) (string, bool) {
	if envelope == "" {
		return "", false
	}

	parts := strings.Split(envelope, envelopeSeparator)
	if len(parts) != 3 {
		return c.fail(DecryptFailureFormat)
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return c.fail(DecryptFailureNonce)
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return c.fail(DecryptFailureTag)
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return c.fail(DecryptFailureCiphertext)
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return c.fail(DecryptFailureAuth)
	}

	return string(plaintext), true
}

func (c *SecretCipher) fail(reason string) (string, bool) {
	if c.onFailure != nil {
		c.onFailure(reason)
	}
	return "", false
}
