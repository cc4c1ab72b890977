package util

import (
	"context"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
)

// CategoryTreeCache кеш публичного дерева категорий
type CategoryTreeCache interface {
	SetPublicTree(ctx context.Context, tree []entity.PublicCategory, ttl time.Duration) error
	// GetPublicTree возвращает nil, nil при промахе
	GetPublicTree(ctx context.Context) ([]entity.PublicCategory, error)
	DeletePublicTree(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// PasswordHasher хеширует и проверяет пароли пользователей
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Cipher шифрует секреты локалей; nil проходит насквозь
type Cipher interface {
	Encrypt(plaintext *string) (*string, error)
	// Decrypt возвращает nil для любого неподлинного конверта
	Decrypt(envelope *string) *string
}

// AuditRecorder фиксирует доступ к секретам
type AuditRecorder interface {
	Record(ctx context.Context, record entity.AuditRecord)
}
