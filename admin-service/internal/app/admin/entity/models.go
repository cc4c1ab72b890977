package entity

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей админ-панели
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Типы событий категорий для Kafka
const (
	EventCategoryCreated = "CATEGORY_CREATED"
	EventCategoryUpdated = "CATEGORY_UPDATED"
	EventCategoryDeleted = "CATEGORY_DELETED"
)

// ActionDecryptLocaleSecrets - действие аудита при раскрытии секретов локали
const ActionDecryptLocaleSecrets = "DECRYPT_LOCALE_SECRETS"

// Category узел двухуровневой таксономии (PostgreSQL, pgx)
// Глубина хранения не ограничена, но в ответах дерево обрезается до двух уровней
type Category struct {
	ID             uuid.UUID  `json:"id"`
	CategoryID     *string    `json:"category_id,omitempty"`
	Name           string     `json:"name"`
	CategoryType   *string    `json:"category_type,omitempty"`
	Label          string     `json:"label"`
	LabelNlBe      *string    `json:"label_nl_be,omitempty"` // устаревшие локализованные метки
	LabelFrBe      *string    `json:"label_fr_be,omitempty"`
	LabelNlNl      *string    `json:"label_nl_nl,omitempty"`
	Description    *string    `json:"description,omitempty"`
	AITrainingData *string    `json:"ai_training_data,omitempty"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	ProductIDs     []string   `json:"product_ids"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Прямые потомки, заполняются репозиторием при чтении дерева
	Children []Category `json:"children,omitempty"`
}

// CategoryChanges набор колонок для частичного обновления категории
// nil-поле означает "не менять"; ClearParent отвязывает категорию от родителя
type CategoryChanges struct {
	Name           *string
	Label          *string
	CategoryID     **string
	CategoryType   **string
	Description    **string
	AITrainingData **string
	ParentID       *uuid.UUID
	ClearParent    bool
}

// Locale региональная конфигурация (PostgreSQL, GORM)
// Секреты BazaarVoice хранятся только в виде конвертов SecretCipher
type Locale struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code              string     `gorm:"type:varchar(32);not null;index:locales_code_lower_idx,unique,expression:lower(code)" json:"code"`
	DisplayName       string     `gorm:"type:varchar(255);not null" json:"displayName"`
	RegionalNames     StringList `gorm:"type:jsonb;not null" json:"regionalNames"`
	Description       *string    `gorm:"type:text" json:"description"`
	BazaarVoiceAPIKey *string    `gorm:"column:bazaar_voice_api_key;type:text" json:"-"`
	BVResponseAPIKey  *string    `gorm:"column:bv_response_api_key;type:text" json:"-"`
	BVClientSecret    *string    `gorm:"column:bv_client_secret;type:text" json:"-"`
	BVClientID        *string    `gorm:"column:bv_client_id;type:varchar(255)" json:"bvClientId"`
	BazaarVoiceClient *string    `gorm:"column:bazaar_voice_client;type:varchar(255)" json:"bazaarVoiceClient"`
	CreatedBy         *uuid.UUID `gorm:"type:uuid" json:"createdBy"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TableName указывает GORM имя таблицы
func (Locale) TableName() string {
	return "locales"
}

// User учетная запись админ-панели (PostgreSQL, GORM)
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         *string   `gorm:"type:varchar(255)" json:"name"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Role         string    `gorm:"type:varchar(32);not null;default:user" json:"role"`
	Image        *string   `gorm:"type:text" json:"image"`
	PasswordHash string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName указывает GORM имя таблицы
func (User) TableName() string {
	return "users"
}

// AuditRecord запись журнала доступа к секретам (MongoDB)
type AuditRecord struct {
	Action     string    `bson:"action" json:"action"`
	AdminUser  string    `bson:"admin_user" json:"adminUser"`
	AdminEmail string    `bson:"admin_email,omitempty" json:"adminEmail,omitempty"`
	LocaleID   string    `bson:"locale_id" json:"localeId"`
	LocaleCode string    `bson:"locale_code" json:"localeCode"`
	UserAgent  string    `bson:"user_agent" json:"userAgent"`
	IP         string    `bson:"ip" json:"ip"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// CategoryEvent событие изменения категории для Kafka
type CategoryEvent struct {
	EventType  string     `json:"event_type"`
	CategoryID uuid.UUID  `json:"category_id"`
	Name       string     `json:"name"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
