package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrEncryptionKeyNotConfigured - ни один из источников ключа шифрования не задан
// Это ошибка запуска: без ключа сервис не должен стартовать
var ErrEncryptionKeyNotConfigured = errors.New("encryption key not configured (set LOCALE_ENCRYPTION_KEY or NEXTAUTH_SECRET)")

// EncryptionKeySources - переменные окружения, из которых берется секрет для ключа
// Порядок менять нельзя: другой источник даст другой ключ,
// и уже зашифрованные секреты локалей перестанут расшифровываться
var EncryptionKeySources = []string{"LOCALE_ENCRYPTION_KEY", "NEXTAUTH_SECRET", "SESSION_SECRET"}

// ErrJWTSecretNotConfigured - JWT_SECRET не задан в production
// Значение по умолчанию публично, токен с ним может подписать кто угодно
var ErrJWTSecretNotConfigured = errors.New("JWT_SECRET must be set in production")

const (
	EnvProduction = "production"

	defaultJWTSecret = "your-secret-key-change-this-in-production"
)

// Config содержит все настройки Admin Service
type Config struct {
	Environment string // APP_ENV: development, test, production
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	MongoDB     MongoDBConfig
	JWT         JWTConfig
	Secrets     SecretsConfig
	Cron        CronConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host        string
	Port        string
	CORSOrigins []string // Разрешенные источники для админ-панели
}

// DatabaseConfig - PostgreSQL (категории, локали, пользователи)
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - кеш публичного дерева категорий
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TreeTTL  time.Duration // Время жизни закешированного дерева
}

// KafkaConfig - события CATEGORY_CREATED, CATEGORY_UPDATED, CATEGORY_DELETED
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MongoDBConfig - журнал аудита раскрытия секретов
// Пустой URI отключает запись аудита в MongoDB
type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
}

// JWTConfig - проверка токенов внешнего identity provider
type JWTConfig struct {
	Secret string
}

// SecretsConfig - секрет для вывода ключа AES-256-GCM
type SecretsConfig struct {
	EncryptionSecret string // Первый непустой из EncryptionKeySources
	Source           string // Имя переменной, из которой взят секрет (для логов)
}

// CronConfig - расписание перестроения кеша дерева категорий
type CronConfig struct {
	CategoryRefreshSchedule string
}

// Load загружает конфигурацию из переменных окружения
// Возвращает ErrEncryptionKeyNotConfigured, если ключ шифрования не задан
func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	treeTTL, err := time.ParseDuration(getEnv("REDIS_TREE_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TREE_TTL value: %w", err)
	}

	secret, source, ok := firstNonEmpty(EncryptionKeySources)
	if !ok {
		return nil, ErrEncryptionKeyNotConfigured
	}

	environment := getEnv("APP_ENV", "development")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if environment == EnvProduction {
			return nil, ErrJWTSecretNotConfigured
		}
		jwtSecret = defaultJWTSecret
	}

	return &Config{
		Environment: environment,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnv("SERVER_PORT", "8085"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "admin_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TreeTTL:  treeTTL,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "category_events"),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Database:   getEnv("MONGODB_DATABASE", "admin_audit"),
			Collection: getEnv("MONGODB_AUDIT_COLLECTION", "secret_access"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Secrets: SecretsConfig{
			EncryptionSecret: secret,
			Source:           source,
		},
		Cron: CronConfig{
			CategoryRefreshSchedule: getEnv("CRON_CATEGORY_REFRESH", "@every 10m"),
		},
	}, nil
}

// IsProduction сообщает, запущен ли сервис в production
// Вне production раскрытие секретов дополнительно пишется в лог
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// DSN возвращает строку подключения к PostgreSQL в формате URL (pgx и gorm)
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// firstNonEmpty возвращает значение первой непустой переменной из списка
func firstNonEmpty(keys []string) (value, key string, ok bool) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v, k, true
		}
	}
	return "", "", false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
