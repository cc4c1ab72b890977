package repository

import (
	"context"
	"errors"

	"admindash/admin-service/internal/app/admin/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const serviceName = "admin-service"

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryNameTaken   = errors.New("category with this name already exists")
	ErrParentNotFound      = errors.New("parent category not found")
	ErrCategoryHasChildren = errors.New("category has subcategories")

	ErrLocaleNotFound  = errors.New("locale not found")
	ErrLocaleCodeTaken = errors.New("locale with this code already exists")

	ErrUserNotFound   = errors.New("user not found")
	ErrUserEmailTaken = errors.New("user with this email already exists")
)

// CategoryRepository хранилище дерева категорий
type CategoryRepository interface {
	// ListRoots возвращает корневые категории с прямыми потомками (created_at DESC)
	ListRoots(ctx context.Context) ([]entity.Category, error)
	// GetByID возвращает категорию с прямыми потомками
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetByName(ctx context.Context, name string) (*entity.Category, error)
	Create(ctx context.Context, category *entity.Category) error
	Update(ctx context.Context, id uuid.UUID, changes entity.CategoryChanges) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LocaleRepository хранилище локалей
type LocaleRepository interface {
	// List возвращает до limit записей с id > cursor, отсортированных по id
	List(ctx context.Context, query string, cursor *uuid.UUID, limit int) ([]entity.Locale, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Locale, error)
	GetByCode(ctx context.Context, code string) (*entity.Locale, error)
	Create(ctx context.Context, locale *entity.Locale) error
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository хранилище пользователей админ-панели
type UserRepository interface {
	List(ctx context.Context, query string, cursor *uuid.UUID, limit int) ([]entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context, role string) (int64, error)
}

// pgErrorCode возвращает код ошибки PostgreSQL или пустую строку
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation учитывает и сырую ошибку драйвера, и перевод GORM (TranslateError)
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation || errors.Is(err, gorm.ErrDuplicatedKey)
}
