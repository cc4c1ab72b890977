package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const localesTable = "locales"

// localeRepository реализует LocaleRepository через GORM
type localeRepository struct {
	db *gorm.DB
}

// NewLocaleRepository создает новый репозиторий локалей
func NewLocaleRepository(db *gorm.DB) LocaleRepository {
	return &localeRepository{db: db}
}

// List ищет по подстроке кода и названия без учета регистра
// и по точному совпадению одного из региональных названий
func (r *localeRepository) List(ctx context.Context, query string, cursor *uuid.UUID, limit int) ([]entity.Locale, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, localesTable).ObserveDuration()

	tx := r.db.WithContext(ctx).Model(&entity.Locale{})
	if query != "" {
		pattern := "%" + escapeLike(query) + "%"
		tx = tx.Where("code ILIKE ? OR display_name ILIKE ? OR regional_names @> ?::jsonb",
			pattern, pattern, jsonArrayOf(query))
	}
	if cursor != nil {
		tx = tx.Where("id > ?", *cursor)
	}

	var locales []entity.Locale
	if err := tx.Order("id ASC").Limit(limit).Find(&locales).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}

	return locales, nil
}

func (r *localeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Locale, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, localesTable).ObserveDuration()

	var locale entity.Locale
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&locale)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrLocaleNotFound
		}
		return nil, fmt.Errorf("failed to get locale: %w", result.Error)
	}

	return &locale, nil
}

// GetByCode ищет локаль по коду без учета регистра
func (r *localeRepository) GetByCode(ctx context.Context, code string) (*entity.Locale, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, localesTable).ObserveDuration()

	var locale entity.Locale
	result := r.db.WithContext(ctx).Where("lower(code) = lower(?)", code).First(&locale)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrLocaleNotFound
		}
		return nil, fmt.Errorf("failed to get locale by code: %w", result.Error)
	}

	return &locale, nil
}

func (r *localeRepository) Create(ctx context.Context, locale *entity.Locale) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, localesTable).ObserveDuration()

	if err := r.db.WithContext(ctx).Create(locale).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrLocaleCodeTaken
		}
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create locale: %w", err)
	}

	return nil
}

// Update точечно обновляет переданные колонки (updated_at GORM ставит сам)
func (r *localeRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, localesTable).ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Locale{}).
		Where("id = ?", id).
		Updates(changes)

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrLocaleCodeTaken
		}
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update locale: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrLocaleNotFound
	}

	return nil
}

func (r *localeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpDelete, localesTable).ObserveDuration()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Locale{})
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return fmt.Errorf("failed to delete locale: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrLocaleNotFound
	}

	return nil
}

// escapeLike экранирует спецсимволы шаблона LIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// jsonArrayOf кодирует строку как JSON-массив из одного элемента для оператора @>
func jsonArrayOf(s string) string {
	data, _ := json.Marshal([]string{s})
	return string(data)
}
