package repository

import (
	"context"
	"errors"
	"fmt"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const usersTable = "users"

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context, query string, cursor *uuid.UUID, limit int) ([]entity.User, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable).ObserveDuration()

	tx := r.db.WithContext(ctx).Model(&entity.User{})
	if query != "" {
		pattern := "%" + escapeLike(query) + "%"
		tx = tx.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if cursor != nil {
		tx = tx.Where("id > ?", *cursor)
	}

	var users []entity.User
	if err := tx.Order("id ASC").Limit(limit).Find(&users).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable).ObserveDuration()

	var user entity.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", result.Error)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable).ObserveDuration()

	var user entity.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", result.Error)
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, usersTable).ObserveDuration()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserEmailTaken
		}
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, usersTable).ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(changes)

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrUserEmailTaken
		}
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpDelete, usersTable).ObserveDuration()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{})
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// CountByRole считает пользователей с ролью (защита последнего администратора)
func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable).ObserveDuration()

	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}
