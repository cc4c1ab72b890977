package mocks

import (
	"context"
	"time"

	"admindash/admin-service/internal/app/admin/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCategoryRepository мок для CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListRoots(ctx context.Context) ([]entity.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, id uuid.UUID, changes entity.CategoryChanges) error {
	args := m.Called(ctx, id, changes)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLocaleRepository мок для LocaleRepository
type MockLocaleRepository struct {
	mock.Mock
}

func (m *MockLocaleRepository) List(ctx context.Context, query string, cursor *uuid.UUID, limit int) ([]entity.Locale, error) {
	args := m.Called(ctx, query, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Locale), args.Error(1)
}

func (m *MockLocaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Locale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Locale), args.Error(1)
}

func (m *MockLocaleRepository) GetByCode(ctx context.Context, code string) (*entity.Locale, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Locale), args.Error(1)
}

func (m *MockLocaleRepository) Create(ctx context.Context, locale *entity.Locale) error {
	args := m.Called(ctx, locale)
	return args.Error(0)
}

func (m *MockLocaleRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	args := m.Called(ctx, id, changes)
	return args.Error(0)
}

func (m *MockLocaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository мок для UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context, query string, cursor *uuid.UUID, limit int) ([]entity.User, error) {
	args := m.Called(ctx, query, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	args := m.Called(ctx, id, changes)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

// MockCategoryTreeCache мок для кеша дерева категорий
type MockCategoryTreeCache struct {
	mock.Mock
}

func (m *MockCategoryTreeCache) SetPublicTree(ctx context.Context, tree []entity.PublicCategory, ttl time.Duration) error {
	args := m.Called(ctx, tree, ttl)
	return args.Error(0)
}

func (m *MockCategoryTreeCache) GetPublicTree(ctx context.Context) ([]entity.PublicCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PublicCategory), args.Error(1)
}

func (m *MockCategoryTreeCache) DeletePublicTree(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCategoryTreeCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMessagePublisher мок для Kafka MessagePublisher
// Сохраняет отправленные сообщения для проверки в тестах
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAuditSink мок для приемника аудита
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Write(ctx context.Context, record entity.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
