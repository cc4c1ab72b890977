package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/repository"
	"admindash/admin-service/internal/app/admin/util"

	"github.com/google/uuid"
)

// UserService управляет учетными записями админ-панели
// Хеш пароля не покидает сервис
type UserService struct {
	repo   repository.UserRepository
	hasher util.PasswordHasher
}

// NewUserService создает сервис пользователей
func NewUserService(repo repository.UserRepository, hasher util.PasswordHasher) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
	}
}

// List возвращает страницу пользователей с поиском по имени и email
func (s *UserService) List(ctx context.Context, query entity.ListQuery) (*entity.UserPage, error) {
	cursor, err := parseCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	limit := query.PageLimit()
	users, err := s.repo.List(ctx, strings.TrimSpace(query.Query), cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users, next := paginate(users, limit, func(u entity.User) uuid.UUID { return u.ID })

	views := make([]entity.UserView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}

	return &entity.UserPage{Users: views, NextCursor: next}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entity.UserView, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, "get")
	}

	view := toUserView(user)
	return &view, nil
}

// Create создает пользователя; роль по умолчанию user
func (s *UserService) Create(ctx context.Context, req *entity.CreateUserRequest) (*entity.UserView, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrUserCredentials
	}

	role := req.Role
	if role == "" {
		role = entity.RoleUser
	}
	if !validRole(role) {
		return nil, ErrInvalidBody
	}

	if err := s.ensureEmailAvailable(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New(),
		Name:         entity.OptionalString(req.Name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapUserError(err, "create")
	}

	view := toUserView(user)
	return &view, nil
}

// Update меняет имя, email, роль, аватар и пароль
// Последнего администратора нельзя понизить
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *entity.UpdateUserRequest) (*entity.UserView, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, "get")
	}

	changes := make(map[string]interface{})

	if req.Name.Set {
		changes["name"] = req.Name.TrimmedPtr()
	}

	if req.Image.Set {
		changes["image"] = req.Image.TrimmedPtr()
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, ErrInvalidBody
		}
		if email != user.Email {
			if err := s.ensureEmailAvailable(ctx, email, id); err != nil {
				return nil, err
			}
			changes["email"] = email
		}
	}

	if req.Role != nil {
		role := *req.Role
		if !validRole(role) {
			return nil, ErrInvalidBody
		}
		if user.Role == entity.RoleAdmin && role != entity.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx, ErrLastAdminDemotion); err != nil {
				return nil, err
			}
		}
		changes["role"] = role
	}

	if req.Password != nil {
		if *req.Password == "" {
			return nil, ErrInvalidBody
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes["password"] = hash
	}

	if len(changes) == 0 {
		view := toUserView(user)
		return &view, nil
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, mapUserError(err, "update")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, "get")
	}

	view := toUserView(updated)
	return &view, nil
}

// Delete удаляет пользователя; последнего администратора удалить нельзя
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapUserError(err, "get")
	}

	if user.Role == entity.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, ErrLastAdminDeletion); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapUserError(err, "delete")
	}
	return nil
}

func (s *UserService) ensureEmailAvailable(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check user email: %w", err)
	}
	if existing.ID != self {
		return ErrUserEmailTaken
	}
	return nil
}

// ensureAnotherAdmin возвращает guardErr, если администратор остался один
func (s *UserService) ensureAnotherAdmin(ctx context.Context, guardErr error) error {
	admins, err := s.repo.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return guardErr
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(role string) bool {
	return role == entity.RoleAdmin || role == entity.RoleUser
}

func mapUserError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrUserEmailTaken):
		return ErrUserEmailTaken
	}
	return fmt.Errorf("failed to %s user: %w", op, err)
}
