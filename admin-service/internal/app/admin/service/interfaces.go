package service

import (
	"context"

	"admindash/admin-service/internal/app/admin/entity"

	"github.com/google/uuid"
)

type CategoryServiceInterface interface {
	List(ctx context.Context) ([]entity.AdminCategory, error)
	ListPublic(ctx context.Context) ([]entity.PublicCategory, error)
	Create(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.AdminCategory, error)
	Update(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.AdminCategory, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LocaleServiceInterface interface {
	List(ctx context.Context, query entity.ListQuery) (*entity.LocalePage, error)
	Create(ctx context.Context, actor entity.Actor, req *entity.CreateLocaleRequest) (*entity.LocaleView, error)
	Update(ctx context.Context, id uuid.UUID, req *entity.UpdateLocaleRequest) (*entity.LocaleView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RevealSecrets(ctx context.Context, id uuid.UUID, actor entity.Actor) (*entity.RevealSecretsResponse, error)
}

type UserServiceInterface interface {
	List(ctx context.Context, query entity.ListQuery) (*entity.UserPage, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.UserView, error)
	Create(ctx context.Context, req *entity.CreateUserRequest) (*entity.UserView, error)
	Update(ctx context.Context, id uuid.UUID, req *entity.UpdateUserRequest) (*entity.UserView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
