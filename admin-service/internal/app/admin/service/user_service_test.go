package service

import (
	"context"
	"errors"
	"testing"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/repository"
	"admindash/admin-service/internal/app/admin/repository/mocks"
	"admindash/admin-service/internal/app/admin/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService() (*UserService, *mocks.MockUserRepository, *util.BcryptHasher) {
	repo := new(mocks.MockUserRepository)
	hasher := util.NewBcryptHasher(bcrypt.MinCost)
	return NewUserService(repo, hasher), repo, hasher
}

func newTestUser(role string) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Name:         strPtr("Jane"),
		Email:        "jane@example.com",
		Role:         role,
		PasswordHash: "$2a$04$hash",
	}
}

// ==================== Create ====================

func TestUserService_Create_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service, repo, hasher := newUserService()

	var saved *entity.User
	repo.On("GetByEmail", ctx, "jane@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*entity.User)
	})

	// Act
	user, err := service.Create(ctx, &entity.CreateUserRequest{
		Email:    " Jane@Example.com ",
		Password: "s3cret!",
		Name:     strPtr(" Jane "),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, "Jane", *user.Name)

	require.NotNil(t, saved)
	assert.NotEqual(t, "s3cret!", saved.PasswordHash)
	assert.True(t, hasher.Compare(saved.PasswordHash, "s3cret!"))
}

func TestUserService_Create_MissingCredentials(t *testing.T) {
	service, repo, _ := newUserService()

	_, err := service.Create(context.Background(), &entity.CreateUserRequest{Email: " ", Password: "x"})
	assert.ErrorIs(t, err, ErrUserCredentials)

	_, err = service.Create(context.Background(), &entity.CreateUserRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrUserCredentials)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	repo.On("GetByEmail", ctx, "jane@example.com").Return(newTestUser(entity.RoleUser), nil)

	user, err := service.Create(ctx, &entity.CreateUserRequest{Email: "jane@example.com", Password: "secret1"})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserEmailTaken)
	assert.Equal(t, "Email already exists", err.Error())
}

func TestUserService_Create_DuplicateEmailFromConstraint(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	repo.On("GetByEmail", ctx, "jane@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrUserEmailTaken)

	user, err := service.Create(ctx, &entity.CreateUserRequest{Email: "jane@example.com", Password: "secret1"})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserEmailTaken)
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	service, _, _ := newUserService()

	user, err := service.Create(context.Background(), &entity.CreateUserRequest{
		Email: "jane@example.com", Password: "secret1", Role: "root",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrInvalidBody)
}

// ==================== Update ====================

func TestUserService_Update_CannotDemoteLastAdmin(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	admin := newTestUser(entity.RoleAdmin)
	repo.On("GetByID", ctx, admin.ID).Return(admin, nil)
	repo.On("CountByRole", ctx, entity.RoleAdmin).Return(int64(1), nil)

	user, err := service.Update(ctx, admin.ID, &entity.UpdateUserRequest{Role: strPtr(entity.RoleUser)})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrLastAdminDemotion)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Update_DemoteWhenAnotherAdminExists(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	admin := newTestUser(entity.RoleAdmin)
	demoted := *admin
	demoted.Role = entity.RoleUser

	repo.On("GetByID", ctx, admin.ID).Return(admin, nil).Once()
	repo.On("CountByRole", ctx, entity.RoleAdmin).Return(int64(2), nil)
	repo.On("Update", ctx, admin.ID, map[string]interface{}{"role": entity.RoleUser}).Return(nil)
	repo.On("GetByID", ctx, admin.ID).Return(&demoted, nil).Once()

	user, err := service.Update(ctx, admin.ID, &entity.UpdateUserRequest{Role: strPtr(entity.RoleUser)})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)
	repo.AssertExpectations(t)
}

func TestUserService_Update_PasswordIsHashed(t *testing.T) {
	ctx := context.Background()
	service, repo, hasher := newUserService()
	user := newTestUser(entity.RoleUser)

	var changes map[string]interface{}
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("Update", ctx, user.ID, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		changes = args.Get(2).(map[string]interface{})
	})

	_, err := service.Update(ctx, user.ID, &entity.UpdateUserRequest{
		Password: strPtr("new-password"),
		Name:     entity.Null(),
	})

	require.NoError(t, err)
	hash, ok := changes["password"].(string)
	require.True(t, ok)
	assert.True(t, hasher.Compare(hash, "new-password"))
	name, ok := changes["name"].(*string)
	require.True(t, ok)
	assert.Nil(t, name)
}

func TestUserService_Update_EmailTaken(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	user := newTestUser(entity.RoleUser)
	other := newTestUser(entity.RoleUser)
	other.Email = "john@example.com"

	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("GetByEmail", ctx, "john@example.com").Return(other, nil)

	view, err := service.Update(ctx, user.ID, &entity.UpdateUserRequest{Email: strPtr("John@example.com")})

	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrUserEmailTaken)
}

func TestUserService_Update_NoChangesReturnsCurrent(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	user := newTestUser(entity.RoleUser)
	repo.On("GetByID", ctx, user.ID).Return(user, nil)

	view, err := service.Update(ctx, user.ID, &entity.UpdateUserRequest{Email: strPtr("JANE@example.com")})

	require.NoError(t, err)
	assert.Equal(t, user.Email, view.Email)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, repository.ErrUserNotFound)

	view, err := service.Update(ctx, id, &entity.UpdateUserRequest{Name: entity.NewNullString("X")})

	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ==================== Delete ====================

func TestUserService_Delete_CannotDeleteLastAdmin(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	admin := newTestUser(entity.RoleAdmin)
	repo.On("GetByID", ctx, admin.ID).Return(admin, nil)
	repo.On("CountByRole", ctx, entity.RoleAdmin).Return(int64(1), nil)

	err := service.Delete(ctx, admin.ID)

	assert.ErrorIs(t, err, ErrLastAdminDeletion)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_Delete_RegularUser(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	user := newTestUser(entity.RoleUser)
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("Delete", ctx, user.ID).Return(nil)

	require.NoError(t, service.Delete(ctx, user.ID))
	repo.AssertNotCalled(t, "CountByRole", mock.Anything, mock.Anything)
}

func TestUserService_Delete_CountError(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	admin := newTestUser(entity.RoleAdmin)
	repo.On("GetByID", ctx, admin.ID).Return(admin, nil)
	repo.On("CountByRole", ctx, entity.RoleAdmin).Return(int64(0), errors.New("db error"))

	err := service.Delete(ctx, admin.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count admins")
}

// ==================== List / Get ====================

func TestUserService_List_HidesPasswordHash(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	repo.On("List", ctx, "jane", (*uuid.UUID)(nil), entity.DefaultPageLimit+1).
		Return([]entity.User{*newTestUser(entity.RoleAdmin)}, nil)

	page, err := service.List(ctx, entity.ListQuery{Query: "jane"})

	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "jane@example.com", page.Users[0].Email)
	assert.Nil(t, page.NextCursor)
}

func TestUserService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newUserService()
	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, repository.ErrUserNotFound)

	view, err := service.Get(ctx, id)

	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
