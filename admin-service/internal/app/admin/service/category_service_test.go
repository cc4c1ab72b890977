package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/repository"
	"admindash/admin-service/internal/app/admin/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCategoryRepository хранилище в памяти с теми же ограничениями, что и таблица categories
type fakeCategoryRepository struct {
	items []entity.Category // порядок вставки
}

func (r *fakeCategoryRepository) find(id uuid.UUID) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *fakeCategoryRepository) childrenOf(id uuid.UUID) []entity.Category {
	children := []entity.Category{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if p := r.items[i].ParentID; p != nil && *p == id {
			children = append(children, r.items[i])
		}
	}
	return children
}

func (r *fakeCategoryRepository) ListRoots(_ context.Context) ([]entity.Category, error) {
	roots := []entity.Category{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].ParentID == nil {
			root := r.items[i]
			root.Children = r.childrenOf(root.ID)
			roots = append(roots, root)
		}
	}
	return roots, nil
}

func (r *fakeCategoryRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	idx := r.find(id)
	if idx < 0 {
		return nil, repository.ErrCategoryNotFound
	}
	category := r.items[idx]
	category.Children = r.childrenOf(id)
	return &category, nil
}

func (r *fakeCategoryRepository) GetByName(_ context.Context, name string) (*entity.Category, error) {
	for i := range r.items {
		if r.items[i].Name == name {
			category := r.items[i]
			return &category, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (r *fakeCategoryRepository) Create(_ context.Context, category *entity.Category) error {
	for i := range r.items {
		if r.items[i].Name == category.Name {
			return repository.ErrCategoryNameTaken
		}
	}
	if category.ParentID != nil && r.find(*category.ParentID) < 0 {
		return repository.ErrParentNotFound
	}
	r.items = append(r.items, *category)
	return nil
}

func (r *fakeCategoryRepository) Update(_ context.Context, id uuid.UUID, changes entity.CategoryChanges) error {
	idx := r.find(id)
	if idx < 0 {
		return repository.ErrCategoryNotFound
	}
	c := &r.items[idx]
	if changes.Name != nil {
		c.Name = *changes.Name
	}
	if changes.Label != nil {
		c.Label = *changes.Label
	}
	if changes.Description != nil {
		c.Description = *changes.Description
	}
	switch {
	case changes.ClearParent:
		c.ParentID = nil
	case changes.ParentID != nil:
		if r.find(*changes.ParentID) < 0 {
			return repository.ErrParentNotFound
		}
		c.ParentID = changes.ParentID
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeCategoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	idx := r.find(id)
	if idx < 0 {
		return repository.ErrCategoryNotFound
	}
	if len(r.childrenOf(id)) > 0 {
		return repository.ErrCategoryHasChildren
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	return nil
}

// Хелперы

func strPtr(s string) *string {
	return &s
}

func newTestCategory(name string) *entity.Category {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return &entity.Category{
		ID:         uuid.New(),
		Name:       name,
		Label:      name,
		ProductIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type categoryDeps struct {
	repo      *mocks.MockCategoryRepository
	cache     *mocks.MockCategoryTreeCache
	publisher *mocks.MockMessagePublisher
}

func newCategoryService() (*CategoryService, categoryDeps) {
	deps := categoryDeps{
		repo:      new(mocks.MockCategoryRepository),
		cache:     new(mocks.MockCategoryTreeCache),
		publisher: new(mocks.MockMessagePublisher),
	}
	return NewCategoryService(deps.repo, deps.cache, deps.publisher, time.Hour), deps
}

// expectSideEffects разрешает сброс кеша и публикацию события
func (d categoryDeps) expectSideEffects() {
	d.cache.On("DeletePublicTree", mock.Anything).Return(nil)
	d.publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func newInMemoryCategoryService() *CategoryService {
	cache := new(mocks.MockCategoryTreeCache)
	cache.On("DeletePublicTree", mock.Anything).Return(nil).Maybe()
	publisher := new(mocks.MockMessagePublisher)
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewCategoryService(&fakeCategoryRepository{}, cache, publisher, time.Hour)
}

// ==================== Create ====================

func TestCategoryService_Create_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service, deps := newCategoryService()

	deps.repo.On("GetByName", ctx, "Audio").Return(nil, repository.ErrCategoryNotFound)
	deps.repo.On("Create", ctx, mock.MatchedBy(func(c *entity.Category) bool {
		return c.Name == "Audio" && c.Label == "Audio" &&
			c.LabelNlBe != nil && *c.LabelNlBe == "Audio" &&
			c.LabelFrBe != nil && *c.LabelFrBe == "Audio" &&
			c.LabelNlNl != nil && *c.LabelNlNl == "Audio" &&
			c.Description == nil && c.ParentID == nil
	})).Return(nil)
	deps.expectSideEffects()

	// Act
	category, err := service.Create(ctx, &entity.CreateCategoryRequest{
		Name:        "  Audio ",
		Label:       " Audio",
		Description: strPtr("   "),
		CategoryID:  strPtr(" AUD-1 "),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Audio", category.Name)
	assert.Equal(t, "Audio", category.Label)
	assert.Equal(t, "AUD-1", *category.CategoryID)
	assert.Nil(t, category.Description)
	assert.Nil(t, category.ParentID)
	assert.NotNil(t, category.ProductIDs)
	assert.Empty(t, category.ProductIDs)
	assert.NotNil(t, category.Subcategories)
	assert.Empty(t, category.Subcategories)

	require.Len(t, deps.publisher.Messages, 1)
	var event entity.CategoryEvent
	require.NoError(t, json.Unmarshal(deps.publisher.Messages[0], &event))
	assert.Equal(t, entity.EventCategoryCreated, event.EventType)
	assert.Equal(t, category.ID, event.CategoryID.String())

	deps.repo.AssertExpectations(t)
	deps.cache.AssertExpectations(t)
}

func TestCategoryService_Create_RequiresNameAndLabel(t *testing.T) {
	tests := map[string]entity.CreateCategoryRequest{
		"empty name":      {Name: "", Label: "Audio"},
		"blank name":      {Name: "   ", Label: "Audio"},
		"empty label":     {Name: "Audio", Label: ""},
		"blank label":     {Name: "Audio", Label: "\t "},
		"nothing at all":  {},
		"whitespace only": {Name: " ", Label: " "},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			service, deps := newCategoryService()

			category, err := service.Create(context.Background(), &req)

			assert.Nil(t, category)
			assert.ErrorIs(t, err, ErrInvalidBody)
			assert.ErrorIs(t, err, ErrValidation)
			deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCategoryService_Create_DuplicateNameFromPrecheck(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("GetByName", ctx, "Televisions").Return(newTestCategory("Televisions"), nil)

	// Act
	category, err := service.Create(ctx, &entity.CreateCategoryRequest{
		Name:         "Televisions",
		Label:        "Something else",
		CategoryType: strPtr("product"),
	})

	// Assert
	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrCategoryNameTaken)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Category name must be unique", err.Error())
	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryService_Create_DuplicateNameFromConstraint(t *testing.T) {
	// Параллельный запрос успел создать категорию после проверки
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("GetByName", ctx, "Televisions").Return(nil, repository.ErrCategoryNotFound)
	deps.repo.On("Create", ctx, mock.Anything).Return(repository.ErrCategoryNameTaken)

	category, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "Televisions", Label: "TV"})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrCategoryNameTaken)
	deps.cache.AssertNotCalled(t, "DeletePublicTree", mock.Anything)
	assert.Empty(t, deps.publisher.Messages)
}

func TestCategoryService_Create_MissingParent(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("GetByName", ctx, "Soundbars").Return(nil, repository.ErrCategoryNotFound)
	deps.repo.On("Create", ctx, mock.Anything).Return(repository.ErrParentNotFound)

	category, err := service.Create(ctx, &entity.CreateCategoryRequest{
		Name:     "Soundbars",
		Label:    "Soundbars",
		ParentID: strPtr(uuid.NewString()),
	})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestCategoryService_Create_MalformedParentID(t *testing.T) {
	service, deps := newCategoryService()

	category, err := service.Create(context.Background(), &entity.CreateCategoryRequest{
		Name:     "Soundbars",
		Label:    "Soundbars",
		ParentID: strPtr("not-a-uuid"),
	})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrParentNotFound)
	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryService_Create_BlankParentIDMeansRoot(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("GetByName", ctx, "Audio").Return(nil, repository.ErrCategoryNotFound)
	deps.repo.On("Create", ctx, mock.MatchedBy(func(c *entity.Category) bool {
		return c.ParentID == nil
	})).Return(nil)
	deps.expectSideEffects()

	category, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "Audio", Label: "Audio", ParentID: strPtr("  ")})

	require.NoError(t, err)
	assert.Nil(t, category.ParentID)
}

func TestCategoryService_Create_SideEffectErrorsIgnored(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("GetByName", ctx, "Audio").Return(nil, repository.ErrCategoryNotFound)
	deps.repo.On("Create", ctx, mock.Anything).Return(nil)
	deps.cache.On("DeletePublicTree", ctx).Return(errors.New("redis error"))
	deps.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka error"))

	category, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "Audio", Label: "Audio"})

	require.NoError(t, err)
	assert.Equal(t, "Audio", category.Name)
}

func TestCategoryService_Create_RepoError(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("GetByName", ctx, "Audio").Return(nil, repository.ErrCategoryNotFound)
	deps.repo.On("Create", ctx, mock.Anything).Return(errors.New("db error"))

	category, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "Audio", Label: "Audio"})

	assert.Nil(t, category)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create category")
	assert.False(t, errors.Is(err, ErrValidation))
}

// ==================== Update ====================

func TestCategoryService_Update_NoChanges(t *testing.T) {
	service, deps := newCategoryService()

	category, err := service.Update(context.Background(), uuid.New(), &entity.UpdateCategoryRequest{})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, "No changes supplied", err.Error())
	deps.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_Update_SelfParent(t *testing.T) {
	service, deps := newCategoryService()
	id := uuid.New()

	category, err := service.Update(context.Background(), id, &entity.UpdateCategoryRequest{
		ParentID: entity.NewNullString(id.String()),
	})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrSelfParent)
	deps.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_Update_EmptyNameOrLabel(t *testing.T) {
	tests := map[string]entity.UpdateCategoryRequest{
		"blank name":  {Name: entity.NewNullString("  ")},
		"null name":   {Name: entity.Null()},
		"blank label": {Label: entity.NewNullString("")},
		"null label":  {Label: entity.Null()},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			service, _ := newCategoryService()

			category, err := service.Update(context.Background(), uuid.New(), &req)

			assert.Nil(t, category)
			assert.ErrorIs(t, err, ErrInvalidBody)
		})
	}
}

func TestCategoryService_Update_OnlyDescription(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service, deps := newCategoryService()

	parentID := uuid.New()
	existing := newTestCategory("QLED TVs")
	existing.ParentID = &parentID
	existing.Description = strPtr("Quantum dot panels")

	deps.repo.On("Update", ctx, existing.ID, mock.MatchedBy(func(c entity.CategoryChanges) bool {
		return c.Name == nil && c.Label == nil && c.ParentID == nil && !c.ClearParent &&
			c.CategoryID == nil && c.Description != nil && *c.Description != nil &&
			**c.Description == "Quantum dot panels"
	})).Return(nil)
	deps.repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	deps.expectSideEffects()

	// Act
	category, err := service.Update(ctx, existing.ID, &entity.UpdateCategoryRequest{
		Description: entity.NewNullString(" Quantum dot panels "),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "QLED TVs", category.Name)
	assert.Equal(t, "QLED TVs", category.Label)
	assert.Equal(t, parentID.String(), *category.ParentID)
	deps.repo.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
	deps.repo.AssertExpectations(t)
}

func TestCategoryService_Update_NullOptionalFieldClears(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	existing := newTestCategory("Audio")

	deps.repo.On("Update", ctx, existing.ID, mock.MatchedBy(func(c entity.CategoryChanges) bool {
		return c.AITrainingData != nil && *c.AITrainingData == nil
	})).Return(nil)
	deps.repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	deps.expectSideEffects()

	_, err := service.Update(ctx, existing.ID, &entity.UpdateCategoryRequest{AITrainingData: entity.Null()})

	require.NoError(t, err)
	deps.repo.AssertExpectations(t)
}

func TestCategoryService_Update_DetachToRoot(t *testing.T) {
	for name, parent := range map[string]entity.NullString{
		"null":  entity.Null(),
		"empty": entity.NewNullString(""),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			service, deps := newCategoryService()
			existing := newTestCategory("Soundbars")

			deps.repo.On("Update", ctx, existing.ID, mock.MatchedBy(func(c entity.CategoryChanges) bool {
				return c.ClearParent && c.ParentID == nil
			})).Return(nil)
			deps.repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
			deps.expectSideEffects()

			category, err := service.Update(ctx, existing.ID, &entity.UpdateCategoryRequest{ParentID: parent})

			require.NoError(t, err)
			assert.Nil(t, category.ParentID)
			deps.repo.AssertExpectations(t)
		})
	}
}

func TestCategoryService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	id := uuid.New()
	deps.repo.On("Update", ctx, id, mock.Anything).Return(repository.ErrCategoryNotFound)

	category, err := service.Update(ctx, id, &entity.UpdateCategoryRequest{Description: entity.Null()})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryService_Update_DuplicateName(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	id := uuid.New()
	deps.repo.On("GetByName", ctx, "Televisions").Return(newTestCategory("Televisions"), nil)

	category, err := service.Update(ctx, id, &entity.UpdateCategoryRequest{Name: entity.NewNullString("Televisions")})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrCategoryNameTaken)
}

func TestCategoryService_Update_KeepOwnName(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	existing := newTestCategory("Televisions")
	deps.repo.On("GetByName", ctx, "Televisions").Return(existing, nil)
	deps.repo.On("Update", ctx, existing.ID, mock.Anything).Return(nil)
	deps.repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	deps.expectSideEffects()

	category, err := service.Update(ctx, existing.ID, &entity.UpdateCategoryRequest{Name: entity.NewNullString("Televisions")})

	require.NoError(t, err)
	assert.Equal(t, "Televisions", category.Name)
}

func TestCategoryService_Update_MissingParent(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	parentID := uuid.New()
	deps.repo.On("GetByID", ctx, parentID).Return(nil, repository.ErrCategoryNotFound)

	category, err := service.Update(ctx, uuid.New(), &entity.UpdateCategoryRequest{
		ParentID: entity.NewNullString(parentID.String()),
	})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestCategoryService_Update_ParentCycle(t *testing.T) {
	// A -> B; перенос A под B образовал бы цикл
	ctx := context.Background()
	service, deps := newCategoryService()
	a := newTestCategory("A")
	b := newTestCategory("B")
	b.ParentID = &a.ID
	deps.repo.On("GetByID", ctx, b.ID).Return(b, nil)

	category, err := service.Update(ctx, a.ID, &entity.UpdateCategoryRequest{
		ParentID: entity.NewNullString(b.ID.String()),
	})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrParentCycle)
	deps.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_Update_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	existing := newTestCategory("Audio")
	deps.repo.On("Update", ctx, existing.ID, mock.Anything).Return(nil)
	deps.repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	deps.cache.On("DeletePublicTree", ctx).Return(nil)
	deps.publisher.On("PublishMessage", ctx, existing.ID.String(), mock.Anything).Return(nil)

	_, err := service.Update(ctx, existing.ID, &entity.UpdateCategoryRequest{Label: entity.NewNullString("Sound")})

	require.NoError(t, err)
	require.Len(t, deps.publisher.Messages, 1)
	var event entity.CategoryEvent
	require.NoError(t, json.Unmarshal(deps.publisher.Messages[0], &event))
	assert.Equal(t, entity.EventCategoryUpdated, event.EventType)
	deps.cache.AssertExpectations(t)
}

// ==================== Delete ====================

func TestCategoryService_Delete_WithChildren(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	tv := newTestCategory("Televisions")
	child := newTestCategory("QLED TVs")
	child.ParentID = &tv.ID
	tv.Children = []entity.Category{*child}
	deps.repo.On("GetByID", ctx, tv.ID).Return(tv, nil)

	err := service.Delete(ctx, tv.ID)

	assert.ErrorIs(t, err, ErrHasSubcategories)
	assert.Equal(t, "Remove subcategories first", err.Error())
	deps.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCategoryService_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	id := uuid.New()
	deps.repo.On("GetByID", ctx, id).Return(nil, repository.ErrCategoryNotFound)

	err := service.Delete(ctx, id)

	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_Delete_ChildAddedConcurrently(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	tv := newTestCategory("Televisions")
	deps.repo.On("GetByID", ctx, tv.ID).Return(tv, nil)
	deps.repo.On("Delete", ctx, tv.ID).Return(repository.ErrCategoryHasChildren)

	err := service.Delete(ctx, tv.ID)

	assert.ErrorIs(t, err, ErrHasSubcategories)
}

func TestCategoryService_Delete_Success(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	tv := newTestCategory("Televisions")
	deps.repo.On("GetByID", ctx, tv.ID).Return(tv, nil)
	deps.repo.On("Delete", ctx, tv.ID).Return(nil)
	deps.expectSideEffects()

	err := service.Delete(ctx, tv.ID)

	require.NoError(t, err)
	require.Len(t, deps.publisher.Messages, 1)
	var event entity.CategoryEvent
	require.NoError(t, json.Unmarshal(deps.publisher.Messages[0], &event))
	assert.Equal(t, entity.EventCategoryDeleted, event.EventType)
	assert.Equal(t, "Televisions", event.Name)
}

// ==================== List / serialization ====================

func TestCategoryService_List_LabelFallback(t *testing.T) {
	tests := []struct {
		name     string
		category entity.Category
		want     string
	}{
		{"new label wins", entity.Category{Label: "TV", LabelNlBe: strPtr("Televisie")}, "TV"},
		{"nl_BE", entity.Category{LabelNlBe: strPtr("Televisie"), LabelFrBe: strPtr("Télévision")}, "Televisie"},
		{"empty nl_BE skipped", entity.Category{LabelNlBe: strPtr(""), LabelFrBe: strPtr("Télévision")}, "Télévision"},
		{"nl_NL", entity.Category{LabelNlNl: strPtr("Tv's")}, "Tv's"},
		{"nothing", entity.Category{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, deps := newCategoryService()
			tt.category.ID = uuid.New()
			deps.repo.On("ListRoots", ctx).Return([]entity.Category{tt.category}, nil)

			categories, err := service.List(ctx)

			require.NoError(t, err)
			require.Len(t, categories, 1)
			assert.Equal(t, tt.want, categories[0].Label)
		})
	}
}

func TestCategoryService_List_TruncatesToTwoLevels(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()

	root := newTestCategory("Audio")
	child := newTestCategory("Speakers")
	child.ParentID = &root.ID
	grandchild := newTestCategory("Bookshelf")
	grandchild.ParentID = &child.ID
	child.Children = []entity.Category{*grandchild}
	root.Children = []entity.Category{*child}

	deps.repo.On("ListRoots", ctx).Return([]entity.Category{*root}, nil)

	categories, err := service.List(ctx)

	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Len(t, categories[0].Subcategories, 1)
	sub := categories[0].Subcategories[0]
	assert.Equal(t, "Speakers", sub.Name)
	assert.Equal(t, root.ID.String(), *sub.ParentID)
	assert.NotNil(t, sub.Subcategories)
	assert.Empty(t, sub.Subcategories)
}

func TestCategoryService_List_SerializesEveryField(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	root := newTestCategory("Audio")
	root.ProductIDs = nil
	deps.repo.On("ListRoots", ctx).Return([]entity.Category{*root}, nil)

	categories, err := service.List(ctx)
	require.NoError(t, err)

	data, err := json.Marshal(categories[0])
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{
		"id", "categoryId", "name", "categoryType", "label", "description", "aiTrainingData",
		"parentId", "productIds", "createdAt", "updatedAt", "subcategories",
	} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, []interface{}{}, fields["productIds"])
	assert.Equal(t, []interface{}{}, fields["subcategories"])
	assert.Equal(t, "2024-03-01T10:30:00.000Z", fields["createdAt"])
}

func TestCategoryService_List_RepoError(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("ListRoots", ctx).Return(nil, errors.New("db error"))

	categories, err := service.List(ctx)

	assert.Nil(t, categories)
	assert.Contains(t, err.Error(), "failed to list categories")
}

func TestCategoryService_ListPublic_CacheHit(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	cached := []entity.PublicCategory{{ID: "1", Name: "Audio", Label: "Audio", Subcategories: []entity.PublicCategory{}}}
	deps.cache.On("GetPublicTree", ctx).Return(cached, nil)

	tree, err := service.ListPublic(ctx)

	require.NoError(t, err)
	assert.Equal(t, cached, tree)
	deps.repo.AssertNotCalled(t, "ListRoots", mock.Anything)
}

func TestCategoryService_ListPublic_CacheMiss(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()

	root := newTestCategory("Audio")
	root.CategoryType = strPtr("product")
	child := newTestCategory("Soundbars")
	child.ParentID = &root.ID
	root.Children = []entity.Category{*child}

	deps.cache.On("GetPublicTree", ctx).Return(nil, nil)
	deps.repo.On("ListRoots", ctx).Return([]entity.Category{*root}, nil)
	deps.cache.On("SetPublicTree", ctx, mock.Anything, time.Hour).Return(nil)

	tree, err := service.ListPublic(ctx)

	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Audio", tree[0].Name)
	assert.Equal(t, "product", *tree[0].CategoryType)
	require.Len(t, tree[0].Subcategories, 1)
	assert.Equal(t, "Soundbars", tree[0].Subcategories[0].Name)
	assert.Empty(t, tree[0].Subcategories[0].Subcategories)
	deps.cache.AssertExpectations(t)
}

func TestCategoryService_ListPublic_CacheErrorFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.cache.On("GetPublicTree", ctx).Return(nil, errors.New("redis down"))
	deps.repo.On("ListRoots", ctx).Return([]entity.Category{}, nil)
	deps.cache.On("SetPublicTree", ctx, mock.Anything, time.Hour).Return(errors.New("redis down"))

	tree, err := service.ListPublic(ctx)

	require.NoError(t, err)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestCategoryService_RefreshPublicTree(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("ListRoots", ctx).Return([]entity.Category{*newTestCategory("Audio")}, nil)
	deps.cache.On("SetPublicTree", ctx, mock.MatchedBy(func(tree []entity.PublicCategory) bool {
		return len(tree) == 1 && tree[0].Name == "Audio"
	}), time.Hour).Return(nil)

	require.NoError(t, service.RefreshPublicTree(ctx))
	deps.cache.AssertExpectations(t)
}

func TestCategoryService_RefreshPublicTree_CacheError(t *testing.T) {
	ctx := context.Background()
	service, deps := newCategoryService()
	deps.repo.On("ListRoots", ctx).Return([]entity.Category{}, nil)
	deps.cache.On("SetPublicTree", ctx, mock.Anything, time.Hour).Return(errors.New("redis down"))

	err := service.RefreshPublicTree(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cache public category tree")
}

// ==================== Сценарии ====================

func TestCategoryService_AudioSoundbarsLifecycle(t *testing.T) {
	ctx := context.Background()
	service := newInMemoryCategoryService()

	audio, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "Audio", Label: "Audio"})
	require.NoError(t, err)

	soundbars, err := service.Create(ctx, &entity.CreateCategoryRequest{
		Name:     "Soundbars",
		Label:    "Soundbars",
		ParentID: &audio.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, audio.ID, *soundbars.ParentID)

	categories, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Audio", categories[0].Name)
	require.Len(t, categories[0].Subcategories, 1)
	assert.Equal(t, "Soundbars", categories[0].Subcategories[0].Name)

	audioID := uuid.MustParse(audio.ID)
	soundbarsID := uuid.MustParse(soundbars.ID)

	assert.ErrorIs(t, service.Delete(ctx, audioID), ErrHasSubcategories)
	require.NoError(t, service.Delete(ctx, soundbarsID))
	require.NoError(t, service.Delete(ctx, audioID))

	categories, err = service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestCategoryService_DeleteAfterReparentingChild(t *testing.T) {
	ctx := context.Background()
	service := newInMemoryCategoryService()

	tv, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "Televisions", Label: "TV"})
	require.NoError(t, err)
	qled, err := service.Create(ctx, &entity.CreateCategoryRequest{Name: "QLED TVs", Label: "QLED", ParentID: &tv.ID})
	require.NoError(t, err)

	tvID := uuid.MustParse(tv.ID)
	assert.ErrorIs(t, service.Delete(ctx, tvID), ErrHasSubcategories)

	_, err = service.Create(ctx, &entity.CreateCategoryRequest{Name: "Televisions", Label: "Other"})
	assert.ErrorIs(t, err, ErrCategoryNameTaken)

	moved, err := service.Update(ctx, uuid.MustParse(qled.ID), &entity.UpdateCategoryRequest{ParentID: entity.Null()})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "QLED TVs", moved.Name)

	require.NoError(t, service.Delete(ctx, tvID))

	categories, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "QLED TVs", categories[0].Name)
}
