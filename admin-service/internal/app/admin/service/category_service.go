package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/repository"
	"admindash/admin-service/internal/app/admin/util"
	"admindash/pkg/logger"
	"admindash/pkg/metrics"

	"github.com/google/uuid"
)

// maxAncestorDepth ограничивает подъем по предкам при проверке цикла
const maxAncestorDepth = 64

// CategoryService управляет деревом категорий
// Координирует репозиторий PostgreSQL, кеш публичного дерева в Redis и события Kafka
type CategoryService struct {
	repo      repository.CategoryRepository
	cache     util.CategoryTreeCache
	publisher util.MessagePublisher
	treeTTL   time.Duration
}

// NewCategoryService создает сервис категорий
func NewCategoryService(
	repo repository.CategoryRepository,
	cache util.CategoryTreeCache,
	publisher util.MessagePublisher,
	treeTTL time.Duration,
) *CategoryService {
	return &CategoryService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		treeTTL:   treeTTL,
	}
}

// List возвращает корневые категории с прямыми потомками для админ-панели
func (s *CategoryService) List(ctx context.Context) ([]entity.AdminCategory, error) {
	roots, err := s.repo.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return toAdminCategories(roots), nil
}

// ListPublic возвращает публичное дерево, читая через кеш
func (s *CategoryService) ListPublic(ctx context.Context) ([]entity.PublicCategory, error) {
	tree, err := s.cache.GetPublicTree(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read public category tree from cache")
	}
	if tree != nil {
		return tree, nil
	}

	return s.rebuildPublicTree(ctx)
}

// RefreshPublicTree перестраивает кеш публичного дерева (cron)
func (s *CategoryService) RefreshPublicTree(ctx context.Context) error {
	roots, err := s.repo.ListRoots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if err := s.cache.SetPublicTree(ctx, toPublicCategories(roots), s.treeTTL); err != nil {
		return fmt.Errorf("failed to cache public category tree: %w", err)
	}
	return nil
}

func (s *CategoryService) rebuildPublicTree(ctx context.Context) ([]entity.PublicCategory, error) {
	roots, err := s.repo.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	tree := toPublicCategories(roots)
	if err := s.cache.SetPublicTree(ctx, tree, s.treeTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache public category tree")
	}
	return tree, nil
}

// Create создает категорию
// Проверка имени заранее только ускоряет ответ, уникальность гарантирует индекс
func (s *CategoryService) Create(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.AdminCategory, error) {
	name := strings.TrimSpace(req.Name)
	label := strings.TrimSpace(req.Label)
	if name == "" || label == "" {
		return nil, ErrInvalidBody
	}

	var parentID *uuid.UUID
	if raw := entity.OptionalString(req.ParentID); raw != nil {
		id, err := uuid.Parse(*raw)
		if err != nil {
			return nil, ErrParentNotFound
		}
		parentID = &id
	}

	if err := s.ensureNameAvailable(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := &entity.Category{
		ID:             uuid.New(),
		CategoryID:     entity.OptionalString(req.CategoryID),
		Name:           name,
		CategoryType:   entity.OptionalString(req.CategoryType),
		Label:          label,
		LabelNlBe:      &label,
		LabelFrBe:      &label,
		LabelNlNl:      &label,
		Description:    entity.OptionalString(req.Description),
		AITrainingData: entity.OptionalString(req.AITrainingData),
		ParentID:       parentID,
		ProductIDs:     []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapCategoryError(err, "create")
	}

	s.afterMutation(ctx, entity.EventCategoryCreated, category)

	view := toAdminCategory(category)
	return &view, nil
}

// Update меняет только переданные в запросе поля
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.AdminCategory, error) {
	if !req.HasChanges() {
		return nil, ErrNoChanges
	}

	changes, err := buildCategoryChanges(id, req)
	if err != nil {
		return nil, err
	}

	if changes.ParentID != nil {
		if err := s.ensureNotDescendant(ctx, id, *changes.ParentID); err != nil {
			return nil, err
		}
	}

	if changes.Name != nil {
		if err := s.ensureNameAvailable(ctx, *changes.Name, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, mapCategoryError(err, "update")
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryError(err, "get")
	}

	s.afterMutation(ctx, entity.EventCategoryUpdated, category)

	view := toAdminCategory(category)
	return &view, nil
}

// Delete удаляет категорию без потомков
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapCategoryError(err, "get")
	}

	if len(category.Children) > 0 {
		return ErrHasSubcategories
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapCategoryError(err, "delete")
	}

	s.afterMutation(ctx, entity.EventCategoryDeleted, category)
	return nil
}

// buildCategoryChanges проверяет PATCH-запрос и переводит его в набор колонок
func buildCategoryChanges(id uuid.UUID, req *entity.UpdateCategoryRequest) (entity.CategoryChanges, error) {
	var changes entity.CategoryChanges

	if req.Name.Set {
		name := req.Name.Trimmed()
		if name == "" {
			return changes, ErrInvalidBody
		}
		changes.Name = &name
	}

	if req.Label.Set {
		label := req.Label.Trimmed()
		if label == "" {
			return changes, ErrInvalidBody
		}
		changes.Label = &label
	}

	optional := []struct {
		field  entity.NullString
		target ***string
	}{
		{req.CategoryID, &changes.CategoryID},
		{req.CategoryType, &changes.CategoryType},
		{req.Description, &changes.Description},
		{req.AITrainingData, &changes.AITrainingData},
	}
	for _, o := range optional {
		if o.field.Set {
			value := o.field.TrimmedPtr()
			*o.target = &value
		}
	}

	if req.ParentID.Set {
		raw := req.ParentID.Trimmed()
		if raw == "" {
			changes.ClearParent = true
			return changes, nil
		}

		parentID, err := uuid.Parse(raw)
		if err != nil {
			return changes, ErrParentNotFound
		}
		if parentID == id {
			return changes, ErrSelfParent
		}
		changes.ParentID = &parentID
	}

	return changes, nil
}

// ensureNameAvailable отклоняет имя, занятое другой категорией
func (s *CategoryService) ensureNameAvailable(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if existing.ID != self {
		return ErrCategoryNameTaken
	}
	return nil
}

// ensureNotDescendant проверяет, что новый родитель существует и не лежит под самой категорией
func (s *CategoryService) ensureNotDescendant(ctx context.Context, id, parentID uuid.UUID) error {
	current := parentID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		ancestor, err := s.repo.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) && depth == 0 {
				return ErrParentNotFound
			}
			return mapCategoryError(err, "get")
		}
		if ancestor.ParentID == nil {
			return nil
		}
		if *ancestor.ParentID == id {
			return ErrParentCycle
		}
		current = *ancestor.ParentID
	}
	return ErrParentCycle
}

// afterMutation сбрасывает кеш и публикует событие
// Ошибки не прерывают запрос: категория уже сохранена
func (s *CategoryService) afterMutation(ctx context.Context, eventType string, category *entity.Category) {
	metrics.CategoryMutations.WithLabelValues(eventType).Inc()

	if err := s.cache.DeletePublicTree(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate public category tree")
	}

	event := entity.CategoryEvent{
		EventType:  eventType,
		CategoryID: category.ID,
		Name:       category.Name,
		ParentID:   category.ParentID,
		Timestamp:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to marshal category event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, category.ID.String(), data); err != nil {
		logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("category_id", category.ID.String()).
			Msg("Failed to publish category event")
	}
}

func mapCategoryError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrCategoryNameTaken):
		return ErrCategoryNameTaken
	case errors.Is(err, repository.ErrParentNotFound):
		return ErrParentNotFound
	case errors.Is(err, repository.ErrCategoryHasChildren):
		return ErrHasSubcategories
	}
	return fmt.Errorf("failed to %s category: %w", op, err)
}
