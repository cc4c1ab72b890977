package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const categoriesTable = "categories"

// legacyLabelColumns устаревшие локализованные метки, повторяют label при каждой записи
var legacyLabelColumns = []string{"label_nl_be", "label_fr_be", "label_nl_nl"}

const categoryColumns = `id, category_id, name, category_type, label, label_nl_be, label_fr_be, label_nl_nl,
	description, ai_training_data, parent_id, product_ids, created_at, updated_at`

// categorySchema создает таблицу категорий
// UNIQUE(name) - единственная надежная гарантия уникальности при конкурентных запросах,
// ON DELETE RESTRICT не дает удалить родителя с потомками
const categorySchema = `
CREATE TABLE IF NOT EXISTS categories (
	id               UUID PRIMARY KEY,
	category_id      VARCHAR(255),
	name             VARCHAR(255) NOT NULL UNIQUE,
	category_type    VARCHAR(64),
	label            VARCHAR(255) NOT NULL DEFAULT '',
	label_nl_be      VARCHAR(255),
	label_fr_be      VARCHAR(255),
	label_nl_nl      VARCHAR(255),
	description      TEXT,
	ai_training_data TEXT,
	parent_id        UUID REFERENCES categories(id) ON DELETE RESTRICT,
	product_ids      TEXT[] NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS categories_parent_id_idx ON categories (parent_id);
`

// DBTX подмножество методов pgxpool.Pool, используемое репозиторием
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository создает репозиторий категорий поверх пула pgx
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

// EnsureCategorySchema создает таблицу категорий, если ее нет
func EnsureCategorySchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, categorySchema); err != nil {
		return fmt.Errorf("failed to create categories schema: %w", err)
	}
	return nil
}

func (r *categoryRepository) ListRoots(ctx context.Context) ([]entity.Category, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, categoriesTable).ObserveDuration()

	roots, err := r.queryCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE parent_id IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get root categories: %w", err)
	}
	if len(roots) == 0 {
		return roots, nil
	}

	ids := make([]uuid.UUID, len(roots))
	for i := range roots {
		ids[i] = roots[i].ID
	}

	children, err := r.queryCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE parent_id = ANY($1) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategories: %w", err)
	}

	return assembleRoots(roots, children), nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, categoriesTable).ObserveDuration()

	category, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}

	children, err := r.queryCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE parent_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategories: %w", err)
	}
	category.Children = children

	return category, nil
}

// GetByName ищет категорию по точному имени (UNIQUE чувствителен к регистру)
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, categoriesTable).ObserveDuration()

	category, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, categoriesTable).ObserveDuration()

	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	productIDs := category.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		category.ID,
		category.CategoryID,
		category.Name,
		category.CategoryType,
		category.Label,
		category.LabelNlBe,
		category.LabelFrBe,
		category.LabelNlNl,
		category.Description,
		category.AITrainingData,
		category.ParentID,
		productIDs,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err, "create")
	}

	return nil
}

func (r *categoryRepository) Update(ctx context.Context, id uuid.UUID, changes entity.CategoryChanges) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, categoriesTable).ObserveDuration()

	query, args := buildCategoryUpdate(id, changes, time.Now().UTC())

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return translateWriteError(err, "update")
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete удаляет категорию без каскада
// Потомок, вставленный после проверки в сервисе, ловится через ON DELETE RESTRICT
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpDelete, categoriesTable).ObserveDuration()

	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return ErrCategoryHasChildren
		}
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *categoryRepository) queryCategories(ctx context.Context, query string, args ...any) ([]entity.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, err
	}
	defer rows.Close()

	categories := make([]entity.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// translateWriteError переводит нарушения ограничений в ошибки репозитория
// На INSERT/UPDATE 23503 означает несуществующий parent_id
func translateWriteError(err error, op string) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return ErrCategoryNameTaken
	case pgForeignKeyViolation:
		return ErrParentNotFound
	}

	if op == "create" {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
	} else {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
	}
	return fmt.Errorf("failed to %s category: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*entity.Category, error) {
	var category entity.Category
	err := row.Scan(
		&category.ID,
		&category.CategoryID,
		&category.Name,
		&category.CategoryType,
		&category.Label,
		&category.LabelNlBe,
		&category.LabelFrBe,
		&category.LabelNlNl,
		&category.Description,
		&category.AITrainingData,
		&category.ParentID,
		&category.ProductIDs,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if category.ProductIDs == nil {
		category.ProductIDs = []string{}
	}
	return &category, nil
}

// assembleRoots раскладывает потомков по корням, сохраняя порядок выборки
func assembleRoots(roots, children []entity.Category) []entity.Category {
	byParent := make(map[uuid.UUID][]entity.Category, len(roots))
	for _, child := range children {
		if child.ParentID == nil {
			continue
		}
		byParent[*child.ParentID] = append(byParent[*child.ParentID], child)
	}

	for i := range roots {
		roots[i].Children = byParent[roots[i].ID]
		if roots[i].Children == nil {
			roots[i].Children = []entity.Category{}
		}
	}
	return roots
}

// buildCategoryUpdate собирает UPDATE только по переданным колонкам
// updated_at обновляется всегда
func buildCategoryUpdate(id uuid.UUID, changes entity.CategoryChanges, now time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if changes.Name != nil {
		set("name", *changes.Name)
	}
	if changes.Label != nil {
		set("label", *changes.Label)
		for _, column := range legacyLabelColumns {
			set(column, *changes.Label)
		}
	}
	if changes.CategoryID != nil {
		set("category_id", *changes.CategoryID)
	}
	if changes.CategoryType != nil {
		set("category_type", *changes.CategoryType)
	}
	if changes.Description != nil {
		set("description", *changes.Description)
	}
	if changes.AITrainingData != nil {
		set("ai_training_data", *changes.AITrainingData)
	}
	switch {
	case changes.ClearParent:
		sets = append(sets, "parent_id = NULL")
	case changes.ParentID != nil:
		set("parent_id", *changes.ParentID)
	}
	set("updated_at", now)

	args = append(args, id)
	query := "UPDATE categories SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))

	return query, args
}
