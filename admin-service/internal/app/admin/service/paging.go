package service

import (
	"strings"

	"github.com/google/uuid"
)

// parseCursor разбирает курсор (ID последней записи предыдущей страницы)
func parseCursor(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &id, nil
}

// paginate обрезает выборку из limit+1 записей до страницы
// Лишняя запись означает, что есть следующая страница
func paginate[T any](items []T, limit int, idOf func(T) uuid.UUID) ([]T, *string) {
	if len(items) <= limit {
		return items, nil
	}
	items = items[:limit]
	next := idOf(items[limit-1]).String()
	return items, &next
}
