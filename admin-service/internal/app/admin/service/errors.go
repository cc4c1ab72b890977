package service

import "errors"

// Классы ошибок бизнес-логики; handler выбирает HTTP статус по классу
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// classifiedError короткое сообщение для клиента плюс класс для errors.Is
type classifiedError struct {
	class error
	msg   string
}

func (e *classifiedError) Error() string {
	return e.msg
}

func (e *classifiedError) Unwrap() error {
	return e.class
}

func newError(class error, msg string) error {
	return &classifiedError{class: class, msg: msg}
}

// Ошибки категорий
var (
	ErrSelfParent        = newError(ErrValidation, "Category cannot be its own parent")
	ErrParentCycle       = newError(ErrValidation, "Category cannot be moved under its own subcategory")
	ErrHasSubcategories  = newError(ErrValidation, "Remove subcategories first")
	ErrParentNotFound    = newError(ErrValidation, "Parent category not found")
	ErrInvalidCategoryID = newError(ErrValidation, "Invalid category ID")
	ErrCategoryNotFound  = newError(ErrNotFound, "Category not found")
	ErrCategoryNameTaken = newError(ErrConflict, "Category name must be unique")
)

// Ошибки локалей
var (
	ErrInvalidLocaleID = newError(ErrValidation, "Invalid locale ID")
	ErrLocaleNotFound  = newError(ErrNotFound, "Locale not found")
	ErrLocaleCodeTaken = newError(ErrConflict, "Locale code already exists")
)

// Ошибки пользователей
var (
	ErrUserCredentials   = newError(ErrValidation, "Invalid body: email and password are required")
	ErrLastAdminDemotion = newError(ErrValidation, "Cannot demote the last admin")
	ErrLastAdminDeletion = newError(ErrValidation, "Cannot delete the last admin")
	ErrInvalidUserID     = newError(ErrValidation, "Invalid user ID")
	ErrUserNotFound      = newError(ErrNotFound, "User not found")
	ErrUserEmailTaken    = newError(ErrConflict, "Email already exists")
)

// Общие ошибки
var (
	ErrInvalidBody   = newError(ErrValidation, "Invalid body")
	ErrNoChanges     = newError(ErrValidation, "No changes supplied")
	ErrInvalidCursor = newError(ErrValidation, "Invalid cursor")
)
