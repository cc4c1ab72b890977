package entity

// === CATEGORIES ===

// CreateCategoryRequest тело POST /admin/categories
// Обрезка пробелов и проверка обязательных полей выполняются в сервисе
type CreateCategoryRequest struct {
	Name           string  `json:"name" validate:"max=255"`
	Label          string  `json:"label" validate:"max=255"`
	CategoryID     *string `json:"categoryId" validate:"omitempty,max=255"`
	CategoryType   *string `json:"categoryType" validate:"omitempty,max=64"`
	Description    *string `json:"description"`
	AITrainingData *string `json:"aiTrainingData"`
	ParentID       *string `json:"parentId"`
}

// UpdateCategoryRequest тело PATCH /admin/categories/:id
// Меняются только присутствующие в теле поля
type UpdateCategoryRequest struct {
	Name           NullString `json:"name"`
	Label          NullString `json:"label"`
	CategoryID     NullString `json:"categoryId"`
	CategoryType   NullString `json:"categoryType"`
	Description    NullString `json:"description"`
	AITrainingData NullString `json:"aiTrainingData"`
	ParentID       NullString `json:"parentId"`
}

// HasChanges сообщает, что в теле есть хотя бы одно известное поле
func (r *UpdateCategoryRequest) HasChanges() bool {
	return r.Name.Set || r.Label.Set || r.CategoryID.Set || r.CategoryType.Set ||
		r.Description.Set || r.AITrainingData.Set || r.ParentID.Set
}

// AdminCategory полное представление категории для админ-панели
// Все поля присутствуют всегда; subcategories не бывает null
type AdminCategory struct {
	ID             string          `json:"id"`
	CategoryID     *string         `json:"categoryId"`
	Name           string          `json:"name"`
	CategoryType   *string         `json:"categoryType"`
	Label          string          `json:"label"`
	Description    *string         `json:"description"`
	AITrainingData *string         `json:"aiTrainingData"`
	ParentID       *string         `json:"parentId"`
	ProductIDs     []string        `json:"productIds"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Subcategories  []AdminCategory `json:"subcategories"`
}

// PublicCategory сокращенное представление для публичного API и кеша Redis
type PublicCategory struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Label         string           `json:"label"`
	CategoryType  *string          `json:"categoryType"`
	Subcategories []PublicCategory `json:"subcategories"`
}

// AdminCategoryListResponse ответ GET /admin/categories
type AdminCategoryListResponse struct {
	Categories []AdminCategory `json:"categories"`
}

// PublicCategoryListResponse ответ GET /categories
type PublicCategoryListResponse struct {
	Categories []PublicCategory `json:"categories"`
}

// AdminCategoryResponse ответ на создание/обновление категории
type AdminCategoryResponse struct {
	Category AdminCategory `json:"category"`
}

// === LOCALES ===

// CreateLocaleRequest тело POST /admin/locales
type CreateLocaleRequest struct {
	Code              string   `json:"code" validate:"max=32"`
	DisplayName       string   `json:"displayName" validate:"max=255"`
	RegionalNames     []string `json:"regionalNames"`
	Description       *string  `json:"description"`
	BazaarVoiceAPIKey *string  `json:"bazaarVoiceApiKey"`
	BVResponseAPIKey  *string  `json:"bvResponseApiKey"`
	BVClientSecret    *string  `json:"bvClientSecret"`
	BVClientID        *string  `json:"bvClientId" validate:"omitempty,max=255"`
	BazaarVoiceClient *string  `json:"bazaarVoiceClient" validate:"omitempty,max=255"`
}

// UpdateLocaleRequest тело PUT /admin/locales/:id
// Секрет перешифровывается только если передан; null очищает его
type UpdateLocaleRequest struct {
	Code              NullString `json:"code"`
	DisplayName       NullString `json:"displayName"`
	RegionalNames     *[]string  `json:"regionalNames"`
	Description       NullString `json:"description"`
	BazaarVoiceAPIKey NullString `json:"bazaarVoiceApiKey"`
	BVResponseAPIKey  NullString `json:"bvResponseApiKey"`
	BVClientSecret    NullString `json:"bvClientSecret"`
	BVClientID        NullString `json:"bvClientId"`
	BazaarVoiceClient NullString `json:"bazaarVoiceClient"`
}

// LocaleView представление локали без секретов
type LocaleView struct {
	ID                string   `json:"id"`
	Code              string   `json:"code"`
	DisplayName       string   `json:"displayName"`
	RegionalNames     []string `json:"regionalNames"`
	Description       *string  `json:"description"`
	BVClientID        *string  `json:"bvClientId"`
	BazaarVoiceClient *string  `json:"bazaarVoiceClient"`
	CreatedBy         *string  `json:"createdBy"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

// LocalePage страница списка локалей
type LocalePage struct {
	Locales    []LocaleView `json:"locales"`
	NextCursor *string      `json:"nextCursor"`
}

// LocaleResponse ответ на создание/обновление локали
type LocaleResponse struct {
	Locale LocaleView `json:"locale"`
}

// LocaleSecrets расшифрованные секреты локали
// Поврежденный конверт отдается как null
type LocaleSecrets struct {
	ID                string  `json:"id"`
	Code              string  `json:"code"`
	DisplayName       string  `json:"displayName"`
	BazaarVoiceAPIKey *string `json:"bazaarVoiceApiKey"`
	BVResponseAPIKey  *string `json:"bvResponseApiKey"`
	BVClientSecret    *string `json:"bvClientSecret"`
	BVClientID        *string `json:"bvClientId"`
	BazaarVoiceClient *string `json:"bazaarVoiceClient"`
}

// RevealSecretsResponse ответ GET /admin/locales/:id/secrets
type RevealSecretsResponse struct {
	Secrets LocaleSecrets `json:"secrets"`
	AuditID string        `json:"auditId"`
}

// === USERS ===

// CreateUserRequest тело POST /admin/users
type CreateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin user"`
}

// UpdateUserRequest тело PUT /admin/users/:id
type UpdateUserRequest struct {
	Name     NullString `json:"name"`
	Email    *string    `json:"email" validate:"omitempty,email"`
	Role     *string    `json:"role" validate:"omitempty,oneof=admin user"`
	Image    NullString `json:"image"`
	Password *string    `json:"password" validate:"omitempty,min=6,max=72"`
}

// UserView пользователь без хеша пароля
type UserView struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
	Role  string  `json:"role"`
	Image *string `json:"image"`
}

// UserPage страница списка пользователей
type UserPage struct {
	Users      []UserView `json:"users"`
	NextCursor *string    `json:"nextCursor"`
}

// UserResponse ответ с одним пользователем
type UserResponse struct {
	User UserView `json:"user"`
}

// === COMMON ===

// Параметры курсорной пагинации
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListQuery параметры списка: поиск и курсор (ID последней записи)
type ListQuery struct {
	Query  string
	Cursor string
	Limit  int
}

// PageLimit возвращает размер страницы в пределах [1, MaxPageLimit]
func (q ListQuery) PageLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultPageLimit
	case q.Limit > MaxPageLimit:
		return MaxPageLimit
	default:
		return q.Limit
	}
}

// Actor администратор, выполняющий запрос (из JWT и заголовков)
type Actor struct {
	UserID    string
	Email     string
	IP        string
	UserAgent string
}

// ErrorResponse стандартный ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse ответ на удаление
type SuccessResponse struct {
	OK bool `json:"ok"`
}
