package service

import (
	"time"

	"admindash/admin-service/internal/app/admin/entity"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// labelSources порядок поиска метки категории.
//
// Deprecated: совместимость с записями, где заполнены только старые
// локализованные колонки. Список закрыт, новые поля в него не добавляются;
// будет удален после миграции данных в label.
var labelSources = []func(c *entity.Category) *string{
	func(c *entity.Category) *string { return &c.Label },
	func(c *entity.Category) *string { return c.LabelNlBe },
	func(c *entity.Category) *string { return c.LabelFrBe },
	func(c *entity.Category) *string { return c.LabelNlNl },
}

// ResolveLabel возвращает первую непустую метку из labelSources
func ResolveLabel(c *entity.Category) string {
	for _, source := range labelSources {
		if v := source(c); v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// toAdminCategory сериализует категорию и ее прямых потомков
// Дерево обрезается до двух уровней: у потомков subcategories всегда пустой
func toAdminCategory(c *entity.Category) entity.AdminCategory {
	view := adminCategoryNode(c)
	for i := range c.Children {
		view.Subcategories = append(view.Subcategories, adminCategoryNode(&c.Children[i]))
	}
	return view
}

func adminCategoryNode(c *entity.Category) entity.AdminCategory {
	var parentID *string
	if c.ParentID != nil {
		id := c.ParentID.String()
		parentID = &id
	}

	productIDs := c.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}

	return entity.AdminCategory{
		ID:             c.ID.String(),
		CategoryID:     c.CategoryID,
		Name:           c.Name,
		CategoryType:   c.CategoryType,
		Label:          ResolveLabel(c),
		Description:    c.Description,
		AITrainingData: c.AITrainingData,
		ParentID:       parentID,
		ProductIDs:     productIDs,
		CreatedAt:      formatTime(c.CreatedAt),
		UpdatedAt:      formatTime(c.UpdatedAt),
		Subcategories:  []entity.AdminCategory{},
	}
}

func toAdminCategories(categories []entity.Category) []entity.AdminCategory {
	views := make([]entity.AdminCategory, 0, len(categories))
	for i := range categories {
		views = append(views, toAdminCategory(&categories[i]))
	}
	return views
}

// toPublicCategories строит публичное дерево без служебных полей
func toPublicCategories(categories []entity.Category) []entity.PublicCategory {
	views := make([]entity.PublicCategory, 0, len(categories))
	for i := range categories {
		root := publicCategoryNode(&categories[i])
		for j := range categories[i].Children {
			root.Subcategories = append(root.Subcategories, publicCategoryNode(&categories[i].Children[j]))
		}
		views = append(views, root)
	}
	return views
}

func publicCategoryNode(c *entity.Category) entity.PublicCategory {
	return entity.PublicCategory{
		ID:            c.ID.String(),
		Name:          c.Name,
		Label:         ResolveLabel(c),
		CategoryType:  c.CategoryType,
		Subcategories: []entity.PublicCategory{},
	}
}

func toLocaleView(l *entity.Locale) entity.LocaleView {
	var createdBy *string
	if l.CreatedBy != nil {
		id := l.CreatedBy.String()
		createdBy = &id
	}

	regionalNames := []string(l.RegionalNames)
	if regionalNames == nil {
		regionalNames = []string{}
	}

	return entity.LocaleView{
		ID:                l.ID.String(),
		Code:              l.Code,
		DisplayName:       l.DisplayName,
		RegionalNames:     regionalNames,
		Description:       l.Description,
		BVClientID:        l.BVClientID,
		BazaarVoiceClient: l.BazaarVoiceClient,
		CreatedBy:         createdBy,
		CreatedAt:         formatTime(l.CreatedAt),
		UpdatedAt:         formatTime(l.UpdatedAt),
	}
}

func toUserView(u *entity.User) entity.UserView {
	return entity.UserView{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Image: u.Image,
	}
}
