package handler

import (
	"net/http"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CategoryHandler обрабатывает HTTP запросы дерева категорий
type CategoryHandler struct {
	categoryService service.CategoryServiceInterface
	validator       *validator.Validate
}

func NewCategoryHandler(categoryService service.CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       validator.New(),
	}
}

// ListPublic GET /categories - сокращенное дерево для витрины (кеш Redis)
func (h *CategoryHandler) ListPublic(c *gin.Context) {
	categories, err := h.categoryService.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.PublicCategoryListResponse{Categories: categories})
}

// List GET /admin/categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.AdminCategoryListResponse{Categories: categories})
}

// Create POST /admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.AdminCategoryResponse{Category: *category})
}

// Update PATCH /admin/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidCategoryID)
	if !ok {
		return
	}

	var req entity.UpdateCategoryRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.AdminCategoryResponse{Category: *category})
}

// Delete DELETE /admin/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidCategoryID)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{OK: true})
}
