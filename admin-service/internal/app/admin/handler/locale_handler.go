package handler

import (
	"net/http"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type LocaleHandler struct {
	localeService service.LocaleServiceInterface
	validator     *validator.Validate
}

func NewLocaleHandler(localeService service.LocaleServiceInterface) *LocaleHandler {
	return &LocaleHandler{
		localeService: localeService,
		validator:     validator.New(),
	}
}

// List GET /admin/locales?q=&cursor=&limit=
func (h *LocaleHandler) List(c *gin.Context) {
	page, err := h.localeService.List(c.Request.Context(), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *LocaleHandler) Create(c *gin.Context) {
	var req entity.CreateLocaleRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	locale, err := h.localeService.Create(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.LocaleResponse{Locale: *locale})
}

func (h *LocaleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidLocaleID)
	if !ok {
		return
	}

	var req entity.UpdateLocaleRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	locale, err := h.localeService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.LocaleResponse{Locale: *locale})
}

func (h *LocaleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidLocaleID)
	if !ok {
		return
	}

	if err := h.localeService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{OK: true})
}

// RevealSecrets GET /admin/locales/:id/secrets
// Ответ с открытыми секретами не кешируется
func (h *LocaleHandler) RevealSecrets(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidLocaleID)
	if !ok {
		return
	}

	resp, err := h.localeService.RevealSecrets(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}
