package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/service"
	"admindash/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// respondError выбирает HTTP статус по классу ошибки сервиса
// Неклассифицированные ошибки логируются и скрываются от клиента
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Internal server error"})
	}
}

// bindJSON разбирает и валидирует тело запроса; при ошибке ответ уже отправлен
func bindJSON(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: service.ErrInvalidBody.Error()})
		return false
	}

	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return false
	}
	return true
}

// pathID разбирает :id; при ошибке отвечает invalid
func pathID(c *gin.Context, invalid error) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, invalid)
		return uuid.Nil, false
	}
	return id, true
}

func listQuery(c *gin.Context) entity.ListQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return entity.ListQuery{
		Query:  c.Query("q"),
		Cursor: c.Query("cursor"),
		Limit:  limit,
	}
}

// actorFromContext собирает данные администратора для аудита
func actorFromContext(c *gin.Context) entity.Actor {
	return entity.Actor{
		UserID:    c.GetString(ctxUserID),
		Email:     c.GetString(ctxEmail),
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// clientIP берет первый адрес X-Forwarded-For, затем X-Real-IP
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(c.GetHeader("X-Real-IP"))
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
