package handler

import (
	"net/http"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserServiceInterface
	validator   *validator.Validate
}

func NewUserHandler(userService service.UserServiceInterface) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
	}
}

func (h *UserHandler) List(c *gin.Context) {
	page, err := h.userService.List(c.Request.Context(), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidUserID)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.UserResponse{User: *user})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req entity.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: service.ErrInvalidBody.Error()})
		return
	}

	// Пустые email/пароль дают отдельное сообщение, остальное проверяет валидатор
	if req.Email == "" || req.Password == "" {
		respondError(c, service.ErrUserCredentials)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.UserResponse{User: *user})
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidUserID)
	if !ok {
		return
	}

	var req entity.UpdateUserRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.UserResponse{User: *user})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, service.ErrInvalidUserID)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{OK: true})
}
