package handler

import (
	"context"
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/validation"
	"fleet-app/user-management-service/internal/models"
	"fleet-app/user-management-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const idempotencyKeyHeader = "Idempotency-Key"

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, oldPassword, newPassword string) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetAllUsers(ctx context.Context, role string) ([]models.User, error)
	ListDrivers(ctx context.Context, freeAgentsOnly bool) ([]models.User, error)
	BlockUser(ctx context.Context, id primitive.ObjectID) error
	UnblockUser(ctx context.Context, id primitive.ObjectID) error
	InternalUpdate(ctx context.Context, id primitive.ObjectID, in models.InternalUpdate, key string) (*models.User, error)
}

type UserHandler struct {
	service UserService
}

func NewUserHandler(s UserService) *UserHandler {
	return &UserHandler{service: s}
}

// POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if errs := validation.Struct(input); len(errs) > 0 {
		respondFail(c, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	res, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, res)
}

// POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&credentials); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid credentials", nil)
		return
	}
	if errs := validation.Struct(credentials); len(errs) > 0 {
		respondFail(c, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	res, err := h.service.Login(c.Request.Context(), credentials.Email, credentials.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	objID, err := primitive.ObjectIDFromHex(caller.ID)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid user ID", nil)
		return
	}
	user, err := h.service.GetUserByID(c.Request.Context(), objID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// PUT /users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var body struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if errs := validation.Struct(body); len(errs) > 0 {
		respondFail(c, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	caller, _ := auth.CallerFrom(c)
	objID, err := primitive.ObjectIDFromHex(caller.ID)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid user ID", nil)
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), objID, body.OldPassword, body.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password updated"})
}

// GET /users/:id
func (h *UserHandler) GetUserByID(c *gin.Context) {
	objID, ok := userIDParam(c)
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(c.Request.Context(), objID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// GET /users?role=
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.service.GetAllUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

// GET /users/drivers?freeAgent=true
func (h *UserHandler) ListDrivers(c *gin.Context) {
	users, err := h.service.ListDrivers(c.Request.Context(), c.Query("freeAgent") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

// PUT /users/:id/block
func (h *UserHandler) BlockUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.service.BlockUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user blocked"})
}

// PUT /users/:id/unblock
func (h *UserHandler) UnblockUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.service.UnblockUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user unblocked"})
}

// PUT /admin/users/:id/internal-update
func (h *UserHandler) InternalUpdate(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var input models.InternalUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	user, err := h.service.InternalUpdate(c.Request.Context(), id, input, c.GetHeader(idempotencyKeyHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func userIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid user ID", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}
