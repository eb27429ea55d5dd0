package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/api/middleware"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
)

// UserHandler handles roles and admin account management
type UserHandler struct {
	users  services.UserServiceInterface
	logger *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users services.UserServiceInterface, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// GetRole returns the role of a user
// @Summary Get user role
// @Description Users may read their own role; admins may read any role
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} models.RoleResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/role [get]
func (h *UserHandler) GetRole(c *gin.Context) {
	role, err := h.users.Role(c.Request.Context(), middleware.CurrentUser(c), c.Param("userId"))
	if err != nil {
		h.userError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RoleResponse{Role: role})
}

// Create registers a new account with a role
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateUserRequest true "New account"
// @Success 201 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email, password and role are required", err.Error(), models.ErrorCodeInvalidRequest)
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		h.userError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"admin_id":   middleware.CurrentUser(c).ID,
		"user_id":    user.ID,
	}).Info("Admin created user")

	c.JSON(http.StatusCreated, models.MessageResponse{
		Message: "User created successfully",
		UserID:  user.ID,
	})
}

// List returns every account with its role
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.userError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// Get returns one account
// @Summary Get user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.userError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateRole changes the role of an account
// @Summary Update user role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, services.ErrInvalidRole.Error(), err.Error(), models.ErrorCodeInvalidRequest)
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), c.Param("userId"), req.Role)
	if err != nil {
		h.userError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Message: "User role updated successfully",
		User:    user,
	})
}

// Delete removes an account and its profile
// @Summary Delete user
// @Tags Admin
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{userId} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		h.userError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) userError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found", "", models.ErrorCodeNotFound)
		return
	}
	handleServiceError(c, h.logger, err)
}
