package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/auth/models"
	"github.com/caffein/school-platform/internal/auth/service"
	"github.com/caffein/school-platform/internal/auth/token"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// UserHandler exposes the profile and role-management endpoints.
type UserHandler struct {
	users  *service.UserService
	tokens *token.Manager
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService, tokens *token.Manager) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

// Me godoc
// @Summary Return the current user's profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, _, err := h.identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	info, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _, err := h.identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	info, err := h.users.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// ReplaceRoles godoc
// @Summary Replace a user's role set
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body models.ReplaceRolesRequest true "Roles payload"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/roles [put]
func (h *UserHandler) ReplaceRoles(c *gin.Context) {
	_, roles, err := h.identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !hasRole(roles, "ROLE_ADMIN") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
		return
	}
	var req models.ReplaceRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	info, err := h.users.ReplaceRoles(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// MyPermissions godoc
// @Summary Return the current user's effective permissions
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me/permissions [get]
func (h *UserHandler) MyPermissions(c *gin.Context) {
	userID, _, err := h.identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	permissions, err := h.users.Permissions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permissions, nil)
}

// ReplaceRolePermissions godoc
// @Summary Replace the permission set of a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param name path string true "Role name"
// @Param payload body models.ReplaceRolePermissionsRequest true "Permissions payload"
// @Success 204 {object} nil
// @Router /roles/{name}/permissions [put]
func (h *UserHandler) ReplaceRolePermissions(c *gin.Context) {
	_, roles, err := h.identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !hasRole(roles, "ROLE_ADMIN") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
		return
	}
	var req models.ReplaceRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.users.ReplaceRolePermissions(c.Request.Context(), c.Param("name"), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// identity resolves the caller's ID and roles. Behind the gateway the
// X-User-ID and X-User-Roles headers are already verified; direct callers
// present a bearer token.
func (h *UserHandler) identity(c *gin.Context) (string, []string, error) {
	if id := c.GetHeader("X-User-ID"); id != "" {
		var roles []string
		if raw := c.GetHeader("X-User-Roles"); raw != "" {
			roles = strings.Split(raw, ",")
		}
		return id, roles, nil
	}
	authz := c.GetHeader("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header")
	}
	claims, err := h.tokens.Parse(parts[1])
	if err != nil {
		return "", nil, err
	}
	return claims.UserID, claims.Roles, nil
}

func hasRole(roles []string, want string) bool {
	for _, role := range roles {
		if role == want {
			return true
		}
	}
	return false
}
