package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/auth/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

func newUserFixture(t *testing.T) (*UserService, *mockUserRepo) {
	users := &mockUserRepo{
		users: map[string]models.User{
			"user-1": {
				ID:        "user-1",
				Email:     "jordan@example.com",
				FirstName: "Jordan",
				LastName:  "Reyes",
				Active:    true,
			},
		},
		roles: map[string][]string{"user-1": {"ROLE_STUDENT"}},
		rolePerms: map[string][]string{
			"ROLE_STUDENT": {"enrollment:read", "attendance:read"},
			"ROLE_ADMIN":   {"users:manage"},
		},
	}
	return NewUserService(users, nil, zap.NewNop()), users
}

func TestProfileReturnsRoles(t *testing.T) {
	svc, _ := newUserFixture(t)

	info, err := svc.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", info.Email)
	assert.Equal(t, []string{"ROLE_STUDENT"}, info.Roles)
}

func TestProfileUnknownUser(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Profile(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateProfileAppliesPartialChanges(t *testing.T) {
	svc, users := newUserFixture(t)

	first := "Jo"
	dob := "2009-12-01"
	info, err := svc.UpdateProfile(context.Background(), "user-1", &models.UpdateProfileRequest{
		FirstName:   &first,
		DateOfBirth: &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jo", info.FirstName)
	assert.Equal(t, "Reyes", info.LastName)

	stored := users.users["user-1"]
	require.NotNil(t, stored.DateOfBirth)
	assert.Equal(t, "2009-12-01", stored.DateOfBirth.Format("2006-01-02"))
}

func TestUpdateProfileRejectsBadDate(t *testing.T) {
	svc, _ := newUserFixture(t)

	dob := "01/12/2009"
	_, err := svc.UpdateProfile(context.Background(), "user-1", &models.UpdateProfileRequest{DateOfBirth: &dob})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplaceRolesSwapsSet(t *testing.T) {
	svc, users := newUserFixture(t)

	info, err := svc.ReplaceRoles(context.Background(), "user-1", &models.ReplaceRolesRequest{
		Roles: []string{"ROLE_TEACHER", "ROLE_ADMIN"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ROLE_TEACHER", "ROLE_ADMIN"}, info.Roles)
	assert.ElementsMatch(t, []string{"ROLE_TEACHER", "ROLE_ADMIN"}, users.roles["user-1"])
}

func TestPermissionsFollowRoles(t *testing.T) {
	svc, users := newUserFixture(t)

	permissions, err := svc.Permissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"enrollment:read", "attendance:read"}, permissions)

	// Granting the admin role widens the effective set without touching the
	// user row itself.
	users.roles["user-1"] = []string{"ROLE_STUDENT", "ROLE_ADMIN"}
	permissions, err = svc.Permissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"enrollment:read", "attendance:read", "users:manage"}, permissions)
}

func TestPermissionsEmptyWithoutGrants(t *testing.T) {
	svc, users := newUserFixture(t)
	users.rolePerms["ROLE_STUDENT"] = nil

	permissions, err := svc.Permissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, permissions)
	assert.NotNil(t, permissions)
}

func TestReplaceRolePermissionsSwapsSet(t *testing.T) {
	svc, users := newUserFixture(t)

	err := svc.ReplaceRolePermissions(context.Background(), "ROLE_STUDENT", &models.ReplaceRolePermissionsRequest{
		Permissions: []string{"enrollment:read", "enrollment:write"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"enrollment:read", "enrollment:write"}, users.rolePerms["ROLE_STUDENT"])
}

func TestReplaceRolePermissionsUnknownRole(t *testing.T) {
	svc, _ := newUserFixture(t)

	err := svc.ReplaceRolePermissions(context.Background(), "ROLE_GHOST", &models.ReplaceRolePermissionsRequest{
		Permissions: []string{"users:manage"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReplaceRolePermissionsRejectsEmptySet(t *testing.T) {
	svc, users := newUserFixture(t)

	err := svc.ReplaceRolePermissions(context.Background(), "ROLE_STUDENT", &models.ReplaceRolePermissionsRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.ElementsMatch(t, []string{"enrollment:read", "attendance:read"}, users.rolePerms["ROLE_STUDENT"])
}

func TestReplaceRolesRejectsUnknownRole(t *testing.T) {
	svc, users := newUserFixture(t)

	_, err := svc.ReplaceRoles(context.Background(), "user-1", &models.ReplaceRolesRequest{
		Roles: []string{"ROLE_SUPERUSER"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"ROLE_STUDENT"}, users.roles["user-1"])
}
