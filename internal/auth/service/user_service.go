package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/auth/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

// UserService exposes profile reads and updates for authenticated identities,
// plus the admin-only role replacement.
type UserService struct {
	users    userRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validate: validate, logger: logger}
}

// Profile returns the identity behind an access token.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toInfo(ctx, user)
}

// UpdateProfile mutates the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserInfo, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must be YYYY-MM-DD")
		}
		user.DateOfBirth = &dob
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return s.toInfo(ctx, user)
}

// ReplaceRoles swaps a user's role set. Intended for admin callers; the
// handler enforces the role check.
func (s *UserService) ReplaceRoles(ctx context.Context, userID string, req *models.ReplaceRolesRequest) (*models.UserInfo, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roles payload")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.ReplaceRoles(ctx, user.ID, req.Roles); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace roles")
	}
	s.logger.Info("replaced user roles",
		zap.String("user_id", user.ID),
		zap.Strings("roles", req.Roles))
	return s.toInfo(ctx, user)
}

// Permissions returns the distinct permission names the user holds through
// its roles.
func (s *UserService) Permissions(ctx context.Context, userID string) ([]string, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.users.ListPermissions(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
	}
	if permissions == nil {
		permissions = []string{}
	}
	return permissions, nil
}

// ReplaceRolePermissions swaps the permission set of a role. Every user
// holding the role picks up the new set immediately. Admin-only; the handler
// enforces the role check.
func (s *UserService) ReplaceRolePermissions(ctx context.Context, roleName string, req *models.ReplaceRolePermissionsRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permissions payload")
	}
	if err := s.users.ReplaceRolePermissions(ctx, roleName, req.Permissions); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace role permissions")
	}
	s.logger.Info("replaced role permissions",
		zap.String("role", roleName),
		zap.Strings("permissions", req.Permissions))
	return nil
}

func (s *UserService) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) toInfo(ctx context.Context, user *models.User) (*models.UserInfo, error) {
	roles, err := s.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user roles")
	}
	return &models.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     roles,
	}, nil
}
