package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/caffein/school-platform/internal/auth/models"
	"github.com/caffein/school-platform/internal/auth/token"
	"github.com/caffein/school-platform/internal/events"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User, roles []string) error
	ListRoles(ctx context.Context, userID string) ([]string, error)
	ListPermissions(ctx context.Context, userID string) ([]string, error)
	ReplaceRolePermissions(ctx context.Context, roleName string, permissions []string) error
	UpdateProfile(ctx context.Context, user *models.User) error
	ReplaceRoles(ctx context.Context, userID string, roles []string) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type refreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type eventPublisher interface {
	PublishBestEffort(ctx context.Context, stream string, payload any)
}

// AuthService implements registration, login and the refresh token lifecycle.
type AuthService struct {
	users         userRepository
	refreshTokens refreshTokenRepository
	tokens        *token.Manager
	refreshExpiry time.Duration
	publisher     eventPublisher
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(
	users userRepository,
	refreshTokens refreshTokenRepository,
	tokens *token.Manager,
	refreshExpiry time.Duration,
	publisher eventPublisher,
	validate *validator.Validate,
	logger *zap.Logger,
) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		refreshExpiry: refreshExpiry,
		publisher:     publisher,
		validate:      validate,
		logger:        logger,
	}
}

// Register provisions a new account and announces it on the user stream so
// the directory services can materialise their local profiles.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserInfo, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email availability")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "an account with this email already exists")
	}

	var dateOfBirth *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must use the YYYY-MM-DD format")
		}
		dateOfBirth = &parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  dateOfBirth,
		Active:       true,
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = &req.PhoneNumber
	}
	if err := s.users.Create(ctx, user, req.Roles); err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	event := events.UserProvisioned{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Roles:     req.Roles,
	}
	if user.PhoneNumber != nil {
		event.PhoneNumber = *user.PhoneNumber
	}
	if user.DateOfBirth != nil {
		event.DateOfBirth = user.DateOfBirth.Format("2006-01-02")
	}
	s.publisher.PublishBestEffort(ctx, events.StreamUserProvisioned, event)

	s.logger.Info("user registered", zap.String("userId", user.ID), zap.Strings("roles", req.Roles))
	return &models.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     req.Roles,
	}, nil
}

// Login authenticates credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is deactivated")
	}

	roles, err := s.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user roles")
	}

	return s.issueTokens(ctx, user, roles)
}

// Refresh rotates a refresh token and issues a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, req *models.RefreshTokenRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	stored, err := s.refreshTokens.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid refresh token")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}
	if stored.Revoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token has been revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token has expired")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is deactivated")
	}

	roles, err := s.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user roles")
	}

	// Rotation: the presented token is spent regardless of outcome.
	if err := s.refreshTokens.Revoke(ctx, stored.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate refresh token")
	}

	return s.issueTokens(ctx, user, roles)
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, req *models.RefreshTokenRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid logout payload")
	}

	stored, err := s.refreshTokens.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		if err == sql.ErrNoRows {
			// Already unusable, nothing to do.
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}
	if stored.Revoked {
		return nil
	}
	if err := s.refreshTokens.Revoke(ctx, stored.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
	}
	return nil
}

// ChangePassword verifies the old password, stores the new hash and revokes
// every outstanding refresh token of the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	if err := s.refreshTokens.RevokeAllForUser(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password change",
			zap.String("userId", user.ID), zap.Error(err))
	}

	s.logger.Info("password changed", zap.String("userId", user.ID))
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, roles []string) (*models.LoginResponse, error) {
	issuedAt := time.Now().UTC()
	accessToken, _, err := s.tokens.Generate(user.ID, user.Email, roles)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access token")
	}

	refreshValue, err := generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate refresh token")
	}
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshValue,
		ExpiresAt: issuedAt.Add(s.refreshExpiry),
	}
	if err := s.refreshTokens.Create(ctx, refresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store refresh token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("failed to stamp last login", zap.String("userId", user.ID), zap.Error(err))
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		ExpiresIn:    int64(s.tokens.Expiry().Seconds()),
		IssuedAt:     issuedAt,
		User: models.UserInfo{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Roles:     roles,
		},
	}, nil
}

func generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
