package models

import "time"

// User is one identity record.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	PhoneNumber  *string    `db:"phone_number" json:"phone_number,omitempty"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Role is a named permission grouping such as ROLE_STUDENT.
type Role struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// Permission is one named capability attached to roles.
type Permission struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// RefreshToken is one opaque long-lived credential, rotated on every use.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// UserInfo is the public identity representation embedded in auth responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	User         UserInfo  `json:"user"`
}

// RegisterRequest carries a new account payload.
type RegisterRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	FirstName   string   `json:"first_name" validate:"required"`
	LastName    string   `json:"last_name" validate:"required"`
	PhoneNumber string   `json:"phone_number"`
	DateOfBirth string   `json:"date_of_birth"`
	Roles       []string `json:"roles" validate:"required,min=1,dive,oneof=ROLE_STUDENT ROLE_TEACHER ROLE_ADMIN"`
}

// RefreshTokenRequest carries a refresh exchange payload.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse carries the rotated token pair.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// UpdateProfileRequest carries mutable profile fields. Nil means unchanged.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

// ReplaceRolesRequest carries a full replacement role set.
type ReplaceRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=ROLE_STUDENT ROLE_TEACHER ROLE_ADMIN"`
}

// ReplaceRolePermissionsRequest carries a full replacement permission set for
// one role.
type ReplaceRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1,dive,min=1"`
}

// ChangePasswordRequest carries a password rotation payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
