package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caffein/school-platform/internal/auth/models"
)

// UserRepository handles persistence of identities and their roles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone_number,
        date_of_birth, active, last_login_at, created_at, updated_at`

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail checks whether an email is taken.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE email = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user by email: %w", err)
	}
	return true, nil
}

// Create persists a user and its role links in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User, roles []string) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertUser = `INSERT INTO users (id, email, password_hash, first_name, last_name, phone_number,
        date_of_birth, active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :first_name, :last_name, :phone_number,
        :date_of_birth, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertUser, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	const insertLink = `INSERT INTO user_roles (user_id, role_id)
        SELECT $1, id FROM roles WHERE name = $2`
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, insertLink, user.ID, role); err != nil {
			return fmt.Errorf("link role %s: %w", role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

// ListRoles returns the role names of a user.
func (r *UserRepository) ListRoles(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT r.name FROM roles r
        JOIN user_roles ur ON ur.role_id = r.id
        WHERE ur.user_id = $1 ORDER BY r.name ASC`
	var roles []string
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// ListPermissions returns the distinct permission names a user holds through
// its roles.
func (r *UserRepository) ListPermissions(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT p.name FROM permissions p
        JOIN role_permissions rp ON rp.permission_id = p.id
        JOIN user_roles ur ON ur.role_id = rp.role_id
        WHERE ur.user_id = $1 ORDER BY p.name ASC`
	var permissions []string
	if err := r.db.SelectContext(ctx, &permissions, query, userID); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return permissions, nil
}

// ReplaceRolePermissions swaps a role's permission set in one transaction.
// Returns sql.ErrNoRows when the role name is unknown.
func (r *UserRepository) ReplaceRolePermissions(ctx context.Context, roleName string, permissions []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace role permissions: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var roleID string
	if err := tx.GetContext(ctx, &roleID, `SELECT id FROM roles WHERE name = $1`, roleName); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}

	const insertLink = `INSERT INTO role_permissions (role_id, permission_id)
        SELECT $1, id FROM permissions WHERE name = $2`
	for _, permission := range permissions {
		if _, err := tx.ExecContext(ctx, insertLink, roleID, permission); err != nil {
			return fmt.Errorf("link permission %s: %w", permission, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace role permissions: %w", err)
	}
	return nil
}

// UpdateProfile persists mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET first_name = :first_name, last_name = :last_name,
        phone_number = :phone_number, date_of_birth = :date_of_birth, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

// ReplaceRoles swaps a user's role set in one transaction. Unknown role names
// insert nothing, so the caller validates them first.
func (r *UserRepository) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace roles: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}

	const insertLink = `INSERT INTO user_roles (user_id, role_id)
        SELECT $1, id FROM roles WHERE name = $2`
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, insertLink, userID, role); err != nil {
			return fmt.Errorf("link role %s: %w", role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace roles: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the latest successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
