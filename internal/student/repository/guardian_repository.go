package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caffein/school-platform/internal/student/models"
)

// GuardianRepository handles persistence of guardians.
type GuardianRepository struct {
	db *sqlx.DB
}

// NewGuardianRepository constructs the repository.
func NewGuardianRepository(db *sqlx.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// ListByStudent returns the guardians owned by one student.
func (r *GuardianRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Guardian, error) {
	const query = `SELECT id, student_id, first_name, last_name, phone_number, email, relationship
        FROM guardians WHERE student_id = $1 ORDER BY last_name, first_name`
	var guardians []models.Guardian
	if err := r.db.SelectContext(ctx, &guardians, query, studentID); err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	return guardians, nil
}

// FindByID returns a guardian by its ID.
func (r *GuardianRepository) FindByID(ctx context.Context, id string) (*models.Guardian, error) {
	const query = `SELECT id, student_id, first_name, last_name, phone_number, email, relationship
        FROM guardians WHERE id = $1`
	var guardian models.Guardian
	if err := r.db.GetContext(ctx, &guardian, query, id); err != nil {
		return nil, err
	}
	return &guardian, nil
}

// Create persists a new guardian record.
func (r *GuardianRepository) Create(ctx context.Context, guardian *models.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	const query = `INSERT INTO guardians (id, student_id, first_name, last_name, phone_number, email, relationship)
        VALUES (:id, :student_id, :first_name, :last_name, :phone_number, :email, :relationship)`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("create guardian: %w", err)
	}
	return nil
}

// Update persists guardian mutations.
func (r *GuardianRepository) Update(ctx context.Context, guardian *models.Guardian) error {
	const query = `UPDATE guardians SET first_name = :first_name, last_name = :last_name,
        phone_number = :phone_number, email = :email, relationship = :relationship WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("update guardian: %w", err)
	}
	return nil
}

// Delete removes a guardian record.
func (r *GuardianRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM guardians WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete guardian: %w", err)
	}
	return nil
}
