package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caffein/school-platform/internal/analytics/models"
)

// EnrollmentAnalyticsRepository persists per-course enrollment counters.
type EnrollmentAnalyticsRepository struct {
	db *sqlx.DB
}

// NewEnrollmentAnalyticsRepository constructs the repository.
func NewEnrollmentAnalyticsRepository(db *sqlx.DB) *EnrollmentAnalyticsRepository {
	return &EnrollmentAnalyticsRepository{db: db}
}

const enrollmentAnalyticsColumns = `id, course_id, course_name, academic_year, semester, total_count,
        active_count, completed_count, withdrawn_count, max_capacity, enrollment_rate, created_at, updated_at`

// FindByCourse returns the counter row of one course.
func (r *EnrollmentAnalyticsRepository) FindByCourse(ctx context.Context, courseID string) (*models.EnrollmentAnalytics, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_analytics WHERE course_id = $1", enrollmentAnalyticsColumns)
	var row models.EnrollmentAnalytics
	if err := r.db.GetContext(ctx, &row, query, courseID); err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns counter rows optionally narrowed to one term.
func (r *EnrollmentAnalyticsRepository) List(ctx context.Context, academicYear, semester string) ([]models.EnrollmentAnalytics, error) {
	var conditions []string
	var args []interface{}

	if academicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, academicYear)
	}
	if semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, semester)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM enrollment_analytics%s ORDER BY course_name ASC", enrollmentAnalyticsColumns, clause)
	var rows []models.EnrollmentAnalytics
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollment analytics: %w", err)
	}
	return rows, nil
}

// Create persists a fresh counter row.
func (r *EnrollmentAnalyticsRepository) Create(ctx context.Context, row *models.EnrollmentAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	const query = `INSERT INTO enrollment_analytics (id, course_id, course_name, academic_year, semester,
        total_count, active_count, completed_count, withdrawn_count, max_capacity, enrollment_rate, created_at, updated_at)
        VALUES (:id, :course_id, :course_name, :academic_year, :semester,
        :total_count, :active_count, :completed_count, :withdrawn_count, :max_capacity, :enrollment_rate, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create enrollment analytics: %w", err)
	}
	return nil
}

// Update writes the mutated counters back.
func (r *EnrollmentAnalyticsRepository) Update(ctx context.Context, row *models.EnrollmentAnalytics) error {
	row.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollment_analytics SET course_name = :course_name, academic_year = :academic_year,
        semester = :semester, total_count = :total_count, active_count = :active_count,
        completed_count = :completed_count, withdrawn_count = :withdrawn_count, max_capacity = :max_capacity,
        enrollment_rate = :enrollment_rate, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update enrollment analytics: %w", err)
	}
	return nil
}

// SumTotal returns the sum of total_count across every course row.
func (r *EnrollmentAnalyticsRepository) SumTotal(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(SUM(total_count), 0) FROM enrollment_analytics`
	var total int64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("sum enrollments: %w", err)
	}
	return total, nil
}
