package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caffein/school-platform/internal/analytics/models"
)

// StudentAnalyticsRepository persists per-student lifetime counters.
type StudentAnalyticsRepository struct {
	db *sqlx.DB
}

// NewStudentAnalyticsRepository constructs the repository.
func NewStudentAnalyticsRepository(db *sqlx.DB) *StudentAnalyticsRepository {
	return &StudentAnalyticsRepository{db: db}
}

const studentAnalyticsColumns = `id, student_id, present_count, absent_count, late_count,
        excused_count, total_count, attendance_rate, created_at, updated_at`

// FindByStudent returns the lifetime snapshot of one student.
func (r *StudentAnalyticsRepository) FindByStudent(ctx context.Context, studentID string) (*models.StudentAnalytics, error) {
	query := fmt.Sprintf("SELECT %s FROM student_analytics WHERE student_id = $1", studentAnalyticsColumns)
	var row models.StudentAnalytics
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return nil, err
	}
	return &row, nil
}

// Create persists a fresh snapshot row.
func (r *StudentAnalyticsRepository) Create(ctx context.Context, row *models.StudentAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	const query = `INSERT INTO student_analytics (id, student_id, present_count, absent_count, late_count,
        excused_count, total_count, attendance_rate, created_at, updated_at)
        VALUES (:id, :student_id, :present_count, :absent_count, :late_count,
        :excused_count, :total_count, :attendance_rate, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create student analytics: %w", err)
	}
	return nil
}

// Update writes the mutated counters back.
func (r *StudentAnalyticsRepository) Update(ctx context.Context, row *models.StudentAnalytics) error {
	row.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_analytics SET present_count = :present_count, absent_count = :absent_count,
        late_count = :late_count, excused_count = :excused_count, total_count = :total_count,
        attendance_rate = :attendance_rate, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update student analytics: %w", err)
	}
	return nil
}

// Count returns the number of students with a snapshot row.
func (r *StudentAnalyticsRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM student_analytics`
	var total int64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count student analytics: %w", err)
	}
	return total, nil
}
