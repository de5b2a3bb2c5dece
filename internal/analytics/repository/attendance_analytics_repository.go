package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caffein/school-platform/internal/analytics/models"
)

// AttendanceAnalyticsRepository persists per-course per-date counters.
type AttendanceAnalyticsRepository struct {
	db *sqlx.DB
}

// NewAttendanceAnalyticsRepository constructs the repository.
func NewAttendanceAnalyticsRepository(db *sqlx.DB) *AttendanceAnalyticsRepository {
	return &AttendanceAnalyticsRepository{db: db}
}

const attendanceAnalyticsColumns = `id, course_id, course_name, date, present_count, absent_count,
        late_count, excused_count, total_count, attendance_rate, created_at, updated_at`

// FindByCourseAndDate returns the counter row for one course on one date.
func (r *AttendanceAnalyticsRepository) FindByCourseAndDate(ctx context.Context, courseID string, date time.Time) (*models.AttendanceAnalytics, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_analytics WHERE course_id = $1 AND date = $2", attendanceAnalyticsColumns)
	var row models.AttendanceAnalytics
	if err := r.db.GetContext(ctx, &row, query, courseID, date); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByDateRange returns counter rows between two dates inclusive.
func (r *AttendanceAnalyticsRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.AttendanceAnalytics, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_analytics WHERE date BETWEEN $1 AND $2 ORDER BY date ASC, course_name ASC", attendanceAnalyticsColumns)
	var rows []models.AttendanceAnalytics
	if err := r.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("list attendance analytics: %w", err)
	}
	return rows, nil
}

// Create persists a fresh counter row.
func (r *AttendanceAnalyticsRepository) Create(ctx context.Context, row *models.AttendanceAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	const query = `INSERT INTO attendance_analytics (id, course_id, course_name, date, present_count,
        absent_count, late_count, excused_count, total_count, attendance_rate, created_at, updated_at)
        VALUES (:id, :course_id, :course_name, :date, :present_count,
        :absent_count, :late_count, :excused_count, :total_count, :attendance_rate, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create attendance analytics: %w", err)
	}
	return nil
}

// Update writes the mutated counters back.
func (r *AttendanceAnalyticsRepository) Update(ctx context.Context, row *models.AttendanceAnalytics) error {
	row.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_analytics SET course_name = :course_name, present_count = :present_count,
        absent_count = :absent_count, late_count = :late_count, excused_count = :excused_count,
        total_count = :total_count, attendance_rate = :attendance_rate, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update attendance analytics: %w", err)
	}
	return nil
}

// AverageRate returns the average attendance rate across every row, zero
// when no rows exist.
func (r *AttendanceAnalyticsRepository) AverageRate(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(AVG(attendance_rate), 0) FROM attendance_analytics`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return 0, fmt.Errorf("average attendance rate: %w", err)
	}
	return avg, nil
}

// AverageRateForDate returns the average attendance rate of one date; zero
// when the date has no rows.
func (r *AttendanceAnalyticsRepository) AverageRateForDate(ctx context.Context, date time.Time) (float64, error) {
	const query = `SELECT COALESCE(AVG(attendance_rate), 0) FROM attendance_analytics WHERE date = $1`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, date); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("average attendance rate for date: %w", err)
	}
	return avg, nil
}

// AbsenceCountForDate sums absences across courses on one date.
func (r *AttendanceAnalyticsRepository) AbsenceCountForDate(ctx context.Context, date time.Time) (int64, error) {
	const query = `SELECT COALESCE(SUM(absent_count), 0) FROM attendance_analytics WHERE date = $1`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, date); err != nil {
		return 0, fmt.Errorf("absence count for date: %w", err)
	}
	return total, nil
}
