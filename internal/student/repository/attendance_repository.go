package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caffein/school-platform/internal/student/models"
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, enrollment_id, course_id, date, status, remarks, created_at, updated_at`

// FindByID returns an attendance record by its ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE id = $1", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsForDate reports whether an entry already exists for the
// (student, course, date) key.
func (r *AttendanceRepository) ExistsForDate(ctx context.Context, studentID, courseID string, date time.Time) (bool, error) {
	const query = `SELECT 1 FROM attendance_records WHERE student_id = $1 AND course_id = $2 AND date = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, date); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

// Create persists a new attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, student_id, enrollment_id, course_id, date, status, remarks, created_at, updated_at)
        VALUES (:id, :student_id, :enrollment_id, :course_id, :date, :status, :remarks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update persists status and remarks mutations. The date is immutable.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_records SET status = :status, remarks = :remarks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance record.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendance_records WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// ListByStudent returns every attendance record of one student.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE student_id = $1 ORDER BY date DESC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}

// ListByStudentAndCourse returns a student's records for one course.
func (r *AttendanceRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE student_id = $1 AND course_id = $2 ORDER BY date DESC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list course attendance: %w", err)
	}
	return records, nil
}

// ListByStudentAndDateRange returns a student's records between two dates.
func (r *AttendanceRepository) ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE student_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, start, end); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// ListByCourseAndDate returns every record for a course on one date.
func (r *AttendanceRepository) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE course_id = $1 AND date = $2 ORDER BY student_id", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, courseID, date); err != nil {
		return nil, fmt.Errorf("list date attendance: %w", err)
	}
	return records, nil
}

// CountByStatus counts a student's records with one status in one course.
func (r *AttendanceRepository) CountByStatus(ctx context.Context, studentID, courseID string, status models.AttendanceStatus) (int64, error) {
	const query = `SELECT COUNT(*) FROM attendance_records WHERE student_id = $1 AND course_id = $2 AND status = $3`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, studentID, courseID, status); err != nil {
		return 0, fmt.Errorf("count attendance by status: %w", err)
	}
	return count, nil
}
