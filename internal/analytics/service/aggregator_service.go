package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/analytics/models"
	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/pkg/jobs"
)

type enrollmentAnalyticsRepository interface {
	FindByCourse(ctx context.Context, courseID string) (*models.EnrollmentAnalytics, error)
	Create(ctx context.Context, row *models.EnrollmentAnalytics) error
	Update(ctx context.Context, row *models.EnrollmentAnalytics) error
}

type attendanceAnalyticsRepository interface {
	FindByCourseAndDate(ctx context.Context, courseID string, date time.Time) (*models.AttendanceAnalytics, error)
	Create(ctx context.Context, row *models.AttendanceAnalytics) error
	Update(ctx context.Context, row *models.AttendanceAnalytics) error
}

type studentAnalyticsRepository interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentAnalytics, error)
	Create(ctx context.Context, row *models.StudentAnalytics) error
	Update(ctx context.Context, row *models.StudentAnalytics) error
}

type snapshotQueue interface {
	Enqueue(job jobs.Job) error
}

// SnapshotPayload carries one queued student snapshot refresh.
type SnapshotPayload struct {
	StudentID string
	Status    string
}

// AggregatorService maintains the rolling counter rows from the event
// streams. Handlers deliberately run blind read-modify-write with no
// idempotency key: a redelivered event double-counts, and an unknown status
// is a silent no-op.
type AggregatorService struct {
	enrollments enrollmentAnalyticsRepository
	attendance  attendanceAnalyticsRepository
	students    studentAnalyticsRepository
	queue       snapshotQueue
	logger      *zap.Logger
}

// NewAggregatorService constructs AggregatorService. queue may be nil, which
// disables the per-student snapshot refresh.
func NewAggregatorService(enrollments enrollmentAnalyticsRepository, attendance attendanceAnalyticsRepository, students studentAnalyticsRepository, queue snapshotQueue, logger *zap.Logger) *AggregatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregatorService{
		enrollments: enrollments,
		attendance:  attendance,
		students:    students,
		queue:       queue,
		logger:      logger,
	}
}

// OnEnrollmentEvent applies one enrollment transition to the per-course row.
func (s *AggregatorService) OnEnrollmentEvent(ctx context.Context, event events.EnrollmentChanged) error {
	row, err := s.enrollments.FindByCourse(ctx, event.CourseID)
	created := false
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load enrollment analytics: %w", err)
		}
		row = &models.EnrollmentAnalytics{
			CourseID:     event.CourseID,
			CourseName:   event.CourseName,
			AcademicYear: event.AcademicYear,
			Semester:     event.Semester,
			MaxCapacity:  event.MaxCapacity,
		}
		created = true
	}

	switch event.Status {
	case "REGISTERED":
		row.TotalCount++
		row.ActiveCount++
	case "WITHDRAWN":
		if row.ActiveCount > 0 {
			row.ActiveCount--
		}
		row.WithdrawnCount++
	case "COMPLETED":
		if row.ActiveCount > 0 {
			row.ActiveCount--
		}
		row.CompletedCount++
	default:
		// Unknown statuses are ignored without surfacing an error.
	}

	if event.MaxCapacity > 0 {
		row.MaxCapacity = event.MaxCapacity
	}
	if row.MaxCapacity > 0 {
		rate := round2(float64(row.TotalCount) * 100.0 / float64(row.MaxCapacity))
		row.EnrollmentRate = &rate
	}

	if created {
		return s.enrollments.Create(ctx, row)
	}
	return s.enrollments.Update(ctx, row)
}

// OnAttendanceEvent applies one attendance entry to the per-course per-date
// row, then queues a best-effort refresh of the student's lifetime snapshot.
func (s *AggregatorService) OnAttendanceEvent(ctx context.Context, event events.AttendanceRecorded) error {
	date, err := time.Parse("2006-01-02", event.Date)
	if err != nil {
		return fmt.Errorf("parse attendance date %q: %w", event.Date, err)
	}

	row, err := s.attendance.FindByCourseAndDate(ctx, event.CourseID, date)
	created := false
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load attendance analytics: %w", err)
		}
		row = &models.AttendanceAnalytics{
			CourseID:   event.CourseID,
			CourseName: event.CourseName,
			Date:       date,
		}
		created = true
	}

	switch event.Status {
	case "PRESENT":
		row.PresentCount++
	case "ABSENT":
		row.AbsentCount++
	case "LATE":
		row.LateCount++
	case "EXCUSED":
		row.ExcusedCount++
	default:
	}

	row.TotalCount = row.PresentCount + row.AbsentCount + row.LateCount + row.ExcusedCount
	if row.TotalCount > 0 {
		row.AttendanceRate = round2(float64(row.PresentCount+row.LateCount) * 100.0 / float64(row.TotalCount))
	}

	if created {
		err = s.attendance.Create(ctx, row)
	} else {
		err = s.attendance.Update(ctx, row)
	}
	if err != nil {
		return err
	}

	s.enqueueSnapshot(event.StudentID, event.Status)
	return nil
}

// RefreshStudentSnapshot increments the lifetime counters of one student.
func (s *AggregatorService) RefreshStudentSnapshot(ctx context.Context, studentID, status string) error {
	row, err := s.students.FindByStudent(ctx, studentID)
	created := false
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load student analytics: %w", err)
		}
		row = &models.StudentAnalytics{StudentID: studentID}
		created = true
	}

	switch status {
	case "PRESENT":
		row.PresentCount++
	case "ABSENT":
		row.AbsentCount++
	case "LATE":
		row.LateCount++
	case "EXCUSED":
		row.ExcusedCount++
	default:
		return nil
	}

	row.TotalCount = row.PresentCount + row.AbsentCount + row.LateCount + row.ExcusedCount
	if row.TotalCount > 0 {
		row.AttendanceRate = round2(float64(row.PresentCount+row.LateCount) * 100.0 / float64(row.TotalCount))
	}

	if created {
		return s.students.Create(ctx, row)
	}
	return s.students.Update(ctx, row)
}

// SnapshotJobHandler adapts RefreshStudentSnapshot to the jobs queue.
func (s *AggregatorService) SnapshotJobHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(SnapshotPayload)
		if !ok {
			return fmt.Errorf("unexpected snapshot payload %T", job.Payload)
		}
		return s.RefreshStudentSnapshot(ctx, payload.StudentID, payload.Status)
	}
}

func (s *AggregatorService) enqueueSnapshot(studentID, status string) {
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "student-snapshot-refresh",
		Payload: SnapshotPayload{StudentID: studentID, Status: status},
	})
	if err != nil {
		s.logger.Warn("snapshot refresh dropped",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
