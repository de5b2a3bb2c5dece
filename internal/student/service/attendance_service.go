package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/internal/student/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	ExistsForDate(ctx context.Context, studentID, courseID string, date time.Time) (bool, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error)
	ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]models.AttendanceRecord, error)
	ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.AttendanceRecord, error)
	CountByStatus(ctx context.Context, studentID, courseID string, status models.AttendanceStatus) (int64, error)
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

// RecordAttendanceRequest describes attendance creation.
type RecordAttendanceRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	CourseID     string  `json:"course_id" validate:"required"`
	Date         string  `json:"date" validate:"required"`
	Status       string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Remarks      *string `json:"remarks"`
}

// UpdateAttendanceRequest describes mutable attendance fields.
type UpdateAttendanceRequest struct {
	Status  string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Remarks *string `json:"remarks"`
}

// AttendanceService manages attendance entries.
type AttendanceService struct {
	repo        attendanceRepository
	students    studentReader
	enrollments enrollmentReader
	publisher   eventPublisher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, students studentReader, enrollments enrollmentReader, publisher eventPublisher, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, enrollments: enrollments, publisher: publisher, validator: validate, logger: logger}
}

// Record creates one attendance entry after validating the student,
// enrollment, ownership, course match, and the per-day uniqueness rule.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment does not belong to the specified student")
	}
	if enrollment.CourseID != req.CourseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment does not match the specified course")
	}

	duplicate, err := s.repo.ExistsForDate(ctx, req.StudentID, req.CourseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "attendance record already exists for this student, course, and date")
	}

	record := &models.AttendanceRecord{
		StudentID:    req.StudentID,
		EnrollmentID: req.EnrollmentID,
		CourseID:     req.CourseID,
		Date:         date,
		Status:       models.AttendanceStatus(req.Status),
		Remarks:      req.Remarks,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance")
	}

	s.logger.Info("recorded attendance",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.String("status", req.Status),
	)

	if s.publisher != nil {
		s.publisher.PublishBestEffort(ctx, events.StreamAttendanceRecorded, events.AttendanceRecorded{
			AttendanceID: record.ID,
			StudentID:    record.StudentID,
			CourseID:     record.CourseID,
			CourseName:   enrollment.CourseName,
			Date:         date.Format("2006-01-02"),
			Status:       string(record.Status),
		})
	}
	return record, nil
}

// Update mutates status and remarks of one entry.
func (s *AttendanceService) Update(ctx context.Context, recordID string, req UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	record, err := s.load(ctx, recordID)
	if err != nil {
		return nil, err
	}
	record.Status = models.AttendanceStatus(req.Status)
	record.Remarks = req.Remarks
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	return record, nil
}

// Delete removes one entry.
func (s *AttendanceService) Delete(ctx context.Context, recordID string) error {
	if _, err := s.load(ctx, recordID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, recordID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	return nil
}

// Get returns one entry.
func (s *AttendanceService) Get(ctx context.Context, recordID string) (*models.AttendanceRecord, error) {
	return s.load(ctx, recordID)
}

// ListByStudent returns every entry of one student.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListByStudentAndCourse returns a student's entries for one course.
func (s *AttendanceService) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListByStudentAndDateRange returns a student's entries between two dates.
func (s *AttendanceService) ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]models.AttendanceRecord, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByStudentAndDateRange(ctx, studentID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListByCourseAndDate returns every entry for one course on one date.
func (s *AttendanceService) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByCourseAndDate(ctx, courseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Statistics summarises a student's attendance in one course. The rate is
// rounded to the nearest whole percent.
func (s *AttendanceService) Statistics(ctx context.Context, studentID, courseID string) (*models.AttendanceStatistics, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}

	stats := &models.AttendanceStatistics{}
	counts := map[models.AttendanceStatus]*int64{
		models.AttendanceStatusPresent: &stats.Present,
		models.AttendanceStatusAbsent:  &stats.Absent,
		models.AttendanceStatusLate:    &stats.Late,
		models.AttendanceStatusExcused: &stats.Excused,
	}
	for status, dest := range counts {
		count, err := s.repo.CountByStatus(ctx, studentID, courseID, status)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
		}
		*dest = count
	}

	stats.Total = stats.Present + stats.Absent + stats.Late + stats.Excused
	if stats.Total > 0 {
		stats.AttendanceRate = math.Round(float64(stats.Present+stats.Late) * 100.0 / float64(stats.Total))
	}
	return stats, nil
}

func (s *AttendanceService) load(ctx context.Context, recordID string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return record, nil
}

func (s *AttendanceService) requireStudent(ctx context.Context, studentID string) error {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}
