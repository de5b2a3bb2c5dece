package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/internal/student/courseclient"
	"github.com/caffein/school-platform/internal/student/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string) (bool, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type courseLookup interface {
	GetCourseByID(ctx context.Context, courseID string) (*courseclient.Course, error)
}

type eventPublisher interface {
	PublishBestEffort(ctx context.Context, stream string, payload interface{})
}

// EnrollStudentRequest describes enrollment creation. When CourseName is set
// the caller supplies a locally-trusted course snapshot and the remote lookup
// is skipped (legacy shortcut); otherwise the workflow fetches the snapshot
// from the course directory.
type EnrollStudentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	CourseName   string `json:"course_name,omitempty"`
	CourseCode   string `json:"course_code,omitempty"`
	AcademicYear string `json:"academic_year,omitempty"`
	Semester     string `json:"semester,omitempty"`
	MaxCapacity  int    `json:"max_capacity,omitempty"`
}

// EnrollmentService orchestrates the enrollment workflow.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	courses   courseLookup
	publisher eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseLookup, publisher eventPublisher, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, publisher: publisher, validator: validate, logger: logger}
}

// Enroll registers a student into a course offering.
//
// Preconditions run in a fixed order: student exists, student is ACTIVE, no
// enrollment links the (student, course) pair yet. A remote lookup failure
// fails the whole operation before anything is written. The capacity check
// reads the current count and inserts without any lock: two concurrent calls
// for the same course can both pass against a stale count and overshoot
// capacity by one. That race is inherited behaviour, pinned in tests, not a
// guarantee.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	s.logger.Info("enrolling student",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
	)

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student must be active to enroll in courses")
	}

	exists, err := s.repo.ExistsByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "student is already enrolled in this course")
	}

	snapshot := courseSnapshot{
		Name:         req.CourseName,
		Code:         req.CourseCode,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		MaxCapacity:  req.MaxCapacity,
	}
	if snapshot.Name == "" {
		snapshot, err = s.lookupCourse(ctx, req.CourseID)
		if err != nil {
			return nil, err
		}
	} else if snapshot.MaxCapacity <= 0 {
		// A local snapshot skips the remote lookup, so the capacity has to
		// arrive with it; zero would report every course as full.
		return nil, appErrors.Clone(appErrors.ErrValidation, "max_capacity must be positive when a course snapshot is supplied")
	}

	count, err := s.repo.CountByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if count >= int64(snapshot.MaxCapacity) {
		return nil, appErrors.Clone(appErrors.ErrResourceExhausted, "course has reached its maximum capacity")
	}

	enrollment := &models.Enrollment{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		CourseCode:   snapshot.Code,
		CourseName:   snapshot.Name,
		AcademicYear: snapshot.AcademicYear,
		Semester:     snapshot.Semester,
		Status:       models.EnrollmentStatusRegistered,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.String("enrollment_id", enrollment.ID),
	)

	s.publishChange(ctx, enrollment, snapshot.MaxCapacity)
	return enrollment, nil
}

// Unenroll withdraws a student from an enrollment. Re-invoking on an already
// withdrawn enrollment succeeds; only COMPLETED blocks withdrawal.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, enrollmentID string) error {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != studentID {
		return appErrors.Clone(appErrors.ErrValidation, "enrollment does not belong to the specified student")
	}
	if enrollment.Status == models.EnrollmentStatusCompleted {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot unenroll from a completed course")
	}

	if err := s.repo.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusWithdrawn); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}

	s.logger.Info("student unenrolled",
		zap.String("student_id", studentID),
		zap.String("enrollment_id", enrollmentID),
		zap.String("course_code", enrollment.CourseCode),
	)

	enrollment.Status = models.EnrollmentStatusWithdrawn
	s.publishChange(ctx, enrollment, 0)
	return nil
}

// ListByStudent returns the enrollments of one student.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

type courseSnapshot struct {
	Name         string
	Code         string
	AcademicYear string
	Semester     string
	MaxCapacity  int
}

func (s *EnrollmentService) lookupCourse(ctx context.Context, courseID string) (courseSnapshot, error) {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return courseSnapshot{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		s.logger.Error("course lookup failed", zap.String("course_id", courseID), zap.Error(err))
		return courseSnapshot{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status,
			"failed to retrieve course information, please try again later")
	}

	code := "N/A"
	if course.Subject != nil && course.Subject.Name != "" {
		code = course.Subject.Name
	}
	return courseSnapshot{
		Name:         course.Name,
		Code:         code,
		AcademicYear: course.AcademicYear,
		Semester:     course.Semester,
		MaxCapacity:  course.MaxCapacity,
	}, nil
}

// publishChange emits an enrollment-changed event. Publication is
// fire-and-forget: it happens after the row is committed, outside any
// transaction, and a relay failure never fails the request.
func (s *EnrollmentService) publishChange(ctx context.Context, enrollment *models.Enrollment, capacity int) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishBestEffort(ctx, events.StreamEnrollmentChanged, events.EnrollmentChanged{
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		CourseID:     enrollment.CourseID,
		CourseName:   enrollment.CourseName,
		AcademicYear: enrollment.AcademicYear,
		Semester:     enrollment.Semester,
		Status:       string(enrollment.Status),
		MaxCapacity:  capacity,
	})
}
