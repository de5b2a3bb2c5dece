package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/course/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	ListByTerm(ctx context.Context, academicYear, semester string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type scheduleLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error)
}

// CourseRequest carries course creation and update payloads.
type CourseRequest struct {
	SubjectID    string  `json:"subject_id" validate:"required"`
	TeacherID    string  `json:"teacher_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	Semester     string  `json:"semester" validate:"required"`
	RoomNumber   string  `json:"room_number"`
	MaxCapacity  int     `json:"max_capacity" validate:"required,min=1"`
}

// CourseService manages course offerings and serves the internal lookup API
// the student directory calls during enrollment.
type CourseService struct {
	repo      courseRepository
	subjects  subjectReader
	teachers  teacherReader
	schedules scheduleLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, subjects subjectReader, teachers teacherReader, schedules scheduleLister, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, subjects: subjects, teachers: teachers, schedules: schedules, validator: validate, logger: logger}
}

// List returns courses matching the filter plus pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *response.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &response.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one course joined with its subject, teacher and schedules.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.detail(ctx, course)
}

// ListByTerm returns the detailed courses of one term; both filters are
// optional. Serves the multi-result internal lookup.
func (s *CourseService) ListByTerm(ctx context.Context, academicYear, semester string) ([]models.CourseDetail, error) {
	courses, err := s.repo.ListByTerm(ctx, academicYear, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	details := make([]models.CourseDetail, 0, len(courses))
	for i := range courses {
		detail, err := s.detail(ctx, &courses[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// Create persists a new course after checking its subject and teacher exist.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	exists, err := s.teachers.Exists(ctx, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	course := &models.Course{
		SubjectID:    req.SubjectID,
		TeacherID:    req.TeacherID,
		Name:         req.Name,
		Description:  req.Description,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		RoomNumber:   req.RoomNumber,
		MaxCapacity:  req.MaxCapacity,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("created course",
		zap.String("course_id", course.ID),
		zap.String("academic_year", course.AcademicYear),
		zap.String("semester", course.Semester),
	)
	return course, nil
}

// Update mutates one course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course.SubjectID = req.SubjectID
	course.TeacherID = req.TeacherID
	course.Name = req.Name
	course.Description = req.Description
	course.AcademicYear = req.AcademicYear
	course.Semester = req.Semester
	course.RoomNumber = req.RoomNumber
	course.MaxCapacity = req.MaxCapacity
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes one course and its schedules.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *CourseService) detail(ctx context.Context, course *models.Course) (*models.CourseDetail, error) {
	detail := &models.CourseDetail{Course: *course}

	subject, err := s.subjects.FindByID(ctx, course.SubjectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	detail.Subject = subject

	teacher, err := s.teachers.FindByID(ctx, course.TeacherID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	detail.Teacher = teacher

	schedules, err := s.schedules.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	detail.Schedules = schedules
	return detail, nil
}
