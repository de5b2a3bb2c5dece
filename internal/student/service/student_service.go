package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/internal/student/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// RoleStudent is the role name that triggers student creation from a
// user-provisioned event.
const RoleStudent = "ROLE_STUDENT"

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type guardianLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Guardian, error)
}

// UpdateStudentRequest describes profile mutation. ActivateEnrollment flips a
// PENDING student to ACTIVE; other lifecycle transitions are out of scope.
type UpdateStudentRequest struct {
	RegistrationID     *string `json:"registration_id"`
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	PhoneNumber        *string `json:"phone_number"`
	AddressLine        *string `json:"address_line"`
	City               *string `json:"city"`
	StateProvince      *string `json:"state_province"`
	PostalCode         *string `json:"postal_code"`
	ActivateEnrollment bool    `json:"activate_enrollment"`
}

// StudentService provides directory use cases for students.
type StudentService struct {
	repo      studentRepository
	guardians guardianLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, guardians guardianLister, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, guardians: guardians, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *response.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &response.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student with guardians attached.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	guardians, err := s.guardians.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardians")
	}
	if guardians == nil {
		guardians = []models.Guardian{}
	}
	return &models.StudentDetail{Student: *student, Guardians: guardians}, nil
}

// Update mutates profile fields and optionally activates enrollment.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if req.RegistrationID != nil {
		student.RegistrationID = req.RegistrationID
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		student.PhoneNumber = req.PhoneNumber
	}
	if req.AddressLine != nil {
		student.AddressLine = req.AddressLine
	}
	if req.City != nil {
		student.City = req.City
	}
	if req.StateProvince != nil {
		student.StateProvince = req.StateProvince
	}
	if req.PostalCode != nil {
		student.PostalCode = req.PostalCode
	}

	if req.ActivateEnrollment && student.Status == models.StudentStatusPending {
		student.Status = models.StudentStatusActive
		s.logger.Info("activated student", zap.String("student_id", id))
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// CreateFromUser creates the directory record for a provisioned identity.
// Exactly one student exists per user id; an existing record short-circuits.
func (s *StudentService) CreateFromUser(ctx context.Context, event events.UserProvisioned) (*models.Student, error) {
	exists, err := s.repo.ExistsByUserID(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if exists {
		s.logger.Info("student already exists for user, skipping creation", zap.String("user_id", event.ID))
		return s.repo.FindByUserID(ctx, event.ID)
	}

	student := &models.Student{
		UserID:    event.ID,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Email:     event.Email,
		Status:    models.StudentStatusPending,
	}
	if event.PhoneNumber != "" {
		student.PhoneNumber = &event.PhoneNumber
	}
	if event.DateOfBirth != "" {
		if dob, err := time.Parse("2006-01-02", event.DateOfBirth); err == nil {
			student.DateOfBirth = &dob
		}
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("created student from provisioned user",
		zap.String("user_id", event.ID),
		zap.String("student_id", student.ID),
		zap.String("email", event.Email),
	)
	return student, nil
}
