package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/course/models"
	"github.com/caffein/school-platform/internal/events"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

// RoleTeacher is the identity role that provisions a teacher record.
const RoleTeacher = "ROLE_TEACHER"

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
}

// UpdateTeacherRequest carries mutable teacher fields.
type UpdateTeacherRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Department  *string `json:"department"`
}

// TeacherService manages teacher records.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns every teacher.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Update mutates profile fields of one teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		teacher.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		teacher.LastName = *req.LastName
	}
	if req.Email != nil {
		teacher.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		teacher.PhoneNumber = req.PhoneNumber
	}
	if req.Department != nil {
		teacher.Department = req.Department
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// CreateFromUser provisions a teacher record for a newly registered user.
// A user already linked to a teacher is skipped.
func (s *TeacherService) CreateFromUser(ctx context.Context, event events.UserProvisioned) (*models.Teacher, error) {
	exists, err := s.repo.ExistsByUserID(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if exists {
		s.logger.Debug("teacher already linked", zap.String("user_id", event.ID))
		return nil, nil
	}

	teacher := &models.Teacher{
		UserID:    event.ID,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Email:     event.Email,
	}
	if event.PhoneNumber != "" {
		phone := event.PhoneNumber
		teacher.PhoneNumber = &phone
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.logger.Info("provisioned teacher from user",
		zap.String("user_id", event.ID),
		zap.String("teacher_id", teacher.ID),
	)
	return teacher, nil
}
