package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/student/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type guardianRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Guardian, error)
	FindByID(ctx context.Context, id string) (*models.Guardian, error)
	Create(ctx context.Context, guardian *models.Guardian) error
	Update(ctx context.Context, guardian *models.Guardian) error
	Delete(ctx context.Context, id string) error
}

// GuardianRequest describes guardian creation and mutation.
type GuardianRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	PhoneNumber  string  `json:"phone_number" validate:"required"`
	Email        *string `json:"email"`
	Relationship *string `json:"relationship"`
}

// GuardianService manages guardian contacts under a student.
type GuardianService struct {
	repo      guardianRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuardianService constructs GuardianService.
func NewGuardianService(repo guardianRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *GuardianService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardianService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns the guardians of one student.
func (s *GuardianService) List(ctx context.Context, studentID string) ([]models.Guardian, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	guardians, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guardians")
	}
	return guardians, nil
}

// Add attaches a guardian to a student.
func (s *GuardianService) Add(ctx context.Context, studentID string, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guardian payload")
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	guardian := &models.Guardian{
		StudentID:    studentID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		Relationship: req.Relationship,
	}
	if err := s.repo.Create(ctx, guardian); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create guardian")
	}
	return guardian, nil
}

// Update mutates a guardian contact.
func (s *GuardianService) Update(ctx context.Context, studentID, guardianID string, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guardian payload")
	}
	guardian, err := s.loadOwned(ctx, studentID, guardianID)
	if err != nil {
		return nil, err
	}
	guardian.FirstName = req.FirstName
	guardian.LastName = req.LastName
	guardian.PhoneNumber = req.PhoneNumber
	guardian.Email = req.Email
	guardian.Relationship = req.Relationship
	if err := s.repo.Update(ctx, guardian); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guardian")
	}
	return guardian, nil
}

// Remove detaches a guardian from a student.
func (s *GuardianService) Remove(ctx context.Context, studentID, guardianID string) error {
	if _, err := s.loadOwned(ctx, studentID, guardianID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, guardianID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete guardian")
	}
	return nil
}

func (s *GuardianService) requireStudent(ctx context.Context, studentID string) error {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

func (s *GuardianService) loadOwned(ctx context.Context, studentID, guardianID string) (*models.Guardian, error) {
	guardian, err := s.repo.FindByID(ctx, guardianID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	if guardian.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "guardian does not belong to the specified student")
	}
	return guardian, nil
}
