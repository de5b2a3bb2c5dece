package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/course/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type scheduleRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error)
	ListByCourseAndDay(ctx context.Context, courseID, dayOfWeek string) ([]models.Schedule, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ScheduleRequest carries slot creation and update payloads.
type ScheduleRequest struct {
	DayOfWeek  string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	RoomNumber string `json:"room_number"`
}

// ScheduleService manages a course's weekly meeting slots.
type ScheduleService struct {
	repo      scheduleRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// ListByCourse returns a course's slots.
func (s *ScheduleService) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	schedules, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Add creates a slot after checking the time window and conflicts with the
// course's existing slots on the same weekday.
func (s *ScheduleService) Add(ctx context.Context, courseID string, req ScheduleRequest) (*models.Schedule, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, courseID, req, ""); err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		CourseID:   courseID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		RoomNumber: req.RoomNumber,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update mutates one slot, re-running the conflict check against the other
// slots of the same course.
func (s *ScheduleService) Update(ctx context.Context, courseID, scheduleID string, req ScheduleRequest) (*models.Schedule, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	schedule, err := s.loadOwned(ctx, courseID, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, courseID, req, scheduleID); err != nil {
		return nil, err
	}

	schedule.DayOfWeek = req.DayOfWeek
	schedule.StartTime = req.StartTime
	schedule.EndTime = req.EndTime
	schedule.RoomNumber = req.RoomNumber
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Remove deletes one slot.
func (s *ScheduleService) Remove(ctx context.Context, courseID, scheduleID string) error {
	if _, err := s.loadOwned(ctx, courseID, scheduleID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scheduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

func (s *ScheduleService) validate(req ScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be formatted HH:MM")
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be formatted HH:MM")
	}
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return nil
}

// checkConflict rejects a window that overlaps an existing slot on the same
// weekday. Touching boundaries count as overlap: only end < start or
// start > end on either side is clear.
func (s *ScheduleService) checkConflict(ctx context.Context, courseID string, req ScheduleRequest, excludeID string) error {
	existing, err := s.repo.ListByCourseAndDay(ctx, courseID, req.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	for _, slot := range existing {
		if slot.ID == excludeID {
			continue
		}
		if req.EndTime < slot.StartTime || req.StartTime > slot.EndTime {
			continue
		}
		return appErrors.Clone(appErrors.ErrValidation, "schedule overlaps an existing slot for this course")
	}
	return nil
}

func (s *ScheduleService) requireCourse(ctx context.Context, courseID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return nil
}

func (s *ScheduleService) loadOwned(ctx context.Context, courseID, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule does not belong to the specified course")
	}
	return schedule, nil
}
