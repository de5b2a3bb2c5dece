package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/course/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type mockScheduleRepo struct {
	schedules map[string]models.Schedule
	created   *models.Schedule
	deletedID string
}

func (m *mockScheduleRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	var list []models.Schedule
	for _, s := range m.schedules {
		if s.CourseID == courseID {
			list = append(list, s)
		}
	}
	return list, nil
}

func (m *mockScheduleRepo) ListByCourseAndDay(ctx context.Context, courseID, dayOfWeek string) ([]models.Schedule, error) {
	var list []models.Schedule
	for _, s := range m.schedules {
		if s.CourseID == courseID && s.DayOfWeek == dayOfWeek {
			list = append(list, s)
		}
	}
	return list, nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = "new-slot"
	}
	m.schedules[schedule.ID] = *schedule
	m.created = schedule
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	m.schedules[schedule.ID] = *schedule
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	delete(m.schedules, id)
	return nil
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newScheduleFixture() (*ScheduleService, *mockScheduleRepo) {
	repo := &mockScheduleRepo{schedules: map[string]models.Schedule{
		"slot-1": {
			ID: "slot-1", CourseID: "course-1",
			DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:30",
		},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Name: "Algebra I"},
	}}
	svc := NewScheduleService(repo, courses, nil, zap.NewNop())
	return svc, repo
}

func TestAddScheduleSuccess(t *testing.T) {
	svc, repo := newScheduleFixture()

	slot, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "TUESDAY",
		StartTime: "09:00",
		EndTime:   "10:30",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "TUESDAY", slot.DayOfWeek)
}

func TestAddScheduleOverlapRejected(t *testing.T) {
	svc, repo := newScheduleFixture()

	_, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "MONDAY",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestAddScheduleTouchingBoundaryRejected(t *testing.T) {
	svc, _ := newScheduleFixture()

	// A slot starting exactly when the existing one ends still conflicts.
	_, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "MONDAY",
		StartTime: "10:30",
		EndTime:   "12:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddScheduleAdjacentWithGapAccepted(t *testing.T) {
	svc, repo := newScheduleFixture()

	_, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "MONDAY",
		StartTime: "10:31",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
}

func TestAddScheduleSameTimeOtherDayAccepted(t *testing.T) {
	svc, _ := newScheduleFixture()

	_, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "FRIDAY",
		StartTime: "09:00",
		EndTime:   "10:30",
	})
	require.NoError(t, err)
}

func TestAddScheduleInvertedWindowRejected(t *testing.T) {
	svc, _ := newScheduleFixture()

	_, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "TUESDAY",
		StartTime: "11:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddScheduleZeroLengthWindowRejected(t *testing.T) {
	svc, _ := newScheduleFixture()

	_, err := svc.Add(context.Background(), "course-1", ScheduleRequest{
		DayOfWeek: "TUESDAY",
		StartTime: "09:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
}

func TestAddScheduleUnknownCourse(t *testing.T) {
	svc, _ := newScheduleFixture()

	_, err := svc.Add(context.Background(), "missing", ScheduleRequest{
		DayOfWeek: "MONDAY",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateScheduleExcludesSelfFromConflict(t *testing.T) {
	svc, repo := newScheduleFixture()

	slot, err := svc.Update(context.Background(), "course-1", "slot-1", ScheduleRequest{
		DayOfWeek: "MONDAY",
		StartTime: "09:30",
		EndTime:   "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:30", slot.StartTime)
	assert.Equal(t, "11:00", repo.schedules["slot-1"].EndTime)
}

func TestUpdateScheduleForeignSlotRejected(t *testing.T) {
	svc, repo := newScheduleFixture()
	repo.schedules["slot-2"] = models.Schedule{
		ID: "slot-2", CourseID: "course-2",
		DayOfWeek: "MONDAY", StartTime: "13:00", EndTime: "14:00",
	}

	_, err := svc.Update(context.Background(), "course-1", "slot-2", ScheduleRequest{
		DayOfWeek: "MONDAY",
		StartTime: "13:00",
		EndTime:   "14:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRemoveSchedule(t *testing.T) {
	svc, repo := newScheduleFixture()

	require.NoError(t, svc.Remove(context.Background(), "course-1", "slot-1"))
	assert.Equal(t, "slot-1", repo.deletedID)
}
