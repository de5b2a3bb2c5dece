package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/internal/student/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type mockAttendanceRepo struct {
	records   map[string]models.AttendanceRecord
	dayTaken  map[string]bool
	counts    map[models.AttendanceStatus]int64
	created   *models.AttendanceRecord
	deletedID string
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ExistsForDate(ctx context.Context, studentID, courseID string, date time.Time) (bool, error) {
	return m.dayTaken[studentID+"/"+courseID+"/"+date.Format("2006-01-02")], nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.AttendanceRecord)
	}
	if record.ID == "" {
		record.ID = "new-att"
	}
	m.records[record.ID] = *record
	m.created = record
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockAttendanceRepo) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockAttendanceRepo) ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockAttendanceRepo) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockAttendanceRepo) CountByStatus(ctx context.Context, studentID, courseID string, status models.AttendanceStatus) (int64, error) {
	return m.counts[status], nil
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo, *mockPublisher) {
	repo := &mockAttendanceRepo{
		records:  map[string]models.AttendanceRecord{},
		dayTaken: map[string]bool{},
		counts:   map[models.AttendanceStatus]int64{},
	}
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Status: models.StudentStatusActive},
	}}
	enrollments := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {
			ID: "enr-1", StudentID: "stu-1", CourseID: "course-1",
			CourseName: "Algebra I", Status: models.EnrollmentStatusRegistered,
		},
	}}
	publisher := &mockPublisher{}
	svc := NewAttendanceService(repo, students, enrollments, publisher, nil, zap.NewNop())
	return svc, repo, publisher
}

func TestRecordAttendanceSuccess(t *testing.T) {
	svc, repo, publisher := newAttendanceFixture()

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:    "stu-1",
		EnrollmentID: "enr-1",
		CourseID:     "course-1",
		Date:         "2026-03-02",
		Status:       "PRESENT",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)

	require.Len(t, publisher.payloads, 1)
	event, ok := publisher.payloads[0].(events.AttendanceRecorded)
	require.True(t, ok)
	assert.Equal(t, "Algebra I", event.CourseName)
	assert.Equal(t, "2026-03-02", event.Date)
}

func TestRecordAttendanceDuplicateDayRejected(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.dayTaken["stu-1/course-1/2026-03-02"] = true

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:    "stu-1",
		EnrollmentID: "enr-1",
		CourseID:     "course-1",
		Date:         "2026-03-02",
		Status:       "PRESENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestRecordAttendanceForeignEnrollmentRejected(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:    "stu-1",
		EnrollmentID: "enr-1",
		CourseID:     "course-9",
		Date:         "2026-03-02",
		Status:       "PRESENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestRecordAttendanceInvalidStatusRejected(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:    "stu-1",
		EnrollmentID: "enr-1",
		CourseID:     "course-1",
		Date:         "2026-03-02",
		Status:       "HERE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestUpdateAttendanceKeepsImmutableFields(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	repo.records["att-1"] = models.AttendanceRecord{
		ID: "att-1", StudentID: "stu-1", EnrollmentID: "enr-1",
		CourseID: "course-1", Date: date, Status: models.AttendanceStatusPresent,
	}

	remarks := "arrived after roll call"
	updated, err := svc.Update(context.Background(), "att-1", UpdateAttendanceRequest{
		Status:  "LATE",
		Remarks: &remarks,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, updated.Status)
	assert.Equal(t, date, updated.Date)
	assert.Equal(t, "stu-1", updated.StudentID)
}

func TestAttendanceStatisticsRate(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.counts[models.AttendanceStatusPresent] = 2
	repo.counts[models.AttendanceStatusAbsent] = 1
	repo.counts[models.AttendanceStatusLate] = 1

	stats, err := svc.Statistics(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, 75.0, stats.AttendanceRate)
}

func TestAttendanceStatisticsEmpty(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	stats, err := svc.Statistics(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
	assert.Equal(t, 0.0, stats.AttendanceRate)
}
