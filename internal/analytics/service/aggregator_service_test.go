package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/analytics/models"
	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/pkg/jobs"
)

type mockEnrollmentAnalyticsRepo struct {
	rows map[string]models.EnrollmentAnalytics
}

func (m *mockEnrollmentAnalyticsRepo) FindByCourse(ctx context.Context, courseID string) (*models.EnrollmentAnalytics, error) {
	if r, ok := m.rows[courseID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentAnalyticsRepo) Create(ctx context.Context, row *models.EnrollmentAnalytics) error {
	m.rows[row.CourseID] = *row
	return nil
}

func (m *mockEnrollmentAnalyticsRepo) Update(ctx context.Context, row *models.EnrollmentAnalytics) error {
	m.rows[row.CourseID] = *row
	return nil
}

type mockAttendanceAnalyticsRepo struct {
	rows map[string]models.AttendanceAnalytics
}

func attendanceKey(courseID string, date time.Time) string {
	return courseID + "/" + date.Format("2006-01-02")
}

func (m *mockAttendanceAnalyticsRepo) FindByCourseAndDate(ctx context.Context, courseID string, date time.Time) (*models.AttendanceAnalytics, error) {
	if r, ok := m.rows[attendanceKey(courseID, date)]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceAnalyticsRepo) Create(ctx context.Context, row *models.AttendanceAnalytics) error {
	m.rows[attendanceKey(row.CourseID, row.Date)] = *row
	return nil
}

func (m *mockAttendanceAnalyticsRepo) Update(ctx context.Context, row *models.AttendanceAnalytics) error {
	m.rows[attendanceKey(row.CourseID, row.Date)] = *row
	return nil
}

type mockStudentAnalyticsRepo struct {
	rows map[string]models.StudentAnalytics
}

func (m *mockStudentAnalyticsRepo) FindByStudent(ctx context.Context, studentID string) (*models.StudentAnalytics, error) {
	if r, ok := m.rows[studentID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentAnalyticsRepo) Create(ctx context.Context, row *models.StudentAnalytics) error {
	m.rows[row.StudentID] = *row
	return nil
}

func (m *mockStudentAnalyticsRepo) Update(ctx context.Context, row *models.StudentAnalytics) error {
	m.rows[row.StudentID] = *row
	return nil
}

type mockSnapshotQueue struct {
	jobs []jobs.Job
	err  error
}

func (m *mockSnapshotQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func newAggregatorFixture() (*AggregatorService, *mockEnrollmentAnalyticsRepo, *mockAttendanceAnalyticsRepo, *mockStudentAnalyticsRepo, *mockSnapshotQueue) {
	enrollments := &mockEnrollmentAnalyticsRepo{rows: map[string]models.EnrollmentAnalytics{}}
	attendance := &mockAttendanceAnalyticsRepo{rows: map[string]models.AttendanceAnalytics{}}
	students := &mockStudentAnalyticsRepo{rows: map[string]models.StudentAnalytics{}}
	queue := &mockSnapshotQueue{}
	svc := NewAggregatorService(enrollments, attendance, students, queue, zap.NewNop())
	return svc, enrollments, attendance, students, queue
}

func registeredEvent() events.EnrollmentChanged {
	return events.EnrollmentChanged{
		EnrollmentID: "enr-1",
		StudentID:    "stu-1",
		CourseID:     "course-1",
		CourseName:   "Algebra I",
		AcademicYear: "2026/2027",
		Semester:     "1",
		Status:       "REGISTERED",
		MaxCapacity:  40,
	}
}

func TestOnEnrollmentEventCreatesRow(t *testing.T) {
	svc, enrollments, _, _, _ := newAggregatorFixture()

	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), registeredEvent()))

	row := enrollments.rows["course-1"]
	assert.Equal(t, int64(1), row.TotalCount)
	assert.Equal(t, int64(1), row.ActiveCount)
	require.NotNil(t, row.EnrollmentRate)
	assert.Equal(t, 2.5, *row.EnrollmentRate)
}

func TestOnEnrollmentEventReplayDoubleCounts(t *testing.T) {
	svc, enrollments, _, _, _ := newAggregatorFixture()
	event := registeredEvent()

	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), event))
	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), event))

	// At-least-once delivery with no idempotency key: the replay counts again.
	row := enrollments.rows["course-1"]
	assert.Equal(t, int64(2), row.TotalCount)
	assert.Equal(t, int64(2), row.ActiveCount)
	assert.Equal(t, 5.0, *row.EnrollmentRate)
}

func TestOnEnrollmentEventWithdrawnFloorsActive(t *testing.T) {
	svc, enrollments, _, _, _ := newAggregatorFixture()
	event := registeredEvent()
	event.Status = "WITHDRAWN"

	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), event))

	row := enrollments.rows["course-1"]
	assert.Equal(t, int64(0), row.ActiveCount)
	assert.Equal(t, int64(1), row.WithdrawnCount)
	assert.Equal(t, int64(0), row.TotalCount)
}

func TestOnEnrollmentEventCompleted(t *testing.T) {
	svc, enrollments, _, _, _ := newAggregatorFixture()

	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), registeredEvent()))
	completed := registeredEvent()
	completed.Status = "COMPLETED"
	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), completed))

	row := enrollments.rows["course-1"]
	assert.Equal(t, int64(0), row.ActiveCount)
	assert.Equal(t, int64(1), row.CompletedCount)
	assert.Equal(t, int64(1), row.TotalCount)
}

func TestOnEnrollmentEventUnknownStatusIsNoOp(t *testing.T) {
	svc, enrollments, _, _, _ := newAggregatorFixture()
	event := registeredEvent()
	event.Status = "SUSPENDED"

	require.NoError(t, svc.OnEnrollmentEvent(context.Background(), event))

	// The row is still created, with counters untouched.
	row, ok := enrollments.rows["course-1"]
	require.True(t, ok)
	assert.Equal(t, int64(0), row.TotalCount)
	assert.Equal(t, int64(0), row.ActiveCount)
	assert.Equal(t, int64(0), row.WithdrawnCount)
}

func TestOnAttendanceEventAccumulatesRate(t *testing.T) {
	svc, _, attendance, _, queue := newAggregatorFixture()

	for _, status := range []string{"PRESENT", "PRESENT", "ABSENT", "LATE"} {
		require.NoError(t, svc.OnAttendanceEvent(context.Background(), events.AttendanceRecorded{
			AttendanceID: "att-1",
			StudentID:    "stu-1",
			CourseID:     "course-1",
			CourseName:   "Algebra I",
			Date:         "2026-03-02",
			Status:       status,
		}))
	}

	row := attendance.rows["course-1/2026-03-02"]
	assert.Equal(t, int64(4), row.TotalCount)
	assert.Equal(t, int64(2), row.PresentCount)
	assert.Equal(t, int64(1), row.AbsentCount)
	assert.Equal(t, int64(1), row.LateCount)
	assert.Equal(t, 75.0, row.AttendanceRate)
	assert.Len(t, queue.jobs, 4)
}

func TestOnAttendanceEventBadDate(t *testing.T) {
	svc, _, attendance, _, _ := newAggregatorFixture()

	err := svc.OnAttendanceEvent(context.Background(), events.AttendanceRecorded{
		CourseID: "course-1",
		Date:     "03/02/2026",
		Status:   "PRESENT",
	})
	require.Error(t, err)
	assert.Empty(t, attendance.rows)
}

func TestOnAttendanceEventQueueFailureDoesNotFail(t *testing.T) {
	svc, _, attendance, _, queue := newAggregatorFixture()
	queue.err = assert.AnError

	require.NoError(t, svc.OnAttendanceEvent(context.Background(), events.AttendanceRecorded{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Date:      "2026-03-02",
		Status:    "PRESENT",
	}))
	assert.Len(t, attendance.rows, 1)
}

func TestRefreshStudentSnapshot(t *testing.T) {
	svc, _, _, students, _ := newAggregatorFixture()

	require.NoError(t, svc.RefreshStudentSnapshot(context.Background(), "stu-1", "PRESENT"))
	require.NoError(t, svc.RefreshStudentSnapshot(context.Background(), "stu-1", "ABSENT"))

	row := students.rows["stu-1"]
	assert.Equal(t, int64(2), row.TotalCount)
	assert.Equal(t, 50.0, row.AttendanceRate)
}

func TestRefreshStudentSnapshotUnknownStatus(t *testing.T) {
	svc, _, _, students, _ := newAggregatorFixture()

	require.NoError(t, svc.RefreshStudentSnapshot(context.Background(), "stu-1", "TARDY"))
	assert.Empty(t, students.rows)
}

func TestSnapshotJobHandler(t *testing.T) {
	svc, _, _, students, _ := newAggregatorFixture()
	handler := svc.SnapshotJobHandler()

	err := handler(context.Background(), jobs.Job{
		Type:    "student-snapshot-refresh",
		Payload: SnapshotPayload{StudentID: "stu-1", Status: "LATE"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), students.rows["stu-1"].LateCount)

	err = handler(context.Background(), jobs.Job{Payload: "bogus"})
	require.Error(t, err)
}
