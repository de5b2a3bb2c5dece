package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/student/courseclient"
	"github.com/caffein/school-platform/internal/student/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	existing    map[string]bool
	counts      map[string]int64
	created     *models.Enrollment
	status      map[string]models.EnrollmentStatus
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ExistsByStudentAndCourse(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.existing[studentID+"/"+courseID], nil
}

func (m *mockEnrollmentRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	return m.counts[courseID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enroll"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	m.status[id] = status
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		m.enrollments[id] = e
	}
	return nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.students[id]
	return ok, nil
}

type mockCourseLookup struct {
	courses map[string]courseclient.Course
	err     error
	calls   int
}

func (m *mockCourseLookup) GetCourseByID(ctx context.Context, courseID string) (*courseclient.Course, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.courses[courseID]; ok {
		return &c, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

type mockPublisher struct {
	streams  []string
	payloads []interface{}
}

func (m *mockPublisher) PublishBestEffort(ctx context.Context, stream string, payload interface{}) {
	m.streams = append(m.streams, stream)
	m.payloads = append(m.payloads, payload)
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockStudentReader, *mockCourseLookup, *mockPublisher) {
	repo := &mockEnrollmentRepo{
		enrollments: map[string]models.Enrollment{},
		existing:    map[string]bool{},
		counts:      map[string]int64{},
	}
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Status: models.StudentStatusActive},
		"stu-2": {ID: "stu-2", Status: models.StudentStatusWithdrawn},
	}}
	courses := &mockCourseLookup{courses: map[string]courseclient.Course{
		"course-1": {
			ID:           "course-1",
			Name:         "Algebra I",
			AcademicYear: "2026/2027",
			Semester:     "1",
			MaxCapacity:  30,
			Subject:      &courseclient.Subject{Name: "MATH"},
		},
	}}
	publisher := &mockPublisher{}
	svc := NewEnrollmentService(repo, students, courses, publisher, nil, zap.NewNop())
	return svc, repo, students, courses, publisher
}

func TestEnrollSuccess(t *testing.T) {
	svc, repo, _, _, publisher := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.EnrollmentStatusRegistered, enrollment.Status)
	assert.Equal(t, "Algebra I", enrollment.CourseName)
	assert.Equal(t, "MATH", enrollment.CourseCode)
	assert.Equal(t, "2026/2027", enrollment.AcademicYear)
	require.Len(t, publisher.streams, 1)
}

func TestEnrollStudentNotFound(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "missing",
		CourseID:  "course-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollInactiveStudentRejected(t *testing.T) {
	svc, repo, _, courses, publisher := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-2",
		CourseID:  "course-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
	assert.Zero(t, courses.calls)
	assert.Empty(t, publisher.streams)
}

func TestEnrollDuplicateRejected(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	repo.existing["stu-1/course-1"] = true

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollAtCapacityRejected(t *testing.T) {
	svc, repo, _, _, publisher := newEnrollmentFixture()
	repo.counts["course-1"] = 30

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResourceExhausted.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
	assert.Empty(t, publisher.streams)
}

func TestEnrollLastSeatAccepted(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	repo.counts["course-1"] = 29

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
}

func TestEnrollCourseLookupUnavailable(t *testing.T) {
	svc, repo, _, courses, publisher := newEnrollmentFixture()
	courses.err = appErrors.Clone(appErrors.ErrUnavailable, "connection refused")

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
	assert.Empty(t, publisher.streams)
}

func TestEnrollCourseNotFound(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID: "stu-1",
		CourseID:  "missing",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollWithLocalSnapshotSkipsLookup(t *testing.T) {
	svc, repo, _, courses, _ := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID:    "stu-1",
		CourseID:     "course-9",
		CourseName:   "Chemistry",
		CourseCode:   "CHEM",
		AcademicYear: "2026/2027",
		Semester:     "2",
		MaxCapacity:  10,
	})
	require.NoError(t, err)
	assert.Zero(t, courses.calls)
	assert.Equal(t, "Chemistry", enrollment.CourseName)
	assert.Equal(t, "CHEM", enrollment.CourseCode)
	require.NotNil(t, repo.created)
}

func TestEnrollLocalSnapshotWithoutCapacityRejected(t *testing.T) {
	svc, repo, _, courses, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{
		StudentID:    "stu-1",
		CourseID:     "course-9",
		CourseName:   "Chemistry",
		CourseCode:   "CHEM",
		AcademicYear: "2026/2027",
		Semester:     "2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, courses.calls)
	assert.Nil(t, repo.created)
}

func TestUnenrollRegisteredBecomesWithdrawn(t *testing.T) {
	svc, repo, _, _, publisher := newEnrollmentFixture()
	repo.enrollments["enr-1"] = models.Enrollment{
		ID: "enr-1", StudentID: "stu-1", CourseID: "course-1",
		Status: models.EnrollmentStatusRegistered,
	}

	err := svc.Unenroll(context.Background(), "stu-1", "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, repo.status["enr-1"])
	require.Len(t, publisher.streams, 1)
}

func TestUnenrollCompletedRejected(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	repo.enrollments["enr-1"] = models.Enrollment{
		ID: "enr-1", StudentID: "stu-1", CourseID: "course-1",
		Status: models.EnrollmentStatusCompleted,
	}

	err := svc.Unenroll(context.Background(), "stu-1", "enr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.status)
}

func TestUnenrollAlreadyWithdrawnSucceeds(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	repo.enrollments["enr-1"] = models.Enrollment{
		ID: "enr-1", StudentID: "stu-1", CourseID: "course-1",
		Status: models.EnrollmentStatusWithdrawn,
	}

	err := svc.Unenroll(context.Background(), "stu-1", "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, repo.status["enr-1"])
}

func TestUnenrollWrongStudentRejected(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	repo.enrollments["enr-1"] = models.Enrollment{
		ID: "enr-1", StudentID: "stu-1", CourseID: "course-1",
		Status: models.EnrollmentStatusRegistered,
	}

	err := svc.Unenroll(context.Background(), "stu-2", "enr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUnenrollMissingEnrollment(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()

	err := svc.Unenroll(context.Background(), "stu-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListByStudentUnknownStudent(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()

	_, err := svc.ListByStudent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
