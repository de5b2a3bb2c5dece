package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/analytics/models"
)

type mockDashboardEnrollments struct {
	rows []models.EnrollmentAnalytics
	sum  int64
}

func (m *mockDashboardEnrollments) List(ctx context.Context, academicYear, semester string) ([]models.EnrollmentAnalytics, error) {
	return m.rows, nil
}

func (m *mockDashboardEnrollments) SumTotal(ctx context.Context) (int64, error) {
	return m.sum, nil
}

type mockDashboardAttendance struct {
	average   float64
	dailyRate map[string]float64
	absences  int64
	queried   []string
}

func (m *mockDashboardAttendance) AverageRate(ctx context.Context) (float64, error) {
	return m.average, nil
}

func (m *mockDashboardAttendance) AverageRateForDate(ctx context.Context, date time.Time) (float64, error) {
	key := date.Format("2006-01-02")
	m.queried = append(m.queried, key)
	return m.dailyRate[key], nil
}

func (m *mockDashboardAttendance) AbsenceCountForDate(ctx context.Context, date time.Time) (int64, error) {
	return m.absences, nil
}

type mockStudentCounter struct {
	count int64
}

func (m *mockStudentCounter) Count(ctx context.Context) (int64, error) {
	return m.count, nil
}

func TestDashboardSummary(t *testing.T) {
	enrollments := &mockDashboardEnrollments{
		sum: 120,
		rows: []models.EnrollmentAnalytics{
			{CourseID: "c1", ActiveCount: 25, CompletedCount: 10, WithdrawnCount: 5},
			{CourseID: "c2", ActiveCount: 30, CompletedCount: 40, WithdrawnCount: 10},
		},
	}
	attendance := &mockDashboardAttendance{
		average:  91.456,
		absences: 7,
		dailyRate: map[string]float64{
			"2026-03-02": 88.0,
			"2026-02-27": 92.5,
		},
	}
	students := &mockStudentCounter{count: 340}

	svc := NewDashboardService(enrollments, attendance, students, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	}

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(340), summary.TotalStudents)
	assert.Equal(t, int64(120), summary.TotalEnrollments)
	assert.Equal(t, 91.46, summary.AverageAttendanceRate)
	assert.Equal(t, int64(7), summary.AbsencesToday)
	assert.Equal(t, int64(55), summary.EnrollmentBreakdown.Active)
	assert.Equal(t, int64(50), summary.EnrollmentBreakdown.Completed)
	assert.Equal(t, int64(15), summary.EnrollmentBreakdown.Withdrawn)

	require.Len(t, summary.AttendanceTrend, 7)
	assert.Equal(t, "2026-02-24", summary.AttendanceTrend[0].Date)
	assert.Equal(t, "2026-03-02", summary.AttendanceTrend[6].Date)
	assert.Equal(t, 88.0, summary.AttendanceTrend[6].AttendanceRate)
	assert.Equal(t, 92.5, summary.AttendanceTrend[3].AttendanceRate)
	// Days without rows report zero instead of being skipped.
	assert.Equal(t, 0.0, summary.AttendanceTrend[0].AttendanceRate)
}

func TestDashboardSummaryEmpty(t *testing.T) {
	svc := NewDashboardService(&mockDashboardEnrollments{}, &mockDashboardAttendance{}, &mockStudentCounter{}, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	}

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalStudents)
	assert.Zero(t, summary.TotalEnrollments)
	require.Len(t, summary.AttendanceTrend, 7)
	for _, point := range summary.AttendanceTrend {
		assert.Equal(t, 0.0, point.AttendanceRate)
	}
}
