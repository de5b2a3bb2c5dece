package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/analytics/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type mockAttendanceLister struct {
	rows []models.AttendanceAnalytics
}

func (m *mockAttendanceLister) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.AttendanceAnalytics, error) {
	return m.rows, nil
}

func exportFixtureRows() []models.AttendanceAnalytics {
	return []models.AttendanceAnalytics{
		{
			CourseID: "course-1", CourseName: "Algebra I",
			Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			PresentCount: 25, AbsentCount: 3, LateCount: 2,
			TotalCount: 30, AttendanceRate: 90.0,
		},
		{
			CourseID: "course-2", CourseName: "Biology",
			Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			PresentCount: 18, AbsentCount: 1, ExcusedCount: 1,
			TotalCount: 20, AttendanceRate: 90.0,
		},
	}
}

func TestExportAttendanceCSV(t *testing.T) {
	svc := NewExportService(&mockAttendanceLister{rows: exportFixtureRows()}, 0, zap.NewNop())

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.ExportAttendance(context.Background(), FormatCSV, start, end)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "attendance-"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	content := string(result.Content)
	assert.Contains(t, content, "Date,Course,Present,Absent,Late,Excused,Total,Rate")
	assert.Contains(t, content, "2026-03-02,Algebra I,25,3,2,0,30,90.00")
	assert.Contains(t, content, "Biology")
}

func TestExportAttendancePDF(t *testing.T) {
	svc := NewExportService(&mockAttendanceLister{rows: exportFixtureRows()}, 0, zap.NewNop())

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.ExportAttendance(context.Background(), FormatPDF, start, end)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportAttendanceUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockAttendanceLister{}, 0, zap.NewNop())

	_, err := svc.ExportAttendance(context.Background(), ExportFormat("xlsx"), time.Now(), time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportAttendanceCapsRows(t *testing.T) {
	var rows []models.AttendanceAnalytics
	for i := 0; i < 10; i++ {
		rows = append(rows, models.AttendanceAnalytics{
			CourseID: "course-1", CourseName: "Algebra I",
			Date: time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}
	svc := NewExportService(&mockAttendanceLister{rows: rows}, 3, zap.NewNop())

	result, err := svc.ExportAttendance(context.Background(), FormatCSV, time.Now(), time.Now())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	// Header plus the capped row count.
	assert.Len(t, lines, 4)
}
