package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/export"
)

// ExportFormat selects the rendered output.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered bytes and response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders attendance counter rows as downloadable files.
type ExportService struct {
	attendance attendanceAnalyticsLister
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	maxRows    int
	logger     *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(attendance attendanceAnalyticsLister, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		maxRows:    maxRows,
		logger:     logger,
	}
}

// ExportAttendance renders the attendance rows of a date range.
func (s *ExportService) ExportAttendance(ctx context.Context, format ExportFormat, start, end time.Time) (*ExportResult, error) {
	rows, err := s.attendance.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance analytics")
	}
	if len(rows) > s.maxRows {
		rows = rows[:s.maxRows]
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Course", "Present", "Absent", "Late", "Excused", "Total", "Rate"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    row.Date.Format("2006-01-02"),
			"Course":  row.CourseName,
			"Present": strconv.FormatInt(row.PresentCount, 10),
			"Absent":  strconv.FormatInt(row.AbsentCount, 10),
			"Late":    strconv.FormatInt(row.LateCount, 10),
			"Excused": strconv.FormatInt(row.ExcusedCount, 10),
			"Total":   strconv.FormatInt(row.TotalCount, 10),
			"Rate":    fmt.Sprintf("%.2f", row.AttendanceRate),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("attendance-%s.csv", stamp),
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Attendance Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("attendance-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
