package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/analytics/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type enrollmentAnalyticsLister interface {
	List(ctx context.Context, academicYear, semester string) ([]models.EnrollmentAnalytics, error)
	SumTotal(ctx context.Context) (int64, error)
}

type attendanceAnalyticsReader interface {
	AverageRate(ctx context.Context) (float64, error)
	AverageRateForDate(ctx context.Context, date time.Time) (float64, error)
	AbsenceCountForDate(ctx context.Context, date time.Time) (int64, error)
}

type studentCounter interface {
	Count(ctx context.Context) (int64, error)
}

// DashboardService assembles the summary payload. Every call recomputes from
// storage; nothing here is cached.
type DashboardService struct {
	enrollments enrollmentAnalyticsLister
	attendance  attendanceAnalyticsReader
	students    studentCounter
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(enrollments enrollmentAnalyticsLister, attendance attendanceAnalyticsReader, students studentCounter, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		enrollments: enrollments,
		attendance:  attendance,
		students:    students,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary fans out the four aggregate queries, sums the status breakdown
// over every enrollment row, and walks the last seven calendar days for the
// attendance trend. Days without rows report 0.0.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{}

	students, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	summary.TotalStudents = students

	enrollments, err := s.enrollments.SumTotal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum enrollments")
	}
	summary.TotalEnrollments = enrollments

	avgRate, err := s.attendance.AverageRate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average attendance")
	}
	summary.AverageAttendanceRate = round2(avgRate)

	today := s.today()
	absences, err := s.attendance.AbsenceCountForDate(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count absences")
	}
	summary.AbsencesToday = absences

	rows, err := s.enrollments.List(ctx, "", "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment analytics")
	}
	for _, row := range rows {
		summary.EnrollmentBreakdown.Active += row.ActiveCount
		summary.EnrollmentBreakdown.Completed += row.CompletedCount
		summary.EnrollmentBreakdown.Withdrawn += row.WithdrawnCount
	}

	trend := make([]models.TrendPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		rate, err := s.attendance.AverageRateForDate(ctx, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance trend")
		}
		trend = append(trend, models.TrendPoint{
			Date:           day.Format("2006-01-02"),
			AttendanceRate: round2(rate),
		})
	}
	summary.AttendanceTrend = trend

	return summary, nil
}

func (s *DashboardService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
