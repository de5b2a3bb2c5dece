package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/analytics/models"
	appErrors "github.com/caffein/school-platform/pkg/errors"
)

type attendanceAnalyticsLister interface {
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.AttendanceAnalytics, error)
}

type studentAnalyticsReader interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentAnalytics, error)
}

// QueryService answers the read-side analytics endpoints. List queries go
// through a Redis read-aside cache with a short TTL; lookups by student do
// not.
type QueryService struct {
	enrollments enrollmentAnalyticsLister
	attendance  attendanceAnalyticsLister
	students    studentAnalyticsReader
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewQueryService constructs QueryService. cache may be nil to disable the
// read-aside layer.
func NewQueryService(enrollments enrollmentAnalyticsLister, attendance attendanceAnalyticsLister, students studentAnalyticsReader, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &QueryService{
		enrollments: enrollments,
		attendance:  attendance,
		students:    students,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// ListEnrollments returns the per-course rows of one term.
func (s *QueryService) ListEnrollments(ctx context.Context, academicYear, semester string) ([]models.EnrollmentAnalytics, error) {
	key := fmt.Sprintf("analytics:enrollments:%s:%s", academicYear, semester)
	var cached []models.EnrollmentAnalytics
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.enrollments.List(ctx, academicYear, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment analytics")
	}
	s.cacheSet(ctx, key, rows)
	return rows, nil
}

// ListAttendance returns the per-course per-date rows between two dates.
func (s *QueryService) ListAttendance(ctx context.Context, start, end time.Time) ([]models.AttendanceAnalytics, error) {
	key := fmt.Sprintf("analytics:attendance:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	var cached []models.AttendanceAnalytics
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.attendance.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance analytics")
	}
	s.cacheSet(ctx, key, rows)
	return rows, nil
}

// GetStudent returns one student's lifetime snapshot, 404 when absent.
func (s *QueryService) GetStudent(ctx context.Context, studentID string) (*models.StudentAnalytics, error) {
	row, err := s.students.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student analytics not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student analytics")
	}
	return row, nil
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Debug("cache entry malformed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *QueryService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
