package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caffein/school-platform/internal/student/models"
	"github.com/caffein/school-platform/internal/student/service"
)

type stubStudentRepo struct {
	lastFilter models.StudentFilter
	students   []models.Student
}

func (s *stubStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	s.lastFilter = filter
	return s.students, len(s.students), nil
}

func (s *stubStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

func (s *stubStudentRepo) Create(ctx context.Context, student *models.Student) error { return nil }
func (s *stubStudentRepo) Update(ctx context.Context, student *models.Student) error { return nil }

type stubGuardianLister struct{}

func (s *stubGuardianLister) ListByStudent(ctx context.Context, studentID string) ([]models.Guardian, error) {
	return nil, nil
}

func newStudentRouter(repo *stubStudentRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewStudentService(repo, &stubGuardianLister{}, nil, zap.NewNop())
	h := NewStudentHandler(svc)
	r := gin.New()
	r.GET("/students", h.List)
	return r
}

func TestListParsesStatusFilter(t *testing.T) {
	repo := &stubStudentRepo{students: []models.Student{{ID: "stu-1", Status: models.StudentStatusActive}}}
	r := newStudentRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/students?status=ACTIVE&search=rey&page=2&limit=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StudentStatusActive, repo.lastFilter.Status)
	assert.Equal(t, "rey", repo.lastFilter.Search)
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.Equal(t, 5, repo.lastFilter.PageSize)
}

func TestListDefaultsToUnfiltered(t *testing.T) {
	repo := &stubStudentRepo{}
	r := newStudentRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StudentStatus(""), repo.lastFilter.Status)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
}
