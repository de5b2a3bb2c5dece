package courseclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/caffein/school-platform/pkg/errors"
)

func TestGetCourseByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/courses/course-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{
			"id":"course-1","name":"Algebra I","academic_year":"2026/2027",
			"semester":"1","max_capacity":30,
			"subject":{"id":"sub-1","name":"MATH","department":"Mathematics"}
		}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	course, err := client.GetCourseByID(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", course.Name)
	assert.Equal(t, 30, course.MaxCapacity)
	require.NotNil(t, course.Subject)
	assert.Equal(t, "MATH", course.Subject.Name)
}

func TestGetCourseByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"course not found"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	_, err := client.GetCourseByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetCourseByIDTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := New(srv.URL, time.Second, zap.NewNop())
	_, err := client.GetCourseByID(context.Background(), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
}

func TestGetCourseByIDUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	_, err := client.GetCourseByID(context.Background(), "course-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErr.Code)
	assert.Equal(t, "boom", appErr.Message)
}

func TestListAvailableCoursesFiltersByTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/courses", r.URL.Path)
		assert.Equal(t, "2026/2027", r.URL.Query().Get("academicYear"))
		assert.Equal(t, "1", r.URL.Query().Get("semester"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"course-1","name":"Algebra I"},{"id":"course-2","name":"Biology"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	courses, err := client.ListAvailableCourses(context.Background(), "2026/2027", "1")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Biology", courses[1].Name)
}

func TestGetSubjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/subjects", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"sub-1","name":"MATH","department":"Mathematics"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	subjects, err := client.GetSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Mathematics", subjects[0].Department)
}
