package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func upstream(t *testing.T, name string, paths *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*paths = append(*paths, r.URL.Path)
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusOK)
	}))
}

// gatewayServer serves the proxy over a real listener so the reverse proxy
// sees a fully featured ResponseWriter.
func gatewayServer(t *testing.T, p *Proxy) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.NoRoute(p.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestProxyRoutesByPrefix(t *testing.T) {
	var studentPaths, coursePaths []string
	studentSrv := upstream(t, "student", &studentPaths)
	defer studentSrv.Close()
	courseSrv := upstream(t, "course", &coursePaths)
	defer courseSrv.Close()

	p, err := New("/api/v1", []Rule{
		{Prefix: "/courses/available", Target: studentSrv.URL},
		{Prefix: "/students", Target: studentSrv.URL},
		{Prefix: "/courses", Target: courseSrv.URL},
	}, time.Second, zap.NewNop())
	require.NoError(t, err)

	gw := gatewayServer(t, p)

	cases := []struct {
		path     string
		upstream string
	}{
		{"/api/v1/students/stu-1", "student"},
		{"/api/v1/courses/available", "student"},
		{"/api/v1/courses/course-1", "course"},
	}
	for _, tc := range cases {
		resp := get(t, gw.URL+tc.path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, tc.path)
		assert.Equal(t, tc.upstream, resp.Header.Get("X-Upstream"), tc.path)
	}

	// The full path, API prefix included, reaches the upstream untouched.
	assert.Contains(t, studentPaths, "/api/v1/students/stu-1")
	assert.Contains(t, coursePaths, "/api/v1/courses/course-1")
}

func TestProxyUnknownPrefix(t *testing.T) {
	p, err := New("/api/v1", nil, time.Second, zap.NewNop())
	require.NoError(t, err)

	gw := gatewayServer(t, p)

	resp := get(t, gw.URL+"/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProxyUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p, err := New("/api/v1", []Rule{
		{Prefix: "/students", Target: srv.URL},
	}, time.Second, zap.NewNop())
	require.NoError(t, err)

	gw := gatewayServer(t, p)

	resp := get(t, gw.URL+"/api/v1/students")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "UNAVAILABLE")
}
