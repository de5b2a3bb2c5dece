package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/analytics/service"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// AnalyticsHandler exposes the read-side analytics endpoints.
type AnalyticsHandler struct {
	queries *service.QueryService
	exports *service.ExportService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(queries *service.QueryService, exports *service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{queries: queries, exports: exports}
}

// ListEnrollments godoc
// @Summary Per-course enrollment counters
// @Tags Analytics
// @Produce json
// @Param academicYear query string false "Academic year"
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Router /analytics/enrollments [get]
func (h *AnalyticsHandler) ListEnrollments(c *gin.Context) {
	rows, err := h.queries.ListEnrollments(c.Request.Context(), c.Query("academicYear"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ListAttendance godoc
// @Summary Per-course per-date attendance counters
// @Tags Analytics
// @Produce json
// @Param startDate query string true "Range start (YYYY-MM-DD)"
// @Param endDate query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /analytics/attendance [get]
func (h *AnalyticsHandler) ListAttendance(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.queries.ListAttendance(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// GetStudent godoc
// @Summary Lifetime snapshot of one student
// @Tags Analytics
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/students/{studentId} [get]
func (h *AnalyticsHandler) GetStudent(c *gin.Context) {
	row, err := h.queries.GetStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// ExportAttendance godoc
// @Summary Download attendance counters as CSV or PDF
// @Tags Analytics
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Param startDate query string true "Range start (YYYY-MM-DD)"
// @Param endDate query string true "Range end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /analytics/attendance/export [get]
func (h *AnalyticsHandler) ExportAttendance(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportAttendance(c.Request.Context(), service.ExportFormat(c.Query("format")), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Query("startDate"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", c.Query("endDate"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}
	return start, end, nil
}
