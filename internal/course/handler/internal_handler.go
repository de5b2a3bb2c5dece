package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/course/models"
	"github.com/caffein/school-platform/internal/course/service"
	"github.com/caffein/school-platform/pkg/response"
)

// InternalHandler serves the lookup API consumed by sibling services during
// enrollment. It is mounted outside the public prefix and is not routed
// through the gateway.
type InternalHandler struct {
	courses  *service.CourseService
	subjects *service.SubjectService
}

// NewInternalHandler constructs InternalHandler.
func NewInternalHandler(courses *service.CourseService, subjects *service.SubjectService) *InternalHandler {
	return &InternalHandler{courses: courses, subjects: subjects}
}

// GetCourse returns one course descriptor, 404 when absent.
func (h *InternalHandler) GetCourse(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListCourses returns course descriptors optionally narrowed to one term.
func (h *InternalHandler) ListCourses(c *gin.Context) {
	courses, err := h.courses.ListByTerm(c.Request.Context(), c.Query("academicYear"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListSubjects returns the full subject catalog.
func (h *InternalHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.subjects.List(c.Request.Context(), models.SubjectFilter{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
