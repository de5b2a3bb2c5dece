package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/student/courseclient"
	"github.com/caffein/school-platform/internal/student/service"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints plus the course catalog
// pass-throughs students browse before enrolling.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	courses     *courseclient.Client
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, courses *courseclient.Client) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, courses: courses}
}

// Enroll godoc
// @Summary Enroll a student in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Unenroll godoc
// @Summary Withdraw a student from a course
// @Tags Enrollments
// @Param enrollmentId path string true "Enrollment ID"
// @Param studentId path string true "Student ID"
// @Success 204 "No Content"
// @Router /enrollments/{enrollmentId}/students/{studentId} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	if err := h.enrollments.Unenroll(c.Request.Context(), c.Param("studentId"), c.Param("enrollmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByStudent godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/students/{studentId} [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// AvailableCourses godoc
// @Summary List courses open for enrollment
// @Tags Enrollments
// @Produce json
// @Param academicYear query string false "Academic year"
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Router /courses/available [get]
func (h *EnrollmentHandler) AvailableCourses(c *gin.Context) {
	courses, err := h.courses.ListAvailableCourses(c.Request.Context(), c.Query("academicYear"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Subjects godoc
// @Summary List subjects from the course directory
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *EnrollmentHandler) Subjects(c *gin.Context) {
	subjects, err := h.courses.GetSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
