package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/course/models"
	"github.com/caffein/school-platform/internal/course/service"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// CourseHandler exposes the course catalog endpoints.
type CourseHandler struct {
	courses   *service.CourseService
	schedules *service.ScheduleService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, schedules *service.ScheduleService) *CourseHandler {
	return &CourseHandler{courses: courses, schedules: schedules}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param teacherId query string false "Filter by teacher"
// @Param academicYear query string false "Filter by academic year"
// @Param semester query string false "Filter by semester"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.SubjectID = c.Query("subjectId")
	filter.TeacherID = c.Query("teacherId")
	filter.AcademicYear = c.Query("academicYear")
	filter.Semester = c.Query("semester")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204 "No Content"
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSchedules godoc
// @Summary List a course's schedules
// @Tags Schedules
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedules [get]
func (h *CourseHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.schedules.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// AddSchedule godoc
// @Summary Add a schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/schedules [post]
func (h *CourseHandler) AddSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.schedules.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// UpdateSchedule godoc
// @Summary Update a schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param scheduleId path string true "Schedule ID"
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedules/{scheduleId} [put]
func (h *CourseHandler) UpdateSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.schedules.Update(c.Request.Context(), c.Param("id"), c.Param("scheduleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// RemoveSchedule godoc
// @Summary Remove a schedule slot
// @Tags Schedules
// @Param id path string true "Course ID"
// @Param scheduleId path string true "Schedule ID"
// @Success 204 "No Content"
// @Router /courses/{id}/schedules/{scheduleId} [delete]
func (h *CourseHandler) RemoveSchedule(c *gin.Context) {
	if err := h.schedules.Remove(c.Request.Context(), c.Param("id"), c.Param("scheduleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
