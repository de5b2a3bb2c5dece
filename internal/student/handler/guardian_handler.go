package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/student/service"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// GuardianHandler exposes guardian endpoints nested under students.
type GuardianHandler struct {
	guardians *service.GuardianService
}

// NewGuardianHandler constructs GuardianHandler.
func NewGuardianHandler(guardians *service.GuardianService) *GuardianHandler {
	return &GuardianHandler{guardians: guardians}
}

// List godoc
// @Summary List a student's guardians
// @Tags Guardians
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/guardians [get]
func (h *GuardianHandler) List(c *gin.Context) {
	guardians, err := h.guardians.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardians, nil)
}

// Add godoc
// @Summary Add a guardian
// @Tags Guardians
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.GuardianRequest true "Guardian payload"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/guardians [post]
func (h *GuardianHandler) Add(c *gin.Context) {
	var req service.GuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guardian, err := h.guardians.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, guardian)
}

// Update godoc
// @Summary Update a guardian
// @Tags Guardians
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param guardianId path string true "Guardian ID"
// @Param payload body service.GuardianRequest true "Guardian payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/guardians/{guardianId} [put]
func (h *GuardianHandler) Update(c *gin.Context) {
	var req service.GuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guardian, err := h.guardians.Update(c.Request.Context(), c.Param("id"), c.Param("guardianId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardian, nil)
}

// Remove godoc
// @Summary Remove a guardian
// @Tags Guardians
// @Param id path string true "Student ID"
// @Param guardianId path string true "Guardian ID"
// @Success 204 "No Content"
// @Router /students/{id}/guardians/{guardianId} [delete]
func (h *GuardianHandler) Remove(c *gin.Context) {
	if err := h.guardians.Remove(c.Request.Context(), c.Param("id"), c.Param("guardianId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
