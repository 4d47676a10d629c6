package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/service"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
	"github.com/noah-isme/exam-slot-api/pkg/response"
)

type scheduleRunner interface {
	GenerateAll(ctx context.Context, req dto.GenerateScheduleRequest, actor string) (*dto.GenerateScheduleResponse, error)
	GenerateSection(ctx context.Context, sectionID string, req dto.RegenerateSectionRequest, actor string) (*dto.SectionGenerationResult, error)
	RegenerateStudent(ctx context.Context, req dto.RegenerateStudentRequest, actor string) ([]dto.SlotResponse, error)
	Clear(ctx context.Context, actor string) (*dto.ClearScheduleResponse, error)
}

// ScheduleHandler exposes bulk scheduling endpoints.
type ScheduleHandler struct {
	service scheduleRunner
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Generate schedules for every active section
// @Description Repacks every section's exam slots, optionally only from a given exam onward. Locked slots are preserved; sections that fail report errors without rolling back the rest.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest false "Generation scope"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
			return
		}
	}
	result, err := h.service.GenerateAll(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RegenerateSection godoc
// @Summary Regenerate one section's schedule
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body dto.RegenerateSectionRequest false "Regeneration scope"
// @Success 200 {object} response.Envelope
// @Router /schedule/sections/{id}/regenerate [post]
func (h *ScheduleHandler) RegenerateSection(c *gin.Context) {
	var req dto.RegenerateSectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regeneration payload"))
			return
		}
	}
	result, err := h.service.GenerateSection(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RegenerateStudent godoc
// @Summary Regenerate one student's unlocked slots
// @Description Re-places the student's slots from the given exam onward, gap-filling each cohort week.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.RegenerateStudentRequest true "Regeneration payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/students/regenerate [post]
func (h *ScheduleHandler) RegenerateStudent(c *gin.Context) {
	var req dto.RegenerateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regeneration payload"))
		return
	}
	slots, err := h.service.RegenerateStudent(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Clear godoc
// @Summary Clear the whole schedule
// @Description Deletes every exam slot and resets cohort assignments. Refused while any slot is locked.
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [delete]
func (h *ScheduleHandler) Clear(c *gin.Context) {
	result, err := h.service.Clear(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
