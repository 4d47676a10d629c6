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

type settingsAdmin interface {
	List(ctx context.Context) ([]dto.SettingItem, error)
	Describe(ctx context.Context) (*dto.ScheduleSettingsResponse, error)
	Update(ctx context.Context, req dto.UpdateSettingRequest, actor string) (*dto.SettingItem, error)
	BulkUpdate(ctx context.Context, req dto.BulkUpdateSettingRequest, actor string) ([]dto.SettingItem, error)
}

// SettingsHandler exposes scheduling configuration endpoints.
type SettingsHandler struct {
	service settingsAdmin
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// List godoc
// @Summary List persisted settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Describe godoc
// @Summary Get the merged schedule configuration
// @Description Settings table values merged over environment defaults, with the derived per-week capacity.
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/schedule [get]
func (h *SettingsHandler) Describe(c *gin.Context) {
	settings, err := h.service.Describe(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update one setting
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSettingRequest true "Setting payload"
// @Success 200 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setting payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// BulkUpdate godoc
// @Summary Update several settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpdateSettingRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /settings/bulk [put]
func (h *SettingsHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	items, err := h.service.BulkUpdate(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
