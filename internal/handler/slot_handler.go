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

type slotOperator interface {
	Get(ctx context.Context, slotID string) (*dto.SlotResponse, error)
	History(ctx context.Context, slotID string) (*dto.SlotHistoryDetail, error)
	ManualSchedule(ctx context.Context, slotID string, req dto.ManualScheduleRequest, actor string) (*dto.SlotResponse, error)
	Swap(ctx context.Context, slotID string, req dto.SwapSlotsRequest, actor string) ([]dto.SlotResponse, error)
	Lock(ctx context.Context, slotID, actor string) (*dto.SlotResponse, error)
	Unlock(ctx context.Context, slotID, actor string) (*dto.SlotResponse, error)
	BulkUnlock(ctx context.Context, req dto.BulkUnlockRequest, actor string) (*dto.BulkUnlockResponse, error)
	AutoLock(ctx context.Context, req dto.AutoLockRequest, actor string) (*dto.AutoLockResponse, error)
	Revert(ctx context.Context, slotID string, req dto.RevertSlotRequest, actor string) (*dto.SlotResponse, error)
}

// SlotHandler exposes single-slot endpoints.
type SlotHandler struct {
	service slotOperator
}

// NewSlotHandler constructs the handler.
func NewSlotHandler(svc *service.SlotService) *SlotHandler {
	return &SlotHandler{service: svc}
}

// Get godoc
// @Summary Get one exam slot
// @Tags Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id} [get]
func (h *SlotHandler) Get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// History godoc
// @Summary Get a slot's current state and change log
// @Tags Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/history [get]
func (h *SlotHandler) History(c *gin.Context) {
	detail, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ManualSchedule godoc
// @Summary Manually place a slot
// @Description Schedules the slot at an explicit date and start time. With pushSubsequent, later unlocked slots on the same timeline shift to make room.
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.ManualScheduleRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/schedule [put]
func (h *SlotHandler) ManualSchedule(c *gin.Context) {
	var req dto.ManualScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	slot, err := h.service.ManualSchedule(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Swap godoc
// @Summary Swap two slots' scheduled positions
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.SwapSlotsRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/swap [post]
func (h *SlotHandler) Swap(c *gin.Context) {
	var req dto.SwapSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	slots, err := h.service.Swap(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Lock godoc
// @Summary Lock a slot against bulk regeneration
// @Tags Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/lock [post]
func (h *SlotHandler) Lock(c *gin.Context) {
	slot, err := h.service.Lock(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Unlock godoc
// @Summary Unlock a slot
// @Tags Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/unlock [post]
func (h *SlotHandler) Unlock(c *gin.Context) {
	slot, err := h.service.Unlock(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// BulkUnlock godoc
// @Summary Release locked slots
// @Description Releases every locked slot, or only those matching the optional exam number and cohort filters.
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body dto.BulkUnlockRequest false "Bulk unlock filters"
// @Success 200 {object} response.Envelope
// @Router /slots/unlock [post]
func (h *SlotHandler) BulkUnlock(c *gin.Context) {
	var req dto.BulkUnlockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk unlock payload"))
			return
		}
	}
	result, err := h.service.BulkUnlock(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AutoLock godoc
// @Summary Lock all scheduled slots on a date
// @Description Defaults to today. Emits a notification per affected student.
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body dto.AutoLockRequest false "Auto-lock payload"
// @Success 200 {object} response.Envelope
// @Router /slots/auto-lock [post]
func (h *SlotHandler) AutoLock(c *gin.Context) {
	var req dto.AutoLockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto-lock payload"))
			return
		}
	}
	result, err := h.service.AutoLock(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Revert godoc
// @Summary Revert a slot to a history snapshot
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.RevertSlotRequest true "Revert payload"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/revert [post]
func (h *SlotHandler) Revert(c *gin.Context) {
	var req dto.RevertSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid revert payload"))
		return
	}
	slot, err := h.service.Revert(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
