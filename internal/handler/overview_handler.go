package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/service"
	"github.com/noah-isme/exam-slot-api/pkg/response"
)

type overviewReader interface {
	Get(ctx context.Context) (*dto.OverviewResponse, error)
}

// OverviewHandler serves the dashboard aggregation.
type OverviewHandler struct {
	service overviewReader
}

// NewOverviewHandler constructs the handler.
func NewOverviewHandler(svc *service.OverviewService) *OverviewHandler {
	return &OverviewHandler{service: svc}
}

// Get godoc
// @Summary Per-section scheduling overview
// @Description Section rows with student, scheduled, unscheduled and locked counts plus totals. Served from cache when fresh.
// @Tags Overview
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /overview [get]
func (h *OverviewHandler) Get(c *gin.Context) {
	overview, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}
