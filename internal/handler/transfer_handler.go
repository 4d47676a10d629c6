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

type cohortMover interface {
	Transfer(ctx context.Context, req dto.TransferCohortRequest, actor string) (*dto.TransferResponse, error)
	SwapCohort(ctx context.Context, req dto.SwapCohortRequest, actor string) (*dto.TransferResponse, error)
}

// TransferHandler exposes cohort transfer endpoints.
type TransferHandler struct {
	service cohortMover
}

// NewTransferHandler constructs the handler.
func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{service: svc}
}

// Transfer godoc
// @Summary Move a student to a target cohort
// @Description Reschedules the student's slots into the target cohort's weeks. Locked slots in range block the transfer; the error lists their exam numbers.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.TransferCohortRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /transfers/cohort [post]
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req dto.TransferCohortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transfer payload"))
		return
	}
	result, err := h.service.Transfer(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Swap godoc
// @Summary Force a student onto the opposite cohort
// @Description Unlocks any locked slots in range, reschedules them, and reports how many were unlocked.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.SwapCohortRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Router /transfers/swap [post]
func (h *TransferHandler) Swap(c *gin.Context) {
	var req dto.SwapCohortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	result, err := h.service.SwapCohort(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
