package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-slot-api/internal/service"
	"github.com/noah-isme/exam-slot-api/pkg/response"
)

type scheduleExporter interface {
	Schedule(ctx context.Context, sectionID, format string) (*service.ExportFile, error)
	StudentCalendar(ctx context.Context, studentID string) (*service.ExportFile, error)
}

// ExportHandler streams schedule documents.
type ExportHandler struct {
	service scheduleExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Schedule godoc
// @Summary Export the schedule
// @Description Renders the full schedule, or one section's, as csv, xlsx or pdf.
// @Tags Export
// @Produce octet-stream
// @Param sectionId query string false "Section scope"
// @Param format query string false "csv|xlsx|pdf (default csv)"
// @Success 200 {file} binary
// @Router /export/schedule [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	file, err := h.service.Schedule(c.Request.Context(), c.Query("sectionId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// StudentCalendar godoc
// @Summary Per-student iCalendar feed
// @Tags Export
// @Produce plain
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Router /students/{id}/calendar.ics [get]
func (h *ExportHandler) StudentCalendar(c *gin.Context) {
	file, err := h.service.StudentCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
