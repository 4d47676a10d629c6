package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/service"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
	"github.com/noah-isme/exam-slot-api/pkg/response"
)

type studentRoster interface {
	List(ctx context.Context, query dto.StudentQuery) ([]dto.StudentResponse, *models.Pagination, error)
	Get(ctx context.Context, studentID string) (*dto.StudentResponse, error)
	Constraints(ctx context.Context, studentID string) ([]dto.ConstraintResponse, error)
	Create(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Update(ctx context.Context, studentID string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Deactivate(ctx context.Context, studentID, actor string) error
}

type studentHistoryReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]dto.SlotHistoryResponse, error)
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	service studentRoster
	history studentHistoryReader
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc *service.StudentService, history *service.HistoryService) *StudentHandler {
	return &StudentHandler{service: svc, history: history}
}

// List godoc
// @Summary List active students
// @Tags Students
// @Produce json
// @Param search query string false "Name or email search"
// @Param sectionId query string false "Section filter"
// @Param cohort query string false "Cohort filter (odd|even)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	query := dto.StudentQuery{
		Search:    c.Query("search"),
		SectionID: c.Query("sectionId"),
		Cohort:    c.Query("cohort"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	students, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get a student with their slots
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Constraints godoc
// @Summary List a student's scheduling constraints
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/constraints [get]
func (h *StudentHandler) Constraints(c *gin.Context) {
	constraints, err := h.service.Constraints(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraints, nil)
}

// History godoc
// @Summary List every slot change for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/history [get]
func (h *StudentHandler) History(c *gin.Context) {
	entries, err := h.history.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update roster fields
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Deactivate godoc
// @Summary Deactivate a student
// @Description Removes the student from scheduling and deletes their unlocked slots.
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
