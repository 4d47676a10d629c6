package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type studentSlotReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamSlot, error)
	DeleteUnlockedByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) (int64, error)
}

type studentConstraintReader interface {
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Constraint, error)
}

// StudentService manages the exam roster.
type StudentService struct {
	students    studentStore
	slots       studentSlotReader
	constraints studentConstraintReader
	cache       overviewInvalidator
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService wires roster dependencies.
func NewStudentService(
	students studentStore,
	slots studentSlotReader,
	constraints studentConstraintReader,
	cache overviewInvalidator,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:    students,
		slots:       slots,
		constraints: constraints,
		cache:       cache,
		tx:          tx,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students matching the query with pagination metadata.
func (s *StudentService) List(ctx context.Context, query dto.StudentQuery) ([]dto.StudentResponse, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student query")
	}

	active := true
	filter := models.StudentFilter{
		Search:    query.Search,
		SectionID: query.SectionID,
		Cohort:    query.Cohort,
		Active:    &active,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to list students")
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, toStudentResponse(student, nil))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return responses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student with their full slot list.
func (s *StudentService) Get(ctx context.Context, studentID string) (*dto.StudentResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slots")
	}
	response := toStudentResponse(*student, slots)
	return &response, nil
}

// Constraints returns a student's active scheduling constraints.
func (s *StudentService) Constraints(ctx context.Context, studentID string) ([]dto.ConstraintResponse, error) {
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}
	constraints, err := s.constraints.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load constraints")
	}
	responses := make([]dto.ConstraintResponse, 0, len(constraints))
	for _, c := range constraints {
		responses = append(responses, dto.ConstraintResponse{
			ID:          c.ID,
			Type:        string(c.Type),
			Value:       c.Value,
			Description: c.DisplayDescription(),
			Active:      c.Active,
		})
	}
	return responses, nil
}

// Create registers a student. New students have no cohort until the next
// generation run assigns one.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload")
	}

	student := &models.Student{
		SISUserID: req.SISUserID,
		FullName:  req.FullName,
		Email:     req.Email,
		SectionID: req.SectionID,
		Active:    true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to create student")
	}
	s.logger.Sugar().Infow("student created", "student_id", student.ID)

	response := toStudentResponse(*student, nil)
	return &response, nil
}

// Update modifies roster fields. Changing the section marks a manual
// override so roster syncs do not move the student back.
func (s *StudentService) Update(ctx context.Context, studentID string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.SectionID != nil && (student.SectionID == nil || *student.SectionID != *req.SectionID) {
		student.SectionID = req.SectionID
		student.SectionOverride = true
	}
	if req.SectionOverride != nil {
		student.SectionOverride = *req.SectionOverride
	}

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to update student")
	}

	response := toStudentResponse(*student, nil)
	return &response, nil
}

// Deactivate removes a student from scheduling and deletes their unlocked
// slots. Locked slots survive as a record of exams already held.
func (s *StudentService) Deactivate(ctx context.Context, studentID, actor string) error {
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.students.Deactivate(ctx, tx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to deactivate student")
	}
	deleted, err := s.slots.DeleteUnlockedByStudent(ctx, tx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to delete slots")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit deactivation")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, overviewCachePattern); err != nil {
			s.logger.Sugar().Warnw("failed to invalidate overview cache", "error", err)
		}
	}
	s.logger.Sugar().Infow("student deactivated", "student_id", studentID, "slots_deleted", deleted, "actor", actor)
	return nil
}

func (s *StudentService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load student")
	}
	return student, nil
}

func toStudentResponse(student models.Student, slots []models.ExamSlot) dto.StudentResponse {
	response := dto.StudentResponse{
		ID:              student.ID,
		SISUserID:       student.SISUserID,
		FullName:        student.FullName,
		Email:           student.Email,
		SectionID:       student.SectionID,
		SectionOverride: student.SectionOverride,
		Active:          student.Active,
	}
	if student.Cohort != nil {
		cohort := string(*student.Cohort)
		response.Cohort = &cohort
	}
	if len(slots) > 0 {
		response.Slots = toSlotResponses(slots)
	}
	return response
}
