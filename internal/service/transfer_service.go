package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

// TransferService moves students between cohorts. A plain transfer respects
// locks and refuses when any affected slot is locked; the swap variant is
// the single operation allowed to unlock slots on its way through.
type TransferService struct {
	students    scheduleStudentRepo
	slots       transferSlotRepo
	constraints scheduleConstraintRepo
	settings    settingsLoader
	history     changeRecorder
	cache       overviewInvalidator
	tx          txProvider
	locks       *ScheduleLocks
	validator   *validator.Validate
	logger      *zap.Logger
}

type transferSlotRepo interface {
	ListByStudentFrom(ctx context.Context, studentID string, fromExam int) ([]models.ExamSlot, error)
	ListScheduledForWeek(ctx context.Context, sectionID string, examNumber, weekNumber int) ([]models.ExamSlot, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error
	SetLocked(ctx context.Context, exec sqlx.ExtContext, id string, locked bool) error
}

// NewTransferService wires transfer dependencies. The locks instance must be
// shared with the schedule service so transfers and regenerations serialise
// on the same section mutexes.
func NewTransferService(
	students scheduleStudentRepo,
	slots transferSlotRepo,
	constraints scheduleConstraintRepo,
	settings settingsLoader,
	history changeRecorder,
	cache overviewInvalidator,
	tx txProvider,
	locks *ScheduleLocks,
	validate *validator.Validate,
	logger *zap.Logger,
) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewScheduleLocks()
	}
	return &TransferService{
		students:    students,
		slots:       slots,
		constraints: constraints,
		settings:    settings,
		history:     history,
		cache:       cache,
		tx:          tx,
		locks:       locks,
		validator:   validate,
		logger:      logger,
	}
}

// Transfer moves a student to the target cohort and reschedules their slots
// from the given exam onward. Any locked slot in range blocks the whole
// transfer; the error lists the blocking exam numbers.
func (s *TransferService) Transfer(ctx context.Context, req dto.TransferCohortRequest, actor string) (*dto.TransferResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transfer payload")
	}
	return s.move(ctx, req.StudentID, models.Cohort(req.TargetCohort), req.FromExam, false, actor, "cohort transfer")
}

// SwapCohort forces a student onto the opposite cohort. Locked slots in
// range are unlocked and rescheduled; the response reports how many. The
// student joins each target week as its lowest-priority entrant, after
// everyone already placed there.
func (s *TransferService) SwapCohort(ctx context.Context, req dto.SwapCohortRequest, actor string) (*dto.TransferResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load student")
	}
	if student.Cohort == nil || !student.Cohort.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no cohort assignment")
	}
	return s.move(ctx, req.StudentID, student.Cohort.Opposite(), req.FromExam, true, actor, "cohort swap")
}

func (s *TransferService) move(ctx context.Context, studentID string, target models.Cohort, fromExam int, swap bool, actor, reason string) (*dto.TransferResponse, error) {
	if fromExam < 1 {
		fromExam = 1
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load student")
	}
	if student.SectionID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no section")
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	constraints, err := s.constraints.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load constraints")
	}

	unlock := s.locks.lockSection(*student.SectionID)
	defer unlock()

	slots, err := s.slots.ListByStudentFrom(ctx, studentID, fromExam)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slots")
	}

	var lockedExams []int
	for _, slot := range slots {
		if slot.Locked {
			lockedExams = append(lockedExams, slot.ExamNumber)
		}
	}
	sort.Ints(lockedExams)
	if len(lockedExams) > 0 && !swap {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrLocked, "transfer blocked by locked slots"),
			map[string][]int{"lockedExams": lockedExams},
		)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.students.UpdateCohort(ctx, tx, studentID, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save cohort")
	}

	var moved []models.ExamSlot
	for _, prev := range slots {
		week := weekNumberFor(prev.ExamNumber, target)
		date := examDateFor(settings, week)

		occupied, err := s.slots.ListScheduledForWeek(ctx, *student.SectionID, prev.ExamNumber, week)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load week timeline")
		}
		var others []models.ExamSlot
		for _, slot := range occupied {
			if slot.StudentID != studentID {
				others = append(others, slot)
			}
		}

		next := models.ExamSlot{
			ID:         prev.ID,
			StudentID:  prev.StudentID,
			SectionID:  prev.SectionID,
			ExamNumber: prev.ExamNumber,
			WeekNumber: week,
			CreatedAt:  prev.CreatedAt,
		}

		// A voluntary transfer may take any gap in the week; a forced swap
		// enters the new cohort last and appends after its final occupied
		// interval. Overflowing the window leaves the slot unscheduled.
		start, fits := findGap(settings, occupiedIntervals(others))
		if swap {
			start, _, fits = newWeekTimeline(settings, others).peek()
		}
		if fits {
			end := start + settings.DurationMinutes
			if violation := checkConstraints(constraints, date, start, end); violation == nil {
				day := date
				next.Date = &day
				next.StartMinute = &start
				next.EndMinute = &end
				next.Scheduled = true
			}
		}

		if err := s.history.Record(ctx, tx, &prev, actor, reason); err != nil {
			return nil, err
		}
		if prev.Locked {
			if err := s.slots.SetLocked(ctx, tx, prev.ID, false); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to unlock slot")
			}
		}
		if err := s.slots.Upsert(ctx, tx, &next); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
		}
		moved = append(moved, next)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit transfer")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, overviewCachePattern); err != nil {
			s.logger.Sugar().Warnw("failed to invalidate overview cache", "error", err)
		}
	}

	s.logger.Sugar().Infow("student moved to cohort",
		"student_id", studentID,
		"cohort", target,
		"from_exam", fromExam,
		"unlocked", len(lockedExams),
		"actor", actor,
	)

	scheduled := 0
	for _, slot := range moved {
		if slot.Scheduled {
			scheduled++
		}
	}
	response := &dto.TransferResponse{
		StudentID:      studentID,
		Cohort:         string(target),
		SlotsCleared:   len(moved),
		SlotsScheduled: scheduled,
		Slots:          toSlotResponses(moved),
	}
	if swap {
		response.UnlockedCount = len(lockedExams)
	}
	return response, nil
}
