package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type scheduleStudentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActiveBySection(ctx context.Context, sectionID string) ([]models.Student, error)
	UpdateCohort(ctx context.Context, exec sqlx.ExtContext, studentID string, cohort models.Cohort) error
	ResetCohorts(ctx context.Context, exec sqlx.ExtContext) error
}

type scheduleSectionRepo interface {
	ListActive(ctx context.Context) ([]models.Section, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type scheduleSlotRepo interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.ExamSlot, error)
	ListByStudentFrom(ctx context.Context, studentID string, fromExam int) ([]models.ExamSlot, error)
	ListScheduledForWeek(ctx context.Context, sectionID string, examNumber, weekNumber int) ([]models.ExamSlot, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error
	CountLocked(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error)
}

type scheduleConstraintRepo interface {
	MapActiveBySection(ctx context.Context, sectionID string) (map[string][]models.Constraint, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Constraint, error)
}

type settingsLoader interface {
	Load(ctx context.Context) (models.ScheduleSettings, error)
}

type changeRecorder interface {
	Record(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot, actor, reason string) error
}

type overviewInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleService drives bulk slot generation. Each section commits in its
// own transaction so one broken section never rolls back the others, and a
// per-section lock keeps concurrent runs off the same timeline.
type ScheduleService struct {
	students    scheduleStudentRepo
	sections    scheduleSectionRepo
	slots       scheduleSlotRepo
	constraints scheduleConstraintRepo
	settings    settingsLoader
	history     changeRecorder
	cache       overviewInvalidator
	tx          txProvider
	locks       *ScheduleLocks
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScheduleService wires generation dependencies. Pass the same locks
// instance to the transfer and slot services so every mutation path
// serialises on the same section mutexes.
func NewScheduleService(
	students scheduleStudentRepo,
	sections scheduleSectionRepo,
	slots scheduleSlotRepo,
	constraints scheduleConstraintRepo,
	settings settingsLoader,
	history changeRecorder,
	cache overviewInvalidator,
	tx txProvider,
	locks *ScheduleLocks,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewScheduleLocks()
	}
	return &ScheduleService{
		students:    students,
		sections:    sections,
		slots:       slots,
		constraints: constraints,
		settings:    settings,
		history:     history,
		cache:       cache,
		tx:          tx,
		locks:       locks,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// GenerateAll rebuilds every section's schedule, optionally only from a
// given exam number onward. Failures are reported per section; successful
// sections stay committed.
func (s *ScheduleService) GenerateAll(ctx context.Context, req dto.GenerateScheduleRequest, actor string) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload")
	}
	fromExam := req.FromExam
	if fromExam < 1 {
		fromExam = 1
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if fromExam > settings.TotalExams {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("fromExam exceeds total exams (%d)", settings.TotalExams))
	}

	unlock := s.locks.lockAll()
	defer unlock()

	sections, err := s.sections.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load sections")
	}

	response := &dto.GenerateScheduleResponse{}
	for _, section := range sections {
		result, err := s.runSection(ctx, section, settings, fromExam, actor)
		if err != nil {
			s.logger.Sugar().Errorw("section generation failed", "section_id", section.ID, "error", err)
			response.Sections = append(response.Sections, dto.SectionGenerationResult{
				SectionID:   section.ID,
				SectionCode: section.Code,
				Errors:      []string{err.Error()},
			})
			continue
		}
		response.Sections = append(response.Sections, *result)
		response.Students += result.Students
		response.Scheduled += result.Scheduled
		response.Unscheduled += result.Unscheduled
	}

	s.metrics.ObserveGenerationRun("all", response.Scheduled, response.Unscheduled, false)
	s.invalidateOverview(ctx)
	return response, nil
}

// GenerateSection rebuilds one section, optionally only from a given exam
// number onward. Locked slots are never touched.
func (s *ScheduleService) GenerateSection(ctx context.Context, sectionID string, req dto.RegenerateSectionRequest, actor string) (*dto.SectionGenerationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regeneration payload")
	}
	fromExam := req.FromExam
	if fromExam < 1 {
		fromExam = 1
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load section")
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if fromExam > settings.TotalExams {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("fromExam exceeds total exams (%d)", settings.TotalExams))
	}

	unlock := s.locks.lockSection(sectionID)
	defer unlock()

	result, err := s.runSection(ctx, *section, settings, fromExam, actor)
	if err != nil {
		s.metrics.ObserveGenerationRun("section", 0, 0, true)
		return nil, err
	}
	s.metrics.ObserveGenerationRun("section", result.Scheduled, result.Unscheduled, false)
	s.invalidateOverview(ctx)
	return result, nil
}

// RegenerateStudent rebuilds one student's unlocked slots, fitting each into
// the earliest gap of its cohort week instead of repacking the whole
// section.
func (s *ScheduleService) RegenerateStudent(ctx context.Context, req dto.RegenerateStudentRequest, actor string) ([]dto.SlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regeneration payload")
	}
	fromExam := req.FromExam
	if fromExam < 1 {
		fromExam = 1
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load student")
	}
	if student.SectionID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no section")
	}
	if student.Cohort == nil || !student.Cohort.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no cohort assignment")
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	constraints, err := s.constraints.ListActiveByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load constraints")
	}

	unlock := s.locks.lockSection(*student.SectionID)
	defer unlock()

	existing, err := s.slots.ListByStudentFrom(ctx, student.ID, fromExam)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slots")
	}
	prevByExam := make(map[int]models.ExamSlot, len(existing))
	for _, slot := range existing {
		prevByExam[slot.ExamNumber] = slot
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var updated []models.ExamSlot
	for exam := fromExam; exam <= settings.TotalExams; exam++ {
		prev, hadPrev := prevByExam[exam]
		if hadPrev && prev.Locked {
			updated = append(updated, prev)
			continue
		}

		week := weekNumberFor(exam, *student.Cohort)
		date := examDateFor(settings, week)

		occupied, err := s.slots.ListScheduledForWeek(ctx, *student.SectionID, exam, week)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load week timeline")
		}
		var others []models.ExamSlot
		for _, slot := range occupied {
			if slot.StudentID != student.ID {
				others = append(others, slot)
			}
		}

		slot := models.ExamSlot{
			StudentID:  student.ID,
			SectionID:  *student.SectionID,
			ExamNumber: exam,
			WeekNumber: week,
		}
		if hadPrev {
			slot.ID = prev.ID
			slot.CreatedAt = prev.CreatedAt
			slot.Locked = prev.Locked
		}

		if start, ok := findGap(settings, occupiedIntervals(others)); ok {
			end := start + settings.DurationMinutes
			if violation := checkConstraints(constraints, date, start, end); violation == nil {
				day := date
				slot.Date = &day
				slot.StartMinute = &start
				slot.EndMinute = &end
				slot.Scheduled = true
			}
		}

		if hadPrev && slotChanged(prev, slot) {
			if err := s.history.Record(ctx, tx, &prev, actor, "student regeneration"); err != nil {
				return nil, err
			}
		}
		if err := s.slots.Upsert(ctx, tx, &slot); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
		}
		updated = append(updated, slot)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit regeneration")
	}

	s.invalidateOverview(ctx)
	return toSlotResponses(updated), nil
}

// Clear wipes the entire schedule and every cohort assignment. Refused while
// any slot is locked; unlock first.
func (s *ScheduleService) Clear(ctx context.Context, actor string) (*dto.ClearScheduleResponse, error) {
	unlock := s.locks.lockAll()
	defer unlock()

	locked, err := s.slots.CountLocked(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to count locked slots")
	}
	if locked > 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrConflict, "cannot clear schedule while locked slots exist"),
			map[string]int{"lockedSlots": locked},
		)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := s.slots.DeleteAll(ctx, tx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to delete slots")
	}
	if err := s.students.ResetCohorts(ctx, tx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to reset cohorts")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit clear")
	}

	s.logger.Sugar().Infow("schedule cleared", "deleted", deleted, "actor", actor)
	s.invalidateOverview(ctx)
	return &dto.ClearScheduleResponse{Deleted: deleted}, nil
}

// runSection packs one section. Locked slots keep their positions and their
// intervals are subtracted from the week before anyone else is placed.
func (s *ScheduleService) runSection(ctx context.Context, section models.Section, settings models.ScheduleSettings, fromExam int, actor string) (*dto.SectionGenerationResult, error) {
	students, err := s.students.ListActiveBySection(ctx, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load students")
	}
	constraints, err := s.constraints.MapActiveBySection(ctx, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load constraints")
	}
	existing, err := s.slots.ListBySection(ctx, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slots")
	}
	prevSlots := make(map[string]map[int]models.ExamSlot, len(students))
	for _, slot := range existing {
		if prevSlots[slot.StudentID] == nil {
			prevSlots[slot.StudentID] = make(map[int]models.ExamSlot)
		}
		prevSlots[slot.StudentID][slot.ExamNumber] = slot
	}

	cohorts := assignCohorts(students, constraints)
	ordered := orderForScheduling(students, constraints)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, student := range students {
		cohort := cohorts[student.ID]
		if student.Cohort == nil || *student.Cohort != cohort {
			if err := s.students.UpdateCohort(ctx, tx, student.ID, cohort); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save cohort")
			}
		}
	}

	result := &dto.SectionGenerationResult{
		SectionID:   section.ID,
		SectionCode: section.Code,
		Students:    len(students),
	}

	for exam := fromExam; exam <= settings.TotalExams; exam++ {
		for _, cohort := range []models.Cohort{models.CohortOdd, models.CohortEven} {
			week := weekNumberFor(exam, cohort)
			date := examDateFor(settings, week)

			var lockedSlots []models.ExamSlot
			for _, student := range ordered {
				if cohorts[student.ID] != cohort {
					continue
				}
				if prev, ok := prevSlots[student.ID][exam]; ok && prev.Locked && prev.Scheduled {
					lockedSlots = append(lockedSlots, prev)
				}
			}
			timeline := newWeekTimeline(settings, lockedSlots)

			for _, student := range ordered {
				if cohorts[student.ID] != cohort {
					continue
				}
				prev, hadPrev := prevSlots[student.ID][exam]
				if hadPrev && prev.Locked {
					result.Skipped++
					continue
				}

				slot := models.ExamSlot{
					StudentID:  student.ID,
					SectionID:  section.ID,
					ExamNumber: exam,
					WeekNumber: week,
				}
				if hadPrev {
					slot.ID = prev.ID
					slot.CreatedAt = prev.CreatedAt
				}

				if start, end, ok := timeline.peek(); ok {
					if violation := checkConstraints(constraints[student.ID], date, start, end); violation == nil {
						start, end = timeline.claim()
						day := date
						slot.Date = &day
						slot.StartMinute = &start
						slot.EndMinute = &end
						slot.Scheduled = true
						result.Scheduled++
					} else {
						result.Unscheduled++
						result.Errors = append(result.Errors, fmt.Sprintf("%s exam %d: %s", student.FullName, exam, violation.Reason))
					}
				} else {
					result.Unscheduled++
					result.Errors = append(result.Errors, fmt.Sprintf("%s exam %d: no capacity left in week %d", student.FullName, exam, week))
				}

				if hadPrev && slotChanged(prev, slot) {
					if err := s.history.Record(ctx, tx, &prev, actor, "bulk regeneration"); err != nil {
						return nil, err
					}
				}
				if err := s.slots.Upsert(ctx, tx, &slot); err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit section")
	}

	s.logger.Sugar().Infow("section schedule generated",
		"section_id", section.ID,
		"students", result.Students,
		"scheduled", result.Scheduled,
		"unscheduled", result.Unscheduled,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *ScheduleService) invalidateOverview(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, overviewCachePattern); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate overview cache", "error", err)
	}
}

func slotChanged(prev, next models.ExamSlot) bool {
	if prev.Scheduled != next.Scheduled || prev.WeekNumber != next.WeekNumber {
		return true
	}
	if !equalTimePtr(prev.StartMinute, next.StartMinute) || !equalTimePtr(prev.EndMinute, next.EndMinute) {
		return true
	}
	switch {
	case prev.Date == nil && next.Date == nil:
		return false
	case prev.Date == nil || next.Date == nil:
		return true
	default:
		return !prev.Date.Equal(*next.Date)
	}
}

func equalTimePtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
