package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
	"github.com/noah-isme/exam-slot-api/pkg/notify"
)

type slotStore interface {
	FindByID(ctx context.Context, id string) (*models.ExamSlot, error)
	ListScheduledForWeek(ctx context.Context, sectionID string, examNumber, weekNumber int) ([]models.ExamSlot, error)
	ListScheduledOn(ctx context.Context, date time.Time) ([]models.ExamSlot, error)
	Update(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error
	SetLocked(ctx context.Context, exec sqlx.ExtContext, id string, locked bool) error
	UnlockMatching(ctx context.Context, exec sqlx.ExtContext, examNumber int, cohort string) (int64, error)
	LockScheduledOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.ExamSlot, error)
}

type slotHistoryReader interface {
	Record(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot, actor, reason string) error
	ListBySlot(ctx context.Context, slotID string) ([]dto.SlotHistoryResponse, error)
	Snapshot(ctx context.Context, slotID, historyID string) (*models.ExamSlotHistory, error)
}

type eventEmitter interface {
	Emit(event notify.Event) error
}

// SlotService handles single-slot operations: manual placement, the lock
// lifecycle, pairwise swaps and history reverts.
type SlotService struct {
	slots     slotStore
	history   slotHistoryReader
	settings  settingsLoader
	cache     overviewInvalidator
	tx        txProvider
	locks     *ScheduleLocks
	events    eventEmitter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSlotService wires slot dependencies. The locks instance must be shared
// with the schedule service.
func NewSlotService(
	slots slotStore,
	history slotHistoryReader,
	settings settingsLoader,
	cache overviewInvalidator,
	tx txProvider,
	locks *ScheduleLocks,
	events eventEmitter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewScheduleLocks()
	}
	return &SlotService{
		slots:     slots,
		history:   history,
		settings:  settings,
		cache:     cache,
		tx:        tx,
		locks:     locks,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Get returns one slot.
func (s *SlotService) Get(ctx context.Context, slotID string) (*dto.SlotResponse, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	resp := toSlotResponse(*slot, "")
	return &resp, nil
}

// History returns a slot's current state together with its change log.
func (s *SlotService) History(ctx context.Context, slotID string) (*dto.SlotHistoryDetail, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	return &dto.SlotHistoryDetail{Current: toSlotResponse(*slot, ""), Histories: entries}, nil
}

// ManualSchedule places a slot at an explicit date and start time. The slot
// must be unlocked and the interval must fit the exam window without
// touching another scheduled slot; with pushSubsequent, later unlocked slots
// on the same day are shifted to make room.
func (s *SlotService) ManualSchedule(ctx context.Context, slotID string, req dto.ManualScheduleRequest, actor string) (*dto.SlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload")
	}

	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Locked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "slot is locked")
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	start, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}
	end := start + settings.DurationMinutes
	if start < settings.StartMinute || end > settings.EndMinute {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot does not fit the exam window")
	}

	unlockSection := s.locks.lockSection(slot.SectionID)
	defer unlockSection()

	neighbours, err := s.slots.ListScheduledForWeek(ctx, slot.SectionID, slot.ExamNumber, slot.WeekNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load week timeline")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var displaced []models.ExamSlot
	for _, other := range neighbours {
		if other.ID == slot.ID || other.StartMinute == nil || other.EndMinute == nil {
			continue
		}
		if overlapsWithBuffer(start, end, *other.StartMinute, *other.EndMinute, settings.BufferMinutes) {
			if !req.PushSubsequent {
				return nil, appErrors.WithDetails(
					appErrors.Clone(appErrors.ErrConflict, "requested time overlaps another slot"),
					map[string]string{"conflictSlotId": other.ID},
				)
			}
			if other.Locked {
				return nil, appErrors.WithDetails(
					appErrors.Clone(appErrors.ErrLocked, "cannot push a locked slot"),
					map[string]string{"conflictSlotId": other.ID},
				)
			}
		}
		if *other.StartMinute >= start {
			displaced = append(displaced, other)
		}
	}

	if err := s.history.Record(ctx, tx, slot, actor, "manual scheduling"); err != nil {
		return nil, err
	}
	slot.Date = &date
	slot.StartMinute = &start
	slot.EndMinute = &end
	slot.Scheduled = true
	if err := s.slots.Update(ctx, tx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
	}

	if req.PushSubsequent && len(displaced) > 0 {
		if err := s.pushSubsequent(ctx, tx, settings, end, displaced, actor); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit manual schedule")
	}

	s.invalidateOverview(ctx)
	s.emit(notify.Event{Kind: notify.KindSlotScheduled, StudentID: slot.StudentID, SlotID: slot.ID, ExamNumber: slot.ExamNumber})

	resp := toSlotResponse(*slot, "")
	return &resp, nil
}

// pushSubsequent re-lays displaced slots one buffer apart after the manually
// placed interval, keeping their relative order. Locked slots stay put; a
// pushed slot landing on a locked one aborts the whole operation.
func (s *SlotService) pushSubsequent(ctx context.Context, tx *sqlx.Tx, settings models.ScheduleSettings, afterEnd int, displaced []models.ExamSlot, actor string) error {
	sort.Slice(displaced, func(i, j int) bool { return *displaced[i].StartMinute < *displaced[j].StartMinute })

	cursor := afterEnd + settings.BufferMinutes
	for i := range displaced {
		other := displaced[i]
		if other.Locked {
			if cursor > *other.StartMinute {
				return appErrors.WithDetails(
					appErrors.Clone(appErrors.ErrLocked, "push would collide with a locked slot"),
					map[string]string{"conflictSlotId": other.ID},
				)
			}
			cursor = *other.EndMinute + settings.BufferMinutes
			continue
		}
		if cursor <= *other.StartMinute {
			// Already clear of the new placement.
			cursor = *other.EndMinute + settings.BufferMinutes
			continue
		}

		start := cursor
		end := start + settings.DurationMinutes
		if end > settings.EndMinute {
			return appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrConflict, "push overflows the exam window"),
				map[string]string{"slotId": other.ID},
			)
		}
		if err := s.history.Record(ctx, tx, &other, actor, "pushed by manual scheduling"); err != nil {
			return err
		}
		other.StartMinute = &start
		other.EndMinute = &end
		if err := s.slots.Update(ctx, tx, &other); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to push slot")
		}
		cursor = end + settings.BufferMinutes
	}
	return nil
}

// Swap exchanges the scheduled positions of two slots in the same section
// and exam. Both must be unlocked.
func (s *SlotService) Swap(ctx context.Context, slotID string, req dto.SwapSlotsRequest, actor string) ([]dto.SlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload")
	}
	if slotID == req.OtherSlotID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot swap a slot with itself")
	}

	first, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	second, err := s.loadSlot(ctx, req.OtherSlotID)
	if err != nil {
		return nil, err
	}
	if first.Locked || second.Locked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "cannot swap locked slots")
	}
	if first.SectionID != second.SectionID || first.ExamNumber != second.ExamNumber {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slots must share section and exam number")
	}

	unlockSection := s.locks.lockSection(first.SectionID)
	defer unlockSection()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.history.Record(ctx, tx, first, actor, "slot swap"); err != nil {
		return nil, err
	}
	if err := s.history.Record(ctx, tx, second, actor, "slot swap"); err != nil {
		return nil, err
	}

	first.WeekNumber, second.WeekNumber = second.WeekNumber, first.WeekNumber
	first.Date, second.Date = second.Date, first.Date
	first.StartMinute, second.StartMinute = second.StartMinute, first.StartMinute
	first.EndMinute, second.EndMinute = second.EndMinute, first.EndMinute
	first.Scheduled, second.Scheduled = second.Scheduled, first.Scheduled

	if err := s.slots.Update(ctx, tx, first); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
	}
	if err := s.slots.Update(ctx, tx, second); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit swap")
	}

	s.invalidateOverview(ctx)
	return toSlotResponses([]models.ExamSlot{*first, *second}), nil
}

// Lock marks a slot immutable to bulk operations.
func (s *SlotService) Lock(ctx context.Context, slotID, actor string) (*dto.SlotResponse, error) {
	return s.setLocked(ctx, slotID, true, actor)
}

// Unlock releases a locked slot.
func (s *SlotService) Unlock(ctx context.Context, slotID, actor string) (*dto.SlotResponse, error) {
	return s.setLocked(ctx, slotID, false, actor)
}

func (s *SlotService) setLocked(ctx context.Context, slotID string, locked bool, actor string) (*dto.SlotResponse, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Locked == locked {
		resp := toSlotResponse(*slot, "")
		return &resp, nil
	}
	if locked && !slot.Scheduled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot lock an unscheduled slot")
	}

	if err := s.slots.SetLocked(ctx, nil, slotID, locked); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to update lock")
	}
	slot.Locked = locked

	s.logger.Sugar().Infow("slot lock changed", "slot_id", slotID, "locked", locked, "actor", actor)
	if locked {
		s.metrics.ObserveLockChange("lock")
		s.emit(notify.Event{Kind: notify.KindSlotLocked, StudentID: slot.StudentID, SlotID: slot.ID, ExamNumber: slot.ExamNumber})
	} else {
		s.metrics.ObserveLockChange("unlock")
	}

	resp := toSlotResponse(*slot, "")
	return &resp, nil
}

// BulkUnlock releases locked slots, optionally narrowed to one exam number
// and/or cohort. An empty request releases everything.
func (s *SlotService) BulkUnlock(ctx context.Context, req dto.BulkUnlockRequest, actor string) (*dto.BulkUnlockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk unlock payload")
	}

	unlocked, err := s.slots.UnlockMatching(ctx, nil, req.ExamNumber, req.Cohort)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to unlock slots")
	}
	s.metrics.ObserveLockChange("bulk_unlock")
	s.logger.Sugar().Infow("bulk unlock", "unlocked", unlocked, "exam_number", req.ExamNumber, "cohort", req.Cohort, "actor", actor)
	return &dto.BulkUnlockResponse{Unlocked: unlocked}, nil
}

// AutoLock locks every scheduled slot on the given date (today when empty),
// emitting a lock event per slot so students can be notified their time is
// final.
func (s *SlotService) AutoLock(ctx context.Context, req dto.AutoLockRequest, actor string) (*dto.AutoLockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto-lock payload")
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	slots, err := s.slots.LockScheduledOn(ctx, nil, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to lock slots")
	}
	for _, slot := range slots {
		s.metrics.ObserveLockChange("auto_lock")
		s.emit(notify.Event{Kind: notify.KindSlotLocked, StudentID: slot.StudentID, SlotID: slot.ID, ExamNumber: slot.ExamNumber})
	}

	s.logger.Sugar().Infow("auto-lock completed", "date", date.Format("2006-01-02"), "locked", len(slots), "actor", actor)
	return &dto.AutoLockResponse{Locked: len(slots), Slots: toSlotResponses(slots)}, nil
}

// Revert restores a slot to a prior history snapshot. The snapshot must
// belong to the slot and the slot must be unlocked.
func (s *SlotService) Revert(ctx context.Context, slotID string, req dto.RevertSlotRequest, actor string) (*dto.SlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid revert payload")
	}

	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Locked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "slot is locked")
	}

	snapshot, err := s.history.Snapshot(ctx, slotID, req.HistoryID)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.history.Record(ctx, tx, slot, actor, "revert to snapshot "+snapshot.ID); err != nil {
		return nil, err
	}

	slot.WeekNumber = snapshot.WeekNumber
	slot.Date = snapshot.Date
	slot.StartMinute = snapshot.StartMinute
	slot.EndMinute = snapshot.EndMinute
	slot.Scheduled = snapshot.Scheduled
	if err := s.slots.Update(ctx, tx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save slot")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to commit revert")
	}

	s.invalidateOverview(ctx)
	s.emit(notify.Event{Kind: notify.KindSlotReverted, StudentID: slot.StudentID, SlotID: slot.ID, ExamNumber: slot.ExamNumber})

	resp := toSlotResponse(*slot, "")
	return &resp, nil
}

func (s *SlotService) loadSlot(ctx context.Context, slotID string) (*models.ExamSlot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slot")
	}
	return slot, nil
}

func (s *SlotService) invalidateOverview(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, overviewCachePattern); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate overview cache", "error", err)
	}
}

func (s *SlotService) emit(event notify.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(event); err != nil {
		s.logger.Sugar().Warnw("failed to emit schedule event", "kind", event.Kind, "slot_id", event.SlotID, "error", err)
	}
}

// overlapsWithBuffer reports whether two intervals collide once the
// mandatory buffer between exams is accounted for.
func overlapsWithBuffer(aStart, aEnd, bStart, bEnd, buffer int) bool {
	return aStart < bEnd+buffer && bStart < aEnd+buffer
}
