package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type historyStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ExamSlotHistory) error
	FindByID(ctx context.Context, id string) (*models.ExamSlotHistory, error)
	ListBySlot(ctx context.Context, slotID string) ([]models.ExamSlotHistory, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamSlotHistory, error)
}

// HistoryService keeps the append-only change log for exam slots. Every
// mutation snapshots the slot's prior state first, so any change can be
// audited and reverted.
type HistoryService struct {
	store  historyStore
	logger *zap.Logger
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(store historyStore, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{store: store, logger: logger}
}

// Record snapshots the slot as it was before the mutation described by
// reason. Call with the pre-mutation state.
func (s *HistoryService) Record(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot, actor, reason string) error {
	if slot == nil || slot.ID == "" {
		return nil
	}
	if actor == "" {
		actor = "system"
	}
	entry := &models.ExamSlotHistory{
		ExamSlotID:  slot.ID,
		StudentID:   slot.StudentID,
		SectionID:   slot.SectionID,
		ExamNumber:  slot.ExamNumber,
		WeekNumber:  slot.WeekNumber,
		Date:        slot.Date,
		StartMinute: slot.StartMinute,
		EndMinute:   slot.EndMinute,
		Scheduled:   slot.Scheduled,
		ChangedBy:   actor,
		Reason:      reason,
	}
	if err := s.store.Create(ctx, exec, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to record slot history")
	}
	return nil
}

// ListBySlot returns a slot's change log newest first.
func (s *HistoryService) ListBySlot(ctx context.Context, slotID string) ([]dto.SlotHistoryResponse, error) {
	entries, err := s.store.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slot history")
	}
	return toHistoryResponses(entries), nil
}

// ListByStudent returns every change across a student's slots.
func (s *HistoryService) ListByStudent(ctx context.Context, studentID string) ([]dto.SlotHistoryResponse, error) {
	entries, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load student history")
	}
	return toHistoryResponses(entries), nil
}

// Snapshot loads one history entry and verifies it belongs to the given
// slot. A mismatch means the caller is trying to restore foreign state.
func (s *HistoryService) Snapshot(ctx context.Context, slotID, historyID string) (*models.ExamSlotHistory, error) {
	entry, err := s.store.FindByID(ctx, historyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "history entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load history entry")
	}
	if entry.ExamSlotID != slotID {
		return nil, appErrors.Clone(appErrors.ErrIntegrity, "history entry does not belong to this slot")
	}
	return entry, nil
}

func toHistoryResponses(entries []models.ExamSlotHistory) []dto.SlotHistoryResponse {
	responses := make([]dto.SlotHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		item := dto.SlotHistoryResponse{
			ID:         entry.ID,
			ExamSlotID: entry.ExamSlotID,
			ExamNumber: entry.ExamNumber,
			WeekNumber: entry.WeekNumber,
			Scheduled:  entry.Scheduled,
			ChangedAt:  entry.ChangedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			ChangedBy:  entry.ChangedBy,
			Reason:     entry.Reason,
		}
		if entry.Date != nil {
			date := entry.Date.Format("2006-01-02")
			item.Date = &date
		}
		if entry.StartMinute != nil {
			start := models.MinuteToClock(*entry.StartMinute)
			item.StartTime = &start
		}
		if entry.EndMinute != nil {
			end := models.MinuteToClock(*entry.EndMinute)
			item.EndTime = &end
		}
		responses = append(responses, item)
	}
	return responses
}
