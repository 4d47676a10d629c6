package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// ExamSlotHistoryRepository manages the append-only slot change log.
type ExamSlotHistoryRepository struct {
	db *sqlx.DB
}

// NewExamSlotHistoryRepository constructs an ExamSlotHistoryRepository.
func NewExamSlotHistoryRepository(db *sqlx.DB) *ExamSlotHistoryRepository {
	return &ExamSlotHistoryRepository{db: db}
}

func (r *ExamSlotHistoryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const historyColumns = `id, exam_slot_id, student_id, section_id, exam_number, week_number, date, start_minute, end_minute, is_scheduled, changed_at, changed_by, reason`

// Create appends a history snapshot. Rows are never updated or deleted.
func (r *ExamSlotHistoryRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ExamSlotHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_slot_histories (id, exam_slot_id, student_id, section_id, exam_number, week_number, date, start_minute, end_minute, is_scheduled, changed_at, changed_by, reason)
        VALUES (:id, :exam_slot_id, :student_id, :section_id, :exam_number, :week_number, :date, :start_minute, :end_minute, :is_scheduled, :changed_at, :changed_by, :reason)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		return fmt.Errorf("create history for slot %s: %w", entry.ExamSlotID, err)
	}
	return nil
}

// FindByID fetches one history entry.
func (r *ExamSlotHistoryRepository) FindByID(ctx context.Context, id string) (*models.ExamSlotHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slot_histories WHERE id = $1`, historyColumns)
	var entry models.ExamSlotHistory
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListBySlot returns a slot's history newest first.
func (r *ExamSlotHistoryRepository) ListBySlot(ctx context.Context, slotID string) ([]models.ExamSlotHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slot_histories WHERE exam_slot_id = $1 ORDER BY changed_at DESC`, historyColumns)
	var entries []models.ExamSlotHistory
	if err := r.db.SelectContext(ctx, &entries, query, slotID); err != nil {
		return nil, fmt.Errorf("list history for slot %s: %w", slotID, err)
	}
	return entries, nil
}

// ListByStudent returns a student's full change log newest first.
func (r *ExamSlotHistoryRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ExamSlotHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slot_histories WHERE student_id = $1 ORDER BY changed_at DESC`, historyColumns)
	var entries []models.ExamSlotHistory
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list history for student %s: %w", studentID, err)
	}
	return entries, nil
}
