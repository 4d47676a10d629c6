package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// SectionSlotCounts aggregates slot state for one section.
type SectionSlotCounts struct {
	SectionID   string `db:"section_id"`
	Scheduled   int    `db:"scheduled"`
	Unscheduled int    `db:"unscheduled"`
	Locked      int    `db:"locked"`
}

// ExamSlotRepository manages persistence for exam slots.
type ExamSlotRepository struct {
	db *sqlx.DB
}

// NewExamSlotRepository constructs an ExamSlotRepository.
func NewExamSlotRepository(db *sqlx.DB) *ExamSlotRepository {
	return &ExamSlotRepository{db: db}
}

func (r *ExamSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const slotColumns = `id, student_id, section_id, exam_number, week_number, date, start_minute, end_minute, is_scheduled, is_locked, created_at, updated_at`

// FindByID fetches a slot by ID.
func (r *ExamSlotRepository) FindByID(ctx context.Context, id string) (*models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots WHERE id = $1`, slotColumns)
	var slot models.ExamSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindByStudentAndExam fetches the slot for one student/exam pair.
func (r *ExamSlotRepository) FindByStudentAndExam(ctx context.Context, studentID string, examNumber int) (*models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots WHERE student_id = $1 AND exam_number = $2`, slotColumns)
	var slot models.ExamSlot
	if err := r.db.GetContext(ctx, &slot, query, studentID, examNumber); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByStudent returns all slots for a student ordered by exam number.
func (r *ExamSlotRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots WHERE student_id = $1 ORDER BY exam_number ASC`, slotColumns)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, studentID); err != nil {
		return nil, fmt.Errorf("list slots for student %s: %w", studentID, err)
	}
	return slots, nil
}

// ListByStudentFrom returns a student's slots with exam_number >= fromExam.
func (r *ExamSlotRepository) ListByStudentFrom(ctx context.Context, studentID string, fromExam int) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots WHERE student_id = $1 AND exam_number >= $2 ORDER BY exam_number ASC`, slotColumns)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, studentID, fromExam); err != nil {
		return nil, fmt.Errorf("list slots for student %s from exam %d: %w", studentID, fromExam, err)
	}
	return slots, nil
}

// ListScheduledForWeek returns scheduled slots occupying a section's window
// for one exam/week, ordered by start time. The packing cursor is seeded
// from these.
func (r *ExamSlotRepository) ListScheduledForWeek(ctx context.Context, sectionID string, examNumber, weekNumber int) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots
        WHERE section_id = $1 AND exam_number = $2 AND week_number = $3 AND is_scheduled = true
        ORDER BY start_minute ASC`, slotColumns)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, sectionID, examNumber, weekNumber); err != nil {
		return nil, fmt.Errorf("list scheduled slots for section %s exam %d week %d: %w", sectionID, examNumber, weekNumber, err)
	}
	return slots, nil
}

// ListBySection returns every slot in a section ordered for display.
func (r *ExamSlotRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots WHERE section_id = $1
        ORDER BY exam_number ASC, start_minute ASC NULLS LAST, student_id ASC`, slotColumns)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, sectionID); err != nil {
		return nil, fmt.Errorf("list slots for section %s: %w", sectionID, err)
	}
	return slots, nil
}

// ListAll returns every slot ordered for export.
func (r *ExamSlotRepository) ListAll(ctx context.Context) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots
        ORDER BY section_id ASC, exam_number ASC, start_minute ASC NULLS LAST, student_id ASC`, slotColumns)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list all slots: %w", err)
	}
	return slots, nil
}

// ListScheduledOn returns scheduled, unlocked slots dated on the given day.
func (r *ExamSlotRepository) ListScheduledOn(ctx context.Context, date time.Time) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_slots
        WHERE date = $1 AND is_scheduled = true AND is_locked = false
        ORDER BY start_minute ASC`, slotColumns)
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("list slots on %s: %w", date.Format("2006-01-02"), err)
	}
	return slots, nil
}

// CountLocked returns the number of locked slots.
func (r *ExamSlotRepository) CountLocked(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_slots WHERE is_locked = true`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count locked slots: %w", err)
	}
	return count, nil
}

// CountsBySection aggregates scheduled/unscheduled/locked slot counts per
// section for the overview.
func (r *ExamSlotRepository) CountsBySection(ctx context.Context) ([]SectionSlotCounts, error) {
	const query = `SELECT section_id,
        COUNT(*) FILTER (WHERE is_scheduled = true) AS scheduled,
        COUNT(*) FILTER (WHERE is_scheduled = false) AS unscheduled,
        COUNT(*) FILTER (WHERE is_locked = true) AS locked
        FROM exam_slots GROUP BY section_id`
	var counts []SectionSlotCounts
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("aggregate slot counts: %w", err)
	}
	return counts, nil
}

// Upsert writes a slot keyed by (student_id, exam_number). Regeneration runs
// replace slot contents in place so history rows keep pointing at the same
// slot IDs.
func (r *ExamSlotRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	const query = `INSERT INTO exam_slots (id, student_id, section_id, exam_number, week_number, date, start_minute, end_minute, is_scheduled, is_locked, created_at, updated_at)
        VALUES (:id, :student_id, :section_id, :exam_number, :week_number, :date, :start_minute, :end_minute, :is_scheduled, :is_locked, :created_at, :updated_at)
        ON CONFLICT (student_id, exam_number) DO UPDATE SET
            section_id = EXCLUDED.section_id,
            week_number = EXCLUDED.week_number,
            date = EXCLUDED.date,
            start_minute = EXCLUDED.start_minute,
            end_minute = EXCLUDED.end_minute,
            is_scheduled = EXCLUDED.is_scheduled,
            updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("upsert slot for student %s exam %d: %w", slot.StudentID, slot.ExamNumber, err)
	}
	return nil
}

// Update rewrites the scheduling fields of an existing slot by ID.
func (r *ExamSlotRepository) Update(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_slots SET section_id = :section_id, week_number = :week_number, date = :date,
        start_minute = :start_minute, end_minute = :end_minute, is_scheduled = :is_scheduled,
        is_locked = :is_locked, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot)
	if err != nil {
		return fmt.Errorf("update slot %s: %w", slot.ID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update slot %s: no rows affected", slot.ID)
	}
	return nil
}

// SetLocked flips the lock flag on a slot.
func (r *ExamSlotRepository) SetLocked(ctx context.Context, exec sqlx.ExtContext, id string, locked bool) error {
	const query = `UPDATE exam_slots SET is_locked = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, locked, time.Now().UTC()); err != nil {
		return fmt.Errorf("set lock on slot %s: %w", id, err)
	}
	return nil
}

// UnlockMatching clears the lock flag on locked slots, optionally narrowed
// to one exam number and/or one cohort, and returns the number affected.
// Zero values leave the corresponding filter off.
func (r *ExamSlotRepository) UnlockMatching(ctx context.Context, exec sqlx.ExtContext, examNumber int, cohort string) (int64, error) {
	query := `UPDATE exam_slots SET is_locked = false, updated_at = $1 WHERE is_locked = true`
	args := []interface{}{time.Now().UTC()}
	if examNumber > 0 {
		args = append(args, examNumber)
		query += fmt.Sprintf(" AND exam_number = $%d", len(args))
	}
	if cohort != "" {
		args = append(args, cohort)
		query += fmt.Sprintf(" AND student_id IN (SELECT id FROM students WHERE cohort = $%d)", len(args))
	}
	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk unlock slots: %w", err)
	}
	return result.RowsAffected()
}

// LockScheduledOn locks every scheduled slot dated on the given day and
// returns the affected slots for notification fan-out.
func (r *ExamSlotRepository) LockScheduledOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.ExamSlot, error) {
	query := fmt.Sprintf(`UPDATE exam_slots SET is_locked = true, updated_at = $2
        WHERE date = $1 AND is_scheduled = true AND is_locked = false
        RETURNING %s`, slotColumns)
	rows, err := r.exec(exec).QueryxContext(ctx, query, date, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("lock slots on %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var slots []models.ExamSlot
	for rows.Next() {
		var slot models.ExamSlot
		if err := rows.StructScan(&slot); err != nil {
			return nil, fmt.Errorf("scan locked slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// DeleteUnlockedByStudent removes a student's unlocked slots.
func (r *ExamSlotRepository) DeleteUnlockedByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) (int64, error) {
	const query = `DELETE FROM exam_slots WHERE student_id = $1 AND is_locked = false`
	result, err := r.exec(exec).ExecContext(ctx, query, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete slots for student %s: %w", studentID, err)
	}
	return result.RowsAffected()
}

// DeleteAll removes every slot. Callers must verify no locks remain first.
func (r *ExamSlotRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	const query = `DELETE FROM exam_slots`
	result, err := r.exec(exec).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete all slots: %w", err)
	}
	return result.RowsAffected()
}
