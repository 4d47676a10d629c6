package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

func newExamSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamSlotRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newExamSlotRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_slots")).
		WithArgs(sqlmock.AnyArg(), "student-1", "section-1", 2, 3, sqlmock.AnyArg(), 810, 817, true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	date := time.Date(2026, 1, 23, 0, 0, 0, 0, time.UTC)
	start, end := 810, 817
	slot := &models.ExamSlot{
		StudentID:   "student-1",
		SectionID:   "section-1",
		ExamNumber:  2,
		WeekNumber:  3,
		Date:        &date,
		StartMinute: &start,
		EndMinute:   &end,
		Scheduled:   true,
	}

	require.NoError(t, repo.Upsert(context.Background(), nil, slot))
	assert.NotEmpty(t, slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryListScheduledForWeek(t *testing.T) {
	db, mock, cleanup := newExamSlotRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "exam_number", "week_number", "date", "start_minute", "end_minute", "is_scheduled", "is_locked", "created_at", "updated_at"}).
		AddRow("slot-1", "student-1", "section-1", 1, 1, time.Now(), 810, 817, true, false, time.Now(), time.Now()).
		AddRow("slot-2", "student-2", "section-1", 1, 1, time.Now(), 818, 825, true, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM exam_slots").
		WithArgs("section-1", 1, 1).
		WillReturnRows(rows)

	slots, err := repo.ListScheduledForWeek(context.Background(), "section-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 810, *slots[0].StartMinute)
	assert.True(t, slots[1].Locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryCountsBySection(t *testing.T) {
	db, mock, cleanup := newExamSlotRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	rows := sqlmock.NewRows([]string{"section_id", "scheduled", "unscheduled", "locked"}).
		AddRow("section-1", 40, 2, 8).
		AddRow("section-2", 35, 0, 0)
	mock.ExpectQuery("SELECT section_id").WillReturnRows(rows)

	counts, err := repo.CountsBySection(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 2, counts[0].Unscheduled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryLockScheduledOn(t *testing.T) {
	db, mock, cleanup := newExamSlotRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	date := time.Date(2026, 1, 23, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "exam_number", "week_number", "date", "start_minute", "end_minute", "is_scheduled", "is_locked", "created_at", "updated_at"}).
		AddRow("slot-1", "student-1", "section-1", 1, 1, date, 810, 817, true, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE exam_slots SET is_locked = true")).
		WithArgs(date, sqlmock.AnyArg()).
		WillReturnRows(rows)

	slots, err := repo.LockScheduledOn(context.Background(), nil, date)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamSlotRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newExamSlotRepoMock(t)
	defer cleanup()
	repo := NewExamSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_slots")).
		WillReturnResult(sqlmock.NewResult(0, 120))

	deleted, err := repo.DeleteAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(120), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
