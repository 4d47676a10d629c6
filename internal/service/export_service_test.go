package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

func newExportFixture(students ...models.Student) (*ExportService, *slotRepoStub) {
	slots := newSlotRepoStub()
	sections := &sectionRepoStub{sections: []models.Section{sectionA()}}
	svc := NewExportService(slots, newStudentRepoStub(students...), sections, zap.NewNop())
	return svc, slots
}

func exportRoster() []models.Student {
	students := rosterStudents("section-a", 2)
	odd := models.CohortOdd
	students[0].Cohort = &odd
	return students
}

func TestExportScheduleCSV(t *testing.T) {
	svc, slots := newExportFixture(exportRoster()...)

	date := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	start, end := 810, 817
	slots.seed(models.ExamSlot{
		StudentID: "s-01", SectionID: "section-a",
		ExamNumber: 1, WeekNumber: 1,
		Date: &date, StartMinute: &start, EndMinute: &end,
		Scheduled: true, Locked: true,
	})
	slots.seed(models.ExamSlot{
		StudentID: "s-02", SectionID: "section-a",
		ExamNumber: 1, WeekNumber: 2,
	})

	file, err := svc.Schedule(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "schedule.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportColumns, records[0])
	assert.Equal(t, []string{"Student s-01", "s-01@example.edu", "A01", "odd", "1", "1", "2026-01-09", "13:30", "13:37", "scheduled", "yes"}, records[1])
	assert.Equal(t, []string{"Student s-02", "s-02@example.edu", "A01", "", "1", "2", "", "", "", "unscheduled", "no"}, records[2])
}

func TestExportScheduleSectionScopeNamesFileAfterCode(t *testing.T) {
	svc, _ := newExportFixture(exportRoster()...)

	file, err := svc.Schedule(context.Background(), "section-a", "csv")
	require.NoError(t, err)
	assert.Equal(t, "A01.csv", file.Name)
}

func TestExportScheduleXLSX(t *testing.T) {
	svc, slots := newExportFixture(exportRoster()...)
	slots.seed(models.ExamSlot{StudentID: "s-01", SectionID: "section-a", ExamNumber: 1, WeekNumber: 1})

	file, err := svc.Schedule(context.Background(), "", "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "schedule.xlsx", file.Name)
	assert.NotEmpty(t, file.Data)
}

func TestExportScheduleUnknownSection(t *testing.T) {
	svc, _ := newExportFixture(exportRoster()...)

	_, err := svc.Schedule(context.Background(), "section-z", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportScheduleRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(exportRoster()...)

	_, err := svc.Schedule(context.Background(), "", "docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentCalendarListsScheduledSlotsOnly(t *testing.T) {
	svc, slots := newExportFixture(exportRoster()...)

	date := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	start, end := 810, 817
	scheduled := slots.seed(models.ExamSlot{
		StudentID: "s-01", SectionID: "section-a",
		ExamNumber: 1, WeekNumber: 1,
		Date: &date, StartMinute: &start, EndMinute: &end,
		Scheduled: true,
	})
	slots.seed(models.ExamSlot{
		StudentID: "s-01", SectionID: "section-a",
		ExamNumber: 2, WeekNumber: 3,
	})

	file, err := svc.StudentCalendar(context.Background(), "s-01")
	require.NoError(t, err)
	assert.Equal(t, "exams.ics", file.Name)
	assert.Equal(t, "text/calendar", file.ContentType)

	body := string(file.Data)
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "UID:"+scheduled.ID)
	assert.Contains(t, body, "SUMMARY:Oral exam 1")
}

func TestStudentCalendarUnknownStudent(t *testing.T) {
	svc, _ := newExportFixture(exportRoster()...)

	_, err := svc.StudentCalendar(context.Background(), "s-99")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
