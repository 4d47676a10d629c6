package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/repository"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

// --- shared stubs ---

type studentRepoStub struct {
	items map[string]*models.Student
}

func newStudentRepoStub(students ...models.Student) *studentRepoStub {
	stub := &studentRepoStub{items: make(map[string]*models.Student)}
	for i := range students {
		student := students[i]
		stub.items[student.ID] = &student
	}
	return stub
}

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := s.items[id]; ok {
		copied := *student
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentRepoStub) ListActiveBySection(ctx context.Context, sectionID string) ([]models.Student, error) {
	var students []models.Student
	for _, student := range s.items {
		if student.Active && student.SectionID != nil && *student.SectionID == sectionID {
			students = append(students, *student)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (s *studentRepoStub) UpdateCohort(ctx context.Context, exec sqlx.ExtContext, studentID string, cohort models.Cohort) error {
	student, ok := s.items[studentID]
	if !ok {
		return sql.ErrNoRows
	}
	student.Cohort = &cohort
	return nil
}

func (s *studentRepoStub) ResetCohorts(ctx context.Context, exec sqlx.ExtContext) error {
	for _, student := range s.items {
		student.Cohort = nil
	}
	return nil
}

type sectionRepoStub struct {
	sections []models.Section
}

func (s *sectionRepoStub) ListActive(ctx context.Context) ([]models.Section, error) {
	return s.sections, nil
}

func (s *sectionRepoStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	for _, section := range s.sections {
		if section.ID == id {
			copied := section
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

type slotRepoStub struct {
	items   map[string]*models.ExamSlot
	cohorts map[string]models.Cohort
	nextID  int
}

func newSlotRepoStub() *slotRepoStub {
	return &slotRepoStub{items: make(map[string]*models.ExamSlot)}
}

func (s *slotRepoStub) seed(slot models.ExamSlot) *models.ExamSlot {
	if slot.ID == "" {
		s.nextID++
		slot.ID = fmt.Sprintf("slot-%d", s.nextID)
	}
	copied := slot
	s.items[copied.ID] = &copied
	return &copied
}

func (s *slotRepoStub) all() []models.ExamSlot {
	var slots []models.ExamSlot
	for _, slot := range s.items {
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots
}

func (s *slotRepoStub) FindByID(ctx context.Context, id string) (*models.ExamSlot, error) {
	if slot, ok := s.items[id]; ok {
		copied := *slot
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *slotRepoStub) ListBySection(ctx context.Context, sectionID string) ([]models.ExamSlot, error) {
	var slots []models.ExamSlot
	for _, slot := range s.items {
		if slot.SectionID == sectionID {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots, nil
}

func (s *slotRepoStub) ListAll(ctx context.Context) ([]models.ExamSlot, error) {
	return s.all(), nil
}

func (s *slotRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.ExamSlot, error) {
	return s.ListByStudentFrom(ctx, studentID, 1)
}

func (s *slotRepoStub) ListByStudentFrom(ctx context.Context, studentID string, fromExam int) ([]models.ExamSlot, error) {
	var slots []models.ExamSlot
	for _, slot := range s.items {
		if slot.StudentID == studentID && slot.ExamNumber >= fromExam {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ExamNumber < slots[j].ExamNumber })
	return slots, nil
}

func (s *slotRepoStub) ListScheduledForWeek(ctx context.Context, sectionID string, examNumber, weekNumber int) ([]models.ExamSlot, error) {
	var slots []models.ExamSlot
	for _, slot := range s.items {
		if slot.SectionID == sectionID && slot.ExamNumber == examNumber && slot.WeekNumber == weekNumber && slot.Scheduled {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return *slots[i].StartMinute < *slots[j].StartMinute })
	return slots, nil
}

func (s *slotRepoStub) ListScheduledOn(ctx context.Context, date time.Time) ([]models.ExamSlot, error) {
	var slots []models.ExamSlot
	for _, slot := range s.items {
		if slot.Scheduled && !slot.Locked && slot.Date != nil && slot.Date.Equal(date) {
			slots = append(slots, *slot)
		}
	}
	return slots, nil
}

func (s *slotRepoStub) Upsert(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	for _, existing := range s.items {
		if existing.StudentID == slot.StudentID && existing.ExamNumber == slot.ExamNumber {
			slot.ID = existing.ID
			locked := existing.Locked
			copied := *slot
			copied.Locked = locked
			s.items[copied.ID] = &copied
			return nil
		}
	}
	if slot.ID == "" {
		s.nextID++
		slot.ID = fmt.Sprintf("slot-%d", s.nextID)
	}
	copied := *slot
	s.items[copied.ID] = &copied
	return nil
}

func (s *slotRepoStub) Update(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	if _, ok := s.items[slot.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *slot
	s.items[copied.ID] = &copied
	return nil
}

func (s *slotRepoStub) SetLocked(ctx context.Context, exec sqlx.ExtContext, id string, locked bool) error {
	slot, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	slot.Locked = locked
	return nil
}

func (s *slotRepoStub) UnlockMatching(ctx context.Context, exec sqlx.ExtContext, examNumber int, cohort string) (int64, error) {
	var unlocked int64
	for _, slot := range s.items {
		if !slot.Locked {
			continue
		}
		if examNumber > 0 && slot.ExamNumber != examNumber {
			continue
		}
		if cohort != "" && string(s.cohorts[slot.StudentID]) != cohort {
			continue
		}
		slot.Locked = false
		unlocked++
	}
	return unlocked, nil
}

func (s *slotRepoStub) LockScheduledOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.ExamSlot, error) {
	var locked []models.ExamSlot
	for _, slot := range s.items {
		if slot.Scheduled && !slot.Locked && slot.Date != nil && slot.Date.Equal(date) {
			slot.Locked = true
			locked = append(locked, *slot)
		}
	}
	return locked, nil
}

func (s *slotRepoStub) CountLocked(ctx context.Context) (int, error) {
	var count int
	for _, slot := range s.items {
		if slot.Locked {
			count++
		}
	}
	return count, nil
}

func (s *slotRepoStub) CountsBySection(ctx context.Context) ([]repository.SectionSlotCounts, error) {
	bySection := make(map[string]*repository.SectionSlotCounts)
	for _, slot := range s.items {
		counts, ok := bySection[slot.SectionID]
		if !ok {
			counts = &repository.SectionSlotCounts{SectionID: slot.SectionID}
			bySection[slot.SectionID] = counts
		}
		if slot.Scheduled {
			counts.Scheduled++
		} else {
			counts.Unscheduled++
		}
		if slot.Locked {
			counts.Locked++
		}
	}
	var result []repository.SectionSlotCounts
	for _, counts := range bySection {
		result = append(result, *counts)
	}
	return result, nil
}

func (s *slotRepoStub) DeleteUnlockedByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) (int64, error) {
	var deleted int64
	for id, slot := range s.items {
		if slot.StudentID == studentID && !slot.Locked {
			delete(s.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *slotRepoStub) DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	deleted := int64(len(s.items))
	s.items = make(map[string]*models.ExamSlot)
	return deleted, nil
}

type constraintRepoStub struct {
	byStudent map[string][]models.Constraint
}

func (s *constraintRepoStub) MapActiveBySection(ctx context.Context, sectionID string) (map[string][]models.Constraint, error) {
	if s.byStudent == nil {
		return map[string][]models.Constraint{}, nil
	}
	return s.byStudent, nil
}

func (s *constraintRepoStub) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Constraint, error) {
	return s.byStudent[studentID], nil
}

type settingsLoaderStub struct {
	settings models.ScheduleSettings
}

func (s settingsLoaderStub) Load(ctx context.Context) (models.ScheduleSettings, error) {
	return s.settings, nil
}

type historyRecorderStub struct {
	entries []models.ExamSlotHistory
}

func (s *historyRecorderStub) Record(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot, actor, reason string) error {
	s.entries = append(s.entries, models.ExamSlotHistory{
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
	})
	return nil
}

type cacheInvalidatorStub struct {
	patterns []string
}

func (s *cacheInvalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type txProviderStub struct {
	db *sqlx.DB
}

// newTxProviderStub backs transactions with sqlmock in permissive mode so
// service tests exercise commit paths without scripting every statement.
func newTxProviderStub(t *testing.T) txProvider {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 64; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	t.Cleanup(func() { db.Close() })
	return &txProviderStub{db: sqlx.NewDb(db, "sqlmock")}
}

func (p *txProviderStub) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

// --- fixtures ---

type scheduleFixture struct {
	service  *ScheduleService
	students *studentRepoStub
	slots    *slotRepoStub
	history  *historyRecorderStub
	cache    *cacheInvalidatorStub
}

func sectionA() models.Section {
	return models.Section{ID: "section-a", Code: "A01", Name: "Section A", Active: true}
}

func rosterStudents(sectionID string, count int) []models.Student {
	students := make([]models.Student, 0, count)
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("s-%02d", i)
		section := sectionID
		students = append(students, models.Student{
			ID:        id,
			SISUserID: "sis-" + id,
			FullName:  "Student " + id,
			Email:     id + "@example.edu",
			SectionID: &section,
			Active:    true,
		})
	}
	return students
}

func newScheduleFixture(t *testing.T, students []models.Student, constraints map[string][]models.Constraint) *scheduleFixture {
	studentRepo := newStudentRepoStub(students...)
	slotRepo := newSlotRepoStub()
	history := &historyRecorderStub{}
	cache := &cacheInvalidatorStub{}
	sections := &sectionRepoStub{sections: []models.Section{sectionA()}}

	service := NewScheduleService(
		studentRepo,
		sections,
		slotRepo,
		&constraintRepoStub{byStudent: constraints},
		settingsLoaderStub{settings: testSettings()},
		history,
		cache,
		newTxProviderStub(t),
		nil,
		nil,
		validator.New(),
		zap.NewNop(),
	)
	return &scheduleFixture{service: service, students: studentRepo, slots: slotRepo, history: history, cache: cache}
}

// --- tests ---

func TestGenerateAllSchedulesEveryStudentOnce(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 8), nil)

	resp, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, 8, resp.Students)
	assert.Equal(t, 8*5, resp.Scheduled)
	assert.Equal(t, 0, resp.Unscheduled)

	// Totality: one slot row per student per exam, scheduled or not.
	slots := fixture.slots.all()
	assert.Len(t, slots, 8*5)
	for _, slot := range slots {
		assert.True(t, slot.ConsistentTimes(), "slot %s has inconsistent fields", slot.ID)
	}
	assert.Equal(t, []string{overviewCachePattern}, fixture.cache.patterns)
}

func TestGenerateAllNoOverlapsWithinWeek(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 12), nil)

	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)

	byWeek := make(map[int][]models.ExamSlot)
	for _, slot := range fixture.slots.all() {
		if slot.Scheduled {
			byWeek[slot.WeekNumber] = append(byWeek[slot.WeekNumber], slot)
		}
	}
	settings := testSettings()
	for week, slots := range byWeek {
		sort.Slice(slots, func(i, j int) bool { return *slots[i].StartMinute < *slots[j].StartMinute })
		for i := 1; i < len(slots); i++ {
			prevEnd := *slots[i-1].EndMinute
			start := *slots[i].StartMinute
			assert.GreaterOrEqual(t, start, prevEnd+settings.BufferMinutes, "week %d has overlapping or unbuffered slots", week)
		}
	}
}

func TestGenerateAllWindowCapacityOverflow(t *testing.T) {
	// 21 students split 11 odd / 10 even; the window fits ten exams, so one
	// odd-cohort student per exam stays unscheduled.
	fixture := newScheduleFixture(t, rosterStudents("section-a", 21), nil)

	resp, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)
	assert.Equal(t, 20*5, resp.Scheduled)
	assert.Equal(t, 1*5, resp.Unscheduled)

	for _, slot := range fixture.slots.all() {
		if !slot.Scheduled {
			assert.Nil(t, slot.Date)
			assert.Nil(t, slot.StartMinute)
			assert.Nil(t, slot.EndMinute)
		}
	}
}

func TestGenerateAllPacksWindowExactly(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 20), nil)

	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)

	// Ten odd-cohort students share week one; first starts 13:30, last ends
	// 14:49.
	var week1 []models.ExamSlot
	for _, slot := range fixture.slots.all() {
		if slot.ExamNumber == 1 && slot.WeekNumber == 1 && slot.Scheduled {
			week1 = append(week1, slot)
		}
	}
	require.Len(t, week1, 10)
	sort.Slice(week1, func(i, j int) bool { return *week1[i].StartMinute < *week1[j].StartMinute })
	assert.Equal(t, "13:30", models.MinuteToClock(*week1[0].StartMinute))
	assert.Equal(t, "14:49", models.MinuteToClock(*week1[9].EndMinute))
	assert.Equal(t, "2026-01-09", week1[0].Date.Format("2006-01-02"))
}

func TestGenerateAllIsIdempotent(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 8), nil)

	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)
	first := fixture.slots.all()

	_, err = fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)
	second := fixture.slots.all()

	assert.Equal(t, first, second)
	// Unchanged slots produce no history churn.
	assert.Empty(t, fixture.history.entries)
}

func TestGenerateAllFromExamLeavesEarlierExamsUntouched(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 4), nil)

	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)

	// Hand-move one exam-1 slot so a repack would be visible.
	var movedID string
	for id, slot := range fixture.slots.items {
		if slot.ExamNumber == 1 && slot.Scheduled {
			start := 850
			end := start + testSettings().DurationMinutes
			slot.StartMinute = &start
			slot.EndMinute = &end
			movedID = id
			break
		}
	}
	require.NotEmpty(t, movedID)

	before := make(map[string]models.ExamSlot)
	for _, slot := range fixture.slots.all() {
		if slot.ExamNumber == 1 {
			before[slot.ID] = slot
		}
	}

	resp, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{FromExam: 2}, "ta")
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, 4*4, resp.Scheduled)

	for _, slot := range fixture.slots.all() {
		if slot.ExamNumber == 1 {
			assert.Equal(t, before[slot.ID], slot, "exam 1 slot %s was repacked", slot.ID)
		} else {
			assert.True(t, slot.Scheduled)
		}
	}
}

func TestGenerateAllFromExamBeyondTotalRejected(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 2), nil)

	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{FromExam: 6}, "ta")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGenerateSectionPreservesLockedSlots(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 4), nil)

	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)

	// Lock the first odd-cohort slot of exam one.
	var lockedID string
	for _, slot := range fixture.slots.all() {
		if slot.ExamNumber == 1 && slot.WeekNumber == 1 && *slot.StartMinute == 810 {
			require.NoError(t, fixture.slots.SetLocked(context.Background(), nil, slot.ID, true))
			lockedID = slot.ID
			break
		}
	}
	require.NotEmpty(t, lockedID)
	before, err := fixture.slots.FindByID(context.Background(), lockedID)
	require.NoError(t, err)

	result, err := fixture.service.GenerateSection(context.Background(), "section-a", dto.RegenerateSectionRequest{}, "ta")
	require.NoError(t, err)
	assert.Greater(t, result.Skipped, 0)

	after, err := fixture.slots.FindByID(context.Background(), lockedID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Everyone else in that week starts after the locked interval.
	for _, slot := range fixture.slots.all() {
		if slot.ID == lockedID || !slot.Scheduled || slot.WeekNumber != 1 {
			continue
		}
		assert.GreaterOrEqual(t, *slot.StartMinute, *before.EndMinute+1)
	}
}

func TestGenerateSectionTimeAfterConstraintLeavesUnscheduled(t *testing.T) {
	constraints := map[string][]models.Constraint{
		"s-01": {{StudentID: "s-01", Type: models.ConstraintTimeAfter, Value: "14:40", Active: true}},
	}
	fixture := newScheduleFixture(t, rosterStudents("section-a", 4), constraints)

	resp, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Greater(t, resp.Unscheduled, 0)

	// The constrained student is first in the packing order; their rejection
	// must not advance the cursor for the rest of the cohort.
	var constrained, next *models.ExamSlot
	for _, slot := range fixture.slots.all() {
		if slot.ExamNumber != 1 || slot.WeekNumber != 1 {
			continue
		}
		copied := slot
		if slot.StudentID == "s-01" {
			constrained = &copied
		} else if slot.Scheduled && (next == nil || *copied.StartMinute < *next.StartMinute) {
			next = &copied
		}
	}
	require.NotNil(t, constrained)
	assert.False(t, constrained.Scheduled)
	if next != nil {
		assert.Equal(t, 810, *next.StartMinute)
	}
}

func TestGenerateSectionUnknownSection(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 2), nil)

	_, err := fixture.service.GenerateSection(context.Background(), "missing", dto.RegenerateSectionRequest{}, "ta")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRegenerateStudentFillsGap(t *testing.T) {
	students := rosterStudents("section-a", 3)
	odd := models.CohortOdd
	for i := range students {
		students[i].Cohort = &odd
	}
	fixture := newScheduleFixture(t, students, nil)

	date := examDateFor(testSettings(), 1)
	seedSlot := func(studentID string, start, end int) {
		fixture.slots.seed(models.ExamSlot{
			StudentID: studentID, SectionID: "section-a",
			ExamNumber: 1, WeekNumber: 1,
			Date: &date, StartMinute: &start, EndMinute: &end, Scheduled: true,
		})
	}
	// s-01 at 13:30-13:37 and s-03 at 13:46-13:53 leave a hole at 13:38.
	seedSlot("s-01", 810, 817)
	seedSlot("s-03", 826, 833)

	slots, err := fixture.service.RegenerateStudent(context.Background(), dto.RegenerateStudentRequest{
		StudentID: "s-02",
	}, "ta")
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	require.NotNil(t, slots[0].StartTime)
	assert.Equal(t, "13:38", *slots[0].StartTime)
}

func TestClearRefusesWhileLocked(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 2), nil)
	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)

	slots := fixture.slots.all()
	require.NoError(t, fixture.slots.SetLocked(context.Background(), nil, slots[0].ID, true))

	_, err = fixture.service.Clear(context.Background(), "ta")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	// Slots are untouched by the refused clear.
	assert.Len(t, fixture.slots.all(), len(slots))
}

func TestClearDeletesSlotsAndResetsCohorts(t *testing.T) {
	fixture := newScheduleFixture(t, rosterStudents("section-a", 2), nil)
	_, err := fixture.service.GenerateAll(context.Background(), dto.GenerateScheduleRequest{}, "ta")
	require.NoError(t, err)

	resp, err := fixture.service.Clear(context.Background(), "ta")
	require.NoError(t, err)
	assert.Equal(t, int64(2*5), resp.Deleted)
	assert.Empty(t, fixture.slots.all())

	for _, student := range fixture.students.items {
		assert.Nil(t, student.Cohort)
	}
}
