package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

func testSettings() models.ScheduleSettings {
	return models.ScheduleSettings{
		ExamDay:         time.Friday,
		StartMinute:     810, // 13:30
		EndMinute:       890, // 14:50
		DurationMinutes: 7,
		BufferMinutes:   1,
		QuarterStart:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), // Monday
		TotalExams:      5,
	}
}

func TestWeekNumberFor(t *testing.T) {
	assert.Equal(t, 1, weekNumberFor(1, models.CohortOdd))
	assert.Equal(t, 2, weekNumberFor(1, models.CohortEven))
	assert.Equal(t, 3, weekNumberFor(2, models.CohortOdd))
	assert.Equal(t, 4, weekNumberFor(2, models.CohortEven))
	assert.Equal(t, 9, weekNumberFor(5, models.CohortOdd))
	assert.Equal(t, 10, weekNumberFor(5, models.CohortEven))
}

func TestExamDateForAdvancesToExamDay(t *testing.T) {
	settings := testSettings()

	week1 := examDateFor(settings, 1)
	assert.Equal(t, time.Friday, week1.Weekday())
	assert.Equal(t, "2026-01-09", week1.Format("2006-01-02"))

	week3 := examDateFor(settings, 3)
	assert.Equal(t, "2026-01-23", week3.Format("2006-01-02"))
}

func TestExamDateForWhenQuarterStartsOnExamDay(t *testing.T) {
	settings := testSettings()
	settings.QuarterStart = time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-01-09", examDateFor(settings, 1).Format("2006-01-02"))
}

func TestWeekTimelineCapacity(t *testing.T) {
	settings := testSettings()
	timeline := newWeekTimeline(settings, nil)

	var placed int
	for {
		start, end, ok := timeline.peek()
		if !ok {
			break
		}
		gotStart, gotEnd := timeline.claim()
		assert.Equal(t, start, gotStart)
		assert.Equal(t, end, gotEnd)
		placed++
	}

	// 80 minute window, 7 minute exams, 1 minute buffer: exactly ten fit.
	assert.Equal(t, 10, placed)
}

func TestWeekTimelineFirstAndSecondSlots(t *testing.T) {
	timeline := newWeekTimeline(testSettings(), nil)

	start, end := timeline.claim()
	assert.Equal(t, "13:30", models.MinuteToClock(start))
	assert.Equal(t, "13:37", models.MinuteToClock(end))

	start, end = timeline.claim()
	assert.Equal(t, "13:38", models.MinuteToClock(start))
	assert.Equal(t, "13:45", models.MinuteToClock(end))
}

func TestWeekTimelineSeedsPastExistingSlots(t *testing.T) {
	start, end := 810, 817
	existing := []models.ExamSlot{{StartMinute: &start, EndMinute: &end, Scheduled: true}}

	timeline := newWeekTimeline(testSettings(), existing)
	got, _, ok := timeline.peek()
	require.True(t, ok)
	assert.Equal(t, 818, got)
}

func TestFindGapUsesEarliestHole(t *testing.T) {
	settings := testSettings()
	occupied := []interval{{start: 810, end: 817}, {start: 826, end: 833}}

	start, ok := findGap(settings, occupied)
	require.True(t, ok)
	assert.Equal(t, 818, start)
}

func TestFindGapAppendsWhenNoHole(t *testing.T) {
	settings := testSettings()
	occupied := []interval{{start: 810, end: 817}, {start: 818, end: 825}}

	start, ok := findGap(settings, occupied)
	require.True(t, ok)
	assert.Equal(t, 826, start)
}

func TestFindGapFullWindow(t *testing.T) {
	settings := testSettings()
	var occupied []interval
	for i := 0; i < 10; i++ {
		occupied = append(occupied, interval{start: 810 + i*8, end: 817 + i*8})
	}

	_, ok := findGap(settings, occupied)
	assert.False(t, ok)
}

func TestCheckConstraints(t *testing.T) {
	date := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	timeBefore := []models.Constraint{{Type: models.ConstraintTimeBefore, Value: "14:00"}}
	assert.Nil(t, checkConstraints(timeBefore, date, 810, 817))
	assert.NotNil(t, checkConstraints(timeBefore, date, 836, 843))

	timeAfter := []models.Constraint{{Type: models.ConstraintTimeAfter, Value: "14:00"}}
	assert.NotNil(t, checkConstraints(timeAfter, date, 810, 817))
	assert.Nil(t, checkConstraints(timeAfter, date, 840, 847))

	specific := []models.Constraint{{Type: models.ConstraintSpecificDate, Value: "2026-01-09"}}
	assert.Nil(t, checkConstraints(specific, date, 810, 817))
	assert.NotNil(t, checkConstraints(specific, date.AddDate(0, 0, 7), 810, 817))

	exclude := []models.Constraint{{Type: models.ConstraintExcludeDate, Value: "2026-01-09"}}
	assert.NotNil(t, checkConstraints(exclude, date, 810, 817))
	assert.Nil(t, checkConstraints(exclude, date.AddDate(0, 0, 7), 810, 817))
}

func TestAssignCohortsBalancesAndPreservesExisting(t *testing.T) {
	odd := models.CohortOdd
	students := []models.Student{
		{ID: "s-1", Cohort: &odd},
		{ID: "s-2"},
		{ID: "s-3"},
		{ID: "s-4"},
	}

	assigned := assignCohorts(students, nil)
	assert.Equal(t, models.CohortOdd, assigned["s-1"])
	// Even is the minority after preserving s-1, so the round robin starts
	// there and alternates in ID order.
	assert.Equal(t, models.CohortEven, assigned["s-2"])
	assert.Equal(t, models.CohortOdd, assigned["s-3"])
	assert.Equal(t, models.CohortEven, assigned["s-4"])
}

func TestAssignCohortsIdempotent(t *testing.T) {
	students := []models.Student{{ID: "s-1"}, {ID: "s-2"}, {ID: "s-3"}}

	first := assignCohorts(students, nil)
	for i := range students {
		cohort := first[students[i].ID]
		students[i].Cohort = &cohort
	}
	second := assignCohorts(students, nil)
	assert.Equal(t, first, second)
}

func TestAssignCohortsHonoursWeekPreference(t *testing.T) {
	odd := models.CohortOdd
	students := []models.Student{{ID: "s-1", Cohort: &odd}}
	constraints := map[string][]models.Constraint{
		"s-1": {{Type: models.ConstraintWeekPreference, Value: "even"}},
	}

	assigned := assignCohorts(students, constraints)
	assert.Equal(t, models.CohortEven, assigned["s-1"])
}

func TestOrderForSchedulingPriorityBuckets(t *testing.T) {
	students := []models.Student{{ID: "s-1"}, {ID: "s-2"}, {ID: "s-3"}, {ID: "s-4"}}
	constraints := map[string][]models.Constraint{
		"s-2": {{Type: models.ConstraintTimeAfter, Value: "14:00"}},
		"s-3": {{Type: models.ConstraintTimeBefore, Value: "14:00"}},
		"s-4": {{Type: models.ConstraintExcludeDate, Value: "2026-01-09"}},
	}

	ordered := orderForScheduling(students, constraints)
	ids := []string{ordered[0].ID, ordered[1].ID, ordered[2].ID, ordered[3].ID}
	assert.Equal(t, []string{"s-3", "s-2", "s-4", "s-1"}, ids)
}
