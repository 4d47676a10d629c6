package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// weekNumberFor maps an exam number and cohort onto the quarter week the
// exam runs in. Odd-cohort exams land on weeks 1,3,5,... and even-cohort
// exams on weeks 2,4,6,...
func weekNumberFor(examNumber int, cohort models.Cohort) int {
	base := (examNumber - 1) * 2
	if cohort == models.CohortEven {
		return base + 2
	}
	return base + 1
}

// examDateFor resolves the calendar date of a given week: the quarter start
// advanced to the first configured exam weekday, plus whole weeks.
func examDateFor(settings models.ScheduleSettings, weekNumber int) time.Time {
	date := settings.QuarterStart
	for date.Weekday() != settings.ExamDay {
		date = date.AddDate(0, 0, 1)
	}
	return date.AddDate(0, 0, (weekNumber-1)*7)
}

// weekTimeline packs slots into one section's exam window for a single
// exam/week. The cursor only advances when a slot is actually claimed, so a
// student who cannot be placed never burns window capacity.
type weekTimeline struct {
	settings models.ScheduleSettings
	cursor   int
}

// newWeekTimeline seeds the cursor past every already-occupied interval.
// Existing slots (typically locked ones surviving a regeneration) are
// subtracted from the window rather than moved.
func newWeekTimeline(settings models.ScheduleSettings, existing []models.ExamSlot) *weekTimeline {
	cursor := settings.StartMinute
	for _, slot := range existing {
		if slot.EndMinute == nil {
			continue
		}
		if next := *slot.EndMinute + settings.BufferMinutes; next > cursor {
			cursor = next
		}
	}
	return &weekTimeline{settings: settings, cursor: cursor}
}

// peek returns the candidate interval without claiming it.
func (t *weekTimeline) peek() (start, end int, ok bool) {
	start = t.cursor
	end = start + t.settings.DurationMinutes
	if end > t.settings.EndMinute {
		return 0, 0, false
	}
	return start, end, true
}

// claim consumes the candidate interval and advances the cursor by one
// buffer past it.
func (t *weekTimeline) claim() (start, end int) {
	start = t.cursor
	end = start + t.settings.DurationMinutes
	t.cursor = end + t.settings.BufferMinutes
	return start, end
}

// interval is an occupied stretch of the exam window in minutes.
type interval struct {
	start int
	end   int
}

func occupiedIntervals(slots []models.ExamSlot) []interval {
	intervals := make([]interval, 0, len(slots))
	for _, slot := range slots {
		if slot.StartMinute == nil || slot.EndMinute == nil {
			continue
		}
		intervals = append(intervals, interval{start: *slot.StartMinute, end: *slot.EndMinute})
	}
	return intervals
}

// findGap locates the earliest start that fits one exam between the occupied
// intervals, honouring the buffer on both sides. Used when a single student
// is rescheduled into an already-packed week.
func findGap(settings models.ScheduleSettings, occupied []interval) (int, bool) {
	sort.Slice(occupied, func(i, j int) bool { return occupied[i].start < occupied[j].start })
	cursor := settings.StartMinute
	for _, iv := range occupied {
		if cursor+settings.DurationMinutes+settings.BufferMinutes <= iv.start {
			return cursor, true
		}
		if next := iv.end + settings.BufferMinutes; next > cursor {
			cursor = next
		}
	}
	if cursor+settings.DurationMinutes <= settings.EndMinute {
		return cursor, true
	}
	return 0, false
}

// constraintViolation explains why a candidate interval was rejected.
type constraintViolation struct {
	Type   models.ConstraintType
	Reason string
}

// checkConstraints evaluates a candidate placement against a student's
// active constraints. Week preferences are satisfied upstream through
// cohort assignment and are not re-checked here.
func checkConstraints(constraints []models.Constraint, date time.Time, startMinute, endMinute int) *constraintViolation {
	day := date.Format("2006-01-02")
	for _, c := range constraints {
		switch c.Type {
		case models.ConstraintTimeBefore:
			limit, err := models.ParseClock(c.Value)
			if err != nil {
				continue
			}
			if endMinute > limit {
				return &constraintViolation{Type: c.Type, Reason: fmt.Sprintf("must finish by %s", c.Value)}
			}
		case models.ConstraintTimeAfter:
			limit, err := models.ParseClock(c.Value)
			if err != nil {
				continue
			}
			if startMinute < limit {
				return &constraintViolation{Type: c.Type, Reason: fmt.Sprintf("cannot start before %s", c.Value)}
			}
		case models.ConstraintSpecificDate:
			if day != c.Value {
				return &constraintViolation{Type: c.Type, Reason: fmt.Sprintf("must take exam on %s", c.Value)}
			}
		case models.ConstraintExcludeDate:
			if day == c.Value {
				return &constraintViolation{Type: c.Type, Reason: fmt.Sprintf("cannot take exam on %s", c.Value)}
			}
		}
	}
	return nil
}

// preferredCohort returns the cohort a week preference constraint pins the
// student to, if any.
func preferredCohort(constraints []models.Constraint) (models.Cohort, bool) {
	for _, c := range constraints {
		if c.Type == models.ConstraintWeekPreference {
			cohort := models.Cohort(c.Value)
			if cohort.Valid() {
				return cohort, true
			}
		}
	}
	return "", false
}

// assignCohorts produces the cohort for every student in a section. Existing
// assignments are kept so repeated runs are stable; week preferences
// override; the remainder is dealt round-robin in student ID order, starting
// with whichever cohort is currently smaller so section halves stay
// balanced.
func assignCohorts(students []models.Student, constraints map[string][]models.Constraint) map[string]models.Cohort {
	assigned := make(map[string]models.Cohort, len(students))
	counts := map[models.Cohort]int{}
	var unassigned []models.Student

	for _, student := range students {
		if cohort, ok := preferredCohort(constraints[student.ID]); ok {
			assigned[student.ID] = cohort
			counts[cohort]++
			continue
		}
		if student.Cohort != nil && student.Cohort.Valid() {
			assigned[student.ID] = *student.Cohort
			counts[*student.Cohort]++
			continue
		}
		unassigned = append(unassigned, student)
	}

	sort.Slice(unassigned, func(i, j int) bool { return unassigned[i].ID < unassigned[j].ID })

	next := models.CohortOdd
	if counts[models.CohortEven] < counts[models.CohortOdd] {
		next = models.CohortEven
	}
	for _, student := range unassigned {
		assigned[student.ID] = next
		counts[next]++
		next = next.Opposite()
	}
	return assigned
}

// orderForScheduling sorts students so the most constrained are packed
// first: time-before students need the earliest part of the window,
// time-after students the latest, then date-bound students, then everyone
// else. Ties break on student ID so runs are reproducible.
func orderForScheduling(students []models.Student, constraints map[string][]models.Constraint) []models.Student {
	bucketFor := func(id string) int {
		hasType := func(ct models.ConstraintType) bool {
			for _, c := range constraints[id] {
				if c.Type == ct {
					return true
				}
			}
			return false
		}
		switch {
		case hasType(models.ConstraintTimeBefore):
			return 0
		case hasType(models.ConstraintTimeAfter):
			return 1
		case hasType(models.ConstraintSpecificDate) || hasType(models.ConstraintExcludeDate):
			return 2
		default:
			return 3
		}
	}

	ordered := make([]models.Student, len(students))
	copy(ordered, students)
	sort.SliceStable(ordered, func(i, j int) bool {
		bi, bj := bucketFor(ordered[i].ID), bucketFor(ordered[j].ID)
		if bi != bj {
			return bi < bj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
