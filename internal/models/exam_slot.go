package models

import (
	"fmt"
	"time"
)

// ExamSlot is one student's appointment (or explicit non-appointment) for one
// exam number. Times are wall-clock minutes since midnight; an unscheduled
// slot has no date or times.
type ExamSlot struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	SectionID   string     `db:"section_id" json:"section_id"`
	ExamNumber  int        `db:"exam_number" json:"exam_number"`
	WeekNumber  int        `db:"week_number" json:"week_number"`
	Date        *time.Time `db:"date" json:"date,omitempty"`
	StartMinute *int       `db:"start_minute" json:"start_minute,omitempty"`
	EndMinute   *int       `db:"end_minute" json:"end_minute,omitempty"`
	Scheduled   bool       `db:"is_scheduled" json:"is_scheduled"`
	Locked      bool       `db:"is_locked" json:"is_locked"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DurationMinutes returns the slot length, or 0 when unscheduled.
func (s ExamSlot) DurationMinutes() int {
	if s.StartMinute == nil || s.EndMinute == nil {
		return 0
	}
	return *s.EndMinute - *s.StartMinute
}

// FormattedTimeRange renders "13:30 - 13:37" or "Not scheduled".
func (s ExamSlot) FormattedTimeRange() string {
	if !s.Scheduled || s.StartMinute == nil || s.EndMinute == nil {
		return "Not scheduled"
	}
	return fmt.Sprintf("%s - %s", MinuteToClock(*s.StartMinute), MinuteToClock(*s.EndMinute))
}

// ConsistentTimes reports whether the scheduled flag agrees with the
// date/time fields. A false result indicates data corruption.
func (s ExamSlot) ConsistentTimes() bool {
	if s.Scheduled {
		return s.Date != nil && s.StartMinute != nil && s.EndMinute != nil && *s.StartMinute < *s.EndMinute
	}
	return s.Date == nil && s.StartMinute == nil && s.EndMinute == nil
}

// ExamSlotHistory is an immutable snapshot of a slot's scheduling fields
// taken before a mutation.
type ExamSlotHistory struct {
	ID          string     `db:"id" json:"id"`
	ExamSlotID  string     `db:"exam_slot_id" json:"exam_slot_id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	SectionID   string     `db:"section_id" json:"section_id"`
	ExamNumber  int        `db:"exam_number" json:"exam_number"`
	WeekNumber  int        `db:"week_number" json:"week_number"`
	Date        *time.Time `db:"date" json:"date,omitempty"`
	StartMinute *int       `db:"start_minute" json:"start_minute,omitempty"`
	EndMinute   *int       `db:"end_minute" json:"end_minute,omitempty"`
	Scheduled   bool       `db:"is_scheduled" json:"is_scheduled"`
	ChangedAt   time.Time  `db:"changed_at" json:"changed_at"`
	ChangedBy   string     `db:"changed_by" json:"changed_by"`
	Reason      string     `db:"reason" json:"reason"`
}

// MinuteToClock formats minutes since midnight as "HH:MM".
func MinuteToClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return h*60 + m, nil
}
