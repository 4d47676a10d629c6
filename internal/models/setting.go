package models

import "time"

// SettingType defines supported types for setting values.
type SettingType string

const (
	SettingTypeString  SettingType = "STRING"
	SettingTypeInteger SettingType = "INTEGER"
	SettingTypeBoolean SettingType = "BOOLEAN"
	SettingTypeTime    SettingType = "TIME"
	SettingTypeDate    SettingType = "DATE"
)

// Setting represents a persisted scheduling configuration entry.
type Setting struct {
	Key         string      `db:"key" json:"key"`
	Value       string      `db:"value" json:"value"`
	Type        SettingType `db:"type" json:"type"`
	Description *string     `db:"description" json:"description,omitempty"`
	UpdatedBy   *string     `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Setting keys consumed by the scheduler.
const (
	SettingExamDay         = "exam_day"
	SettingExamStartTime   = "exam_start_time"
	SettingExamEndTime     = "exam_end_time"
	SettingExamDuration    = "exam_duration_minutes"
	SettingExamBuffer      = "exam_buffer_minutes"
	SettingQuarterStart    = "quarter_start_date"
	SettingTotalExams      = "total_exams"
	SettingNotificationsOn = "notifications_enabled"
)

// ScheduleSettings is the typed configuration value object handed to every
// generator call. No ambient global state: callers load it per operation.
type ScheduleSettings struct {
	ExamDay         time.Weekday
	StartMinute     int
	EndMinute       int
	DurationMinutes int
	BufferMinutes   int
	QuarterStart    time.Time
	TotalExams      int
}

// WindowMinutes returns the length of the exam window.
func (s ScheduleSettings) WindowMinutes() int {
	return s.EndMinute - s.StartMinute
}
