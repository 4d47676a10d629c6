package models

import "time"

// ConstraintType tags a per-student scheduling restriction.
type ConstraintType string

const (
	ConstraintTimeBefore     ConstraintType = "time_before"
	ConstraintTimeAfter      ConstraintType = "time_after"
	ConstraintWeekPreference ConstraintType = "week_preference"
	ConstraintSpecificDate   ConstraintType = "specific_date"
	ConstraintExcludeDate    ConstraintType = "exclude_date"
)

// Constraint restricts when a student's exam slot may be placed.
type Constraint struct {
	ID          string         `db:"id" json:"id"`
	StudentID   string         `db:"student_id" json:"student_id"`
	Type        ConstraintType `db:"constraint_type" json:"constraint_type"`
	Value       string         `db:"constraint_value" json:"constraint_value"`
	Description *string        `db:"description" json:"description,omitempty"`
	Active      bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// DisplayDescription renders a human readable summary of the restriction.
func (c Constraint) DisplayDescription() string {
	if c.Description != nil && *c.Description != "" {
		return *c.Description
	}
	switch c.Type {
	case ConstraintTimeBefore:
		return "Must complete exam before " + c.Value
	case ConstraintTimeAfter:
		return "Cannot take exam before " + c.Value
	case ConstraintWeekPreference:
		return "Prefers " + c.Value + " weeks only"
	case ConstraintSpecificDate:
		return "Must take exam on " + c.Value
	case ConstraintExcludeDate:
		return "Cannot take exam on " + c.Value
	default:
		return c.Value
	}
}
