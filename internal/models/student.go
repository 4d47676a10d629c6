package models

import "time"

// Cohort partitions students into alternating exam weeks.
type Cohort string

const (
	CohortOdd  Cohort = "odd"
	CohortEven Cohort = "even"
)

// Valid reports whether the cohort is one of the two supported values.
func (c Cohort) Valid() bool {
	return c == CohortOdd || c == CohortEven
}

// Opposite returns the other cohort.
func (c Cohort) Opposite() Cohort {
	if c == CohortOdd {
		return CohortEven
	}
	return CohortOdd
}

// Student represents a learner on the exam roster.
type Student struct {
	ID              string    `db:"id" json:"id"`
	SISUserID       string    `db:"sis_user_id" json:"sis_user_id"`
	FullName        string    `db:"full_name" json:"full_name"`
	Email           string    `db:"email" json:"email"`
	SectionID       *string   `db:"section_id" json:"section_id,omitempty"`
	Cohort          *Cohort   `db:"cohort" json:"cohort,omitempty"`
	SectionOverride bool      `db:"section_override" json:"section_override"`
	Active          bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// InCohort reports whether the student carries the given cohort.
func (s Student) InCohort(c Cohort) bool {
	return s.Cohort != nil && *s.Cohort == c
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	SectionID string
	Cohort    string
	Active    *bool
	Page      int
	PageSize  int
}
