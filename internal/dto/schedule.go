package dto

// SectionGenerationResult summarises one section's scheduling run.
type SectionGenerationResult struct {
	SectionID   string   `json:"sectionId"`
	SectionCode string   `json:"sectionCode"`
	Students    int      `json:"students"`
	Scheduled   int      `json:"scheduled"`
	Unscheduled int      `json:"unscheduled"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors,omitempty"`
}

// GenerateScheduleResponse reports the outcome of a bulk generation run.
// Sections that failed carry their error; the rest are still committed.
type GenerateScheduleResponse struct {
	Sections    []SectionGenerationResult `json:"sections"`
	Students    int                       `json:"students"`
	Scheduled   int                       `json:"scheduled"`
	Unscheduled int                       `json:"unscheduled"`
}

// GenerateScheduleRequest scopes a full generation run. A zero fromExam
// rebuilds everything.
type GenerateScheduleRequest struct {
	FromExam int `json:"fromExam" validate:"omitempty,min=1"`
}

// RegenerateSectionRequest scopes a partial regeneration of one section.
type RegenerateSectionRequest struct {
	FromExam int `json:"fromExam" validate:"omitempty,min=1"`
}

// RegenerateStudentRequest rebuilds one student's unlocked slots.
type RegenerateStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	FromExam  int    `json:"fromExam" validate:"omitempty,min=1"`
}

// ClearScheduleResponse reports how many slots a full clear removed.
type ClearScheduleResponse struct {
	Deleted int64 `json:"deleted"`
}

// TransferCohortRequest moves a student to a target cohort and reschedules
// their unlocked slots from the given exam onward.
type TransferCohortRequest struct {
	StudentID    string `json:"studentId" validate:"required"`
	TargetCohort string `json:"targetCohort" validate:"required,oneof=odd even"`
	FromExam     int    `json:"fromExam" validate:"omitempty,min=1"`
}

// SwapCohortRequest forces a student onto the opposite cohort, unlocking
// affected slots as needed.
type SwapCohortRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	FromExam  int    `json:"fromExam" validate:"omitempty,min=1"`
}

// TransferResponse reports the student's new cohort and rebuilt slots, with
// how many placements were discarded and how many landed again.
type TransferResponse struct {
	StudentID      string         `json:"studentId"`
	Cohort         string         `json:"cohort"`
	SlotsCleared   int            `json:"slotsCleared"`
	SlotsScheduled int            `json:"slotsScheduled"`
	UnlockedCount  int            `json:"unlockedCount,omitempty"`
	Slots          []SlotResponse `json:"slots"`
}
