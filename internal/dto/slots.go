package dto

// SlotResponse is the API projection of one exam slot. Dates render as
// "2006-01-02" and times as "HH:MM"; unscheduled slots carry nulls.
type SlotResponse struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName,omitempty"`
	SectionID   string  `json:"sectionId"`
	ExamNumber  int     `json:"examNumber"`
	WeekNumber  int     `json:"weekNumber"`
	Date        *string `json:"date"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Scheduled   bool    `json:"isScheduled"`
	Locked      bool    `json:"isLocked"`
}

// ManualScheduleRequest places a slot at an explicit date and start time.
type ManualScheduleRequest struct {
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `json:"startTime" validate:"required"`
	PushSubsequent bool   `json:"pushSubsequent"`
}

// SwapSlotsRequest exchanges the scheduled positions of two slots.
type SwapSlotsRequest struct {
	OtherSlotID string `json:"otherSlotId" validate:"required"`
}

// SlotHistoryResponse is one snapshot from a slot's change log.
type SlotHistoryResponse struct {
	ID         string  `json:"id"`
	ExamSlotID string  `json:"examSlotId"`
	ExamNumber int     `json:"examNumber"`
	WeekNumber int     `json:"weekNumber"`
	Date       *string `json:"date"`
	StartTime  *string `json:"startTime"`
	EndTime    *string `json:"endTime"`
	Scheduled  bool    `json:"wasScheduled"`
	ChangedAt  string  `json:"changedAt"`
	ChangedBy  string  `json:"changedBy"`
	Reason     string  `json:"reason"`
}

// SlotHistoryDetail pairs a slot's live state with its change log so one
// call answers both.
type SlotHistoryDetail struct {
	Current   SlotResponse          `json:"current"`
	Histories []SlotHistoryResponse `json:"histories"`
}

// RevertSlotRequest restores a slot to a prior history snapshot.
type RevertSlotRequest struct {
	HistoryID string `json:"historyId" validate:"required"`
}

// BulkUnlockRequest narrows a bulk unlock to one exam number and/or cohort.
// An empty request releases every locked slot.
type BulkUnlockRequest struct {
	ExamNumber int    `json:"examNumber" validate:"omitempty,min=1"`
	Cohort     string `json:"cohort" validate:"omitempty,oneof=odd even"`
}

// BulkUnlockResponse reports how many locks a bulk unlock cleared.
type BulkUnlockResponse struct {
	Unlocked int64 `json:"unlocked"`
}

// AutoLockRequest locks all scheduled slots on a given date, defaulting to
// today when the date is empty.
type AutoLockRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AutoLockResponse lists the slots an auto-lock run affected.
type AutoLockResponse struct {
	Locked int            `json:"locked"`
	Slots  []SlotResponse `json:"slots"`
}
