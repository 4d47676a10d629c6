package service

import (
	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
)

func toSlotResponse(slot models.ExamSlot, studentName string) dto.SlotResponse {
	resp := dto.SlotResponse{
		ID:          slot.ID,
		StudentID:   slot.StudentID,
		StudentName: studentName,
		SectionID:   slot.SectionID,
		ExamNumber:  slot.ExamNumber,
		WeekNumber:  slot.WeekNumber,
		Scheduled:   slot.Scheduled,
		Locked:      slot.Locked,
	}
	if slot.Date != nil {
		date := slot.Date.Format("2006-01-02")
		resp.Date = &date
	}
	if slot.StartMinute != nil {
		start := models.MinuteToClock(*slot.StartMinute)
		resp.StartTime = &start
	}
	if slot.EndMinute != nil {
		end := models.MinuteToClock(*slot.EndMinute)
		resp.EndTime = &end
	}
	return resp
}

func toSlotResponses(slots []models.ExamSlot) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		responses = append(responses, toSlotResponse(slot, ""))
	}
	return responses
}
