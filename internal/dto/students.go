package dto

// StudentResponse is the API projection of a student.
type StudentResponse struct {
	ID              string         `json:"id"`
	SISUserID       string         `json:"sisUserId"`
	FullName        string         `json:"fullName"`
	Email           string         `json:"email"`
	SectionID       *string        `json:"sectionId"`
	Cohort          *string        `json:"cohort"`
	SectionOverride bool           `json:"sectionOverride"`
	Active          bool           `json:"isActive"`
	Slots           []SlotResponse `json:"slots,omitempty"`
}

// CreateStudentRequest registers a student on the roster.
type CreateStudentRequest struct {
	SISUserID string  `json:"sisUserId" validate:"required"`
	FullName  string  `json:"fullName" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	SectionID *string `json:"sectionId" validate:"omitempty"`
}

// UpdateStudentRequest modifies roster fields. Nil pointers leave the field
// untouched.
type UpdateStudentRequest struct {
	FullName        *string `json:"fullName" validate:"omitempty,min=1"`
	Email           *string `json:"email" validate:"omitempty,email"`
	SectionID       *string `json:"sectionId" validate:"omitempty"`
	SectionOverride *bool   `json:"sectionOverride"`
}

// StudentQuery filters student listings.
type StudentQuery struct {
	Search    string `form:"search" json:"search"`
	SectionID string `form:"sectionId" json:"sectionId" validate:"omitempty"`
	Cohort    string `form:"cohort" json:"cohort" validate:"omitempty,oneof=odd even"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
}

// ConstraintResponse is the API projection of a scheduling constraint.
type ConstraintResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Active      bool   `json:"isActive"`
}
