package models

import "time"

// Section is a group of students sharing a TA.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	TAID      *string   `db:"ta_id" json:"ta_id,omitempty"`
	TAName    *string   `db:"ta_name" json:"ta_name,omitempty"`
	Active    bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName renders the section for exports and notifications.
func (s Section) DisplayName() string {
	return s.Code + " - " + s.Name
}
