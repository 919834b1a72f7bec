package model

import "github.com/google/uuid"

type Patient struct {
	Base
	FullName          string  `db:"full_name" json:"full_name"`
	Age               int     `db:"age" json:"age"`
	Gender            string  `db:"gender" json:"gender"`
	MaritalStatus     *string `db:"marital_status" json:"marital_status,omitempty"`
	Profession        *string `db:"profession" json:"profession,omitempty"`
	Phone             string  `db:"phone" json:"phone"`
	Email             string  `db:"email" json:"email"`
	Address           string  `db:"address" json:"address"`
	EmergencyContact  string  `db:"emergency_contact" json:"emergency_contact"`
	MedicalHistory    *string `db:"medical_history" json:"medical_history,omitempty"`
	CurrentMedication *string `db:"current_medication" json:"current_medication,omitempty"`
	Allergies         *string `db:"allergies" json:"allergies,omitempty"`
}

// PatientSummary is the projection joined onto appointments and
// session listings.
type PatientSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	FullName string    `db:"full_name" json:"full_name"`
	Age      int       `db:"age" json:"age"`
	Gender   string    `db:"gender" json:"gender"`
	Phone    string    `db:"phone" json:"phone"`
	Email    string    `db:"email" json:"email"`
}

// RegisterPatientRequest creates a patient together with their first
// appointment as one unit.
type RegisterPatientRequest struct {
	FullName          string  `json:"full_name" binding:"required,max=255"`
	Age               int     `json:"age" binding:"required,min=0,max=120"`
	Gender            string  `json:"gender" binding:"required,oneof=male female other"`
	MaritalStatus     *string `json:"marital_status" binding:"omitempty,max=50"`
	Profession        *string `json:"profession" binding:"omitempty,max=100"`
	Phone             string  `json:"phone" binding:"required,max=20"`
	Email             string  `json:"email" binding:"required,email,max=255"`
	Address           string  `json:"address" binding:"required"`
	EmergencyContact  string  `json:"emergency_contact" binding:"required,max=255"`
	MedicalHistory    *string `json:"medical_history"`
	CurrentMedication *string `json:"current_medication"`
	Allergies         *string `json:"allergies"`

	AppointmentDate  string `json:"appointment_date" binding:"required,datetime=2006-01-02"`
	AppointmentTime  string `json:"appointment_time" binding:"required,datetime=15:04"`
	AppointmentType  string `json:"appointment_type" binding:"required,oneof=in_person remote"`
	DurationMinutes  int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	AppointmentNote  string `json:"appointment_note" binding:"max=1000"`
}

type PatientFilters struct {
	Pagination
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

type PatientSearchRequest struct {
	Query string `form:"query" binding:"required,min=2,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}
