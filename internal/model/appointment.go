package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	AppointmentTypeInPerson AppointmentType = "in_person"
	AppointmentTypeRemote   AppointmentType = "remote"
)

// Appointment occupies the half-open interval
// [start_time, start_time+duration) on its calendar date.
type Appointment struct {
	Base
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date            string            `db:"date" json:"date"`
	StartTime       string            `db:"start_time" json:"time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	AppointmentType AppointmentType   `db:"appointment_type" json:"appointment_type"`
	Note            string            `db:"note" json:"note,omitempty"`
	Status          AppointmentStatus `db:"status" json:"status"`

	// Patient summary columns joined onto list/get queries.
	PatientName  *string `db:"patient_name" json:"patient_name,omitempty"`
	PatientPhone *string `db:"patient_phone" json:"patient_phone,omitempty"`
}

// StartMinute returns the appointment start as minutes since midnight.
func (a *Appointment) StartMinute() (int, error) {
	return MinuteOfDay(a.StartTime)
}

// MinuteOfDay parses a strict 24-hour HH:MM value into minutes since
// midnight.
func MinuteOfDay(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

type CreateAppointmentRequest struct {
	PatientID       uuid.UUID `json:"patient_id" binding:"required"`
	Date            string    `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string    `json:"time" binding:"required,datetime=15:04"`
	AppointmentType string    `json:"appointment_type" binding:"required,oneof=in_person remote"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
	Note            string    `json:"note" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	Date            *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time            *string `json:"time" binding:"omitempty,datetime=15:04"`
	AppointmentType *string `json:"appointment_type" binding:"omitempty,oneof=in_person remote"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Note            *string `json:"note" binding:"omitempty,max=1000"`
}

type AppointmentFilters struct {
	Pagination
	PatientID *uuid.UUID
	Date      string
}

// UpcomingAppointments pairs the result rows with the instant the
// "upcoming" predicate was evaluated against.
type UpcomingAppointments struct {
	CurrentDatetime time.Time      `json:"current_datetime"`
	Appointments    []*Appointment `json:"appointments"`
}
