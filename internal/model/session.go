package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

type SessionType string

const (
	SessionTypeInPerson SessionType = "in_person"
	SessionTypeRemote   SessionType = "remote"
)

// PatientSession is a clinical encounter, distinct from an HTTP
// session. Notes, medicines and images hang off it once completed.
type PatientSession struct {
	Base
	PatientID        uuid.UUID     `db:"patient_id" json:"patient_id"`
	SessionType      SessionType   `db:"session_type" json:"session_type"`
	ExpectedDuration int           `db:"expected_duration" json:"expected_duration"`
	Purpose          string        `db:"purpose" json:"purpose"`
	Status           SessionStatus `db:"status" json:"status"`
	StartedAt        *time.Time    `db:"started_at" json:"started_at,omitempty"`
	EndedAt          *time.Time    `db:"ended_at" json:"ended_at,omitempty"`
}

type SessionNote struct {
	Base
	SessionID           uuid.UUID `db:"session_id" json:"session_id"`
	GeneralNotes        *string   `db:"general_notes" json:"general_notes,omitempty"`
	PhysicalHealthNotes *string   `db:"physical_health_notes" json:"physical_health_notes,omitempty"`
	MentalHealthNotes   *string   `db:"mental_health_notes" json:"mental_health_notes,omitempty"`
	ClinicalNotes       *string   `db:"clinical_notes" json:"clinical_notes,omitempty"`
	MoodRating          *int      `db:"mood_rating" json:"mood_rating,omitempty"`
	VoiceNotesPath      *string   `db:"voice_notes_path" json:"voice_notes_path,omitempty"`
	MedicinePrice       float64   `db:"medicine_price" json:"medicine_price"`
}

type SessionMedicine struct {
	Base
	SessionID     uuid.UUID        `db:"session_id" json:"session_id"`
	MedicineNotes string           `db:"medicine_notes" json:"medicine_notes"`
	Images        []*MedicineImage `db:"-" json:"images,omitempty"`
}

type MedicineImage struct {
	Base
	SessionMedicineID uuid.UUID `db:"session_medicine_id" json:"session_medicine_id"`
	ImagePath         string    `db:"image_path" json:"image_path"`
}

type CreateSessionRequest struct {
	PatientID        uuid.UUID `json:"patient_id" binding:"required"`
	SessionType      string    `json:"session_type" binding:"required,oneof=in_person remote"`
	ExpectedDuration int       `json:"expected_duration" binding:"required,min=1"`
	Purpose          string    `json:"purpose" binding:"required,max=1000"`
}

type UpdateSessionRequest struct {
	SessionType      *string `json:"session_type" binding:"omitempty,oneof=in_person remote"`
	ExpectedDuration *int    `json:"expected_duration" binding:"omitempty,min=1"`
	Purpose          *string `json:"purpose" binding:"omitempty,max=1000"`
	Status           *string `json:"status" binding:"omitempty,oneof=scheduled in_progress completed cancelled"`
}

// CompleteSessionRequest carries the session wrap-up payload. The
// voice recording and image uploads are resolved at the HTTP boundary
// into plain byte payloads before they reach the service.
type CompleteSessionRequest struct {
	GeneralNotes        *string `json:"general_notes" form:"general_notes"`
	PhysicalHealthNotes *string `json:"physical_health_notes" form:"physical_health_notes"`
	MentalHealthNotes   *string `json:"mental_health_notes" form:"mental_health_notes"`
	ClinicalNotes       *string `json:"clinical_notes" form:"clinical_notes"`
	MoodRating          *int    `json:"mood_rating" form:"mood_rating" binding:"omitempty,min=1,max=10"`
	MedicineNotes       string  `json:"medicine_notes" form:"medicine_notes"`

	// Raw price input; non-numeric values are coerced to 0.
	MedicinePrice string `json:"medicine_price" form:"medicine_price"`

	Voice  *VoicePayload  `json:"-" form:"-"`
	Images []*ImageUpload `json:"-" form:"-"`
}

// SessionProjection is the safe subset returned from lifecycle
// operations.
type SessionProjection struct {
	ID        uuid.UUID     `json:"id"`
	PatientID uuid.UUID     `json:"patient_id"`
	Status    SessionStatus `json:"status"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

// CompleteSessionResult is the composite response of a completion.
type CompleteSessionResult struct {
	Session  SessionProjection `json:"session"`
	Notes    *SessionNote      `json:"notes"`
	Medicine *SessionMedicine  `json:"medicine"`
	Payment  *Payment          `json:"payment"`
}

// SessionDetail is the full read-side projection of a session.
type SessionDetail struct {
	Session   *PatientSession    `json:"session"`
	Patient   *PatientSummary    `json:"patient"`
	Notes     []*SessionNote     `json:"notes"`
	Medicines []*SessionMedicine `json:"medicines"`
}

type SessionFilters struct {
	Pagination
	PatientID *uuid.UUID
	Status    string
	StartDate string
	EndDate   string
}

// CompletedSessionFilters drive the completed-sessions report listing.
type CompletedSessionFilters struct {
	Pagination
	Search      string
	SessionType string
	DateBucket  string // today | this_week | this_month | custom
	StartDate   string
	EndDate     string
}

type CompletedSessionEntry struct {
	ID          uuid.UUID   `json:"id"`
	PatientID   uuid.UUID   `json:"patient_id"`
	PatientName string      `json:"patient_name"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Duration    int         `json:"duration"`
	Type        SessionType `json:"type"`
	Status      string      `json:"status"`
	Notes       *string     `json:"notes"`
	Clinical    *string     `json:"clinical_notes"`
	MoodRating  *int        `json:"mood_rating"`
}

// SessionWithNote is a session row joined with its first note and a
// medicines-exist flag, used by history and report listings.
type SessionWithNote struct {
	PatientSession
	Note         *SessionNote `db:"-" json:"note,omitempty"`
	HasMedicines bool         `db:"has_medicines" json:"has_medicines"`
	PatientName  *string      `db:"patient_name" json:"patient_name,omitempty"`
}

// SessionHistory aggregates a patient's sessions with statistics.
type SessionHistory struct {
	Patient    *PatientSummary        `json:"patient"`
	Statistics SessionStatistics      `json:"statistics"`
	Sessions   []*SessionHistoryEntry `json:"session_history"`
}

type SessionStatistics struct {
	TotalSessions int      `json:"total_sessions"`
	TotalDuration int      `json:"total_duration"`
	AverageMood   *float64 `json:"average_mood"`
}

type SessionHistoryEntry struct {
	ID            uuid.UUID   `json:"id"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
	Duration      int         `json:"duration"`
	Type          SessionType `json:"type"`
	SessionNotes  *string     `json:"session_notes"`
	ClinicalNotes *string     `json:"clinical_notes"`
	MoodRating    *int        `json:"mood_rating"`
	HasMedicines  bool        `json:"has_medicines"`
	HasVoiceNotes bool        `json:"has_voice_notes"`
}
