package email

import (
	"context"

	"github.com/serenemind/clinic-api/internal/model"
)

// Service sends clinic notifications. Sends are best-effort: callers
// log failures but never fail the triggering operation.
type Service interface {
	SendAppointmentConfirmation(ctx context.Context, to, patientName string, appointment *model.Appointment) error
	SendAppointmentCancellation(ctx context.Context, to, patientName string, appointment *model.Appointment) error
}
