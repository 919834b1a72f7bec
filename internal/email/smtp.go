package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/serenemind/clinic-api/internal/config"
	"github.com/serenemind/clinic-api/internal/model"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewService returns an SMTP-backed sender, or a no-op sender when
// email is disabled in config.
func NewService(cfg config.EmailConfig) Service {
	if !cfg.Enabled {
		return &noopService{}
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAppointmentConfirmation(ctx context.Context, to, patientName string, appointment *model.Appointment) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment is confirmed for %s at %s (%d minutes).\n\nSerene Mind Clinic",
		patientName, appointment.Date, appointment.StartTime, appointment.DurationMinutes,
	)
	return s.send(to, "Appointment Confirmation", body)
}

func (s *smtpService) SendAppointmentCancellation(ctx context.Context, to, patientName string, appointment *model.Appointment) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment on %s at %s has been cancelled.\n\nSerene Mind Clinic",
		patientName, appointment.Date, appointment.StartTime,
	)
	return s.send(to, "Appointment Cancelled", body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type noopService struct{}

func (n *noopService) SendAppointmentConfirmation(ctx context.Context, to, patientName string, appointment *model.Appointment) error {
	return nil
}

func (n *noopService) SendAppointmentCancellation(ctx context.Context, to, patientName string, appointment *model.Appointment) error {
	return nil
}
