package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/repository"
	"github.com/serenemind/clinic-api/pkg/clock"
	"github.com/serenemind/clinic-api/pkg/errors"
	"github.com/serenemind/clinic-api/pkg/storage"
)

type Service struct {
	repo     repository.SessionRepository
	patients repository.PatientRepository
	store    storage.Store
	clock    clock.Clock
}

func NewService(repo repository.SessionRepository, patients repository.PatientRepository, store storage.Store, clk clock.Clock) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		store:    store,
		clock:    clk,
	}
}

// Create opens a session for a patient. Sessions begin in progress
// with the clock's current instant as their start.
func (s *Service) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.PatientSession, error) {
	exists, err := s.patients.Exists(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient: %w", err)
	}
	if !exists {
		return nil, errors.NewNotFound("patient", nil)
	}

	now := s.clock.Now()
	session := &model.PatientSession{
		PatientID:        req.PatientID,
		SessionType:      model.SessionType(req.SessionType),
		ExpectedDuration: req.ExpectedDuration,
		Purpose:          req.Purpose,
		Status:           model.SessionStatusInProgress,
		StartedAt:        &now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Start transitions a scheduled session into progress.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*model.PatientSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusScheduled {
		return nil, errors.NewFieldValidation("status",
			fmt.Sprintf("cannot start a session in %s status", session.Status))
	}

	now := s.clock.Now()
	session.Status = model.SessionStatusInProgress
	session.StartedAt = &now
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.SessionDetail, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patient, err := s.patients.GetSummary(ctx, session.PatientID)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.GetNotes(ctx, id)
	if err != nil {
		return nil, err
	}

	medicines, err := s.repo.GetMedicines(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.SessionDetail{
		Session:   session,
		Patient:   patient,
		Notes:     notes,
		Medicines: medicines,
	}, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSessionRequest) (*model.PatientSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SessionType != nil {
		session.SessionType = model.SessionType(*req.SessionType)
	}
	if req.ExpectedDuration != nil {
		session.ExpectedDuration = *req.ExpectedDuration
	}
	if req.Purpose != nil {
		session.Purpose = *req.Purpose
	}
	if req.Status != nil {
		session.Status = model.SessionStatus(*req.Status)
		now := s.clock.Now()
		if session.Status == model.SessionStatusInProgress && session.StartedAt == nil {
			session.StartedAt = &now
		}
		if session.Status == model.SessionStatusCompleted && session.EndedAt == nil {
			session.EndedAt = &now
		}
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete wraps up an in-progress session: stores the voice recording
// and medicine images, then persists the session update, notes,
// medicine rows and the derived medicine payment in one transaction.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, req *model.CompleteSessionRequest) (*model.CompleteSessionResult, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, errors.NewConflict("session is already completed")
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, errors.NewFieldValidation("status",
			fmt.Sprintf("cannot complete a session in %s status", session.Status))
	}

	now := s.clock.Now()

	// Blob writes happen outside the transaction. A failed voice write
	// loses the recording but never the clinical notes.
	voicePath := s.storeVoice(ctx, id, req.Voice)
	imagePaths, err := s.storeImages(ctx, id, req.Images)
	if err != nil {
		return nil, err
	}

	price := coercePrice(req.MedicinePrice)

	note := &model.SessionNote{
		GeneralNotes:        req.GeneralNotes,
		PhysicalHealthNotes: req.PhysicalHealthNotes,
		MentalHealthNotes:   req.MentalHealthNotes,
		ClinicalNotes:       req.ClinicalNotes,
		MoodRating:          req.MoodRating,
		VoiceNotesPath:      voicePath,
		MedicinePrice:       price,
	}
	medicine := &model.SessionMedicine{MedicineNotes: req.MedicineNotes}

	images := make([]*model.MedicineImage, 0, len(imagePaths))
	for _, path := range imagePaths {
		images = append(images, &model.MedicineImage{ImagePath: path})
	}

	var payment *model.Payment
	if price > 0 {
		patientID := session.PatientID
		payment = &model.Payment{
			PatientID:     &patientID,
			Amount:        price,
			Description:   fmt.Sprintf("Medicine charges for session %s", id),
			Category:      model.PaymentCategoryMedicine,
			Date:          now.Format("2006-01-02"),
			PaymentMethod: "cash",
			Status:        model.PaymentStatusCompleted,
			Type:          model.PaymentTypeIncome,
		}
	}

	session.Status = model.SessionStatusCompleted
	session.EndedAt = &now

	if err := s.repo.Complete(ctx, session, note, medicine, images, payment); err != nil {
		s.cleanupBlobs(ctx, voicePath, imagePaths)
		return nil, err
	}

	medicine.Images = images
	return &model.CompleteSessionResult{
		Session: model.SessionProjection{
			ID:        session.ID,
			PatientID: session.PatientID,
			Status:    session.Status,
			StartedAt: session.StartedAt,
			EndedAt:   session.EndedAt,
		},
		Notes:    note,
		Medicine: medicine,
		Payment:  payment,
	}, nil
}

// coercePrice parses the raw medicine price. Non-numeric and negative
// values become 0 rather than failing the completion.
func coercePrice(raw string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

func (s *Service) storeVoice(ctx context.Context, sessionID uuid.UUID, voice *model.VoicePayload) *string {
	if voice == nil || len(voice.Data) == 0 {
		return nil
	}

	ext := filepath.Ext(voice.Filename)
	if ext == "" {
		ext = ExtensionFor(voice.MimeType)
	}
	now := s.clock.Now()
	path := fmt.Sprintf("voice_recordings/%s/%s_%d%s", now.Format("2006/01/02"), sessionID, now.UnixNano(), ext)

	if err := s.store.Put(ctx, path, voice.Data); err != nil {
		log.Warn().Err(err).
			Str("session_id", sessionID.String()).
			Msg("failed to store voice recording, completing without it")
		return nil
	}
	return &path
}

func (s *Service) storeImages(ctx context.Context, sessionID uuid.UUID, uploads []*model.ImageUpload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for i, upload := range uploads {
		if len(upload.Data) == 0 {
			continue
		}
		ext := filepath.Ext(upload.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		path := fmt.Sprintf("medicine_images/%s_%d_%d%s", sessionID, s.clock.Now().UnixNano(), i, ext)

		if err := s.store.Put(ctx, path, upload.Data); err != nil {
			s.cleanupBlobs(ctx, nil, paths)
			return nil, errors.NewStorage("failed to store medicine image", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *Service) cleanupBlobs(ctx context.Context, voicePath *string, imagePaths []string) {
	if voicePath != nil {
		if err := s.store.Delete(ctx, *voicePath); err != nil {
			log.Warn().Err(err).Str("path", *voicePath).Msg("failed to clean up voice recording")
		}
	}
	for _, path := range imagePaths {
		if err := s.store.Delete(ctx, path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to clean up medicine image")
		}
	}
}

// Delete removes a session and everything hanging off it. Sessions in
// progress cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if session.Status == model.SessionStatusInProgress {
		return errors.NewConflict("cannot delete a session in progress")
	}

	notes, err := s.repo.GetNotes(ctx, id)
	if err != nil {
		return err
	}
	medicines, err := s.repo.GetMedicines(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, note := range notes {
		if note.VoiceNotesPath != nil {
			if err := s.store.Delete(ctx, *note.VoiceNotesPath); err != nil {
				log.Warn().Err(err).Str("path", *note.VoiceNotesPath).Msg("failed to delete voice recording")
			}
		}
	}
	for _, medicine := range medicines {
		for _, image := range medicine.Images {
			if err := s.store.Delete(ctx, image.ImagePath); err != nil {
				log.Warn().Err(err).Str("path", image.ImagePath).Msg("failed to delete medicine image")
			}
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.SessionFilters) ([]*model.PatientSession, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

// History aggregates a patient's sessions with per-patient statistics.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) (*model.SessionHistory, error) {
	patient, err := s.patients.GetSummary(ctx, patientID)
	if err != nil {
		return nil, err
	}

	filters := &model.SessionFilters{PatientID: &patientID}
	sessions, err := s.repo.ListWithNotes(ctx, filters)
	if err != nil {
		return nil, err
	}

	history := &model.SessionHistory{
		Patient:  patient,
		Sessions: make([]*model.SessionHistoryEntry, 0, len(sessions)),
	}

	var moodSum, moodCount int
	for _, session := range sessions {
		entry := &model.SessionHistoryEntry{
			ID:           session.ID,
			Duration:     session.ExpectedDuration,
			Type:         session.SessionType,
			HasMedicines: session.HasMedicines,
		}
		if session.StartedAt != nil {
			entry.Date = session.StartedAt.Format("2006-01-02")
			entry.Time = session.StartedAt.Format("15:04")
		}
		if session.Note != nil {
			entry.SessionNotes = session.Note.GeneralNotes
			entry.ClinicalNotes = session.Note.ClinicalNotes
			entry.MoodRating = session.Note.MoodRating
			entry.HasVoiceNotes = session.Note.VoiceNotesPath != nil
			if session.Note.MoodRating != nil {
				moodSum += *session.Note.MoodRating
				moodCount++
			}
		}

		history.Statistics.TotalSessions++
		history.Statistics.TotalDuration += session.ExpectedDuration
		history.Sessions = append(history.Sessions, entry)
	}

	if moodCount > 0 {
		avg := float64(moodSum) / float64(moodCount)
		history.Statistics.AverageMood = &avg
	}
	return history, nil
}

// CompletedSessions lists completed sessions for the reporting view.
func (s *Service) CompletedSessions(ctx context.Context, filters *model.CompletedSessionFilters) ([]*model.CompletedSessionEntry, int, error) {
	filters.Normalize()
	sessions, total, err := s.repo.CompletedSessions(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*model.CompletedSessionEntry, 0, len(sessions))
	for _, session := range sessions {
		entry := &model.CompletedSessionEntry{
			ID:        session.ID,
			PatientID: session.PatientID,
			Duration:  session.ExpectedDuration,
			Type:      session.SessionType,
			Status:    string(session.Status),
		}
		if session.PatientName != nil {
			entry.PatientName = *session.PatientName
		}
		if session.StartedAt != nil {
			entry.Date = session.StartedAt.Format("2006-01-02")
			entry.Time = session.StartedAt.Format("15:04")
		}
		if session.Note != nil {
			entry.Notes = session.Note.GeneralNotes
			entry.Clinical = session.Note.ClinicalNotes
			entry.MoodRating = session.Note.MoodRating
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}
