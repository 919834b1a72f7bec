package voice

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/repository"
	"github.com/serenemind/clinic-api/internal/service/session"
	"github.com/serenemind/clinic-api/pkg/clock"
	"github.com/serenemind/clinic-api/pkg/errors"
	"github.com/serenemind/clinic-api/pkg/storage"
)

// 10 MB cap on uploaded recordings.
const maxRecordingSize = 10 << 20

var allowedExtensions = map[string]bool{
	".m4a": true,
	".mp3": true,
	".wav": true,
	".aac": true,
	".ogg": true,
}

// Service manages standalone voice recordings, outside any session.
type Service struct {
	repo  repository.VoiceRecordingRepository
	store storage.Store
	clock clock.Clock
}

func NewService(repo repository.VoiceRecordingRepository, store storage.Store, clk clock.Clock) *Service {
	return &Service{repo: repo, store: store, clock: clk}
}

func (s *Service) Create(ctx context.Context, payload *model.VoicePayload) (*model.VoiceRecording, error) {
	if payload == nil || len(payload.Data) == 0 {
		return nil, errors.NewFieldValidation("recording", "recording data is required")
	}
	if len(payload.Data) > maxRecordingSize {
		return nil, errors.NewFieldValidation("recording", "recording must not exceed 10MB")
	}

	ext := strings.ToLower(filepath.Ext(payload.Filename))
	if ext == "" {
		ext = session.ExtensionFor(payload.MimeType)
	}
	if !allowedExtensions[ext] {
		return nil, errors.NewFieldValidation("recording", "file type must be one of: m4a, mp3, wav, aac, ogg")
	}

	now := s.clock.Now()
	path := fmt.Sprintf("recordings/%s/%d%s", now.Format("2006/01/02"), now.UnixNano(), ext)

	if err := s.store.Put(ctx, path, payload.Data); err != nil {
		return nil, errors.NewStorage("failed to store recording", err)
	}

	recording := &model.VoiceRecording{
		RecordingPath: path,
		OriginalName:  payload.Filename,
		FileSize:      int64(len(payload.Data)),
		MimeType:      payload.MimeType,
	}
	if err := s.repo.Create(ctx, recording); err != nil {
		if derr := s.store.Delete(ctx, path); derr != nil {
			log.Warn().Err(derr).Str("path", path).Msg("failed to clean up orphaned recording")
		}
		return nil, err
	}
	return recording, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.VoiceRecording, error) {
	return s.repo.Get(ctx, id)
}

// Download returns the recording metadata together with its bytes.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*model.VoiceRecording, []byte, error) {
	recording, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.store.Get(ctx, recording.RecordingPath)
	if err != nil {
		return nil, nil, errors.NewStorage("failed to read recording", err)
	}
	return recording, data, nil
}

func (s *Service) List(ctx context.Context) ([]*model.VoiceRecording, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	recording, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, recording.RecordingPath); err != nil {
		log.Warn().Err(err).Str("path", recording.RecordingPath).Msg("failed to delete recording file")
	}
	return nil
}
