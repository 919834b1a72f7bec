package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/pkg/errors"
)

const voiceColumns = `
	id, recording_path, original_name, file_size, mime_type,
	created_at, updated_at
`

func (r *voiceRecordingRepository) Create(ctx context.Context, recording *model.VoiceRecording) error {
	recording.ID = uuid.New()
	recording.CreatedAt = time.Now()
	recording.UpdatedAt = recording.CreatedAt

	query := `
		INSERT INTO voice_recordings (
			id, recording_path, original_name, file_size, mime_type,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		recording.ID,
		recording.RecordingPath,
		recording.OriginalName,
		recording.FileSize,
		recording.MimeType,
		recording.CreatedAt,
		recording.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create voice recording: %w", err)
	}
	return nil
}

func (r *voiceRecordingRepository) Get(ctx context.Context, id uuid.UUID) (*model.VoiceRecording, error) {
	query := `SELECT ` + voiceColumns + ` FROM voice_recordings WHERE id = $1`
	var recording model.VoiceRecording
	if err := r.db.GetContext(ctx, &recording, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFound("voice recording", err)
		}
		return nil, fmt.Errorf("failed to get voice recording: %w", err)
	}
	return &recording, nil
}

func (r *voiceRecordingRepository) List(ctx context.Context) ([]*model.VoiceRecording, error) {
	query := `SELECT ` + voiceColumns + ` FROM voice_recordings ORDER BY created_at DESC`
	recordings := []*model.VoiceRecording{}
	if err := r.db.SelectContext(ctx, &recordings, query); err != nil {
		return nil, fmt.Errorf("failed to list voice recordings: %w", err)
	}
	return recordings, nil
}

func (r *voiceRecordingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM voice_recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voice recording: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("voice recording", nil)
	}
	return nil
}
