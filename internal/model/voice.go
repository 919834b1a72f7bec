package model

// VoicePayload is a voice recording resolved to raw bytes. The HTTP
// boundary accepts a binary upload, a raw base64 string, or a JSON
// envelope with a data field (optionally carrying a data-URL prefix);
// all three collapse into this one shape before business logic runs.
type VoicePayload struct {
	Filename string
	MimeType string
	Data     []byte
}

// ImageUpload is a medicine image resolved to raw bytes.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// VoiceRecording is a standalone stored recording.
type VoiceRecording struct {
	Base
	RecordingPath string `db:"recording_path" json:"recording_path"`
	OriginalName  string `db:"original_name" json:"original_name"`
	FileSize      int64  `db:"file_size" json:"file_size"`
	MimeType      string `db:"mime_type" json:"mime_type"`
}
