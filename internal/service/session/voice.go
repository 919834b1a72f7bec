package session

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/pkg/errors"
)

var dataURLPattern = regexp.MustCompile(`^data:([^;,]+);base64,`)

// ResolveVoiceString turns a base64 voice value into a payload. The
// value may carry a data-URL prefix ("data:audio/mp3;base64,...");
// the prefix's media type wins over the default.
func ResolveVoiceString(value, filename string) (*model.VoicePayload, error) {
	mimeType := "audio/mpeg"
	if m := dataURLPattern.FindStringSubmatch(value); m != nil {
		mimeType = m[1]
		value = value[len(m[0]):]
	}

	value = strings.TrimSpace(value)
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(value)
	}
	if err != nil || len(data) == 0 {
		return nil, errors.NewFieldValidation("voice_notes", "must be valid base64-encoded audio")
	}

	if filename == "" {
		filename = "recording" + ExtensionFor(mimeType)
	}
	return &model.VoicePayload{
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
	}, nil
}

// ExtensionFor maps an audio media type to a file extension.
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return ".m4a"
	default:
		return ".bin"
	}
}
