package session

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenemind/clinic-api/pkg/errors"
)

func TestResolveVoiceString_RawBase64(t *testing.T) {
	raw := []byte("some audio bytes")
	encoded := base64.StdEncoding.EncodeToString(raw)

	payload, err := ResolveVoiceString(encoded, "memo.mp3")
	require.NoError(t, err)
	assert.Equal(t, raw, payload.Data)
	assert.Equal(t, "memo.mp3", payload.Filename)
	assert.Equal(t, "audio/mpeg", payload.MimeType)
}

func TestResolveVoiceString_DataURL(t *testing.T) {
	raw := []byte("wav content")
	value := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(raw)

	payload, err := ResolveVoiceString(value, "")
	require.NoError(t, err)
	assert.Equal(t, raw, payload.Data)
	assert.Equal(t, "audio/wav", payload.MimeType)
	assert.Equal(t, "recording.wav", payload.Filename)
}

func TestResolveVoiceString_UnpaddedBase64(t *testing.T) {
	raw := []byte("abcde")
	encoded := base64.RawStdEncoding.EncodeToString(raw)

	payload, err := ResolveVoiceString(encoded, "")
	require.NoError(t, err)
	assert.Equal(t, raw, payload.Data)
}

func TestResolveVoiceString_Invalid(t *testing.T) {
	for _, value := range []string{"not@base64!", "", "data:audio/mp3;base64,"} {
		_, err := ResolveVoiceString(value, "")
		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr, "value %q", value)
		assert.Equal(t, errors.ErrValidation, appErr.Code)
	}
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".mp3", ExtensionFor("audio/mpeg"))
	assert.Equal(t, ".mp3", ExtensionFor("audio/mp3"))
	assert.Equal(t, ".wav", ExtensionFor("audio/WAV"))
	assert.Equal(t, ".m4a", ExtensionFor("audio/mp4"))
	assert.Equal(t, ".bin", ExtensionFor("application/octet-stream"))
}
