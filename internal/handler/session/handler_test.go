package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVoiceJSON_BareString(t *testing.T) {
	raw := []byte("voice bytes")
	encoded, err := json.Marshal(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	payload, err := resolveVoiceJSON(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, payload.Data)
}

func TestResolveVoiceJSON_Envelope(t *testing.T) {
	raw := []byte("voice bytes")
	body, err := json.Marshal(map[string]string{
		"data":     "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(raw),
		"filename": "memo.mp3",
	})
	require.NoError(t, err)

	payload, err := resolveVoiceJSON(body)
	require.NoError(t, err)
	assert.Equal(t, raw, payload.Data)
	assert.Equal(t, "audio/mp3", payload.MimeType)
	assert.Equal(t, "memo.mp3", payload.Filename)
}

func TestResolveVoiceJSON_BadShape(t *testing.T) {
	for _, body := range []string{`{}`, `{"data": ""}`, `42`, `["a"]`} {
		_, err := resolveVoiceJSON(json.RawMessage(body))
		assert.Error(t, err, body)
	}
}

func completeContext(t *testing.T, contentType, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/sessions/complete", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", contentType)
	return c
}

// A voice payload that cannot be decoded must not abort the
// completion: the request binds with a null recording.
func TestBindCompleteJSON_UndecodableVoiceIsDropped(t *testing.T) {
	c := completeContext(t, "application/json",
		`{"general_notes": "went well", "voice_notes": "data:audio/mp3;base64,@@not-base64@@"}`)

	req, err := bindCompleteJSON(c)
	require.NoError(t, err)
	assert.Nil(t, req.Voice)
	require.NotNil(t, req.GeneralNotes)
	assert.Equal(t, "went well", *req.GeneralNotes)
}

func TestBindCompleteJSON_ValidVoice(t *testing.T) {
	raw := []byte("voice bytes")
	body, err := json.Marshal(gin.H{
		"voice_notes": base64.StdEncoding.EncodeToString(raw),
	})
	require.NoError(t, err)

	req, berr := bindCompleteJSON(completeContext(t, "application/json", string(body)))
	require.NoError(t, berr)
	require.NotNil(t, req.Voice)
	assert.Equal(t, raw, req.Voice.Data)
}

func TestBindCompleteMultipart_UndecodableVoiceIsDropped(t *testing.T) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("general_notes", "went well"))
	require.NoError(t, form.WriteField("voice_notes", "@@not-base64@@"))
	require.NoError(t, form.Close())

	c := completeContext(t, form.FormDataContentType(), buf.String())

	req, err := bindCompleteMultipart(c)
	require.NoError(t, err)
	assert.Nil(t, req.Voice)
	require.NotNil(t, req.GeneralNotes)
	assert.Equal(t, "went well", *req.GeneralNotes)
}
