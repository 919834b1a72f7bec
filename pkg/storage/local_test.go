package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/storage")
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("audio bytes")

	require.NoError(t, store.Put(ctx, "voice_recordings/2026/01/02/rec.mp3", data))

	got, err := store.Get(ctx, "voice_recordings/2026/01/02/rec.mp3")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.Equal(t, "http://localhost:8080/storage/voice_recordings/2026/01/02/rec.mp3",
		store.URL("voice_recordings/2026/01/02/rec.mp3"))

	require.NoError(t, store.Delete(ctx, "voice_recordings/2026/01/02/rec.mp3"))
	_, err = store.Get(ctx, "voice_recordings/2026/01/02/rec.mp3")
	assert.Error(t, err)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	err = store.Put(context.Background(), "../outside.txt", []byte("x"))
	assert.Error(t, err)
}

func TestLocalStoreDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "missing/file.mp3"))
}
