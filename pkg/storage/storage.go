package storage

import "context"

// Store is a path-addressed blob store. Paths are relative,
// slash-separated keys; the implementation decides where bytes live.
type Store interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for a stored path.
	URL(path string) string
}
