package storage

import (
	"context"
	"io"
)

// SaveResult contains the result of a stored object
type SaveResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Storage is the binary object store the ingestion pipeline writes to and a
// static-file server (or CDN) later reads from. Implementations must be
// all-or-nothing: a failed Save leaves no partial object behind.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (*SaveResult, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Ensure implementations satisfy the interface
var (
	_ Storage = (*LocalStorage)(nil)
	_ Storage = (*S3Storage)(nil)
)
