// Package storage abstracts where prompt attachments live. The
// filesystem store is the default; the interface keeps an object-store
// backend possible without touching the services.
package storage

import (
	"context"
	"io"
)

// BlobStore persists uploaded files and serves them back by key.
type BlobStore interface {
	// Put stores the blob under key, overwriting any previous content.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get opens the blob for reading; the caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// URL returns the public URL the blob is served at.
	URL(key string) string
}
