package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs under a base directory and serves them through
// the static file route.
type FSStore struct {
	base      string
	publicURL string
}

func NewFSStore(base, publicURL string) (*FSStore, error) {
	if base == "" {
		base = "./uploads"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FSStore{base: base, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *FSStore) Put(_ context.Context, key string, r io.Reader) error {
	if key == "" {
		return errors.New("empty key")
	}
	dst := filepath.Join(s.base, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return nil
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.base, filepath.Clean(key)))
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.base, filepath.Clean(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FSStore) URL(key string) string {
	return s.publicURL + "/" + url.PathEscape(key)
}

// Dir exposes the base directory so the router can mount it as a
// static file route.
func (s *FSStore) Dir() string { return s.base }
