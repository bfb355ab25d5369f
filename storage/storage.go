package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Download for a missing object.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is a flat object store keyed by slash-separated paths.
type Storage interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download returns ErrNotFound for missing objects. The caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete is a no-op for missing objects.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// Locator is implemented by stores whose objects live on the local
// filesystem, for consumers that can only read from a path.
type Locator interface {
	LocalPath(path string) (string, error)
}

// Put uploads data.
func Put(ctx context.Context, s Storage, path string, data []byte) error {
	return s.Upload(ctx, path, bytes.NewReader(data))
}

// Get downloads the whole object.
func Get(ctx context.Context, s Storage, path string) ([]byte, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// DeletePrefix removes every object under prefix.
func DeletePrefix(ctx context.Context, s Storage, prefix string) error {
	files, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	var errs []error
	for _, f := range files {
		if err := s.Delete(ctx, f.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
