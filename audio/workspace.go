package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/hybridstt/storage"
)

// Workspace holds one request's temporary fragment files. Release must be
// deferred by the owner; it is safe to call more than once.
type Workspace struct {
	store  storage.Storage
	prefix string

	mu       sync.Mutex
	written  map[int]string
	released bool
}

// NewWorkspace opens a workspace under a fresh random prefix.
func NewWorkspace(store storage.Storage) *Workspace {
	return &Workspace{
		store:   store,
		prefix:  "fragments/" + uuid.NewString(),
		written: make(map[int]string),
	}
}

// Prefix returns the storage prefix of this workspace.
func (w *Workspace) Prefix() string { return w.prefix }

// Put stores the segment payload once and returns its storage path.
func (w *Workspace) Put(ctx context.Context, seg *Segment) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return "", fmt.Errorf("audio: workspace %s already released", w.prefix)
	}
	if p, ok := w.written[seg.Index]; ok {
		return p, nil
	}
	p := w.prefix + "/" + seg.Filename()
	if err := storage.Put(ctx, w.store, p, seg.Payload); err != nil {
		return "", fmt.Errorf("audio: write fragment %d: %w", seg.Index, err)
	}
	w.written[seg.Index] = p
	return p, nil
}

// LocalFile stores the segment and returns a filesystem path to it, for
// consumers such as a CLI engine that read from disk.
func (w *Workspace) LocalFile(ctx context.Context, seg *Segment) (string, error) {
	loc, ok := w.store.(storage.Locator)
	if !ok {
		return "", fmt.Errorf("audio: workspace storage has no local paths")
	}
	p, err := w.Put(ctx, seg)
	if err != nil {
		return "", err
	}
	return loc.LocalPath(p)
}

// Release deletes every fragment. It uses a fresh context so cleanup still
// runs after the request context was cancelled.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil
	}
	w.released = true
	if len(w.written) == 0 {
		return nil
	}
	return storage.DeletePrefix(context.Background(), w.store, w.prefix)
}
