// Package services contains server-side business logic: the locker engine
// that keeps blobs and item metadata consistent, and account management.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/blobstore"
	"github.com/dmitrijs2005/gophlocker/internal/server/naming"
)

// maxWriteAttempts bounds how often a lost exclusive create is retried.
const maxWriteAttempts = 1000

// BlobWriter is the single writer of a blob store. It holds one mutex across
// name resolution and the exclusive create, so two uploads in this process
// never pick the same name. Writers in other processes are caught by the
// store's exclusive create and retried under the next free name.
type BlobWriter struct {
	mu    sync.Mutex
	store blobstore.Store
}

func NewBlobWriter(store blobstore.Store) *BlobWriter {
	return &BlobWriter{store: store}
}

// Store returns the underlying blob store.
func (w *BlobWriter) Store() blobstore.Store {
	return w.store
}

// Write stores body under a collision-free name derived from requested and
// returns that name and the number of bytes written.
func (w *BlobWriter) Write(ctx context.Context, requested string, body io.Reader) (string, int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lost := make(map[string]struct{})
	var statErr error
	taken := func(name string) bool {
		if statErr != nil {
			return true
		}
		if _, ok := lost[name]; ok {
			return true
		}
		_, err := w.store.Stat(ctx, name)
		switch {
		case err == nil:
			return true
		case errors.Is(err, common.ErrNotFound):
			return false
		default:
			statErr = err
			return true
		}
	}

	cr := &countingReader{r: body}
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		name, err := naming.Resolve(requested, taken)
		if statErr != nil {
			return "", 0, storageError("resolve blob name", statErr)
		}
		if err != nil {
			if errors.Is(err, common.ErrInvalidName) {
				return "", 0, err
			}
			return "", 0, storageError("resolve blob name", err)
		}

		n, err := w.store.Create(ctx, name, cr)
		if err == nil {
			return name, n, nil
		}
		if !errors.Is(err, blobstore.ErrExists) {
			return "", 0, storageError("write blob", err)
		}

		lost[name] = struct{}{}
		if cr.n > 0 {
			if err := rewind(body); err != nil {
				return "", 0, storageError("retry blob write", err)
			}
			cr.n = 0
		}
	}
	return "", 0, storageError("write blob", fmt.Errorf("no free name after %d attempts", maxWriteAttempts))
}

func rewind(r io.Reader) error {
	s, ok := r.(io.Seeker)
	if !ok {
		return errors.New("upload body already consumed")
	}
	_, err := s.Seek(0, io.SeekStart)
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStorage, op, err)
}
