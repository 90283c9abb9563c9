// Package blobstore keeps uploaded file bytes under flat, caller-chosen
// names. Names are single path components; callers obtain them from the
// naming package.
//
// Create never overwrites: it fails with ErrExists when the name is taken,
// which lets the locker turn a lost naming race into a retry instead of a
// silent clobber.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
)

var ErrExists = errors.New("blob already exists")

// Info describes a stored blob.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store is implemented by FSStore and S3Store.
type Store interface {
	// Create writes r under name. It fails with ErrExists if name is taken.
	// A failed or cancelled copy may leave a partial blob behind.
	Create(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open returns the blob content or an error matching common.ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Stat describes the blob or returns an error matching common.ErrNotFound.
	Stat(ctx context.Context, name string) (Info, error)
	// Remove deletes the blob or returns an error matching common.ErrNotFound.
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]Info, error)
}

// ValidName reports whether name is usable as a blob name: one non-hidden
// path component without separators or control characters.
func ValidName(name string) bool {
	if name == "" || len(name) > 255 || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("blob %q: %w", name, common.ErrNotFound)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
