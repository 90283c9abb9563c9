package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophlocker/internal/common"
)

// FSStore keeps blobs as plain files in one directory. All access goes
// through os.Root, so no name can reach outside the directory.
type FSStore struct {
	root *os.Root
	dir  string
}

// NewFSStore creates dir if needed and opens it as the store root.
func NewFSStore(dir string) (*FSStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}
	return &FSStore{root: root, dir: abs}, nil
}

// Dir returns the absolute store directory.
func (s *FSStore) Dir() string {
	return s.dir
}

func (s *FSStore) Close() error {
	return s.root.Close()
}

func (s *FSStore) Create(ctx context.Context, name string, r io.Reader) (int64, error) {
	if !ValidName(name) {
		return 0, fmt.Errorf("blob %q: invalid name", name)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := s.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("blob %q: %w", name, ErrExists)
		}
		return 0, fmt.Errorf("create blob %q: %w", name, err)
	}

	n, err := io.Copy(f, ctxReader{ctx: ctx, r: r})
	if err != nil {
		_ = f.Close()
		return n, fmt.Errorf("write blob %q: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return n, fmt.Errorf("sync blob %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close blob %q: %w", name, err)
	}
	return n, nil
}

func (s *FSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %q: %w", name, common.ErrNotFound)
		}
		return nil, fmt.Errorf("open blob %q: %w", name, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat blob %q: %w", name, err)
	}
	if !st.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("blob %q: %w", name, common.ErrNotFound)
	}
	return f, nil
}

func (s *FSStore) Stat(ctx context.Context, name string) (Info, error) {
	if err := checkName(name); err != nil {
		return Info{}, err
	}
	fi, err := s.root.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, fmt.Errorf("blob %q: %w", name, common.ErrNotFound)
		}
		return Info{}, fmt.Errorf("stat blob %q: %w", name, err)
	}
	if !fi.Mode().IsRegular() {
		return Info{}, fmt.Errorf("blob %q: %w", name, common.ErrNotFound)
	}
	return Info{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (s *FSStore) Remove(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.root.Remove(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("blob %q: %w", name, common.ErrNotFound)
		}
		return fmt.Errorf("remove blob %q: %w", name, err)
	}
	return nil
}

// List returns every regular, non-hidden file in the store directory.
func (s *FSStore) List(ctx context.Context) ([]Info, error) {
	entries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() || !ValidName(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, Info{Name: e.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return out, nil
}
