package repomanager

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/users"
	"go.etcd.io/bbolt"
)

// BoltRepositoryManager keeps all metadata in a single bbolt file.
type BoltRepositoryManager struct {
	db    *bbolt.DB
	users *users.BoltRepository
	items *items.BoltRepository
}

// NewBoltRepositoryManager opens (or creates) the database file at path.
func NewBoltRepositoryManager(path string) (*BoltRepositoryManager, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bolt path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	u, err := users.NewBoltRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("user repo creation error: %w", err)
	}
	i, err := items.NewBoltRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("item repo creation error: %w", err)
	}

	return &BoltRepositoryManager{db: db, users: u, items: i}, nil
}

func (m *BoltRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *BoltRepositoryManager) Items() items.Repository {
	return m.items
}

// Ping verifies the file is still readable.
func (m *BoltRepositoryManager) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.View(func(*bbolt.Tx) error { return nil })
}

func (m *BoltRepositoryManager) Close() error {
	return m.db.Close()
}
