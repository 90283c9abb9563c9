package services

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/cryptox"
	"github.com/dmitrijs2005/gophlocker/internal/logging"
	"github.com/dmitrijs2005/gophlocker/internal/server/blobstore"
	"github.com/dmitrijs2005/gophlocker/internal/server/config"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	manager  *repomanager.BoltRepositoryManager
	store    *blobstore.FSStore
	blobs    *BlobWriter
	locker   *LockerService
	accounts *AccountService
	clock    *fakeClock
}

// fakeClock advances by one millisecond on every reading.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	m, err := repomanager.NewBoltRepositoryManager(filepath.Join(dir, "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	store, err := blobstore.NewFSStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := testConfig()
	clock := &fakeClock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	blobs := NewBlobWriter(store)

	locker := NewLockerService(m, blobs, cfg, logging.Discard())
	locker.now = clock.Now
	accounts := NewAccountService(m, blobs, cryptox.NewHasher(1000), cfg, logging.Discard())
	accounts.now = clock.Now

	return &testEnv{manager: m, store: store, blobs: blobs, locker: locker, accounts: accounts, clock: clock}
}

func (e *testEnv) blobNames(t *testing.T) []string {
	t.Helper()
	infos, err := e.store.List(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, i := range infos {
		names = append(names, i.Name)
	}
	return names
}

func readBlob(t *testing.T, b *Blob) []byte {
	t.Helper()
	defer b.Body.Close()
	data, err := io.ReadAll(b.Body)
	require.NoError(t, err)
	return data
}

func fileInput(user, filename string, data []byte) FileInput {
	return FileInput{UserID: user, Filename: filename, Body: bytes.NewReader(data)}
}
