package users

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func newBoltRepo(t *testing.T) *BoltRepository {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, &bbolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewBoltRepository(db)
	require.NoError(t, err)
	return repo
}

func TestBolt_CreateAndGet(t *testing.T) {
	repo := newBoltRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.User{
		ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: now,
	}))

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
	assert.Equal(t, "Alice", byEmail.Name)
	assert.True(t, now.Equal(byEmail.CreatedAt))

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, byEmail, byID)
}

func TestBolt_DuplicateEmail(t *testing.T) {
	repo := newBoltRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Email: "a@b.c"}))
	err := repo.Create(ctx, &models.User{ID: "u2", Email: "a@b.c"})
	require.True(t, errors.Is(err, common.ErrDuplicateEmail))

	_, err = repo.GetByID(ctx, "u2")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestBolt_NotFound(t *testing.T) {
	repo := newBoltRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	require.True(t, errors.Is(err, common.ErrNotFound))
	_, err = repo.GetByID(ctx, "")
	require.True(t, errors.Is(err, common.ErrNotFound))
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.True(t, errors.Is(err, common.ErrNotFound))
	err = repo.UpdatePhoto(ctx, "nope", "x.png")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestBolt_UpdatePhotoAndPhotoNames(t *testing.T) {
	repo := newBoltRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u2", Email: "b@example.com"}))

	names, err := repo.PhotoNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, repo.UpdatePhoto(ctx, "u2", "me.png"))

	u, err := repo.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "me.png", u.Photo)

	names, err = repo.PhotoNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"me.png"}, names)
}

func TestBolt_CancelledContext(t *testing.T) {
	repo := newBoltRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Create(ctx, &models.User{ID: "u1", Email: "a@b.c"})
	require.ErrorIs(t, err, context.Canceled)
}
