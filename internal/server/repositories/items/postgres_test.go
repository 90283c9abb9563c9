package items

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	insertItemQ = `(?s)^INSERT\s+INTO\s+locker_items\s*\(id,\s*user_id,\s*kind,\s*title,\s*content,\s*blob_name,\s*mime,\s*tags,\s*created_at\)\s*VALUES\s*\(\$1,.*\$9\)\s*$`
	getItemQ    = `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+locker_items\s+WHERE\s+id\s*=\s*\$1$`
	byBlobQ     = `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+locker_items\s+WHERE\s+blob_name\s*=\s*\$1\s+LIMIT\s+1$`
	listQ       = `(?s)^SELECT\s+id,.*FROM\s+locker_items\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC$`
	deleteQ     = `^DELETE FROM locker_items WHERE id = \$1$`
	blobNamesQ  = `^SELECT blob_name FROM locker_items WHERE blob_name IS NOT NULL$`
)

var itemCols = []string{"id", "user_id", "kind", "title", "content", "blob_name", "mime", "tags", "created_at"}

func TestCreate_Note(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectExec(insertItemQ).
		WithArgs("i1", "u1", "note", "todo", "buy milk", nil, nil, `[]`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Item{
		ID: "i1", UserID: "u1", Kind: common.KindNote, Title: "todo", Content: "buy milk", CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_File(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectExec(insertItemQ).
		WithArgs("i2", "u1", "file", "cat", nil, "cat.png", "image/png", `["pets","x"]`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Item{
		ID: "i2", UserID: "u1", Kind: common.KindFile, Title: "cat",
		BlobName: "cat.png", Mime: "image/png", Tags: []string{"pets", "x"}, CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InvalidItemNeverReachesDB(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	err := repo.Create(context.Background(), &models.Item{ID: "i1", UserID: "u1", Kind: common.KindNote})
	require.True(t, errors.Is(err, common.ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertItemQ).WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), &models.Item{ID: "i1", UserID: "u1", Kind: common.KindNote, Content: "x"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*boom`, err.Error())
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(getItemQ).WithArgs("i1").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i1", "u1", "file", "cat", nil, "cat.png", "image/png", `["a"]`, now))

	item, err := repo.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", item.BlobName)
	assert.Equal(t, "image/png", item.Mime)
	assert.Empty(t, item.Content)
	assert.Equal(t, []string{"a"}, item.Tags)

	mock.ExpectQuery(getItemQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "nope")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestFindByBlob(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(byBlobQ).WithArgs("cat.png").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i1", "u1", "file", "cat", nil, "cat.png", "image/png", `[]`, time.Now()))

	item, err := repo.FindByBlob(context.Background(), "cat.png")
	require.NoError(t, err)
	assert.Equal(t, "i1", item.ID)
	assert.NotNil(t, item.Tags)

	mock.ExpectQuery(byBlobQ).WithArgs("dog.png").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByBlob(context.Background(), "dog.png")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestListByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	t1 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	mock.ExpectQuery(listQ).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i2", "u1", "note", "b", "second", nil, nil, `["x"]`, t1).
			AddRow("i1", "u1", "note", "a", "first", nil, nil, nil, t0))

	items, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "i2", items[0].ID)
	assert.Equal(t, "second", items[0].Content)
	assert.Equal(t, []string{}, items[1].Tags)
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(itemCols))

	items, err := repo.ListByUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListByUser_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WithArgs("u1").WillReturnError(errors.New("db err"))
	_, err := repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Regexp(t, `failed to select items: .*db err`, err.Error())

	mock.ExpectQuery(listQ).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i1", "u1", "note", "a", "x", nil, nil, `{bad`, time.Now()))
	_, err = repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal tags")
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs("i1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "i1"))

	mock.ExpectExec(deleteQ).WithArgs("i1").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), "i1")
	require.True(t, errors.Is(err, common.ErrNotFound))

	mock.ExpectExec(deleteQ).WithArgs("i1").WillReturnError(errors.New("db err"))
	err = repo.Delete(context.Background(), "i1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNotFound))
}

func TestBlobNames(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(blobNamesQ).
		WillReturnRows(sqlmock.NewRows([]string{"blob_name"}).AddRow("a.png").AddRow("b.pdf"))

	names, err := repo.BlobNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.pdf"}, names)
}
