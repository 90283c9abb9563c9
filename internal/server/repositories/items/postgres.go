package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/dbx"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
)

const itemColumns = `id, user_id, kind, title, content, blob_name, mime, tags, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	tags, err := marshalTags(item.Tags)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO locker_items (id, user_id, kind, title, content, blob_name, mime, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.Kind, item.Title,
		nullIfFile(item), dbx.NullString(item.BlobName), dbx.NullString(item.Mime),
		tags, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM locker_items WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) FindByBlob(ctx context.Context, blobName string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM locker_items WHERE blob_name = $1 LIMIT 1`
	return r.getOne(ctx, query, blobName)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*models.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM locker_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locker_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) BlobNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT blob_name FROM locker_items WHERE blob_name IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to select blob names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.Item, error) {
	var (
		item                    models.Item
		content, blobName, mime sql.NullString
		tags                    []byte
	)
	err := s.Scan(&item.ID, &item.UserID, &item.Kind, &item.Title,
		&content, &blobName, &mime, &tags, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Content = content.String
	item.BlobName = blobName.String
	item.Mime = mime.String
	item.Tags, err = unmarshalTags(tags)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// nullIfFile keeps the payload CHECK satisfied: notes always store content.
func nullIfFile(item *models.Item) any {
	if item.Kind == common.KindFile {
		return nil
	}
	return item.Content
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}

func unmarshalTags(b []byte) ([]string, error) {
	tags := []string{}
	if len(b) == 0 {
		return tags, nil
	}
	if err := json.Unmarshal(b, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
