// Package items stores locker item metadata.
package items

import (
	"context"

	"github.com/dmitrijs2005/gophlocker/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.Item) error
	Get(ctx context.Context, id string) (*models.Item, error)
	// ListByUser returns the user's items ordered by created_at then id,
	// both descending. An unknown user yields an empty slice.
	ListByUser(ctx context.Context, userID string) ([]*models.Item, error)
	// Delete removes the row, returning common.ErrNotFound if nothing matched.
	Delete(ctx context.Context, id string) error
	// BlobNames returns every blob name referenced by a file item.
	BlobNames(ctx context.Context) ([]string, error)
	// FindByBlob returns the item referencing the blob, or common.ErrNotFound.
	FindByBlob(ctx context.Context, blobName string) (*models.Item, error)
}
