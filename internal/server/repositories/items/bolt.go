package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"go.etcd.io/bbolt"
)

const (
	itemsBucket  = "items"
	byUserBucket = "items_by_user"
	byBlobBucket = "items_by_blob"
)

type boltItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	BlobName  string    `json:"blob_name,omitempty"`
	Mime      string    `json:"mime,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// BoltRepository keeps items as JSON values keyed by id. Two index buckets
// hold user id -> nested bucket of item ids, and blob name -> item id.
type BoltRepository struct {
	db *bbolt.DB
}

func NewBoltRepository(db *bbolt.DB) (*BoltRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{itemsBucket, byUserBucket, byBlobBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Create(ctx context.Context, item *models.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(toBolt(item))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(itemsBucket)).Put([]byte(item.ID), payload); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		userItems, err := tx.Bucket([]byte(byUserBucket)).CreateBucketIfNotExists([]byte(item.UserID))
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if err := userItems.Put([]byte(item.ID), nil); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if item.BlobName != "" {
			if err := tx.Bucket([]byte(byBlobBucket)).Put([]byte(item.BlobName), []byte(item.ID)); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (r *BoltRepository) Get(ctx context.Context, id string) (*models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *models.Item
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		item, err = getItem(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *BoltRepository) FindByBlob(ctx context.Context, blobName string) (*models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *models.Item
	err := r.db.View(func(tx *bbolt.Tx) error {
		if blobName == "" {
			return common.ErrNotFound
		}
		id := tx.Bucket([]byte(byBlobBucket)).Get([]byte(blobName))
		if id == nil {
			return common.ErrNotFound
		}
		var err error
		item, err = getItem(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *BoltRepository) ListByUser(ctx context.Context, userID string) ([]*models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]*models.Item, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		if userID == "" {
			return nil
		}
		userItems := tx.Bucket([]byte(byUserBucket)).Bucket([]byte(userID))
		if userItems == nil {
			return nil
		}
		return userItems.ForEach(func(k, _ []byte) error {
			item, err := getItem(tx, k)
			if err != nil {
				return err
			}
			result = append(result, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return result, nil
}

func (r *BoltRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		item, err := getItem(tx, []byte(id))
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(itemsBucket)).Delete([]byte(id)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if userItems := tx.Bucket([]byte(byUserBucket)).Bucket([]byte(item.UserID)); userItems != nil {
			if err := userItems.Delete([]byte(id)); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		if item.BlobName != "" {
			byBlob := tx.Bucket([]byte(byBlobBucket))
			if string(byBlob.Get([]byte(item.BlobName))) == id {
				if err := byBlob.Delete([]byte(item.BlobName)); err != nil {
					return fmt.Errorf("db error: %w", err)
				}
			}
		}
		return nil
	})
}

func (r *BoltRepository) BlobNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(byBlobBucket)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func getItem(tx *bbolt.Tx, id []byte) (*models.Item, error) {
	if len(id) == 0 {
		return nil, common.ErrNotFound
	}
	payload := tx.Bucket([]byte(itemsBucket)).Get(id)
	if payload == nil {
		return nil, common.ErrNotFound
	}
	var bi boltItem
	if err := json.Unmarshal(payload, &bi); err != nil {
		return nil, errors.Join(common.ErrStorage, fmt.Errorf("unmarshal item: %w", err))
	}
	tags := bi.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Item{
		ID:        bi.ID,
		UserID:    bi.UserID,
		Kind:      bi.Kind,
		Title:     bi.Title,
		Content:   bi.Content,
		BlobName:  bi.BlobName,
		Mime:      bi.Mime,
		Tags:      tags,
		CreatedAt: bi.CreatedAt,
	}, nil
}

func toBolt(i *models.Item) boltItem {
	return boltItem{
		ID:        i.ID,
		UserID:    i.UserID,
		Kind:      i.Kind,
		Title:     i.Title,
		Content:   i.Content,
		BlobName:  i.BlobName,
		Mime:      i.Mime,
		Tags:      i.Tags,
		CreatedAt: i.CreatedAt,
	}
}
