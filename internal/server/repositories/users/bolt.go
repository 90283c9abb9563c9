package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"go.etcd.io/bbolt"
)

const (
	usersBucket   = "users"
	byEmailBucket = "users_by_email"
)

type boltUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Photo        string    `json:"photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BoltRepository keeps users as JSON values keyed by id, with a second
// bucket mapping email to id for uniqueness and lookup.
type BoltRepository struct {
	db *bbolt.DB
}

func NewBoltRepository(db *bbolt.DB) (*BoltRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{usersBucket, byEmailBucket} {
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

func (r *BoltRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(toBolt(user))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		byEmail := tx.Bucket([]byte(byEmailBucket))
		if byEmail.Get([]byte(user.Email)) != nil {
			return common.ErrDuplicateEmail
		}
		if err := tx.Bucket([]byte(usersBucket)).Put([]byte(user.ID), payload); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if err := byEmail.Put([]byte(user.Email), []byte(user.ID)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *BoltRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u *models.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(byEmailBucket)).Get([]byte(email))
		if id == nil {
			return common.ErrNotFound
		}
		var err error
		u, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *BoltRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u *models.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		u, err = getUser(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *BoltRepository) UpdatePhoto(ctx context.Context, id, photo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		u, err := getUser(tx, []byte(id))
		if err != nil {
			return err
		}
		u.Photo = photo
		payload, err := json.Marshal(toBolt(u))
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		return tx.Bucket([]byte(usersBucket)).Put([]byte(id), payload)
	})
}

func (r *BoltRepository) PhotoNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(usersBucket)).ForEach(func(_, v []byte) error {
			var bu boltUser
			if err := json.Unmarshal(v, &bu); err != nil {
				return fmt.Errorf("unmarshal user: %w", err)
			}
			if bu.Photo != "" {
				names = append(names, bu.Photo)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func getUser(tx *bbolt.Tx, id []byte) (*models.User, error) {
	if len(id) == 0 {
		return nil, common.ErrNotFound
	}
	payload := tx.Bucket([]byte(usersBucket)).Get(id)
	if payload == nil {
		return nil, common.ErrNotFound
	}
	var bu boltUser
	if err := json.Unmarshal(payload, &bu); err != nil {
		return nil, errors.Join(common.ErrStorage, fmt.Errorf("unmarshal user: %w", err))
	}
	return &models.User{
		ID:           bu.ID,
		Name:         bu.Name,
		Email:        bu.Email,
		PasswordHash: bu.PasswordHash,
		Photo:        bu.Photo,
		CreatedAt:    bu.CreatedAt,
	}, nil
}

func toBolt(u *models.User) boltUser {
	return boltUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Photo:        u.Photo,
		CreatedAt:    u.CreatedAt,
	}
}
