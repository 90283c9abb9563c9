// Package users stores account records. Implementations translate driver
// errors into common.ErrNotFound and common.ErrDuplicateEmail.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophlocker/internal/server/models"
)

type Repository interface {
	// Create inserts user. The email must already be normalized.
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePhoto(ctx context.Context, id, photo string) error
	// PhotoNames returns every blob name referenced as a profile photo.
	PhotoNames(ctx context.Context) ([]string, error)
}
