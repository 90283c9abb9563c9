package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/users"
)

// RepositoryManager owns the metadata store connection and vends the
// repositories bound to it.
type RepositoryManager interface {
	Users() users.Repository
	Items() items.Repository
	Ping(ctx context.Context) error
	Close() error
}
