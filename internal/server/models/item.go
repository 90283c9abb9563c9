package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
)

// Item is a locker entry owned by a user: either a note or a file.
type Item struct {
	ID     string
	UserID string
	Kind   string
	Title  string

	// Content is set for notes only.
	Content string

	// BlobName is the resolved blob store name, set for files only.
	BlobName string
	Mime     string

	Tags      []string
	CreatedAt time.Time
}

// Validate checks the kind invariant: a note carries content and no blob,
// a file carries a blob reference and a MIME type and no content.
func (i *Item) Validate() error {
	switch i.Kind {
	case common.KindNote:
		if strings.TrimSpace(i.Content) == "" {
			return common.Invalid("note content required")
		}
		if i.BlobName != "" || i.Mime != "" {
			return common.Invalid("note must not reference a blob")
		}
	case common.KindFile:
		if i.BlobName == "" || i.Mime == "" {
			return common.Invalid("file must reference a blob and mime type")
		}
		if i.Content != "" {
			return common.Invalid("file must not carry content")
		}
	default:
		return common.Invalid("unknown item type")
	}
	if i.UserID == "" {
		return common.Invalid("user id required")
	}
	return nil
}
