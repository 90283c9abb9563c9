package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/filex"
	"github.com/dmitrijs2005/gophlocker/internal/logging"
	"github.com/dmitrijs2005/gophlocker/internal/server/blobstore"
	"github.com/dmitrijs2005/gophlocker/internal/server/config"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"github.com/dmitrijs2005/gophlocker/internal/server/naming"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/users"
	"github.com/google/uuid"
)

// NoteInput carries the fields of a new note.
type NoteInput struct {
	UserID  string
	Title   string
	Content string
	Tags    []string
}

// FileInput carries an uploaded file. Mime is the client-declared type and
// may be empty.
type FileInput struct {
	UserID   string
	Title    string
	Tags     []string
	Filename string
	Mime     string
	Body     io.Reader
}

// Blob is an opened blob ready to be streamed to a client. The caller must
// close Body.
type Blob struct {
	Name    string
	Body    io.ReadCloser
	Mime    string
	Size    int64
	ModTime time.Time
}

// LockerService owns the lifecycle of locker items: it is the only component
// that creates or removes blobs referenced by items.
type LockerService struct {
	items  items.Repository
	users  users.Repository
	blobs  *BlobWriter
	prefix string
	logger logging.Logger

	now   func() time.Time
	newID func() (string, error)
}

// NewLockerService wires the engine to the metadata repositories and the
// shared blob writer.
func NewLockerService(m repomanager.RepositoryManager, blobs *BlobWriter, cfg *config.Config, l logging.Logger) *LockerService {
	return &LockerService{
		items:  m.Items(),
		users:  m.Users(),
		blobs:  blobs,
		prefix: cfg.UploadURLPrefix,
		logger: l.With("module", "locker"),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:  newID,
	}
}

// UploadPrefix returns the public prefix blobs are served under.
func (s *LockerService) UploadPrefix() string {
	return s.prefix
}

func (s *LockerService) CreateNote(ctx context.Context, in NoteInput) (*models.Item, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, common.Invalid("Content required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, common.Invalid("User ID required")
	}

	id, err := s.newID()
	if err != nil {
		return nil, storageError("generate id", err)
	}

	item := &models.Item{
		ID:        id,
		UserID:    in.UserID,
		Kind:      common.KindNote,
		Title:     strings.TrimSpace(in.Title),
		Content:   content,
		Tags:      NormalizeTags(in.Tags),
		CreatedAt: s.now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, storageError("create note", err)
	}

	s.logger.Info(ctx, "note created", "item_id", item.ID, "user_id", item.UserID)
	return item, nil
}

// CreateFile writes the blob first and the metadata second, so a failure in
// between leaves at worst an unreferenced blob.
func (s *LockerService) CreateFile(ctx context.Context, in FileInput) (*models.Item, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, common.Invalid("Empty filename")
	}
	safe, err := naming.Sanitize(in.Filename)
	if err != nil {
		return nil, err
	}
	if !filex.IsAllowed(safe) {
		return nil, common.ErrUnsupportedType
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, common.Invalid("User ID required")
	}
	if in.Body == nil {
		return nil, common.Invalid("No file uploaded")
	}

	id, err := s.newID()
	if err != nil {
		return nil, storageError("generate id", err)
	}

	name, size, err := s.blobs.Write(ctx, safe, in.Body)
	if err != nil {
		return nil, err
	}

	mime := filex.ContentType(name, strings.TrimSpace(in.Mime))
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = name
	}

	item := &models.Item{
		ID:        id,
		UserID:    in.UserID,
		Kind:      common.KindFile,
		Title:     title,
		BlobName:  name,
		Mime:      mime,
		Tags:      NormalizeTags(in.Tags),
		CreatedAt: s.now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		s.logger.Warn(ctx, "item insert failed, blob left for sweep", "blob", name, "error", err)
		return nil, storageError("create file item", err)
	}

	s.logger.Info(ctx, "file stored", "item_id", item.ID, "user_id", item.UserID, "blob", name, "size", size)
	return item, nil
}

// ListItems returns the user's items, newest first. Unknown users have none.
func (s *LockerService) ListItems(ctx context.Context, userID string) ([]*models.Item, error) {
	list, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError("list items", err)
	}
	if list == nil {
		list = []*models.Item{}
	}
	return list, nil
}

// DeleteItem removes the blob (best effort) and then the metadata record.
func (s *LockerService) DeleteItem(ctx context.Context, itemID string) error {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return storageError("get item", err)
	}

	if item.Kind == common.KindFile && item.BlobName != "" {
		if err := s.blobs.Store().Remove(ctx, item.BlobName); err != nil {
			s.logger.Warn(ctx, "could not remove blob", "item_id", item.ID, "blob", item.BlobName, "error", err)
		}
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return storageError("delete item", err)
	}

	s.logger.Info(ctx, "item deleted", "item_id", item.ID, "user_id", item.UserID)
	return nil
}

// FetchBlob opens a stored blob by name. Names that are not valid blob names
// are reported as not found.
func (s *LockerService) FetchBlob(ctx context.Context, name string) (*Blob, error) {
	if !blobstore.ValidName(name) {
		return nil, common.ErrNotFound
	}

	store := s.blobs.Store()
	info, err := store.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, storageError("stat blob", err)
	}

	body, err := store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, storageError("open blob", err)
	}

	return &Blob{
		Name:    name,
		Body:    body,
		Mime:    s.blobMime(ctx, name),
		Size:    info.Size,
		ModTime: info.ModTime,
	}, nil
}

func (s *LockerService) blobMime(ctx context.Context, name string) string {
	item, err := s.items.FindByBlob(ctx, name)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "mime lookup failed", "blob", name, "error", err)
		}
		return filex.MimeType(name)
	}
	return filex.ContentType(name, item.Mime)
}

// NormalizeTags trims tags, drops empty ones and duplicates, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag list as sent by multipart forms.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
