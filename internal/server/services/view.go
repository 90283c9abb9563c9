package services

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
)

// TimeLayout renders timestamps as ISO-8601 with microseconds in UTC.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SerializeItem is the only conversion of an item into its external shape.
// Per kind, absent fields are present with a nil value; tags is never nil.
func SerializeItem(item *models.Item, uploadPrefix string) map[string]any {
	out := map[string]any{
		"id":         item.ID,
		"user_id":    item.UserID,
		"type":       item.Kind,
		"title":      item.Title,
		"content":    nil,
		"file_path":  nil,
		"mime":       nil,
		"tags":       []string{},
		"created_at": nil,
	}

	switch item.Kind {
	case common.KindNote:
		out["content"] = item.Content
	case common.KindFile:
		out["file_path"] = PublicPath(uploadPrefix, item.BlobName)
		out["mime"] = item.Mime
	}

	if item.Tags != nil {
		tags := make([]string, len(item.Tags))
		copy(tags, item.Tags)
		out["tags"] = tags
	}
	if !item.CreatedAt.IsZero() {
		out["created_at"] = FormatTime(item.CreatedAt)
	}
	return out
}

// SerializeItems maps SerializeItem over items, never returning nil.
func SerializeItems(items []*models.Item, uploadPrefix string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, SerializeItem(it, uploadPrefix))
	}
	return out
}

// PublicPath joins the public upload prefix and a blob name.
func PublicPath(uploadPrefix, name string) string {
	return strings.TrimRight(uploadPrefix, "/") + "/" + name
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
