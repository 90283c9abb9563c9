package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"github.com/dmitrijs2005/gophlocker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeItem_Note(t *testing.T) {
	at := time.Date(2026, 7, 8, 9, 10, 11, 123456789, time.FixedZone("X", 3*3600))
	view := SerializeItem(&models.Item{
		ID: "i1", UserID: "u1", Kind: common.KindNote, Title: "t", Content: "hello", CreatedAt: at,
	}, "/uploads")

	assert.Equal(t, map[string]any{
		"id":         "i1",
		"user_id":    "u1",
		"type":       "note",
		"title":      "t",
		"content":    "hello",
		"file_path":  nil,
		"mime":       nil,
		"tags":       []string{},
		"created_at": "2026-07-08T06:10:11.123456Z",
	}, view)
}

func TestSerializeItem_File(t *testing.T) {
	view := SerializeItem(&models.Item{
		ID: "i2", UserID: "u1", Kind: common.KindFile, Title: "cat",
		BlobName: "cat.png", Mime: "image/png", Tags: []string{"pets"},
	}, "/files/")

	assert.Nil(t, view["content"])
	assert.Equal(t, "/files/cat.png", view["file_path"])
	assert.Equal(t, "image/png", view["mime"])
	assert.Equal(t, []string{"pets"}, view["tags"])
	assert.Nil(t, view["created_at"])
}

func TestSerializeItem_JSONShape(t *testing.T) {
	b, err := json.Marshal(SerializeItem(&models.Item{ID: "i1", Kind: common.KindNote, Content: "x"}, "/uploads"))
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Len(t, back, 9)
	assert.Equal(t, []any{}, back["tags"])
	assert.Contains(t, back, "file_path")
	assert.Nil(t, back["file_path"])
}

func TestSerializeItems_NeverNil(t *testing.T) {
	out := SerializeItems(nil, "/uploads")
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{}, SplitTags(""))
	assert.Equal(t, []string{"a", "b"}, SplitTags(" a, b ,,a"))
}
