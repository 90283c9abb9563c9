package common

// Item kinds stored in the locker.
const (
	KindNote = "note"
	KindFile = "file"
)

// DefaultUploadURLPrefix is the public path under which blobs are served.
const DefaultUploadURLPrefix = "/uploads"
