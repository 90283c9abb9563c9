// Package filex classifies uploaded files by extension.
package filex

import (
	"mime"
	"path/filepath"
	"strings"
)

// Image extensions accepted for profile photos and locker files.
var imageExts = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// Document extensions accepted for locker files in addition to images.
var documentExts = map[string]string{
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Ext returns the lower-cased extension of name without the dot, or ""
// when name has none.
func Ext(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// IsImage reports whether name carries an allowed image extension.
func IsImage(name string) bool {
	_, ok := imageExts[Ext(name)]
	return ok
}

// IsAllowed reports whether name may be stored in a locker.
func IsAllowed(name string) bool {
	ext := Ext(name)
	if _, ok := imageExts[ext]; ok {
		return true
	}
	_, ok := documentExts[ext]
	return ok
}

// MimeType returns the content type for name's extension, falling back to
// application/octet-stream.
func MimeType(name string) string {
	ext := Ext(name)
	if m, ok := imageExts[ext]; ok {
		return m
	}
	if m, ok := documentExts[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// ContentType returns declared when its media type matches the type of
// name's extension, keeping parameters such as charset. Otherwise it
// returns MimeType(name).
func ContentType(name, declared string) string {
	want := MimeType(name)
	got, _, err := mime.ParseMediaType(declared)
	if err != nil || got != want {
		return want
	}
	return declared
}
