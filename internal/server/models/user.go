// Package models defines server-side records persisted in the metadata store.
package models

import "time"

// User is an account record. Email is stored normalized (trimmed and
// case-folded) and is unique across all users.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	// Photo is the blob name of the profile photo, empty when none was uploaded.
	Photo     string
	CreatedAt time.Time
}
