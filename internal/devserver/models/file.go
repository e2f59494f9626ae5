// Package models defines the development backend's in-memory records.
package models

import "time"

// File is a stored object owned by a user.
type File struct {
	ID           int64
	UserID       string
	Filename     string
	Data         []byte
	OriginalSize int64
	ShareCode    string
	CreatedAt    time.Time
}

// Share exposes a file under a short public code. PasswordHash is empty
// for open shares.
type Share struct {
	Code         string
	FileID       int64
	UserID       string
	PasswordHash []byte
	CreatedAt    time.Time
}

func (s *Share) HasPassword() bool { return len(s.PasswordHash) > 0 }
