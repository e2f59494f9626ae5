package models

import "time"

// StoredFile describes a file owned by the logged-in user.
type StoredFile struct {
	ID             int64     `json:"id"`
	Filename       string    `json:"filename"`
	FileSize       int64     `json:"file_size"`
	OriginalSize   int64     `json:"original_size,omitempty"`
	CompressedSize int64     `json:"compressed_size,omitempty"`
	ShareCode      string    `json:"share_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
