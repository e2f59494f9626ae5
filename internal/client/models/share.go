package models

import (
	"io"
	"time"
)

// ShareSession is the unauthenticated metadata of a share code. The share
// password is deliberately not part of it.
type ShareSession struct {
	Code        string    `json:"-"`
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
	Username    string    `json:"username,omitempty"`
	HasPassword bool      `json:"has_password"`
}

// ShareGrant is returned when the owner shares a file.
type ShareGrant struct {
	Code        string `json:"share_code"`
	HasPassword bool   `json:"has_password"`
}

// RetrievalMode selects the download or preview endpoint.
type RetrievalMode string

const (
	ModeDownload RetrievalMode = "download"
	ModePreview  RetrievalMode = "preview"
)

// Payload is a binary response body. The receiver must close Body.
type Payload struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}
