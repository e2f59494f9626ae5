package models

import (
	"strings"
	"time"
)

// IngestKind tags an ingestion request.
type IngestKind string

const (
	IngestKindLocal   IngestKind = "local"
	IngestKindTorrent IngestKind = "torrent"
	IngestKindEd2k    IngestKind = "ed2k"
)

// IngestionRequest is one of LocalFile, TorrentFile or Ed2kLink.
type IngestionRequest interface {
	Kind() IngestKind
	// DisplayName is the best name known before the server answers.
	DisplayName() string
	isIngestionRequest()
}

// LocalFile uploads raw bytes; the server stores it synchronously.
type LocalFile struct {
	Name string
	Data []byte
}

func (LocalFile) Kind() IngestKind      { return IngestKindLocal }
func (f LocalFile) DisplayName() string { return f.Name }
func (LocalFile) isIngestionRequest()   {}

// TorrentFile submits BitTorrent metadata; the server starts a job.
type TorrentFile struct {
	Name     string
	Metadata []byte
}

func (TorrentFile) Kind() IngestKind      { return IngestKindTorrent }
func (f TorrentFile) DisplayName() string { return f.Name }
func (TorrentFile) isIngestionRequest()   {}

// Ed2kLink submits an ed2k:// link; the server starts a job.
type Ed2kLink struct {
	Link string
}

func (Ed2kLink) Kind() IngestKind    { return IngestKindEd2k }
func (Ed2kLink) isIngestionRequest() {}

// DisplayName returns the file name embedded in an
// ed2k://|file|<name>|<size>|<hash>|/ link, or the link itself.
func (l Ed2kLink) DisplayName() string {
	parts := strings.Split(l.Link, "|")
	if len(parts) >= 3 && parts[1] == "file" && parts[2] != "" {
		return parts[2]
	}
	return l.Link
}

// UploadForm is the normalized multipart submission for POST /api/upload.
type UploadForm struct {
	// Type is the discriminator field; empty for local uploads.
	Type string
	// FileField names the multipart file part ("file" or "torrent_file").
	FileField string
	FileName  string
	Content   []byte
	// Link is sent as the ed2k_link form value.
	Link string
}

// UploadResponse is the acknowledgment of POST /api/upload.
type UploadResponse struct {
	Message        string `json:"message"`
	Filename       string `json:"filename"`
	DownloadID     string `json:"download_id,omitempty"`
	OriginalSize   int64  `json:"original_size,omitempty"`
	CompressedSize int64  `json:"compressed_size,omitempty"`
}

// SubmissionOutcome is what the dispatcher returns on success. JobID is
// empty for local uploads, which complete synchronously and carry File.
type SubmissionOutcome struct {
	Kind     IngestKind
	Filename string
	JobID    string
	File     *StoredFile
}

// HistoryStatus is the result recorded for one submission.
type HistoryStatus string

const (
	HistorySuccess HistoryStatus = "success"
	HistoryError   HistoryStatus = "error"
)

// HistoryEntry is one line of the append-only ingestion history.
type HistoryEntry struct {
	ID        string
	SessionID string
	Filename  string
	Kind      IngestKind
	Status    HistoryStatus
	Error     string
	JobID     string
	CreatedAt time.Time
}
