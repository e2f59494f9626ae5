package models

import "time"

// Download statuses as reported by GET /api/downloads.
const (
	DownloadStarting    = "starting"
	DownloadDownloading = "downloading"
	DownloadCompleted   = "completed"
	DownloadError       = "error"
)

// Download is a simulated server-side torrent or ed2k fetch.
type Download struct {
	ID        string
	UserID    string
	Filename  string
	Kind      string
	Status    string
	Progress  int
	Error     string
	CreatedAt time.Time
}

func (d *Download) Active() bool {
	return d.Status == DownloadStarting || d.Status == DownloadDownloading
}
