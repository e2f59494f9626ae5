// Package models defines the client-side data model: ingestion requests,
// download jobs, share sessions and stored files.
package models

// JobKind is the origin of a server-side acquisition job.
type JobKind string

const (
	JobKindTorrent JobKind = "torrent"
	JobKindEd2k    JobKind = "ed2k"
)

// JobStatus is the lifecycle state of a Job as reported by the server.
type JobStatus string

const (
	JobStatusStarting    JobStatus = "starting"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusError       JobStatus = "error"
)

func (s JobStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the four known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusStarting, JobStatusDownloading, JobStatusCompleted, JobStatusError:
		return true
	}
	return false
}

// IsActive returns true while the job still needs polling.
func (s JobStatus) IsActive() bool {
	return s == JobStatusStarting || s == JobStatusDownloading
}

// IsTerminal returns true for the absorbing states completed and error.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// CanTransition reports whether moving from s to next is allowed:
//
//	starting    -> starting | downloading | completed | error
//	downloading -> downloading | completed | error
//	completed, error -> nothing
func (s JobStatus) CanTransition(next JobStatus) bool {
	if !next.Valid() {
		return false
	}
	switch s {
	case JobStatusStarting:
		return true
	case JobStatusDownloading:
		return next != JobStatusStarting
	default:
		return false
	}
}

// Job is one asynchronous acquisition task tracked by the client.
type Job struct {
	ID       string
	Filename string
	Kind     JobKind
	Status   JobStatus
	// Progress is a percentage in [0,100]; it only means something while
	// Status is downloading (and is 100 after completion).
	Progress int
	// Error is set only when Status is error.
	Error string
}

// Snapshot is one entry of the server's job listing.
type Snapshot struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Type     JobKind   `json:"type"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Error    string    `json:"error,omitempty"`
}
