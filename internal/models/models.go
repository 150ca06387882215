package models

import (
	"github.com/google/uuid"
)

// ClassPeriod groups students for one teaching block.
type ClassPeriod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Student struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ClassID int64  `json:"class_id"`
}

type Artist struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StudentID int64  `json:"student_id"`
}

// Song is the persisted unit of the acquisition pipeline. FilePath is
// nil until a download completed; it is the only signal for "pending".
type Song struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Link     string  `json:"link"`
	ArtistID int64   `json:"artist_id"`
	FilePath *string `json:"file_path,omitempty"`
}

func (s Song) Pending() bool {
	return s.FilePath == nil
}

type JobStatus string

var (
	StatusPending   JobStatus = "Pending"
	StatusInFlight  JobStatus = "InFlight"
	StatusSucceeded JobStatus = "Succeeded"
	StatusFailed    JobStatus = "Failed"
)

// DownloadJob tracks one song through a single orchestrator run.
// Never persisted.
type DownloadJob struct {
	ID     uuid.UUID
	Song   Song
	Status JobStatus
	Error  *string
	// StoreErr keeps the raw registry error so the orchestrator can
	// tell a lost record from an unreachable store.
	StoreErr error
}

// Event names carried on the push channel.
const (
	EventDownloadStart    = "download_start"
	EventDownloadStatus   = "download_status"
	EventDownloadProgress = "download_progress"
	EventDownloadComplete = "download_complete"
)

// ProgressEvent is one message on the push channel. Which fields are
// set depends on Name.
type ProgressEvent struct {
	Name    string `json:"event"`
	Total   int    `json:"total,omitempty"`
	Current int    `json:"current,omitempty"`
	Title   string `json:"title,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`

	Succeeded    int      `json:"succeeded,omitempty"`
	FailedTitles []string `json:"failed_titles,omitempty"`
}

func StartEvent(total int) ProgressEvent {
	return ProgressEvent{Name: EventDownloadStart, Total: total}
}

func StatusEvent(title, status string, errmsg *string) ProgressEvent {
	e := ProgressEvent{Name: EventDownloadStatus, Title: title, Status: status}
	if errmsg != nil {
		e.Error = *errmsg
	}
	return e
}

func ProgressTick(current, total int, lastItem string) ProgressEvent {
	return ProgressEvent{Name: EventDownloadProgress, Current: current, Total: total, Title: lastItem}
}

func CompleteEvent(succeeded int, failedTitles []string) ProgressEvent {
	return ProgressEvent{Name: EventDownloadComplete, Succeeded: succeeded, FailedTitles: failedTitles}
}
