// Package worker implements the download orchestrator: a bounded pool
// of workers that drains the pending songs of one scope.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coindxter/class-music/internal/models"
	"github.com/coindxter/class-music/internal/store"
)

// Fetcher resolves a song's link to a local audio file. Implemented by
// the downloader; faked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, song models.Song, progress chan<- int) (string, error)
}

// Publisher receives lifecycle events. Implemented by the events hub.
type Publisher interface {
	Publish(event models.ProgressEvent)
}

type FailedSong struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

type Result struct {
	Succeeded []string     `json:"downloaded"`
	Failed    []FailedSong `json:"failed"`
}

type Orchestrator struct {
	store      store.Store
	fetcher    Fetcher
	publisher  Publisher
	workers    int
	jobTimeout time.Duration
	logger     *slog.Logger
}

func NewOrchestrator(
	db store.Store,
	fetcher Fetcher,
	publisher Publisher,
	workers int,
	jobTimeout time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      db,
		fetcher:    fetcher,
		publisher:  publisher,
		workers:    workers,
		jobTimeout: jobTimeout,
		logger:     logger.WithGroup("worker"),
	}
}

// DownloadPending downloads every pending song of one student. Jobs
// run on a pool capped at min(workers, jobs); one job's failure never
// cancels its siblings. The returned error is non-nil only when the
// store itself failed.
func (o *Orchestrator) DownloadPending(ctx context.Context, studentID int64) (Result, error) {
	var result Result

	pending, err := o.store.ListPendingByStudent(ctx, studentID)
	if err != nil {
		return result, err
	}
	if len(pending) == 0 {
		return result, nil
	}

	total := len(pending)
	o.publisher.Publish(models.StartEvent(total))

	width := o.workers
	if width <= 0 {
		width = 1
	}
	if total < width {
		width = total
	}

	jobs := make(chan models.DownloadJob)
	done := make(chan models.DownloadJob)
	for id := 0; id < width; id++ {
		go o.work(ctx, jobs, done, o.logger.With("id", id))
	}
	go func() {
		for _, song := range pending {
			jobs <- models.DownloadJob{
				ID:     uuid.New(),
				Song:   song,
				Status: models.StatusPending,
			}
		}
		close(jobs)
	}()

	var storeErr error
	for completed := 1; completed <= total; completed++ {
		job := <-done
		o.publisher.Publish(models.ProgressTick(completed, total, job.Song.Title))
		switch job.Status {
		case models.StatusSucceeded:
			result.Succeeded = append(result.Succeeded, job.Song.Title)
		default:
			msg := "unknown error"
			if job.Error != nil {
				msg = *job.Error
			}
			result.Failed = append(result.Failed, FailedSong{Title: job.Song.Title, Error: msg})
			if job.StoreErr != nil && errors.Is(job.StoreErr, store.ErrDatabase) && storeErr == nil {
				storeErr = job.StoreErr
			}
		}
	}

	failedTitles := make([]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		failedTitles = append(failedTitles, f.Title)
	}
	o.publisher.Publish(models.CompleteEvent(len(result.Succeeded), failedTitles))
	return result, storeErr
}

func (o *Orchestrator) work(ctx context.Context, jobs <-chan models.DownloadJob, done chan<- models.DownloadJob, logger *slog.Logger) {
	for job := range jobs {
		job.Status = models.StatusInFlight
		o.publisher.Publish(models.StatusEvent(job.Song.Title, "starting", nil))

		err := o.runJob(ctx, &job, logger.With("job", job.ID))
		if err != nil {
			msg := err.Error()
			job.Error = &msg
			job.Status = models.StatusFailed
			logger.ErrorContext(ctx, fmt.Sprintf("job failed for %q: %v", job.Song.Title, err))
			o.publisher.Publish(models.StatusEvent(job.Song.Title, "failed", &msg))
		} else {
			job.Status = models.StatusSucceeded
			o.publisher.Publish(models.StatusEvent(job.Song.Title, "done", nil))
		}
		done <- job
	}
}

func (o *Orchestrator) runJob(ctx context.Context, job *models.DownloadJob, logger *slog.Logger) error {
	jctx, cancel := context.WithTimeout(ctx, o.jobTimeout)
	defer cancel()

	progress := make(chan int)
	go func() {
		for percent := range progress {
			logger.DebugContext(jctx, fmt.Sprintf("progress %d%%", percent))
		}
	}()

	filename, err := o.fetcher.Fetch(jctx, job.Song, progress)
	if err != nil {
		return err
	}
	err = o.store.MarkDownloaded(ctx, job.Song.ID, filename)
	if errors.Is(err, store.ErrSongNotFound) {
		// record deleted mid-flight, not fatal to the batch
		return fmt.Errorf("song removed during download: %w", err)
	}
	if err != nil {
		job.StoreErr = err
		return err
	}
	return nil
}
