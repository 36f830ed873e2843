package screening

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fursaver-site/internal/logger"
	"fursaver-site/internal/observer"
	"fursaver-site/internal/storage"
	"fursaver-site/internal/workerpool"
)

// ErrReportDropped is recorded when the archive pool is saturated or closed
var ErrReportDropped = errors.New("archive queue full or closed")

// Archiver keeps a copy of completed reports
type Archiver interface {
	Archive(sessionID string, report *Report)
}

type archivedReport struct {
	SessionID  string    `json:"session_id"`
	ArchivedAt time.Time `json:"archived_at"`
	Report     *Report   `json:"report"`
}

// BlobArchiver uploads reports on the worker pool so analysis responses never
// wait for the archive. When the pool is saturated the report is dropped and
// counted as an archive failure.
type BlobArchiver struct {
	pool      *workerpool.WorkerPool
	archive   storage.ReportArchive
	publisher observer.Subject
	timeout   time.Duration
	now       func() time.Time
}

func NewBlobArchiver(pool *workerpool.WorkerPool, archive storage.ReportArchive, publisher observer.Subject, timeout time.Duration) *BlobArchiver {
	return &BlobArchiver{
		pool:      pool,
		archive:   archive,
		publisher: publisher,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (a *BlobArchiver) Archive(sessionID string, report *Report) {
	at := a.now()
	data, err := json.Marshal(archivedReport{SessionID: sessionID, ArchivedAt: at, Report: report})
	if err != nil {
		logger.WithError(err).Error("Failed to encode report for archiving")
		return
	}
	name := storage.ReportBlobName(sessionID, at)

	submitted := a.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		event := observer.Event{
			EventType: observer.ReportArchived,
			SessionID: sessionID,
			Success:   true,
			Metadata:  map[string]interface{}{"blob": name},
		}
		if err := a.archive.Put(ctx, name, data); err != nil {
			event.EventType = observer.ReportArchiveFailed
			event.Success = false
			event.ErrorMessage = err.Error()
		}
		a.publisher.NotifyObservers(ctx, event)
	})
	if !submitted {
		logger.WithField("blob", name).Warn("Report not archived, archive pool busy or closed")
		a.publisher.NotifyObservers(context.Background(), observer.Event{
			EventType:    observer.ReportArchiveFailed,
			SessionID:    sessionID,
			ErrorMessage: ErrReportDropped.Error(),
			Metadata:     map[string]interface{}{"blob": name},
		})
	}
}

type noopArchiver struct{}

// NoopArchiver drops every report
func NoopArchiver() Archiver {
	return noopArchiver{}
}

func (noopArchiver) Archive(string, *Report) {}
