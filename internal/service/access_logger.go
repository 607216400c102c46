package service

import (
	"context"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/metrics"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/repository"
	"log"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
)

const accessWriteTimeout = 5 * time.Second

// AccessLogger prints one line per response and, when a repository is set,
// persists the record on a single background worker so that slow writes
// never hold up a connection.
type AccessLogger struct {
	repo    repository.AccessRepository
	metrics *metrics.Metrics

	mu     sync.Mutex
	closed bool
	pool   *workerpool.WorkerPool
}

// NewAccessLogger creates an access logger. repo may be nil.
func NewAccessLogger(repo repository.AccessRepository, metrics *metrics.Metrics) *AccessLogger {
	return &AccessLogger{
		repo:    repo,
		metrics: metrics,
		pool:    workerpool.New(1),
	}
}

// Record logs rec and queues it for persistence
func (l *AccessLogger) Record(rec *models.AccessRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	log.Printf("conn_id=%s: %s %s status=%d bytes=%d duration=%s remote=%s",
		rec.ConnID, rec.Method, rec.Path, rec.Status, rec.Bytes, rec.Duration, rec.RemoteAddr)

	if l.repo == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	l.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), accessWriteTimeout)
		defer cancel()

		if err := l.repo.RecordAccess(ctx, rec); err != nil {
			l.metrics.IncrementAccessLogErrors()
			log.Printf("conn_id=%s: error recording access: %v", rec.ConnID, err)
		}
	})
}

// Summary returns stored response counts per status code
func (l *AccessLogger) Summary(ctx context.Context) (map[int]int64, error) {
	if l.repo == nil {
		return map[int]int64{}, nil
	}
	return l.repo.CountByStatus(ctx)
}

// Close waits for queued records to be written. Records passed to Record
// afterwards are only logged.
func (l *AccessLogger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.pool.StopWait()
}
