package service

import (
	"context"
	"errors"
	"time"

	"github.com/voyagen/m3uforge/internal/cache"
	"github.com/voyagen/m3uforge/internal/metrics"
	"go.uber.org/zap"
)

// Import jobs that find their document locked are retried this many times,
// importRetryDelay apart.
const importAttempts = 3

var (
	importRetryDelay = time.Second
	importPollWait   = 5 * time.Second // BRPOP timeout between ctx checks
)

// RunImportWorker dequeues import jobs from Redis and loads each remote
// playlist into its document. It returns when ctx is cancelled.
func RunImportWorker(ctx context.Context, rds *cache.Redis, ed *Editor, log *zap.Logger) {
	log.Info("import worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("import worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, importPollWait)
		if err != nil {
			log.Warn("import worker: dequeue", zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		ProcessImportJob(ctx, ed, job, log)
	}
}

// ProcessImportJob runs a single import job. Jobs for a document that is
// being edited are retried a few times before they are given up.
func ProcessImportJob(ctx context.Context, ed *Editor, job *cache.ImportJob, log *zap.Logger) {
	log = log.With(zap.Int64("document_id", job.DocumentID), zap.String("url", job.URL))
	log.Info("import worker: processing job")

	var err error
	for attempt := 0; attempt < importAttempts; attempt++ {
		if job.DocumentID == 0 {
			_, err = ed.ImportURL(ctx, job.Name, job.URL)
		} else {
			_, err = ed.Refresh(ctx, job.DocumentID, job.URL)
		}
		if !errors.Is(err, cache.ErrLocked) {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(importRetryDelay):
		}
	}

	if err != nil {
		metrics.ImportJobs.WithLabelValues("error").Inc()
		log.Error("import worker: job failed", zap.Error(err))
		return
	}
	metrics.ImportJobs.WithLabelValues("ok").Inc()
}
