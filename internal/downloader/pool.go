package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	errs "imgsearch/pkg/errors"
	"imgsearch/pkg/google"
	"imgsearch/pkg/logger"
	"imgsearch/pkg/storage"
)

// DownloadJob represents a single image download
type DownloadJob struct {
	// Position of the record in the query's record list
	Position int
	// Index names the output file
	Index int
	URL   string
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Path     string
	Bytes    int64
	Err      error
	Duration time.Duration
}

// ImageFetcher downloads an image body together with its content type
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (*google.Image, error)
}

// ImageStorage persists image bytes under a record index
type ImageStorage interface {
	SaveImage(r io.Reader, index int, ext string) (string, int64, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     ImageFetcher
	storage     ImageStorage
	logger      logger.Logger
}

// NewWorkerPool creates a download worker pool bound to ctx.
// numWorkers <= 0 starts one worker per CPU.
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	fetcher ImageFetcher,
	store ImageStorage,
	log logger.Logger,
) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2),
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		storage:     store,
		logger:      log,
	}
}

// Start launches all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs and closes Results.
// It must be called exactly once, after the last Submit.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel of finished jobs. Callers must drain it
// until it is closed.
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// NumWorkers returns the number of workers
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		// A processed job is always reported; Results is drained until Stop closes it
		wp.resultQueue <- wp.processJob(job, id)
	}
}

// processJob fetches one image and writes it as <index><ext>, where the
// extension comes from the response content type alone
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}

	fail := func(err error) DownloadResult {
		result.Err = err
		result.Duration = time.Since(start)
		wp.logger.DebugWithFields("Download failed", map[string]interface{}{
			"worker_id": workerID,
			"index":     job.Index,
			"url":       job.URL,
			"error":     err.Error(),
		})
		return result
	}

	if job.URL == "" {
		return fail(errs.Fetch("record has no source URL", 0, nil))
	}

	img, err := wp.fetcher.FetchImage(wp.ctx, job.URL)
	if err != nil {
		return fail(fmt.Errorf("download failed: %w", err))
	}

	ext, err := storage.ExtensionFor(img.ContentType)
	if err != nil {
		return fail(errs.Fetch("unusable content type", 0, err))
	}

	path, n, err := wp.storage.SaveImage(bytes.NewReader(img.Data), job.Index, ext)
	if err != nil {
		return fail(fmt.Errorf("save failed: %w", err))
	}

	result.Path = path
	result.Bytes = n
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Download completed", map[string]interface{}{
		"worker_id": workerID,
		"index":     job.Index,
		"bytes":     n,
		"duration":  result.Duration,
	})

	return result
}
