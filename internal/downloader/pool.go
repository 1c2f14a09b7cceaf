package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/ratelimit"
	"tweetrelay/pkg/retry"
)

// Result statuses
const (
	StatusDownloaded = "downloaded"
	StatusSkipped    = "skipped"
	StatusFailed     = "failed"
)

// Job is a single image to fetch into Name
type Job struct {
	URL     string
	Name    string
	TweetID string
}

// Result represents the result of a download job
type Result struct {
	Job      Job
	Status   string
	Err      error
	Duration time.Duration
	Size     int
}

// Fetcher downloads the bytes behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Store persists downloaded files
type Store interface {
	Exists(name string) bool
	Save(r io.Reader, name string) error
}

// Options tune a WorkerPool. Limiter and Retry may be nil.
type Options struct {
	Workers int
	Limiter ratelimit.Limiter
	Retry   *retry.Config
	// OnResult is called from workers for every finished job
	OnResult func(status string)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	opts        Options
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     Fetcher
	store       Store
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(opts Options, fetcher Fetcher, store Store, log logger.Logger) *WorkerPool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		opts:        opts,
		jobQueue:    make(chan Job, opts.Workers*2),
		resultQueue: make(chan Result, opts.Workers),
		fetcher:     fetcher,
		store:       store,
		logger:      log,
	}
}

// Start launches the workers. Cancelling ctx abandons queued jobs.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.opts.Workers,
	})

	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for the workers and closes Results
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Debug("Worker pool stopped")
	})
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Job: job, Status: StatusFailed, Err: err}
		} else {
			result = wp.processJob(job, id)
		}

		if wp.opts.OnResult != nil {
			wp.opts.OnResult(result.Status)
		}
		// results are always delivered so Stop can drain the queue
		wp.resultQueue <- result
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job, Status: StatusFailed}

	if wp.store.Exists(job.Name) {
		result.Status = StatusSkipped
		result.Duration = time.Since(start)
		return result
	}

	data, err := retry.DoWithResult(wp.ctx, func(ctx context.Context) ([]byte, error) {
		if wp.opts.Limiter != nil {
			if err := wp.opts.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return wp.fetcher.Fetch(ctx, job.URL)
	}, wp.retryConfig())
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogDownload(job.URL, job.Name, false, err)
		return result
	}

	result.Size = len(data)

	if err := wp.store.Save(bytes.NewReader(data), job.Name); err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogDownload(job.URL, job.Name, false, err)
		return result
	}

	result.Status = StatusDownloaded
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"name":      job.Name,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

func (wp *WorkerPool) retryConfig() *retry.Config {
	if wp.opts.Retry != nil {
		return wp.opts.Retry
	}
	return &retry.Config{MaxAttempts: 1, Backoff: &retry.ConstantBackoff{}, Logger: wp.logger}
}

// Summary counts results by status
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	Errors     []error
}

// Run starts the pool, downloads every job and stops the pool. onResult,
// when set, sees each result as it arrives.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job, onResult func(Result)) Summary {
	wp.Start(ctx)

	go func() {
		defer wp.Stop()
		for _, job := range jobs {
			if err := wp.Submit(job); err != nil {
				return
			}
		}
	}()

	var sum Summary
	for r := range wp.Results() {
		switch r.Status {
		case StatusDownloaded:
			sum.Downloaded++
		case StatusSkipped:
			sum.Skipped++
		default:
			sum.Failed++
			if r.Err != nil {
				sum.Errors = append(sum.Errors, r.Err)
			}
		}
		if onResult != nil {
			onResult(r)
		}
	}
	return sum
}
