package queue

import (
	"context"
	"sync"

	"github.com/imyashkale/geoconnect/internal/logger"
)

// ProbeJob asks for a liveness check of one server
type ProbeJob struct {
	ServerID    string
	RequestedBy string
}

// Handler processes one probe job
type Handler func(ctx context.Context, job *ProbeJob) error

// JobQueue manages the job queue with a channel-based system
type JobQueue struct {
	jobs chan *ProbeJob
	done chan struct{}
	mu   sync.RWMutex
}

// NewJobQueue creates a new job queue with the specified buffer size
func NewJobQueue(bufferSize int) *JobQueue {
	return &JobQueue{
		jobs: make(chan *ProbeJob, bufferSize),
		done: make(chan struct{}),
	}
}

// Enqueue adds a job to the queue. It returns ErrQueueFull instead of
// blocking when the buffer is full.
func (jq *JobQueue) Enqueue(job *ProbeJob) error {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	select {
	case <-jq.done:
		logger.WithField("server_id", job.ServerID).Warn("Failed to enqueue probe job: queue is closed")
		return ErrQueueClosed
	default:
	}

	select {
	case jq.jobs <- job:
		logger.WithFields(map[string]interface{}{
			"server_id":    job.ServerID,
			"requested_by": job.RequestedBy,
		}).Debug("Probe job enqueued")
		return nil
	default:
		logger.WithField("server_id", job.ServerID).Warn("Failed to enqueue probe job: queue is full")
		return ErrQueueFull
	}
}

// Jobs returns the underlying channel for job consumption
func (jq *JobQueue) Jobs() <-chan *ProbeJob {
	return jq.jobs
}

// Close stops accepting jobs; queued jobs are still delivered
func (jq *JobQueue) Close() {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	select {
	case <-jq.done:
		return // Already closed
	default:
		close(jq.done)
		close(jq.jobs)
	}
}

// WorkerPool manages multiple workers processing jobs
type WorkerPool struct {
	queue   *JobQueue
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	once    sync.Once
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queue *JobQueue, numWorkers int) *WorkerPool {
	return &WorkerPool{
		queue:   queue,
		workers: numWorkers,
		done:    make(chan struct{}),
	}
}

// Start starts all workers
func (wp *WorkerPool) Start(ctx context.Context, handler Handler) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i, handler)
	}
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(ctx context.Context, id int, handler Handler) {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.queue.Jobs():
			if !ok {
				logger.WithField("worker", id).Debug("Worker exiting: jobs channel closed")
				return
			}
			if job == nil {
				continue
			}

			if err := handler(ctx, job); err != nil {
				logger.WithFields(map[string]interface{}{
					"worker":    id,
					"server_id": job.ServerID,
					"error":     err.Error(),
				}).Error("Worker failed to process probe job")
			} else {
				logger.WithFields(map[string]interface{}{
					"worker":    id,
					"server_id": job.ServerID,
				}).Debug("Worker completed probe job")
			}
		case <-wp.done:
			logger.WithField("worker", id).Debug("Worker exiting: stop signal received")
			return
		}
	}
}

// Stop stops all workers without draining the queue
func (wp *WorkerPool) Stop() {
	wp.once.Do(func() { close(wp.done) })
	wp.wg.Wait()
}

// Wait waits for all workers to finish
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}
