// Package worker provides an asynchronous worker pool for persisting
// completed tutoring turns using the provided history.Driver.
//
// The pool decouples storage operations from the streaming hot path: the
// client enqueues a turn the moment its stream completes and goes back to
// reading the next response without waiting on the database.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/tutorloop/tutorstream/pkg/history"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Turn *history.Turn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting turns.
	Driver history.Driver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job
// being dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"turn_id", job.Turn.ID,
			"conversation", job.Turn.ConversationID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"turn_id", job.Turn.ID,
			"conversation", job.Turn.ConversationID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the last stream has completed.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker goroutine that continuously pulls jobs off the
// jobs queue.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

// processJob persists a single completed turn.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Driver.Put(ctx, job.Turn); err != nil {
		p.logger.Error("async turn storage failed",
			"turn_id", job.Turn.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("turn stored",
		"turn_id", job.Turn.ID,
		"conversation", job.Turn.ConversationID,
	)
}
