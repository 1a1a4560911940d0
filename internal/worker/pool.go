// Package worker runs jobs on a fixed number of goroutines and hands back
// one typed outcome per job.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by Submit after Close or Abort.
	ErrClosed = errors.New("pool closed")
	// ErrPanic wraps a panic raised by a job.
	ErrPanic = errors.New("job panicked")
)

// Job is one unit of work. Index is echoed in the Outcome so callers can
// put results back in input order.
type Job[T any] struct {
	Index int
	// Name labels the job in errors. An empty name gets a random UUID.
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome is what a job produced.
type Outcome[T any] struct {
	Index   int
	Name    string
	Value   T
	Err     error
	Elapsed time.Duration
}

// Config sizes a pool.
type Config struct {
	Workers   int // default GOMAXPROCS
	QueueSize int // job and outcome buffer, default Workers * 2
}

// Pool executes submitted jobs concurrently.
type Pool[T any] struct {
	workers  int
	jobs     chan Job[T]
	outcomes chan Outcome[T]
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// mu guards closed and the send side of jobs.
	mu     sync.RWMutex
	closed bool
	once   sync.Once

	done     atomic.Int64
	failed   atomic.Int64
	panicked atomic.Int64
}

// New starts a pool whose jobs run under a child of ctx. Callers that do
// not read Outcomes while submitting must size QueueSize to the number of
// jobs.
func New[T any](ctx context.Context, cfg Config) *Pool[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool[T]{
		workers:  cfg.Workers,
		jobs:     make(chan Job[T], cfg.QueueSize),
		outcomes: make(chan Outcome[T], cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pool[T]) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		out := p.run(job)
		p.done.Add(1)
		if out.Err != nil {
			p.failed.Add(1)
		}
		select {
		case p.outcomes <- out:
		case <-p.ctx.Done():
			return
		}
	}
}

// run executes job unless the pool is already cancelled. A panic becomes
// an ErrPanic outcome.
func (p *Pool[T]) run(job Job[T]) (out Outcome[T]) {
	out = Outcome[T]{Index: job.Index, Name: job.Name}
	if err := p.ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	defer func() {
		out.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			out.Err = fmt.Errorf("%w: %s: %v", ErrPanic, job.Name, r)
		}
	}()
	out.Value, out.Err = job.Run(p.ctx)
	return out
}

// Submit queues job, blocking while the queue is full.
func (p *Pool[T]) Submit(job Job[T]) error {
	if job.Name == "" {
		job.Name = uuid.NewString()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Outcomes delivers one outcome per finished job. It is closed when the
// pool shuts down.
func (p *Pool[T]) Outcomes() <-chan Outcome[T] {
	return p.outcomes
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (p *Pool[T]) Close() {
	p.shutdown(false)
}

// Abort cancels running jobs and discards the queue.
func (p *Pool[T]) Abort() {
	p.shutdown(true)
}

func (p *Pool[T]) shutdown(abort bool) {
	p.once.Do(func() {
		if abort {
			// Unblocks a Submit waiting on a full queue before taking mu.
			p.cancel()
		}
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()

		p.wg.Wait()
		p.cancel()
		close(p.outcomes)
	})
}

// Stats returns counters for the jobs seen so far.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Workers:  p.workers,
		Done:     p.done.Load(),
		Failed:   p.failed.Load(),
		Panicked: p.panicked.Load(),
		Queued:   len(p.jobs),
	}
}

// Stats summarizes a pool.
type Stats struct {
	Workers  int
	Done     int64
	Failed   int64
	Panicked int64
	Queued   int
}

func (s Stats) String() string {
	return fmt.Sprintf("workers=%d done=%d failed=%d panicked=%d queued=%d",
		s.Workers, s.Done, s.Failed, s.Panicked, s.Queued)
}
