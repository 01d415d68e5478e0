// Package tasks runs fire-and-forget work (search indexing, follower
// notification) off the request path on a small worker pool.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task names
const (
	SearchIndex     = "search.index"
	NotifyFollowers = "followers.notify"
)

var (
	ErrAlreadyStarted = errors.New("dispatcher already started")
	ErrNotStarted     = errors.New("dispatcher not started")
)

// Task is a unit of background work about a post.
type Task struct {
	Name       string
	PostID     uuid.UUID
	AuthorID   uuid.UUID
	EnqueuedAt time.Time
}

// Handler executes one task. Returned errors are logged only.
type Handler func(ctx context.Context, task Task) error

// Config sizes the worker pool.
type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   256,
		TaskTimeout: 5 * time.Second,
	}
}

// Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Queued    int
	Capacity  int
	Processed uint64
	Failed    uint64
	Dropped   uint64
}

// Dispatcher fans tasks out to registered handlers on a bounded queue.
type Dispatcher struct {
	logger   *zap.Logger
	cfg      Config
	handlers map[string]Handler
	queue    chan Task
	onDrop   func()

	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	stopped bool

	statsMu   sync.Mutex
	processed uint64
	failed    uint64
	dropped   uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDropHook installs a callback invoked whenever a task is dropped.
func WithDropHook(fn func()) Option {
	return func(d *Dispatcher) { d.onDrop = fn }
}

// NewDispatcher creates a dispatcher. Zero config fields take defaults.
func NewDispatcher(logger *zap.Logger, cfg Config, opts ...Option) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	d := &Dispatcher{
		logger:   logger,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		queue:    make(chan Task, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds a handler to a task name. Must be called before Start.
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Start launches the workers. Tasks inherit values from ctx but not its
// cancellation, so Shutdown controls their lifetime.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}

	base := context.WithoutCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(base, i)
	}

	d.started = true
	d.logger.Info("started task dispatcher",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize))
	return nil
}

// Enqueue queues a task without blocking. It returns false when the
// dispatcher is not running or the queue is full.
func (d *Dispatcher) Enqueue(task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.started || d.stopped {
		d.logger.Warn("task dispatcher not running, dropping task", zap.String("task", task.Name))
		d.drop()
		return false
	}

	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	select {
	case d.queue <- task:
		return true
	default:
		d.logger.Warn("task queue full, dropping task",
			zap.String("task", task.Name),
			zap.String("post_id", task.PostID.String()))
		d.drop()
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish, or
// for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return ErrNotStarted
	}
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("stopping task dispatcher", zap.Int("pending_tasks", len(d.queue)))

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("task dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task dispatcher shutdown: %w", ctx.Err())
	}
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return Stats{
		Queued:    len(d.queue),
		Capacity:  cap(d.queue),
		Processed: d.processed,
		Failed:    d.failed,
		Dropped:   d.dropped,
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	d.logger.Debug("task worker started", zap.Int("worker_id", id))
	for task := range d.queue {
		err := d.run(ctx, task)

		d.statsMu.Lock()
		if err != nil {
			d.failed++
		} else {
			d.processed++
		}
		d.statsMu.Unlock()

		if err != nil {
			d.logger.Error("background task failed",
				zap.Int("worker_id", id),
				zap.String("task", task.Name),
				zap.String("post_id", task.PostID.String()),
				zap.Error(err))
		}
	}
	d.logger.Debug("task worker stopped", zap.Int("worker_id", id))
}

func (d *Dispatcher) run(ctx context.Context, task Task) (err error) {
	d.mu.RLock()
	h, ok := d.handlers[task.Name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for task %q", task.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()
	return h(ctx, task)
}

func (d *Dispatcher) drop() {
	d.statsMu.Lock()
	d.dropped++
	d.statsMu.Unlock()
	if d.onDrop != nil {
		d.onDrop()
	}
}
