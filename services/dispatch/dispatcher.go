package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/zap"
)

// Task is a unit of background work. The context carries the per-task timeout.
type Task func(ctx context.Context) error

// Dispatcher runs tasks detached from the request that scheduled them.
// Dispatch never blocks and never reports failure to the caller.
type Dispatcher interface {
	Dispatch(name string, task Task)
}

type job struct {
	name string
	task Task
}

type taskError struct {
	name string
	err  error
}

// AsyncDispatcher is a fixed pool of workers reading a bounded queue.
// Task errors go to a channel drained by a single logging goroutine.
type AsyncDispatcher struct {
	workers int
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *logging.Service

	queue  chan job
	errors chan taskError

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	errWG   sync.WaitGroup
}

func NewAsyncDispatcher(workers, queueSize int, timeout time.Duration, m *metrics.Metrics, logger *logging.Service) *AsyncDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &AsyncDispatcher{
		workers: workers,
		timeout: timeout,
		metrics: m,
		logger:  logger,
		queue:   make(chan job, queueSize),
		errors:  make(chan taskError, queueSize),
	}
}

func (d *AsyncDispatcher) Start() {
	d.errWG.Add(1)
	go d.drainErrors()

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("dispatcher started", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.queue)))
}

// Dispatch enqueues task. A full queue or a stopped dispatcher drops it.
func (d *AsyncDispatcher) Dispatch(name string, task Task) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.metrics.DispatchTask(name, metrics.ResultDropped)
		d.logger.Warn("dispatcher stopped, task dropped", zap.String("task", name))
		return
	}

	select {
	case d.queue <- job{name: name, task: task}:
	default:
		d.metrics.DispatchTask(name, metrics.ResultDropped)
		d.logger.Warn("dispatch queue full, task dropped", zap.String("task", name))
	}
}

// Stop refuses new tasks and waits for queued ones to finish or ctx to end.
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(d.errors)
		d.errWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher did not drain: %w", ctx.Err())
	}
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		if err := d.run(j); err != nil {
			d.errors <- taskError{name: j.name, err: err}
		}
	}
}

func (d *AsyncDispatcher) run(j job) (err error) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.metrics.DispatchTask(j.name, metrics.ResultPanic)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	if err := j.task(ctx); err != nil {
		d.metrics.DispatchTask(j.name, metrics.ResultError)
		return err
	}
	d.metrics.DispatchTask(j.name, metrics.ResultOK)
	return nil
}

func (d *AsyncDispatcher) drainErrors() {
	defer d.errWG.Done()
	for te := range d.errors {
		d.logger.Error("background task failed", zap.String("task", te.name), zap.Error(te.err))
	}
}

// SyncDispatcher runs each task inline on the calling goroutine.
type SyncDispatcher struct {
	mu     sync.Mutex
	Errors []error
	Names  []string
}

func (d *SyncDispatcher) Dispatch(name string, task Task) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return task(context.Background())
	}()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.Names = append(d.Names, name)
	if err != nil {
		d.Errors = append(d.Errors, err)
	}
}
