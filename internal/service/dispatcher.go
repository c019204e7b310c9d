package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	"github.com/GoPolymarket/calllog/internal/pkg/metrics"
	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
	"golang.org/x/time/rate"
)

// ErrDrainTimeout is returned by Shutdown when queued work is still running
// after the drain window closed.
var ErrDrainTimeout = errors.New("dispatcher: drain timeout")

// Task is one logging unit of work. ctx carries the worker's trace slot with
// the submitting request's id already adopted.
type Task func(ctx context.Context)

// DispatcherConfig sizes the logging worker pool.
type DispatcherConfig struct {
	CoreWorkers   int           `mapstructure:"core_workers"`
	MaxWorkers    int           `mapstructure:"max_workers"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	KeepAlive     time.Duration `mapstructure:"keep_alive"`
	DrainTimeout  time.Duration `mapstructure:"drain_timeout"`
}

// DefaultDispatcherConfig 日志专用线程池: core 3, max 10, queue 600
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		CoreWorkers:   3,
		MaxWorkers:    10,
		QueueCapacity: 600,
		KeepAlive:     600 * time.Second,
		DrainTimeout:  60 * time.Second,
	}
}

func (c DispatcherConfig) normalized() DispatcherConfig {
	def := DefaultDispatcherConfig()
	if c.CoreWorkers < 1 {
		c.CoreWorkers = 1
	}
	if c.MaxWorkers <= c.CoreWorkers {
		c.MaxWorkers = c.CoreWorkers + 1
	}
	if c.QueueCapacity < 1 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = def.KeepAlive
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = def.DrainTimeout
	}
	return c
}

// DispatcherStats is a point-in-time view of the pool.
type DispatcherStats struct {
	Accepted  int64
	Dropped   int64
	Completed int64
	Failed    int64
	Workers   int
	Queued    int
}

type unit struct {
	traceID string
	task    Task
}

// Dispatcher runs logging work off the request goroutine. Submission never
// blocks and never fails loudly: when the queue is full and the pool is at
// its maximum size the work is discarded.
type Dispatcher struct {
	cfg   DispatcherConfig
	queue chan unit
	diag  *slog.Logger

	mu      sync.Mutex
	workers int
	spawned int
	closed  bool
	wg      sync.WaitGroup

	accepted  atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	dropNote rate.Sometimes
}

// NewDispatcher creates a pool. Workers start lazily on first submission.
// diag receives trace-level diagnostics; nil uses the internal logger.
func NewDispatcher(cfg DispatcherConfig, diag *slog.Logger) *Dispatcher {
	cfg = cfg.normalized()
	return &Dispatcher{
		cfg:      cfg,
		queue:    make(chan unit, cfg.QueueCapacity), // 缓冲区
		diag:     diag,
		dropNote: rate.Sometimes{Interval: 10 * time.Second},
	}
}

// Config returns the effective (clamped) configuration.
func (d *Dispatcher) Config() DispatcherConfig {
	return d.cfg
}

// Submit offers task for asynchronous execution under traceID. It reports
// whether the task was accepted; callers on the request path ignore it.
func (d *Dispatcher) Submit(traceID string, task Task) bool {
	if task == nil {
		return false
	}
	u := unit{traceID: traceID, task: task}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.drop()
		return false
	}
	if d.workers < d.cfg.CoreWorkers {
		d.spawnLocked(&u)
		d.mu.Unlock()
		d.accept()
		return true
	}
	select {
	case d.queue <- u:
		d.mu.Unlock()
		d.accept()
		return true
	default:
	}
	if d.workers < d.cfg.MaxWorkers {
		d.spawnLocked(&u)
		d.mu.Unlock()
		d.accept()
		return true
	}
	d.mu.Unlock()

	// 缓冲区满, 丢弃日志以保护主流程
	d.drop()
	return false
}

// Shutdown stops accepting work and waits for queued work to finish, bounded
// by the configured drain timeout and ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d.cfg.DrainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrDrainTimeout
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDrainTimeout, ctx.Err())
	}
}

// Stats returns current counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	workers := d.workers
	d.mu.Unlock()
	return DispatcherStats{
		Accepted:  d.accepted.Load(),
		Dropped:   d.dropped.Load(),
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
		Workers:   workers,
		Queued:    len(d.queue),
	}
}

func (d *Dispatcher) accept() {
	d.accepted.Add(1)
	metrics.DispatchTotal.WithLabelValues("accepted").Inc()
}

func (d *Dispatcher) drop() {
	n := d.dropped.Add(1)
	metrics.DispatchTotal.WithLabelValues("dropped").Inc()
	d.dropNote.Do(func() {
		logger.Trace(context.Background(), d.diag, "log pool saturated, dropping work", "dropped_total", n)
	})
}

// spawnLocked must be called with d.mu held.
func (d *Dispatcher) spawnLocked(first *unit) {
	d.workers++
	d.spawned++
	name := fmt.Sprintf("log-pool-%d", d.spawned)
	metrics.Workers.Inc()
	d.wg.Add(1)
	go d.work(name, first)
}

func (d *Dispatcher) work(name string, first *unit) {
	defer d.wg.Done()

	// each worker owns its slot; ids only ever arrive by value through a unit
	slot := traceid.NewSlot()
	ctx := traceid.WithSlot(context.Background(), slot)

	if first != nil {
		d.run(ctx, name, slot, *first)
	}

	idle := time.NewTimer(d.cfg.KeepAlive)
	defer idle.Stop()
	for {
		select {
		case u, ok := <-d.queue:
			if !ok {
				d.exit()
				return
			}
			d.run(ctx, name, slot, u)
			idle.Reset(d.cfg.KeepAlive)
		case <-idle.C:
			if d.retire() {
				return
			}
			idle.Reset(d.cfg.KeepAlive)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, name string, slot *traceid.Slot, u unit) {
	slot.Adopt(u.traceID)
	defer slot.Clear()
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			metrics.DispatchFailures.Inc()
			logger.Trace(ctx, d.diag, "logging task panicked", "worker", name, "panic", r)
			return
		}
		d.completed.Add(1)
	}()
	u.task(ctx)
}

// retire lets an idle worker above the core size exit.
func (d *Dispatcher) retire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.workers <= d.cfg.CoreWorkers {
		return false
	}
	d.workers--
	metrics.Workers.Dec()
	return true
}

func (d *Dispatcher) exit() {
	d.mu.Lock()
	d.workers--
	d.mu.Unlock()
	metrics.Workers.Dec()
}
