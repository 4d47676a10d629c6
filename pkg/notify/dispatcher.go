package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event describes a schedule change an external notifier may act on. The
// scheduler core only emits events; delivery (Slack, email) lives elsewhere.
type Event struct {
	Kind       string
	StudentID  string
	SlotID     string
	ExamNumber int
	Attempt    int
	Emitted    time.Time
}

// Event kinds emitted by the scheduler.
const (
	KindSlotLocked    = "slot_locked"
	KindSlotScheduled = "slot_scheduled"
	KindSlotReverted  = "slot_reverted"
)

// Sink receives events for delivery.
type Sink func(context.Context, Event) error

// DispatcherConfig configures worker pool behaviour.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Dispatcher fans schedule events out to a sink on background workers.
type Dispatcher struct {
	sink Sink

	workers    int
	bufferSize int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	events  chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher delivering to the provided sink.
func NewDispatcher(sink Sink, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher{
		sink:       sink,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		events:     make(chan Event, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
	d.logger.Sugar().Infow("notification dispatcher started", "workers", d.workers)
}

// Stop cancels workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Sugar().Infow("notification dispatcher stopped")
}

// Emit pushes an event onto the queue.
func (d *Dispatcher) Emit(event Event) error {
	d.mu.Lock()
	ctx := d.ctx
	started := d.started
	d.mu.Unlock()

	if !started {
		return fmt.Errorf("dispatcher not started")
	}
	if event.Emitted.IsZero() {
		event.Emitted = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("dispatcher stopped: %w", ctx.Err())
	case d.events <- event:
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case event := <-d.events:
			if err := d.sink(d.ctx, event); err != nil {
				d.handleFailure(event, err)
			}
		}
	}
}

func (d *Dispatcher) handleFailure(event Event, err error) {
	event.Attempt++
	if event.Attempt > d.maxRetries {
		d.logger.Sugar().Errorw("notification exceeded retries", "kind", event.Kind, "slot_id", event.SlotID, "error", err)
		return
	}
	d.logger.Sugar().Warnw("notification failed, retrying", "kind", event.Kind, "slot_id", event.SlotID, "attempt", event.Attempt, "error", err)

	// The WaitGroup covers retry sleepers too, so Stop does not return while
	// a delayed re-emit is still in flight.
	d.wg.Add(1)
	go func(e Event) {
		defer d.wg.Done()
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
			d.logger.Sugar().Warnw("dropping notification retry on shutdown", "kind", e.Kind, "slot_id", e.SlotID)
			return
		case <-timer.C:
			if err := d.Emit(e); err != nil {
				d.logger.Sugar().Errorw("failed to requeue notification", "kind", e.Kind, "slot_id", e.SlotID, "error", err)
			}
		}
	}(event)
}
