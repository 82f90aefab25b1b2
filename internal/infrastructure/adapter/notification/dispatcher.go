package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
)

// ErrQueueFull is returned by Notify when the dispatcher cannot accept more work
var ErrQueueFull = errors.New("notification queue is full")

// ErrDispatcherClosed is returned by Notify after Close
var ErrDispatcherClosed = errors.New("notification dispatcher is closed")

// DispatcherConfig tunes the queue and the delivery rate
type DispatcherConfig struct {
	QueueSize  int
	RatePerSec float64
	Burst      int
	// SendTimeout bounds a single delivery
	SendTimeout time.Duration
}

// Dispatcher queues notifications and delivers them from one goroutine at a
// bounded rate. Notify never waits on delivery; failures are logged and dropped.
type Dispatcher struct {
	next    notification.Notifier
	queue   chan notification.Notification
	limiter *rate.Limiter
	timeout time.Duration
	logger  coreport.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts a dispatcher delivering through next
func NewDispatcher(next notification.Notifier, cfg DispatcherConfig, logger coreport.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		next:    next,
		queue:   make(chan notification.Notification, cfg.QueueSize),
		limiter: rate.NewLimiter(limit, cfg.Burst),
		timeout: cfg.SendTimeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

var _ notification.Notifier = (*Dispatcher)(nil)

// Notify enqueues n without blocking
func (d *Dispatcher) Notify(_ context.Context, n notification.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for n := range d.queue {
		if err := d.limiter.Wait(context.Background()); err != nil {
			d.logger.Warn("Notification rate limiter failed", map[string]any{"error": err.Error()})
		}
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Notifier panicked", map[string]any{
				"user_id": n.UserID.String(),
				"kind":    string(n.Kind),
				"panic":   r,
			})
		}
	}()

	if err := d.next.Notify(ctx, n); err != nil {
		d.logger.Warn("Failed to deliver notification", map[string]any{
			"user_id": n.UserID.String(),
			"kind":    string(n.Kind),
			"error":   err.Error(),
		})
	}
}

// Close stops accepting notifications and waits until the queue drains or ctx ends
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn("Notification queue not drained before shutdown", map[string]any{
			"pending": len(d.queue),
		})
		return ctx.Err()
	}
}
