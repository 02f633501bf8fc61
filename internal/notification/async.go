package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 30 * time.Second
)

var (
	// ErrQueueFull is returned when the dispatch queue cannot take another message.
	ErrQueueFull = errors.New("notification queue full")
	// ErrNotifierClosed is returned by Send after Close.
	ErrNotifierClosed = errors.New("notifier closed")
)

// AsyncNotifier hands messages to a background worker so request handlers
// never wait on delivery. Failures are logged and dropped.
type AsyncNotifier struct {
	next    Notifier
	logger  *slog.Logger
	timeout time.Duration
	queue   chan job
	wg      sync.WaitGroup

	// mu guards closed and orders Send against close(queue).
	mu     sync.Mutex
	closed bool
}

type job struct {
	ctx     context.Context
	message Message
}

// NewAsyncNotifier starts a single worker delivering through next.
func NewAsyncNotifier(next Notifier, logger *slog.Logger, queueSize int) *AsyncNotifier {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	n := &AsyncNotifier{
		next:    next,
		logger:  logger,
		timeout: defaultSendTimeout,
		queue:   make(chan job, queueSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Send enqueues the message. The request context's values are kept but its
// cancellation is not, since the request usually finishes first.
func (n *AsyncNotifier) Send(ctx context.Context, message Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.queue <- job{ctx: context.WithoutCancel(ctx), message: message}:
		return nil
	default:
		n.logger.Warn("notification dropped", slog.String("kind", message.Kind), slog.String("destination", message.Destination))
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to drain.
func (n *AsyncNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	n.wg.Wait()
}

func (n *AsyncNotifier) run() {
	defer n.wg.Done()
	for j := range n.queue {
		ctx, cancel := context.WithTimeout(j.ctx, n.timeout)
		if err := n.next.Send(ctx, j.message); err != nil {
			n.logger.Error("notification delivery failed",
				slog.String("kind", j.message.Kind),
				slog.String("destination", j.message.Destination),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}
