// Package event is the in-process bus that fans quiz lifecycle events out to
// metrics, topic stats and dashboard publishers.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultPoolSize = 1000
	defaultTimeout  = 30 * time.Second
)

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

// FailureHandler is told about every handler that returned an error or panicked.
type FailureHandler func(ctx context.Context, e Event, err error)

// Bus is an in-memory event bus. Handlers run asynchronously and never block the publisher's result.
type Bus struct {
	slots     chan struct{}
	timeout   time.Duration
	onFailure []FailureHandler

	running sync.WaitGroup

	mu       sync.RWMutex
	handlers map[string][]Handler
}

type Option func(*Bus)

// WithPoolSize bounds the number of handlers running at once.
func WithPoolSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.slots = make(chan struct{}, n)
		}
	}
}

// WithTimeout bounds how long a single handler may run.
func WithTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithFailureHandler adds f to the callbacks run when a handler fails. Failures are always logged.
func WithFailureHandler(f FailureHandler) Option {
	return func(b *Bus) {
		if f != nil {
			b.onFailure = append(b.onFailure, f)
		}
	}
}

// NewBus creates a new event bus. Call Stop to wait for in-flight handlers on shutdown.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		slots:    make(chan struct{}, defaultPoolSize),
		timeout:  defaultTimeout,
		handlers: make(map[string][]Handler),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish hands e to every subscriber. It blocks only while the pool is full.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hs := b.handlers[e.Name()]
	b.mu.RUnlock()

	for _, h := range hs {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	b.running.Add(1)
	b.slots <- struct{}{}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer func() {
			if r := recover(); r != nil {
				b.fail(ctx, e, fmt.Errorf("handler panic: %v, stack: %s", r, debug.Stack()))
			}

			cancel()
			<-b.slots
			b.running.Done()
		}()

		if err := h(ctx, e); err != nil {
			b.fail(ctx, e, err)
		}
	}()
}

func (b *Bus) fail(ctx context.Context, e Event, err error) {
	slog.ErrorContext(ctx, "event: handle event failed",
		"event", e.Name(),
		"error", err,
	)

	for _, f := range b.onFailure {
		f(ctx, e, err)
	}
}

// Stop waits for all handlers to finish, including those published by other handlers meanwhile.
func (b *Bus) Stop() {
	b.running.Wait()
}
