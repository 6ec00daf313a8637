package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/iconclass/internal/model"
	"github.com/crimson-sun/iconclass/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback for inner write failures. Default: slog warning.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.onError = f }
}

// WithDropOnFull makes Write drop the prediction instead of blocking when the
// buffer is full.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for buffered predictions.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async moves prediction writes off the request path. A background goroutine
// drains a buffered channel into the wrapped output.
type Async struct {
	inner        output.Output
	ch           chan model.Prediction
	done         chan struct{}
	onError      func(error)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	mu     sync.RWMutex // guards closed and sends on ch
	closed bool
}

// New wraps inner and starts the drain goroutine.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		onError:      func(err error) { slog.Warn("prediction output write failed", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.Prediction, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write enqueues p. It blocks while the buffer is full unless WithDropOnFull
// is set, in which case the prediction is discarded.
func (a *Async) Write(ctx context.Context, p model.Prediction) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	if a.dropOnFull {
		select {
		case a.ch <- p:
		default:
			slog.Warn("prediction output buffer full, dropping", "request_id", p.RequestID)
		}
		return nil
	}
	select {
	case a.ch <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes, waits up to the drain timeout for buffered
// predictions, then closes the inner output.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drainTimeout):
		slog.Warn("prediction output drain timed out", "pending", len(a.ch))
	}
	return a.inner.Close()
}

func (a *Async) drain() {
	defer close(a.done)
	for p := range a.ch {
		if err := a.inner.Write(context.Background(), p); err != nil {
			a.onError(err)
		}
	}
}
