// Package loop provides the single logical thread that playback controllers
// run on.
//
// Every public controller operation and every backend callback is executed
// as a task on one Loop, in submission order, so controller state needs no
// locking. Producers on other goroutines (native bridge calls, backend
// timers) hand work to the loop with Dispatch or Do.
package loop

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/go-drift/videoview/internal/log"
	verrors "github.com/go-drift/videoview/pkg/errors"
)

// ErrClosed is returned by Do when the loop has been closed.
var ErrClosed = errors.New("loop: closed")

// Loop is an unbounded FIFO task queue drained by a single goroutine.
// The zero value is not usable; create with New.
type Loop struct {
	mu     sync.Mutex
	queue  []func() // guarded by mu
	closed bool     // guarded by mu

	wake chan struct{}
	done chan struct{}
	log  zerolog.Logger
}

// New creates a loop. Call Run to start draining tasks.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log.WithComponent("loop"),
	}
}

// Dispatch enqueues fn to run on the loop. It never blocks. Returns false if
// fn is nil or the loop is closed.
func (l *Loop) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task already running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Dispatch(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// The task may still have run before shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains tasks until ctx is canceled or Close is called. Tasks still
// queued at shutdown are discarded. Run returns nil after Close and
// ctx.Err() after cancellation.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()
	for {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			task, ok := l.next()
			if !ok {
				break
			}
			l.run(task)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			if l.isClosed() {
				return nil
			}
		}
	}
}

// Close stops the loop. Pending tasks are dropped; Dispatch returns false
// afterwards. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) run(task func()) {
	defer verrors.Recover("loop.task")
	task()
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.closed = true
	dropped := len(l.queue)
	l.queue = nil
	l.mu.Unlock()
	if dropped > 0 {
		l.log.Debug().Int("dropped", dropped).Msg("loop stopped with pending tasks")
	}
	close(l.done)
}

// Immediate is a dispatcher that runs tasks synchronously on the calling
// goroutine. It is meant for tests and for hosts that already serialize
// every call onto one thread.
type Immediate struct{}

// Dispatch runs fn immediately.
func (Immediate) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Do runs fn immediately and returns nil.
func (Immediate) Do(_ context.Context, fn func()) error {
	fn()
	return nil
}
