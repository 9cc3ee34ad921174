package display

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopStopped is returned when work is submitted to a stopped loop.
var ErrLoopStopped = errors.New("display loop stopped")

// Loop runs tasks one at a time, in submission order, on a single goroutine.
// It plays the role of a UI main thread: everything that touches the alert
// stack or a surface is posted here.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	tasks   []func()
	started bool
	stopped bool

	wake   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewLoop creates a loop. Tasks posted before Start run once it starts.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the loop in a new goroutine until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go l.run(ctx)
}

// Stop stops the loop and waits for the running task to finish.
// Queued tasks are dropped. Must not be called from a loop task.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.tasks = nil
	started := l.started
	close(l.stopCh)
	l.mu.Unlock()

	if started {
		<-l.doneCh
	} else {
		close(l.doneCh)
	}
}

// Done returns a channel closed once the loop has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.doneCh
}

// Post queues fn to run on the loop.
// Returns false if the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits for it to run.
// Must not be called from a loop task, it would wait on itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.doneCh:
		return ErrLoopStopped
	}
}

// run is the loop goroutine.
func (l *Loop) run(ctx context.Context) {
	defer close(l.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.tasks = nil
			l.mu.Unlock()
			return
		case <-l.stopCh:
			return
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.runTask(fn)
		}
	}
}

// next pops the oldest queued task.
func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped || len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn, true
}

// runTask runs fn, recovering from panics so the loop survives bad callbacks.
func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("display loop task panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// Timer states.
const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

// Timer is a cancellable deferred task created by Loop.AfterFunc.
type Timer struct {
	t     *time.Timer
	state atomic.Int32
}

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if !tm.state.CompareAndSwap(timerPending, timerFired) {
				return
			}
			fn()
		})
	})
	return tm
}

// Stop cancels the timer. If it returns true, fn will never run,
// even when the underlying timer already fired and its task is queued.
// Returns false if fn already ran or the timer was already stopped.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.t.Stop()
	return true
}
