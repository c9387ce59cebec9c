package bridge

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopClosed is returned by Post after Close.
var ErrLoopClosed = errors.New("bridge: loop closed")

type loopKey struct{}

// Loop is a single consumer task queue. Tasks run one at a time on whichever
// goroutine is driving the loop (Run or RunOnce), with a context that
// identifies the loop so code can tell whether it is running on it.
type Loop struct {
	mu     sync.Mutex
	queue  []func(context.Context)
	wake   chan struct{}
	closed bool
}

// NewLoop returns an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. It never blocks.
func (l *Loop) Post(fn func(ctx context.Context)) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// OnLoop reports whether ctx belongs to a task running on l.
func (l *Loop) OnLoop(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, _ := ctx.Value(loopKey{}).(*Loop)
	return owner == l
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) pop() (func(context.Context), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// RunOnce runs at most one queued task, waiting up to timeout for one to
// arrive. It reports whether a task ran.
func (l *Loop) RunOnce(ctx context.Context, timeout time.Duration) bool {
	fn, ok := l.pop()
	if !ok {
		if timeout <= 0 {
			return false
		}
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		for !ok {
			select {
			case <-l.wake:
				fn, ok = l.pop()
			case <-timer.C:
				return false
			case <-ctx.Done():
				return false
			}
		}
	}

	if !l.OnLoop(ctx) {
		ctx = context.WithValue(ctx, loopKey{}, l)
	}
	fn(ctx)
	return true
}

// Run drives the loop until ctx is done or the loop is closed and drained.
func (l *Loop) Run(ctx context.Context) error {
	ctx = context.WithValue(ctx, loopKey{}, l)
	for {
		if fn, ok := l.pop(); ok {
			fn(ctx)
			continue
		}
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting tasks. Run returns once the queue is drained.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
