package bridge

import (
	"context"
	"sync"
	"time"

	"media-inspector/internal/logging"
	"media-inspector/internal/metrics"
)

// DefaultTimeout bounds every blocking call unless the caller passes its own.
const DefaultTimeout = 2 * time.Second

// pumpSlice is how long one loop iteration may wait for work while a caller
// on the loop is waiting for its reply.
const pumpSlice = 10 * time.Millisecond

// Result is the outcome of an asynchronous operation.
type Result struct {
	Status  int
	Message string
	Payload []byte
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == 0 }

// TimeoutResult is returned when no reply arrived before the deadline.
var TimeoutResult = Result{Status: -1, Message: "Timeout"}

// CanceledResult is returned when the caller's context ended first.
var CanceledResult = Result{Status: -1, Message: "Canceled"}

// AsyncFunc starts an asynchronous operation. reply may be called from any
// goroutine, at most once meaningfully; later calls are discarded.
type AsyncFunc func(reply func(Result))

// pending is the one-shot slot shared by the caller and the reply handler.
// Whichever side completes it first owns the result.
type pending struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

func newPending() *pending {
	return &pending{done: make(chan struct{})}
}

func (p *pending) complete(r Result) bool {
	won := false
	p.once.Do(func() {
		p.result = r
		won = true
		close(p.done)
	})
	return won
}

// Call starts op and waits for its reply for at most timeout.
//
// Off the loop the caller simply blocks. On the loop (ctx comes from a task
// running on loop) blocking would starve the loop that delivers the reply,
// so the caller runs queued tasks itself until the reply arrives or the
// deadline passes.
func Call(ctx context.Context, loop *Loop, operation string, timeout time.Duration, op AsyncFunc) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()
	deadline := start.Add(timeout)
	p := newPending()

	op(func(r Result) {
		if !p.complete(r) {
			metrics.BridgeLateReplies.Inc()
			logging.Debug("bridge %s: discarded reply received after completion (status %d)", operation, r.Status)
		}
	})

	mode := "block"
	var status string
	if loop != nil && loop.OnLoop(ctx) {
		mode = "pump"
		status = p.pump(ctx, loop, deadline)
	} else {
		status = p.block(ctx, deadline)
	}
	if status == "timeout" {
		logging.Warn("bridge %s: no reply within %v", operation, timeout)
	}

	metrics.BridgeCallsTotal.WithLabelValues(operation, status).Inc()
	metrics.BridgeWaitDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	<-p.done
	return p.result
}

// block waits on the signal and reports which path completed the call.
func (p *pending) block(ctx context.Context, deadline time.Time) string {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		if p.complete(TimeoutResult) {
			return "timeout"
		}
	case <-ctx.Done():
		if p.complete(CanceledResult) {
			return "canceled"
		}
	}
	return "completed"
}

// pump runs loop iterations until the signal is raised or the deadline
// passes, checking both after every iteration.
func (p *pending) pump(ctx context.Context, loop *Loop, deadline time.Time) string {
	for {
		select {
		case <-p.done:
			return "completed"
		default:
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if p.complete(TimeoutResult) {
				return "timeout"
			}
			continue
		}
		if ctx.Err() != nil {
			if p.complete(CanceledResult) {
				return "canceled"
			}
			continue
		}
		loop.RunOnce(ctx, min(remaining, pumpSlice))
	}
}
