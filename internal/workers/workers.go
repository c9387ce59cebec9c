package workers

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// Count returns the number of workers for a task. multiplier scales the
// CPU count (GOMAXPROCS, which follows container limits): 1 for CPU-bound
// work, 2 for work that mostly waits on the filesystem. limit caps the
// result; 0 means no cap.
//
// WALK_WORKERS overrides the computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("WALK_WORKERS"); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capped(n, limit)
		}
	}
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capped(n, limit)
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns the worker count for CPU-bound tasks.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for filesystem-bound tasks.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Pool runs functions on a bounded number of goroutines.
type Pool struct {
	slots chan struct{}
	wg    sync.WaitGroup
}

// NewPool creates a Pool running at most n functions at once.
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{slots: make(chan struct{}, n)}
}

// Go runs fn on a pool goroutine, blocking while every slot is busy.
func (p *Pool) Go(fn func()) {
	p.slots <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.slots
			p.wg.Done()
		}()
		fn()
	}()
}

// TryGo runs fn on a pool goroutine if a slot is free and reports whether
// it did. Recursive producers use it to fall back to running inline.
func (p *Pool) TryGo(fn func()) bool {
	select {
	case p.slots <- struct{}{}:
	default:
		return false
	}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.slots
			p.wg.Done()
		}()
		fn()
	}()
	return true
}

// Wait blocks until every submitted function has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
