package workers

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCount(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		env        string
		multiplier float64
		limit      int
		want       int
	}{
		{"cpu", "", 1.0, 0, procs},
		{"io", "", 2.0, 0, procs * 2},
		{"limited", "", 2.0, 1, 1},
		{"tiny multiplier", "", 0.0001, 0, 1},
		{"override", "7", 1.0, 0, 7},
		{"override capped", "7", 1.0, 3, 3},
		{"invalid override", "many", 1.0, 0, procs},
		{"zero override", "0", 1.0, 0, procs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WALK_WORKERS", tt.env)
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestForHelpers(t *testing.T) {
	t.Setenv("WALK_WORKERS", "")
	if got, want := ForCPU(0), Count(1.0, 0); got != want {
		t.Errorf("ForCPU(0) = %d, want %d", got, want)
	}
	if got, want := ForIO(0), Count(2.0, 0); got != want {
		t.Errorf("ForIO(0) = %d, want %d", got, want)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const limit = 3
	p := NewPool(limit)

	var running, peak, done int32
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		p.Go(func() {
			n := atomic.AddInt32(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
		})
	}
	p.Wait()

	if done != 20 {
		t.Errorf("completed %d tasks, want 20", done)
	}
	if peak > limit {
		t.Errorf("peak concurrency = %d, want at most %d", peak, limit)
	}
}

func TestPoolTryGo(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})

	if !p.TryGo(func() { <-release }) {
		t.Fatal("TryGo() on an idle pool = false")
	}
	if p.TryGo(func() {}) {
		t.Error("TryGo() on a full pool = true")
	}
	close(release)
	p.Wait()

	if !p.TryGo(func() {}) {
		t.Error("TryGo() after Wait = false")
	}
	p.Wait()
}

func TestNewPoolMinimum(t *testing.T) {
	p := NewPool(0)
	ran := false
	p.Go(func() { ran = true })
	p.Wait()
	if !ran {
		t.Error("pool of size 0 did not run the task")
	}
}
