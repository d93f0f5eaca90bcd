package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunLimiter_CapsConcurrency(t *testing.T) {
	l := newRunLimiter(2)

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.acquire(context.Background()) {
				t.Error("acquire failed unexpectedly")
				return
			}
			c := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if c <= old || atomic.CompareAndSwapInt32(&peak, old, c) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			l.release()
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeded limit 2", peak)
	}
	if l.inFlight() != 0 {
		t.Errorf("in flight = %d after all releases", l.inFlight())
	}
}

func TestRunLimiter_CancelledWait(t *testing.T) {
	l := newRunLimiter(1)
	if !l.acquire(context.Background()) {
		t.Fatal("first acquire should succeed")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if l.acquire(ctx) {
		t.Error("acquire on a full limiter with a cancelled context should fail")
	}
	l.release()
}

func TestRunLimiter_Nil(t *testing.T) {
	l := newRunLimiter(0)
	if l != nil {
		t.Fatal("zero limit should mean unlimited")
	}
	if !l.acquire(context.Background()) {
		t.Error("nil limiter should always admit")
	}
	l.release()
	if l.inFlight() != 0 {
		t.Error("nil limiter has nothing in flight")
	}
}
