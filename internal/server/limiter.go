package server

import "context"

// runLimiter caps the number of simulations executing at once. A nil
// limiter admits everything.
type runLimiter struct {
	slots chan struct{}
}

func newRunLimiter(n int) *runLimiter {
	if n <= 0 {
		return nil
	}
	return &runLimiter{slots: make(chan struct{}, n)}
}

// acquire waits for a free slot. It reports false if ctx ends first.
func (l *runLimiter) acquire(ctx context.Context) bool {
	if l == nil {
		return true
	}
	select {
	case l.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (l *runLimiter) release() {
	if l == nil {
		return
	}
	<-l.slots
}

// inFlight returns how many runs hold a slot.
func (l *runLimiter) inFlight() int {
	if l == nil {
		return 0
	}
	return len(l.slots)
}
