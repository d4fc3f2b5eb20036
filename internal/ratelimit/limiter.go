// Package ratelimit keeps outbound API calls under a per-minute budget.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket refilled once per window. A nil *Limiter never blocks.
type Limiter struct {
	rate     int
	window   time.Duration
	tokens   chan struct{}
	refill   *time.Timer
	stopOnce sync.Once
	stopped  chan struct{}
}

// PerMinute allows requestsPerMinute calls per minute. Zero or less disables limiting.
func PerMinute(requestsPerMinute int) *Limiter {
	return New(requestsPerMinute, time.Minute)
}

// New allows rate calls per window
func New(rate int, window time.Duration) *Limiter {
	if rate <= 0 {
		return nil
	}
	l := &Limiter{
		rate:    rate,
		window:  window,
		tokens:  make(chan struct{}, rate),
		stopped: make(chan struct{}),
	}
	l.fill()
	l.refill = time.AfterFunc(window, l.reset)
	return l
}

// Wait blocks until a token is available or ctx ends
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-l.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the refill timer. Waiters are not released.
func (l *Limiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() {
		close(l.stopped)
		l.refill.Stop()
	})
}

func (l *Limiter) fill() {
	for i := 0; i < l.rate; i++ {
		select {
		case l.tokens <- struct{}{}:
		default:
			return
		}
	}
}

func (l *Limiter) reset() {
	select {
	case <-l.stopped:
		return
	default:
	}
	// unused tokens do not carry over
	for drained := false; !drained; {
		select {
		case <-l.tokens:
		default:
			drained = true
		}
	}
	l.fill()
	l.refill.Reset(l.window)
}
