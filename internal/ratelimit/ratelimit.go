// Package ratelimit spaces outbound requests per domain. A shared limiter
// is passed by reference to every caller so concurrent workers observe a
// single schedule per domain.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the politeness floor between requests to one domain.
const DefaultDelay = 500 * time.Millisecond

// Limiter guarantees no two requests to the same domain are issued closer
// than the configured delay, regardless of how many workers are active.
type Limiter struct {
	delay time.Duration

	mu   sync.Mutex
	next map[string]time.Time
}

// New builds a limiter. Non-positive delays fall back to DefaultDelay.
func New(delay time.Duration) *Limiter {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Limiter{
		delay: delay,
		next:  make(map[string]time.Time),
	}
}

// Wait blocks until the caller may issue a request to domain, then records
// the reservation. Waiting callers do not block callers for other domains.
func (l *Limiter) Wait(ctx context.Context, domain string) error {
	l.mu.Lock()
	now := time.Now()
	at := l.next[domain]
	if at.Before(now) {
		at = now
	}
	l.next[domain] = at.Add(l.delay)
	l.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
