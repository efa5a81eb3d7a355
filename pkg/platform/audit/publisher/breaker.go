package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	audit "catalog/pkg/platform/audit"
)

// ErrCircuitOpen is returned without attempting delivery while the sink is
// cooling down after repeated failures.
var ErrCircuitOpen = errors.New("audit publisher circuit open")

// Breaker guards a Publisher. After threshold consecutive failures the
// circuit opens and records are dropped for cooldown; then a single probe is
// let through, and its outcome closes or re-opens the circuit. Each delivery
// is bounded by timeout so a stalled broker cannot hold up requests.
type Breaker struct {
	next      audit.Publisher
	threshold int
	cooldown  time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	failures  int
	open      bool
	openUntil time.Time
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

func WithThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		b.timeout = d
	}
}

func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

func NewBreaker(next audit.Publisher, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		next:      next,
		threshold: 5,
		cooldown:  30 * time.Second,
		timeout:   2 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Publish(ctx context.Context, rec *audit.Record) error {
	if !b.allow() {
		return ErrCircuitOpen
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := b.next.Publish(ctx, rec); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// IsOpen reports whether deliveries are currently being dropped.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && b.now().Before(b.openUntil)
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	now := b.now()
	if now.Before(b.openUntil) {
		return false
	}
	// Half-open: push the deadline out so only this caller probes.
	b.openUntil = now.Add(b.cooldown)
	return true
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.open || b.failures >= b.threshold {
		b.open = true
		b.openUntil = b.now().Add(b.cooldown)
	}
}
