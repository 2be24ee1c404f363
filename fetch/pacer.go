package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer is the shared pacing gate: it enforces a minimum spacing between the
// end of one request and the start of the next, process-wide. All fetchers
// targeting the same site share one Pacer by reference, so parallel callers
// still space their network calls out.
type Pacer struct {
	mu    sync.Mutex
	next  time.Time // earliest allowed start of the next request
	delay time.Duration
}

// NewPacer builds a pacing gate with the given inter-request floor.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait reserves the next request slot and blocks until it arrives or the
// context is cancelled. Reserving under the lock keeps concurrent callers
// from claiming the same slot.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	start := p.next
	now := time.Now()
	if start.Before(now) {
		start = now
	}
	p.next = start.Add(jittered(p.delay))
	p.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observe records that a request just finished, pushing the next allowed
// start to at least one full delay after the request's end.
func (p *Pacer) Observe() {
	if p == nil || p.delay <= 0 {
		return
	}
	p.mu.Lock()
	if earliest := time.Now().Add(p.delay); earliest.After(p.next) {
		p.next = earliest
	}
	p.mu.Unlock()
}

// jittered adds +/-10% to desynchronize request timing.
func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	span := int64(d) / 5
	if span == 0 {
		return d
	}
	out := d + time.Duration(rand.Int63n(span)) - d/10
	if out < 0 {
		return 0
	}
	return out
}
