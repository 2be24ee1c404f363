package fetch

import (
	"sync"

	"github.com/google/uuid"
)

// Identity is the browsing identity stamped onto outgoing requests.
type Identity struct {
	UserAgent string
	SessionID string
}

// Rotator hands out identities, rotating through the user-agent pool every
// rotateEvery requests. Callers force an immediate rotation after any
// rate-limited response to reduce fingerprint correlation.
type Rotator struct {
	mu     sync.Mutex
	agents []string
	idx    int
	every  int
	count  int
	cur    Identity
}

// NewRotator builds a rotator over the given user-agent pool.
func NewRotator(agents []string, rotateEvery int) *Rotator {
	if len(agents) == 0 {
		agents = []string{"Mozilla/5.0 (compatible; fashion-scraper/1.0)"}
	}
	if rotateEvery <= 0 {
		rotateEvery = 25
	}
	r := &Rotator{agents: agents, every: rotateEvery}
	r.cur = Identity{UserAgent: agents[0], SessionID: uuid.NewString()}
	return r
}

// Next returns the identity for the next request, rotating when the
// per-identity request budget is spent.
func (r *Rotator) Next() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if r.count >= r.every {
		r.rotateLocked()
	}
	return r.cur
}

// Rotate discards the current identity immediately.
func (r *Rotator) Rotate() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotateLocked()
	return r.cur
}

// Current returns the active identity without counting a request.
func (r *Rotator) Current() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

func (r *Rotator) rotateLocked() {
	r.idx = (r.idx + 1) % len(r.agents)
	r.count = 0
	r.cur = Identity{UserAgent: r.agents[r.idx], SessionID: uuid.NewString()}
}
