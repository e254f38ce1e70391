package gate

import (
	"fmt"
	"sync"
	"time"

	"github.com/ikstudios/step-counter/internal/action"
)

// #region registry
// Registry holds suspended continuations. At most one continuation per
// (gate, request code) is live; consuming removes it, so each one
// resumes at most once.
type Registry interface {
	Register(c action.Continuation) error
	Consume(gate action.GateKind, code action.RequestCode) (action.Continuation, error)
}

type registryKey struct {
	gate action.GateKind
	code action.RequestCode
}

// MemoryRegistry keeps continuations in process memory.
type MemoryRegistry struct {
	mu      sync.Mutex
	pending map[registryKey]action.Continuation
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryRegistry creates a registry. A pending continuation older
// than ttl may be replaced; a zero ttl never expires.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		pending: make(map[registryKey]action.Continuation),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (r *MemoryRegistry) WithClock(now func() time.Time) *MemoryRegistry {
	r.now = now
	return r
}

// Register stores c unless a live continuation already holds its code.
func (r *MemoryRegistry) Register(c action.Continuation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{c.Gate, c.Code}
	if prev, ok := r.pending[key]; ok && !Expired(prev, r.ttl, r.now()) {
		return fmt.Errorf("register %s code %d: %w", c.Gate, c.Code, ErrCorrelationInUse)
	}
	r.pending[key] = c
	return nil
}

// Consume removes and returns the continuation for (gate, code).
func (r *MemoryRegistry) Consume(gate action.GateKind, code action.RequestCode) (action.Continuation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{gate, code}
	c, ok := r.pending[key]
	if !ok {
		return action.Continuation{}, fmt.Errorf("consume %s code %d: %w", gate, code, ErrNoPendingContinuation)
	}
	delete(r.pending, key)
	return c, nil
}

// Pending returns the number of live and expired continuations held.
func (r *MemoryRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Expired reports whether c has outlived ttl at now.
func Expired(c action.Continuation, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 || c.IssuedAt.IsZero() {
		return false
	}
	return now.Sub(c.IssuedAt) > ttl
}

// #endregion registry
