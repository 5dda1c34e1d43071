// Package inflight admits at most one pending call per (key, action) pair.
package inflight

import (
	"errors"
	"sync"
)

// ErrActionInFlight is returned when the same action is triggered again for a
// key before the previous attempt has finished.
var ErrActionInFlight = errors.New("action already in progress")

type guardKey struct {
	key    string
	action string
}

// Guard tracks pending actions. The zero value is not usable; call NewGuard.
type Guard struct {
	mu   sync.Mutex
	held map[guardKey]struct{}
	// pending counts held actions per key for Busy.
	pending map[string]int
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{
		held:    make(map[guardKey]struct{}),
		pending: make(map[string]int),
	}
}

// TryBegin claims (key, action). The returned release func must be called
// once the action resolves; it is safe to call more than once.
func (g *Guard) TryBegin(key, action string) (func(), error) {
	k := guardKey{key: key, action: action}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[k]; busy {
		return nil, ErrActionInFlight
	}
	g.held[k] = struct{}{}
	g.pending[key]++

	var once sync.Once
	return func() {
		once.Do(func() { g.release(k) })
	}, nil
}

func (g *Guard) release(k guardKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, k)
	if g.pending[k.key]--; g.pending[k.key] <= 0 {
		delete(g.pending, k.key)
	}
}

// Busy reports whether any action is pending for key.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending[key] > 0
}
