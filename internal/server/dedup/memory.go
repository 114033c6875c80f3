package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard keeps keys in process memory. It is correct only while a
// single instance scans.
type MemoryGuard struct {
	mu    sync.Mutex
	fired map[Key]time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{fired: make(map[Key]time.Time)}
}

func (g *MemoryGuard) Claim(_ context.Context, key Key, at time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.fired[key]; ok {
		return false, nil
	}
	g.fired[key] = at
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key Key) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.fired, key)
	return nil
}

func (g *MemoryGuard) Evict(_ context.Context, before time.Time) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k, at := range g.fired {
		if at.Before(before) {
			delete(g.fired, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of remembered keys.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.fired)
}
