package transaction

import "sync"

// Guard allows at most one transaction attempt in flight.
type Guard struct {
	mu       sync.Mutex
	inFlight bool
	gen      uint64
}

// TryAcquire marks an attempt in flight. It returns false without blocking
// when one already is. The returned release is idempotent and does nothing
// if the guard was Reset and re-acquired in the meantime.
func (g *Guard) TryAcquire() (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		return func() {}, false
	}
	g.inFlight = true
	g.gen++
	gen := g.gen

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.gen == gen {
				g.inFlight = false
			}
		})
	}, true
}

// Reset clears the guard regardless of who holds it.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	g.gen++
}

// InFlight reports whether an attempt is in flight.
func (g *Guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
