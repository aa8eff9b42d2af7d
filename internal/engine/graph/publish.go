package graph

import (
	"sync"
	"sync/atomic"
)

// Published holds the current snapshot. Readers never block; writers are
// serialized so each update starts from the latest published version.
type Published struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

func NewPublished(initial *Snapshot) *Published {
	if initial == nil {
		initial = Empty()
	}
	p := &Published{}
	p.current.Store(initial)
	return p
}

func (p *Published) Load() *Snapshot {
	return p.current.Load()
}

// Update runs fn against the current snapshot and publishes the result.
// On error, or when fn returns nil, the current snapshot stays in place.
func (p *Published) Update(fn func(cur *Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.current.Load()
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	if next == nil {
		return cur, nil
	}
	p.current.Store(next)
	return next, nil
}
