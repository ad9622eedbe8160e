// Package pool recycles entities per kind so continuous spawning does not allocate every frame.
package pool

import (
	"errors"
	"fmt"

	"github.com/kingofdarck/idle-garden-sub001/internal/object"
)

// ErrUnknownKind is returned when acquiring from a kind that was never registered.
var ErrUnknownKind = errors.New("pool: unknown entity kind")

// CreateFunc constructs a fresh entity for a spawn request.
type CreateFunc func(req object.SpawnRequest) object.Entity

// ResetFunc reinitializes a recycled entity for a spawn request.
// It must leave the entity active.
type ResetFunc func(e object.Entity, req object.SpawnRequest)

// Stats reports counters for one kind.
type Stats struct {
	Available    int
	InUse        int
	TotalCreated int
	TotalReused  int
}

type entry struct {
	available []object.Entity
	inUse     map[object.Entity]struct{}
	create    CreateFunc
	reset     ResetFunc
	stats     Stats
}

// Pool holds one entry per entity kind.
// Not safe for concurrent use; the engine owns it for the lifetime of a game.
type Pool struct {
	entries map[object.Kind]*entry
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{entries: make(map[object.Kind]*entry)}
}

// Register sets up a kind and pre-populates it with initialSize inactive instances.
// Registering a kind again replaces its functions and keeps tracked entities.
func (p *Pool) Register(kind object.Kind, create CreateFunc, reset ResetFunc, initialSize int) {
	e, ok := p.entries[kind]
	if !ok {
		e = &entry{inUse: make(map[object.Entity]struct{})}
		p.entries[kind] = e
	}
	e.create = create
	e.reset = reset

	for i := 0; i < initialSize; i++ {
		req := object.SpawnRequest{Kind: kind}
		ent := create(req)
		reset(ent, req)
		ent.Destroy()
		e.available = append(e.available, ent)
		e.stats.TotalCreated++
	}
}

// Registered reports whether kind has an entry.
func (p *Pool) Registered(kind object.Kind) bool {
	_, ok := p.entries[kind]
	return ok
}

// Acquire hands out an active entity for req, reusing an available one when possible.
func (p *Pool) Acquire(kind object.Kind, req object.SpawnRequest) (object.Entity, error) {
	e, ok := p.entries[kind]
	if !ok {
		return nil, fmt.Errorf("acquire %s: %w", kind, ErrUnknownKind)
	}

	var ent object.Entity
	if n := len(e.available); n > 0 {
		ent = e.available[n-1]
		e.available[n-1] = nil
		e.available = e.available[:n-1]
		e.reset(ent, req)
		e.stats.TotalReused++
	} else {
		ent = e.create(req)
		e.stats.TotalCreated++
	}

	e.inUse[ent] = struct{}{}
	return ent, nil
}

// Release returns an entity to the pool. It is deactivated on the way in.
// Entities the pool is not tracking (never acquired, already released, or of an
// unknown kind) are ignored and false is returned.
func (p *Pool) Release(kind object.Kind, ent object.Entity) bool {
	e, ok := p.entries[kind]
	if !ok || ent == nil {
		return false
	}
	if _, tracked := e.inUse[ent]; !tracked {
		return false
	}

	delete(e.inUse, ent)
	ent.Destroy()
	e.available = append(e.available, ent)
	return true
}

// AutoRelease releases every inactive entity in entities and returns how many were released.
func (p *Pool) AutoRelease(kind object.Kind, entities []object.Entity) int {
	released := 0
	for _, ent := range entities {
		if ent == nil || ent.Active() {
			continue
		}
		if p.Release(kind, ent) {
			released++
		}
	}
	return released
}

// Stats returns the counters for kind. Unknown kinds report zeros.
func (p *Pool) Stats(kind object.Kind) Stats {
	e, ok := p.entries[kind]
	if !ok {
		return Stats{}
	}
	s := e.stats
	s.Available = len(e.available)
	s.InUse = len(e.inUse)
	return s
}

// InUse reports whether ent is currently handed out.
func (p *Pool) InUse(kind object.Kind, ent object.Entity) bool {
	e, ok := p.entries[kind]
	if !ok {
		return false
	}
	_, tracked := e.inUse[ent]
	return tracked
}
