package plant_simulator

import (
	"sync"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

// Registry owns every simulated plant. All access goes through one mutex so that each
// read-modify-write sequence on a plant is atomic. Plants are never removed.
type Registry struct {
	mu     sync.Mutex
	plants map[string]*model.Plant
	order  []string // insertion order
}

func NewRegistry() *Registry {
	return &Registry{plants: make(map[string]*model.Plant)}
}

// Upsert stores initial under id unless id already exists. It reports whether the plant was created.
func (r *Registry) Upsert(id string, initial model.Plant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(id, initial)
}

func (r *Registry) upsertLocked(id string, initial model.Plant) bool {
	if _, ok := r.plants[id]; ok {
		return false
	}
	p := initial.Clone()
	p.ID = id
	r.plants[id] = &p
	r.order = append(r.order, id)
	return true
}

// Seed bulk-upserts plants and returns how many were created.
func (r *Registry) Seed(plants []model.Plant) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range plants {
		if p.ID != "" && r.upsertLocked(p.ID, p) {
			n++
		}
	}
	return n
}

// Get returns a copy of the plant.
func (r *Registry) Get(id string) (model.Plant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plants[id]
	if !ok {
		return model.Plant{}, false
	}
	return p.Clone(), true
}

// Update runs fn on the stored plant under the registry lock and returns the result.
func (r *Registry) Update(id string, fn func(p *model.Plant)) (model.Plant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plants[id]
	if !ok {
		return model.Plant{}, false
	}
	fn(p)
	return p.Clone(), true
}

// ForEachLive applies fn to every live plant in insertion order. The lock is held for
// the whole pass: fn must not call back into the registry and must not retain p.
func (r *Registry) ForEachLive(fn func(p *model.Plant)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if p := r.plants[id]; p.Alive {
			fn(p)
		}
	}
}

// Snapshot returns copies of every plant, dead ones included, in insertion order.
func (r *Registry) Snapshot() []model.Plant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Plant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.plants[id].Clone())
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plants)
}
