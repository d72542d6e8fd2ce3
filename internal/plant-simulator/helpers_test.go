package plant_simulator

import (
	"sync"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

// midRNG always returns the midpoint of the range: no jitter, no pH drift.
type midRNG struct{}

func (midRNG) Uniform(lo, hi float64) float64 { return (lo + hi) / 2 }

type recorder struct {
	mu     sync.Mutex
	events []model.PlantEvent
}

func (r *recorder) Emit(events ...model.PlantEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) take() []model.PlantEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func (r *recorder) ofType(t model.EventType) []model.PlantEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PlantEvent
	for _, e := range r.events {
		if e.Event == t {
			out = append(out, e)
		}
	}
	return out
}
