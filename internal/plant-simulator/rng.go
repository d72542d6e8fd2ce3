package plant_simulator

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RNG draws the simulation's random numbers. Implementations must be safe for concurrent use.
type RNG interface {
	// Uniform returns a value in [lo, hi).
	Uniform(lo, hi float64) float64
}

type pcgRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG returns a PCG-backed RNG; seed 0 seeds from the clock.
func NewRNG(seed int64) RNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &pcgRNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

func (g *pcgRNG) Uniform(lo, hi float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.r.Float64()*(hi-lo)
}
