package plant_simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

const (
	minHumidity = 0.0
	maxHumidity = 100.0
	minPH       = 4.0
	maxPH       = 8.0

	referenceTemp   = 20.0 // °C at which temperature has no drying effect
	tempDryingCoeff = 0.02 // extra humidity points lost per °C above referenceTemp
	phDriftMax      = 0.05
	phTolerance     = 1.0

	DefaultMaxBadHours  = 12
	DefaultTickInterval = 15 * time.Second
)

// Emitter receives the events produced by state changes. Emit must not block.
type Emitter interface {
	Emit(events ...model.PlantEvent)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(events ...model.PlantEvent)

func (f EmitterFunc) Emit(events ...model.PlantEvent) { f(events...) }

type EngineConfig struct {
	MaxBadHours int     // consecutive bad ticks before death, default 12
	TimeScale   float64 // simulated hours per tick, default 1.0
}

// TickEngine advances every live plant by one simulated interval per Step.
type TickEngine struct {
	registry *Registry
	catalog  *Catalog
	rng      RNG
	emitter  Emitter
	cfg      EngineConfig
	logger   *slog.Logger
	lastTick atomic.Int64 // unix nanos of the last completed pass
}

func NewTickEngine(reg *Registry, cat *Catalog, rng RNG, emitter Emitter, cfg EngineConfig, logger *slog.Logger) *TickEngine {
	if cfg.MaxBadHours <= 0 {
		cfg.MaxBadHours = DefaultMaxBadHours
	}
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1.0
	}
	if cat == nil {
		cat = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TickEngine{registry: reg, catalog: cat, rng: rng, emitter: emitter, cfg: cfg, logger: logger}
}

// Step runs one pass over the live plants and returns the events it emitted.
// The registry lock is held for the pass; events are emitted after it is released.
func (e *TickEngine) Step() []model.PlantEvent {
	start := time.Now()
	var events []model.PlantEvent
	live, deaths := 0, 0

	e.registry.ForEachLive(func(p *model.Plant) {
		died := e.advance(p)
		if died {
			deaths++
			events = append(events, model.PlantEvent{Event: model.EventPlantDead, PlantID: p.ID})
			e.logger.Info("plant died", "plant", p.ID, "type", p.Type, "bad_hours", p.BadHours)
		} else {
			live++
		}
		events = append(events, statusEvent(*p))
	})

	metrics.ticks.Inc()
	metrics.deaths.Add(float64(deaths))
	metrics.livePlants.Set(float64(live))
	metrics.tickDuration.Observe(time.Since(start).Seconds())
	e.lastTick.Store(time.Now().UnixNano())

	if e.emitter != nil && len(events) > 0 {
		e.emitter.Emit(events...)
	}
	return events
}

// advance applies one tick to p and reports whether p died during it.
func (e *TickEngine) advance(p *model.Plant) bool {
	profile := e.catalog.Lookup(p.Type)
	scale := e.cfg.TimeScale

	tempEffect := (p.Temperature - referenceTemp) * tempDryingCoeff
	loss := (profile.DryRate + tempEffect) * e.rng.Uniform(0.8, 1.2) * scale
	p.Humidity = clamp(p.Humidity-loss, minHumidity, maxHumidity)
	p.PH = clamp(p.PH+e.rng.Uniform(-phDriftMax, phDriftMax)*scale, minPH, maxPH)

	recordTrend(p)
	updateNeedsWater(p)

	if !isBad(*p, profile) {
		p.BadHours = 0
		return false
	}
	p.BadHours++
	if p.BadHours >= e.cfg.MaxBadHours && p.Alive {
		p.Alive = false
		return true
	}
	return false
}

func isBad(p model.Plant, profile model.PlantTypeProfile) bool {
	return p.Humidity < profile.MinHumidity ||
		p.Humidity > profile.MaxHumidity ||
		math.Abs(p.PH-profile.IdealPH) > phTolerance
}

// Run calls Step every interval until ctx is cancelled. Cancellation is only observed
// between passes.
func (e *TickEngine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	e.logger.Info("tick loop started", "interval", interval, "max_bad_hours", e.cfg.MaxBadHours, "time_scale", e.cfg.TimeScale)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("tick loop stopped")
			return
		case <-time.After(interval):
			e.safeStep()
		}
	}
}

// LastTick returns when the last pass completed, or the zero time before the first one.
func (e *TickEngine) LastTick() time.Time {
	n := e.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (e *TickEngine) safeStep() {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tick pass failed", "error", fmt.Sprint(r))
		}
	}()
	events := e.Step()
	e.logger.Debug("tick", "events", len(events), "plants", e.registry.Len())
}

func statusEvent(p model.Plant) model.PlantEvent {
	return model.PlantEvent{
		Event:       model.EventStatus,
		PlantID:     p.ID,
		Humidity:    ptr(p.Humidity),
		PH:          ptr(p.PH),
		Temperature: ptr(p.Temperature),
		Alive:       ptr(p.Alive),
		Environment: p.Environment,
		Prediction:  Prediction(p),
	}
}

// clamp bounds v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func ptr[T any](v T) *T { return &v }
