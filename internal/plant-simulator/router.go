package plant_simulator

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
	"github.com/LeonardoBeccarini/greenpulse/pkg/dedup"
)

const (
	phStepFraction = 0.5 // set_ph moves this fraction of the way to the target

	initialPHMin   = 6.0
	initialPHMax   = 7.5
	initialTempMin = 18.0
	initialTempMax = 28.0
)

// Router decodes inbound control messages and applies them to the registry.
type Router struct {
	registry *Registry
	catalog  *Catalog
	rng      RNG
	emitter  Emitter
	deduper  *dedup.Deduper
	logger   *slog.Logger
}

func NewRouter(reg *Registry, cat *Catalog, rng RNG, emitter Emitter, deduper *dedup.Deduper, logger *slog.Logger) *Router {
	if cat == nil {
		cat = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: reg, catalog: cat, rng: rng, emitter: emitter, deduper: deduper, logger: logger}
}

// HandleMessage is the broker handler. QoS 1 redeliveries flagged DUP are dropped when
// the same message was already seen.
func (r *Router) HandleMessage(_ string, msg mqtt.Message) error {
	if r.deduper != nil && msg.Qos() > 0 {
		h := sha256.Sum256(msg.Payload())
		key := fmt.Sprintf("%s|%d|%s", msg.Topic(), msg.MessageID(), hex.EncodeToString(h[:]))
		if fresh := r.deduper.ShouldProcess(key); !fresh && msg.Duplicate() {
			metrics.commands.WithLabelValues("", "duplicate").Inc()
			r.logger.Debug("duplicate delivery dropped", "topic", msg.Topic(), "message_id", msg.MessageID())
			return nil
		}
	}
	return r.Handle(msg.Topic(), msg.Payload())
}

// Handle validates and applies one message. Messages that carry no command (for
// instance our own events echoed on the aggregate channel) are ignored without error.
func (r *Router) Handle(topic string, payload []byte) error {
	cmd, err := DecodeCommand(topic, payload)
	if err != nil {
		if errors.Is(err, ErrNoCommand) {
			metrics.commands.WithLabelValues("", "ignored").Inc()
			r.logger.Debug("no command in message", "topic", topic)
			return nil
		}
		metrics.commands.WithLabelValues("", "rejected").Inc()
		return fmt.Errorf("command rejected: %w", err)
	}
	r.Apply(cmd)
	return nil
}

// Apply mutates the registry for cmd and emits its confirmation event. It reports
// false for no-ops: add_plant on an existing id, or any other command on an unknown id.
func (r *Router) Apply(cmd Command) bool {
	evt, ok := r.apply(cmd)
	result := "applied"
	if !ok {
		result = "noop"
	}
	metrics.commands.WithLabelValues(string(cmd.Kind()), result).Inc()
	if !ok {
		return false
	}
	if r.emitter != nil {
		r.emitter.Emit(evt)
	}
	return true
}

func (r *Router) apply(cmd Command) (model.PlantEvent, bool) {
	switch c := cmd.(type) {
	case AddPlant:
		return r.addPlant(c)
	case Water:
		p, ok := r.registry.Update(c.PlantID, func(p *model.Plant) {
			p.Humidity = clamp(p.Humidity+c.Amount*100, minHumidity, maxHumidity)
			updateNeedsWater(p)
		})
		if !ok {
			return r.unknown(c)
		}
		r.logger.Info("plant watered", "plant", c.PlantID, "amount", c.Amount, "humidity", p.Humidity)
		return model.PlantEvent{Event: model.EventPlantWatered, PlantID: p.ID, Humidity: ptr(p.Humidity)}, true
	case SetPH:
		p, ok := r.registry.Update(c.PlantID, func(p *model.Plant) {
			p.PH = clamp(p.PH+(c.Target-p.PH)*phStepFraction, minPH, maxPH)
		})
		if !ok {
			return r.unknown(c)
		}
		r.logger.Info("ph adjusted", "plant", c.PlantID, "target", c.Target, "ph", p.PH)
		return model.PlantEvent{Event: model.EventPHAdjusted, PlantID: p.ID, PH: ptr(p.PH)}, true
	case SetTemp:
		p, ok := r.registry.Update(c.PlantID, func(p *model.Plant) {
			p.Temperature = c.Temp
		})
		if !ok {
			return r.unknown(c)
		}
		r.logger.Info("temperature set", "plant", c.PlantID, "temperature", p.Temperature)
		return model.PlantEvent{Event: model.EventTempAdjusted, PlantID: p.ID, Temperature: ptr(p.Temperature)}, true
	default:
		panic(fmt.Sprintf("unhandled command %T", cmd))
	}
}

func (r *Router) addPlant(c AddPlant) (model.PlantEvent, bool) {
	profile := r.catalog.Lookup(c.Type)
	initial := model.Plant{
		Type:        c.Type,
		Environment: c.Environment,
		Humidity:    r.rng.Uniform(profile.MinHumidity, profile.MaxHumidity),
		PH:          r.rng.Uniform(initialPHMin, initialPHMax),
		Temperature: r.rng.Uniform(initialTempMin, initialTempMax),
		Alive:       true,
	}
	updateNeedsWater(&initial)
	if !r.registry.Upsert(c.PlantID, initial) {
		r.logger.Debug("plant already exists", "plant", c.PlantID)
		return model.PlantEvent{}, false
	}
	if !r.catalog.Has(c.Type) {
		r.logger.Warn("unknown plant type, using default profile", "plant", c.PlantID, "type", c.Type)
	}
	r.logger.Info("plant added", "plant", c.PlantID, "type", c.Type, "environment", c.Environment)
	return model.PlantEvent{
		Event:       model.EventPlantAdded,
		PlantID:     c.PlantID,
		Type:        c.Type,
		Environment: c.Environment,
	}, true
}

func (r *Router) unknown(cmd Command) (model.PlantEvent, bool) {
	r.logger.Debug("command for unknown plant", "plant", cmd.Plant(), "command", cmd.Kind())
	return model.PlantEvent{}, false
}
