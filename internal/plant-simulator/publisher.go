package plant_simulator

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
	"github.com/LeonardoBeccarini/greenpulse/pkg/broker"
)

// TopicMode selects how status telemetry is laid out on the broker.
type TopicMode string

const (
	TopicAggregate TopicMode = "aggregate"  // every event on EventTopic
	TopicPerSensor TopicMode = "per-sensor" // status split per sensor, domain events on EventTopic
	TopicBoth      TopicMode = "both"
)

const (
	DefaultEventTopic          = "greenpulse/simulator"
	DefaultSensorTopicTemplate = "greenpulse/{environment}/{plant}/{sensor}"
)

type PublisherConfig struct {
	EventTopic          string
	SensorTopicTemplate string
	Mode                TopicMode
	QueueSize           int  // default 1024
	StatusQoS           byte // telemetry
	EventQoS            byte // domain events

	BreakerFailures int           // consecutive failures before the breaker opens, default 5
	BreakerOpenFor  time.Duration // default 30s
}

// Broadcaster receives every rendered event, e.g. a websocket live feed.
type Broadcaster interface {
	Broadcast(msg []byte) bool
}

type outbound struct {
	topic   string
	qos     byte
	payload []byte
}

// EventPublisher renders events to the wire schema and publishes them fire-and-forget.
// Emit only enqueues; a single worker started by Run does the broker I/O.
type EventPublisher struct {
	transport broker.IPublisher
	feed      Broadcaster
	cfg       PublisherConfig
	queue     chan model.PlantEvent
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventPublisher(transport broker.IPublisher, feed Broadcaster, cfg PublisherConfig, logger *slog.Logger) *EventPublisher {
	if cfg.EventTopic == "" {
		cfg.EventTopic = DefaultEventTopic
	}
	if cfg.SensorTopicTemplate == "" {
		cfg.SensorTopicTemplate = DefaultSensorTopicTemplate
	}
	if cfg.Mode == "" {
		cfg.Mode = TopicAggregate
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &EventPublisher{
		transport: transport,
		feed:      feed,
		cfg:       cfg,
		queue:     make(chan model.PlantEvent, cfg.QueueSize),
		logger:    logger,
		now:       time.Now,
	}
	fails := uint32(cfg.BreakerFailures)
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mqtt-publish",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("publish breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return p
}

// Emit enqueues events without blocking. Events that do not fit are dropped.
func (p *EventPublisher) Emit(events ...model.PlantEvent) {
	for _, evt := range events {
		select {
		case p.queue <- evt:
		default:
			metrics.droppedEvents.Inc()
			p.logger.Warn("publish queue full, event dropped", "event", evt.Event, "plant", evt.PlantID)
		}
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is already queued.
func (p *EventPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case evt := <-p.queue:
			p.publish(evt)
		}
	}
}

func (p *EventPublisher) drain() {
	n := 0
	for {
		select {
		case evt := <-p.queue:
			p.publish(evt)
			n++
		default:
			p.logger.Info("event publisher stopped", "drained", n)
			return
		}
	}
}

func (p *EventPublisher) publish(evt model.PlantEvent) {
	msgs, err := p.render(evt)
	if err != nil {
		p.logger.Error("render event", "event", evt.Event, "plant", evt.PlantID, "error", err)
		return
	}
	if p.feed != nil {
		// the live feed always gets the aggregate form, whatever the topic mode
		if b, err := json.Marshal(roundEvent(evt)); err == nil {
			p.feed.Broadcast(b)
		}
	}
	if p.transport == nil {
		return
	}
	for _, m := range msgs {
		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, p.transport.Publish(m.topic, m.qos, m.payload)
		})
		if err != nil {
			metrics.publishErrors.Inc()
			p.logger.Warn("publish failed", "topic", m.topic, "event", evt.Event, "plant", evt.PlantID, "error", err)
			continue
		}
		metrics.published.WithLabelValues(string(evt.Event)).Inc()
	}
}

// render turns one event into the broker messages for the configured topic mode.
func (p *EventPublisher) render(evt model.PlantEvent) ([]outbound, error) {
	wire := roundEvent(evt)
	if wire.Event != model.EventStatus {
		b, err := json.Marshal(wire)
		if err != nil {
			return nil, err
		}
		return []outbound{{topic: p.cfg.EventTopic, qos: p.cfg.EventQoS, payload: b}}, nil
	}

	var out []outbound
	if p.cfg.Mode == TopicAggregate || p.cfg.Mode == TopicBoth {
		b, err := json.Marshal(wire)
		if err != nil {
			return nil, err
		}
		out = append(out, outbound{topic: p.cfg.EventTopic, qos: p.cfg.StatusQoS, payload: b})
	}
	if p.cfg.Mode == TopicPerSensor || p.cfg.Mode == TopicBoth {
		ts := p.now().UTC()
		for _, r := range sensorReadings(wire, ts) {
			b, err := json.Marshal(r)
			if err != nil {
				return nil, err
			}
			out = append(out, outbound{topic: p.sensorTopic(wire, r.Sensor), qos: p.cfg.StatusQoS, payload: b})
		}
	}
	return out, nil
}

func sensorReadings(evt model.PlantEvent, ts time.Time) []model.SensorReading {
	var out []model.SensorReading
	add := func(sensor string, v *float64, prediction string) {
		if v == nil {
			return
		}
		out = append(out, model.SensorReading{
			PlantID:     evt.PlantID,
			Environment: evt.Environment,
			Sensor:      sensor,
			Value:       *v,
			Timestamp:   ts,
			Prediction:  prediction,
		})
	}
	add("humidity", evt.Humidity, evt.Prediction)
	add("ph", evt.PH, "")
	add("temperature", evt.Temperature, "")
	return out
}

var topicSegment = strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")

func (p *EventPublisher) sensorTopic(evt model.PlantEvent, sensor string) string {
	env := evt.Environment
	if env == "" {
		env = "unknown"
	}
	return strings.NewReplacer(
		"{environment}", topicSegment.Replace(strings.ToLower(env)),
		"{plant}", topicSegment.Replace(evt.PlantID),
		"{sensor}", sensor,
	).Replace(p.cfg.SensorTopicTemplate)
}

// roundEvent applies the wire precision: humidity and temperature to 0.1, pH to 0.01.
func roundEvent(evt model.PlantEvent) model.PlantEvent {
	if evt.Humidity != nil {
		evt.Humidity = ptr(round(*evt.Humidity, 1))
	}
	if evt.PH != nil {
		evt.PH = ptr(round(*evt.PH, 2))
	}
	if evt.Temperature != nil {
		evt.Temperature = ptr(round(*evt.Temperature, 1))
	}
	return evt
}

// round keeps values too large to scale as they are.
func round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	if math.IsInf(v*f, 0) {
		return v
	}
	return math.Round(v*f) / f
}
