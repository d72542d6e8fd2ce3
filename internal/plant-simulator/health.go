package plant_simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ConnChecker reports broker connectivity. mqtt.Client satisfies it.
type ConnChecker interface {
	IsConnectionOpen() bool
}

// Health backs /healthz, /readyz and the gRPC health service.
type Health struct {
	broker   ConnChecker
	engine   *TickEngine
	registry *Registry
	interval time.Duration
	started  atomic.Bool
	now      func() time.Time
}

func NewHealth(broker ConnChecker, engine *TickEngine, reg *Registry, tickInterval time.Duration) *Health {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Health{broker: broker, engine: engine, registry: reg, interval: tickInterval, now: time.Now}
}

// MarkStarted flags the simulator as seeded and subscribed.
func (h *Health) MarkStarted() { h.started.Store(true) }

func (h *Health) connected() bool {
	return h.broker != nil && h.broker.IsConnectionOpen()
}

// tickStale is true once the tick loop has missed three intervals.
func (h *Health) tickStale() bool {
	if h.engine == nil {
		return false
	}
	last := h.engine.LastTick()
	return !last.IsZero() && h.now().Sub(last) > 3*h.interval
}

// Ready is true when the simulator has started, the broker is connected and ticks are flowing.
func (h *Health) Ready() bool {
	return h.started.Load() && h.connected() && !h.tickStale()
}

func (h *Health) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		type status struct {
			Status        string  `json:"status"`
			MQTTConnected bool    `json:"mqtt_connected"`
			Started       bool    `json:"started"`
			Plants        int     `json:"plants"`
			LastTickAgeS  float64 `json:"last_tick_age_sec"`
		}
		st := status{
			MQTTConnected: h.connected(),
			Started:       h.started.Load(),
		}
		if h.registry != nil {
			st.Plants = h.registry.Len()
		}
		if h.engine != nil {
			if last := h.engine.LastTick(); !last.IsZero() {
				st.LastTickAgeS = h.now().Sub(last).Seconds()
			}
		}
		switch {
		case st.MQTTConnected && !h.tickStale():
			st.Status = "ok"
		case st.MQTTConnected || !h.tickStale():
			st.Status = "degraded"
		default:
			st.Status = "down"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	})
}

// ReadyHandler answers 200 only when Ready, 503 otherwise.
func (h *Health) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ready := h.Ready()
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(struct {
			Ready bool `json:"ready"`
		}{Ready: ready})
	})
}

// WatchGRPC mirrors Ready onto srv's overall serving status until ctx is cancelled.
func (h *Health) WatchGRPC(ctx context.Context, srv *health.Server, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Second
	}
	set := func() {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if h.Ready() {
			st = healthpb.HealthCheckResponse_SERVING
		}
		srv.SetServingStatus("", st)
	}
	set()
	for {
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-time.After(every):
			set()
		}
	}
}
