package plant_simulator

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

// Summary aggregates the current population.
type Summary struct {
	Plants     int            `json:"plants"`
	Alive      int            `json:"alive"`
	Dead       int            `json:"dead"`
	NeedsWater int            `json:"needsWater"`
	ByType     map[string]int `json:"byType"`
	Humidity   *HumidityStats `json:"humidity,omitempty"` // live plants only
}

type HumidityStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewHTTPMux exposes read-only views of the registry plus health, metrics and the live feed.
// feed may be nil.
func NewHTTPMux(reg *Registry, h *Health, feed http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	if h != nil {
		mux.Handle("GET /healthz", h.HealthHandler())
		mux.Handle("GET /readyz", h.ReadyHandler())
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	if feed != nil {
		mux.Handle("GET /events/ws", feed)
	}

	// GET /plants[?environment=<env>&alive=true|false]
	mux.HandleFunc("GET /plants", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		env := strings.TrimSpace(q.Get("environment"))
		alive := strings.ToLower(strings.TrimSpace(q.Get("alive")))

		out := make([]model.Plant, 0)
		for _, p := range reg.Snapshot() {
			if env != "" && !strings.EqualFold(p.Environment, env) {
				continue
			}
			if (alive == "true" && !p.Alive) || (alive == "false" && p.Alive) {
				continue
			}
			out = append(out, p)
		}
		writeJSON(w, http.StatusOK, out)
	})

	// GET /plants/thirsty: live plants flagged as needing water, driest first
	mux.HandleFunc("GET /plants/thirsty", func(w http.ResponseWriter, _ *http.Request) {
		out := make([]model.Plant, 0)
		for _, p := range reg.Snapshot() {
			if p.Alive && p.NeedsWater {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Humidity < out[j].Humidity })
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET /plants/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := reg.Get(r.PathValue("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "plant not found"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	mux.HandleFunc("GET /summary", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Summarize(reg.Snapshot()))
	})

	return mux
}

func Summarize(plants []model.Plant) Summary {
	s := Summary{Plants: len(plants), ByType: make(map[string]int)}
	var sum float64
	for _, p := range plants {
		s.ByType[p.Type]++
		if !p.Alive {
			s.Dead++
			continue
		}
		s.Alive++
		if p.NeedsWater {
			s.NeedsWater++
		}
		if s.Humidity == nil {
			s.Humidity = &HumidityStats{Min: p.Humidity, Max: p.Humidity}
		}
		s.Humidity.Min = min(s.Humidity.Min, p.Humidity)
		s.Humidity.Max = max(s.Humidity.Max, p.Humidity)
		sum += p.Humidity
	}
	if s.Humidity != nil {
		s.Humidity.Avg = round(sum/float64(s.Alive), 1)
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
