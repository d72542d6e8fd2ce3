package plant_simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

// SeedPlant is a plant to create at startup. Missing readings are drawn the same way add_plant does.
type SeedPlant struct {
	PlantID     string   `yaml:"plantId" json:"plantId"`
	Type        string   `yaml:"type" json:"type"`
	Environment string   `yaml:"environment" json:"environment"`
	Humidity    *float64 `yaml:"humidity" json:"humidity"`
	PH          *float64 `yaml:"ph" json:"ph"`
	Temperature *float64 `yaml:"temperature" json:"temperature"`
	Alive       *bool    `yaml:"alive" json:"alive"`
}

// Seeder yields the initial population.
type Seeder interface {
	Load(ctx context.Context) ([]SeedPlant, error)
}

// FileSeeder reads a YAML document (JSON is accepted as well) listing plants,
// either as a bare list or under a top-level "plants" key.
type FileSeeder struct {
	Path string
}

func (s FileSeeder) Load(_ context.Context) ([]SeedPlant, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return parseSeed(b)
}

func parseSeed(b []byte) ([]SeedPlant, error) {
	var list []SeedPlant
	if err := yaml.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Plants []SeedPlant `yaml:"plants"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return doc.Plants, nil
}

type InfluxSeedConfig struct {
	Org         string
	Bucket      string
	Measurement string        // default plant_status
	Lookback    time.Duration // default 7 days
	Timeout     time.Duration // default 5s
}

// InfluxSeeder restores the last recorded state of every plant from InfluxDB.
type InfluxSeeder struct {
	client influxdb2.Client
	cfg    InfluxSeedConfig
}

func NewInfluxSeeder(client influxdb2.Client, cfg InfluxSeedConfig) *InfluxSeeder {
	if cfg.Measurement == "" {
		cfg.Measurement = "plant_status"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 7 * 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &InfluxSeeder{client: client, cfg: cfg}
}

func (s *InfluxSeeder) Load(ctx context.Context) ([]SeedPlant, error) {
	if s.client == nil || s.cfg.Org == "" || s.cfg.Bucket == "" {
		return nil, errors.New("influx config incomplete")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	res, err := s.client.QueryAPI(s.cfg.Org).Query(ctx, buildSeedFlux(s.cfg.Bucket, s.cfg.Measurement, s.cfg.Lookback))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer func() { _ = res.Close() }()

	var out []SeedPlant
	for res.Next() {
		if sp, ok := seedFromRecord(res.Record().Values()); ok {
			out = append(out, sp)
		}
	}
	if res.Err() != nil {
		return out, fmt.Errorf("influx iterate: %w", res.Err())
	}
	return out, nil
}

func buildSeedFlux(bucket, measurement string, lookback time.Duration) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r._field == "humidity" or r._field == "ph" or r._field == "temperature" or r._field == "alive")
  |> last()
  |> group(columns: ["plantId", "type", "environment"])
  |> pivot(rowKey: ["plantId", "type", "environment"], columnKey: ["_field"], valueColumn: "_value")
`, bucket, int(lookback.Minutes()), measurement)
}

// seedFromRecord maps one pivoted row (tags plantId/type/environment, one column per field).
func seedFromRecord(values map[string]interface{}) (SeedPlant, bool) {
	id := strings.TrimSpace(asString(values["plantId"]))
	if id == "" {
		return SeedPlant{}, false
	}
	sp := SeedPlant{
		PlantID:     id,
		Type:        asString(values["type"]),
		Environment: asString(values["environment"]),
	}
	if f, ok := asFloat(values["humidity"]); ok {
		sp.Humidity = &f
	}
	if f, ok := asFloat(values["ph"]); ok {
		sp.PH = &f
	}
	if f, ok := asFloat(values["temperature"]); ok {
		sp.Temperature = &f
	}
	switch v := values["alive"].(type) {
	case bool:
		sp.Alive = &v
	default:
		if f, ok := asFloat(v); ok {
			alive := f != 0
			sp.Alive = &alive
		}
	}
	return sp, true
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// finite returns *v when it is set to a finite number. NaN and ±Inf count as absent.
func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

// Materialize turns a seed entry into a plant, drawing missing readings and clamping the rest.
func Materialize(sp SeedPlant, cat *Catalog, rng RNG) (model.Plant, error) {
	id := strings.TrimSpace(sp.PlantID)
	if id == "" {
		return model.Plant{}, ErrMissingPlantID
	}
	p := model.Plant{
		ID:          id,
		Type:        orDefault(&sp.Type, DefaultPlantType),
		Environment: orDefault(&sp.Environment, DefaultEnvironment),
		Alive:       sp.Alive == nil || *sp.Alive,
	}
	profile := cat.Lookup(p.Type)
	if h, ok := finite(sp.Humidity); ok {
		p.Humidity = clamp(h, minHumidity, maxHumidity)
	} else {
		p.Humidity = rng.Uniform(profile.MinHumidity, profile.MaxHumidity)
	}
	if ph, ok := finite(sp.PH); ok {
		p.PH = clamp(ph, minPH, maxPH)
	} else {
		p.PH = rng.Uniform(initialPHMin, initialPHMax)
	}
	if t, ok := finite(sp.Temperature); ok {
		p.Temperature = t
	} else {
		p.Temperature = rng.Uniform(initialTempMin, initialTempMax)
	}
	updateNeedsWater(&p)
	return p, nil
}
