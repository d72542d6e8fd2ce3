package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	simulator "github.com/LeonardoBeccarini/greenpulse/internal/plant-simulator"
	"github.com/LeonardoBeccarini/greenpulse/pkg/broker"
)

const defaultSubTopics = "greenpulse/newplant,greenpulse/commands/#,greenpulse/simulator"

type config struct {
	MQTT      broker.Config
	SubTopics []string

	Sim            simulator.Config
	PlantTypesPath string
	SeedPath       string

	InfluxURL   string
	InfluxToken string
	InfluxSeed  simulator.InfluxSeedConfig

	HTTPPort int
	GRPCPort string
	LogLevel slog.Level
}

// loadDotEnv loads variables from path. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envDuration accepts Go durations ("15s") or plain seconds ("15").
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level. "trace" is treated as debug.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace", "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// envQoS reads an MQTT QoS level; only 0, 1 and 2 are valid.
func envQoS(key string, def byte) (byte, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 2 {
		return 0, fmt.Errorf("%s: invalid qos %q (valid: 0, 1, 2)", key, v)
	}
	return byte(n), nil
}

func parseTopicMode(s string) (simulator.TopicMode, error) {
	switch m := simulator.TopicMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", simulator.TopicAggregate:
		return simulator.TopicAggregate, nil
	case simulator.TopicPerSensor, simulator.TopicBoth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown topic mode %q (valid: aggregate, per-sensor, both)", s)
	}
}

func loadConfig() (config, error) {
	level, err := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return config{}, err
	}
	mode, err := parseTopicMode(os.Getenv("TOPIC_MODE"))
	if err != nil {
		return config{}, err
	}
	tick := envDuration("TICK_INTERVAL", simulator.DefaultTickInterval)
	seed, err := strconv.ParseInt(envStr("RNG_SEED", "0"), 10, 64)
	if err != nil {
		return config{}, fmt.Errorf("RNG_SEED: %w", err)
	}
	statusQoS, err := envQoS("STATUS_QOS", 1)
	if err != nil {
		return config{}, err
	}
	eventQoS, err := envQoS("EVENT_QOS", 0)
	if err != nil {
		return config{}, err
	}

	return config{
		MQTT: broker.Config{
			Host:        envStr("MQTT_HOST", "localhost"),
			Port:        envInt("MQTT_PORT", 1883),
			User:        os.Getenv("MQTT_USER"),
			Password:    os.Getenv("MQTT_PASSWORD"),
			ClientID:    os.Getenv("MQTT_CLIENT_ID"),
			TLS:         envBool("MQTT_TLS", false),
			TLSInsecure: envBool("MQTT_TLS_INSECURE", false),
		},
		SubTopics: splitTopics(envStr("MQTT_SUB_TOPICS", defaultSubTopics)),
		Sim: simulator.Config{
			Engine: simulator.EngineConfig{
				MaxBadHours: envInt("MAX_BAD_HOURS", simulator.DefaultMaxBadHours),
				TimeScale:   envFloat("TIME_SCALE", 1.0),
			},
			TickInterval: tick,
			Publisher: simulator.PublisherConfig{
				EventTopic:          envStr("EVENT_TOPIC", simulator.DefaultEventTopic),
				SensorTopicTemplate: envStr("SENSOR_TOPIC_TEMPLATE", simulator.DefaultSensorTopicTemplate),
				Mode:                mode,
				QueueSize:           envInt("PUBLISH_QUEUE_SIZE", 1024),
				StatusQoS:           statusQoS,
				EventQoS:            eventQoS,
			},
			RNGSeed: seed,
		},
		PlantTypesPath: os.Getenv("PLANT_TYPES_PATH"),
		SeedPath:       os.Getenv("SEED_PATH"),
		InfluxURL:      os.Getenv("INFLUX_URL"),
		InfluxToken:    os.Getenv("INFLUX_TOKEN"),
		InfluxSeed: simulator.InfluxSeedConfig{
			Org:         envStr("INFLUX_ORG", "greenpulse"),
			Bucket:      envStr("INFLUX_BUCKET", "plants"),
			Measurement: envStr("INFLUX_MEASUREMENT", "plant_status"),
		},
		HTTPPort: envInt("HTTP_PORT", 8080),
		GRPCPort: os.Getenv("GRPC_PORT"),
		LogLevel: level,
	}, nil
}
