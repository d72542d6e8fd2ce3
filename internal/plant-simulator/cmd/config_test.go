package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simulator "github.com/LeonardoBeccarini/greenpulse/internal/plant-simulator"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"trace":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, []string{"greenpulse/newplant", "greenpulse/commands/#", "greenpulse/simulator"}, cfg.SubTopics)
	assert.Equal(t, simulator.DefaultTickInterval, cfg.Sim.TickInterval)
	assert.Equal(t, simulator.DefaultMaxBadHours, cfg.Sim.Engine.MaxBadHours)
	assert.Equal(t, simulator.TopicAggregate, cfg.Sim.Publisher.Mode)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("MQTT_HOST", "broker.local")
	t.Setenv("MQTT_TLS", "true")
	t.Setenv("MQTT_SUB_TOPICS", " a/#, ,b ")
	t.Setenv("TICK_INTERVAL", "3")
	t.Setenv("TIME_SCALE", "0.5")
	t.Setenv("TOPIC_MODE", "Per-Sensor")
	t.Setenv("RNG_SEED", "99")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "broker.local", cfg.MQTT.Host)
	assert.True(t, cfg.MQTT.TLS)
	assert.Equal(t, []string{"a/#", "b"}, cfg.SubTopics)
	assert.Equal(t, 3*time.Second, cfg.Sim.TickInterval)
	assert.Equal(t, 0.5, cfg.Sim.Engine.TimeScale)
	assert.Equal(t, simulator.TopicPerSensor, cfg.Sim.Publisher.Mode)
	assert.Equal(t, int64(99), cfg.Sim.RNGSeed)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("TOPIC_MODE", "sideways")
	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("TOPIC_MODE", "")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_QoS(t *testing.T) {
	t.Setenv("STATUS_QOS", "2")
	t.Setenv("EVENT_QOS", "1")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, byte(2), cfg.Sim.Publisher.StatusQoS)
	assert.Equal(t, byte(1), cfg.Sim.Publisher.EventQoS)

	for _, bad := range []string{"3", "257", "-1", "high"} {
		t.Setenv("STATUS_QOS", bad)
		_, err := loadConfig()
		assert.Error(t, err, bad)
	}
}
