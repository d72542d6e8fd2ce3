package plant_simulator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

type sent struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeTransport struct {
	mu    sync.Mutex
	msgs  []sent
	calls int
	err   error
}

func (f *fakeTransport) Publish(topic string, qos byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, sent{topic: topic, qos: qos, payload: payload})
	return nil
}

func (f *fakeTransport) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.msgs...)
}

type fakeFeed struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (f *fakeFeed) Broadcast(msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return true
}

func statusFixture() model.PlantEvent {
	return model.PlantEvent{
		Event:       model.EventStatus,
		PlantID:     "p1",
		Environment: "Living Room",
		Humidity:    ptr(33.3333),
		PH:          ptr(6.4567),
		Temperature: ptr(21.06),
		Alive:       ptr(true),
		Prediction:  PredictionWaterSoon,
	}
}

func TestRender_AggregateRoundsValues(t *testing.T) {
	p := NewEventPublisher(nil, nil, PublisherConfig{StatusQoS: 1}, nil)

	msgs, err := p.render(statusFixture())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultEventTopic, msgs[0].topic)
	assert.Equal(t, byte(1), msgs[0].qos)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.Equal(t, "status", got["event"])
	assert.Equal(t, "p1", got["plantId"])
	assert.Equal(t, 33.3, got["humidity"])
	assert.Equal(t, 6.46, got["ph"])
	assert.Equal(t, 21.1, got["temperature"])
	assert.Equal(t, true, got["alive"])
	assert.Equal(t, PredictionWaterSoon, got["prediction"])
}

func TestRender_DomainEventOmitsAbsentFields(t *testing.T) {
	p := NewEventPublisher(nil, nil, PublisherConfig{Mode: TopicPerSensor}, nil)

	msgs, err := p.render(model.PlantEvent{Event: model.EventPlantDead, PlantID: "p1"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultEventTopic, msgs[0].topic)
	assert.JSONEq(t, `{"event":"plant_dead","plantId":"p1"}`, string(msgs[0].payload))
}

func TestRender_PerSensorTopics(t *testing.T) {
	p := NewEventPublisher(nil, nil, PublisherConfig{Mode: TopicPerSensor}, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	msgs, err := p.render(statusFixture())
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	topics := []string{msgs[0].topic, msgs[1].topic, msgs[2].topic}
	assert.Equal(t, []string{
		"greenpulse/living_room/p1/humidity",
		"greenpulse/living_room/p1/ph",
		"greenpulse/living_room/p1/temperature",
	}, topics)

	var r model.SensorReading
	require.NoError(t, json.Unmarshal(msgs[0].payload, &r))
	assert.Equal(t, "humidity", r.Sensor)
	assert.Equal(t, 33.3, r.Value)
	assert.Equal(t, PredictionWaterSoon, r.Prediction)
	assert.True(t, r.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	var ph model.SensorReading
	require.NoError(t, json.Unmarshal(msgs[1].payload, &ph))
	assert.Equal(t, "ph", ph.Sensor)
	assert.Equal(t, 6.46, ph.Value)
	assert.Empty(t, ph.Prediction)
}

func TestRender_BothModes(t *testing.T) {
	p := NewEventPublisher(nil, nil, PublisherConfig{Mode: TopicBoth}, nil)

	msgs, err := p.render(statusFixture())
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
	assert.Equal(t, DefaultEventTopic, msgs[0].topic)
}

func TestSensorTopic_SanitizesSegments(t *testing.T) {
	p := NewEventPublisher(nil, nil, PublisherConfig{SensorTopicTemplate: "farm/{environment}/{plant}/{sensor}"}, nil)
	evt := model.PlantEvent{PlantID: "a/b+c", Environment: ""}
	assert.Equal(t, "farm/unknown/a_b_c/ph", p.sensorTopic(evt, "ph"))
}

func TestRun_PublishesAndDrains(t *testing.T) {
	transport := &fakeTransport{}
	feed := &fakeFeed{}
	p := NewEventPublisher(transport, feed, PublisherConfig{}, nil)

	p.Emit(
		model.PlantEvent{Event: model.EventPlantAdded, PlantID: "p1", Type: "herb"},
		statusFixture(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	msgs := transport.all()
	require.Len(t, msgs, 2)
	assert.Contains(t, string(msgs[0].payload), `"plant_added"`)
	assert.Contains(t, string(msgs[1].payload), `"status"`)
	assert.Len(t, feed.msgs, 2)
}

func TestEmit_DropsWhenQueueFull(t *testing.T) {
	transport := &fakeTransport{}
	p := NewEventPublisher(transport, nil, PublisherConfig{QueueSize: 1}, nil)

	p.Emit(
		model.PlantEvent{Event: model.EventPlantDead, PlantID: "p1"},
		model.PlantEvent{Event: model.EventPlantDead, PlantID: "p2"},
		model.PlantEvent{Event: model.EventPlantDead, PlantID: "p3"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	msgs := transport.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0].payload), `"p1"`)
}

func TestPublish_BreakerStopsCallingBrokenTransport(t *testing.T) {
	transport := &fakeTransport{err: errors.New("broker down")}
	feed := &fakeFeed{}
	p := NewEventPublisher(transport, feed, PublisherConfig{BreakerFailures: 3}, nil)

	for i := 0; i < 10; i++ {
		p.publish(model.PlantEvent{Event: model.EventPlantDead, PlantID: "p1"})
	}

	assert.Equal(t, 3, transport.calls)
	assert.Len(t, feed.msgs, 10)
}

func TestRender_HugeTemperatureStaysEncodable(t *testing.T) {
	reg, router, rec := newTestRouter()
	reg.Upsert("p1", model.Plant{Type: "herb", Humidity: 60, PH: 6.8, Temperature: 20, Alive: true})
	require.NoError(t, router.Handle("greenpulse/commands/temp", []byte(`{"plantId":"p1","temp":1e308}`)))

	p := NewEventPublisher(nil, nil, PublisherConfig{Mode: TopicBoth}, nil)
	events := rec.take()
	require.Len(t, events, 1)
	plant, _ := reg.Get("p1")
	events = append(events, statusEvent(plant))

	for _, evt := range events {
		msgs, err := p.render(evt)
		require.NoError(t, err, evt.Event)
		require.NotEmpty(t, msgs)
	}
	msgs, err := p.render(events[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.Equal(t, 1e308, got["temperature"])
}

func TestRound(t *testing.T) {
	assert.Equal(t, 33.3, round(33.3333, 1))
	assert.Equal(t, 6.46, round(6.4567, 2))
	assert.Equal(t, 1e308, round(1e308, 1))
	assert.Equal(t, -1e308, round(-1e308, 2))
}
