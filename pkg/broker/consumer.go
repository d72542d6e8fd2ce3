package broker

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one inbound message; filter is the subscription that matched it.
type Handler func(filter string, message mqtt.Message) error

// IConsumer subscribes a handler and blocks until ctx is done.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// MultiConsumer subscribes one handler to several topic filters.
type MultiConsumer struct {
	client mqtt.Client
	topics []string
	logger *slog.Logger

	mu      sync.RWMutex
	handler Handler
	active  bool
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler, logger *slog.Logger) *MultiConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	clean := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return &MultiConsumer{client: client, topics: clean, handler: handler, logger: logger}
}

func (m *MultiConsumer) SetHandler(handler Handler) {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
}

// QoSFor returns the subscription QoS: commands are at-least-once, everything else best effort.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.Contains(t, "/commands") || strings.HasSuffix(t, "/newplant") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes to every topic, blocks until ctx is cancelled and then
// unsubscribes, so no new messages are accepted after it returns.
func (m *MultiConsumer) ConsumeMessage(ctx context.Context) {
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()
	m.subscribe()

	<-ctx.Done()

	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
	if len(m.topics) > 0 {
		m.client.Unsubscribe(m.topics...).Wait()
	}
	m.logger.Info("mqtt consumer stopped", "topics", m.topics)
}

// Resubscribe restores subscriptions after a reconnect with a clean session.
func (m *MultiConsumer) Resubscribe() {
	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()
	if active {
		m.subscribe()
	}
}

func (m *MultiConsumer) subscribe() {
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			m.mu.RLock()
			h := m.handler
			m.mu.RUnlock()
			if h == nil {
				m.logger.Warn("no handler set", "topic", topic)
				return
			}
			if err := h(topic, msg); err != nil {
				m.logger.Warn("message dropped", "topic", msg.Topic(), "error", err)
			}
		})
		token.Wait()
		if err := token.Error(); err != nil {
			m.logger.Error("subscribe failed", "topic", topic, "error", err)
			continue
		}
		m.logger.Info("subscribed", "topic", topic, "qos", QoSFor(topic))
	}
}
