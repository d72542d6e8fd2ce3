package broker

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes a raw payload to a topic.
type IPublisher interface {
	Publish(topic string, qos byte, payload []byte) error
}

// Publisher publishes on the shared MQTT client.
type Publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

var ErrPublishTimeout = errors.New("publish timed out")

// NewPublisher wraps client; timeout bounds the wait for the broker ack (default 5s).
func NewPublisher(client mqtt.Client, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{client: client, timeout: timeout}
}

// Publish sends payload to topic, never retained.
func (p *Publisher) Publish(topic string, qos byte, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}
