package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config describes how to reach the MQTT broker.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	ClientID    string // empty -> "<ClientIDPrefix>-<uuid>"
	TLS         bool
	TLSInsecure bool // accept self-signed broker certificates

	MaxRetries int           // connect attempts, default 5
	MaxElapsed time.Duration // backoff budget, default 10s

	// OnConnect runs after every successful (re)connection, e.g. to restore subscriptions.
	OnConnect func(mqtt.Client)

	Logger *slog.Logger
}

const ClientIDPrefix = "greenpulse-sim"

func (cfg *Config) brokerURL() string {
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
}

func (cfg *Config) clientID() string {
	if cfg.ClientID != "" {
		return cfg.ClientID
	}
	return ClientIDPrefix + "-" + uuid.NewString()
}

// NewConn connects to the broker, retrying with exponential backoff until ctx is done.
// The caller owns the client and releases it with Close once publishers have drained.
func NewConn(ctx context.Context, cfg *Config) (mqtt.Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.brokerURL()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.clientID())
	opts.SetCleanSession(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetAutoReconnect(true)
	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.TLSInsecure, //nolint:gosec // opt-in for self-signed lab brokers
		})
	}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("mqtt connected", "broker", addr)
		if cfg.OnConnect != nil {
			cfg.OnConnect(c)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", addr, "error", err)
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxElapsed
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Warn("mqtt connect failed", "broker", addr, "error", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	return client, nil
}

// Close disconnects the client if it is still connected.
func Close(client mqtt.Client, logger *slog.Logger) {
	if client == nil || !client.IsConnected() {
		return
	}
	client.Disconnect(250)
	if logger != nil {
		logger.Info("mqtt connection closed")
	}
}
