package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	simulator "github.com/LeonardoBeccarini/greenpulse/internal/plant-simulator"
	"github.com/LeonardoBeccarini/greenpulse/pkg/broker"
	"github.com/LeonardoBeccarini/greenpulse/pkg/livefeed"
)

func main() {
	if err := loadDotEnv(envStr("ENV_FILE", ".env")); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Catalog ===
	catalog := simulator.DefaultCatalog()
	if cfg.PlantTypesPath != "" {
		catalog, err = simulator.LoadCatalog(cfg.PlantTypesPath)
		if err != nil {
			logger.Error("load plant types", "path", cfg.PlantTypesPath, "error", err)
			os.Exit(1)
		}
	}

	// === MQTT ===
	var consumerRef atomic.Pointer[broker.MultiConsumer]
	cfg.MQTT.Logger = logger.With("component", "mqtt")
	cfg.MQTT.OnConnect = func(mqtt.Client) {
		if c := consumerRef.Load(); c != nil {
			c.Resubscribe()
		}
	}
	client, err := broker.NewConn(ctx, &cfg.MQTT)
	if err != nil {
		logger.Error("mqtt connection error", "error", err)
		os.Exit(1)
	}
	consumer := broker.NewMultiConsumer(client, cfg.SubTopics, nil, logger.With("component", "consumer"))
	consumerRef.Store(consumer)
	publisher := broker.NewPublisher(client, 5*time.Second)

	// === Seed sources ===
	var seeders []simulator.Seeder
	if cfg.SeedPath != "" {
		seeders = append(seeders, simulator.FileSeeder{Path: cfg.SeedPath})
	}
	if cfg.InfluxURL != "" {
		influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
		defer influx.Close()
		seeders = append(seeders, simulator.NewInfluxSeeder(influx, cfg.InfluxSeed))
	}

	hub := livefeed.NewHub(logger.With("component", "livefeed"))
	defer hub.Close()

	sim := simulator.New(cfg.Sim, catalog, publisher, consumer, hub, client, logger, seeders...)

	// === HTTP ===
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           simulator.NewHTTPMux(sim.Registry(), sim.Health(), hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http listening", "port", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// === gRPC health ===
	var grpcServer *grpc.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Error("grpc listen", "port", cfg.GRPCPort, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer()
		hsrv := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, hsrv)
		go sim.Health().WatchGRPC(ctx, hsrv, 5*time.Second)
		go func() {
			logger.Info("grpc health listening", "port", cfg.GRPCPort)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc serve error", "error", err)
			}
		}()
	}

	// blocks until SIGINT/SIGTERM
	sim.Start(ctx)
	logger.Info("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shCtx)
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	broker.Close(client, logger)
}
