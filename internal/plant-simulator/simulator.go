package plant_simulator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
	"github.com/LeonardoBeccarini/greenpulse/pkg/broker"
	"github.com/LeonardoBeccarini/greenpulse/pkg/dedup"
)

type Config struct {
	Engine       EngineConfig
	TickInterval time.Duration
	Publisher    PublisherConfig
	RNGSeed      int64 // 0 seeds from the clock

	DedupTTL time.Duration // default 10m
	DedupMax int           // default 10000
}

// Simulator owns the registry and wires the tick engine, the command router and the
// event publisher together.
type Simulator struct {
	cfg       Config
	registry  *Registry
	catalog   *Catalog
	rng       RNG
	engine    *TickEngine
	router    *Router
	publisher *EventPublisher
	consumer  broker.IConsumer
	health    *Health
	seeders   []Seeder
	logger    *slog.Logger
}

// New builds a simulator. transport, consumer, feed and conn may be nil, in which case
// the corresponding side is simply not exercised.
func New(cfg Config, cat *Catalog, transport broker.IPublisher, consumer broker.IConsumer, feed Broadcaster, conn ConnChecker, logger *slog.Logger, seeders ...Seeder) *Simulator {
	if cat == nil {
		cat = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	reg := NewRegistry()
	rng := NewRNG(cfg.RNGSeed)
	pub := NewEventPublisher(transport, feed, cfg.Publisher, logger.With("component", "publisher"))
	engine := NewTickEngine(reg, cat, rng, pub, cfg.Engine, logger.With("component", "engine"))
	router := NewRouter(reg, cat, rng, pub, dedup.New(cfg.DedupTTL, cfg.DedupMax), logger.With("component", "router"))
	if consumer != nil {
		consumer.SetHandler(router.HandleMessage)
	}
	return &Simulator{
		cfg:       cfg,
		registry:  reg,
		catalog:   cat,
		rng:       rng,
		engine:    engine,
		router:    router,
		publisher: pub,
		consumer:  consumer,
		health:    NewHealth(conn, engine, reg, cfg.TickInterval),
		seeders:   seeders,
		logger:    logger,
	}
}

func (s *Simulator) Registry() *Registry { return s.registry }
func (s *Simulator) Router() *Router     { return s.router }
func (s *Simulator) Engine() *TickEngine { return s.engine }
func (s *Simulator) Health() *Health     { return s.health }

// Seed loads every seeder into the registry. A failing seeder is logged and skipped.
func (s *Simulator) Seed(ctx context.Context) int {
	total := 0
	for _, sd := range s.seeders {
		entries, err := sd.Load(ctx)
		if err != nil {
			s.logger.Warn("seed source failed", "source", seederName(sd), "error", err)
		}
		plants := make([]model.Plant, 0, len(entries))
		for _, e := range entries {
			p, err := Materialize(e, s.catalog, s.rng)
			if err != nil {
				s.logger.Warn("seed entry skipped", "source", seederName(sd), "error", err)
				continue
			}
			plants = append(plants, p)
		}
		n := s.registry.Seed(plants)
		total += n
		s.logger.Info("plants seeded", "source", seederName(sd), "created", n, "entries", len(entries))
	}
	return total
}

// Start seeds the registry, starts the publisher and the consumer and runs the tick loop
// until ctx is cancelled. On the way out the consumer unsubscribes first, then the
// publisher drains its queue. Closing the broker connection is left to the caller.
func (s *Simulator) Start(ctx context.Context) {
	s.Seed(ctx)

	pubCtx, pubCancel := context.WithCancel(context.Background())
	var pubWG sync.WaitGroup
	pubWG.Add(1)
	go func() {
		defer pubWG.Done()
		s.publisher.Run(pubCtx)
	}()

	var consWG sync.WaitGroup
	if s.consumer != nil {
		consWG.Add(1)
		go func() {
			defer consWG.Done()
			s.consumer.ConsumeMessage(ctx)
		}()
	}

	s.health.MarkStarted()
	s.logger.Info("simulator started", "plants", s.registry.Len(), "tick_interval", s.cfg.TickInterval)

	s.engine.Run(ctx, s.cfg.TickInterval)

	consWG.Wait()
	pubCancel()
	pubWG.Wait()
	s.logger.Info("simulator stopped", "plants", s.registry.Len())
}

func seederName(sd Seeder) string {
	switch v := sd.(type) {
	case FileSeeder:
		return "file:" + v.Path
	case *InfluxSeeder:
		return "influx"
	default:
		return "custom"
	}
}
