package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mkessler/rentalintel/config"
	"mkessler/rentalintel/internal/api"
	"mkessler/rentalintel/internal/scraper"
	"mkessler/rentalintel/logger"
	"mkessler/rentalintel/services/cache"
	"mkessler/rentalintel/services/geocoder"
	"mkessler/rentalintel/services/mirror"
	"mkessler/rentalintel/services/publisher"
	"mkessler/rentalintel/services/store"
	"mkessler/rentalintel/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	pass := flag.String("pass", "", "run one pass and exit: scrape, backfill, update or geocode")
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("cycle_interval", cfg.CycleInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	source := scraper.NewClient(cfg.SearchURL, cfg.FetchBlockTime, services.Cache)
	w := worker.New(
		source,
		services.Store,
		services.Geocoder,
		services.Mirror,
		services.Publisher,
		worker.NewRandomPacer(cfg),
	)

	// Single-pass and single-cycle invocations run in the foreground
	if *pass != "" {
		if err := runPass(ctx, w, *pass); err != nil {
			log.Fatal().Err(err).Str("pass", *pass).Msg("Pass failed")
		}
		return
	}
	if *once {
		w.RunCycle(ctx)
		return
	}

	// Start API server
	server := api.NewServer(services.Store)
	go func() {
		if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Error().Err(err).Msg("API server exited")
		}
	}()

	// Start worker in a goroutine
	workerDone := make(chan struct{})
	go func() {
		log.Info().Msg("Starting listing worker")
		w.Start(ctx, cfg.CycleInterval)
		close(workerDone)
	}()

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case <-workerDone:
		log.Info().Msg("Worker exited")
	}

	log.Info().Msg("Shutting down gracefully...")
}

func runPass(ctx context.Context, w *worker.Worker, name string) error {
	switch name {
	case "scrape":
		return w.ScrapePass(ctx)
	case "backfill":
		return w.BackfillPass(ctx)
	case "update":
		return w.UpdatePass(ctx)
	case "geocode":
		return w.GeocodePass(ctx)
	default:
		return fmt.Errorf("unknown pass %q", name)
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     *store.Store
	Geocoder  geocoder.Geocoder
	Mirror    *mirror.Client
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Record store
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	services.Store = st

	logger.Info("Opened record store at %s", cfg.DatabasePath)

	// Fetch-block cache
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Event publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Geocoder, disabled without an API key
	if geo := geocoder.NewTomTom(cfg.TomTomAPIKey); geo.Enabled() {
		services.Geocoder = geo
	} else {
		logger.Info("Geocoding disabled: no API key configured")
	}

	// Production mirror, disabled without a base URL
	services.Mirror = mirror.NewClient(cfg.ProductionAPIURL)
	if !services.Mirror.Enabled() {
		logger.Info("Production sync disabled: no base URL configured")
	}

	return services, nil
}
