package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/kv-server/internal/api"
	"github.com/skybi/kv-server/internal/config"
	"github.com/skybi/kv-server/internal/kv"
	"github.com/skybi/kv-server/internal/task"
	"github.com/skybi/kv-server/internal/token"
	"github.com/skybi/kv-server/internal/token/storage/inmem"
	"github.com/skybi/kv-server/internal/token/usage"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", cfg)).Msg("")

	// Create the key-value store
	log.Info().Int("capacity", cfg.StoreCapacity).Float64("load_factor", cfg.StoreLoadFactor).Msg("creating the key-value store...")
	store, err := kv.NewStore(cfg.StoreCapacity, cfg.StoreLoadFactor)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the key-value store")
	}

	// Initialize the in-memory token storage and seed the admin token
	log.Info().Msg("initializing the token storage...")
	tokens, err := inmem.New()
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the token storage")
	}
	adminToken := cfg.AdminToken
	if adminToken == "" {
		adminToken = uuid.NewString()
		log.Warn().Str("token", adminToken).Msg("no admin token was configured; a generated one is used")
	}
	if _, err := tokens.CreateStatic(context.Background(), adminToken, token.AllCapabilities, 0); err != nil {
		log.Fatal().Err(err).Msg("could not seed the admin token")
	}

	// Schedule the task that removes expired tokens
	cleanupTask := task.NewRepeating(func() {
		n, err := tokens.DeleteExpired(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("could not delete expired tokens")
		} else if n > 0 {
			log.Info().Int("amount", n).Msg("deleted expired tokens")
		}
	}, cfg.TokenCleanupInterval)
	cleanupTask.Start()
	defer cleanupTask.Stop(true)

	// Create the token usage tracker and schedule a task that flushes it to the log
	usageTracker := usage.NewTracker()
	flushingTask := task.NewRepeating(func() {
		usageTracker.Flush(func(counters map[uuid.UUID]uint64) {
			for id, count := range counters {
				log.Debug().Str("token", id.String()).Uint64("requests", count).Msg("token usage")
			}
		})
	}, cfg.UsageFlushInterval)
	flushingTask.Start()
	defer flushingTask.Stop(true)

	// Start up the KV API
	log.Info().Str("address", cfg.APIListenAddress).Msg("starting up the KV API...")
	apis := &api.Service{
		Config: cfg,
		Store:  store,
		Tokens: tokens,
		Usage:  usageTracker,
	}
	apiErrs := make(chan error, 1)
	apis.Startup(apiErrs)
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the API service raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the KV API...")
		apis.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown
}
