package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hammerclub/auctiond/internal/dbconfig"
	"github.com/hammerclub/auctiond/internal/gateway"
	"github.com/hammerclub/auctiond/internal/outbox"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	dbCfg := dbconfig.NewConfigFromEnv()
	if err := runMigrations(dbCfg, getEnv("MIGRATIONS_DIR", "migrations")); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	database, err := setupDatabase(dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	services := setupServices(database, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go services.ConnectionManager.Start(ctx)

	if err := startOutboxDispatch(ctx, cfg, dbCfg, services); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox dispatch")
	}

	if cfg.Outbox.Mode != "log" {
		consumerCfg := gateway.DefaultJetStreamConsumerConfig()
		consumerCfg.URL = cfg.NATS.URL
		consumerCfg.StreamName = cfg.NATS.Stream

		consumer, err := gateway.NewEventConsumer(services.ConnectionManager, consumerCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event consumer")
		}
		defer consumer.Stop()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	server := setupServer(cfg, services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}

// startOutboxDispatch starts the configured outbox dispatcher: the
// LISTEN/NOTIFY listener, the polling worker, or a log-only publisher for
// running without NATS.
func startOutboxDispatch(ctx context.Context, cfg *Config, dbCfg dbconfig.Config, services *Services) error {
	var publisher outbox.Publisher
	if cfg.Outbox.Mode == "log" {
		publisher = outbox.NewLogPublisher()
	} else {
		pubCfg := outbox.DefaultNATSPublisherConfig()
		pubCfg.URL = cfg.NATS.URL
		pubCfg.StreamName = cfg.NATS.Stream

		natsPublisher, err := outbox.NewNATSPublisher(ctx, pubCfg)
		if err != nil {
			return err
		}
		publisher = natsPublisher
	}

	switch cfg.Outbox.Mode {
	case "listener":
		listenerCfg := outbox.DefaultListenerConfig()
		listenerCfg.DatabaseURL = dbCfg.DSN()
		listenerCfg.BatchSize = cfg.Outbox.BatchSize

		listener, err := outbox.NewListener(services.OutboxRepo, publisher, listenerCfg)
		if err != nil {
			return err
		}
		go func() {
			if err := listener.Start(ctx); err != nil {
				log.Error().Err(err).Msg("outbox listener stopped")
			}
		}()
	default:
		workerCfg := outbox.DefaultConfig()
		workerCfg.PollInterval = cfg.Outbox.PollInterval
		workerCfg.BatchSize = cfg.Outbox.BatchSize

		worker := outbox.NewWorker(services.OutboxRepo, publisher, workerCfg, clockwork.NewRealClock())
		if err := worker.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
