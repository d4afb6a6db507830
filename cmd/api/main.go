package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Strangemortal/Holistiq/internal/api"
	"github.com/Strangemortal/Holistiq/internal/config"
	"github.com/Strangemortal/Holistiq/internal/domain"
	"github.com/Strangemortal/Holistiq/internal/outbox"
	"github.com/Strangemortal/Holistiq/internal/persistence/memory"
	"github.com/Strangemortal/Holistiq/internal/persistence/postgres"
	httptransport "github.com/Strangemortal/Holistiq/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stderr, "[api] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo       domain.SessionRepository
		dispatcher *outbox.Dispatcher
	)

	if cfg.PostgresURL == "" {
		logger.Printf("POSTGRES_URL not set, sessions are kept in memory")
		repo = memory.NewRepository()
	} else {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		repo = postgres.NewRepository(pool, cfg.SessionTopic)

		if len(cfg.KafkaBrokers) > 0 {
			producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
			defer producer.Close()

			dispatcher = outbox.NewDispatcher(pool, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
				outbox.WithClaimLease(cfg.OutboxClaimLease),
				outbox.WithLogger(log.New(os.Stderr, "[outbox] ", log.LstdFlags)),
			)
			go dispatcher.Start(ctx)
		} else {
			logger.Printf("KAFKA_BROKERS not set, outbox events stay unpublished")
		}
	}

	service := domain.NewService(repo)
	handler := api.NewHandler(service, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(
		httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.RequestLogger(logger, httptransport.CORS(cfg.CORSOrigins, mux)),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("holistiq api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
