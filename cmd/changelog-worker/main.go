// Entry point for the change-log consumer and its read API
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.service/internal/changelog"
	"attendance.service/internal/config"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker/kafka"
	awspkg "attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("changelog-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// DB connection
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config for the dead-letter queue
	awsCfg, err := awspkg.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	sqsClient := sqs.NewFromConfig(awsCfg)

	// Initialize dependencies
	store := changelog.NewPostgresStore(db)
	deadLetter := messaging.NewDeadLetter(messaging.NewSQSSender(sqsClient), cfg.DeadLetterQueueURL)
	processor := changelog.NewProcessor(store, deadLetter)

	consumer, err := kafka.NewConsumer(cfg.Brokers(), cfg.KafkaTopic, cfg.KafkaGroupID, processor)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create Kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Start(ctx)

	// Read-only query API over the change log
	service := changelog.NewService(store)
	router := changelog.NewRouter(service)
	srv := &http.Server{
		Addr:    ":" + cfg.ChangelogHTTPPort,
		Handler: otelhttp.NewHandler(router, "changelog-api"),
	}
	go func() {
		log.Info().Str("port", cfg.ChangelogHTTPPort).Msg("Change log query API starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down worker...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Query API forced to shutdown")
	}

	log.Info().Msg("Worker exited gracefully")
}
