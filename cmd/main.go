package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voicemail-notify-service/internal/app"
	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/events"
	httpapi "voicemail-notify-service/internal/http"
	"voicemail-notify-service/internal/observability"
	"voicemail-notify-service/internal/service/locator"
	"voicemail-notify-service/internal/service/notify"
	notifymock "voicemail-notify-service/internal/service/notify/mock"
	"voicemail-notify-service/internal/service/notify/smtp"
	"voicemail-notify-service/internal/service/pipeline"
	"voicemail-notify-service/internal/service/transcribe"
	transcribegoogle "voicemail-notify-service/internal/service/transcribe/google"
	transcribemock "voicemail-notify-service/internal/service/transcribe/mock"
	"voicemail-notify-service/internal/signing"
	"voicemail-notify-service/internal/storage"
	"voicemail-notify-service/internal/storage/gcs"
	"voicemail-notify-service/internal/storage/memory"
)

func main() {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		application.Logger.Fatal().Err(err).Msg("startup failed")
	}
	logger := application.Logger

	ctx := context.Background()

	// Object store collaborator
	var store storage.ObjectStore
	switch cfg.Storage.Provider {
	case "gcs":
		s, err := gcs.New(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("object store init failed")
		}
		defer s.Close()
		store = s
	default:
		logger.Warn().Msg("using in-memory object store; recordings will not be found unless seeded")
		store = memory.New()
	}

	// Transcription collaborator
	var provider transcribe.Provider
	switch cfg.Transcribe.Provider {
	case "google":
		p, err := transcribegoogle.New(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("transcription provider init failed")
		}
		defer p.Close()
		provider = p
	default:
		logger.Warn().Msg("using mock transcription provider")
		provider = transcribemock.New()
	}

	// Notification collaborator
	var mailer notify.Mailer
	switch cfg.Email.Provider {
	case "smtp":
		m, err := smtp.New(cfg.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("mailer init failed")
		}
		mailer = m
	default:
		logger.Warn().Msg("using mock mailer; notifications are recorded, not sent")
		mailer = notifymock.New()
	}

	// Result event publisher
	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicProcessed: cfg.Kafka.TopicProcessed,
		TopicFailed:    cfg.Kafka.TopicFailed,
		Principal:      cfg.Kafka.Principal,
	})
	defer publisher.Close()

	signer := signing.New(cfg.Link.SigningSecret, cfg.Link.PublicBaseURL)
	loc := locator.New(store, cfg.Storage, cfg.Search, logger)
	orch := transcribe.New(provider, cfg.Transcribe, logger)
	composer := notify.NewComposer(cfg.Email.PreviewLength)

	controller := pipeline.New(cfg, store, loc, orch, composer, mailer, signer, publisher, logger)

	// Observability server (metrics + health)
	obs := observability.NewServer(":" + cfg.Service.MetricsPort)
	obs.Start()

	// API server
	router := httpapi.NewRouter(cfg, controller, store, signer, logger)
	server := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: router,
		// One pipeline invocation blocks through settle wait, search
		// backoff, and transcription polling; the write timeout must
		// outlast all three.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Voicemail notify service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("observability shutdown failed")
	}
	application.Shutdown()
}
