package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sahlastore/assistant-server-go/internal/ai"
	"github.com/sahlastore/assistant-server-go/internal/config"
	"github.com/sahlastore/assistant-server-go/internal/database"
	"github.com/sahlastore/assistant-server-go/internal/handler"
	"github.com/sahlastore/assistant-server-go/internal/jobs"
	"github.com/sahlastore/assistant-server-go/internal/media"
	"github.com/sahlastore/assistant-server-go/internal/messaging"
	"github.com/sahlastore/assistant-server-go/internal/middleware"
	"github.com/sahlastore/assistant-server-go/internal/redis"
	"github.com/sahlastore/assistant-server-go/internal/repository"
	"github.com/sahlastore/assistant-server-go/internal/service"
	"github.com/sahlastore/assistant-server-go/internal/social"
	"github.com/sahlastore/assistant-server-go/internal/sse"
	"github.com/sahlastore/assistant-server-go/internal/storage"
	"github.com/sahlastore/assistant-server-go/internal/storefront"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	turnRepo := repository.NewTurnLogRepository(db.DB)
	snapshotRepo := repository.NewSnapshotRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	aiClient := ai.NewClient(&ai.Config{
		BaseURL:         cfg.OpenAIBaseURL,
		APIKey:          cfg.OpenAIAPIKey,
		ChatModel:       cfg.ChatModel,
		TranscribeModel: cfg.TranscribeModel,
		SpeechModel:     cfg.SpeechModel,
		SpeechVoice:     cfg.SpeechVoice,
		Timeout:         cfg.CollaboratorTimeout(),
	})

	messenger, err := messaging.NewTwilioMessenger(
		cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create messenger")
	}

	downloader := media.NewDownloader(cfg.CollaboratorTimeout(), config.MaxMediaDownloadBytes)
	catalog := storefront.NewClient(cfg.StorefrontBaseURL, cfg.StorefrontToken, cfg.CollaboratorTimeout())
	socialClient := social.NewClient(cfg.SocialAPIBaseURL, cfg.SocialAPIToken, cfg.CollaboratorTimeout())
	uploader := storage.NewUploader(cfg.StorageUploadURL, cfg.StoragePublicURL, cfg.StorageToken, cfg.CollaboratorTimeout())

	sessions := service.NewSessionStore(cfg.SessionTTL(), cfg.SessionHistoryLimit, snapshotRepo)
	gate := service.NewHandoffGate()
	normalizer := service.NewNormalizer(downloader, aiClient, aiClient)
	turnService := service.NewTurnLogService(turnRepo)
	floodGuard := service.NewFloodGuard(config.WebhookFloodLimitPerMin, time.Minute)

	router := service.NewRouter(service.RouterDeps{
		Sessions:   sessions,
		Gate:       gate,
		Normalizer: normalizer,
		Messenger:  messenger,
		Classifier: aiClient,
		Responder:  aiClient,
		Speech:     aiClient,
		Catalog:    catalog,
		Social:     socialClient,
		Uploader:   uploader,
		Turns:      turnService,
		Publisher:  broker,
	}, service.RouterOptions{
		HandoffTriggers: cfg.HandoffTriggers,
		HandoffPause:    cfg.HandoffPause(),
		SupportPhone:    cfg.SupportPhone,
	})

	signatureMiddleware := middleware.NewSignatureMiddleware(cfg.WebhookSignatureSecret)
	authMiddleware := middleware.NewAuthMiddleware(cfg.OpsAPIToken)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	webhookHandler := handler.NewWebhookHandler(router, floodGuard)
	eventsHandler := handler.NewEventsHandler(broker)
	opsHandler := handler.NewOpsHandler(turnService, gate, sessions, broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/whatsapp", func(r chi.Router) {
		r.Use(signatureMiddleware.Handler)
		r.Post("/webhook", webhookHandler.Receive)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		r.Get("/events", eventsHandler.Stream)
		r.Get("/overview", opsHandler.GetOverview)

		r.Route("/conversations/{customer}", func(r chi.Router) {
			r.Get("/turns", opsHandler.ListTurns)
			r.Get("/stats", opsHandler.GetStats)
			r.Get("/handoff", opsHandler.GetHandoff)
			r.Post("/resume", opsHandler.Resume)
		})
	})

	cleanupJob := jobs.NewCleanupJob(
		sessions, gate, snapshotRepo, turnRepo,
		cfg.SessionTTL(), cfg.TurnRetention(),
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE connections stay open indefinitely
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
