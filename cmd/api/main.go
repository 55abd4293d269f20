// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/whatsdesk/console/internal/config"
	"github.com/whatsdesk/console/internal/events"
	"github.com/whatsdesk/console/internal/handler"
	"github.com/whatsdesk/console/internal/middleware"
	"github.com/whatsdesk/console/internal/sender"
	"github.com/whatsdesk/console/internal/service"
	"github.com/whatsdesk/console/internal/store"
	"github.com/whatsdesk/console/pkg/logger"
	"github.com/whatsdesk/console/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "whatsdesk-console", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Storage backend: postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open postgres store", zap.Error(err))
			os.Exit(1)
		}
		st = pg
		log.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory store")
	}
	defer st.Close()

	// Event broker is optional; a nil publisher is a no-op.
	var pub *events.Publisher
	if cfg.NATSURL != "" {
		pub, err = events.Connect(ctx, cfg.NATSURL, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer pub.Close()
	}

	// Outbound delivery degrades to a no-op without provider credentials.
	var snd sender.Sender = sender.Noop{}
	if cfg.WhatsAppAccessToken != "" && cfg.WhatsAppPhoneNumberID != "" {
		snd = sender.NewWhatsApp(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.SendTimeout)
	} else {
		log.Warn("WhatsApp credentials not configured, outbound delivery disabled")
	}

	pipeline := service.NewPipeline(st, snd, pub, log, cfg.SendTimeout)
	conversationSvc := service.NewConversations(st, snd, log, cfg.SendTimeout)
	responseSvc := service.NewResponses(st)
	settingsSvc := service.NewSettings(st)
	analyticsSvc := service.NewAnalytics(st)
	simulatorSvc := service.NewSimulator(st)

	healthHandler := handler.NewHealthHandler(st, pub)
	webhookHandler := handler.NewWebhookHandler(pipeline, cfg.WebhookVerifyToken, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(conversationSvc, log)
	responseHandler := handler.NewResponseHandler(responseSvc, log)
	settingsHandler := handler.NewSettingsHandler(settingsSvc, log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, log)
	simulateHandler := handler.NewSimulateHandler(simulatorSvc, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Provider webhook: verify handshake plus message notifications.
	r.Get("/webhook", webhookHandler.Verify)
	r.Post("/webhook", webhookHandler.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Alternate intake, guarded by a shared token instead of JWT.
		r.With(middleware.WebhookToken(cfg.WebhookSharedToken)).
			Post("/webhook", webhookHandler.ReceiveDirect)

		// Dashboard API
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", conversationHandler.Get)
					r.Patch("/read", conversationHandler.MarkRead)
					r.Patch("/close", conversationHandler.Close)
					r.Patch("/transfer", conversationHandler.Transfer)

					r.Get("/messages", messageHandler.List)
					r.Post("/messages", messageHandler.Send)
				})
			})

			r.Route("/responses", func(r chi.Router) {
				r.Get("/", responseHandler.List)
				r.Post("/", responseHandler.Create)
				r.Get("/{id}", responseHandler.Get)
				r.Put("/{id}", responseHandler.Update)
				r.Delete("/{id}", responseHandler.Delete)
			})

			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)
			r.Get("/analytics", analyticsHandler.Get)
			r.Post("/test-message", simulateHandler.Test)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight outbound sends drain before closing the store.
	pipeline.Wait()
	conversationSvc.Wait()

	log.Info("server stopped")
}
