package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moderation-service/config"
	"moderation-service/database"
	"moderation-service/handlers"
	"moderation-service/metrics"
	"moderation-service/middleware"
	"moderation-service/rabbitmq"
	"moderation-service/services"
	ws "moderation-service/websocket"

	apexlog "github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file if present (for local development)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	if level, err := apexlog.ParseLevel(cfg.LogLevel); err == nil {
		apexlog.SetLevel(level)
	}

	metrics.Register()

	// Create database connection
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to create database connection:", err)
	}
	defer db.Close()

	// Ensure all tables exist
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatal("Failed to ensure database schema:", err)
	}

	// Initialize RabbitMQ publisher for decision events
	var publisher *rabbitmq.Publisher
	pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.RabbitMQDecisionKey)
	if err != nil {
		log.Printf("Warning: Failed to initialize RabbitMQ publisher: %v", err)
		log.Printf("Decision events will be unavailable. Continuing without publisher...")
	} else {
		publisher = pub
		log.Printf("RabbitMQ publisher initialized: exchange=%s, routing_key=%s", cfg.RabbitMQExchange, cfg.RabbitMQDecisionKey)
	}

	// Websocket hub for queue updates
	hub := ws.NewHub()
	go hub.Run()

	// Services
	auditService := services.NewAuditService(db, cfg.AuditBufferSize, cfg.AuditRetentionDays, cfg.AuditPurgeInterval)
	actionService := newActionService(db, auditService, publisher, hub, cfg)
	queueService := services.NewQueueService(db, cfg.SimilarReportWindow)
	analyticsService := services.NewAnalyticsService(db, cfg.AnalyticsQueryTimeout, cfg.AnalyticsCacheRefresh)
	signalProcessor := services.NewSignalProcessor(db, actionService, cfg.AutoModeration)

	// Background loops run until shutdown
	loopCtx, stopLoops := context.WithCancel(context.Background())
	auditService.StartPurgeLoop(loopCtx)
	analyticsService.StartRefreshLoop(loopCtx)

	// Initialize RabbitMQ subscriber for classifier signals
	var subscriber *rabbitmq.Subscriber
	sub, err := rabbitmq.NewSubscriber(rabbitmq.SubscriberConfig{
		AMQPURL:        cfg.RabbitMQURL,
		Exchange:       cfg.RabbitMQExchange,
		Queue:          cfg.RabbitMQSignalQueue,
		Workers:        cfg.RabbitMQWorkers,
		Prefetch:       cfg.RabbitMQPrefetch,
		ReconnectDelay: cfg.RabbitMQReconnectDelay,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize RabbitMQ subscriber: %v", err)
		log.Printf("Classifier signal intake will be unavailable. Continuing without subscriber...")
	} else {
		subscriber = sub
		subscriber.Start(map[string]rabbitmq.CallbackFunc{
			cfg.RabbitMQSignalKey: signalProcessor.HandleSignal,
		})
		log.Printf("RabbitMQ subscriber started: queue=%s, routing_key=%s", cfg.RabbitMQSignalQueue, cfg.RabbitMQSignalKey)
	}

	// Create handlers
	h := handlers.NewHandlers(actionService, queueService, auditService, analyticsService, db, hub)

	// Setup HTTP server
	router := setupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	stopLoops()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if subscriber != nil {
		if err := subscriber.Close(); err != nil {
			log.Printf("Failed to close RabbitMQ subscriber: %v", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("Failed to close RabbitMQ publisher: %v", err)
		}
	}

	// Drain buffered audit entries before exiting
	auditService.Close()

	log.Println("Server exited")
}

func newActionService(db *database.Database, audit *services.AuditService, publisher *rabbitmq.Publisher, hub *ws.Hub, cfg *config.Config) *services.ActionService {
	// A nil *Publisher must stay a nil interface inside the service
	var decisionPublisher services.DecisionPublisher
	if publisher != nil {
		decisionPublisher = publisher
	}
	return services.NewActionService(db, audit, decisionPublisher, hub, cfg.BulkWorkers, cfg.BulkMaxItems)
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/moderation/listen"})))

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AdminAuthMiddleware(cfg.JWTSecret))
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		moderation := api.Group("/moderation")
		{
			moderation.POST("/review", h.ReviewHandler)
			moderation.POST("/bulk-review", h.BulkReviewHandler)

			moderation.GET("/queue", h.QueueHandler)
			moderation.GET("/quarantine", h.QuarantineHandler)
			moderation.POST("/quarantine/:contentId/release", h.ReleaseHandler)
			moderation.GET("/content/:contentType/:contentId", h.GetContentModerationHandler)

			moderation.POST("/rules", h.CreateRuleHandler)
			moderation.GET("/rules", h.ListRulesHandler)

			moderation.GET("/analytics", h.AnalyticsHandler)
			moderation.GET("/stats", h.QueueStatsHandler)

			moderation.GET("/audit-logs", h.AuditLogsHandler)
			moderation.GET("/audit-logs/suspicious", h.SuspiciousActivityHandler)

			moderation.GET("/listen", h.ListenHandler)
		}
	}

	// Root health check
	router.GET("/health", h.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
