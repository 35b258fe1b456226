package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/api"
	"github.com/daviserra-code/Fantacalcio-AI/internal/api/handlers"
	"github.com/daviserra-code/Fantacalcio-AI/internal/api/middleware"
	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/providers"
	"github.com/daviserra-code/Fantacalcio-AI/internal/services"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/config"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	cacheService := services.NewCacheService(redisClient)
	progressHub := services.NewProgressHub(logger)
	go progressHub.Run()

	// Roster sources, tried in order: stored rows, then the stats API, then
	// the bundled roster file
	sources := []fanta.PoolProvider{providers.NewDatabaseProvider(db, cfg.Season, logger)}
	if cfg.StatsAPIURL != "" {
		sources = append(sources, providers.NewStatsAPIProvider(cfg.StatsAPIURL, cfg.StatsAPIKey, cfg.Season, logger))
	}
	if cfg.RosterFile != "" {
		sources = append(sources, providers.NewFileProvider(cfg.RosterFile, logger))
	}

	poolCacheTTL := parseDurationOr(cfg.PoolCacheTTL, 30*time.Minute, "pool cache TTL")
	poolService := services.NewPoolService(db, cacheService, sources, cfg.Season, poolCacheTTL, logger)

	resultCacheTTL := parseDurationOr(cfg.ResultCacheTTL, time.Hour, "result cache TTL")
	teamBuilder := services.NewTeamBuilderService(db, cacheService, poolService, progressHub, logger, cfg.CompareWorkers, resultCacheTTL)

	refreshInterval := parseDurationOr(cfg.RefreshInterval, 6*time.Hour, "refresh interval")
	runRetention := parseDurationOr(cfg.RunRetention, 720*time.Hour, "run retention")
	refreshService := services.NewRefreshService(db, cacheService, poolService, logger, refreshInterval, runRetention)
	if err := refreshService.Start(); err != nil {
		logrus.Errorf("Failed to start refresh service: %v", err)
	}
	defer refreshService.Stop()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(db, cacheService)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Setup API routes under /api/v1, rate limited per client
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(rateLimiter.Middleware())
	api.SetupRoutes(apiV1, db, cacheService, cfg, poolService, teamBuilder, refreshService)

	// Setup WebSocket endpoint at root level (not under /api/v1)
	wsHandler := handlers.NewWebSocketHandler(progressHub)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func parseDurationOr(value string, fallback time.Duration, name string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("Invalid %s %q, using default %s", name, value, fallback)
		return fallback
	}
	return d
}
