package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/internal/app/controller"
	"github.com/anangai/civic-portal-backend/internal/app/service"
	"github.com/anangai/civic-portal-backend/internal/cache"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/internal/db"
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/anangai/civic-portal-backend/internal/router"
	"github.com/anangai/civic-portal-backend/internal/scheduler"
	"github.com/anangai/civic-portal-backend/internal/storage"
	"github.com/anangai/civic-portal-backend/internal/websocket"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/anangai/civic-portal-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logger.Initialize(logger.Config{
		Level:       cfg.LogLevel(),
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
	})

	logger.Info("Starting civic portal backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"data_dir":    cfg.Data.Dir,
	})

	// Open the document store; a corrupt file stops startup
	stores, err := db.Open(&cfg.Data)
	if err != nil {
		logger.Fatal("Failed to open document store", err)
	}
	if err := stores.Verify(); err != nil {
		logger.Fatal("Document store is unreadable", err)
	}

	// License storage
	var files storage.FileStore
	switch cfg.Storage.Type {
	case "s3":
		files = storage.NewS3Storage(context.Background(), cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		logger.Info("Using S3 license storage", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	default:
		local, err := storage.NewLocalStorage(cfg.Data.UploadsDir)
		if err != nil {
			logger.Fatal("Failed to prepare upload directory", err)
		}
		files = local
	}

	// Discovery cache (optional)
	var discoveryCache cache.Cache
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, discovery cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() {
				if err := redis.Close(client); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
			discoveryCache = cache.NewRedisCache(client, cache.DiscoveryPrefix, cfg.Redis.TTL)
		}
	}

	// Admin live feed
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	// Initialize services
	registry := catalog.NewRegistry(cfg.Data.FoodDir, cfg.Data.PlacesDir, cfg.Data.EventsDir)
	discoveryService := service.NewDiscoveryService(registry, discoveryCache)
	licenseService := service.NewLicenseService(files, cfg.Storage.MaxUploadSize)
	adminService := service.NewAdminService(cfg.Admin)
	applicationService := service.NewApplicationService(stores.Applications, discoveryService, licenseService, service.WithEventPublisher(hub))
	accountService := service.NewAccountService(stores.Users, stores.Applications, licenseService, cfg.Auth.PasswordSalt)
	directoryService := service.NewDirectoryService(stores.Users, stores.Applications)

	// Initialize controllers
	applicationController := controller.NewApplicationController(applicationService, adminService)
	accountController := controller.NewAccountController(accountService, directoryService)
	discoveryController := controller.NewDiscoveryController(discoveryService)
	uploadController := controller.NewUploadController(licenseService)
	eventsController := controller.NewEventsController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(adminService)
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RPS,
		Burst:             cfg.RateLimit.Burst,
	})

	// Backups (optional)
	if cfg.Backup.Schedule != "" {
		backups := scheduler.NewBackupScheduler(cfg.Backup.Schedule, cfg.Backup.Dir, stores.Users, stores.Applications)
		if err := backups.Start(); err != nil {
			logger.Fatal("Failed to start backup scheduler", err)
		}
		defer backups.Stop()
	}

	// Setup router
	r := router.NewRouter(
		applicationController,
		accountController,
		discoveryController,
		uploadController,
		eventsController,
		authMiddleware,
		rateLimiter,
		cfg,
	)
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
