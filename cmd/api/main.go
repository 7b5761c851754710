package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-api/internal/cache"
	"storefront-api/internal/config"
	"storefront-api/internal/handler"
	"storefront-api/internal/lock"
	"storefront-api/internal/middleware"
	"storefront-api/internal/repository"
	"storefront-api/internal/resilience"
	"storefront-api/internal/router"
	"storefront-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Storefront API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize product repository based on config
	var productRepo repository.ProductRepository
	switch cfg.ProductDB.Type {
	case "mysql":
		db, err := sql.Open("mysql", cfg.Database.DSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping MySQL: %v", err)
		}
		productRepo = repository.NewMySQLProductRepository(db)
		log.Println("MySQL product repository initialized")
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresProductRepository(cfg.ProductDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		productRepo = pgRepo
		log.Println("PostgreSQL product repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteProductRepository(cfg.ProductDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		productRepo = sqliteRepo
		log.Println("SQLite product repository initialized")
	}
	defer productRepo.Close()

	// Initialize Redis client (optional - degrades to in-process cache/lock)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed, using in-process cache and lock: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	var (
		sharedCache  cache.Cache
		sharedLocker lock.Locker
	)
	if redisClient != nil {
		sharedCache = cache.NewRedisCache(redisClient, cfg.Cache.KeyPrefix)
		sharedLocker = lock.NewRedisLocker(redisClient, cfg.Cache.KeyPrefix)
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		sharedCache = memCache
		sharedLocker = lock.NewMemoryLocker()
	}

	// Resilience primitives for the token issuer
	issuerBreaker := resilience.NewCircuitBreaker("oauth-issuer",
		cfg.Resilience.BreakerThreshold, cfg.Resilience.BreakerReset)
	issuerRetrier := resilience.NewRetrier(
		cfg.Resilience.RetryMaxAttempts, cfg.Resilience.RetryBaseDelay)

	// Initialize services
	productService := service.NewProductService(productRepo, sharedCache, service.ProductServiceConfig{
		ListTTL:    cfg.Cache.ListTTL,
		ProductTTL: cfg.Cache.ProductTTL,
	})

	var tokenService *service.TokenService
	var refreshScheduler *service.RefreshScheduler
	if cfg.OAuth.TokenURL != "" {
		issuer := service.NewOAuthClient(cfg.OAuth.TokenURL, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, nil)
		tokenService = service.NewTokenService(issuer, sharedCache, sharedLocker,
			issuerBreaker, issuerRetrier, service.TokenServiceConfig{
				SafetyBuffer: cfg.OAuth.SafetyBuffer,
				LockTTL:      cfg.OAuth.LockTTL,
				LockWait:     cfg.OAuth.LockWait,
				LockAttempts: cfg.OAuth.LockAttempts,
			})

		refreshScheduler = service.NewRefreshScheduler(tokenService, service.RefreshSchedulerConfig{
			Interval: cfg.OAuth.RefreshAhead,
		})
		refreshScheduler.Start()
		log.Println("Token service initialized")
	} else {
		log.Println("Warning: OAUTH_TOKEN_URL not set, token service disabled")
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	healthHandler.SetChecks(handler.ReadinessCheck{
		Name: "database",
		Probe: func() error {
			probeCtx, probeCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer probeCancel()
			_, err := productRepo.GetStats(probeCtx)
			return err
		},
	})

	productHandler := handler.NewProductHandler(productService)
	adminHandler := handler.NewAdminHandler(productService, issuerBreaker, cfg.ProductDB.Type)

	var authHandler *handler.AuthHandler
	if tokenService != nil {
		authHandler = handler.NewAuthHandler(tokenService)
	}

	// Auth middleware with injected dependencies (no globals)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		ProductHandler: productHandler,
		AdminHandler:   adminHandler,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if refreshScheduler != nil {
		refreshScheduler.Stop()
	}

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
