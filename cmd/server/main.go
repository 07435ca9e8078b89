package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appcart "github.com/localmarket/backend/internal/application/cart"
	"github.com/localmarket/backend/internal/infrastructure/auth"
	"github.com/localmarket/backend/internal/infrastructure/cache"
	"github.com/localmarket/backend/internal/infrastructure/config"
	"github.com/localmarket/backend/internal/infrastructure/logger"
	"github.com/localmarket/backend/internal/infrastructure/persistence"
	"github.com/localmarket/backend/internal/interfaces/http/handler"
	"github.com/localmarket/backend/internal/interfaces/http/middleware"
	"github.com/localmarket/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting market backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLogLevel := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		gormLogLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	cartRepo := persistence.NewGormCartRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	availRepo := persistence.NewGormAvailabilityRepository(db.DB)
	bizRepo := persistence.NewGormBusinessRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Guest cart staging store, Redis with in-memory fallback outside
	// production
	storeFactory := cache.NewGuestCartStoreFactory(cfg.Redis, cfg.Cart.GuestTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	guestStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create guest cart store", zap.Error(err))
	}

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	sessions := auth.NewSessionRegistry()

	// Application services
	cartService := appcart.NewCartService(
		txScope, cartRepo, productRepo, availRepo, bizRepo,
		nil, log, cfg.Cart.TTL,
	)
	guestCartService := appcart.NewGuestCartService(
		guestStore, cartService, sessions, log,
		cfg.Cart.MigrationMaxAttempts, cfg.Cart.MigrationBackoff,
	)

	// HTTP handlers
	cartHandler := handler.NewCartHandler(cartService, guestCartService)
	guestCartHandler := handler.NewGuestCartHandler(guestCartService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.RegisterProtected(cartHandler, middleware.JWTAuthMiddleware(jwtService, sessions))
	r.Register(guestCartHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.FromGin(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
