package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/cache"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/config"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/handler"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/repository"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/service"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/slug"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/database"
	pkglog "github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/log"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/pubsub"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "gemcode-service",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	// Auto-migrate
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	codeRepo := repository.NewGormCodeRepository(db)

	// Cache is optional; without it every lookup goes to the database.
	var codeCache cache.CodeCache = cache.NewNoopCodeCache(cfg.Cache.Prefix)
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCodeCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		codeCache = redisCache
		logger.Info().Msg("redis cache connected")
	}
	defer codeCache.Close()

	publisher, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Events.Driver).Msg("failed to create event publisher")
	}
	defer publisher.Close()

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to create storage")
	}

	slugs, err := slug.New(cfg.Slug)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create slug generator")
	}

	codeService := service.NewCodeService(codeRepo, codeCache, publisher, store, slugs, service.Options{
		MaxAttempts:  cfg.Codes.MaxAttempts,
		MaxBatch:     cfg.Codes.MaxBatch,
		CacheTTL:     cfg.Cache.TTL,
		ExportPrefix: cfg.Codes.ExportPrefix,
		ExportURLTTL: cfg.Codes.ExportURLTTL,
	})

	httpHandler := handler.NewHandler(codeService, cfg.Redirect.BaseURL)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info().
			Str("addr", addr).
			Str("db_driver", cfg.Database.Driver).
			Str("events_driver", cfg.Events.Driver).
			Str("storage_driver", cfg.Storage.Driver).
			Str("slug_type", cfg.Slug.Type).
			Bool("cache", cfg.Cache.Enabled).
			Msg("gemcode-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
