package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/desking/internal/config"
	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/internal/server"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

// newCache picks Redis when an address is configured and process memory
// otherwise. The returned func releases the cache.
func newCache(ctx context.Context, logger *zap.Logger, cfg server.CacheConfig) (desk.Cache, func()) {
	if cfg.RedisAddress == "" {
		logger.Info("using in-memory cache", zap.String("op", "main"))
		return desk.NewMemoryCache(), func() {}
	}

	redisCache := desk.NewRedisCache(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, cfg.KeyPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable at startup; requests will compute without cache",
			zap.String("op", "main"),
			zap.String("address", cfg.RedisAddress),
			zap.Error(err),
		)
	} else {
		logger.Info("using redis cache",
			zap.String("op", "main"),
			zap.String("address", cfg.RedisAddress),
		)
	}
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.String("op", "main"), zap.Error(err))
		}
	}
}

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	addressFlag := flag.String("address", "", "listen address override, e.g. :8080")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}
	if addr := os.Getenv("DESKING_REDIS_ADDRESS"); addr != "" {
		cfg.Cache.RedisAddress = addr
	}

	logger, err := config.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cache, closeCache := newCache(context.Background(), logger, cfg.Cache)
	defer closeCache()

	handler := server.NewHandler(logger, server.Options{
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
		DealerName:    cfg.DealerName,
		Desk:          desk.New(logger, cache, cfg.Cache.TTLDuration()),
		Snapshots:     server.NewSnapshotStore(cache, cfg.Cache.SnapshotTTLDuration()),
	})

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("desking server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed", zap.String("op", "main"), zap.Error(err))
		return
	case <-quit:
		logger.Info("shutting down server", zap.String("op", "main"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown", zap.String("op", "main"), zap.Error(err))
	}
}
