package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	_ "github.com/lib/pq"

	"print3d-bot/internal/bot"
	"print3d-bot/internal/catalog"
	"print3d-bot/internal/config"
	"print3d-bot/internal/health"
	"print3d-bot/internal/session"
	"print3d-bot/internal/storage"
	"print3d-bot/pkg/api"
	"print3d-bot/pkg/logger"
	"print3d-bot/pkg/redis"
)

// ENTRY POINT

func main() {
	// .env подхватывается в локальной разработке, в проде его нет
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	apiClient := api.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout, zapLogger)

	// Кэш каталога опционален: без Redis каждый запрос идет в API
	var cache catalog.Cache
	if cfg.RedisEnabled() {
		redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			zapLogger.Warn("Redis unreachable, running without catalog cache", zap.Error(err))
		} else {
			cache = redisClient
		}
	}
	serviceCatalog := catalog.New(apiClient, cache, cfg.CatalogCacheTTL, zapLogger)

	// Локальный архив заказов опционален
	var archive bot.OrderArchive
	if cfg.ArchiveEnabled() {
		pgStorage, err := storage.NewPostgresStorage(ctx, storage.Config{
			Host:            cfg.DBHost,
			Port:            cfg.DBPort,
			User:            cfg.DBUser,
			Password:        cfg.DBPassword,
			DBName:          cfg.DBName,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
		}
		defer pgStorage.Close()
		archive = pgStorage
	}

	sessions := session.NewStore(zapLogger)
	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionMaxAge)

	healthServer := health.NewServer(cfg.HealthPort, sessions, apiClient, cfg.Debug, zapLogger)
	go func() {
		if err := healthServer.Run(ctx); err != nil {
			zapLogger.Error("Health server stopped", zap.Error(err))
		}
	}()

	tgBot, err := bot.New(cfg, sessions, apiClient, serviceCatalog, archive, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := tgBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}
