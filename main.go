package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"convertstudio/config"
	"convertstudio/convert"
	"convertstudio/pipeline"
	"convertstudio/services"
	"convertstudio/tracker"
	"convertstudio/worker"
)

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "convertstudio").
		Logger()

	log.Info().Msg("starting conversion service")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	dbSvc, err := services.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbSvc.Close()
	log.Info().Msg("connected to database")

	s3Svc := services.NewS3Service(cfg)
	engine := convert.NewEngine()
	statusTracker := tracker.New(
		dbSvc,
		services.NewRedisStatusMirror(redisClient, cfg.RedisPrefix),
		log,
	)

	orchestrator := pipeline.New(s3Svc, engine, statusTracker, pipeline.Options{
		MaxFileSizeBytes:  cfg.MaxFileSizeBytes,
		AllowedTypes:      cfg.AllowedTypes,
		TargetExtension:   cfg.TargetExtension,
		TargetContentType: cfg.TargetContentType,
	}, log)

	pool := worker.NewPool(cfg, redisClient, orchestrator, log)

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			pool.StartWorker(ctx, workerID)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		pool.RecoveryLoop(ctx)
	}()

	log.Info().
		Int("workers", cfg.WorkerCount).
		Str("pendingQueue", cfg.PendingQueue).
		Msg("service is ready to process conversions")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutdown signal received, stopping workers")
	cancel()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}

	redisClient.Close()
	log.Info().Msg("conversion service stopped")
}
