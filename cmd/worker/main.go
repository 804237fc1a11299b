package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"bartuchat.app/server/common/id"
	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/core/config"
	"bartuchat.app/server/core/db"
	"bartuchat.app/server/internal/llm"
	"bartuchat.app/server/internal/queue"
	"bartuchat.app/server/internal/service"
	"bartuchat.app/server/internal/store"
	"bartuchat.app/server/internal/worker"
)

const maxTitleAttempts = 3

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "title worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.TitleQueue.RedisGroup,
		"consumer_name", cfg.TitleQueue.RedisConsumer)

	// Different node ID than the server so snowflake IDs never collide
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.TitleQueue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.TitleQueue.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.TitleQueue.RedisStream,
		Group:        cfg.TitleQueue.RedisGroup,
		Consumer:     cfg.TitleQueue.RedisConsumer,
		DLQStream:    cfg.TitleQueue.RedisDLQ,
		BatchSize:    1, // One title at a time keeps LLM load predictable
		Block:        5 * time.Second,
		MaxAttempts:  maxTitleAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Pool())
	catalog := service.NewCatalogService(stores.Catalog(), cfg.Upstream)
	titles := service.NewTitleService(
		stores.Conversations(),
		catalog,
		llm.NewTitleGenerator(cfg.TitleLLM.MaxTokens),
		cfg.TitleLLM,
		maxTitleAttempts,
	)

	w := worker.New(consumer, titles, worker.Config{
		MaxAttempts: maxTitleAttempts,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
████████╗██╗████████╗██╗     ███████╗    ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
╚══██╔══╝██║╚══██╔══╝██║     ██╔════╝    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
   ██║   ██║   ██║   ██║     █████╗      ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
   ██║   ██║   ██║   ██║     ██╔══╝      ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
   ██║   ██║   ██║   ███████╗███████╗    ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
   ╚═╝   ╚═╝   ╚═╝   ╚══════╝╚══════╝     ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
