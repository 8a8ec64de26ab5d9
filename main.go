package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zlnvch/stickyboard/api"
	"github.com/zlnvch/stickyboard/cache"
	"github.com/zlnvch/stickyboard/cache/redis"
	"github.com/zlnvch/stickyboard/config"
	"github.com/zlnvch/stickyboard/logger"
	"github.com/zlnvch/stickyboard/mq"
	"github.com/zlnvch/stickyboard/mq/sqsmq"
	"github.com/zlnvch/stickyboard/store"
	"github.com/zlnvch/stickyboard/store/dynamo"
	"github.com/zlnvch/stickyboard/store/memory"
	"github.com/zlnvch/stickyboard/store/postgres"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr := logger.New(cfg.DevMode)
	defer logr.Sync()

	if err := cfg.Validate(); err != nil {
		logr.Fatalf("Invalid config: %v", err)
	}
	if cfg.BoardPassword == "" || cfg.JWTSecret == "" {
		logr.Warn("BOARD_PASSWORD or JWT_SECRET is not set; logins will fail")
	}

	ctx := context.Background()

	boardStore, closeStore := newBoardStore(ctx, cfg, logr)
	defer closeStore()

	var boardCache cache.BoardCache
	if cfg.RedisEndpoint != "" {
		redisCache, err := redis.NewRedisBoardCache(ctx, cfg.DevMode, cfg.RedisEndpoint)
		if err != nil {
			logr.Fatalf("Failed to create redis cache: %v", err)
		}
		defer redisCache.Close()
		boardCache = redisCache
	}

	var boardSavedQueue mq.MessageQueue
	if cfg.SQSQueue != "" {
		sqsQueue, err := sqsmq.NewSQSMessageQueue(ctx, cfg.DevMode, cfg.SQSEndpoint, cfg.SQSQueue)
		if err != nil {
			logr.Fatalf("Failed to create SQS MQ: %v", err)
		}
		boardSavedQueue = sqsQueue
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	boardAPI := api.NewBoardAPI(boardStore, boardCache, boardSavedQueue, cfg, logr, shutdownCtx)

	mux := http.NewServeMux()
	boardAPI.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.HostPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Infof("Starting server on host port: %s (store: %s)", cfg.HostPort, cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatalf("Server failed: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	logr.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logr.Errorf("Shutdown: %v", err)
	}
	boardAPI.Wait()
}

func newBoardStore(ctx context.Context, cfg config.Config, logr *zap.SugaredLogger) (store.BoardStore, func()) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgStore, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logr.Fatalf("Failed to open postgres store: %v", err)
		}
		return pgStore, func() { pgStore.Close() }
	case config.BackendMemory:
		logr.Warn("Using in-memory store; the board is lost on restart")
		return memory.NewMemoryBoardStore(), func() {}
	default:
		dynamoStore, err := dynamo.NewDynamoBoardStore(ctx, cfg.DevMode, cfg.DynamoDBEndpoint, cfg.DynamoDBTable)
		if err != nil {
			logr.Fatalf("Failed to create dynamodb store: %v", err)
		}
		return dynamoStore, func() {}
	}
}
