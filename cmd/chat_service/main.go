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

	"github.com/kristianfreeman/aii/internal/chat_service/api"
	"github.com/kristianfreeman/aii/internal/chat_service/publisher"
	"github.com/kristianfreeman/aii/internal/chat_service/service"
	"github.com/kristianfreeman/aii/internal/config"
	"github.com/kristianfreeman/aii/internal/database/kafka"
	"github.com/kristianfreeman/aii/internal/database/milvus"
	"github.com/kristianfreeman/aii/internal/database/minio"
	"github.com/kristianfreeman/aii/internal/database/mongo"
	"github.com/kristianfreeman/aii/internal/database/mysql"
	"github.com/kristianfreeman/aii/internal/database/redis"
	"github.com/kristianfreeman/aii/internal/embedding"
	"github.com/kristianfreeman/aii/internal/history"
	"github.com/kristianfreeman/aii/internal/llm"
	"github.com/kristianfreeman/aii/internal/memory/extractor"
	"github.com/kristianfreeman/aii/internal/memory/facts"
	"github.com/kristianfreeman/aii/internal/memory/store"
	"github.com/kristianfreeman/aii/internal/rag"
	"github.com/kristianfreeman/aii/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("chat_service", "", "")

	ctx := context.Background()

	// Initialize database clients
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}

	healthChecks := map[string]api.HealthCheck{
		"mysql":  mysql.HealthCheck,
		"milvus": milvusClient.HealthCheck,
	}

	// Fact blob store backend is provider-selectable.
	factBlobs, check, err := newFactBlobStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	healthChecks[cfg.FactStore.Provider] = check

	// Initialize embedding and LLM clients
	embedder, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize stores and services
	vectors := store.NewMilvusVectorStore(milvusClient)
	messages := history.NewGormStore(db)
	retriever := rag.NewContextBuilder(vectors, messages, appLogger)
	factExtractor := extractor.NewLlmExtractor(llmClient)
	factManager := facts.NewManager(vectors, factBlobs, embedder, factExtractor, cfg.Memory.DedupThreshold, appLogger)
	prompts := service.NewPromptBuilder(cfg.Chat.Persona, cfg.Chat.IncludeTime)

	// Turn publishing towards the memory service is optional.
	var turnPublisher service.TurnPublisher
	if cfg.Chat.PublishTurns {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer kafkaClient.Close()
		turnPublisher = publisher.NewTurnPublisher(kafkaClient.Writer, cfg.Chat.IngestionTopic)
		healthChecks["kafka"] = kafkaClient.HealthCheck
	}

	chatService := service.NewService(
		messages,
		embedder,
		retriever,
		factManager,
		llmClient,
		prompts,
		turnPublisher,
		cfg.Memory.RecentLimit,
		cfg.Memory.TopK,
		appLogger,
	)

	handler := api.NewHandler(chatService, factManager, healthChecks, appLogger)
	router := api.SetupRouter(handler, &cfg.Middleware)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err.Error())
		}
	}()
	appLogger.Info("Chat service started")

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err.Error())
	}
	appLogger.Info("Chat service stopped")
}

// newFactBlobStore 根据配置选择事实存储后端，并返回配套的健康检查。
func newFactBlobStore(ctx context.Context, cfg *config.AppConfig) (store.FactBlobStore, api.HealthCheck, error) {
	switch cfg.FactStore.Provider {
	case "minio":
		client, err := minio.GetClient(&cfg.Databases.MinIO)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMinioFactStore(client, cfg.Databases.MinIO.Bucket), minio.HealthCheck, nil
	case "redis":
		client, err := redis.GetClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisFactStore(client), redis.HealthCheck, nil
	case "mongo":
		db, err := mongo.GetDatabase(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		collection := cfg.FactStore.Collection
		if collection == "" {
			collection = "facts"
		}
		return store.NewMongoFactStore(db, collection), mongo.HealthCheck, nil
	default:
		return nil, nil, errors.New("unsupported fact store provider: " + cfg.FactStore.Provider)
	}
}
