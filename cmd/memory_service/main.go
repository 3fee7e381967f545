package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kristianfreeman/aii/internal/config"
	"github.com/kristianfreeman/aii/internal/database/kafka"
	"github.com/kristianfreeman/aii/internal/database/milvus"
	"github.com/kristianfreeman/aii/internal/database/minio"
	"github.com/kristianfreeman/aii/internal/database/mongo"
	"github.com/kristianfreeman/aii/internal/database/redis"
	"github.com/kristianfreeman/aii/internal/embedding"
	"github.com/kristianfreeman/aii/internal/llm"
	"github.com/kristianfreeman/aii/internal/memory/consumer"
	"github.com/kristianfreeman/aii/internal/memory/extractor"
	"github.com/kristianfreeman/aii/internal/memory/facts"
	"github.com/kristianfreeman/aii/internal/memory/store"
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
	appLogger := logger.New("memory_service", "", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize vector index
	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}

	factBlobs, err := newFactBlobStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize embedding and LLM clients
	embedder, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	vectors := store.NewMilvusVectorStore(milvusClient)
	factExtractor := extractor.NewLlmExtractor(llmClient)
	factManager := facts.NewManager(vectors, factBlobs, embedder, factExtractor, cfg.Memory.DedupThreshold, appLogger)

	// Initialize Kafka consumer
	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer kafkaClient.Close()

	ingestConsumer := consumer.NewKafkaConsumer(kafkaClient, factManager, appLogger)
	ingestConsumer.Start(ctx)
	appLogger.Info("Memory service started")

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cancel()
	appLogger.Info("Memory service stopped")
}

// newFactBlobStore 根据配置选择事实存储后端。
func newFactBlobStore(ctx context.Context, cfg *config.AppConfig) (store.FactBlobStore, error) {
	switch cfg.FactStore.Provider {
	case "minio":
		client, err := minio.GetClient(&cfg.Databases.MinIO)
		if err != nil {
			return nil, err
		}
		return store.NewMinioFactStore(client, cfg.Databases.MinIO.Bucket), nil
	case "redis":
		client, err := redis.GetClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			return nil, err
		}
		return store.NewRedisFactStore(client), nil
	case "mongo":
		db, err := mongo.GetDatabase(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			return nil, err
		}
		collection := cfg.FactStore.Collection
		if collection == "" {
			collection = "facts"
		}
		return store.NewMongoFactStore(db, collection), nil
	default:
		return nil, errors.New("unsupported fact store provider: " + cfg.FactStore.Provider)
	}
}
