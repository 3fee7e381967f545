package mongo

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/kristianfreeman/aii/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	client  *mongo.Client
	once    sync.Once
	initErr error
)

// GetDatabase 使用单例模式初始化 Mongo 客户端并返回配置的数据库句柄。
func GetDatabase(ctx context.Context, cfg *config.MongoConfig) (*mongo.Database, error) {
	once.Do(func() {
		uri := fmt.Sprintf("mongodb://%s", cfg.Address)
		opts := options.Client().ApplyURI(uri)
		if cfg.Username != "" {
			opts.SetAuth(options.Credential{
				Username: cfg.Username,
				Password: cfg.Password,
			})
		}

		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			initErr = fmt.Errorf("无法连接到 MongoDB: %w", err)
			return
		}

		// Ping 以验证连接性。
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			initErr = fmt.Errorf("MongoDB 初始化健康检查失败: %w", err)
			return
		}

		log.Println("✅ 成功连接到 MongoDB!")
		client = c
	})

	if initErr != nil {
		return nil, initErr
	}
	return client.Database(cfg.Database), nil
}

// Close 安全地断开单例的 MongoDB 连接。
func Close(ctx context.Context) error {
	if client != nil {
		return client.Disconnect(ctx)
	}
	return nil
}

// HealthCheck 检查 MongoDB 连接的健康状况。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MongoDB 客户端未初始化")
	}
	return client.Ping(ctx, readpref.Primary())
}
