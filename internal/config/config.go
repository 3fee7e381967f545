package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

// MilvusSchemaConfig 定义了 Milvus 向量集合的 Schema 配置。
type MilvusSchemaConfig struct {
	CollectionName string `yaml:"collectionName"` // 集合名称
	IDField        string `yaml:"idField"`        // 向量ID字段名称 (VarChar, 主键)
	VectorField    string `yaml:"vectorField"`    // 向量字段名称
	Dim            int    `yaml:"dim"`            // 向量维度
	MaxIDLength    int    `yaml:"maxIDLength"`    // ID字段的最大长度
}

// MilvusConfig 定义了 Milvus 数据库的连接和 Schema 配置。
type MilvusConfig struct {
	Address string             `yaml:"address"` // Milvus 服务地址
	Schema  MilvusSchemaConfig `yaml:"schema"`  // Milvus 集合 Schema 配置
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 默认存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // Kafka 主题列表
	GroupID string   `yaml:"groupID"` // 消费者组ID
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`  // Milvus 数据库配置
	MySQL   MySQLConfig  `yaml:"mysql"`   // MySQL 数据库配置
	MinIO   MinIOConfig  `yaml:"minio"`   // MinIO 对象存储配置
	Redis   RedisConfig  `yaml:"redis"`   // Redis 数据库配置
	MongoDB MongoConfig  `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig  `yaml:"kafka"`   // Kafka 消息队列配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ProviderModelConfig 包含单个模型提供商的配置。
type ProviderModelConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 服务地址 (仅自托管提供商需要, 例如 Ollama)
}

// LLMConfig 包含了不同LLM提供商的配置。
type LLMConfig struct {
	Provider string              `yaml:"provider"` // LLM提供商 (例如: "gemini", "openai")
	Gemini   ProviderModelConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   ProviderModelConfig `yaml:"openai"`   // OpenAI 模型配置
}

// EmbeddingConfig 包含了不同Embedding提供商的配置。
type EmbeddingConfig struct {
	Provider string              `yaml:"provider"` // Embedding提供商 (例如: "gemini", "openai", "ollama")
	Gemini   ProviderModelConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   ProviderModelConfig `yaml:"openai"`   // OpenAI 模型配置
	Ollama   ProviderModelConfig `yaml:"ollama"`   // Ollama 模型配置
}

// MemoryConfig 定义了记忆管道的策略参数。
// 这些是策略常量而非推导值，必须保持可调。
type MemoryConfig struct {
	DedupThreshold float64 `yaml:"dedupThreshold"` // 事实去重的相似度阈值 (有界相似度)
	RecentLimit    int     `yaml:"recentLimit"`    // 近期上下文的消息条数
	TopK           int     `yaml:"topK"`           // 语义召回的最近邻条数
}

// ChatConfig 定义了对话服务的配置。
type ChatConfig struct {
	Persona        string `yaml:"persona"`        // 系统人格指令
	IncludeTime    bool   `yaml:"includeTime"`    // 是否在提示词中包含当前时间标记
	IngestionTopic string `yaml:"ingestionTopic"` // 完成的对话轮次发布到的 Kafka 主题
	PublishTurns   bool   `yaml:"publishTurns"`   // 是否将完成的对话轮次发布到摄取主题
}

// FactStoreConfig 定义了事实存储后端的选择。
type FactStoreConfig struct {
	Provider   string `yaml:"provider"`   // 存储后端: "minio", "redis" 或 "mongo"
	Collection string `yaml:"collection"` // MongoDB 集合名称 (仅 mongo 后端需要)
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8080")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Server     ServerConfig     `yaml:"server"`     // HTTP 服务配置
	LLM        LLMConfig        `yaml:"llm"`        // LLM 配置部分
	Embedding  EmbeddingConfig  `yaml:"embedding"`  // Embedding 配置部分
	Memory     MemoryConfig     `yaml:"memory"`     // 记忆管道策略配置
	Chat       ChatConfig       `yaml:"chat"`       // 对话服务配置
	FactStore  FactStoreConfig  `yaml:"factStore"`  // 事实存储后端配置
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据库配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// 记忆管道策略的默认值。阈值 0.9 权衡了漏合并与误合并。
const (
	DefaultDedupThreshold = 0.9
	DefaultRecentLimit    = 10
	DefaultTopK           = 5
)

// ApplyDefaults 为缺失的策略参数填充默认值。
func (c *AppConfig) ApplyDefaults() {
	if c.Memory.DedupThreshold <= 0 {
		c.Memory.DedupThreshold = DefaultDedupThreshold
	}
	if c.Memory.RecentLimit <= 0 {
		c.Memory.RecentLimit = DefaultRecentLimit
	}
	if c.Memory.TopK <= 0 {
		c.Memory.TopK = DefaultTopK
	}
	if c.FactStore.Provider == "" {
		c.FactStore.Provider = "minio"
	}
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil // 返回解析后的配置和nil错误。
}
