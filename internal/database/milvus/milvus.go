package milvus

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/kristianfreeman/aii/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
// 所有向量都存放在单个集合中，命名空间 (用户 × 实体类型) 映射为集合分区。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// SearchHit 是一次相似度搜索返回的单个命中结果。
// Score 使用 COSINE 度量，取值落在有界相似度区间内，越大越相似。
type SearchHit struct {
	ID    string
	Score float32
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		// 使用配置中的地址创建 Milvus 客户端。
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		log.Println("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
		log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	}
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	_, err := c.Client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection 在集合不存在时按配置的 Schema 创建它，并建立 COSINE 索引。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	s := c.Config.Schema

	has, err := c.Client.HasCollection(ctx, s.CollectionName)
	if err != nil {
		return fmt.Errorf("无法检查集合 '%s' 是否存在: %w", s.CollectionName, err)
	}
	if has {
		return nil
	}

	schema := entity.NewSchema().
		WithName(s.CollectionName).
		WithDescription("per-user message and fact embeddings, partitioned by namespace").
		WithField(entity.NewField().
			WithName(s.IDField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(int64(s.MaxIDLength)).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(s.VectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(s.Dim)))

	if err := c.Client.CreateCollection(ctx, schema, 1); err != nil {
		return fmt.Errorf("创建集合 '%s' 失败: %w", s.CollectionName, err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("构建索引参数失败: %w", err)
	}
	if err := c.Client.CreateIndex(ctx, s.CollectionName, s.VectorField, idx, false); err != nil {
		return fmt.Errorf("为集合 '%s' 创建索引失败: %w", s.CollectionName, err)
	}

	log.Printf("✅ 成功创建集合: %s", s.CollectionName)
	return nil
}

// EnsurePartition 在分区不存在时创建它。分区即命名空间。
func (c *MilvusClient) EnsurePartition(ctx context.Context, partitionName string) error {
	collName := c.Config.Schema.CollectionName
	partitions, err := c.Client.ShowPartitions(ctx, collName)
	if err != nil {
		return fmt.Errorf("无法获取集合 '%s' 的分区列表: %w", collName, err)
	}
	for _, p := range partitions {
		if p.Name == partitionName {
			return nil
		}
	}
	if err := c.Client.CreatePartition(ctx, collName, partitionName); err != nil {
		return fmt.Errorf("为集合 '%s' 创建分区 '%s' 失败: %w", collName, partitionName, err)
	}
	return nil
}

// Upsert inserts a vector keyed by id into the given partition. An existing
// vector with the same id is deleted first, so re-storing an id overwrites
// instead of duplicating.
func (c *MilvusClient) Upsert(ctx context.Context, partitionName, id string, vector []float32) error {
	s := c.Config.Schema

	if err := c.EnsurePartition(ctx, partitionName); err != nil {
		return err
	}
	if err := c.Delete(ctx, partitionName, []string{id}); err != nil {
		return err
	}

	idCol := entity.NewColumnVarChar(s.IDField, []string{id})
	vectorCol := entity.NewColumnFloatVector(s.VectorField, s.Dim, [][]float32{vector})

	if _, err := c.Client.Insert(ctx, s.CollectionName, partitionName, idCol, vectorCol); err != nil {
		return fmt.Errorf("failed to insert vector into Milvus: %w", err)
	}
	return nil
}

// Search 在指定的分区中执行向量相似度搜索，按相似度从高到低返回命中结果。
// 分区在首次写入时才会被创建，所以从未写入过的命名空间没有邻居，
// 直接返回空结果而不是让 Milvus 报告未知分区。
func (c *MilvusClient) Search(ctx context.Context, partitionName string, topK int, vector []float32) ([]SearchHit, error) {
	s := c.Config.Schema

	has, err := c.Client.HasPartition(ctx, s.CollectionName, partitionName)
	if err != nil {
		return nil, fmt.Errorf("无法检查分区 '%s' 是否存在: %w", partitionName, err)
	}
	if !has {
		return nil, nil
	}

	// 按分区加载，保证集合加载后新建的分区在搜索前也已载入内存。
	if err := c.Client.LoadPartitions(ctx, s.CollectionName, []string{partitionName}, false); err != nil {
		return nil, fmt.Errorf("加载分区 '%s' 失败: %w", partitionName, err)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchVectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := c.Client.Search(
		ctx,
		s.CollectionName,
		[]string{partitionName},
		"",
		[]string{s.IDField},
		searchVectors,
		s.VectorField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("在分区 '%s' 中搜索失败: %w", partitionName, err)
	}

	var hits []SearchHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			id, err := result.IDs.GetAsString(i)
			if err != nil {
				continue
			}
			hits = append(hits, SearchHit{ID: id, Score: result.Scores[i]})
		}
	}
	return hits, nil
}

// Delete 按 ID 从指定分区中删除向量。
func (c *MilvusClient) Delete(ctx context.Context, partitionName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s := c.Config.Schema

	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	expr := fmt.Sprintf("%s in [%s]", s.IDField, strings.Join(quoted, ", "))

	if err := c.Client.Delete(ctx, s.CollectionName, partitionName, expr); err != nil {
		return fmt.Errorf("failed to delete vectors from Milvus: %w", err)
	}
	return nil
}
