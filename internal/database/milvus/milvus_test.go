package milvus

import (
	"context"
	"testing"

	"github.com/kristianfreeman/aii/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// fakeBackend 通过内嵌 client.Client 接口伪造 Milvus 服务端，
// 只实现被测路径用到的方法，并记录调用顺序。
type fakeBackend struct {
	client.Client

	partitions []string
	calls      []string
	searchHits []client.SearchResult
}

func (f *fakeBackend) HasPartition(_ context.Context, _ string, partitionName string) (bool, error) {
	f.calls = append(f.calls, "HasPartition")
	for _, p := range f.partitions {
		if p == partitionName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBackend) ShowPartitions(_ context.Context, _ string) ([]*entity.Partition, error) {
	f.calls = append(f.calls, "ShowPartitions")
	out := make([]*entity.Partition, len(f.partitions))
	for i, p := range f.partitions {
		out[i] = &entity.Partition{Name: p}
	}
	return out, nil
}

func (f *fakeBackend) CreatePartition(_ context.Context, _ string, partitionName string, _ ...client.CreatePartitionOption) error {
	f.calls = append(f.calls, "CreatePartition")
	f.partitions = append(f.partitions, partitionName)
	return nil
}

func (f *fakeBackend) LoadPartitions(_ context.Context, _ string, _ []string, _ bool, _ ...client.LoadPartitionsOption) error {
	f.calls = append(f.calls, "LoadPartitions")
	return nil
}

func (f *fakeBackend) Search(_ context.Context, _ string, _ []string, _ string, _ []string, _ []entity.Vector, _ string, _ entity.MetricType, _ int, _ entity.SearchParam, _ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	f.calls = append(f.calls, "Search")
	return f.searchHits, nil
}

func (f *fakeBackend) Delete(_ context.Context, _ string, _ string, _ string) error {
	f.calls = append(f.calls, "Delete")
	return nil
}

func (f *fakeBackend) Insert(_ context.Context, _ string, _ string, _ ...entity.Column) (entity.Column, error) {
	f.calls = append(f.calls, "Insert")
	return nil, nil
}

func newTestClient(backend *fakeBackend) *MilvusClient {
	return &MilvusClient{
		Client: backend,
		Config: &config.MilvusConfig{
			Schema: config.MilvusSchemaConfig{
				CollectionName: "test_embeddings",
				IDField:        "id",
				VectorField:    "vector",
				Dim:            2,
				MaxIDLength:    64,
			},
		},
	}
}

func TestSearchUnknownPartitionHasNoNeighbors(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(backend)

	// 分区在首次写入时才建立；对一个从未写入过的分区搜索必须
	// 返回空结果而不是错误，否则新用户的第一条事实永远写不进去。
	hits, err := c.Search(context.Background(), "facts_alice", 1, []float32{1, 0})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits for an unknown partition, got %v", hits)
	}
	for _, call := range backend.calls {
		if call == "Search" {
			t.Error("Expected the backend search to be skipped for an unknown partition")
		}
	}
}

func TestSearchLoadsPartitionBeforeSearching(t *testing.T) {
	backend := &fakeBackend{
		partitions: []string{"facts_alice"},
		searchHits: []client.SearchResult{
			{
				ResultCount: 1,
				IDs:         entity.NewColumnVarChar("id", []string{"fact-1"}),
				Scores:      []float32{0.95},
			},
		},
	}
	c := newTestClient(backend)

	hits, err := c.Search(context.Background(), "facts_alice", 1, []float32{1, 0})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "fact-1" || hits[0].Score != 0.95 {
		t.Errorf("Expected the backend hit to be returned, got %v", hits)
	}

	loaded := false
	for _, call := range backend.calls {
		if call == "LoadPartitions" {
			loaded = true
		}
		if call == "Search" && !loaded {
			t.Error("Expected the partition to be loaded before searching")
		}
	}
	if !loaded {
		t.Error("Expected LoadPartitions to be called")
	}
}

func TestUpsertDeletesBeforeInsert(t *testing.T) {
	backend := &fakeBackend{partitions: []string{"messages_alice"}}
	c := newTestClient(backend)

	if err := c.Upsert(context.Background(), "messages_alice", "42", []float32{1, 0}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	deleteIdx, insertIdx := -1, -1
	for i, call := range backend.calls {
		switch call {
		case "Delete":
			deleteIdx = i
		case "Insert":
			insertIdx = i
		}
	}
	if deleteIdx < 0 || insertIdx < 0 {
		t.Fatalf("Expected both Delete and Insert calls, got %v", backend.calls)
	}
	if deleteIdx > insertIdx {
		t.Errorf("Expected the existing id to be deleted before inserting, got %v", backend.calls)
	}
}

func TestUpsertCreatesMissingPartition(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(backend)

	if err := c.Upsert(context.Background(), "facts_alice", "fact-1", []float32{1, 0}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	created := false
	for _, call := range backend.calls {
		if call == "CreatePartition" {
			created = true
		}
	}
	if !created {
		t.Errorf("Expected the partition to be created on first write, got %v", backend.calls)
	}
}
