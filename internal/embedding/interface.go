package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
// EmbedBatch 返回的向量数量和顺序与输入文本一一对应。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
