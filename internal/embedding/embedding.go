package embedding

import (
	"fmt"

	"github.com/kristianfreeman/aii/internal/config"
)

// NewEmbedder 是一个工厂函数，根据配置创建并返回一个实现了 Embedding 接口的客户端。
func NewEmbedder(cfg config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case "gemini", "google":
		return NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "openai":
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
