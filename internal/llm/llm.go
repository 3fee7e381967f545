package llm

import (
	"context"
	"fmt"

	"github.com/kristianfreeman/aii/internal/config"
)

// LLM 定义了所有文本生成后端必须实现的通用接口。
// instruction 是系统指令 (人格、偏好、记忆上下文)，userMessage 是本轮用户输入。
// 调用失败意味着生成后端不可用，错误原样向上传播，本层不做重试。
type LLM interface {
	Generate(ctx context.Context, instruction, userMessage string) (string, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "openai":
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
