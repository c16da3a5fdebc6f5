package retrieval

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder 定义文本向量化接口
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Ready() bool
}

// NoopEmbedder 默认占位实现，嵌入不可用时检索走关键词降级
type NoopEmbedder struct{}

func (n *NoopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding provider not configured")
}

func (n *NoopEmbedder) Dimensions() int {
	return 0
}

func (n *NoopEmbedder) Ready() bool {
	return false
}

// OpenAIEmbedder 使用OpenAI兼容的Embedding API
// BaseURL可指向本地sentence-transformer服务（如text-embeddings-inference，384维）
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	limiter    sync.Mutex
}

// NewOpenAIEmbedder 创建嵌入向量生成器
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions int) Embedder {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" && baseURL == "" {
		return &NoopEmbedder{}
	}
	if model == "" {
		model = "all-MiniLM-L6-v2"
	}
	if dimensions == 0 {
		dimensions = 384
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	if e.client == nil {
		return nil, errors.New("embedding client not initialized")
	}

	e.limiter.Lock()
	defer e.limiter.Unlock()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response empty")
	}

	embedding := resp.Data[0].Embedding
	result := make([]float32, len(embedding))
	copy(result, embedding)
	return Normalize(result), nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEmbedder) Ready() bool {
	return e.client != nil
}

// Normalize 将向量归一化到单位长度，零向量原样返回
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// sharedEmbedder 进程级共享的嵌入模型句柄
// 首个调用者触发初始化，并发调用者等待同一次初始化完成而不是重复加载
type sharedEmbedder struct {
	once    sync.Once
	factory func() Embedder
	inner   Embedder
}

// NewSharedEmbedder 包装工厂函数为懒加载、仅初始化一次的Embedder
// 句柄通过依赖注入传递给调用方，不作为隐式全局状态暴露
func NewSharedEmbedder(factory func() Embedder) Embedder {
	return &sharedEmbedder{factory: factory}
}

func (s *sharedEmbedder) get() Embedder {
	s.once.Do(func() {
		s.inner = s.factory()
	})
	return s.inner
}

func (s *sharedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.get().Embed(ctx, text)
}

func (s *sharedEmbedder) Dimensions() int {
	return s.get().Dimensions()
}

func (s *sharedEmbedder) Ready() bool {
	return s.get().Ready()
}
