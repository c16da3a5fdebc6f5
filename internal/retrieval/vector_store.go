package retrieval

import "context"

// ArticleVector 文章向量
type ArticleVector struct {
	ArticleID uint
	Embedding []float32
}

// VectorSearchRequest 向量检索请求
type VectorSearchRequest struct {
	QueryEmbedding []float32
	Limit          int
}

// VectorMatch 向量检索结果，Similarity已换算为[0,1]相似度
type VectorMatch struct {
	ArticleID  uint
	Similarity float64
}

// VectorStore 向量存储抽象
// Upsert按article id幂等覆盖，同一id重复写入不产生重复条目
type VectorStore interface {
	Upsert(ctx context.Context, vec ArticleVector) error
	Delete(ctx context.Context, articleID uint) error
	Search(ctx context.Context, req VectorSearchRequest) ([]VectorMatch, error)
	Ready() bool
}
