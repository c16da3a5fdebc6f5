package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"
)

// DatabaseVectorStore 基于PostgreSQL的退化向量存储
// 向量以JSON形式存在articles.embedding列，检索时在进程内算余弦相似度
// 适合文章量较小或未部署Milvus的环境
type DatabaseVectorStore struct {
	db *gorm.DB
}

func NewDatabaseVectorStore(db *gorm.DB) VectorStore {
	return &DatabaseVectorStore{db: db}
}

func (s *DatabaseVectorStore) Upsert(ctx context.Context, vec ArticleVector) error {
	if len(vec.Embedding) == 0 {
		return fmt.Errorf("embedding is empty")
	}

	embeddingJSON, err := json.Marshal(vec.Embedding)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Table("articles").
		Where("id = ?", vec.ArticleID).
		Update("embedding", string(embeddingJSON)).Error
}

func (s *DatabaseVectorStore) Delete(ctx context.Context, articleID uint) error {
	return s.db.WithContext(ctx).Table("articles").
		Where("id = ?", articleID).
		Update("embedding", "").Error
}

func (s *DatabaseVectorStore) Search(ctx context.Context, req VectorSearchRequest) ([]VectorMatch, error) {
	if len(req.QueryEmbedding) == 0 {
		return nil, nil
	}
	if req.Limit == 0 {
		req.Limit = 3
	}

	var rows []articleEmbeddingRecord
	err := s.db.WithContext(ctx).
		Table("articles").
		Select("id, embedding").
		Where("embedding IS NOT NULL AND embedding <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	queryNorm := vectorNorm(req.QueryEmbedding)
	if queryNorm == 0 {
		return nil, fmt.Errorf("query embedding norm is zero")
	}

	matches := make([]VectorMatch, 0, len(rows))
	for _, row := range rows {
		var embedding []float32
		if err := json.Unmarshal([]byte(row.EmbeddingJSON), &embedding); err != nil {
			continue
		}
		matches = append(matches, VectorMatch{
			ArticleID:  row.ID,
			Similarity: clamp01(cosineSimilarity(req.QueryEmbedding, embedding, queryNorm)),
		})
	}

	sortMatchesBySimilarity(matches)
	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	return matches, nil
}

func (s *DatabaseVectorStore) Ready() bool {
	return s.db != nil
}

type articleEmbeddingRecord struct {
	ID            uint
	EmbeddingJSON string `gorm:"column:embedding"`
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosineSimilarity(a, b []float32, normA float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) != len(b) {
		// 尝试对齐长度
		minLen := len(a)
		if len(b) < minLen {
			minLen = len(b)
		}
		a = a[:minLen]
		b = b[:minLen]
	}

	var dot float64
	var normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * math.Sqrt(normB))
}

// sortMatchesBySimilarity 相似度降序，同分按文章id升序保证确定性
func sortMatchesBySimilarity(matches []VectorMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity == matches[j].Similarity {
			return matches[i].ArticleID < matches[j].ArticleID
		}
		return matches[i].Similarity > matches[j].Similarity
	})
}
