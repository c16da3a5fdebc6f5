package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	VectorSize int
	Distance   string
	Database   string
	UseTLS     bool
	Timeout    time.Duration
}

type milvusVectorStore struct {
	milvusClient client.Client
	collection   string
	vectorSize   int
	distance     string

	ensureOnce sync.Once
	ensureErr  error
}

// NewMilvusVectorStore 创建Milvus向量存储
func NewMilvusVectorStore(opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "kb_articles"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 384
	}
	if opts.Distance == "" {
		opts.Distance = "COSINE"
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	milvusClient, err := client.NewClient(
		context.Background(),
		client.Config{
			Address:       opts.Address,
			DBName:        opts.Database,
			Username:      opts.Username,
			Password:      opts.Password,
			EnableTLSAuth: opts.UseTLS,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &milvusVectorStore{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
		distance:     formatMilvusDistance(opts.Distance),
	}, nil
}

func formatMilvusDistance(value string) string {
	switch strings.ToUpper(value) {
	case "DOT", "IP", "INNER_PRODUCT":
		return "IP"
	case "L2", "EUCLIDEAN":
		return "L2"
	default:
		return "COSINE"
	}
}

func (s *milvusVectorStore) ensureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		s.ensureErr = s.createCollectionIfMissing(ctx)
	})
	return s.ensureErr
}

func (s *milvusVectorStore) createCollectionIfMissing(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if hasCollection {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collection,
		Description:    "Knowledge base article vectors",
		Fields: []*entity.Field{
			{
				Name:       "article_id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorSize),
				},
			},
		},
	}

	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// 创建索引 - 根据距离类型选择索引
	var index entity.Index
	var indexErr error
	switch s.distance {
	case "IP":
		index, indexErr = entity.NewIndexHNSW(entity.IP, 8, 64)
	case "L2":
		index, indexErr = entity.NewIndexHNSW(entity.L2, 8, 64)
	default:
		index, indexErr = entity.NewIndexHNSW(entity.COSINE, 8, 64)
	}
	if indexErr != nil {
		return fmt.Errorf("failed to create index: %w", indexErr)
	}

	if err := s.milvusClient.CreateIndex(ctx, s.collection, "vector", index, false); err != nil {
		// 索引创建失败不影响使用，只记录警告
		fmt.Printf("warning: failed to create index for collection %s: %v\n", s.collection, err)
	}

	return nil
}

func (s *milvusVectorStore) Upsert(ctx context.Context, vec ArticleVector) error {
	if len(vec.Embedding) == 0 {
		return fmt.Errorf("embedding is empty")
	}
	if len(vec.Embedding) != s.vectorSize {
		embedding := make([]float32, s.vectorSize)
		copy(embedding, vec.Embedding)
		vec.Embedding = embedding
	}

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	// 先按主键删除旧条目，保证同一id重复写入是覆盖而不是追加
	expr := fmt.Sprintf("article_id == %d", vec.ArticleID)
	if err := s.milvusClient.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete before upsert failed: %w", err)
	}

	idColumn := entity.NewColumnInt64("article_id", []int64{int64(vec.ArticleID)})
	vectorColumn := entity.NewColumnFloatVector("vector", s.vectorSize, [][]float32{vec.Embedding})

	if _, err := s.milvusClient.Insert(ctx, s.collection, "", idColumn, vectorColumn); err != nil {
		return fmt.Errorf("milvus insert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		// 刷新失败不影响插入，只记录警告
		fmt.Printf("warning: failed to flush collection %s: %v\n", s.collection, err)
	}

	return nil
}

func (s *milvusVectorStore) Delete(ctx context.Context, articleID uint) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	expr := fmt.Sprintf("article_id == %d", articleID)
	if err := s.milvusClient.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		fmt.Printf("warning: failed to flush after delete: %v\n", err)
	}

	return nil
}

func (s *milvusVectorStore) Search(ctx context.Context, req VectorSearchRequest) ([]VectorMatch, error) {
	if len(req.QueryEmbedding) == 0 {
		return nil, nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	if req.Limit == 0 {
		req.Limit = 3
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	queryVector := entity.FloatVector(req.QueryEmbedding)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		"",
		[]string{"article_id"},
		[]entity.Vector{queryVector},
		"vector",
		entity.MetricType(s.distance),
		req.Limit,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	if len(searchResults) == 0 {
		return []VectorMatch{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", result.Err)
	}
	if result.ResultCount == 0 {
		return []VectorMatch{}, nil
	}

	var ids []int64
	if idCol, ok := result.IDs.(*entity.ColumnInt64); ok {
		ids = idCol.Data()
	}

	matches := make([]VectorMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount && i < len(ids); i++ {
		score := float64(0)
		if i < len(result.Scores) {
			score = float64(result.Scores[i])
		}
		matches = append(matches, VectorMatch{
			ArticleID:  uint(ids[i]),
			Similarity: milvusScoreToSimilarity(s.distance, score),
		})
	}

	return matches, nil
}

// milvusScoreToSimilarity 将Milvus返回的score换算为[0,1]相似度
// COSINE/IP下score即相似度，L2下score是距离，按 1 - distance 换算后截断
func milvusScoreToSimilarity(distance string, score float64) float64 {
	similarity := score
	if distance == "L2" {
		similarity = 1 - score
	}
	return clamp01(similarity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *milvusVectorStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Milvus SDK v2 使用 ListCollections 来检查连接
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}
