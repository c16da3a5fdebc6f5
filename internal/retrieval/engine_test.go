package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// fakeEmbedder 测试用确定性嵌入
type fakeEmbedder struct {
	ready bool
	err   error
	vec   []float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vec) }
func (f *fakeEmbedder) Ready() bool     { return f.ready }

// fakeVectorStore 内存向量库，按id幂等覆盖
type fakeVectorStore struct {
	ready     bool
	searchErr error
	matches   []VectorMatch
	vectors   map[uint][]float32
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{ready: true, vectors: make(map[uint][]float32)}
}

func (f *fakeVectorStore) Upsert(ctx context.Context, vec ArticleVector) error {
	f.vectors[vec.ArticleID] = vec.Embedding
	return nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, articleID uint) error {
	delete(f.vectors, articleID)
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, req VectorSearchRequest) ([]VectorMatch, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeVectorStore) Ready() bool { return f.ready }

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func articleRows(articles ...models.Article) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "content", "tags"})
	for _, a := range articles {
		rows.AddRow(a.ID, a.Title, a.Content, a.Tags)
	}
	return rows
}

func TestEngineSearch_VectorPath(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: true, vec: []float32{0.1, 0.2, 0.3}}
	store := newFakeVectorStore()
	store.matches = []VectorMatch{
		{ArticleID: 1, Similarity: 0.92},
		{ArticleID: 2, Similarity: 0.78},
	}

	mock.ExpectQuery(`SELECT id, title FROM "articles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Password Reset Guide"))
	mock.ExpectQuery(`SELECT id, title FROM "articles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(2, "Account Security"))

	engine := NewEngine(db, embedder, store, 3, time.Second)
	results := engine.Search(context.Background(), "reset password", 0)

	require.Len(t, results, 2)
	assert.Equal(t, SourceVector, results[0].Source)
	assert.Equal(t, uint(1), results[0].ArticleID)
	assert.Equal(t, "Password Reset Guide", results[0].Title)
	assert.InDelta(t, 0.92, results[0].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngineSearch_RespectsTopK(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: false}
	store := newFakeVectorStore()

	articles := []models.Article{
		{ID: 1, Title: "refund one"},
		{ID: 2, Title: "refund two"},
		{ID: 3, Title: "refund three"},
		{ID: 4, Title: "refund four"},
	}
	mock.ExpectQuery(`SELECT id, title, content, tags FROM "articles"`).
		WillReturnRows(articleRows(articles...))

	engine := NewEngine(db, embedder, store, 2, time.Second)
	results := engine.Search(context.Background(), "refund", 0)
	assert.LessOrEqual(t, len(results), 2)
}

func TestEngineSearch_FallbackWhenEmbedderNotReady(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: false}
	store := newFakeVectorStore()

	mock.ExpectQuery(`SELECT id, title, content, tags FROM "articles"`).
		WillReturnRows(articleRows(models.Article{ID: 1, Title: "Refund Policy", Content: "refund details"}))

	engine := NewEngine(db, embedder, store, 3, time.Second)
	results := engine.Search(context.Background(), "refund", 0)

	require.Len(t, results, 1)
	assert.Equal(t, SourceKeyword, results[0].Source)
}

func TestEngineSearch_FallbackWhenEmbedFails(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: true, err: errors.New("provider timeout")}
	store := newFakeVectorStore()

	mock.ExpectQuery(`SELECT id, title, content, tags FROM "articles"`).
		WillReturnRows(articleRows(models.Article{ID: 2, Title: "Shipping Info", Content: "shipping times"}))

	engine := NewEngine(db, embedder, store, 3, time.Second)
	results := engine.Search(context.Background(), "shipping", 0)

	require.Len(t, results, 1)
	assert.Equal(t, SourceKeyword, results[0].Source)
}

func TestEngineSearch_FallbackWhenStoreFails(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: true, vec: []float32{0.5}}
	store := newFakeVectorStore()
	store.searchErr = errors.New("index offline")

	mock.ExpectQuery(`SELECT id, title, content, tags FROM "articles"`).
		WillReturnRows(articleRows(models.Article{ID: 3, Title: "Order Tracking", Content: "track your order"}))

	engine := NewEngine(db, embedder, store, 3, time.Second)
	results := engine.Search(context.Background(), "order", 0)

	require.Len(t, results, 1)
	assert.Equal(t, SourceKeyword, results[0].Source)
}

func TestEngineSearch_FallbackWhenZeroHits(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: true, vec: []float32{0.5}}
	store := newFakeVectorStore() // matches为空

	mock.ExpectQuery(`SELECT id, title, content, tags FROM "articles"`).
		WillReturnRows(articleRows(models.Article{ID: 4, Title: "Billing FAQ", Content: "billing questions"}))

	engine := NewEngine(db, embedder, store, 3, time.Second)
	results := engine.Search(context.Background(), "billing", 0)

	require.Len(t, results, 1)
	assert.Equal(t, SourceKeyword, results[0].Source)
}

func TestEngineSearch_NeverReturnsError(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: false}
	store := newFakeVectorStore()
	store.ready = false

	// 数据库也失败时返回空结果而非panic
	mock.ExpectQuery(`SELECT id, title, content, tags FROM "articles"`).
		WillReturnError(errors.New("connection refused"))

	engine := NewEngine(db, embedder, store, 3, time.Second)
	results := engine.Search(context.Background(), "anything", 0)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEngineIndex_Idempotent(t *testing.T) {
	db, mock := newTestDB(t)
	embedder := &fakeEmbedder{ready: true, vec: []float32{0.1, 0.2}}
	store := newFakeVectorStore()
	engine := NewEngine(db, embedder, store, 3, time.Second)

	article := &models.Article{ID: 42, Title: "Refund Policy", Content: "details"}

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`UPDATE "articles" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, engine.Index(context.Background(), article))
	}

	// 重复索引同一id不产生重复条目
	assert.Len(t, store.vectors, 1)
	assert.Equal(t, []float32{0.1, 0.2}, store.vectors[42])
}

func TestEngineIndex_UnavailableEmbedder(t *testing.T) {
	db, _ := newTestDB(t)
	engine := NewEngine(db, &fakeEmbedder{ready: false}, newFakeVectorStore(), 3, time.Second)

	err := engine.Index(context.Background(), &models.Article{ID: 1, Title: "t", Content: "c"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIndexUnavailable))
}

func TestEngineIndex_UnavailableStore(t *testing.T) {
	db, _ := newTestDB(t)
	store := newFakeVectorStore()
	store.ready = false
	engine := NewEngine(db, &fakeEmbedder{ready: true, vec: []float32{1}}, store, 3, time.Second)

	err := engine.Index(context.Background(), &models.Article{ID: 1, Title: "t", Content: "c"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIndexUnavailable))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.42, clamp01(0.42))
}
