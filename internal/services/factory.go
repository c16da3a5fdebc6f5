package services

import (
	"sync"
	"time"

	"github.com/supporthub/backend-go/internal/arbiter"
	"github.com/supporthub/backend-go/internal/config"
	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/intent"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/retrieval"
	"go.uber.org/zap"
)

var (
	engineOnce       sync.Once
	sharedEngine     *retrieval.Engine
	classifierOnce   sync.Once
	sharedClassifier *intent.Classifier
	arbiterOnce      sync.Once
	sharedArbiter    *arbiter.Arbiter
)

// GetRetrievalEngine 获取进程级检索引擎实例
// 嵌入模型句柄懒加载且只初始化一次，并发首调用方等待同一次加载
func GetRetrievalEngine() *retrieval.Engine {
	engineOnce.Do(func() {
		cfg := config.AppConfig

		embedder := retrieval.NewSharedEmbedder(func() retrieval.Embedder {
			return retrieval.NewOpenAIEmbedder(
				cfg.Retrieval.Embedding.APIKey,
				cfg.Retrieval.Embedding.BaseURL,
				cfg.Retrieval.Embedding.Model,
				cfg.Retrieval.EmbeddingDim,
			)
		})

		var vectorStore retrieval.VectorStore
		switch cfg.Retrieval.VectorStore.Provider {
		case "milvus":
			milvusStore, err := retrieval.NewMilvusVectorStore(retrieval.MilvusOptions{
				Address:    cfg.Retrieval.VectorStore.Milvus.Address,
				Username:   cfg.Retrieval.VectorStore.Milvus.Username,
				Password:   cfg.Retrieval.VectorStore.Milvus.Password,
				Collection: cfg.Retrieval.VectorStore.Milvus.Collection,
				Database:   cfg.Retrieval.VectorStore.Milvus.Database,
				VectorSize: cfg.Retrieval.EmbeddingDim,
				Distance:   cfg.Retrieval.VectorStore.Milvus.Distance,
				UseTLS:     cfg.Retrieval.VectorStore.Milvus.TLS,
				Timeout:    15 * time.Second,
			})
			if err != nil {
				logger.Warn("Milvus vector store init failed, falling back to database store", zap.Error(err))
				vectorStore = retrieval.NewDatabaseVectorStore(database.DB)
			} else {
				vectorStore = milvusStore
			}
		default:
			vectorStore = retrieval.NewDatabaseVectorStore(database.DB)
		}

		sharedEngine = retrieval.NewEngine(
			database.DB,
			embedder,
			vectorStore,
			cfg.Retrieval.TopK,
			time.Duration(cfg.Retrieval.Timeout)*time.Millisecond,
		)
	})
	return sharedEngine
}

// GetIntentClassifier 获取进程级意图分类器，与检索引擎复用同一嵌入句柄
func GetIntentClassifier() *intent.Classifier {
	classifierOnce.Do(func() {
		cfg := config.AppConfig
		sharedClassifier = intent.NewClassifier(
			GetRetrievalEngine().Embedder(),
			cfg.Reprocess.ExemplarsPerIntent,
			cfg.Intent.MinSimilarity,
		)
	})
	return sharedClassifier
}

// GetArbiter 获取置信度仲裁器，阈值每次仲裁时原子读取以支持热更新
func GetArbiter() *arbiter.Arbiter {
	arbiterOnce.Do(func() {
		sharedArbiter = arbiter.New(config.AutoSendThreshold)
	})
	return sharedArbiter
}
