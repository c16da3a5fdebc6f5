package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/supporthub/backend-go/internal/config"
	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/intent"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/metrics"
	"github.com/supporthub/backend-go/internal/models"
	"github.com/supporthub/backend-go/internal/retrieval"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReprocessService 反馈批处理
// 把积累的训练记录消化回检索与意图侧：修正触发文章重建索引，意图标签补充示例集
// 不训练模型，只更新检索资产
type ReprocessService struct {
	db         *gorm.DB
	engine     *retrieval.Engine
	classifier *intent.Classifier
	redis      *redis.Client
	lockTTL    time.Duration
}

// ReprocessReport 一次批处理的结果汇总
type ReprocessReport struct {
	Examined      int `json:"examined"`
	Reembedded    int `json:"reembedded"`
	IntentUpdated int `json:"intent_updated"`
	Errors        int `json:"errors"`
}

func NewReprocessService() *ReprocessService {
	cfg := config.AppConfig
	return &ReprocessService{
		db:         database.DB,
		engine:     GetRetrievalEngine(),
		classifier: GetIntentClassifier(),
		redis:      database.RedisClient,
		lockTTL:    time.Duration(cfg.Reprocess.LockTTL) * time.Second,
	}
}

const reprocessLockKey = "reprocess:lock:%s"

// RunBatch 处理一批未消化的训练记录
// FIFO（按id升序）取processed=false；单条失败不拦截批次，存储整体不可用才整批中止
// partition为空时使用default分区，同分区调用由Redis锁串行化
func (s *ReprocessService) RunBatch(ctx context.Context, partition string, limit int) (*ReprocessReport, error) {
	if limit <= 0 {
		limit = config.AppConfig.Reprocess.BatchLimit
	}
	if partition == "" {
		partition = "default"
	}

	unlock, err := s.acquireLock(ctx, partition)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 存储不可用时不能做任何processed变更，直接整批中止，重试安全
	if s.engine.Embedder() == nil || !s.engine.Embedder().Ready() {
		return nil, errors.NewBatchAbortError("embedding provider unavailable, batch aborted")
	}
	if s.engine.VectorStore() == nil || !s.engine.VectorStore().Ready() {
		return nil, errors.NewBatchAbortError("vector store unavailable, batch aborted")
	}

	var records []models.TrainingRecord
	err = s.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, errors.NewBatchAbortError("failed to load pending records").WithCause(err)
	}

	report := &ReprocessReport{}
	for i := range records {
		record := &records[i]

		// 条件更新抢占记录，并发批次互不重复消费
		claim := s.db.WithContext(ctx).Model(&models.TrainingRecord{}).
			Where("id = ? AND processed = ?", record.ID, false).
			Updates(map[string]interface{}{
				"processed":    true,
				"processed_at": time.Now(),
			})
		if claim.Error != nil {
			return report, errors.NewBatchAbortError("failed to claim record").WithCause(claim.Error)
		}
		if claim.RowsAffected == 0 {
			continue
		}

		report.Examined++
		if err := s.processRecord(ctx, record, report); err != nil {
			// 存储中途掉线属于批次级故障：回滚当前记录的claim后整批中止
			if errors.IsCode(err, errors.ErrCodeIndexUnavailable) {
				s.unclaim(ctx, record.ID)
				report.Examined--
				return report, errors.NewBatchAbortError("index became unavailable mid-batch").WithCause(err)
			}
			report.Errors++
			metrics.ReprocessRecords.WithLabelValues("error").Inc()
			logger.Error("Training record processing failed",
				zap.Uint("record_id", record.ID), zap.Error(err))
			continue
		}
		metrics.ReprocessRecords.WithLabelValues("ok").Inc()
	}

	logger.Info("Reprocess batch finished",
		zap.String("partition", partition),
		zap.Int("examined", report.Examined),
		zap.Int("reembedded", report.Reembedded),
		zap.Int("intent_updated", report.IntentUpdated),
		zap.Int("errors", report.Errors))
	return report, nil
}

// processRecord 消化单条训练记录
func (s *ReprocessService) processRecord(ctx context.Context, record *models.TrainingRecord, report *ReprocessReport) error {
	if record.Correction != "" {
		reembedded, err := s.applyCorrection(ctx, record)
		if err != nil {
			return err
		}
		if reembedded {
			report.Reembedded++
			metrics.ReembedTotal.Inc()
		}
	}

	if record.Intent != "" {
		// 没有修正文本时，用草稿前最近的客户提问作为范例
		text := record.Correction
		if text == "" {
			text = s.customerQuestion(ctx, record)
		}
		if text != "" && s.classifier.AddExemplar(record.Intent, text) {
			report.IntentUpdated++
		}
	}
	return nil
}

// customerQuestion 草稿对应的客户原始提问，找不到返回空串
func (s *ReprocessService) customerQuestion(ctx context.Context, record *models.TrainingRecord) string {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND message_type = ? AND id < ?",
			record.ConversationID, models.MessageCustomer, record.DraftID).
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		return ""
	}
	return msg.Content
}

// applyCorrection 修正实质性判断
// 修正文本按关键词匹配到的最佳文章不在草稿当时的检索引用里，说明检索没找对
// 此时对该文章重建索引；否则视为措辞级修正，跳过
func (s *ReprocessService) applyCorrection(ctx context.Context, record *models.TrainingRecord) (bool, error) {
	var draft models.Message
	if err := s.db.WithContext(ctx).First(&draft, record.DraftID).Error; err != nil {
		return false, fmt.Errorf("load draft %d: %w", record.DraftID, err)
	}

	var articles []models.Article
	if err := s.db.WithContext(ctx).Find(&articles).Error; err != nil {
		return false, fmt.Errorf("load articles: %w", err)
	}

	ranked := retrieval.RankByKeyword(record.Correction, articles, 1)
	if len(ranked) == 0 {
		return false, nil
	}
	best := ranked[0].ArticleID

	for _, id := range ParseArticleIDs(draft.RetrievedArticleIDs) {
		if id == best {
			return false, nil
		}
	}

	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, best).Error; err != nil {
		return false, fmt.Errorf("load article %d: %w", best, err)
	}
	if err := s.engine.Index(ctx, &article); err != nil {
		return false, err
	}

	logger.Info("Article reindexed from correction",
		zap.Uint("record_id", record.ID),
		zap.Uint("article_id", best))
	return true, nil
}

// unclaim 批次中止时撤销对当前记录的抢占
func (s *ReprocessService) unclaim(ctx context.Context, recordID uint) {
	err := s.db.WithContext(ctx).Model(&models.TrainingRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"processed":    false,
			"processed_at": nil,
		}).Error
	if err != nil {
		logger.Error("Failed to unclaim record", zap.Uint("record_id", recordID), zap.Error(err))
	}
}

// ExportProcessed 导出已处理记录为JSONL，无副作用
func (s *ReprocessService) ExportProcessed(ctx context.Context, w io.Writer) (int, error) {
	var records []models.TrainingRecord
	err := s.db.WithContext(ctx).
		Where("processed = ?", true).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to load processed records").WithCause(err)
	}

	encoder := json.NewEncoder(w)
	count := 0
	for _, record := range records {
		var draft models.Message
		original := ""
		if err := s.db.WithContext(ctx).First(&draft, record.DraftID).Error; err == nil {
			original = draft.Content
		}

		line := map[string]interface{}{
			"original":        original,
			"correction":      record.Correction,
			"intent":          record.Intent,
			"conversation_id": record.ConversationID,
		}
		if err := encoder.Encode(line); err != nil {
			return count, errors.NewSystemError(errors.ErrCodeInternalServer, "Failed to write export line").WithCause(err)
		}
		count++
	}
	return count, nil
}

// acquireLock Redis SETNX分区锁，Redis未配置时退化为无锁（由条件更新兜底）
func (s *ReprocessService) acquireLock(ctx context.Context, partition string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf(reprocessLockKey, partition)
	ok, err := s.redis.SetNX(ctx, key, time.Now().Unix(), s.lockTTL).Result()
	if err != nil {
		logger.Warn("Reprocess lock check failed, proceeding without lock", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, errors.NewBusinessError(errors.ErrCodeConflict,
			fmt.Sprintf("reprocess already running for partition %q", partition))
	}

	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			logger.Warn("Failed to release reprocess lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
