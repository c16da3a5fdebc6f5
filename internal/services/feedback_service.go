package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/kafka"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/metrics"
	"github.com/supporthub/backend-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FeedbackService 坐席反馈采集
// 训练记录只追加：同一草稿的多次反馈并存，不互相覆盖
type FeedbackService struct {
	db *gorm.DB
}

func NewFeedbackService() *FeedbackService {
	return &FeedbackService{db: database.DB}
}

// RecordFeedbackRequest 反馈提交请求
type RecordFeedbackRequest struct {
	DraftID    uint   `json:"draft_id" validate:"required"`
	Rating     string `json:"rating" validate:"required"`
	Correction string `json:"correction,omitempty"`
	Intent     string `json:"intent,omitempty"`
	Notes      string `json:"notes,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`
}

// Record 记录一条坐席反馈
// not_helpful同时落一条reject坐席操作并发事件
func (s *FeedbackService) Record(ctx context.Context, req *RecordFeedbackRequest) (*models.TrainingRecord, error) {
	if verr := errors.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	if !models.ValidRating(req.Rating) {
		return nil, errors.NewInvalidRatingError(req.Rating)
	}

	var draft models.Message
	if err := s.db.WithContext(ctx).First(&draft, req.DraftID).Error; err != nil {
		return nil, errors.NewNotFoundError("draft")
	}
	if draft.MessageType != models.MessageAIDraft {
		return nil, errors.NewBusinessError(errors.ErrCodeInvalidInput, "feedback target is not an AI draft")
	}

	record := models.TrainingRecord{
		DraftID:        req.DraftID,
		ConversationID: draft.ConversationID,
		Rating:         req.Rating,
		Correction:     req.Correction,
		Intent:         req.Intent,
		Notes:          req.Notes,
		Processed:      false,
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to save training record").WithCause(err)
	}
	metrics.FeedbackRecords.WithLabelValues(req.Rating).Inc()

	if req.Rating == models.RatingNotHelpful {
		s.recordRejectAction(ctx, &draft, req)
	}

	logger.Info("Feedback recorded",
		zap.Uint("record_id", record.ID),
		zap.Uint("draft_id", req.DraftID),
		zap.String("rating", req.Rating))
	return &record, nil
}

// recordRejectAction 操作日志或事件失败不影响反馈主流程
func (s *FeedbackService) recordRejectAction(ctx context.Context, draft *models.Message, req *RecordFeedbackRequest) {
	actionData, _ := json.Marshal(map[string]interface{}{
		"draft_id": draft.ID,
		"agent_id": req.AgentID,
		"notes":    req.Notes,
	})
	action := models.AgentAction{
		ActionType:     models.ActionReject,
		ConversationID: &draft.ConversationID,
		MessageID:      &draft.ID,
		ActionData:     string(actionData),
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		logger.Error("Failed to record reject action", zap.Uint("draft_id", draft.ID), zap.Error(err))
	}

	publishAgentAction(kafka.AgentActionEvent{
		ActionType:     models.ActionReject,
		ConversationID: &draft.ConversationID,
		MessageID:      &draft.ID,
		Data:           map[string]string{"agent_id": req.AgentID},
		Timestamp:      time.Now(),
	})
}

// List 按processed过滤的反馈列表，时间倒序
func (s *FeedbackService) List(ctx context.Context, processed *bool, page, pageSize int) ([]models.TrainingRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.TrainingRecord{})
	if processed != nil {
		query = query.Where("processed = ?", *processed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to count training records").WithCause(err)
	}

	var records []models.TrainingRecord
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to list training records").WithCause(err)
	}
	return records, total, nil
}

// PendingCount 未处理反馈数量，供批处理侧与看板使用
func (s *FeedbackService) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TrainingRecord{}).
		Where("processed = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to count pending records").WithCause(err)
	}
	return count, nil
}
