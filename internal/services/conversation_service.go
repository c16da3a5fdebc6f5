package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/kafka"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConversationService 会话生命周期管理
// 升级（escalated）只来自人工操作，系统置信度不会自动触发
type ConversationService struct {
	db *gorm.DB
}

func NewConversationService() *ConversationService {
	return &ConversationService{db: database.DB}
}

// CreateConversationRequest 创建会话请求
type CreateConversationRequest struct {
	CustomerID string `json:"customer_id" validate:"omitempty,max=255"`
}

// CreateConversation 创建新会话，初始状态active
// 未提供customer_id时生成匿名访客ID
func (s *ConversationService) CreateConversation(ctx context.Context, req *CreateConversationRequest) (*models.Conversation, error) {
	if verr := errors.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	customerID := req.CustomerID
	if customerID == "" {
		customerID = "guest-" + uuid.NewString()
	}

	conversation := models.Conversation{
		CustomerID: customerID,
		Status:     models.ConversationActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to create conversation").WithCause(err)
	}

	logger.Info("Conversation created",
		zap.Uint("conversation_id", conversation.ID),
		zap.String("customer_id", conversation.CustomerID))
	return &conversation, nil
}

// GetConversation 获取会话及全部消息，消息按时间升序
func (s *ConversationService) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&conversation, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("conversation")
		}
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to query conversation").WithCause(err)
	}
	return &conversation, nil
}

// ListConversations 按状态过滤的分页列表
func (s *ConversationService) ListConversations(ctx context.Context, status string, page, pageSize int) ([]models.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Conversation{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to count conversations").WithCause(err)
	}

	var conversations []models.Conversation
	err := query.Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&conversations).Error
	if err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to list conversations").WithCause(err)
	}
	return conversations, total, nil
}

// ResolveConversation 标记会话已解决
func (s *ConversationService) ResolveConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		return nil, errors.NewNotFoundError("conversation")
	}

	now := time.Now()
	conversation.Status = models.ConversationResolved
	conversation.ResolvedAt = &now
	conversation.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(&conversation).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to resolve conversation").WithCause(err)
	}

	logger.Info("Conversation resolved", zap.Uint("conversation_id", id))
	return &conversation, nil
}

// EscalateConversation 人工升级会话并记录坐席操作
// 已有草稿的处置不回改，升级体现在会话状态上
func (s *ConversationService) EscalateConversation(ctx context.Context, id uint, agentID, reason string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		return nil, errors.NewNotFoundError("conversation")
	}

	conversation.Status = models.ConversationEscalated
	conversation.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(&conversation).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to escalate conversation").WithCause(err)
	}

	actionData, _ := json.Marshal(map[string]string{"reason": reason, "agent_id": agentID})
	action := models.AgentAction{
		ActionType:     models.ActionEscalate,
		ConversationID: &id,
		ActionData:     string(actionData),
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		logger.Error("Failed to record escalate action", zap.Uint("conversation_id", id), zap.Error(err))
	}

	publishAgentAction(kafka.AgentActionEvent{
		ActionType:     models.ActionEscalate,
		ConversationID: &id,
		Data:           map[string]string{"reason": reason, "agent_id": agentID},
		Timestamp:      time.Now(),
	})

	logger.Info("Conversation escalated",
		zap.Uint("conversation_id", id),
		zap.String("agent_id", agentID),
		zap.String("reason", reason))
	return &conversation, nil
}

// ReviewDraftRequest 草稿审核请求
type ReviewDraftRequest struct {
	Action  string `json:"action" validate:"required,oneof=approve edit"`
	Content string `json:"content"` // action=edit时必填
}

// ReviewDraft 坐席审核待复核草稿：approve原样发出，edit改写后发出
// 改写时原始AI内容保留在original_ai_content，处置字段不回改
func (s *ConversationService) ReviewDraft(ctx context.Context, messageID uint, agentID string, req *ReviewDraftRequest) (*models.Message, error) {
	if verr := errors.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	var message models.Message
	if err := s.db.WithContext(ctx).First(&message, messageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("draft")
		}
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to query draft").WithCause(err)
	}
	if message.MessageType != models.MessageAIDraft {
		return nil, errors.NewBusinessError(errors.ErrCodeInvalidInput, "target message is not an AI draft")
	}

	actionPayload := map[string]string{"agent_id": agentID}
	switch req.Action {
	case models.ActionApprove:
		message.MessageType = models.MessageFinal
	case models.ActionEdit:
		if req.Content == "" {
			return nil, errors.NewValidationError(errors.ErrCodeMissingRequired, "content is required when editing a draft")
		}
		message.OriginalAIContent = message.Content
		message.Content = req.Content
		message.MessageType = models.MessageAgentEdited
		actionPayload["edited_content"] = req.Content
	}

	if err := s.db.WithContext(ctx).Save(&message).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to update draft").WithCause(err)
	}

	actionData, _ := json.Marshal(actionPayload)
	action := models.AgentAction{
		ActionType:     req.Action,
		ConversationID: &message.ConversationID,
		MessageID:      &messageID,
		ActionData:     string(actionData),
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		logger.Error("Failed to record review action", zap.Uint("message_id", messageID), zap.Error(err))
	}

	publishAgentAction(kafka.AgentActionEvent{
		ActionType:     req.Action,
		ConversationID: &message.ConversationID,
		MessageID:      &messageID,
		Data:           actionPayload,
		Timestamp:      time.Now(),
	})

	logger.Info("Draft reviewed",
		zap.Uint("message_id", messageID),
		zap.String("action", req.Action),
		zap.String("agent_id", agentID))
	return &message, nil
}

// AddAgentMessage 坐席人工回复，会话状态保持不变
func (s *ConversationService) AddAgentMessage(ctx context.Context, conversationID uint, content string) (*models.Message, error) {
	if content == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingRequired, "message content is required")
	}

	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, conversationID).Error; err != nil {
		return nil, errors.NewNotFoundError("conversation")
	}

	message := models.Message{
		ConversationID: conversationID,
		Content:        content,
		MessageType:    models.MessageAgentOnly,
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to save agent message").WithCause(err)
	}

	s.db.WithContext(ctx).Model(&conversation).Update("updated_at", time.Now())
	return &message, nil
}

// publishAgentAction Kafka不可用时只记日志，不影响主流程
func publishAgentAction(event kafka.AgentActionEvent) {
	producer := kafka.GetProducer()
	if producer == nil {
		return
	}
	if err := producer.Publish("", event); err != nil {
		logger.Warn("Failed to publish agent action event",
			zap.String("action_type", event.ActionType), zap.Error(err))
	}
}
