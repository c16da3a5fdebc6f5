package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/supporthub/backend-go/internal/arbiter"
	"github.com/supporthub/backend-go/internal/config"
	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/metrics"
	"github.com/supporthub/backend-go/internal/models"
	"github.com/supporthub/backend-go/internal/retrieval"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GenerationService 草稿生成服务
// 检索知识库、计算置信度、调用生成模型、交给仲裁器定处置
// 生成模型是黑盒：只做同步调用，不做任何权重更新
type GenerationService struct {
	db          *gorm.DB
	engine      *retrieval.Engine
	arbiter     *arbiter.Arbiter
	llmClient   *openai.Client
	llmModel    string
	maxTokens   int
	temperature float32
	tone        string
}

// DraftResult 草稿生成结果
type DraftResult struct {
	MessageID         uint                         `json:"message_id"`
	ConversationID    uint                         `json:"conversation_id"`
	Response          string                       `json:"response"`
	ConfidenceScore   float64                      `json:"confidence_score"`
	Disposition       arbiter.Disposition          `json:"disposition"`
	MatchedArticles   []retrieval.RetrievedArticle `json:"matched_articles"`
	Intent            string                       `json:"intent"`
	AutoSendThreshold float64                      `json:"auto_send_threshold"`
	Reasoning         string                       `json:"reasoning"`
}

// NewGenerationService 创建生成服务实例
func NewGenerationService() *GenerationService {
	cfg := config.AppConfig

	var llmClient *openai.Client
	if cfg.LLM.APIKey != "" || cfg.LLM.BaseURL != "" {
		clientCfg := openai.DefaultConfig(cfg.LLM.APIKey)
		if cfg.LLM.BaseURL != "" {
			clientCfg.BaseURL = cfg.LLM.BaseURL
		}
		llmClient = openai.NewClientWithConfig(clientCfg)
	}

	return &GenerationService{
		db:          database.DB,
		engine:      GetRetrievalEngine(),
		arbiter:     GetArbiter(),
		llmClient:   llmClient,
		llmModel:    cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: float32(cfg.LLM.Temperature),
		tone:        cfg.LLM.Tone,
	}
}

// GenerateDraft 为一条客户消息生成AI草稿并完成仲裁
// 草稿消息落库后处置即不可变，后续升级属于会话级操作
func (s *GenerationService) GenerateDraft(ctx context.Context, conversationID uint, userMessage string) (*DraftResult, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingRequired, "message content is required")
	}

	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, conversationID).Error; err != nil {
		return nil, errors.NewNotFoundError("conversation")
	}

	// 客户消息先落库
	customerMsg := models.Message{
		ConversationID: conversationID,
		Content:        userMessage,
		MessageType:    models.MessageCustomer,
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&customerMsg).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to save customer message").WithCause(err)
	}

	// 检索知识库，降级对用户透明
	matched := s.engine.Search(ctx, userMessage, 0)
	for _, m := range matched {
		metrics.RetrievalResults.WithLabelValues(m.Source).Inc()
	}

	confidence := CalculateConfidence(matched)
	intentLabel, _ := GetIntentClassifier().Classify(ctx, userMessage)

	responseText, reasoning := s.generateResponse(ctx, userMessage, matched)

	disposition, err := s.arbiter.Decide(confidence)
	if err != nil {
		// 置信度由本服务产出，越界说明生成环节有bug，立即上抛
		return nil, err
	}
	metrics.DraftDispositions.WithLabelValues(string(disposition)).Inc()

	draft := models.Message{
		ConversationID:      conversationID,
		Content:             responseText,
		MessageType:         models.MessageAIDraft,
		ConfidenceScore:     &confidence,
		Disposition:         string(disposition),
		RetrievedArticleIDs: joinArticleIDs(matched),
		CreatedAt:           time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&draft).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to save draft").WithCause(err)
	}

	logger.Info("Draft generated",
		zap.Uint("conversation_id", conversationID),
		zap.Uint("draft_id", draft.ID),
		zap.Float64("confidence", confidence),
		zap.String("disposition", string(disposition)),
		zap.String("intent", intentLabel))

	return &DraftResult{
		MessageID:         draft.ID,
		ConversationID:    conversationID,
		Response:          responseText,
		ConfidenceScore:   confidence,
		Disposition:       disposition,
		MatchedArticles:   matched,
		Intent:            intentLabel,
		AutoSendThreshold: s.arbiter.Threshold(),
		Reasoning:         reasoning,
	}, nil
}

// CalculateConfidence 基于检索命中质量的置信度分档
// 最优相似度 >0.7 → 0.85；>0.5 → 0.65；>0.3 → 0.4；无命中 → 0.3
func CalculateConfidence(matched []retrieval.RetrievedArticle) float64 {
	if len(matched) == 0 {
		return 0.3
	}
	best := matched[0].Similarity
	switch {
	case best > 0.7:
		return 0.85
	case best > 0.5:
		return 0.65
	case best > 0.3:
		return 0.4
	default:
		return 0.3
	}
}

// generateResponse 调用生成模型，不可用或失败时退化为基于命中文章的规则回复
func (s *GenerationService) generateResponse(ctx context.Context, userMessage string, matched []retrieval.RetrievedArticle) (string, string) {
	contextBlock := s.buildContext(ctx, matched)

	if s.llmClient != nil {
		systemPrompt := tonePrompt(s.tone) +
			"\n\nUse the following information to answer the customer's question. " +
			"If the information provided doesn't fully answer the question, acknowledge this and offer to escalate to a human agent."
		userPrompt := fmt.Sprintf("%s\n\nCustomer Question: %s\n\nProvide a helpful, concise response.", contextBlock, userMessage)

		resp, err := s.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.llmModel,
			MaxTokens:   s.maxTokens,
			Temperature: s.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err == nil && len(resp.Choices) > 0 {
			return resp.Choices[0].Message.Content, "Generated using LLM provider"
		}
		logger.Warn("LLM provider failed, using fallback response", zap.Error(err))
		return s.fallbackResponse(ctx, matched), "Fallback (provider failed)"
	}

	return s.fallbackResponse(ctx, matched), "Fallback (provider unavailable)"
}

// truncateRunes 按字符数截断，不会把多字节字符切成半个
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// buildContext 取top 2命中文章拼接上下文
func (s *GenerationService) buildContext(ctx context.Context, matched []retrieval.RetrievedArticle) string {
	if len(matched) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant information:\n\n")
	for i, m := range matched {
		if i >= 2 {
			break
		}
		var article models.Article
		if err := s.db.WithContext(ctx).First(&article, m.ArticleID).Error; err != nil {
			continue
		}
		content := truncateRunes(article.Content, 300)
		sb.WriteString(fmt.Sprintf("**%s**\n%s\n\n", article.Title, content))
	}
	return sb.String()
}

// fallbackResponse 规则兜底回复
func (s *GenerationService) fallbackResponse(ctx context.Context, matched []retrieval.RetrievedArticle) string {
	if len(matched) == 0 {
		return "Thank you for reaching out. I couldn't find specific information about your question, " +
			"so I'm connecting you with a human agent who can help."
	}

	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, matched[0].ArticleID).Error; err != nil {
		return "Thank you for reaching out. A human agent will follow up with you shortly."
	}

	return fmt.Sprintf("Based on our %s: %s\n\nIs there anything else I can help you with?",
		strings.ToLower(article.Title), article.Content)
}

func tonePrompt(tone string) string {
	switch tone {
	case "formal":
		return "You are a professional customer support assistant. Respond formally and precisely."
	case "concise":
		return "You are a customer support assistant. Keep responses short and to the point."
	default:
		return "You are a friendly and helpful customer support assistant."
	}
}

func joinArticleIDs(matched []retrieval.RetrievedArticle) string {
	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, strconv.FormatUint(uint64(m.ArticleID), 10))
	}
	return strings.Join(ids, ",")
}

// ParseArticleIDs 解析草稿上记录的检索引用
func ParseArticleIDs(joined string) []uint {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32); err == nil {
			ids = append(ids, uint(v))
		}
	}
	return ids
}
