package models

import (
	"time"
)

// 会话状态
const (
	ConversationActive    = "active"
	ConversationResolved  = "resolved"
	ConversationEscalated = "escalated" // 人工显式升级，置信度本身不会触发
)

// 消息类型
const (
	MessageCustomer    = "customer"
	MessageAIDraft     = "ai_draft"      // AI生成，等待坐席审核
	MessageAgentEdited = "agent_edited"  // 坐席修改过的AI草稿
	MessageFinal       = "final"         // 已发送给客户的最终回复
	MessageAgentOnly   = "agent_only"    // 纯人工回复
)

// 草稿处置状态（仲裁后不可变）
const (
	DraftGenerated     = "generated"
	DraftAutoSent      = "auto_sent"
	DraftPendingReview = "pending_review"
	DraftEscalated     = "escalated"
)

// Conversation 客户会话表
type Conversation struct {
	ID         uint       `gorm:"primaryKey;column:id" json:"id"`
	CustomerID string     `gorm:"column:customer_id;size:255;index" json:"customer_id"`
	Status     string     `gorm:"column:status;size:20;default:active;index" json:"status"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at" json:"updated_at"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 会话消息表，AI草稿带置信度与检索引用
type Message struct {
	ID                  uint      `gorm:"primaryKey;column:id" json:"id"`
	ConversationID      uint      `gorm:"column:conversation_id;not null;index" json:"conversation_id"`
	Content             string    `gorm:"type:text;not null" json:"content"`
	MessageType         string    `gorm:"column:message_type;size:20;not null;index" json:"message_type"`
	ConfidenceScore     *float64  `gorm:"column:confidence_score" json:"confidence_score,omitempty"`
	Disposition         string    `gorm:"column:disposition;size:20" json:"disposition,omitempty"`
	RetrievedArticleIDs string    `gorm:"column:retrieved_article_ids;size:500" json:"retrieved_article_ids,omitempty"` // 逗号分隔
	OriginalAIContent   string    `gorm:"type:text;column:original_ai_content" json:"original_ai_content,omitempty"`
	CreatedAt           time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
