package models

import (
	"time"
)

// 坐席操作类型
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionEdit     = "edit"
	ActionEscalate = "escalate"
)

// 坐席反馈评分
const (
	RatingHelpful          = "helpful"
	RatingNotHelpful       = "not_helpful"
	RatingNeedsImprovement = "needs_improvement"
)

// ValidRating 校验评分是否在枚举内
func ValidRating(rating string) bool {
	switch rating {
	case RatingHelpful, RatingNotHelpful, RatingNeedsImprovement:
		return true
	}
	return false
}

// TrainingRecord 训练记录表
// 只追加不覆盖，同一草稿可有多条记录，保留人工判断的完整历史
// 仅Reprocessor可修改processed标记，记录永不删除
type TrainingRecord struct {
	ID             uint       `gorm:"primaryKey;column:id" json:"id"`
	DraftID        uint       `gorm:"column:draft_id;not null;index" json:"draft_id"`
	ConversationID uint       `gorm:"column:conversation_id;index" json:"conversation_id"`
	Rating         string     `gorm:"column:rating;size:30;not null;index" json:"rating"`
	Correction     string     `gorm:"type:text;column:correction" json:"correction,omitempty"` // 坐席认为应当给出的回复
	Intent         string     `gorm:"column:intent;size:50" json:"intent,omitempty"`
	Notes          string     `gorm:"type:text;column:notes" json:"notes,omitempty"`
	Processed      bool       `gorm:"column:processed;default:false;index" json:"processed"`
	ProcessedAt    *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null" json:"created_at"`
}

func (TrainingRecord) TableName() string {
	return "training_records"
}

// AgentAction 坐席操作日志表，供分析侧消费
type AgentAction struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	ConversationID *uint     `gorm:"column:conversation_id;index" json:"conversation_id,omitempty"`
	MessageID      *uint     `gorm:"column:message_id" json:"message_id,omitempty"`
	ActionType     string    `gorm:"column:action_type;size:20;not null;index" json:"action_type"` // approve | reject | edit | escalate
	ActionData     string    `gorm:"type:jsonb;column:action_data" json:"action_data,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (AgentAction) TableName() string {
	return "agent_actions"
}
