package models

import (
	"time"
)

// DailyMetrics 按天预聚合的指标表，供看板查询
type DailyMetrics struct {
	ID                      uint      `gorm:"primaryKey;column:id" json:"id"`
	Date                    time.Time `gorm:"column:date;index" json:"date"`
	TotalConversations      int       `gorm:"column:total_conversations;default:0" json:"total_conversations"`
	ResolvedConversations   int       `gorm:"column:resolved_conversations;default:0" json:"resolved_conversations"`
	EscalatedConversations  int       `gorm:"column:escalated_conversations;default:0" json:"escalated_conversations"`
	AutoSentDrafts          int       `gorm:"column:auto_sent_drafts;default:0" json:"auto_sent_drafts"`
	ReviewedDrafts          int       `gorm:"column:reviewed_drafts;default:0" json:"reviewed_drafts"`
	AvgConfidenceScore      float64   `gorm:"column:avg_confidence_score;default:0" json:"avg_confidence_score"`
	HelpfulFeedbackCount    int       `gorm:"column:helpful_feedback_count;default:0" json:"helpful_feedback_count"`
	NotHelpfulFeedbackCount int       `gorm:"column:not_helpful_feedback_count;default:0" json:"not_helpful_feedback_count"`
}

func (DailyMetrics) TableName() string {
	return "daily_metrics"
}
