package services

import (
	"context"
	"time"

	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnalyticsService 看板数据聚合
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{db: database.DB}
}

// DashboardSummary 实时看板汇总
type DashboardSummary struct {
	TotalConversations     int64   `json:"total_conversations"`
	ActiveConversations    int64   `json:"active_conversations"`
	EscalatedConversations int64   `json:"escalated_conversations"`
	AutoSentDrafts         int64   `json:"auto_sent_drafts"`
	PendingReviewDrafts    int64   `json:"pending_review_drafts"`
	AvgConfidenceScore     float64 `json:"avg_confidence_score"`
	PendingFeedback        int64   `json:"pending_feedback"`
}

// GetSummary 当前全量汇总，直接走库不走预聚合
func (s *AnalyticsService) GetSummary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{}
	db := s.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&summary.TotalConversations, db.Model(&models.Conversation{})},
		{&summary.ActiveConversations, db.Model(&models.Conversation{}).Where("status = ?", models.ConversationActive)},
		{&summary.EscalatedConversations, db.Model(&models.Conversation{}).Where("status = ?", models.ConversationEscalated)},
		{&summary.AutoSentDrafts, db.Model(&models.Message{}).Where("disposition = ?", models.DraftAutoSent)},
		{&summary.PendingReviewDrafts, db.Model(&models.Message{}).Where("disposition = ?", models.DraftPendingReview)},
		{&summary.PendingFeedback, db.Model(&models.TrainingRecord{}).Where("processed = ?", false)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to aggregate summary").WithCause(err)
		}
	}

	var avg *float64
	err := db.Model(&models.Message{}).
		Where("message_type = ?", models.MessageAIDraft).
		Select("AVG(confidence_score)").
		Scan(&avg).Error
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to aggregate confidence").WithCause(err)
	}
	if avg != nil {
		summary.AvgConfidenceScore = *avg
	}

	return summary, nil
}

// RollupDaily 把某天的数据聚合进daily_metrics，可重复执行（upsert语义）
func (s *AnalyticsService) RollupDaily(ctx context.Context, day time.Time) (*models.DailyMetrics, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	db := s.db.WithContext(ctx)

	rollup := models.DailyMetrics{Date: dayStart}

	counts := []struct {
		dest  *int
		query *gorm.DB
	}{
		{&rollup.TotalConversations, db.Model(&models.Conversation{}).
			Where("created_at >= ? AND created_at < ?", dayStart, dayEnd)},
		{&rollup.ResolvedConversations, db.Model(&models.Conversation{}).
			Where("resolved_at >= ? AND resolved_at < ?", dayStart, dayEnd)},
		{&rollup.EscalatedConversations, db.Model(&models.Conversation{}).
			Where("status = ? AND updated_at >= ? AND updated_at < ?", models.ConversationEscalated, dayStart, dayEnd)},
		{&rollup.AutoSentDrafts, db.Model(&models.Message{}).
			Where("disposition = ? AND created_at >= ? AND created_at < ?", models.DraftAutoSent, dayStart, dayEnd)},
		{&rollup.ReviewedDrafts, db.Model(&models.Message{}).
			Where("disposition = ? AND created_at >= ? AND created_at < ?", models.DraftPendingReview, dayStart, dayEnd)},
		{&rollup.HelpfulFeedbackCount, db.Model(&models.TrainingRecord{}).
			Where("rating = ? AND created_at >= ? AND created_at < ?", models.RatingHelpful, dayStart, dayEnd)},
		{&rollup.NotHelpfulFeedbackCount, db.Model(&models.TrainingRecord{}).
			Where("rating = ? AND created_at >= ? AND created_at < ?", models.RatingNotHelpful, dayStart, dayEnd)},
	}
	for _, c := range counts {
		var count int64
		if err := c.query.Count(&count).Error; err != nil {
			return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to aggregate rollup").WithCause(err)
		}
		*c.dest = int(count)
	}

	var avg *float64
	err := db.Model(&models.Message{}).
		Where("message_type = ? AND created_at >= ? AND created_at < ?", models.MessageAIDraft, dayStart, dayEnd).
		Select("AVG(confidence_score)").
		Scan(&avg).Error
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to aggregate confidence").WithCause(err)
	}
	if avg != nil {
		rollup.AvgConfidenceScore = *avg
	}

	var existing models.DailyMetrics
	err = db.Where("date = ?", dayStart).First(&existing).Error
	if err == nil {
		rollup.ID = existing.ID
	} else if err != gorm.ErrRecordNotFound {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to query rollup").WithCause(err)
	}
	if err := db.Save(&rollup).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to save rollup").WithCause(err)
	}

	logger.Info("Daily metrics rolled up",
		zap.String("date", dayStart.Format("2006-01-02")),
		zap.Int("conversations", rollup.TotalConversations))
	return &rollup, nil
}

// ListDaily 历史日指标，最近在前
func (s *AnalyticsService) ListDaily(ctx context.Context, days int) ([]models.DailyMetrics, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	var rows []models.DailyMetrics
	err := s.db.WithContext(ctx).
		Where("date >= ?", time.Now().AddDate(0, 0, -days)).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to list daily metrics").WithCause(err)
	}
	return rows, nil
}
