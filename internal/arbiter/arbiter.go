package arbiter

import (
	"math"

	apperrors "github.com/supporthub/backend-go/internal/errors"
)

// Disposition AI草稿的处置结果
type Disposition string

const (
	// DispositionAutoSent 置信度达标，直接发送给客户
	DispositionAutoSent Disposition = "auto_sent"
	// DispositionPendingReview 进入人工审核队列
	DispositionPendingReview Disposition = "pending_review"
	// DispositionEscalated 人工显式升级，仲裁本身不会产生该结果
	DispositionEscalated Disposition = "escalated"
)

// DefaultAutoSendThreshold 自动发送默认阈值
const DefaultAutoSendThreshold = 0.65

// Arbiter 置信度仲裁器
// Decide是纯函数：相同输入必得相同处置，实际的发送/入队动作由调用方执行
type Arbiter struct {
	threshold func() float64
}

// New 创建仲裁器，threshold回调在每次仲裁时取值，支持配置热更新
func New(threshold func() float64) *Arbiter {
	if threshold == nil {
		threshold = func() float64 { return DefaultAutoSendThreshold }
	}
	return &Arbiter{threshold: threshold}
}

// Decide 根据置信度决定草稿处置
// 等于阈值按达标处理（>=）；置信度在[0,1]之外属于上游生成环节的契约违规，
// 立即报错而不是静默截断，让生成侧的bug尽早暴露
func (a *Arbiter) Decide(confidence float64) (Disposition, error) {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return "", apperrors.NewInvalidConfidenceError(confidence)
	}
	if confidence >= a.threshold() {
		return DispositionAutoSent, nil
	}
	return DispositionPendingReview, nil
}

// Threshold 返回当前生效的阈值
func (a *Arbiter) Threshold() float64 {
	return a.threshold()
}
