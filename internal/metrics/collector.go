package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 核心链路的Prometheus指标，/metrics端点暴露
var (
	// RetrievalResults 按来源统计检索结果（vector/keyword），降级率由此观测
	RetrievalResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supporthub_retrieval_results_total",
		Help: "Retrieval invocations by result source",
	}, []string{"source"})

	// DraftDispositions 按处置统计草稿仲裁结果
	DraftDispositions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supporthub_draft_dispositions_total",
		Help: "Draft arbitration outcomes",
	}, []string{"disposition"})

	// FeedbackRecords 按评分统计坐席反馈
	FeedbackRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supporthub_feedback_records_total",
		Help: "Agent feedback submissions by rating",
	}, []string{"rating"})

	// ReprocessRecords 按结果统计再处理记录（ok/error）
	ReprocessRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supporthub_reprocess_records_total",
		Help: "Training record reprocessing outcomes",
	}, []string{"outcome"})

	// ReembedTotal 纠正触发的文章重嵌入次数
	ReembedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supporthub_reembed_total",
		Help: "Article re-embeddings triggered by corrections",
	})
)
