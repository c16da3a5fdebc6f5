package intent

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/supporthub/backend-go/internal/retrieval"
)

// 意图类别
const (
	IntentFAQ              = "faq"
	IntentOrderInquiry     = "order_inquiry"
	IntentTechnicalSupport = "technical_support"
	IntentComplaint        = "complaint"
	IntentGeneral          = "general"
)

// Categories 全部意图类别
var Categories = []string{
	IntentFAQ,
	IntentOrderInquiry,
	IntentTechnicalSupport,
	IntentComplaint,
	IntentGeneral,
}

// ValidCategory 校验意图标签
func ValidCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

type exemplar struct {
	text      string
	embedding []float32
}

// Classifier 少样本意图分类器
// 用查询向量与各意图示例向量的余弦相似度做分类，嵌入不可用时退化为关键词启发式
// 示例集可由反馈再处理追加，按意图限量，旧示例先淘汰
type Classifier struct {
	mu            sync.RWMutex
	embedder      retrieval.Embedder
	exemplars     map[string][]exemplar
	maxPerIntent  int
	minSimilarity float64
}

// NewClassifier 创建分类器并载入种子示例
func NewClassifier(embedder retrieval.Embedder, maxPerIntent int, minSimilarity float64) *Classifier {
	if maxPerIntent <= 0 {
		maxPerIntent = 50
	}
	if minSimilarity <= 0 {
		minSimilarity = 0.35
	}
	c := &Classifier{
		embedder:      embedder,
		exemplars:     make(map[string][]exemplar),
		maxPerIntent:  maxPerIntent,
		minSimilarity: minSimilarity,
	}
	for label, texts := range seedExemplars {
		for _, text := range texts {
			c.exemplars[label] = append(c.exemplars[label], exemplar{text: text})
		}
	}
	return c
}

// Classify 返回意图标签与相似度得分
func (c *Classifier) Classify(ctx context.Context, query string) (string, float64) {
	if c.embedder != nil && c.embedder.Ready() {
		if label, score, ok := c.classifyByEmbedding(ctx, query); ok {
			return label, score
		}
	}
	return c.classifyByKeyword(query)
}

func (c *Classifier) classifyByEmbedding(ctx context.Context, query string) (string, float64, bool) {
	queryEmbedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return "", 0, false
	}

	c.mu.Lock()
	// 懒加载示例向量，已有向量的示例直接复用
	for label, list := range c.exemplars {
		for i := range list {
			if list[i].embedding == nil {
				emb, err := c.embedder.Embed(ctx, list[i].text)
				if err != nil {
					continue
				}
				c.exemplars[label][i].embedding = emb
			}
		}
	}
	c.mu.Unlock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	bestLabel := IntentGeneral
	bestScore := 0.0
	for label, list := range c.exemplars {
		for _, ex := range list {
			if ex.embedding == nil {
				continue
			}
			score := cosine(queryEmbedding, ex.embedding)
			if score > bestScore {
				bestScore = score
				bestLabel = label
			}
		}
	}

	if bestScore < c.minSimilarity {
		return IntentGeneral, bestScore, true
	}
	return bestLabel, bestScore, true
}

// classifyByKeyword 关键词启发式，嵌入不可用时的保底路径
func (c *Classifier) classifyByKeyword(query string) (string, float64) {
	q := strings.ToLower(query)

	keywordMap := map[string][]string{
		IntentOrderInquiry:     {"order", "tracking", "shipped", "delivery", "cancel", "arrive"},
		IntentTechnicalSupport: {"error", "crash", "login", "password", "checkout", "website", "broken", "failed"},
		IntentComplaint:        {"complaint", "terrible", "disappointed", "unacceptable", "damaged", "defective", "rude"},
		IntentFAQ:              {"policy", "return", "refund", "shipping", "payment", "warranty", "hours", "exchange"},
	}

	bestLabel := IntentGeneral
	bestHits := 0
	for _, label := range []string{IntentOrderInquiry, IntentTechnicalSupport, IntentComplaint, IntentFAQ} {
		hits := 0
		for _, kw := range keywordMap[label] {
			if strings.Contains(q, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestLabel = label
		}
	}

	if bestHits == 0 {
		return IntentGeneral, 0
	}
	return bestLabel, float64(bestHits) / float64(len(retrieval.Tokenize(query))+1)
}

// AddExemplar 追加人工标注的意图示例（反馈再处理调用）
// 超出限量时淘汰最旧示例，保证内存有界
func (c *Classifier) AddExemplar(label, text string) bool {
	if !ValidCategory(label) || strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.exemplars[label]
	for _, ex := range list {
		if ex.text == text {
			return false // 已存在，保持幂等
		}
	}

	list = append(list, exemplar{text: text})
	if len(list) > c.maxPerIntent {
		list = list[len(list)-c.maxPerIntent:]
	}
	c.exemplars[label] = list
	return true
}

// ExemplarCount 返回指定意图的示例数量
func (c *Classifier) ExemplarCount(label string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.exemplars[label])
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
