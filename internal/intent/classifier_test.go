package intent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dimEmbedder 把不同意图的文本映射到互相正交的固定向量，便于断言分类结果
type dimEmbedder struct {
	vectors map[string][]float32
}

func (d *dimEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := d.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0, 1}, nil
}

func (d *dimEmbedder) Dimensions() int { return 4 }
func (d *dimEmbedder) Ready() bool     { return true }

func TestClassify_ByEmbedding(t *testing.T) {
	embedder := &dimEmbedder{vectors: map[string][]float32{
		"Where is my order?": {1, 0, 0, 0},
	}}
	// 给order_inquiry的一个种子示例配上同方向向量
	for _, text := range seedExemplars[IntentOrderInquiry] {
		embedder.vectors[text] = []float32{0.9, 0.1, 0, 0}
	}

	c := NewClassifier(embedder, 50, 0.35)
	label, score := c.Classify(context.Background(), "Where is my order?")

	assert.Equal(t, IntentOrderInquiry, label)
	assert.Greater(t, score, 0.35)
}

func TestClassify_BelowThresholdFallsToGeneral(t *testing.T) {
	// 所有示例向量与查询正交，最高相似度为0
	embedder := &dimEmbedder{vectors: map[string][]float32{
		"zxqw": {1, 0, 0, 0},
	}}
	for _, texts := range seedExemplars {
		for _, text := range texts {
			embedder.vectors[text] = []float32{0, 1, 0, 0}
		}
	}

	c := NewClassifier(embedder, 50, 0.35)
	label, _ := c.Classify(context.Background(), "zxqw")
	assert.Equal(t, IntentGeneral, label)
}

func TestClassify_KeywordFallback(t *testing.T) {
	c := NewClassifier(nil, 50, 0.35)

	tests := []struct {
		query    string
		expected string
	}{
		{"Where is my order? It never shipped", IntentOrderInquiry},
		{"I get an error when I try to login", IntentTechnicalSupport},
		{"This is unacceptable, the item arrived damaged", IntentComplaint},
		{"What is your return policy?", IntentFAQ},
		{"hello there", IntentGeneral},
	}
	for _, tt := range tests {
		label, _ := c.Classify(context.Background(), tt.query)
		assert.Equal(t, tt.expected, label, "query: %s", tt.query)
	}
}

func TestAddExemplar(t *testing.T) {
	c := NewClassifier(nil, 50, 0.35)
	before := c.ExemplarCount(IntentFAQ)

	assert.True(t, c.AddExemplar(IntentFAQ, "Can I pay with crypto?"))
	assert.Equal(t, before+1, c.ExemplarCount(IntentFAQ))

	// 重复追加幂等
	assert.False(t, c.AddExemplar(IntentFAQ, "Can I pay with crypto?"))
	assert.Equal(t, before+1, c.ExemplarCount(IntentFAQ))
}

func TestAddExemplar_Invalid(t *testing.T) {
	c := NewClassifier(nil, 50, 0.35)
	assert.False(t, c.AddExemplar("unknown_intent", "some text"))
	assert.False(t, c.AddExemplar(IntentFAQ, "   "))
}

func TestAddExemplar_CapEvictsOldest(t *testing.T) {
	c := NewClassifier(nil, 5, 0.35)

	for i := 0; i < 10; i++ {
		c.AddExemplar(IntentComplaint, fmt.Sprintf("complaint sample %d", i))
	}
	assert.Equal(t, 5, c.ExemplarCount(IntentComplaint))

	// 最旧的已被淘汰，可以重新加入
	require.True(t, c.AddExemplar(IntentComplaint, "complaint sample 0"))
	assert.Equal(t, 5, c.ExemplarCount(IntentComplaint))
}

func TestValidCategory(t *testing.T) {
	for _, label := range Categories {
		assert.True(t, ValidCategory(label))
	}
	assert.False(t, ValidCategory("sales"))
	assert.False(t, ValidCategory(""))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}), "维度不一致返回0")
	assert.Equal(t, 0.0, cosine(nil, nil))
}
