package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/supporthub/backend-go/internal/retrieval"
)

func TestCalculateConfidence(t *testing.T) {
	tests := []struct {
		name     string
		best     float64
		expected float64
	}{
		{"高相似度", 0.92, 0.85},
		{"刚过0.7", 0.71, 0.85},
		{"中等相似度", 0.6, 0.65},
		{"低相似度", 0.35, 0.4},
		{"几乎不相关", 0.1, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := []retrieval.RetrievedArticle{{ArticleID: 1, Similarity: tt.best}}
			assert.Equal(t, tt.expected, CalculateConfidence(matched))
		})
	}
}

func TestCalculateConfidence_NoMatches(t *testing.T) {
	assert.Equal(t, 0.3, CalculateConfidence(nil))
	assert.Equal(t, 0.3, CalculateConfidence([]retrieval.RetrievedArticle{}))
}

func TestCalculateConfidence_UsesBestMatch(t *testing.T) {
	// 第一条就是最优命中，后面的低分不拉低档位
	matched := []retrieval.RetrievedArticle{
		{ArticleID: 1, Similarity: 0.8},
		{ArticleID: 2, Similarity: 0.2},
	}
	assert.Equal(t, 0.85, CalculateConfidence(matched))
}

func TestJoinAndParseArticleIDs(t *testing.T) {
	matched := []retrieval.RetrievedArticle{
		{ArticleID: 3}, {ArticleID: 7}, {ArticleID: 12},
	}
	joined := joinArticleIDs(matched)
	assert.Equal(t, "3,7,12", joined)
	assert.Equal(t, []uint{3, 7, 12}, ParseArticleIDs(joined))
}

func TestParseArticleIDs_Empty(t *testing.T) {
	assert.Nil(t, ParseArticleIDs(""))
	assert.Empty(t, ParseArticleIDs("abc,"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 300))

	// 中文内容按字符截断，截断点不能落在多字节字符中间
	long := strings.Repeat("退货政策说明", 100)
	got := truncateRunes(long, 300)
	assert.True(t, utf8.ValidString(got), "截断结果必须是合法UTF-8")
	assert.Equal(t, 303, len([]rune(got))) // 300字符加省略号

	exact := strings.Repeat("a", 300)
	assert.Equal(t, exact, truncateRunes(exact, 300))
}
