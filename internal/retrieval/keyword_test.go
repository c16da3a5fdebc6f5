package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/supporthub/backend-go/internal/models"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"普通英文", "How do I reset my password?", []string{"how", "do", "i", "reset", "my", "password"}},
		{"标点分隔", "refund,policy;shipping", []string{"refund", "policy", "shipping"}},
		{"大小写归一", "REFUND Refund refund", []string{"refund", "refund", "refund"}},
		{"空串", "", nil},
		{"纯标点", "!!! ???", nil},
		{"数字保留", "error 404 page", []string{"error", "404", "page"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRankByKeyword_Scoring(t *testing.T) {
	articles := []models.Article{
		{ID: 1, Title: "Password Reset Guide", Content: "How to reset your password step by step"},
		{ID: 2, Title: "Refund Policy", Content: "Our refund policy explained"},
		{ID: 3, Title: "Shipping Information", Content: "Shipping times and carriers"},
	}

	results := RankByKeyword("reset password", articles, 10)
	assert.Len(t, results, 1, "零匹配的文章不应出现在结果里")
	assert.Equal(t, uint(1), results[0].ArticleID)
	assert.Equal(t, SourceKeyword, results[0].Source)
	// 两个查询词都命中，得分为1
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestRankByKeyword_PartialMatch(t *testing.T) {
	articles := []models.Article{
		{ID: 1, Title: "Refund Policy", Content: "refund details"},
	}

	// 查询4个不同词，命中1个 → 0.25
	results := RankByKeyword("refund shoes blue tomorrow", articles, 5)
	assert.Len(t, results, 1)
	assert.InDelta(t, 0.25, results[0].Similarity, 1e-9)
}

func TestRankByKeyword_TieBreakByID(t *testing.T) {
	articles := []models.Article{
		{ID: 7, Title: "refund", Content: ""},
		{ID: 2, Title: "refund", Content: ""},
		{ID: 5, Title: "refund", Content: ""},
	}

	results := RankByKeyword("refund", articles, 10)
	assert.Len(t, results, 3)
	// 同分按id升序，保证结果可复现
	assert.Equal(t, uint(2), results[0].ArticleID)
	assert.Equal(t, uint(5), results[1].ArticleID)
	assert.Equal(t, uint(7), results[2].ArticleID)
}

func TestRankByKeyword_TopKLimit(t *testing.T) {
	articles := make([]models.Article, 0, 10)
	for i := 1; i <= 10; i++ {
		articles = append(articles, models.Article{ID: uint(i), Title: "refund", Content: ""})
	}

	results := RankByKeyword("refund", articles, 3)
	assert.Len(t, results, 3)
}

func TestRankByKeyword_EmptyQuery(t *testing.T) {
	articles := []models.Article{{ID: 1, Title: "anything", Content: "text"}}
	assert.Empty(t, RankByKeyword("", articles, 5))
	assert.Empty(t, RankByKeyword("!!!", articles, 5))
}

func TestRankByKeyword_ScoreCappedAtOne(t *testing.T) {
	articles := []models.Article{
		{ID: 1, Title: "refund refund refund", Content: "refund refund"},
	}

	// 重复命中不加分，得分上限为1
	results := RankByKeyword("refund", articles, 5)
	assert.Len(t, results, 1)
	assert.LessOrEqual(t, results[0].Similarity, 1.0)
}
