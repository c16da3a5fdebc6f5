package retrieval

import (
	"sort"
	"strings"
	"unicode"

	"github.com/supporthub/backend-go/internal/models"
)

// Tokenize 大小写不敏感分词，按非字母数字边界切分
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenSet 去重后的词集
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// RankByKeyword 关键词重合度排序，向量检索不可用时的确定性降级路径
// 得分 = min(1, 命中词数/查询词数)，同分按文章id升序
func RankByKeyword(query string, articles []models.Article, topK int) []RetrievedArticle {
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return []RetrievedArticle{}
	}

	results := make([]RetrievedArticle, 0, len(articles))
	for _, article := range articles {
		articleTokens := tokenSet(article.Title + " " + article.Content + " " + article.Tags)

		matches := 0
		for tok := range queryTokens {
			if _, ok := articleTokens[tok]; ok {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := float64(matches) / float64(len(queryTokens))
		if score > 1.0 {
			score = 1.0
		}
		results = append(results, RetrievedArticle{
			ArticleID:  article.ID,
			Title:      article.Title,
			Similarity: score,
			Source:     SourceKeyword,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity == results[j].Similarity {
			return results[i].ArticleID < results[j].ArticleID
		}
		return results[i].Similarity > results[j].Similarity
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
