package rag

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
)

// 语言关键字停用词，检索时忽略
var stopWords = map[string]struct{}{
	"using": {}, "public": {}, "private": {}, "class": {}, "void": {},
	"static": {}, "string": {}, "return": {}, "this": {}, "null": {},
	"true": {}, "false": {},
}

// Retriever 历史评估检索器
// 优先使用配置的向量检索器（ES8），失败或未配置时退化为词法检索
type Retriever struct {
	corpus   []HistoricalExample
	semantic retriever.Retriever // 可为 nil
	topK     int
}

// NewRetriever 创建检索器
func NewRetriever(corpus []HistoricalExample, semantic retriever.Retriever, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{corpus: corpus, semantic: semantic, topK: topK}
}

// Stats 返回数据集统计
func (r *Retriever) Stats() Stats {
	return ComputeStats(r.corpus)
}

// SearchSimilar 检索与提交代码相似的历史评估
// 找不到匹配时返回空列表，调用方应省略提示词中的示例段
func (r *Retriever) SearchSimilar(ctx context.Context, code string) []HistoricalExample {
	if r.semantic != nil {
		if results, err := r.searchSemantic(ctx, code); err == nil && len(results) > 0 {
			return results
		} else if err != nil {
			log.Printf("RAG semantic search failed, falling back to lexical: %v", err)
		}
	}
	return r.searchLexical(code)
}

// searchLexical 词法检索：统计提交代码的关键词在示例代码中出现的次数
// 刻意使用子串包含而非词集交集，以容忍标识符前后缀差异
func (r *Retriever) searchLexical(code string) []HistoricalExample {
	if len(r.corpus) == 0 {
		return nil
	}

	keywords := Keywords(code)
	if len(keywords) == 0 {
		return nil
	}

	type scored struct {
		index int
		hits  int
	}
	ranked := make([]scored, 0, len(r.corpus))
	for i, ex := range r.corpus {
		exCode := strings.ToLower(ex.Code)
		hits := 0
		for kw := range keywords {
			if strings.Contains(exCode, kw) {
				hits++
			}
		}
		ranked = append(ranked, scored{index: i, hits: hits})
	}

	// 按命中数降序，命中数相同保持数据集原始顺序
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].hits > ranked[j].hits
	})

	var results []HistoricalExample
	for _, s := range ranked {
		if len(results) >= r.topK || s.hits == 0 {
			break
		}
		results = append(results, r.corpus[s.index])
	}

	if len(results) > 0 {
		log.Printf("RAG: found %d similar historical evaluations", len(results))
	}
	return results
}

// searchSemantic 向量检索（ES8 dense vector）
// 检索结果只携带代码文本，评分元数据从文档 metadata 中恢复
func (r *Retriever) searchSemantic(ctx context.Context, code string) ([]HistoricalExample, error) {
	docs, err := r.semantic.Retrieve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("semantic retrieve: %w", err)
	}

	var results []HistoricalExample
	for _, doc := range docs {
		if len(results) >= r.topK {
			break
		}
		ex := HistoricalExample{Code: doc.Content}
		if doc.MetaData != nil {
			ex.Feedback, _ = doc.MetaData["feedback"].(string)
			ex.TotalScore = metaFloat(doc.MetaData, "total_score")
			ex.Rubric = Rubric{
				Comprehension:  metaFloat(doc.MetaData, "comprehension"),
				Design:         metaFloat(doc.MetaData, "design"),
				Implementation: metaFloat(doc.MetaData, "implementation"),
				Functionality:  metaFloat(doc.MetaData, "functionality"),
			}
		}
		results = append(results, ex)
	}
	return results, nil
}

func metaFloat(meta map[string]interface{}, key string) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Keywords 从代码中提取检索关键词
// 丢弃长度 <= 3 的词和语言关键字停用词
func Keywords(code string) map[string]struct{} {
	normalized := strings.ToLower(code)
	normalized = strings.ReplaceAll(normalized, "\n", " ")
	normalized = strings.ReplaceAll(normalized, "\t", " ")

	keywords := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		if len(word) <= 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords[word] = struct{}{}
	}
	return keywords
}
