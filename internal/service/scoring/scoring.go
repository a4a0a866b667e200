// Package scoring 提供基于 LLM 的代码评分
package scoring

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/code-mentor/internal/service/llmjson"
	"github.com/ashwinyue/code-mentor/internal/service/rag"
)

const (
	// MaxCriterionScore 每项评分上限
	MaxCriterionScore = 5.0
	// 模型按 0-25 答题时的换算基数
	rawScaleMax = 25.0

	defaultScore = 3.0

	defaultLLMTimeout = 120 * time.Second
)

// Result 一次评分的结构化结果
// 四项子分均在 0-5 区间，Fallback 标记结果是否来自降级路径
type Result struct {
	ComprehensionScore  float64 `json:"comprehension_score"`
	DesignScore         float64 `json:"design_score"`
	ImplementationScore float64 `json:"implementation_score"`
	FunctionalityScore  float64 `json:"functionality_score"`

	ComprehensionFeedback  string `json:"comprehension_feedback"`
	DesignFeedback         string `json:"design_feedback"`
	ImplementationFeedback string `json:"implementation_feedback"`
	FunctionalityFeedback  string `json:"functionality_feedback"`

	Fallback bool `json:"fallback"`
}

// Total 四项子分之和（0-20，未计视频扣分）
func (r *Result) Total() float64 {
	return round2(r.ComprehensionScore + r.DesignScore + r.ImplementationScore + r.FunctionalityScore)
}

// Scorer 评分器
// 仅依赖 Generate/Stream，不绑定工具
type Scorer struct {
	chatModel model.BaseChatModel
	retriever *rag.Retriever // 可为 nil，评分时省略历史示例
	timeout   time.Duration
}

// NewScorer 创建评分器
func NewScorer(chatModel model.BaseChatModel, retriever *rag.Retriever, timeout time.Duration) *Scorer {
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &Scorer{chatModel: chatModel, retriever: retriever, timeout: timeout}
}

// rawResult 模型原始输出，字段缺失时为 nil
type rawResult struct {
	ComprehensionScore  *float64 `json:"comprehension_score"`
	DesignScore         *float64 `json:"design_score"`
	ImplementationScore *float64 `json:"implementation_score"`
	FunctionalityScore  *float64 `json:"functionality_score"`

	ComprehensionFeedback  *string `json:"comprehension_feedback"`
	DesignFeedback         *string `json:"design_feedback"`
	ImplementationFeedback *string `json:"implementation_feedback"`
	FunctionalityFeedback  *string `json:"functionality_feedback"`
}

// Evaluate 对代码评分
// 服务不可用、响应不含 JSON、解析失败时一律返回降级结果，从不向调用方报错
func (s *Scorer) Evaluate(ctx context.Context, code, requirements string) *Result {
	if s.chatModel == nil {
		log.Printf("scoring: no chat model configured, using fallback scores")
		return FallbackResult()
	}

	var examples []rag.HistoricalExample
	if s.retriever != nil {
		examples = s.retriever.SearchSimilar(ctx, code)
	}
	prompt := BuildPrompt(code, requirements, examples)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.chatModel.Generate(callCtx, []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		log.Printf("scoring: LLM call failed: %v", err)
		return FallbackResult()
	}

	var raw rawResult
	if !llmjson.Unmarshal(resp.Content, &raw) {
		log.Printf("scoring: could not parse model response, using fallback scores")
		return FallbackResult()
	}

	return buildResult(&raw)
}

// buildResult 对原始输出补默认值、换算到 0-5 并保留两位小数
func buildResult(raw *rawResult) *Result {
	return &Result{
		ComprehensionScore:  scaleTo5(raw.ComprehensionScore),
		DesignScore:         scaleTo5(raw.DesignScore),
		ImplementationScore: scaleTo5(raw.ImplementationScore),
		FunctionalityScore:  scaleTo5(raw.FunctionalityScore),

		ComprehensionFeedback:  feedbackOrDefault(raw.ComprehensionFeedback),
		DesignFeedback:         feedbackOrDefault(raw.DesignFeedback),
		ImplementationFeedback: feedbackOrDefault(raw.ImplementationFeedback),
		FunctionalityFeedback:  feedbackOrDefault(raw.FunctionalityFeedback),
	}
}

// scaleTo5 把模型分数换算到 0-5
// 大于 5 视为按 0-25 答题，按比例换算；缺失补默认 3 分
func scaleTo5(v *float64) float64 {
	if v == nil {
		return defaultScore
	}
	score := *v
	if score > MaxCriterionScore {
		return round2(score * MaxCriterionScore / rawScaleMax)
	}
	return round2(score)
}

func feedbackOrDefault(s *string) string {
	if s == nil || *s == "" {
		return "Automatic feedback unavailable for this criterion; manual review recommended."
	}
	return *s
}

// FallbackResult 评分失败时的确定性默认结果
func FallbackResult() *Result {
	return &Result{
		ComprehensionScore:  defaultScore,
		DesignScore:         defaultScore,
		ImplementationScore: defaultScore,
		FunctionalityScore:  defaultScore,

		ComprehensionFeedback:  "The code was received correctly. Manual review is required for a detailed evaluation due to technical limitations in the automatic grading.",
		DesignFeedback:         "A basic structure is present in the code. Review the architecture and separation of responsibilities.",
		ImplementationFeedback: "The implementation is present. Review language conventions to improve readability.",
		FunctionalityFeedback:  "Manual verification is required to confirm full compliance with the functional requirements.",

		Fallback: true,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
