package plagiarism

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/service/extract"
	"github.com/ashwinyue/code-mentor/internal/service/storage"
)

// DefaultThreshold 语义相似度判定阈值（按小数计，非百分比）
const DefaultThreshold = 0.85

// suspiciousThreshold 超过该值直接标记为 suspicious，否则为 review_needed
const suspiciousThreshold = 0.95

// submissionLister 按作业列出提交记录
type submissionLister interface {
	ListByAssignment(assignmentID int, submissionIDs []int64) ([]*model.Submission, error)
}

// detectionWriter 批量持久化检测结果
type detectionWriter interface {
	CreateBatch(detections []*model.PlagiarismDetection) error
}

// stepLogger 追加评估日志
type stepLogger interface {
	Append(submissionID int64, step, status, message string, details map[string]interface{}) error
}

// Detector 抄袭检测器
// 对同一作业下的所有提交两两比对：嵌入向量余弦相似度（语义）+
// 空白分词集合的 Jaccard 指数（结构），仅持久化达到阈值的组对
type Detector struct {
	store     storage.ObjectStore
	extractor *extract.Extractor
	embedder  embedding.Embedder
	subs      submissionLister
	results   detectionWriter
	logs      stepLogger
	threshold float64
}

// NewDetector 创建抄袭检测器
func NewDetector(store storage.ObjectStore, extractor *extract.Extractor, embedder embedding.Embedder,
	subs submissionLister, results detectionWriter, logs stepLogger, threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		subs:      subs,
		results:   results,
		logs:      logs,
		threshold: threshold,
	}
}

// Detect 对指定作业执行一轮抄袭检测
// submissionIDs 非空时仅比对该子集；返回本轮被标记并已持久化的组对
func (d *Detector) Detect(ctx context.Context, assignmentID int, submissionIDs []int64) ([]*model.PlagiarismDetection, error) {
	if d.embedder == nil {
		return nil, fmt.Errorf("抄袭检测需要嵌入服务，当前未配置")
	}

	submissions, err := d.subs.ListByAssignment(assignmentID, submissionIDs)
	if err != nil {
		return nil, fmt.Errorf("加载提交列表失败: %w", err)
	}
	sortByID(submissions)

	// 提取失败的提交跳过并记录日志，不中断整轮检测
	var ids []int64
	var codes []string
	for _, sub := range submissions {
		code, err := d.extractCode(ctx, sub)
		if err != nil {
			d.logStep(sub.SubmissionID, model.LogStatusFailed, err.Error())
			continue
		}
		ids = append(ids, sub.SubmissionID)
		codes = append(codes, code)
	}
	if len(ids) < 2 {
		return nil, nil
	}

	vectors, err := d.embedder.EmbedStrings(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("代码嵌入失败: %w", err)
	}
	if len(vectors) != len(codes) {
		return nil, fmt.Errorf("嵌入结果数量不符: 期望 %d 实际 %d", len(codes), len(vectors))
	}

	var flagged []*model.PlagiarismDetection
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			semantic := Cosine(vectors[i], vectors[j])
			status, ok := d.classify(semantic)
			if !ok {
				continue
			}
			flagged = append(flagged, &model.PlagiarismDetection{
				AssignmentID:         assignmentID,
				SubmissionID1:        ids[i],
				SubmissionID2:        ids[j],
				SimilarityScore:      round2(semantic * 100),
				SemanticSimilarity:   round2(semantic * 100),
				StructuralSimilarity: round2(Jaccard(codes[i], codes[j]) * 100),
				Status:               status,
			})
		}
	}

	if len(flagged) > 0 {
		if err := d.results.CreateBatch(flagged); err != nil {
			return nil, fmt.Errorf("保存检测结果失败: %w", err)
		}
	}
	return flagged, nil
}

// classify 按语义相似度分档
// 恰好等于 threshold 时标记为 review_needed，恰好等于 0.95 时不升级
func (d *Detector) classify(semantic float64) (model.DetectionStatus, bool) {
	if semantic < d.threshold {
		return "", false
	}
	if semantic > suspiciousThreshold {
		return model.DetectionStatusSuspicious, true
	}
	return model.DetectionStatusReviewNeeded, true
}

// extractCode 下载并解压一份提交的代码
func (d *Detector) extractCode(ctx context.Context, sub *model.Submission) (string, error) {
	bucket, object, err := storage.SplitLocator(sub.ProjectPath)
	if err != nil {
		return "", fmt.Errorf("提交 %d 存储路径无效: %w", sub.SubmissionID, err)
	}
	data, err := d.store.Get(ctx, bucket, object)
	if err != nil {
		return "", fmt.Errorf("提交 %d 下载失败: %w", sub.SubmissionID, err)
	}
	code, err := d.extractor.FromZip(data)
	if err != nil {
		return "", fmt.Errorf("提交 %d 解压失败: %w", sub.SubmissionID, err)
	}
	return code, nil
}

func (d *Detector) logStep(submissionID int64, status, message string) {
	if d.logs == nil {
		return
	}
	_ = d.logs.Append(submissionID, "plagiarism_extract", status, message, nil)
}

// Cosine 余弦相似度，任一向量为零向量时返回 0
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Jaccard 空白分词集合的 Jaccard 指数，并集为空时返回 0
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// 保证结果按提交 ID 有序（ListByAssignment 已排序，此处兜底）
func sortByID(subs []*model.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].SubmissionID < subs[j].SubmissionID
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
