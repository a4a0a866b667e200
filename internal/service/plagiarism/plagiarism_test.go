package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/service/extract"
	"github.com/ashwinyue/code-mentor/internal/testutil"
)

// ========== 测试替身 ==========

type mockStore struct {
	objects map[string][]byte
}

func (m *mockStore) Get(_ context.Context, bucket, object string) ([]byte, error) {
	data, ok := m.objects[bucket+"/"+object]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *mockStore) Put(_ context.Context, bucket, object string, _ []byte, _ string) (string, error) {
	return bucket + "/" + object, nil
}

// mockEmbedder 按代码内容中出现的标记词返回固定向量
type mockEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (m *mockEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		var vec []float64
		for marker, v := range m.vectors {
			if strings.Contains(text, marker) {
				vec = v
				break
			}
		}
		if vec == nil {
			vec = []float64{1, 0, 0}
		}
		out = append(out, vec)
	}
	return out, nil
}

type mockLister struct {
	subs []*model.Submission
}

func (m *mockLister) ListByAssignment(_ int, ids []int64) ([]*model.Submission, error) {
	if ids == nil {
		return m.subs, nil
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*model.Submission
	for _, sub := range m.subs {
		if want[sub.SubmissionID] {
			out = append(out, sub)
		}
	}
	return out, nil
}

type mockWriter struct {
	batches [][]*model.PlagiarismDetection
}

func (m *mockWriter) CreateBatch(detections []*model.PlagiarismDetection) error {
	m.batches = append(m.batches, detections)
	return nil
}

type mockLogger struct {
	entries []string
}

func (m *mockLogger) Append(submissionID int64, step, status, _ string, _ map[string]interface{}) error {
	m.entries = append(m.entries, fmt.Sprintf("%d:%s:%s", submissionID, step, status))
	return nil
}

func buildZip(t *testing.T, name, content string) []byte {
	return testutil.BuildZipFile(t, name, content)
}

func newTestDetector(store *mockStore, emb *mockEmbedder, lister *mockLister, writer *mockWriter, logger *mockLogger, threshold float64) *Detector {
	return NewDetector(store, extract.NewExtractor(nil), emb, lister, writer, logger, threshold)
}

func submission(id int64, path string) *model.Submission {
	return &model.Submission{SubmissionID: id, AssignmentID: 1, ProjectPath: path}
}

// ========== 相似度计算 ==========

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := []float64{0.3, 0.7, 0.1}
	b := []float64{0.5, 0.2, 0.9}
	if Cosine(a, b) != Cosine(b, a) {
		t.Error("Cosine 应该满足对称性")
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "int x = 1", "int x = 1", 1.0},
		{"disjoint", "foo bar", "baz qux", 0},
		{"both empty", "", "", 0},
		{"one empty", "foo", "", 0},
		{"half overlap", "a b c d", "c d e f", 2.0 / 6.0},
		{"whitespace normalized", "a  b\n\tc", "a b c", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard() = %v, want %v", got, tt.want)
			}
			// 对称性
			if Jaccard(tt.a, tt.b) != Jaccard(tt.b, tt.a) {
				t.Error("Jaccard 应该满足对称性")
			}
		})
	}
}

// ========== 检测流程 ==========

func TestDetectIdenticalCodeSuspicious(t *testing.T) {
	code := "class alpha { void Run() {} }"
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", code),
		"projects/b.zip": buildZip(t, "Main.cs", code),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{"alpha": {0.2, 0.8, 0.5}}}
	writer := &mockWriter{}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
	}}

	d := newTestDetector(store, emb, lister, writer, &mockLogger{}, 0.85)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d, want 1", len(flagged))
	}

	det := flagged[0]
	if det.Status != model.DetectionStatusSuspicious {
		t.Errorf("Status = %q, want suspicious", det.Status)
	}
	if det.SubmissionID1 != 1 || det.SubmissionID2 != 2 {
		t.Errorf("pair = (%d, %d), want (1, 2)", det.SubmissionID1, det.SubmissionID2)
	}
	if math.Abs(det.SemanticSimilarity-100) > 0.01 {
		t.Errorf("SemanticSimilarity = %v, want ≈100", det.SemanticSimilarity)
	}
	if math.Abs(det.StructuralSimilarity-100) > 0.01 {
		t.Errorf("StructuralSimilarity = %v, want ≈100", det.StructuralSimilarity)
	}
	if len(writer.batches) != 1 {
		t.Errorf("持久化批次 = %d, want 1", len(writer.batches))
	}
}

func TestDetectReviewNeededTier(t *testing.T) {
	// cos = 0.9：达到 0.85 阈值但未超过 0.95
	sin := math.Sqrt(1 - 0.81)
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", "class alpha {}"),
		"projects/b.zip": buildZip(t, "Main.cs", "class beta {}"),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0},
		"beta":  {0.9, sin},
	}}
	writer := &mockWriter{}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
	}}

	d := newTestDetector(store, emb, lister, writer, &mockLogger{}, 0.85)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d, want 1", len(flagged))
	}
	if flagged[0].Status != model.DetectionStatusReviewNeeded {
		t.Errorf("Status = %q, want review_needed", flagged[0].Status)
	}
	if math.Abs(flagged[0].SemanticSimilarity-90) > 0.5 {
		t.Errorf("SemanticSimilarity = %v, want ≈90", flagged[0].SemanticSimilarity)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	d := newTestDetector(&mockStore{}, &mockEmbedder{}, &mockLister{}, &mockWriter{}, &mockLogger{}, DefaultThreshold)
	tests := []struct {
		name     string
		semantic float64
		want     model.DetectionStatus
		flagged  bool
	}{
		{"exactly at threshold", 0.85, model.DetectionStatusReviewNeeded, true},
		{"just below threshold", math.Nextafter(0.85, 0), "", false},
		{"exactly at suspicious cutoff", 0.95, model.DetectionStatusReviewNeeded, true},
		{"just above suspicious cutoff", math.Nextafter(0.95, 1), model.DetectionStatusSuspicious, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := d.classify(tt.semantic)
			if ok != tt.flagged {
				t.Fatalf("classify(%v) flagged = %v, want %v", tt.semantic, ok, tt.flagged)
			}
			if status != tt.want {
				t.Errorf("classify(%v) = %q, want %q", tt.semantic, status, tt.want)
			}
		})
	}
}

func TestDetectFlagsAtExactThreshold(t *testing.T) {
	// {3,4} 与 {5,0} 的余弦恰好等于 15/25 = 0.6，与阈值字面量逐位相等
	va, vb := []float64{3, 4}, []float64{5, 0}
	if got := Cosine(va, vb); got != 0.6 {
		t.Fatalf("Cosine() = %v, want exactly 0.6", got)
	}

	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", "class alpha {}"),
		"projects/b.zip": buildZip(t, "Main.cs", "class beta {}"),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{
		"alpha": va,
		"beta":  vb,
	}}
	writer := &mockWriter{}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
	}}

	d := newTestDetector(store, emb, lister, writer, &mockLogger{}, 0.6)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d, want 1: similarity equal to the threshold must flag", len(flagged))
	}
	if flagged[0].Status != model.DetectionStatusReviewNeeded {
		t.Errorf("Status = %q, want review_needed", flagged[0].Status)
	}
	if flagged[0].SemanticSimilarity != 60 {
		t.Errorf("SemanticSimilarity = %v, want 60", flagged[0].SemanticSimilarity)
	}
}

func TestDetectBelowThresholdDiscarded(t *testing.T) {
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", "class alpha {}"),
		"projects/b.zip": buildZip(t, "Main.cs", "class beta {}"),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}
	writer := &mockWriter{}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
	}}

	d := newTestDetector(store, emb, lister, writer, &mockLogger{}, 0.85)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 0 {
		t.Errorf("flagged = %d, want 0", len(flagged))
	}
	// 未达阈值的组对不落库
	if len(writer.batches) != 0 {
		t.Errorf("持久化批次 = %d, want 0", len(writer.batches))
	}
}

func TestDetectSkipsBrokenSubmission(t *testing.T) {
	code := "class alpha { void Run() {} }"
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", code),
		"projects/b.zip": []byte("这不是压缩包"),
		"projects/c.zip": buildZip(t, "Main.cs", code),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{"alpha": {0.2, 0.8}}}
	writer := &mockWriter{}
	logger := &mockLogger{}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
		submission(3, "projects/c.zip"),
	}}

	d := newTestDetector(store, emb, lister, writer, logger, 0.85)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d, want 1", len(flagged))
	}
	if flagged[0].SubmissionID1 != 1 || flagged[0].SubmissionID2 != 3 {
		t.Errorf("pair = (%d, %d), want (1, 3)", flagged[0].SubmissionID1, flagged[0].SubmissionID2)
	}
	if len(logger.entries) != 1 || !strings.Contains(logger.entries[0], "2:plagiarism_extract:failed") {
		t.Errorf("应记录提交 2 的提取失败日志, got %v", logger.entries)
	}
}

func TestDetectFewerThanTwoExtractable(t *testing.T) {
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", "class alpha {}"),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{"alpha": {1, 0}}}
	lister := &mockLister{subs: []*model.Submission{submission(1, "projects/a.zip")}}

	d := newTestDetector(store, emb, lister, &mockWriter{}, &mockLogger{}, 0.85)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if flagged != nil {
		t.Errorf("flagged = %v, want nil", flagged)
	}
	if emb.calls != 0 {
		t.Errorf("不足两份代码时不应调用嵌入服务, calls = %d", emb.calls)
	}
}

func TestDetectPairOrderIndependentOfListing(t *testing.T) {
	code := "class alpha {}"
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", code),
		"projects/b.zip": buildZip(t, "Main.cs", code),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{"alpha": {0.4, 0.6}}}
	// 列表顺序与 ID 顺序相反
	lister := &mockLister{subs: []*model.Submission{
		submission(9, "projects/b.zip"),
		submission(3, "projects/a.zip"),
	}}

	d := newTestDetector(store, emb, lister, &mockWriter{}, &mockLogger{}, 0.85)
	flagged, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d, want 1", len(flagged))
	}
	if flagged[0].SubmissionID1 != 3 || flagged[0].SubmissionID2 != 9 {
		t.Errorf("pair = (%d, %d), want (3, 9)", flagged[0].SubmissionID1, flagged[0].SubmissionID2)
	}
}

func TestDetectIdempotentAcrossRuns(t *testing.T) {
	code := "class alpha {}"
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", code),
		"projects/b.zip": buildZip(t, "Main.cs", code),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{"alpha": {0.4, 0.6}}}
	writer := &mockWriter{}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
	}}

	d := newTestDetector(store, emb, lister, writer, &mockLogger{}, 0.85)
	first, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("first Detect() error = %v", err)
	}
	second, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("second Detect() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("两轮检测组对数不同: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SubmissionID1 != second[i].SubmissionID1 ||
			first[i].SubmissionID2 != second[i].SubmissionID2 ||
			first[i].Status != second[i].Status {
			t.Errorf("第 %d 对结果不一致: %+v vs %+v", i, first[i], second[i])
		}
	}
	// 每轮都落库，不做跨轮去重
	if len(writer.batches) != 2 {
		t.Errorf("持久化批次 = %d, want 2", len(writer.batches))
	}
}

func TestDetectNoEmbedder(t *testing.T) {
	d := newTestDetector(&mockStore{}, nil, &mockLister{}, &mockWriter{}, &mockLogger{}, 0.85)
	d.embedder = nil
	if _, err := d.Detect(context.Background(), 1, nil); err == nil {
		t.Error("缺少嵌入服务时应返回错误")
	}
}

func TestDetectEmbedFailure(t *testing.T) {
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", "class alpha {}"),
		"projects/b.zip": buildZip(t, "Main.cs", "class beta {}"),
	}}
	emb := &mockEmbedder{err: errors.New("embedding service down")}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
	}}

	d := newTestDetector(store, emb, lister, &mockWriter{}, &mockLogger{}, 0.85)
	if _, err := d.Detect(context.Background(), 1, nil); err == nil {
		t.Error("嵌入服务失败时应返回错误")
	}
}

func TestDetectSubsetFilter(t *testing.T) {
	code := "class alpha {}"
	store := &mockStore{objects: map[string][]byte{
		"projects/a.zip": buildZip(t, "Main.cs", code),
		"projects/b.zip": buildZip(t, "Main.cs", code),
		"projects/c.zip": buildZip(t, "Main.cs", code),
	}}
	emb := &mockEmbedder{vectors: map[string][]float64{"alpha": {0.4, 0.6}}}
	lister := &mockLister{subs: []*model.Submission{
		submission(1, "projects/a.zip"),
		submission(2, "projects/b.zip"),
		submission(3, "projects/c.zip"),
	}}

	d := newTestDetector(store, emb, lister, &mockWriter{}, &mockLogger{}, 0.85)
	flagged, err := d.Detect(context.Background(), 1, []int64{1, 3})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d, want 1", len(flagged))
	}
	if flagged[0].SubmissionID1 != 1 || flagged[0].SubmissionID2 != 3 {
		t.Errorf("pair = (%d, %d), want (1, 3)", flagged[0].SubmissionID1, flagged[0].SubmissionID2)
	}
}
