package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service/extract"
	"github.com/ashwinyue/code-mentor/internal/service/scoring"
	"github.com/ashwinyue/code-mentor/internal/service/video"
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

type fakeSubs struct {
	mu     sync.Mutex
	subs   map[int64]*model.Submission
	getErr error // 注入查询故障
}

func (f *fakeSubs) GetByID(id int64) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	sub, ok := f.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *sub
	return &clone, nil
}

func (f *fakeSubs) ClaimForEvaluation(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return errors.New("submission not found")
	}
	if sub.Status != model.SubmissionStatusUploaded && sub.Status != model.SubmissionStatusFailed {
		return repository.ErrStatusConflict
	}
	sub.Status = model.SubmissionStatusEvaluating
	return nil
}

func (f *fakeSubs) UpdateStatus(id int64, status model.SubmissionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return errors.New("submission not found")
	}
	sub.Status = status
	return nil
}

func (f *fakeSubs) status(id int64) model.SubmissionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[id].Status
}

type fakeGrades struct {
	mu       sync.Mutex
	grades   []*model.Grade
	feedback []*model.Feedback
	err      error
}

func (f *fakeGrades) CreateWithFeedback(grade *model.Grade, fb *model.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	grade.GradeID = len(f.grades) + 1
	fb.GradeID = grade.GradeID
	f.grades = append(f.grades, grade)
	f.feedback = append(f.feedback, fb)
	return nil
}

type fakeAssignments struct {
	requirements string
	err          error
}

func (f *fakeAssignments) GetByID(id int) (*model.Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Assignment{AssignmentID: id, Requirements: f.requirements}, nil
}

type fakeSections struct {
	members int64
}

func (f *fakeSections) CountGroupMembers(string, int) (int64, error) {
	return f.members, nil
}

type fakeLogs struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeLogs) Append(submissionID int64, step, status, _ string, _ map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, step+":"+status)
	return nil
}

func (f *fakeLogs) has(entry string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// fakeScorer 每次返回预设结果的副本，并记录收到的输入
type fakeScorer struct {
	mu     sync.Mutex
	result scoring.Result
	code   string
	reqs   string
}

func (f *fakeScorer) Evaluate(_ context.Context, code, requirements string) *scoring.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code = code
	f.reqs = requirements
	clone := f.result
	return &clone
}

// fakeAnalyzer 视频缺失给满额扣分，否则按预设返回
type fakeAnalyzer struct {
	penalty   float64
	groupSize int
}

func (f *fakeAnalyzer) Assess(_ context.Context, locator, _ string, groupSize int) *video.Assessment {
	f.groupSize = groupSize
	if locator == "" {
		return &video.Assessment{Penalty: video.PenaltyMax, Reason: "missing video"}
	}
	return &video.Assessment{Penalty: f.penalty}
}

type fakeLocker struct {
	mu       sync.Mutex
	denied   bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context, int64, time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLocker) Release(context.Context, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func buildZip(t *testing.T, name, content string) []byte {
	return testutil.BuildZipFile(t, name, content)
}

type fixture struct {
	orch     *Orchestrator
	subs     *fakeSubs
	grades   *fakeGrades
	logs     *fakeLogs
	scorer   *fakeScorer
	analyzer *fakeAnalyzer
	locker   *fakeLocker
}

func newFixture(t *testing.T, sub *model.Submission, objects map[string][]byte, result scoring.Result) *fixture {
	t.Helper()
	f := &fixture{
		subs:     &fakeSubs{subs: map[int64]*model.Submission{sub.SubmissionID: sub}},
		grades:   &fakeGrades{},
		logs:     &fakeLogs{},
		scorer:   &fakeScorer{result: result},
		analyzer: &fakeAnalyzer{},
		locker:   &fakeLocker{},
	}
	f.orch = NewOrchestrator(
		&mockStore{objects: objects},
		extract.NewExtractor(nil),
		f.scorer,
		f.analyzer,
		f.subs,
		f.grades,
		&fakeAssignments{requirements: "Build a calculator"},
		&fakeSections{members: 1},
		f.logs,
		f.locker,
		time.Minute,
	)
	return f
}

func defaultResult() scoring.Result {
	return scoring.Result{
		ComprehensionScore:     4,
		DesignScore:            3,
		ImplementationScore:    4,
		FunctionalityScore:     4,
		ComprehensionFeedback:  "Good understanding",
		DesignFeedback:         "Clean design",
		ImplementationFeedback: "Well implemented",
		FunctionalityFeedback:  "Works correctly",
	}
}

// ========== 端到端 ==========

// 含一个源文件、无视频的提交：4/3/4/4 评分加视频扣分后应为 3/3/4/3，总分 13
func TestEvaluateEndToEnd(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 1,
		AssignmentID: 10,
		SectionID:    "SEC01",
		GroupNumber:  1,
		SubmittedBy:  "S001",
		ProjectPath:  "projects/demo.zip",
		Status:       model.SubmissionStatusUploaded,
	}
	objects := map[string][]byte{
		"projects/demo.zip": buildZip(t, "main.py", "print('hello')"),
	}

	f := newFixture(t, sub, objects, defaultResult())
	if err := f.orch.Evaluate(context.Background(), 1); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	f.orch.Wait()

	if got := f.subs.status(1); got != model.SubmissionStatusEvaluated {
		t.Errorf("status = %q, want evaluated", got)
	}
	if len(f.grades.grades) != 1 || len(f.grades.feedback) != 1 {
		t.Fatalf("persisted grades=%d feedback=%d, want 1/1", len(f.grades.grades), len(f.grades.feedback))
	}

	grade := f.grades.grades[0]
	if grade.AIComprehensionScore != 3 || grade.AIDesignScore != 3 ||
		grade.AIImplementationScore != 4 || grade.AIFunctionalityScore != 3 {
		t.Errorf("scores = (%v, %v, %v, %v), want (3, 3, 4, 3)",
			grade.AIComprehensionScore, grade.AIDesignScore,
			grade.AIImplementationScore, grade.AIFunctionalityScore)
	}
	if grade.AITotalScore != 13 {
		t.Errorf("AITotalScore = %v, want 13", grade.AITotalScore)
	}
	if grade.StudentID != "S001" {
		t.Errorf("StudentID = %q, want S001", grade.StudentID)
	}

	fb := f.grades.feedback[0]
	if !strings.Contains(fb.ComprehensionComments, penaltyNote) ||
		!strings.Contains(fb.FunctionalityComments, penaltyNote) {
		t.Error("扣分说明应追加到理解与功能反馈")
	}
	if strings.Contains(fb.DesignComments, penaltyNote) {
		t.Error("设计反馈不应包含扣分说明")
	}
	if fb.GeneralComments != generalComments {
		t.Errorf("GeneralComments = %q", fb.GeneralComments)
	}

	if !strings.Contains(f.scorer.code, "// File: main.py") {
		t.Errorf("评分输入缺少文件标记: %q", f.scorer.code)
	}
	if f.scorer.reqs != "Build a calculator" {
		t.Errorf("requirements = %q", f.scorer.reqs)
	}

	if !f.logs.has("evaluation:started") || !f.logs.has("evaluation:completed") {
		t.Errorf("缺少评估起止日志: %v", f.logs.entries)
	}
	if f.locker.released != 1 {
		t.Errorf("锁释放次数 = %d, want 1", f.locker.released)
	}
}

func TestEvaluateRelevantVideoNoPenalty(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 2,
		AssignmentID: 10,
		SectionID:    "SEC01",
		GroupNumber:  3,
		SubmittedBy:  "S002",
		ProjectPath:  "projects/demo.zip",
		VideoURL:     "videos/demo.mp4",
		Status:       model.SubmissionStatusUploaded,
	}
	objects := map[string][]byte{
		"projects/demo.zip": buildZip(t, "main.py", "print('hello')"),
	}

	f := newFixture(t, sub, objects, defaultResult())
	if err := f.orch.Evaluate(context.Background(), 2); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	f.orch.Wait()

	grade := f.grades.grades[0]
	if grade.AIComprehensionScore != 4 || grade.AIFunctionalityScore != 4 {
		t.Errorf("无扣分时子分不应变化: (%v, %v)", grade.AIComprehensionScore, grade.AIFunctionalityScore)
	}
	if grade.AITotalScore != 15 {
		t.Errorf("AITotalScore = %v, want 15", grade.AITotalScore)
	}
	if strings.Contains(f.grades.feedback[0].ComprehensionComments, penaltyNote) {
		t.Error("无扣分时不应追加说明")
	}
}

func TestEvaluateGroupSizePassedToAnalyzer(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 3,
		AssignmentID: 10,
		SectionID:    "SEC01",
		GroupNumber:  2,
		ProjectPath:  "projects/demo.zip",
		VideoURL:     "videos/demo.mp4",
		Status:       model.SubmissionStatusUploaded,
	}
	objects := map[string][]byte{
		"projects/demo.zip": buildZip(t, "main.py", "print('hello')"),
	}

	f := newFixture(t, sub, objects, defaultResult())
	f.orch.sections = &fakeSections{members: 4}
	if err := f.orch.Evaluate(context.Background(), 3); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	f.orch.Wait()

	if f.analyzer.groupSize != 4 {
		t.Errorf("groupSize = %d, want 4", f.analyzer.groupSize)
	}
}

// ========== 触发与状态机 ==========

func TestEvaluateMissingSubmission(t *testing.T) {
	f := newFixture(t, &model.Submission{SubmissionID: 1, Status: model.SubmissionStatusUploaded}, nil, defaultResult())
	err := f.orch.Evaluate(context.Background(), 99)
	if !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("err = %v, want ErrSubmissionNotFound", err)
	}
}

func TestEvaluateLookupFailureIsNotNotFound(t *testing.T) {
	f := newFixture(t, &model.Submission{SubmissionID: 1, Status: model.SubmissionStatusUploaded}, nil, defaultResult())
	f.subs.getErr = errors.New("connection refused")

	err := f.orch.Evaluate(context.Background(), 1)
	if err == nil {
		t.Fatal("Evaluate() should fail when the lookup fails")
	}
	if errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("err = %v, transient lookup failure must not read as a missing submission", err)
	}
}

func TestEvaluateConflictWhileEvaluating(t *testing.T) {
	sub := &model.Submission{SubmissionID: 1, Status: model.SubmissionStatusEvaluating}
	f := newFixture(t, sub, nil, defaultResult())

	err := f.orch.Evaluate(context.Background(), 1)
	if !errors.Is(err, ErrEvaluationInProgress) {
		t.Errorf("err = %v, want ErrEvaluationInProgress", err)
	}
	// CAS 失败要释放已取到的锁
	if f.locker.released != 1 {
		t.Errorf("锁释放次数 = %d, want 1", f.locker.released)
	}
}

func TestEvaluateLockDenied(t *testing.T) {
	sub := &model.Submission{SubmissionID: 1, Status: model.SubmissionStatusUploaded}
	f := newFixture(t, sub, nil, defaultResult())
	f.locker.denied = true

	err := f.orch.Evaluate(context.Background(), 1)
	if !errors.Is(err, ErrEvaluationInProgress) {
		t.Errorf("err = %v, want ErrEvaluationInProgress", err)
	}
	if f.subs.status(1) != model.SubmissionStatusUploaded {
		t.Error("未拿到锁时不应改变提交状态")
	}
}

func TestEvaluateRetriggerAfterFailure(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 1,
		AssignmentID: 10,
		ProjectPath:  "projects/demo.zip",
		VideoURL:     "videos/demo.mp4",
		Status:       model.SubmissionStatusFailed,
	}
	objects := map[string][]byte{
		"projects/demo.zip": buildZip(t, "main.py", "print('hello')"),
	}

	f := newFixture(t, sub, objects, defaultResult())
	if err := f.orch.Evaluate(context.Background(), 1); err != nil {
		t.Fatalf("failed 状态应允许重新触发, err = %v", err)
	}
	f.orch.Wait()

	if got := f.subs.status(1); got != model.SubmissionStatusEvaluated {
		t.Errorf("status = %q, want evaluated", got)
	}
}

func TestEvaluatePersistenceFailureMarksFailed(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 1,
		AssignmentID: 10,
		ProjectPath:  "projects/demo.zip",
		VideoURL:     "videos/demo.mp4",
		Status:       model.SubmissionStatusUploaded,
	}
	objects := map[string][]byte{
		"projects/demo.zip": buildZip(t, "main.py", "print('hello')"),
	}

	f := newFixture(t, sub, objects, defaultResult())
	f.grades.err = errors.New("database is down")

	if err := f.orch.Evaluate(context.Background(), 1); err != nil {
		t.Fatalf("触发调用不应因后台失败报错, err = %v", err)
	}
	f.orch.Wait()

	if got := f.subs.status(1); got != model.SubmissionStatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
	if !f.logs.has("persistence:failed") {
		t.Errorf("缺少持久化失败日志: %v", f.logs.entries)
	}
	if f.locker.released != 1 {
		t.Errorf("失败路径也要释放锁, released = %d", f.locker.released)
	}
}

// ========== 占位代码 ==========

func TestEvaluateNoCodeUsesPlaceholder(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 1,
		AssignmentID: 10,
		ProjectPath:  "projects/empty.zip",
		VideoURL:     "videos/demo.mp4",
		Status:       model.SubmissionStatusUploaded,
	}
	// 压缩包里只有不被识别的文件
	objects := map[string][]byte{
		"projects/empty.zip": buildZip(t, "readme.md", "no code here"),
	}

	f := newFixture(t, sub, objects, defaultResult())
	if err := f.orch.Evaluate(context.Background(), 1); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	f.orch.Wait()

	if f.scorer.code != noCodePlaceholder {
		t.Errorf("评分输入 = %q, want 占位代码", f.scorer.code)
	}
	if got := f.subs.status(1); got != model.SubmissionStatusEvaluated {
		t.Errorf("无代码时评估仍应完成, status = %q", got)
	}
	if !f.logs.has("code_extraction:failed") {
		t.Errorf("缺少提取失败日志: %v", f.logs.entries)
	}
}

func TestEvaluateMissingArchiveUsesPlaceholder(t *testing.T) {
	sub := &model.Submission{
		SubmissionID: 1,
		AssignmentID: 10,
		ProjectPath:  "projects/gone.zip",
		VideoURL:     "videos/demo.mp4",
		Status:       model.SubmissionStatusUploaded,
	}

	f := newFixture(t, sub, map[string][]byte{}, defaultResult())
	if err := f.orch.Evaluate(context.Background(), 1); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	f.orch.Wait()

	if f.scorer.code != extractErrorCode {
		t.Errorf("评分输入 = %q, want 提取失败占位", f.scorer.code)
	}
	if got := f.subs.status(1); got != model.SubmissionStatusEvaluated {
		t.Errorf("status = %q, want evaluated", got)
	}
}

// ========== 扣分规则 ==========

func TestApplyPenalty(t *testing.T) {
	tests := []struct {
		name     string
		penalty  float64
		comp, fn float64
		wantC    float64
		wantF    float64
	}{
		{"full scores", 2, 4, 4, 3, 3},
		{"low scores floor at zero", 2, 0.5, 0.3, 0, 0},
		{"zero scores stay zero", 2, 0, 0, 0, 0},
		{"no penalty", 0, 4, 4, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &scoring.Result{
				ComprehensionScore:    tt.comp,
				FunctionalityScore:    tt.fn,
				DesignScore:           3,
				ImplementationScore:   3,
				ComprehensionFeedback: "ok",
				FunctionalityFeedback: "ok",
				DesignFeedback:        "ok",
			}
			ApplyPenalty(result, tt.penalty)

			if result.ComprehensionScore != tt.wantC {
				t.Errorf("ComprehensionScore = %v, want %v", result.ComprehensionScore, tt.wantC)
			}
			if result.FunctionalityScore != tt.wantF {
				t.Errorf("FunctionalityScore = %v, want %v", result.FunctionalityScore, tt.wantF)
			}
			if result.DesignScore != 3 || result.ImplementationScore != 3 {
				t.Error("设计分与实现分不应受扣分影响")
			}

			appended := strings.Contains(result.ComprehensionFeedback, penaltyNote)
			if tt.penalty > 0 && !appended {
				t.Error("扣分时应追加说明")
			}
			if tt.penalty == 0 && appended {
				t.Error("无扣分时不应追加说明")
			}
			if strings.Contains(result.DesignFeedback, penaltyNote) {
				t.Error("设计反馈不应追加说明")
			}
		})
	}
}
