// Package pipeline 实现提交评估的编排
// 生命周期：uploaded → evaluating → evaluated | failed
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service/extract"
	"github.com/ashwinyue/code-mentor/internal/service/scoring"
	"github.com/ashwinyue/code-mentor/internal/service/storage"
	"github.com/ashwinyue/code-mentor/internal/service/video"
)

var (
	// ErrEvaluationInProgress 同一提交的评估已被其他请求触发
	ErrEvaluationInProgress = errors.New("该提交正在评估中")
	// ErrSubmissionNotFound 提交记录不存在，属于触发方的前置条件错误
	ErrSubmissionNotFound = errors.New("提交不存在")
)

const (
	// 压缩包损坏或无代码文件时替代评分输入的占位代码
	noCodePlaceholder = "// No source code found in submission archive"
	extractErrorCode  = "// Error extracting code from submission"

	// 视频扣分时附加到理解与功能反馈的固定说明
	penaltyNote = " [Score reduced: explanation video missing or not relevant to the assignment.]"

	generalComments = "Evaluated automatically by AI"

	defaultLockTTL = 10 * time.Minute
)

// ========== 协作方契约 ==========

type submissionStore interface {
	GetByID(id int64) (*model.Submission, error)
	ClaimForEvaluation(id int64) error
	UpdateStatus(id int64, status model.SubmissionStatus) error
}

type gradeWriter interface {
	CreateWithFeedback(grade *model.Grade, feedback *model.Feedback) error
}

type assignmentGetter interface {
	GetByID(id int) (*model.Assignment, error)
}

type groupCounter interface {
	CountGroupMembers(sectionID string, groupNumber int) (int64, error)
}

type stepLogger interface {
	Append(submissionID int64, step, status, message string, details map[string]interface{}) error
}

type rubricScorer interface {
	Evaluate(ctx context.Context, code, requirements string) *scoring.Result
}

type videoAnalyzer interface {
	Assess(ctx context.Context, videoLocator, requirements string, groupSize int) *video.Assessment
}

// Orchestrator 评估编排器
// 触发调用立即返回，重活在每提交一个的后台 goroutine 中执行；
// 状态 CAS + Redis 锁防止同一提交被并发评估
type Orchestrator struct {
	store     storage.ObjectStore
	extractor *extract.Extractor
	scorer    rubricScorer
	video     videoAnalyzer

	subs        submissionStore
	grades      gradeWriter
	assignments assignmentGetter
	sections    groupCounter
	logs        stepLogger

	locker  Locker
	lockTTL time.Duration

	wg sync.WaitGroup
}

// NewOrchestrator 创建评估编排器
func NewOrchestrator(
	store storage.ObjectStore,
	extractor *extract.Extractor,
	scorer rubricScorer,
	analyzer videoAnalyzer,
	subs submissionStore,
	grades gradeWriter,
	assignments assignmentGetter,
	sections groupCounter,
	logs stepLogger,
	locker Locker,
	lockTTL time.Duration,
) *Orchestrator {
	if locker == nil {
		locker = NoopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Orchestrator{
		store:       store,
		extractor:   extractor,
		scorer:      scorer,
		video:       analyzer,
		subs:        subs,
		grades:      grades,
		assignments: assignments,
		sections:    sections,
		logs:        logs,
		locker:      locker,
		lockTTL:     lockTTL,
	}
}

// Evaluate 触发一次提交评估
// 同步完成状态声明（uploaded|failed → evaluating）后立即返回，
// 后续失败只体现在提交状态与日志中，不再返回给触发方
func (o *Orchestrator) Evaluate(ctx context.Context, submissionID int64) error {
	sub, err := o.subs.GetByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("提交 %d: %w", submissionID, ErrSubmissionNotFound)
		}
		return fmt.Errorf("查询提交 %d: %w", submissionID, err)
	}

	ok, err := o.locker.Acquire(ctx, submissionID, o.lockTTL)
	if err != nil {
		return fmt.Errorf("获取评估锁失败: %w", err)
	}
	if !ok {
		return ErrEvaluationInProgress
	}

	if err := o.subs.ClaimForEvaluation(submissionID); err != nil {
		o.locker.Release(ctx, submissionID)
		if errors.Is(err, repository.ErrStatusConflict) {
			return ErrEvaluationInProgress
		}
		return err
	}

	o.logStep(submissionID, "evaluation", model.LogStatusStarted, "Evaluation triggered", nil)

	o.wg.Add(1)
	go func() {
		// 与触发请求的上下文解耦，请求结束不中断评估
		ctx := context.Background()
		defer o.wg.Done()
		defer o.locker.Release(ctx, submissionID)
		o.run(ctx, sub)
	}()
	return nil
}

// Wait 等待所有在途评估结束，用于进程优雅退出
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run 执行一次完整评估，只通过提交状态与日志对外暴露结果
func (o *Orchestrator) run(ctx context.Context, sub *model.Submission) {
	requirements := o.loadRequirements(sub)
	code := o.fetchCode(ctx, sub)

	result := o.scorer.Evaluate(ctx, code, requirements)
	o.logStep(sub.SubmissionID, "llm_scoring", model.LogStatusCompleted, "Rubric scoring completed", map[string]interface{}{
		"total":    result.Total(),
		"fallback": result.Fallback,
	})

	assessment := o.assessVideo(ctx, sub, requirements)
	ApplyPenalty(result, assessment.Penalty)

	grade := &model.Grade{
		SubmissionID:          sub.SubmissionID,
		StudentID:             sub.SubmittedBy,
		AIComprehensionScore:  result.ComprehensionScore,
		AIDesignScore:         result.DesignScore,
		AIImplementationScore: result.ImplementationScore,
		AIFunctionalityScore:  result.FunctionalityScore,
		AITotalScore:          result.Total(),
		Status:                model.GradeStatusAutoGraded,
	}
	feedback := &model.Feedback{
		SubmissionID:           sub.SubmissionID,
		ComprehensionComments:  result.ComprehensionFeedback,
		DesignComments:         result.DesignFeedback,
		ImplementationComments: result.ImplementationFeedback,
		FunctionalityComments:  result.FunctionalityFeedback,
		GeneralComments:        generalComments,
	}

	if err := o.grades.CreateWithFeedback(grade, feedback); err != nil {
		log.Printf("submission %d: persist grade failed: %v", sub.SubmissionID, err)
		o.logStep(sub.SubmissionID, "persistence", model.LogStatusFailed, err.Error(), nil)
		o.markStatus(sub.SubmissionID, model.SubmissionStatusFailed)
		return
	}

	o.markStatus(sub.SubmissionID, model.SubmissionStatusEvaluated)
	o.logStep(sub.SubmissionID, "evaluation", model.LogStatusCompleted, "Evaluation completed", map[string]interface{}{
		"grade_id":    grade.GradeID,
		"total_score": grade.AITotalScore,
	})
}

// loadRequirements 加载作业要求，缺失时降级为空文本
func (o *Orchestrator) loadRequirements(sub *model.Submission) string {
	assignment, err := o.assignments.GetByID(sub.AssignmentID)
	if err != nil {
		o.logStep(sub.SubmissionID, "load_assignment", model.LogStatusFailed, err.Error(), nil)
		return ""
	}
	return assignment.Requirements
}

// fetchCode 下载并解压提交代码，任何失败都替换为占位代码而非中断
func (o *Orchestrator) fetchCode(ctx context.Context, sub *model.Submission) string {
	bucket, object, err := storage.SplitLocator(sub.ProjectPath)
	if err != nil {
		o.logStep(sub.SubmissionID, "code_extraction", model.LogStatusFailed, err.Error(), nil)
		return extractErrorCode
	}
	data, err := o.store.Get(ctx, bucket, object)
	if err != nil {
		o.logStep(sub.SubmissionID, "code_extraction", model.LogStatusFailed, err.Error(), nil)
		return extractErrorCode
	}
	code, err := o.extractor.FromZip(data)
	if err != nil {
		o.logStep(sub.SubmissionID, "code_extraction", model.LogStatusFailed, err.Error(), nil)
		return noCodePlaceholder
	}
	o.logStep(sub.SubmissionID, "code_extraction", model.LogStatusCompleted, "Code extracted", map[string]interface{}{
		"characters": len(code),
	})
	return code
}

// assessVideo 评估讲解视频；评估器未配置时按视频缺失处理
func (o *Orchestrator) assessVideo(ctx context.Context, sub *model.Submission, requirements string) *video.Assessment {
	if o.video == nil {
		if sub.VideoURL == "" {
			return &video.Assessment{Penalty: video.PenaltyMax, Reason: "missing video"}
		}
		return &video.Assessment{}
	}

	groupSize := 1
	if o.sections != nil {
		if n, err := o.sections.CountGroupMembers(sub.SectionID, sub.GroupNumber); err == nil && n > 1 {
			groupSize = int(n)
		}
	}

	assessment := o.video.Assess(ctx, sub.VideoURL, requirements, groupSize)
	o.logStep(sub.SubmissionID, "video_analysis", model.LogStatusCompleted, "Video analysis completed", map[string]interface{}{
		"penalty": assessment.Penalty,
		"reason":  assessment.Reason,
	})
	return assessment
}

func (o *Orchestrator) markStatus(submissionID int64, status model.SubmissionStatus) {
	if err := o.subs.UpdateStatus(submissionID, status); err != nil {
		log.Printf("submission %d: update status to %s failed: %v", submissionID, status, err)
	}
}

func (o *Orchestrator) logStep(submissionID int64, step, status, message string, details map[string]interface{}) {
	if o.logs == nil {
		return
	}
	if err := o.logs.Append(submissionID, step, status, message, details); err != nil {
		log.Printf("submission %d: append log %s/%s failed: %v", submissionID, step, status, err)
	}
}

// ApplyPenalty 将视频扣分并入评分结果
// penalty > 0 时理解分与功能分各减 min(1.0, 原分)，下限 0，
// 并在对应反馈后追加固定说明；设计分与实现分不受影响
func ApplyPenalty(result *scoring.Result, penalty float64) {
	if penalty <= 0 {
		return
	}
	result.ComprehensionScore = round2(result.ComprehensionScore - math.Min(1.0, result.ComprehensionScore))
	result.FunctionalityScore = round2(result.FunctionalityScore - math.Min(1.0, result.FunctionalityScore))
	result.ComprehensionFeedback += penaltyNote
	result.FunctionalityFeedback += penaltyNote
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
