package video

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/code-mentor/internal/service/llmjson"
	"github.com/ashwinyue/code-mentor/internal/service/storage"
)

const (
	// PenaltyMax 视频缺失或不相关时的最大扣分
	PenaltyMax = 2.0

	// 转写文本超过该长度才做相关性判断
	minTranscriptLen = 50

	// 相关性判断的最低置信度
	minConfidence = 0.6
)

const relevancePrompt = `You are checking whether a student's video explanation matches their assignment.

Assignment requirements:
%s

Video transcript:
%s

Respond ONLY with strict JSON:
{"is_relevant": true, "confidence": 0.9, "reason": "short explanation"}`

// Relevance 相关性判断结果
type Relevance struct {
	IsRelevant bool    `json:"is_relevant"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Assessment 视频评估结果
// Penalty 为 0 或 PenaltyMax；Speakers 仅作参与度报告
type Assessment struct {
	Penalty    float64       `json:"penalty"`
	Reason     string        `json:"reason,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Duration   float64       `json:"duration,omitempty"`
	Relevance  *Relevance    `json:"relevance,omitempty"`
	Speakers   []SpeakerStat `json:"speakers,omitempty"`
}

// Analyzer 视频评估器
// 仅依赖 Generate/Stream，不绑定工具
type Analyzer struct {
	store       storage.ObjectStore
	transcriber Transcriber
	chatModel   model.BaseChatModel
	llmTimeout  time.Duration
}

// NewAnalyzer 创建视频评估器
func NewAnalyzer(store storage.ObjectStore, transcriber Transcriber, chatModel model.BaseChatModel, llmTimeout time.Duration) *Analyzer {
	if llmTimeout <= 0 {
		llmTimeout = 2 * time.Minute
	}
	return &Analyzer{store: store, transcriber: transcriber, chatModel: chatModel, llmTimeout: llmTimeout}
}

// Assess 评估提交的演示视频并计算扣分
//
// 视频缺失 → 扣满分；视频存在但不相关或置信度不足 → 扣满分；
// 下载/转写/相关性判断过程中的任何失败 → 不扣分、记录原因，
// 评估流水线继续进行，绝不因视频环节中断
func (a *Analyzer) Assess(ctx context.Context, videoLocator, requirements string, groupSize int) *Assessment {
	if videoLocator == "" {
		return &Assessment{Penalty: PenaltyMax, Reason: "missing video"}
	}

	transcription, err := a.fetchAndTranscribe(ctx, videoLocator)
	if err != nil {
		log.Printf("video analysis failed, continuing without penalty: %v", err)
		return &Assessment{Penalty: 0, Reason: fmt.Sprintf("video analysis failed: %v", err)}
	}

	result := &Assessment{
		Transcript: transcription.Text,
		Duration:   transcription.Duration,
	}

	if groupSize > 1 {
		result.Speakers = DetectSpeakers(transcription.Segments, transcription.Duration)
	}

	if len(transcription.Text) <= minTranscriptLen {
		result.Reason = "transcript too short for relevance check"
		return result
	}

	relevance, err := a.checkRelevance(ctx, transcription.Text, requirements)
	if err != nil {
		log.Printf("relevance check failed, continuing without penalty: %v", err)
		result.Reason = fmt.Sprintf("relevance check failed: %v", err)
		return result
	}
	result.Relevance = relevance

	if !relevance.IsRelevant || relevance.Confidence < minConfidence {
		result.Penalty = PenaltyMax
		result.Reason = "video not relevant"
	}
	return result
}

// fetchAndTranscribe 从对象存储下载视频并转写
func (a *Analyzer) fetchAndTranscribe(ctx context.Context, locator string) (*Transcription, error) {
	if a.store == nil || a.transcriber == nil {
		return nil, fmt.Errorf("video analysis not configured")
	}

	bucket, object, err := storage.SplitLocator(locator)
	if err != nil {
		return nil, err
	}

	data, err := a.store.Get(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}

	return a.transcriber.Transcribe(ctx, data, path.Base(object))
}

// checkRelevance 用 LLM 判断转写内容与作业需求是否相关
func (a *Analyzer) checkRelevance(ctx context.Context, transcript, requirements string) (*Relevance, error) {
	if a.chatModel == nil {
		return nil, fmt.Errorf("no chat model configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	prompt := fmt.Sprintf(relevancePrompt, truncate(requirements, 500), truncate(transcript, 3000))
	resp, err := a.chatModel.Generate(callCtx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("relevance LLM call: %w", err)
	}

	var rel Relevance
	if !llmjson.Unmarshal(resp.Content, &rel) {
		return nil, fmt.Errorf("unparsable relevance response")
	}
	return &rel, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
