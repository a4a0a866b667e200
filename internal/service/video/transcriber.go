// Package video 提供演示视频的转写与相关性分析
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Segment 转写结果的带时间戳片段
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription 转写结果
type Transcription struct {
	Text     string    `json:"text"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Transcriber 语音转写服务接口
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (*Transcription, error)
}

// WhisperClient whisper 兼容转写服务的 HTTP 客户端
// 调用 OpenAI 风格的 /v1/audio/transcriptions 接口，响应格式 verbose_json
type WhisperClient struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
}

// WhisperConfig whisper 客户端配置
type WhisperConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

// NewWhisperClient 创建转写客户端
func NewWhisperClient(cfg *WhisperConfig) *WhisperClient {
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WhisperClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Transcribe 转写音视频内容
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename string) (*Transcription, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	_ = mw.WriteField("model", c.model)
	_ = mw.WriteField("response_format", "verbose_json")
	if c.language != "" {
		_ = mw.WriteField("language", c.language)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}

	url := c.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, payload)
	}

	var result Transcription
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return &result, nil
}
