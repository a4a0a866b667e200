// Package service 组装业务服务与 eino 组件
// 参考 eino-examples，使用简单的 newXxx() 函数直接初始化 eino 组件
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/retriever/es8"
	"github.com/cloudwego/eino-ext/components/retriever/es8/search_mode"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/code-mentor/internal/config"
	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service/auth"
	"github.com/ashwinyue/code-mentor/internal/service/document"
	"github.com/ashwinyue/code-mentor/internal/service/extract"
	"github.com/ashwinyue/code-mentor/internal/service/pipeline"
	"github.com/ashwinyue/code-mentor/internal/service/plagiarism"
	"github.com/ashwinyue/code-mentor/internal/service/rag"
	"github.com/ashwinyue/code-mentor/internal/service/scoring"
	"github.com/ashwinyue/code-mentor/internal/service/storage"
	"github.com/ashwinyue/code-mentor/internal/service/video"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Auth       *auth.Service
	Document   *document.Parser
	Pipeline   *pipeline.Orchestrator
	Plagiarism *plagiarism.Detector
	RAG        *rag.Retriever

	// 配置
	Config *config.Config

	// 基础设施
	Store storage.ObjectStore

	// Eino 组件（直接使用 eino 类型，无封装）
	ChatModel model.ChatModel
	Embedder  embedding.Embedder
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 创建 ChatModel（缺失时评分走降级路径）
	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
	}

	// 创建 Embedding 器
	embedder := newEmbedder(ctx, cfg)

	// 创建 ES8 检索器（可选的语义检索路径）
	var semantic retriever.Retriever
	if embedder != nil {
		if r := newES8Retriever(ctx, cfg, embedder); r != nil {
			semantic = r
		}
	}

	// 历史评估数据集
	corpus := rag.LoadCorpus(cfg.Eval.CorpusPath)
	log.Printf("Loaded %d historical examples from %s", len(corpus), cfg.Eval.CorpusPath)
	ragRetriever := rag.NewRetriever(corpus, semantic, cfg.Eval.RAGTopK)

	// 对象存储
	store, err := newObjectStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init object store: %w", err)
	}

	llmTimeout := time.Duration(cfg.Eval.LLMTimeout) * time.Second

	// 语音转写（未配置时视频评估按视频缺失处理）
	var transcriber video.Transcriber
	if cfg.AI.Transcribe.BaseURL != "" {
		transcriber = video.NewWhisperClient(&video.WhisperConfig{
			BaseURL:  cfg.AI.Transcribe.BaseURL,
			APIKey:   cfg.AI.Transcribe.APIKey,
			Model:    cfg.AI.Transcribe.Model,
			Language: cfg.AI.Transcribe.Language,
			Timeout:  time.Duration(cfg.AI.Transcribe.Timeout) * time.Second,
		})
	}
	analyzer := video.NewAnalyzer(store, transcriber, chatModel, llmTimeout)

	extractor := extract.NewExtractor(cfg.Eval.CodeExtensions)
	scorer := scoring.NewScorer(chatModel, ragRetriever, llmTimeout)

	var locker pipeline.Locker
	if redisClient != nil {
		locker = pipeline.NewRedisLocker(redisClient)
	}

	orchestrator := pipeline.NewOrchestrator(
		store,
		extractor,
		scorer,
		analyzer,
		repos.Submission,
		repos.Grade,
		repos.Assignment,
		repos.Section,
		repos.Log,
		locker,
		time.Duration(cfg.Eval.LockTTL)*time.Second,
	)

	detector := plagiarism.NewDetector(
		store,
		extractor,
		embedder,
		repos.Submission,
		repos.Plagiarism,
		repos.Log,
		cfg.Eval.SimilarityThreshold,
	)

	return &Services{
		Auth:       auth.NewService(repos.Instructor),
		Document:   document.NewParser(),
		Pipeline:   orchestrator,
		Plagiarism: detector,
		RAG:        ragRetriever,

		Config: cfg,
		Store:  store,

		ChatModel: chatModel,
		Embedder:  embedder,
	}, nil
}

// newChatModel 创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "alibaba", "qwen", "dashscope":
		apiKey = aiCfg.Alibaba.AccessKeySecret
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		modelName = aiCfg.Alibaba.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) embedding.Embedder {
	embCfg := cfg.AI.Embedding

	switch embCfg.Provider {
	case "alibaba", "qwen", "dashscope", "", "openai":
	default:
		log.Printf("Warning: unsupported embedding provider: %s", embCfg.Provider)
		return nil
	}

	if embCfg.APIKey == "" {
		log.Printf("Warning: embedding api_key is empty, plagiarism detection disabled")
		return nil
	}

	modelName := embCfg.Model
	if modelName == "" {
		modelName = "text-embedding-v3"
	}

	embConfig := &dashscope.EmbeddingConfig{
		APIKey: embCfg.APIKey,
		Model:  modelName,
	}
	if embCfg.Timeout > 0 {
		embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
	}
	if embCfg.Dimensions > 0 {
		embConfig.Dimensions = &embCfg.Dimensions
	}

	embedder, err := dashscope.NewEmbedder(ctx, embConfig)
	if err != nil {
		log.Printf("Warning: failed to create embedder: %v", err)
		return nil
	}
	return embedder
}

// newES8Retriever 创建 ES8 检索器
func newES8Retriever(ctx context.Context, cfg *config.Config, embedder embedding.Embedder) *es8.Retriever {
	esCfg := cfg.Elastic

	if esCfg.Host == "" {
		return nil
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esCfg.Host},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
	if err != nil {
		log.Printf("Warning: failed to create es client: %v", err)
		return nil
	}

	indexName := esCfg.IndexPrefix + "_examples"

	r, err := es8.NewRetriever(ctx, &es8.RetrieverConfig{
		Client:     esClient,
		Index:      indexName,
		TopK:       cfg.Eval.RAGTopK,
		SearchMode: search_mode.SearchModeDenseVectorSimilarity(search_mode.DenseVectorSimilarityTypeCosineSimilarity, "code_vector"),
		Embedding:  embedder,
	})
	if err != nil {
		log.Printf("Warning: failed to create retriever: %v", err)
		return nil
	}
	return r
}

// newObjectStore 创建对象存储
func newObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	stCfg := cfg.Storage
	buckets := []string{stCfg.SubmissionsBucket, stCfg.VideosBucket, stCfg.DocumentsBucket}

	switch stCfg.Type {
	case "minio", "":
		return storage.NewMinIOStore(&storage.MinIOConfig{
			Endpoint:  stCfg.Endpoint,
			AccessKey: stCfg.AccessKey,
			SecretKey: stCfg.SecretKey,
			UseSSL:    stCfg.UseSSL,
			Buckets:   buckets,
		})
	case "local":
		return storage.NewLocalStore(stCfg.LocalBasePath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", stCfg.Type)
	}
}
