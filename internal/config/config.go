package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Elastic  ElasticConfig
	Storage  StorageConfig
	AI       AIConfig
	Eval     EvalConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ElasticConfig Elasticsearch配置（语义检索，可选）
type ElasticConfig struct {
	Host        string
	Username    string
	Password    string
	IndexPrefix string
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	Type              string // minio 或 local
	Endpoint          string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	SubmissionsBucket string
	VideosBucket      string
	DocumentsBucket   string
	LocalBasePath     string // local 存储根目录
}

// AIConfig AI配置
type AIConfig struct {
	Provider   string
	OpenAI     OpenAIConfig
	Alibaba    AlibabaConfig
	DeepSeek   DeepSeekConfig
	Embedding  EmbeddingConfig
	Transcribe TranscribeConfig
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// AlibabaConfig 阿里云配置
type AlibabaConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	Region          string
	Model           string
	Timeout         int
}

// DeepSeekConfig DeepSeek配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// EmbeddingConfig Embedding配置
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    int
	Dimensions int
}

// TranscribeConfig 语音转写服务配置（whisper 兼容接口）
type TranscribeConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  int
}

// EvalConfig 评估流水线配置
type EvalConfig struct {
	LLMTimeout          int      // LLM 调用超时（秒）
	SimilarityThreshold float64  // 抄袭判定阈值（0-1）
	RAGTopK             int      // RAG 检索数量
	CorpusPath          string   // 历史评估数据集路径（JSONL）
	CodeExtensions      []string // 代码文件扩展名白名单
	LockTTL             int      // 评估锁租期（秒）
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("CODE_MENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "code-mentor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "code_mentor")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Elastic（为空时语义检索退化为词法检索）
	v.SetDefault("elastic.host", "")
	v.SetDefault("elastic.indexPrefix", "code_mentor")

	// Storage
	v.SetDefault("storage.type", "minio")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKey", "minioadmin")
	v.SetDefault("storage.secretKey", "minioadmin123")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.submissionsBucket", "submissions")
	v.SetDefault("storage.videosBucket", "videos")
	v.SetDefault("storage.documentsBucket", "documents")
	v.SetDefault("storage.localBasePath", "./data/files")

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.transcribe.baseUrl", "http://localhost:9300")
	v.SetDefault("ai.transcribe.model", "whisper-1")
	v.SetDefault("ai.transcribe.language", "es")
	v.SetDefault("ai.transcribe.timeout", 300)

	// Eval
	v.SetDefault("eval.llmTimeout", 120)
	v.SetDefault("eval.similarityThreshold", 0.85)
	v.SetDefault("eval.ragTopK", 5)
	v.SetDefault("eval.corpusPath", "./data/dataset.jsonl")
	v.SetDefault("eval.codeExtensions", []string{".cs", ".py", ".java", ".js", ".ts", ".cpp", ".c", ".h", ".txt"})
	v.SetDefault("eval.lockTTL", 900)
}
