package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig 向量后端配置（OpenAI兼容端点）
type EmbeddingConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 单次向量化调用的超时(秒)
}

// RedisConfig Redis配置（向量缓存）
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// 向量缓存条目过期时间(天)
	VectorExpireDays int `yaml:"vector_expire_days"`
}

// MySQLConfig MySQL配置（会话快照持久化）
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Params   string `yaml:"params"` // 额外DSN参数，如 charset=utf8mb4&parseTime=True
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port     int    `yaml:"port"`
	APIToken string `yaml:"api_token"` // 非空时启用Bearer Token鉴权
}

// ScorerConfig 对齐评分器配置
type ScorerConfig struct {
	// Threshold 重缩放余弦相似度阈值，低于该值的要求视为缺口。
	// 默认0.45，属于可调参数，应结合实际语料校准。
	Threshold float64 `yaml:"threshold"`
	// LexicalFallback 向量后端不可用时是否降级为词法重叠匹配
	LexicalFallback bool `yaml:"lexical_fallback"`
}

// OptimizerConfig 优化器配置
type OptimizerConfig struct {
	// PageBudgetLines 一页简历的行预算。默认48行，
	// 约等于US-Letter纸型10.5pt字号下的正文容量。
	PageBudgetLines int `yaml:"page_budget_lines"`
	// WrapWidth 长度估算时的折行宽度(列)
	WrapWidth int `yaml:"wrap_width"`
}

// LLMConfig 可选的LLM辅助抽取配置（OpenAI兼容对话端点）
type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"` // json 或 pretty
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// Config 应用程序配置
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Server    ServerConfig    `yaml:"server"`
	Scorer    ScorerConfig    `yaml:"scorer"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	LLM       LLMConfig       `yaml:"llm"`
	Logger    LoggerConfig    `yaml:"logger"`
}

// LoadConfig 从YAML文件加载配置并应用环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Scorer.Threshold <= 0 || cfg.Scorer.Threshold >= 1 {
		return nil, fmt.Errorf("scorer.threshold 必须在(0,1)区间内，当前值: %v", cfg.Scorer.Threshold)
	}
	if cfg.Optimizer.PageBudgetLines <= 0 {
		return nil, fmt.Errorf("optimizer.page_budget_lines 必须为正数，当前值: %d", cfg.Optimizer.PageBudgetLines)
	}

	return cfg, nil
}

// defaultConfig 返回内置默认值
func defaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			BaseURL:        "https://api.openai.com/v1/embeddings",
			Model:          "text-embedding-3-small",
			Dimensions:     1536,
			TimeoutSeconds: 30,
		},
		Redis: RedisConfig{
			PoolSize:         10,
			MinIdleConns:     2,
			VectorExpireDays: 7,
		},
		Server: ServerConfig{Port: 8080},
		Scorer: ScorerConfig{Threshold: 0.45},
		Optimizer: OptimizerConfig{
			PageBudgetLines: 48,
			WrapWidth:       90,
		},
		Logger: LoggerConfig{Level: "info", Format: "json"},
	}
}

// applyEnvOverrides 敏感项优先从环境变量读取
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("RESUME_TAILOR_EMBEDDING_API_KEY")); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("RESUME_TAILOR_LLM_API_KEY")); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("RESUME_TAILOR_API_TOKEN")); v != "" {
		cfg.Server.APIToken = v
	}
	if v := strings.TrimSpace(os.Getenv("RESUME_TAILOR_MYSQL_PASSWORD")); v != "" {
		cfg.MySQL.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("RESUME_TAILOR_REDIS_PASSWORD")); v != "" {
		cfg.Redis.Password = v
	}
}
