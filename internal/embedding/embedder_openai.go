package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"

	"resume-tailor-go/internal/config"
	"resume-tailor-go/internal/logger"
)

// OpenAIEmbedder 实现 embedding.Embedder 接口，
// 调用任意OpenAI兼容的 /embeddings 端点
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOpenAIEmbedder 创建OpenAI兼容的向量化客户端
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/embeddings"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.Logger.With().Str("component", "openai_embedder").Logger(),
	}, nil
}

// GetDimensions 返回配置的向量维度
func (e *OpenAIEmbedder) GetDimensions() int {
	return e.dimensions
}

// embeddingRequest OpenAI兼容的Embedding请求结构
type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse OpenAI兼容的Embedding响应结构
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// EmbedStrings 将文本转换为向量，实现 cloudwego/eino embedding.Embedder 接口。
// 超时由配置的timeout与调用方传入的ctx共同约束，超时返回错误而不是悬挂。
func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	options := &embedding.Options{}
	embedding.GetCommonOptions(options, opts...)
	effectiveModel := e.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reqBody := embeddingRequest{
		Input: texts,
		Model: effectiveModel,
	}
	if e.dimensions > 0 {
		reqBody.Dimensions = e.dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var parsed embeddingResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			return nil, fmt.Errorf("API调用失败, 状态码: %d, 类型: %s, 错误: %s",
				resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
		}
		return nil, fmt.Errorf("API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: 类型=%s, 消息=%s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("向量数量(%d)与文本数量(%d)不匹配", len(parsed.Data), len(texts))
	}

	out := make([][]float64, len(parsed.Data))
	for _, entry := range parsed.Data {
		if entry.Index < 0 || entry.Index >= len(out) {
			return nil, fmt.Errorf("响应索引越界: %d", entry.Index)
		}
		out[entry.Index] = entry.Embedding
	}

	e.logger.Debug().Int("texts", len(texts)).Str("model", effectiveModel).Msg("向量化完成")
	return out, nil
}
