package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-tailor-go/internal/config"
	"resume-tailor-go/internal/logger"
)

// chatTimeout 单次对话补全调用的超时
const chatTimeout = 60 * time.Second

// OpenAIChatModel 实现 eino model.ChatModel 接口，
// 调用任意OpenAI兼容的 /chat/completions 端点。
// 仅用于抽取场景，不支持流式输出和工具调用
type OpenAIChatModel struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOpenAIChatModel 创建OpenAI兼容的对话模型客户端
func NewOpenAIChatModel(cfg config.LLMConfig) (*OpenAIChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &OpenAIChatModel{
		apiKey:     cfg.APIKey,
		modelName:  modelName,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger.Logger.With().Str("component", "openai_chat_model").Logger(),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate 实现 model.ChatModel
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*einoschema.Message, _ ...model.Option) (*einoschema.Message, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("输入消息不能为空")
	}

	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	messages := make([]chatMessage, 0, len(input))
	for _, msg := range input {
		messages = append(messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	reqBody := chatRequest{
		Model:       m.modelName,
		Messages:    messages,
		Temperature: 0.1,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败 (状态码 %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("API调用失败, 状态码: %d, 类型: %s, 错误: %s",
				resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
		}
		return nil, fmt.Errorf("API调用失败, 状态码: %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("API未返回任何结果")
	}

	m.logger.Debug().Str("model", m.modelName).Int("messages", len(input)).Msg("对话补全完成")
	return &einoschema.Message{
		Role:    einoschema.Assistant,
		Content: parsed.Choices[0].Message.Content,
	}, nil
}

// Stream 实现 model.ChatModel。抽取场景只需要一次性输出
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*einoschema.Message, opts ...model.Option) (*einoschema.StreamReader[*einoschema.Message], error) {
	return nil, fmt.Errorf("不支持流式输出")
}

// BindTools 实现 model.ChatModel。抽取场景不使用工具调用
func (m *OpenAIChatModel) BindTools([]*einoschema.ToolInfo) error {
	return fmt.Errorf("不支持工具调用")
}
