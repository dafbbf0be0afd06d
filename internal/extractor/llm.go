package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// LLMExtractor 在规则抽取之上叠加LLM结构化抽取。
// LLM输出无法解析时自动回退到规则抽取，保证抽取永远有结果。
type LLMExtractor struct {
	llmModel model.ChatModel
	rules    *ResumeExtractor
	jobRules *JobExtractor
	logger   zerolog.Logger
}

// NewLLMExtractor 创建LLM辅助抽取器
func NewLLMExtractor(llmModel model.ChatModel, rules *ResumeExtractor, jobRules *JobExtractor) (*LLMExtractor, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("ChatModel 不能为空")
	}
	if rules == nil || jobRules == nil {
		return nil, fmt.Errorf("规则抽取器不能为空")
	}
	return &LLMExtractor{
		llmModel: llmModel,
		rules:    rules,
		jobRules: jobRules,
		logger:   logger.Logger.With().Str("component", "llm_extractor").Logger(),
	}, nil
}

const resumeExtractionPrompt = `你是一位专业的简历解析助手。请从下面的简历文本中抽取结构化条目，严格按以下JSON格式输出：

{
  "entities": [
    {"kind": "contact|summary|experience-bullet|education|skill|certification|project|achievement",
     "content": "条目原文",
     "organization": "", "title": "", "start_date": "YYYY-MM", "end_date": "YYYY-MM或Present"}
  ]
}

要求：
1. content 必须取自原文，不得改写或虚构。
2. 无法分类的内容一律使用 "summary"，不要丢弃任何信息。
3. 技能列表拆分为独立的 skill 条目。
4. 输出必须是纯JSON，不要包含任何其他文本。

简历文本:
"""
%s
"""`

const jobExtractionPrompt = `你是一位专业的岗位描述解析助手。请从下面的岗位描述中抽取结构化要求，严格按以下JSON格式输出：

{
  "job_title": "",
  "company": "",
  "seniority": "",
  "requirements": [
    {"kind": "required-skill|preferred-skill|responsibility|qualification", "content": "要求原文"}
  ]
}

要求：
1. content 必须取自原文。
2. "必须/精通/required" 类表述为 required-skill；"加分/优先/preferred" 类为 preferred-skill；
   学历和年限为 qualification；职责描述为 responsibility。
3. 输出必须是纯JSON，不要包含任何其他文本。

岗位描述:
"""
%s
"""`

// llmResumePayload LLM简历抽取输出结构
type llmResumePayload struct {
	Entities []struct {
		Kind         string `json:"kind"`
		Content      string `json:"content"`
		Organization string `json:"organization"`
		Title        string `json:"title"`
		StartDate    string `json:"start_date"`
		EndDate      string `json:"end_date"`
	} `json:"entities"`
}

// llmJobPayload LLM岗位抽取输出结构
type llmJobPayload struct {
	JobTitle     string `json:"job_title"`
	Company      string `json:"company"`
	Seniority    string `json:"seniority"`
	Requirements []struct {
		Kind    string `json:"kind"`
		Content string `json:"content"`
	} `json:"requirements"`
}

// ExtractResume LLM优先抽取简历，失败时回退到规则抽取
func (e *LLMExtractor) ExtractResume(ctx context.Context, raw string) (*types.ResumeModel, error) {
	text := normalize(raw)
	if text == "" {
		return nil, NewEmptyInputError("resume")
	}

	payload := &llmResumePayload{}
	if err := e.generateJSON(ctx, fmt.Sprintf(resumeExtractionPrompt, text), payload); err != nil {
		e.logger.Warn().Err(err).Msg("LLM简历抽取失败，回退到规则抽取")
		return e.rules.ExtractResume(ctx, raw)
	}

	model := types.NewResumeModel()
	for _, item := range payload.Entities {
		kind := types.EntityKind(item.Kind)
		if !kind.Valid() {
			kind = types.KindSummary
		}
		builder := types.NewEntity(kind).Content(item.Content)
		if item.Organization != "" || item.Title != "" || item.StartDate != "" {
			builder.Payload(&types.ExperiencePayload{
				Organization: item.Organization,
				Title:        item.Title,
				StartDate:    item.StartDate,
				EndDate:      item.EndDate,
			})
		}
		if entity, err := builder.Build(); err == nil {
			model.AppendEntity(entity)
		}
	}

	if model.EntityCount() == 0 {
		e.logger.Warn().Msg("LLM简历抽取结果为空，回退到规则抽取")
		return e.rules.ExtractResume(ctx, raw)
	}

	model.SortChronological()
	return model, nil
}

// ExtractJob LLM优先抽取岗位描述，失败时回退到规则抽取
func (e *LLMExtractor) ExtractJob(ctx context.Context, raw string) (*types.JobModel, error) {
	text := normalize(raw)
	if text == "" {
		return nil, NewEmptyInputError("job")
	}

	payload := &llmJobPayload{}
	if err := e.generateJSON(ctx, fmt.Sprintf(jobExtractionPrompt, text), payload); err != nil {
		e.logger.Warn().Err(err).Msg("LLM岗位抽取失败，回退到规则抽取")
		return e.jobRules.ExtractJob(ctx, raw)
	}

	model := &types.JobModel{
		Title:     payload.JobTitle,
		Company:   payload.Company,
		Seniority: payload.Seniority,
	}
	for _, item := range payload.Requirements {
		kind := types.RequirementKind(item.Kind)
		switch kind {
		case types.KindRequiredSkill, types.KindPreferredSkill, types.KindResponsibility, types.KindQualification:
		default:
			kind = types.KindRequiredSkill
		}
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		model.Requirements = append(model.Requirements, types.NewJobRequirement(kind, item.Content))
	}

	if len(model.Requirements) == 0 {
		e.logger.Warn().Msg("LLM岗位抽取结果为空，回退到规则抽取")
		return e.jobRules.ExtractJob(ctx, raw)
	}
	return model, nil
}

// generateJSON 调用LLM并把输出解析到目标结构
func (e *LLMExtractor) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	messages := []*einoschema.Message{
		einoschema.SystemMessage("你是一个只输出JSON的结构化抽取助手。"),
		einoschema.UserMessage(prompt),
	}
	response, err := e.llmModel.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("LLM调用失败: %w", err)
	}

	jsonStr := extractJSONObject(response.Content)
	if jsonStr == "" {
		return NewLLMOutputError("extract", "响应中没有JSON对象")
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return NewLLMOutputError("extract", err.Error())
	}
	return nil
}

// extractJSONObject 从文本中提取第一个平衡的JSON对象
// （LLM偶尔会附带markdown围栏或说明文字）
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
