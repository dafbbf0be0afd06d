package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// JobExtractor 规则驱动的岗位描述抽取器：按小节标题识别
// 必备/加分/职责区域，逐条切分为原子要求。
type JobExtractor struct {
	logger zerolog.Logger
}

// 岗位描述里的小节标题
var (
	requiredHeader  = regexp.MustCompile(`(?i)^(requirements?|qualifications?|must.have|what (you('ll)? need|we require)|minimum qualifications?)\b`)
	preferredHeader = regexp.MustCompile(`(?i)^(preferred( qualifications?)?|nice.to.have|bonus( points?)?|plus(es)?|good to have)\b`)
	dutyHeader      = regexp.MustCompile(`(?i)^(responsibilit(y|ies)|duties|what you('ll)? do|the role|about the role)\b`)

	// qualificationLine 学历/年限类的资历表述
	qualificationLine = regexp.MustCompile(`(?i)(\d+\+?\s*years?|degree|bachelor|master|phd|diploma|graduat)`)

	// seniorityHint 职级提示
	seniorityHint = regexp.MustCompile(`(?i)\b(senior|junior|staff|principal|lead|intern|entry.level|mid.level)\b`)

	// titleLabel / companyLabel 明确标注的字段
	titleLabel   = regexp.MustCompile(`(?i)^(job title|title|position|role)\s*[:：]\s*(.+)$`)
	companyLabel = regexp.MustCompile(`(?i)^(company|employer|organization)\s*[:：]\s*(.+)$`)
)

// NewJobExtractor 创建岗位抽取器
func NewJobExtractor() *JobExtractor {
	return &JobExtractor{
		logger: logger.Logger.With().Str("component", "job_extractor").Logger(),
	}
}

// ExtractJob 将岗位描述抽取为结构化模型。
// 输入为空时返回 ExtractionError；没有任何小节标记时，
// 兜底把每个非空行当作一条必备技能要求。
func (e *JobExtractor) ExtractJob(ctx context.Context, raw string) (*types.JobModel, error) {
	text := normalize(raw)
	if text == "" {
		return nil, NewEmptyInputError("job")
	}

	model := &types.JobModel{}
	if m := seniorityHint.FindString(text); m != "" {
		model.Seniority = strings.ToLower(m)
	}

	lines := strings.Split(text, "\n")
	current := types.KindRequiredSkill
	sawHeader := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := titleLabel.FindStringSubmatch(trimmed); m != nil {
			model.Title = strings.TrimSpace(m[2])
			continue
		}
		if m := companyLabel.FindStringSubmatch(trimmed); m != nil {
			model.Company = strings.TrimSpace(m[2])
			continue
		}

		if kind, ok := headerKind(trimmed); ok && !bulletPrefix.MatchString(line) {
			current = kind
			sawHeader = true
			continue
		}

		// 第一行既非标注也非小节标题时，当作岗位名称
		if i == 0 && model.Title == "" && len(trimmed) <= 80 {
			model.Title = trimmed
			continue
		}

		content := strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, ""))
		if content == "" {
			continue
		}

		kind := current
		// 必备区域里的学历/年限表述归为资历要求
		if kind == types.KindRequiredSkill && qualificationLine.MatchString(content) {
			kind = types.KindQualification
		}
		model.Requirements = append(model.Requirements, types.NewJobRequirement(kind, content))
	}

	if !sawHeader {
		e.logger.Debug().Msg("未识别到岗位小节标记，所有条目按必备技能处理")
	}
	if len(model.Requirements) == 0 {
		// 只剩标题行之类的内容：整段文本作为一条必备要求，避免空模型
		model.Requirements = append(model.Requirements,
			types.NewJobRequirement(types.KindRequiredSkill, text))
	}

	e.logger.Debug().Int("requirements", len(model.Requirements)).Str("title", model.Title).Msg("岗位抽取完成")
	return model, nil
}

// headerKind 判断一行是否为岗位小节标题
func headerKind(line string) (types.RequirementKind, bool) {
	trimmed := strings.TrimRight(line, ":：")
	if len(trimmed) > 48 {
		return "", false
	}
	switch {
	case preferredHeader.MatchString(trimmed):
		return types.KindPreferredSkill, true
	case requiredHeader.MatchString(trimmed):
		return types.KindRequiredSkill, true
	case dutyHeader.MatchString(trimmed):
		return types.KindResponsibility, true
	}
	return "", false
}
