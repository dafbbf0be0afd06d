package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// ResumeExtractor 规则驱动的简历抽取器：按章节标题正则对文本逐行分类，
// 将各章节内容切分为原子条目。无法分类的内容一律归入summary章节，
// 保证不丢失任何信息。
type ResumeExtractor struct {
	sectionRegex map[types.SectionName]*regexp.Regexp
	contactRegex map[string]*regexp.Regexp
	logger       zerolog.Logger
}

// ResumeExtractorConfig 抽取器配置
type ResumeExtractorConfig struct {
	// CustomSectionRegexMap 自定义章节标题正则，按章节名覆盖默认值
	CustomSectionRegexMap map[types.SectionName]string
}

// 默认的章节标题正则表达式
var defaultSectionRegex = map[types.SectionName]string{
	types.SectionSummary:        `(?i)^(summary|objective|profile|professional summary|about me?)\b`,
	types.SectionExperience:     `(?i)^((work|professional|employment)\s+(experience|history)|experience|employment)\b`,
	types.SectionEducation:      `(?i)^(education|academic background|academics)\b`,
	types.SectionSkills:         `(?i)^((technical|core|key)\s+)?(skills|technologies|competencies|tech stack)\b`,
	types.SectionProjects:       `(?i)^((personal|selected|side)\s+)?projects?\b`,
	types.SectionCertifications: `(?i)^(certifications?|certificates?|licenses?)\b`,
	types.SectionAchievements:   `(?i)^(achievements?|awards?|honors?|accomplishments?)\b`,
	types.SectionContact:        `(?i)^(contact( info(rmation)?)?|personal details)\b`,
}

// bulletPrefix 条目列表的前缀符号
var bulletPrefix = regexp.MustCompile(`^\s*([-•*‣◦]|\d+[.)])\s+`)

// dateRange 经历条目里的时间区间，如 "2019-03 - 2022-06"、"2020 – Present"
var dateRange = regexp.MustCompile(`(?i)(\d{4})(?:[-/.](\d{1,2}))?\s*(?:[-–—~]|to)\s*(?:(\d{4})(?:[-/.](\d{1,2}))?|present|current|now)`)

// roleHeader 经历章节里的职位行，如 "Senior Engineer, Acme Corp" 或 "Engineer at Acme"
var roleHeader = regexp.MustCompile(`(?i)^\s*([^,|@]+?)\s*(?:,|\|| at | @ )\s*([^,|]+?)\s*(?:[,|]|$|\()`)

// NewResumeExtractor 创建简历抽取器
func NewResumeExtractor(cfg ResumeExtractorConfig) (*ResumeExtractor, error) {
	merged := make(map[types.SectionName]string, len(defaultSectionRegex))
	for name, pattern := range defaultSectionRegex {
		merged[name] = pattern
	}
	for name, pattern := range cfg.CustomSectionRegexMap {
		merged[name] = pattern
	}

	e := &ResumeExtractor{
		sectionRegex: make(map[types.SectionName]*regexp.Regexp, len(merged)),
		logger:       logger.Logger.With().Str("component", "resume_extractor").Logger(),
	}
	for name, pattern := range merged {
		regex, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("编译章节正则表达式错误 %s: %w", name, err)
		}
		e.sectionRegex[name] = regex
	}

	e.contactRegex = map[string]*regexp.Regexp{
		"email":    regexp.MustCompile(`(?i)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		"phone":    regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`),
		"github":   regexp.MustCompile(`(?i)github\.com/[\w.-]+`),
		"linkedin": regexp.MustCompile(`(?i)linkedin\.com/in/[\w.-]+`),
	}

	return e, nil
}

// ExtractResume 将简历原始文本抽取为结构化模型。
// 输入为空时返回 ExtractionError；文本中完全没有章节标记时，
// 兜底将整段文本作为单个summary条目返回。
func (e *ResumeExtractor) ExtractResume(ctx context.Context, raw string) (*types.ResumeModel, error) {
	text := normalize(raw)
	if text == "" {
		return nil, NewEmptyInputError("resume")
	}

	lines := strings.Split(text, "\n")
	blocks, sawHeader := e.splitByHeader(lines)

	model := types.NewResumeModel()

	if !sawHeader {
		// 没有任何可识别的章节标记：整段文本作为一个summary条目，
		// 联系方式仍然尽量挖掘出来
		e.logger.Debug().Msg("未识别到章节标记，降级为整体summary条目")
		e.mineContacts(model, text)
		entity, err := types.NewEntity(types.KindSummary).Content(text).Build()
		if err != nil {
			return nil, err
		}
		model.AppendEntity(entity)
		return model, nil
	}

	for _, block := range blocks {
		e.extractBlock(model, block)
	}

	model.SortChronological()
	e.logger.Debug().Int("sections", len(model.Sections)).Int("entities", model.EntityCount()).Msg("简历抽取完成")
	return model, nil
}

// sectionBlock 一个章节标题与其后续内容行
type sectionBlock struct {
	name  types.SectionName
	lines []string
}

// splitByHeader 按章节标题切分文本。标题之前的前导内容归入contact块
// （联系方式通常出现在简历开头）。
func (e *ResumeExtractor) splitByHeader(lines []string) ([]sectionBlock, bool) {
	blocks := []sectionBlock{{name: types.SectionContact}}
	sawHeader := false

	for _, line := range lines {
		if name, ok := e.headerFor(line); ok {
			sawHeader = true
			blocks = append(blocks, sectionBlock{name: name})
			continue
		}
		blocks[len(blocks)-1].lines = append(blocks[len(blocks)-1].lines, line)
	}
	return blocks, sawHeader
}

// headerFor 判断一行是否是章节标题。标题必须足够短且不是列表项，
// 避免把正文里提到 "experience" 的句子误判成标题。
func (e *ResumeExtractor) headerFor(line string) (types.SectionName, bool) {
	trimmed := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line), ":："))
	if trimmed == "" || len(trimmed) > 40 || bulletPrefix.MatchString(line) {
		return "", false
	}
	for name, regex := range e.sectionRegex {
		if regex.MatchString(trimmed) {
			return name, true
		}
	}
	return "", false
}

// extractBlock 将一个章节块切分为条目并追加到模型
func (e *ResumeExtractor) extractBlock(model *types.ResumeModel, block sectionBlock) {
	switch block.name {
	case types.SectionContact:
		e.extractPreamble(model, block.lines)
	case types.SectionExperience:
		e.extractExperience(model, block.lines, types.KindExperienceBullet)
	case types.SectionProjects:
		e.extractExperience(model, block.lines, types.KindProject)
	case types.SectionSkills:
		e.extractSkills(model, block.lines)
	case types.SectionEducation:
		e.extractPerLine(model, block.lines, types.KindEducation)
	case types.SectionCertifications:
		e.extractPerLine(model, block.lines, types.KindCertification)
	case types.SectionAchievements:
		e.extractPerLine(model, block.lines, types.KindAchievement)
	default:
		e.extractPerLine(model, block.lines, types.KindSummary)
	}
}

// extractPreamble 处理章节标题之前的前导内容：联系方式模式命中的行
// 归为contact条目，其余非空行归入summary兜底
func (e *ResumeExtractor) extractPreamble(model *types.ResumeModel, lines []string) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if trimmed == "" {
			continue
		}
		kind := types.KindSummary
		for _, regex := range e.contactRegex {
			if regex.MatchString(trimmed) {
				kind = types.KindContact
				break
			}
		}
		if entity, err := types.NewEntity(kind).Content(trimmed).Build(); err == nil {
			model.AppendEntity(entity)
		}
	}
}

// mineContacts 从整段文本中挖掘联系方式条目（兜底路径使用）
func (e *ResumeExtractor) mineContacts(model *types.ResumeModel, text string) {
	for _, regex := range e.contactRegex {
		if match := regex.FindString(text); match != "" {
			if entity, err := types.NewEntity(types.KindContact).Content(match).Build(); err == nil {
				model.AppendEntity(entity)
			}
		}
	}
}

// extractExperience 抽取经历类章节：识别职位行并把其组织/职位/时间区间
// 作为后续要点条目的结构化载荷
func (e *ResumeExtractor) extractExperience(model *types.ResumeModel, lines []string, kind types.EntityKind) {
	var current *types.ExperiencePayload

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		isBullet := bulletPrefix.MatchString(line)
		content := strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, ""))

		if !isBullet {
			// 非列表行：可能是职位行，解析载荷后同样作为条目保留
			payload := parseRoleLine(trimmed)
			if payload != nil {
				current = payload
			}
		}

		builder := types.NewEntity(kind).Content(content)
		if current != nil {
			p := *current
			builder.Payload(&p)
		}
		if entity, err := builder.Build(); err == nil {
			model.AppendEntity(entity)
		}
	}
}

// extractSkills 技能章节按分隔符切分为独立的skill条目
func (e *ResumeExtractor) extractSkills(model *types.ResumeModel, lines []string) {
	for _, line := range lines {
		content := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if content == "" {
			continue
		}
		// 去掉 "Languages: Go, Python" 这类前缀标签
		if idx := strings.Index(content, ":"); idx >= 0 && idx < 30 {
			content = content[idx+1:]
		}
		for _, token := range strings.FieldsFunc(content, func(r rune) bool {
			return r == ',' || r == ';' || r == '|' || r == '•' || r == '·'
		}) {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if entity, err := types.NewEntity(types.KindSkill).Content(token).Build(); err == nil {
				model.AppendEntity(entity)
			}
		}
	}
}

// extractPerLine 按行抽取：每个非空行一个条目
func (e *ResumeExtractor) extractPerLine(model *types.ResumeModel, lines []string, kind types.EntityKind) {
	for _, line := range lines {
		content := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if content == "" {
			continue
		}
		builder := types.NewEntity(kind).Content(content)
		if kind == types.KindEducation {
			if payload := parseDateRange(content); payload != nil {
				builder.Payload(payload)
			}
		}
		if entity, err := builder.Build(); err == nil {
			model.AppendEntity(entity)
		}
	}
}

// parseRoleLine 解析职位行，提取职位、组织与时间区间。
// 没有任何结构化信息时返回nil。
func parseRoleLine(line string) *types.ExperiencePayload {
	payload := parseDateRange(line)
	if m := roleHeader.FindStringSubmatch(line); m != nil {
		if payload == nil {
			payload = &types.ExperiencePayload{}
		}
		payload.Title = strings.TrimSpace(m[1])
		payload.Organization = strings.TrimSpace(m[2])
	}
	return payload
}

// parseDateRange 从一行中解析时间区间，产出 YYYY-MM 或 YYYY 格式
func parseDateRange(line string) *types.ExperiencePayload {
	m := dateRange.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	payload := &types.ExperiencePayload{StartDate: m[1]}
	if m[2] != "" {
		payload.StartDate = m[1] + "-" + padMonth(m[2])
	}
	if m[3] != "" {
		payload.EndDate = m[3]
		if m[4] != "" {
			payload.EndDate = m[3] + "-" + padMonth(m[4])
		}
	} else {
		payload.EndDate = "Present"
	}
	return payload
}

// padMonth 月份补齐为两位
func padMonth(m string) string {
	if len(m) == 1 {
		return "0" + m
	}
	return m
}

// normalize 统一换行符并去掉首尾空白
func normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}
