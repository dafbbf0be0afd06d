package renderer

import (
	"strings"
	"unicode/utf8"

	"resume-tailor-go/internal/types"
)

// DefaultWrapWidth 默认换行宽度（等宽字符数）
const DefaultWrapWidth = 90

// LineEstimator 按换行宽度估算条目的渲染行数。
// 估算是单调的：内容更长的条目行数不会更少
type LineEstimator struct {
	wrapWidth int
}

// NewLineEstimator 创建行数估算器，宽度非法时使用默认值
func NewLineEstimator(wrapWidth int) LineEstimator {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}
	return LineEstimator{wrapWidth: wrapWidth}
}

// EstimateLines 实现 optimizer.LengthEstimator。
// 经历类条目的角色抬头单独占一行
func (l LineEstimator) EstimateLines(entity types.ResumeEntity) int {
	content := entity.Latest()
	if content == "" {
		return 0
	}
	lines := (utf8.RuneCountInString(content) + l.wrapWidth - 1) / l.wrapWidth
	if lines < 1 {
		lines = 1
	}
	if entity.Payload != nil && (entity.Payload.Organization != "" || entity.Payload.Title != "") {
		lines++
	}
	return lines
}

// Renderer 纯文本ATS渲染器：清晰的章节标题、无图形元素，
// 保证被自动筛选系统完整解析
type Renderer struct {
	wrapWidth int
}

// NewRenderer 创建纯文本渲染器
func NewRenderer(wrapWidth int) *Renderer {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}
	return &Renderer{wrapWidth: wrapWidth}
}

// Estimator 返回与本渲染器换行宽度一致的行数估算器
func (r *Renderer) Estimator() LineEstimator {
	return NewLineEstimator(r.wrapWidth)
}

// sectionTitles 章节在输出里的标题
var sectionTitles = map[types.SectionName]string{
	types.SectionContact:        "CONTACT",
	types.SectionSummary:        "SUMMARY",
	types.SectionExperience:     "EXPERIENCE",
	types.SectionEducation:      "EDUCATION",
	types.SectionSkills:         "SKILLS",
	types.SectionProjects:       "PROJECTS",
	types.SectionCertifications: "CERTIFICATIONS",
	types.SectionAchievements:   "ACHIEVEMENTS",
}

// Render 把模型渲染为纯文本。空章节不输出
func (r *Renderer) Render(model *types.ResumeModel) string {
	if model == nil {
		return ""
	}

	var b strings.Builder
	first := true
	for _, section := range model.Sections {
		if len(section.Entities) == 0 {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false

		title, ok := sectionTitles[section.Name]
		if !ok {
			title = strings.ToUpper(string(section.Name))
		}
		b.WriteString(title)
		b.WriteString("\n")

		var lastRole string
		for _, e := range section.Entities {
			if role := roleHeader(e); role != "" && role != lastRole {
				b.WriteString(role)
				b.WriteString("\n")
				lastRole = role
			}
			for _, line := range wrap(e.Latest(), r.wrapWidth) {
				if e.Kind == types.KindExperienceBullet || e.Kind == types.KindProject || e.Kind == types.KindAchievement {
					b.WriteString("- ")
				}
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// roleHeader 经历条目的角色抬头，例如 "Senior Engineer, Acme (2021-03 - 2023-06)"
func roleHeader(e types.ResumeEntity) string {
	p := e.Payload
	if p == nil || (p.Organization == "" && p.Title == "") {
		return ""
	}
	var parts []string
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.Organization != "" {
		parts = append(parts, p.Organization)
	}
	header := strings.Join(parts, ", ")
	if p.StartDate != "" {
		end := p.EndDate
		if end == "" {
			end = "present"
		}
		header += " (" + p.StartDate + " - " + end + ")"
	}
	return header
}

// wrap 按词换行，单词过长时硬切
func wrap(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+wordLen > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		for wordLen > width {
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
			wordLen = utf8.RuneCountInString(word)
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
