package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityKind 表示简历条目的类型（封闭枚举）
type EntityKind string

const (
	// KindContact 联系方式条目
	KindContact EntityKind = "contact"
	// KindSummary 个人总结条目（兜底类型，无法分类的内容都归入这里）
	KindSummary EntityKind = "summary"
	// KindExperienceBullet 工作经历要点条目
	KindExperienceBullet EntityKind = "experience-bullet"
	// KindEducation 教育经历条目
	KindEducation EntityKind = "education"
	// KindSkill 技能条目
	KindSkill EntityKind = "skill"
	// KindCertification 证书条目
	KindCertification EntityKind = "certification"
	// KindProject 项目经历条目
	KindProject EntityKind = "project"
	// KindAchievement 获奖/成就条目
	KindAchievement EntityKind = "achievement"
)

// Valid 检查类型是否属于封闭枚举
func (k EntityKind) Valid() bool {
	switch k {
	case KindContact, KindSummary, KindExperienceBullet, KindEducation,
		KindSkill, KindCertification, KindProject, KindAchievement:
		return true
	}
	return false
}

// ExperiencePayload 工作/项目经历条目的结构化载荷
type ExperiencePayload struct {
	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	StartDate    string `json:"start_date,omitempty"` // YYYY-MM
	EndDate      string `json:"end_date,omitempty"`   // YYYY-MM 或 "Present"
	Location     string `json:"location,omitempty"`
}

// Revision 条目的一次修订。条目抽取后不可变，
// 优化器产生的改写以追加修订的形式记录，最新修订生效。
type Revision struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ResumeEntity 简历的一个原子内容单元
type ResumeEntity struct {
	ID       string             `json:"id"`
	Kind     EntityKind         `json:"kind"`
	Content  string             `json:"content"`
	Position int                `json:"position"` // 在所属章节内的顺序
	Payload  *ExperiencePayload `json:"payload,omitempty"`

	// Revisions 追加式修订历史，最新一条生效
	Revisions []Revision `json:"revisions,omitempty"`
}

// Latest 返回当前生效的文本：有修订则取最后一条，否则取原始内容
func (e *ResumeEntity) Latest() string {
	if n := len(e.Revisions); n > 0 {
		return e.Revisions[n-1].Content
	}
	return e.Content
}

// WithRevision 返回追加了一条修订的副本，原条目不被修改
func (e ResumeEntity) WithRevision(content string, at time.Time) ResumeEntity {
	revs := make([]Revision, len(e.Revisions), len(e.Revisions)+1)
	copy(revs, e.Revisions)
	e.Revisions = append(revs, Revision{Content: content, CreatedAt: at})
	return e
}

// StartTime 解析载荷中的开始日期，用于倒序排列；无法解析时返回零值
func (e *ResumeEntity) StartTime() time.Time {
	if e.Payload == nil || e.Payload.StartDate == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01", "2006/01", "2006"} {
		if t, err := time.Parse(layout, e.Payload.StartDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// EntityBuilder 抽取阶段构造条目的构建器
type EntityBuilder struct {
	entity ResumeEntity
}

// NewEntity 创建一个指定类型的条目构建器
func NewEntity(kind EntityKind) *EntityBuilder {
	return &EntityBuilder{entity: ResumeEntity{ID: uuid.NewString(), Kind: kind}}
}

// Content 设置条目内容
func (b *EntityBuilder) Content(text string) *EntityBuilder {
	b.entity.Content = text
	return b
}

// Position 设置条目在章节内的顺序
func (b *EntityBuilder) Position(pos int) *EntityBuilder {
	b.entity.Position = pos
	return b
}

// Payload 设置结构化载荷
func (b *EntityBuilder) Payload(p *ExperiencePayload) *EntityBuilder {
	b.entity.Payload = p
	return b
}

// Build 校验并返回条目
func (b *EntityBuilder) Build() (ResumeEntity, error) {
	if !b.entity.Kind.Valid() {
		return ResumeEntity{}, fmt.Errorf("无效的条目类型: %q", b.entity.Kind)
	}
	if b.entity.Content == "" {
		return ResumeEntity{}, fmt.Errorf("条目内容不能为空 (类型: %s)", b.entity.Kind)
	}
	return b.entity, nil
}
