package types

import "github.com/google/uuid"

// RequirementKind 岗位要求的类型（封闭枚举）
type RequirementKind string

const (
	// KindRequiredSkill 必备技能
	KindRequiredSkill RequirementKind = "required-skill"
	// KindPreferredSkill 加分技能
	KindPreferredSkill RequirementKind = "preferred-skill"
	// KindResponsibility 岗位职责
	KindResponsibility RequirementKind = "responsibility"
	// KindQualification 资历要求（学历、年限等）
	KindQualification RequirementKind = "qualification"
)

// Required 该类要求未匹配时是否构成硬性缺口
func (k RequirementKind) Required() bool {
	return k == KindRequiredSkill
}

// Skill 该类要求是否属于技能类（影响匹配时的候选条目范围）
func (k RequirementKind) Skill() bool {
	return k == KindRequiredSkill || k == KindPreferredSkill
}

// DefaultWeight 各类要求的默认权重，必备 > 资历 > 职责 > 加分
func (k RequirementKind) DefaultWeight() float64 {
	switch k {
	case KindRequiredSkill:
		return 1.0
	case KindQualification:
		return 0.8
	case KindResponsibility:
		return 0.6
	case KindPreferredSkill:
		return 0.5
	default:
		return 0.5
	}
}

// JobRequirement 从岗位描述中抽取的一条原子要求
type JobRequirement struct {
	ID      string          `json:"id"`
	Kind    RequirementKind `json:"kind"`
	Content string          `json:"content"`
	Weight  float64         `json:"weight"`
}

// NewJobRequirement 按类型默认权重创建一条要求
func NewJobRequirement(kind RequirementKind, content string) JobRequirement {
	return JobRequirement{
		ID:      uuid.NewString(),
		Kind:    kind,
		Content: content,
		Weight:  kind.DefaultWeight(),
	}
}

// JobModel 岗位的结构化表示
type JobModel struct {
	SessionID    string           `json:"session_id,omitempty"`
	Title        string           `json:"title,omitempty"`
	Company      string           `json:"company,omitempty"`
	Seniority    string           `json:"seniority,omitempty"` // 职级提示，例如 senior / junior
	Requirements []JobRequirement `json:"requirements"`
}

// RequiredCount 必备类要求的数量
func (j *JobModel) RequiredCount() int {
	n := 0
	for i := range j.Requirements {
		if j.Requirements[i].Kind.Required() {
			n++
		}
	}
	return n
}
