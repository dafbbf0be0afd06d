package types

import "sort"

// SectionName 简历章节名称
type SectionName string

const (
	SectionContact        SectionName = "contact"
	SectionSummary        SectionName = "summary"
	SectionExperience     SectionName = "experience"
	SectionEducation      SectionName = "education"
	SectionSkills         SectionName = "skills"
	SectionProjects       SectionName = "projects"
	SectionCertifications SectionName = "certifications"
	SectionAchievements   SectionName = "achievements"
)

// CanonicalSectionOrder 章节的规范顺序，ATS友好的模板固定使用此顺序
var CanonicalSectionOrder = []SectionName{
	SectionContact,
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
	SectionAchievements,
}

// SectionForKind 返回条目类型对应的章节
func SectionForKind(kind EntityKind) SectionName {
	switch kind {
	case KindContact:
		return SectionContact
	case KindExperienceBullet:
		return SectionExperience
	case KindEducation:
		return SectionEducation
	case KindSkill:
		return SectionSkills
	case KindProject:
		return SectionProjects
	case KindCertification:
		return SectionCertifications
	case KindAchievement:
		return SectionAchievements
	default:
		return SectionSummary
	}
}

// ResumeSection 一个章节及其有序条目
type ResumeSection struct {
	Name     SectionName    `json:"name"`
	Entities []ResumeEntity `json:"entities"`
}

// ResumeModel 简历的规范内存表示：按规范模板排序的章节序列。
// 各流水线阶段只读输入、产出新模型，不做原地修改。
type ResumeModel struct {
	SessionID string          `json:"session_id,omitempty"`
	Sections  []ResumeSection `json:"sections"`
}

// NewResumeModel 创建空模型
func NewResumeModel() *ResumeModel {
	return &ResumeModel{}
}

// AppendEntity 将条目追加到其类型对应的章节末尾，
// 章节不存在时按规范顺序插入新章节
func (m *ResumeModel) AppendEntity(e ResumeEntity) {
	name := SectionForKind(e.Kind)
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			e.Position = len(m.Sections[i].Entities)
			m.Sections[i].Entities = append(m.Sections[i].Entities, e)
			return
		}
	}
	e.Position = 0
	m.Sections = append(m.Sections, ResumeSection{Name: name, Entities: []ResumeEntity{e}})
	m.sortSections()
}

// Section 按名称查找章节，不存在时返回nil
func (m *ResumeModel) Section(name SectionName) *ResumeSection {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i]
		}
	}
	return nil
}

// Entities 返回所有章节条目的扁平快照，顺序与章节顺序一致
func (m *ResumeModel) Entities() []ResumeEntity {
	var all []ResumeEntity
	for i := range m.Sections {
		all = append(all, m.Sections[i].Entities...)
	}
	return all
}

// EntityCount 条目总数
func (m *ResumeModel) EntityCount() int {
	n := 0
	for i := range m.Sections {
		n += len(m.Sections[i].Entities)
	}
	return n
}

// Clone 深拷贝模型，供优化器在工作副本上操作
func (m *ResumeModel) Clone() *ResumeModel {
	out := &ResumeModel{SessionID: m.SessionID, Sections: make([]ResumeSection, len(m.Sections))}
	for i, sec := range m.Sections {
		entities := make([]ResumeEntity, len(sec.Entities))
		copy(entities, sec.Entities)
		for j := range entities {
			if len(entities[j].Revisions) > 0 {
				revs := make([]Revision, len(entities[j].Revisions))
				copy(revs, entities[j].Revisions)
				entities[j].Revisions = revs
			}
			if entities[j].Payload != nil {
				p := *entities[j].Payload
				entities[j].Payload = &p
			}
		}
		out.Sections[i] = ResumeSection{Name: sec.Name, Entities: entities}
	}
	return out
}

// SortChronological 将经历和教育章节按开始日期倒序排列（稳定排序，
// 无日期的条目保持原有相对顺序并沉底）
func (m *ResumeModel) SortChronological() {
	for i := range m.Sections {
		name := m.Sections[i].Name
		if name != SectionExperience && name != SectionEducation {
			continue
		}
		entities := m.Sections[i].Entities
		sort.SliceStable(entities, func(a, b int) bool {
			ta, tb := entities[a].StartTime(), entities[b].StartTime()
			if ta.IsZero() {
				return false
			}
			if tb.IsZero() {
				return true
			}
			return ta.After(tb)
		})
		for j := range entities {
			entities[j].Position = j
		}
	}
}

// sortSections 按规范模板顺序排列章节
func (m *ResumeModel) sortSections() {
	rank := make(map[SectionName]int, len(CanonicalSectionOrder))
	for i, name := range CanonicalSectionOrder {
		rank[name] = i
	}
	sort.SliceStable(m.Sections, func(a, b int) bool {
		return rank[m.Sections[a].Name] < rank[m.Sections[b].Name]
	})
}
