package models

import (
	"time"

	"gorm.io/datatypes"
)

// TailorSession 一次裁剪会话：原始输入文本与岗位概要
type TailorSession struct {
	SessionID  string    `gorm:"column:session_id;type:varchar(36);primaryKey"`
	ResumeText string    `gorm:"column:resume_text;type:mediumtext"`
	JobText    string    `gorm:"column:job_text;type:mediumtext"`
	JobTitle   string    `gorm:"column:job_title;type:varchar(255)"`
	Company    string    `gorm:"column:company;type:varchar(255)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (TailorSession) TableName() string {
	return "tailor_sessions"
}

// 快照所处的流水线阶段
const (
	StageExtracted = "extracted"
	StageScored    = "scored"
	StageOptimized = "optimized"
)

// TailorSnapshot 流水线某一阶段的模型快照。
// 模型按稳定字段名序列化为JSON，导出即持久化，核心流程不依赖它
type TailorSnapshot struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID     string         `gorm:"column:session_id;type:varchar(36);index:idx_snapshot_session"`
	Stage         string         `gorm:"column:stage;type:varchar(32)"`
	ResumeJSON    datatypes.JSON `gorm:"column:resume_json;type:json"`
	JobJSON       datatypes.JSON `gorm:"column:job_json;type:json"`
	AlignmentJSON datatypes.JSON `gorm:"column:alignment_json;type:json"`
	Coverage      float64        `gorm:"column:coverage"`
	Degraded      bool           `gorm:"column:degraded"`
	WithinBudget  bool           `gorm:"column:within_budget"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
}

// TableName 指定表名
func (TailorSnapshot) TableName() string {
	return "tailor_snapshots"
}
