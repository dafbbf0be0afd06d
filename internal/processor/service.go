// Package processor 把抽取、评分、优化三个阶段编排成会话级流水线。
// 每个阶段都是独立的调用边界，单阶段失败不污染其他阶段的重试。
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/optimizer"
	"resume-tailor-go/internal/renderer"
	"resume-tailor-go/internal/storage"
	"resume-tailor-go/internal/storage/models"
	"resume-tailor-go/internal/types"
)

// ErrStorageDisabled 未配置MySQL时会话查询不可用
var ErrStorageDisabled = errors.New("会话持久化未启用")

// Service 简历裁剪流水线
type Service struct {
	resumeExtractor ResumeExtractor
	jobExtractor    JobExtractor
	scorer          AlignmentScorer
	optimizer       ResumeOptimizer
	renderer        ResumeRenderer
	store           *storage.Storage
	logger          zerolog.Logger
}

// NewService 组装流水线服务
func NewService(resumeExt ResumeExtractor, jobExt JobExtractor, scorer AlignmentScorer, opt ResumeOptimizer, opts ...Option) (*Service, error) {
	if resumeExt == nil || jobExt == nil {
		return nil, fmt.Errorf("抽取器不能为空")
	}
	if scorer == nil {
		return nil, fmt.Errorf("评分器不能为空")
	}
	if opt == nil {
		return nil, fmt.Errorf("优化器不能为空")
	}

	svc := &Service{
		resumeExtractor: resumeExt,
		jobExtractor:    jobExt,
		scorer:          scorer,
		optimizer:       opt,
		renderer:        renderer.NewRenderer(renderer.DefaultWrapWidth),
		logger:          logger.Logger.With().Str("component", "tailor_service").Logger(),
	}
	for _, o := range opts {
		o(svc)
	}
	return svc, nil
}

// ExtractResume 从原始文本抽取简历模型并分配会话ID
func (s *Service) ExtractResume(ctx context.Context, rawText string) (*types.ResumeModel, error) {
	resume, err := s.resumeExtractor.ExtractResume(ctx, rawText)
	if err != nil {
		return nil, err
	}
	if resume.SessionID == "" {
		resume.SessionID = uuid.NewString()
	}

	s.persistSession(ctx, resume.SessionID, rawText)
	s.persistSnapshot(ctx, models.StageExtracted, resume, nil, nil, nil)

	s.logger.Info().
		Str("session_id", resume.SessionID).
		Int("entities", resume.EntityCount()).
		Msg("简历抽取完成")
	return resume, nil
}

// ExtractJob 从原始文本抽取岗位模型，sessionID用于关联会话
func (s *Service) ExtractJob(ctx context.Context, rawText string, sessionID string) (*types.JobModel, error) {
	job, err := s.jobExtractor.ExtractJob(ctx, rawText)
	if err != nil {
		return nil, err
	}
	job.SessionID = sessionID

	if sessionID != "" && s.store != nil && s.store.MySQL != nil {
		if err := s.store.MySQL.UpdateSessionJob(ctx, sessionID, rawText, job.Title, job.Company); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("回填岗位信息失败")
		}
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("title", job.Title).
		Int("requirements", len(job.Requirements)).
		Msg("岗位抽取完成")
	return job, nil
}

// Score 计算对齐结果并保存阶段快照
func (s *Service) Score(ctx context.Context, resume *types.ResumeModel, job *types.JobModel) (*types.AlignmentResult, error) {
	result, err := s.scorer.Score(ctx, resume, job)
	if err != nil {
		return nil, err
	}

	s.persistSnapshot(ctx, models.StageScored, resume, job, result, nil)
	return result, nil
}

// Optimize 在页面预算内优化简历并保存阶段快照
func (s *Service) Optimize(ctx context.Context, resume *types.ResumeModel, alignment *types.AlignmentResult) (*optimizer.Result, error) {
	result, err := s.optimizer.Optimize(resume, alignment)
	if err != nil {
		return nil, err
	}

	s.persistSnapshot(ctx, models.StageOptimized, result.Model, nil, alignment, result)
	return result, nil
}

// Render 把模型渲染为纯文本
func (s *Service) Render(model *types.ResumeModel) string {
	return s.renderer.Render(model)
}

// TailorOutput 完整流水线的产物
type TailorOutput struct {
	SessionID string                 `json:"session_id"`
	Resume    *types.ResumeModel     `json:"resume"`
	Job       *types.JobModel        `json:"job"`
	Alignment *types.AlignmentResult `json:"alignment"`
	Optimized *optimizer.Result      `json:"optimized"`
	Rendered  string                 `json:"rendered"`
}

// Tailor 一次跑完 抽取 -> 评分 -> 优化 -> 渲染
func (s *Service) Tailor(ctx context.Context, resumeText, jobText string) (*TailorOutput, error) {
	resume, err := s.ExtractResume(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("简历抽取失败: %w", err)
	}
	job, err := s.ExtractJob(ctx, jobText, resume.SessionID)
	if err != nil {
		return nil, fmt.Errorf("岗位抽取失败: %w", err)
	}
	alignment, err := s.Score(ctx, resume, job)
	if err != nil {
		return nil, fmt.Errorf("对齐评分失败: %w", err)
	}
	optimized, err := s.Optimize(ctx, resume, alignment)
	if err != nil {
		return nil, fmt.Errorf("优化失败: %w", err)
	}

	return &TailorOutput{
		SessionID: resume.SessionID,
		Resume:    resume,
		Job:       job,
		Alignment: alignment,
		Optimized: optimized,
		Rendered:  s.renderer.Render(optimized.Model),
	}, nil
}

// SessionRecord 一个会话及其各阶段快照，按快照时间升序
type SessionRecord struct {
	Session   *models.TailorSession   `json:"session"`
	Snapshots []models.TailorSnapshot `json:"snapshots"`
}

// Session 读取会话记录与全部阶段快照。
// 会话不存在时返回 storage.ErrSessionNotFound
func (s *Service) Session(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if s.store == nil || s.store.MySQL == nil {
		return nil, ErrStorageDisabled
	}

	session, err := s.store.MySQL.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.store.MySQL.ListSnapshots(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionRecord{Session: session, Snapshots: snapshots}, nil
}

// persistSession 持久化会话记录，失败只记日志不中断流水线
func (s *Service) persistSession(ctx context.Context, sessionID, resumeText string) {
	if s.store == nil || s.store.MySQL == nil {
		return
	}

	session := &models.TailorSession{
		SessionID:  sessionID,
		ResumeText: resumeText,
		UpdatedAt:  time.Now(),
	}
	if err := s.store.MySQL.SaveSession(ctx, session); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("保存会话失败")
	}
}

// persistSnapshot 持久化阶段快照，失败只记日志不中断流水线
func (s *Service) persistSnapshot(ctx context.Context, stage string, resume *types.ResumeModel, job *types.JobModel, alignment *types.AlignmentResult, optimized *optimizer.Result) {
	if s.store == nil || s.store.MySQL == nil || resume == nil {
		return
	}

	snapshot := &models.TailorSnapshot{
		SessionID: resume.SessionID,
		Stage:     stage,
		CreatedAt: time.Now(),
	}
	if data, err := json.Marshal(resume); err == nil {
		snapshot.ResumeJSON = datatypes.JSON(data)
	}
	if job != nil {
		if data, err := json.Marshal(job); err == nil {
			snapshot.JobJSON = datatypes.JSON(data)
		}
	}
	if alignment != nil {
		snapshot.Coverage = alignment.Coverage
		snapshot.Degraded = alignment.Metadata.Degraded
		if data, err := json.Marshal(alignment); err == nil {
			snapshot.AlignmentJSON = datatypes.JSON(data)
		}
	}
	if optimized != nil {
		snapshot.WithinBudget = optimized.WithinBudget
	}

	if err := s.store.MySQL.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn().Err(err).Str("session_id", resume.SessionID).Str("stage", stage).Msg("保存快照失败")
	}
}
