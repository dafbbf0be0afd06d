package scorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"resume-tailor-go/internal/embedding"
	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// DefaultThreshold 默认相似度阈值。重缩放余弦低于该值视为未匹配
const DefaultThreshold = 0.45

// Scorer 对齐评分器：计算简历条目与岗位要求的语义匹配。
// 只读计算，不修改输入模型，对固定输入的输出是确定性的。
type Scorer struct {
	index           *embedding.Index
	threshold       float64
	lexicalFallback bool
	logger          zerolog.Logger
}

// Option 评分器的可选配置
type Option func(*Scorer)

// WithThreshold 覆盖默认相似度阈值，取值范围 (0, 1)
func WithThreshold(threshold float64) Option {
	return func(s *Scorer) {
		if threshold > 0 && threshold < 1 {
			s.threshold = threshold
		}
	}
}

// WithLexicalFallback 向量后端不可用时是否降级为词法匹配。
// 默认关闭，关闭时后端失败会直接返回 ErrEmbeddingUnavailable。
func WithLexicalFallback(enabled bool) Option {
	return func(s *Scorer) {
		s.lexicalFallback = enabled
	}
}

// NewScorer 创建对齐评分器
func NewScorer(index *embedding.Index, opts ...Option) (*Scorer, error) {
	if index == nil {
		return nil, fmt.Errorf("embedding index 不能为空")
	}
	s := &Scorer{
		index:     index,
		threshold: DefaultThreshold,
		logger:    logger.Logger.With().Str("component", "alignment_scorer").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Threshold 返回当前生效的相似度阈值
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// skillCandidateKinds 技能类要求优先匹配的条目类型。
// 真实简历里技能经常写在经历/项目的条目里而不是技能栏，
// 所以第一轮不只看技能条目。
var skillCandidateKinds = map[types.EntityKind]bool{
	types.KindSkill:            true,
	types.KindExperienceBullet: true,
	types.KindProject:          true,
	types.KindCertification:    true,
}

// Score 计算简历与岗位的对齐结果。
// 每条要求取最佳匹配条目，低于阈值的必备要求进入缺口列表，
// 覆盖率 = 被匹配的必备要求 / 全部必备要求。
func (s *Scorer) Score(ctx context.Context, resume *types.ResumeModel, job *types.JobModel) (*types.AlignmentResult, error) {
	if resume == nil || job == nil {
		return nil, fmt.Errorf("简历模型和岗位模型不能为空")
	}

	entities := matchableEntities(resume)
	result := &types.AlignmentResult{
		SessionID: resume.SessionID,
		Matches:   []types.Match{},
		Gaps:      []types.Gap{},
		Metadata: types.AlignmentMetadata{
			Threshold:      s.threshold,
			EmbeddingModel: s.index.Model(),
		},
	}
	if len(job.Requirements) == 0 {
		result.Coverage = 1.0
		return result, nil
	}
	if len(entities) == 0 {
		for _, req := range job.Requirements {
			if req.Kind.Required() {
				result.Gaps = append(result.Gaps, types.Gap{
					Requirement: req,
					Reason:      "resume has no matchable entries",
				})
			}
		}
		result.Coverage = coverage(result.Matches, job)
		return result, nil
	}

	entityVecs, reqVecs, err := s.embedAll(ctx, entities, job.Requirements)
	if err != nil {
		if errors.Is(err, embedding.ErrEmbeddingUnavailable) && s.lexicalFallback {
			s.logger.Warn().Err(err).Msg("向量后端不可用，降级为词法匹配")
			return s.scoreLexical(resume.SessionID, entities, job), nil
		}
		return nil, err
	}

	entityByID := make(map[string]types.ResumeEntity, len(entities))
	for _, e := range entities {
		entityByID[e.ID] = e
	}

	for _, req := range job.Requirements {
		reqVec, ok := reqVecs[req.ID]
		if !ok {
			continue
		}

		best := s.bestCandidate(reqVec.Values, req, entities, entityVecs)
		if best != nil && best.Score >= s.threshold {
			result.Matches = append(result.Matches, types.Match{
				RequirementID:   req.ID,
				RequirementKind: req.Kind,
				EntityID:        best.ID,
				Similarity:      best.Score,
				Weighted:        best.Score * req.Weight,
			})
			continue
		}

		if req.Kind.Required() {
			reason := fmt.Sprintf("no resume entry reached similarity threshold %.2f", s.threshold)
			if best != nil {
				reason = fmt.Sprintf("no resume entry reached similarity threshold %.2f (best %.2f)", s.threshold, best.Score)
			}
			result.Gaps = append(result.Gaps, types.Gap{Requirement: req, Reason: reason})
		}
	}

	result.Coverage = coverage(result.Matches, job)
	s.logger.Debug().
		Int("matches", len(result.Matches)).
		Int("gaps", len(result.Gaps)).
		Float64("coverage", result.Coverage).
		Msg("对齐评分完成")
	return result, nil
}

// bestCandidate 取一条要求的最佳匹配条目。
// 技能类要求先在兼容类型里找，没有达标的再放开到全部类型。
func (s *Scorer) bestCandidate(query []float64, req types.JobRequirement, entities []types.ResumeEntity, vecs map[string]types.EmbeddingVector) *embedding.Scored {
	if req.Kind.Skill() {
		compatible := make([]types.EmbeddingVector, 0, len(entities))
		for _, e := range entities {
			if skillCandidateKinds[e.Kind] {
				if v, ok := vecs[e.ID]; ok {
					compatible = append(compatible, v)
				}
			}
		}
		if top := s.index.MostSimilar(query, compatible, 1); len(top) > 0 && top[0].Score >= s.threshold {
			return &top[0]
		}
	}

	all := make([]types.EmbeddingVector, 0, len(entities))
	for _, e := range entities {
		if v, ok := vecs[e.ID]; ok {
			all = append(all, v)
		}
	}
	if top := s.index.MostSimilar(query, all, 1); len(top) > 0 {
		return &top[0]
	}
	return nil
}

// embedAll 为简历条目和岗位要求生成向量
func (s *Scorer) embedAll(ctx context.Context, entities []types.ResumeEntity, requirements []types.JobRequirement) (map[string]types.EmbeddingVector, map[string]types.EmbeddingVector, error) {
	entityItems := make([]embedding.Item, 0, len(entities))
	for _, e := range entities {
		entityItems = append(entityItems, embedding.Item{ID: e.ID, Text: e.Latest()})
	}
	entityVecs, err := s.index.Embed(ctx, entityItems)
	if err != nil {
		return nil, nil, err
	}

	reqItems := make([]embedding.Item, 0, len(requirements))
	for _, r := range requirements {
		reqItems = append(reqItems, embedding.Item{ID: r.ID, Text: r.Content})
	}
	reqVecs, err := s.index.Embed(ctx, reqItems)
	if err != nil {
		return nil, nil, err
	}
	return entityVecs, reqVecs, nil
}

// matchableEntities 返回参与匹配的条目。联系方式不参与语义匹配
func matchableEntities(resume *types.ResumeModel) []types.ResumeEntity {
	all := resume.Entities()
	out := make([]types.ResumeEntity, 0, len(all))
	for _, e := range all {
		if e.Kind == types.KindContact {
			continue
		}
		if e.Latest() == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// coverage 必备要求的匹配覆盖率，没有必备要求时为1.0
func coverage(matches []types.Match, job *types.JobModel) float64 {
	total := job.RequiredCount()
	if total == 0 {
		return 1.0
	}
	matched := 0
	for _, m := range matches {
		if m.RequirementKind.Required() {
			matched++
		}
	}
	return float64(matched) / float64(total)
}
