package optimizer

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// DefaultPageBudgetLines 默认单页预算（估算行数）
const DefaultPageBudgetLines = 48

// LengthEstimator 条目渲染长度的估算器。
// 实现必须单调：内容更长的条目估算行数不能更少
type LengthEstimator interface {
	EstimateLines(entity types.ResumeEntity) int
}

// Result 优化产物。Model是输入的深拷贝，输入模型不被修改
type Result struct {
	Model *types.ResumeModel `json:"model"`
	// Gaps 未被任何条目覆盖的必备要求，原样透传，不伪造内容去填补
	Gaps []types.Gap `json:"gaps"`
	// DroppedEntityIDs 为满足页面预算被裁掉的条目ID
	DroppedEntityIDs []string `json:"dropped_entity_ids,omitempty"`
	// EstimatedLines 裁剪后的估算总行数
	EstimatedLines int `json:"estimated_lines"`
	// WithinBudget 为false表示必备内容本身已超预算，结果是尽力而为
	WithinBudget bool `json:"within_budget"`
}

// Optimizer 在单页预算内重排并裁剪简历条目。
// 匹配到必备要求的条目永不被裁，未匹配条目最先被裁
type Optimizer struct {
	estimator LengthEstimator
	budget    int
	logger    zerolog.Logger
}

// Option 优化器的可选配置
type Option func(*Optimizer)

// WithPageBudget 覆盖默认页面预算（行数）
func WithPageBudget(lines int) Option {
	return func(o *Optimizer) {
		if lines > 0 {
			o.budget = lines
		}
	}
}

// NewOptimizer 创建优化器
func NewOptimizer(estimator LengthEstimator, opts ...Option) (*Optimizer, error) {
	if estimator == nil {
		return nil, fmt.Errorf("length estimator 不能为空")
	}
	o := &Optimizer{
		estimator: estimator,
		budget:    DefaultPageBudgetLines,
		logger:    logger.Logger.With().Str("component", "optimizer").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// PageBudget 返回当前生效的页面预算
func (o *Optimizer) PageBudget() int {
	return o.budget
}

// 条目优先级类别
const (
	classUnmatched     = 0 // 未匹配任何要求，最先被裁
	classMatched       = 1 // 匹配到非必备要求
	classRequiredMatch = 2 // 匹配到必备要求，永不被裁
)

// entityClass 条目的保留优先级
func entityClass(best map[string]types.Match, entityID string) int {
	m, ok := best[entityID]
	if !ok {
		return classUnmatched
	}
	if m.RequirementKind.Required() {
		return classRequiredMatch
	}
	return classMatched
}

// Optimize 生成预算内的优化简历。
// 规则依次是：必备匹配条目按加权分降序置顶（稳定排序），
// 其余匹配条目次之，未匹配条目殿后并最先被裁；
// 原本非空的段落至少保留一条
func (o *Optimizer) Optimize(resume *types.ResumeModel, alignment *types.AlignmentResult) (*Result, error) {
	if resume == nil {
		return nil, fmt.Errorf("简历模型不能为空")
	}

	best := map[string]types.Match{}
	var gaps []types.Gap
	if alignment != nil {
		best = alignment.BestMatchByEntity()
		gaps = append(gaps, alignment.Gaps...)
	}

	work := resume.Clone()
	for si := range work.Sections {
		entities := work.Sections[si].Entities
		sort.SliceStable(entities, func(a, b int) bool {
			ca, cb := entityClass(best, entities[a].ID), entityClass(best, entities[b].ID)
			if ca != cb {
				return ca > cb
			}
			if ca == classUnmatched {
				// 未匹配条目之间保持原始顺序
				return false
			}
			return best[entities[a].ID].Weighted > best[entities[b].ID].Weighted
		})
	}

	total := 0
	for _, e := range work.Entities() {
		total += o.estimator.EstimateLines(e)
	}

	var dropped []string
	for total > o.budget {
		si, ei := o.dropCandidate(work, best)
		if si < 0 {
			break
		}
		victim := work.Sections[si].Entities[ei]
		total -= o.estimator.EstimateLines(victim)
		work.Sections[si].Entities = append(work.Sections[si].Entities[:ei], work.Sections[si].Entities[ei+1:]...)
		dropped = append(dropped, victim.ID)
	}

	for si := range work.Sections {
		for ei := range work.Sections[si].Entities {
			work.Sections[si].Entities[ei].Position = ei
		}
	}

	withinBudget := total <= o.budget
	if !withinBudget {
		o.logger.Warn().
			Int("estimated_lines", total).
			Int("budget", o.budget).
			Msg("必备内容超出页面预算，返回尽力而为的结果")
	}

	return &Result{
		Model:            work,
		Gaps:             gaps,
		DroppedEntityIDs: dropped,
		EstimatedLines:   total,
		WithinBudget:     withinBudget,
	}, nil
}

// dropCandidate 选出下一个被裁条目的位置。
// 优先级最低、加权分最低、越靠文末的先被裁；
// 匹配必备要求的条目和段落里仅剩的最后一条不参与裁剪。
// 没有可裁条目时返回 (-1, -1)
func (o *Optimizer) dropCandidate(work *types.ResumeModel, best map[string]types.Match) (int, int) {
	bestSection, bestEntity := -1, -1
	bestClass := classRequiredMatch
	bestWeighted := 0.0

	for si := range work.Sections {
		entities := work.Sections[si].Entities
		if len(entities) <= 1 {
			continue
		}
		for ei := range entities {
			class := entityClass(best, entities[ei].ID)
			if class == classRequiredMatch {
				continue
			}
			weighted := best[entities[ei].ID].Weighted
			better := false
			switch {
			case bestSection < 0:
				better = true
			case class != bestClass:
				better = class < bestClass
			case weighted != bestWeighted:
				better = weighted < bestWeighted
			default:
				// 同类同分时裁文末的，>= 保证遍历中靠后者胜出
				better = true
			}
			if better {
				bestSection, bestEntity = si, ei
				bestClass, bestWeighted = class, weighted
			}
		}
	}
	return bestSection, bestEntity
}
