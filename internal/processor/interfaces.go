package processor

import (
	"context"

	"resume-tailor-go/internal/optimizer"
	"resume-tailor-go/internal/types"
)

// ResumeExtractor 简历抽取契约。规则抽取器和LLM抽取器都实现它
type ResumeExtractor interface {
	ExtractResume(ctx context.Context, rawText string) (*types.ResumeModel, error)
}

// JobExtractor 岗位描述抽取契约
type JobExtractor interface {
	ExtractJob(ctx context.Context, rawText string) (*types.JobModel, error)
}

// AlignmentScorer 对齐评分契约
type AlignmentScorer interface {
	Score(ctx context.Context, resume *types.ResumeModel, job *types.JobModel) (*types.AlignmentResult, error)
}

// ResumeOptimizer 预算内优化契约
type ResumeOptimizer interface {
	Optimize(resume *types.ResumeModel, alignment *types.AlignmentResult) (*optimizer.Result, error)
}

// ResumeRenderer 纯文本渲染契约
type ResumeRenderer interface {
	Render(model *types.ResumeModel) string
}
