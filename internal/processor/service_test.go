package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor-go/internal/embedding"
	"resume-tailor-go/internal/extractor"
	"resume-tailor-go/internal/optimizer"
	"resume-tailor-go/internal/renderer"
	"resume-tailor-go/internal/scorer"
)

// downEmbedder simulates an unreachable embedding backend, pushing the
// scorer into its degraded lexical mode.
type downEmbedder struct{}

func (downEmbedder) EmbedStrings(context.Context, []string, ...einoembedding.Option) ([][]float64, error) {
	return nil, errors.New("backend unreachable")
}

const serviceResume = `Jane Doe
jane@example.com

Experience
Senior Engineer, Acme Corp (2021-03 - 2023-06)
- Led a team of 5 engineers building CI/CD pipelines, cutting release time by 60%
- Migrated workloads to Kubernetes

Skills
Go, Python`

const serviceJob = `Platform Engineer

Requirements:
- CI/CD pipeline experience
- Kubernetes
- Terraform`

func newTestService(t *testing.T) *Service {
	t.Helper()

	resumeExt, err := extractor.NewResumeExtractor(extractor.ResumeExtractorConfig{})
	require.NoError(t, err)
	jobExt := extractor.NewJobExtractor()

	idx, err := embedding.NewIndex(downEmbedder{}, embedding.NewMemoryCache(), "test-model")
	require.NoError(t, err)
	sc, err := scorer.NewScorer(idx, scorer.WithLexicalFallback(true))
	require.NoError(t, err)

	rend := renderer.NewRenderer(renderer.DefaultWrapWidth)
	opt, err := optimizer.NewOptimizer(rend.Estimator())
	require.NoError(t, err)

	svc, err := NewService(resumeExt, jobExt, sc, opt, WithRenderer(rend))
	require.NoError(t, err)
	return svc
}

func TestTailorPipeline(t *testing.T) {
	svc := newTestService(t)

	out, err := svc.Tailor(context.Background(), serviceResume, serviceJob)
	require.NoError(t, err)

	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, out.SessionID, out.Job.SessionID)

	// Embedding backend is down, so the lexical fallback kicked in.
	assert.True(t, out.Alignment.Metadata.Degraded)
	assert.NotEmpty(t, out.Alignment.Matches)

	// Terraform never appears in the resume and must surface as a gap.
	require.NotEmpty(t, out.Alignment.Gaps)
	gapContents := make([]string, 0, len(out.Alignment.Gaps))
	for _, g := range out.Alignment.Gaps {
		gapContents = append(gapContents, g.Requirement.Content)
	}
	assert.Contains(t, gapContents, "Terraform")

	require.NotNil(t, out.Optimized)
	assert.Equal(t, out.Alignment.Gaps, out.Optimized.Gaps)

	assert.Contains(t, out.Rendered, "EXPERIENCE")
	assert.Contains(t, out.Rendered, "CI/CD pipelines")
}

func TestTailorEmptyResumeFails(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Tailor(context.Background(), "", serviceJob)
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrEmptyInput)
}

func TestExtractResumeAssignsSession(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.ExtractResume(context.Background(), serviceResume)
	require.NoError(t, err)
	second, err := svc.ExtractResume(context.Background(), serviceResume)
	require.NoError(t, err)

	assert.NotEmpty(t, first.SessionID)
	assert.NotEqual(t, first.SessionID, second.SessionID, "each extraction gets its own session")
}

func TestScoreThenOptimizeStagesIndependent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resume, err := svc.ExtractResume(ctx, serviceResume)
	require.NoError(t, err)
	job, err := svc.ExtractJob(ctx, serviceJob, resume.SessionID)
	require.NoError(t, err)

	alignment, err := svc.Score(ctx, resume, job)
	require.NoError(t, err)

	before := resume.EntityCount()
	result, err := svc.Optimize(ctx, resume, alignment)
	require.NoError(t, err)

	// Optimize works on a copy, the scored model is untouched.
	assert.Equal(t, before, resume.EntityCount())
	assert.NotNil(t, result.Model)
	assert.Equal(t, resume.SessionID, result.Model.SessionID)

	// A second score over the same inputs reproduces the first.
	again, err := svc.Score(ctx, resume, job)
	require.NoError(t, err)
	assert.Equal(t, alignment, again)
}

func TestSessionWithoutStorage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Session(context.Background(), "some-session")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestRenderOptimizedOutput(t *testing.T) {
	svc := newTestService(t)

	out, err := svc.Tailor(context.Background(), serviceResume, serviceJob)
	require.NoError(t, err)

	rendered := svc.Render(out.Optimized.Model)
	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	assert.Greater(t, len(lines), 3)
	assert.Contains(t, rendered, "SKILLS")
}
