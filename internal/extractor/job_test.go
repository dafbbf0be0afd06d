package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor-go/internal/types"
)

const sampleJob = `Senior Platform Engineer
Company: ExampleCorp

Responsibilities:
- Operate the deployment platform
- Own incident response

Requirements:
- CI/CD pipeline experience
- Kubernetes
- 5+ years of experience in infrastructure

Nice to have:
- Terraform`

func TestExtractJobStructure(t *testing.T) {
	e := NewJobExtractor()
	model, err := e.ExtractJob(context.Background(), sampleJob)
	require.NoError(t, err)

	assert.Equal(t, "Senior Platform Engineer", model.Title)
	assert.Equal(t, "ExampleCorp", model.Company)
	assert.Equal(t, "senior", model.Seniority)

	require.Len(t, model.Requirements, 6)
	kinds := make([]types.RequirementKind, 0, len(model.Requirements))
	for _, r := range model.Requirements {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []types.RequirementKind{
		types.KindResponsibility,
		types.KindResponsibility,
		types.KindRequiredSkill,
		types.KindRequiredSkill,
		types.KindQualification,
		types.KindPreferredSkill,
	}, kinds)

	assert.Equal(t, 2, model.RequiredCount())
}

func TestExtractJobWeights(t *testing.T) {
	e := NewJobExtractor()
	model, err := e.ExtractJob(context.Background(), sampleJob)
	require.NoError(t, err)

	byContent := make(map[string]types.JobRequirement)
	for _, r := range model.Requirements {
		byContent[r.Content] = r
	}

	assert.InDelta(t, 1.0, byContent["Kubernetes"].Weight, 1e-9)
	assert.InDelta(t, 0.8, byContent["5+ years of experience in infrastructure"].Weight, 1e-9)
	assert.InDelta(t, 0.6, byContent["Operate the deployment platform"].Weight, 1e-9)
	assert.InDelta(t, 0.5, byContent["Terraform"].Weight, 1e-9)
}

func TestExtractJobQualificationReclassified(t *testing.T) {
	e := NewJobExtractor()
	model, err := e.ExtractJob(context.Background(), "Requirements:\n- Bachelor degree in CS\n- Go")
	require.NoError(t, err)

	require.Len(t, model.Requirements, 2)
	assert.Equal(t, types.KindQualification, model.Requirements[0].Kind)
	assert.Equal(t, types.KindRequiredSkill, model.Requirements[1].Kind)
}

func TestExtractJobNoHeadersFallback(t *testing.T) {
	e := NewJobExtractor()
	model, err := e.ExtractJob(context.Background(), "Backend Developer")
	require.NoError(t, err)

	// Only a title line: the whole text still yields one required entry.
	assert.Equal(t, "Backend Developer", model.Title)
	require.Len(t, model.Requirements, 1)
	assert.Equal(t, types.KindRequiredSkill, model.Requirements[0].Kind)
}

func TestExtractJobEmptyInput(t *testing.T) {
	e := NewJobExtractor()

	_, err := e.ExtractJob(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestExtractJobUniqueRequirementIDs(t *testing.T) {
	e := NewJobExtractor()
	model, err := e.ExtractJob(context.Background(), sampleJob)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range model.Requirements {
		assert.NotEmpty(t, r.ID)
		assert.False(t, seen[r.ID], "requirement IDs must be unique")
		seen[r.ID] = true
	}
}
