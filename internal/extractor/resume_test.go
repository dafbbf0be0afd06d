package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor-go/internal/types"
)

const sampleResume = `Jane Doe
jane@example.com
+1 555 123 4567

Experience
Senior Engineer, Acme Corp (2021-03 - 2023-06)
- Led a team of 5 engineers building CI/CD pipelines, cutting release time by 60%
- Migrated workloads to Kubernetes

Engineer at Widgets Inc (2018-01 - 2021-02)
- Built REST APIs in Go

Education
B.S. Computer Science, State University (2014 - 2018)

Skills
Languages: Go, Python
Tools: Docker; Jenkins

Certifications
AWS Certified Solutions Architect`

func newResumeExtractor(t *testing.T) *ResumeExtractor {
	t.Helper()
	e, err := NewResumeExtractor(ResumeExtractorConfig{})
	require.NoError(t, err)
	return e
}

func TestExtractResumeSections(t *testing.T) {
	e := newResumeExtractor(t)
	model, err := e.ExtractResume(context.Background(), sampleResume)
	require.NoError(t, err)

	contact := model.Section(types.SectionContact)
	require.NotNil(t, contact)
	assert.Len(t, contact.Entities, 2)

	// The name line has no contact pattern and falls back to summary.
	summary := model.Section(types.SectionSummary)
	require.NotNil(t, summary)
	assert.Equal(t, "Jane Doe", summary.Entities[0].Content)

	experience := model.Section(types.SectionExperience)
	require.NotNil(t, experience)
	assert.Len(t, experience.Entities, 5)

	skills := model.Section(types.SectionSkills)
	require.NotNil(t, skills)
	var skillTexts []string
	for _, s := range skills.Entities {
		skillTexts = append(skillTexts, s.Content)
	}
	assert.ElementsMatch(t, []string{"Go", "Python", "Docker", "Jenkins"}, skillTexts)

	certs := model.Section(types.SectionCertifications)
	require.NotNil(t, certs)
	require.Len(t, certs.Entities, 1)
	assert.Equal(t, "AWS Certified Solutions Architect", certs.Entities[0].Content)
}

func TestExtractResumeRolePayload(t *testing.T) {
	e := newResumeExtractor(t)
	model, err := e.ExtractResume(context.Background(), sampleResume)
	require.NoError(t, err)

	experience := model.Section(types.SectionExperience)
	require.NotNil(t, experience)

	first := experience.Entities[0]
	require.NotNil(t, first.Payload)
	assert.Equal(t, "Senior Engineer", first.Payload.Title)
	assert.Equal(t, "Acme Corp", first.Payload.Organization)
	assert.Equal(t, "2021-03", first.Payload.StartDate)
	assert.Equal(t, "2023-06", first.Payload.EndDate)

	// Bullets under a role line inherit its payload.
	second := experience.Entities[1]
	require.NotNil(t, second.Payload)
	assert.Equal(t, "Acme Corp", second.Payload.Organization)
}

func TestExtractResumeChronologicalOrder(t *testing.T) {
	e := newResumeExtractor(t)

	// Oldest role listed first in the input.
	text := `Experience
Engineer at Widgets Inc (2015-01 - 2017-12)
- Old work

Senior Engineer, Acme Corp (2021-03 - 2023-06)
- Recent work`
	model, err := e.ExtractResume(context.Background(), text)
	require.NoError(t, err)

	experience := model.Section(types.SectionExperience)
	require.NotNil(t, experience)
	require.NotNil(t, experience.Entities[0].Payload)
	assert.Equal(t, "Acme Corp", experience.Entities[0].Payload.Organization,
		"experience must be ordered reverse-chronologically")
}

func TestExtractResumeEducationDates(t *testing.T) {
	e := newResumeExtractor(t)
	model, err := e.ExtractResume(context.Background(), sampleResume)
	require.NoError(t, err)

	education := model.Section(types.SectionEducation)
	require.NotNil(t, education)
	require.Len(t, education.Entities, 1)
	require.NotNil(t, education.Entities[0].Payload)
	assert.Equal(t, "2014", education.Entities[0].Payload.StartDate)
	assert.Equal(t, "2018", education.Entities[0].Payload.EndDate)
}

func TestExtractResumeEmptyInput(t *testing.T) {
	e := newResumeExtractor(t)

	_, err := e.ExtractResume(context.Background(), "   \n\t  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestExtractResumeNoHeadersFallback(t *testing.T) {
	e := newResumeExtractor(t)

	text := "Freelance consultant reachable at jane@example.com, open to new roles."
	model, err := e.ExtractResume(context.Background(), text)
	require.NoError(t, err)

	// The whole text survives as one summary entity, nothing is lost.
	summary := model.Section(types.SectionSummary)
	require.NotNil(t, summary)
	require.Len(t, summary.Entities, 1)
	assert.Equal(t, text, summary.Entities[0].Content)

	contact := model.Section(types.SectionContact)
	require.NotNil(t, contact)
	assert.Equal(t, "jane@example.com", contact.Entities[0].Content)
}

func TestExtractResumeCustomSectionRegex(t *testing.T) {
	e, err := NewResumeExtractor(ResumeExtractorConfig{
		CustomSectionRegexMap: map[types.SectionName]string{
			types.SectionSkills: `(?i)^(toolbox)\b`,
		},
	})
	require.NoError(t, err)

	model, err := e.ExtractResume(context.Background(), "Toolbox\nGo, Rust")
	require.NoError(t, err)

	skills := model.Section(types.SectionSkills)
	require.NotNil(t, skills)
	assert.Len(t, skills.Entities, 2)
}

func TestParseDateRange(t *testing.T) {
	testCases := []struct {
		name       string
		line       string
		start, end string
	}{
		{"month precision", "2019-03 - 2022-06", "2019-03", "2022-06"},
		{"year only", "2014 - 2018", "2014", "2018"},
		{"open ended", "2020-07 - Present", "2020-07", "Present"},
		{"single digit month", "2020-7 to 2021-1", "2020-07", "2021-01"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := parseDateRange(tc.line)
			require.NotNil(t, payload)
			assert.Equal(t, tc.start, payload.StartDate)
			assert.Equal(t, tc.end, payload.EndDate)
		})
	}

	assert.Nil(t, parseDateRange("no dates here"))
}
