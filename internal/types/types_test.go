package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, kind EntityKind, content string) ResumeEntity {
	t.Helper()
	e, err := NewEntity(kind).Content(content).Build()
	require.NoError(t, err)
	return e
}

func TestEntityBuilderValidation(t *testing.T) {
	_, err := NewEntity(KindSkill).Content("Go").Build()
	assert.NoError(t, err)

	_, err = NewEntity(KindSkill).Build()
	assert.Error(t, err, "empty content must be rejected")

	_, err = NewEntity(EntityKind("hobby")).Content("chess").Build()
	assert.Error(t, err, "unknown kind must be rejected")
}

func TestEntityKindValid(t *testing.T) {
	for _, k := range []EntityKind{
		KindContact, KindSummary, KindExperienceBullet, KindEducation,
		KindSkill, KindCertification, KindProject, KindAchievement,
	} {
		assert.True(t, k.Valid(), "kind %s", k)
	}
	assert.False(t, EntityKind("").Valid())
	assert.False(t, EntityKind("hobby").Valid())
}

func TestEntityLatestAndRevisions(t *testing.T) {
	e := mustBuild(t, KindExperienceBullet, "Built payment service")
	assert.Equal(t, "Built payment service", e.Latest())

	now := time.Now()
	revised := e.WithRevision("Built payment service handling 1M tx/day", now)
	assert.Equal(t, "Built payment service handling 1M tx/day", revised.Latest())
	assert.Len(t, revised.Revisions, 1)

	// The original entity stays untouched.
	assert.Empty(t, e.Revisions)
	assert.Equal(t, "Built payment service", e.Latest())

	second := revised.WithRevision("Led payments platform work", now.Add(time.Minute))
	assert.Equal(t, "Led payments platform work", second.Latest())
	assert.Len(t, second.Revisions, 2)
	assert.Len(t, revised.Revisions, 1)
}

func TestEntityStartTime(t *testing.T) {
	e := mustBuild(t, KindExperienceBullet, "bullet")
	assert.True(t, e.StartTime().IsZero(), "no payload means zero time")

	e.Payload = &ExperiencePayload{StartDate: "2021-03"}
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), e.StartTime())

	e.Payload.StartDate = "2019"
	assert.Equal(t, 2019, e.StartTime().Year())

	e.Payload.StartDate = "sometime"
	assert.True(t, e.StartTime().IsZero())
}

func TestAppendEntityCanonicalOrder(t *testing.T) {
	m := NewResumeModel()
	// Append out of template order on purpose.
	m.AppendEntity(mustBuild(t, KindSkill, "Go"))
	m.AppendEntity(mustBuild(t, KindContact, "jane@example.com"))
	m.AppendEntity(mustBuild(t, KindExperienceBullet, "Shipped the thing"))
	m.AppendEntity(mustBuild(t, KindSkill, "Python"))

	require.Len(t, m.Sections, 3)
	assert.Equal(t, SectionContact, m.Sections[0].Name)
	assert.Equal(t, SectionExperience, m.Sections[1].Name)
	assert.Equal(t, SectionSkills, m.Sections[2].Name)

	skills := m.Section(SectionSkills)
	require.NotNil(t, skills)
	require.Len(t, skills.Entities, 2)
	assert.Equal(t, 0, skills.Entities[0].Position)
	assert.Equal(t, 1, skills.Entities[1].Position)

	assert.Equal(t, 4, m.EntityCount())
	assert.Len(t, m.Entities(), 4)
	assert.Nil(t, m.Section(SectionProjects))
}

func TestCloneIsDeep(t *testing.T) {
	m := NewResumeModel()
	m.SessionID = "s-1"
	e := mustBuild(t, KindExperienceBullet, "original")
	e.Payload = &ExperiencePayload{Organization: "Acme", StartDate: "2021-03"}
	e = e.WithRevision("revised", time.Now())
	m.AppendEntity(e)

	clone := m.Clone()
	require.Equal(t, m, clone)

	clone.Sections[0].Entities[0].Payload.Organization = "Other"
	clone.Sections[0].Entities[0].Revisions[0].Content = "tampered"
	clone.Sections[0].Entities[0].Content = "changed"

	got := m.Sections[0].Entities[0]
	assert.Equal(t, "Acme", got.Payload.Organization)
	assert.Equal(t, "revised", got.Revisions[0].Content)
	assert.Equal(t, "original", got.Content)
}

func TestSortChronological(t *testing.T) {
	m := NewResumeModel()
	old := mustBuild(t, KindExperienceBullet, "old role")
	old.Payload = &ExperiencePayload{StartDate: "2015-01"}
	recent := mustBuild(t, KindExperienceBullet, "recent role")
	recent.Payload = &ExperiencePayload{StartDate: "2022-06"}
	undated := mustBuild(t, KindExperienceBullet, "undated")
	m.AppendEntity(old)
	m.AppendEntity(undated)
	m.AppendEntity(recent)

	// Skills must not be reordered.
	m.AppendEntity(mustBuild(t, KindSkill, "Go"))
	m.AppendEntity(mustBuild(t, KindSkill, "Python"))

	m.SortChronological()

	exp := m.Section(SectionExperience)
	require.Len(t, exp.Entities, 3)
	assert.Equal(t, "recent role", exp.Entities[0].Content)
	assert.Equal(t, "old role", exp.Entities[1].Content)
	assert.Equal(t, "undated", exp.Entities[2].Content, "dateless entries sink, keeping order")
	for i, e := range exp.Entities {
		assert.Equal(t, i, e.Position)
	}

	skills := m.Section(SectionSkills)
	assert.Equal(t, "Go", skills.Entities[0].Content)
	assert.Equal(t, "Python", skills.Entities[1].Content)
}

func TestRequirementKindWeights(t *testing.T) {
	assert.Equal(t, 1.0, KindRequiredSkill.DefaultWeight())
	assert.Equal(t, 0.8, KindQualification.DefaultWeight())
	assert.Equal(t, 0.6, KindResponsibility.DefaultWeight())
	assert.Equal(t, 0.5, KindPreferredSkill.DefaultWeight())

	assert.True(t, KindRequiredSkill.Required())
	assert.False(t, KindPreferredSkill.Required())
	assert.True(t, KindRequiredSkill.Skill())
	assert.True(t, KindPreferredSkill.Skill())
	assert.False(t, KindQualification.Skill())
}

func TestNewJobRequirement(t *testing.T) {
	r := NewJobRequirement(KindRequiredSkill, "Go experience")
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 1.0, r.Weight)

	other := NewJobRequirement(KindRequiredSkill, "Go experience")
	assert.NotEqual(t, r.ID, other.ID)
}

func TestJobModelRequiredCount(t *testing.T) {
	j := &JobModel{Requirements: []JobRequirement{
		NewJobRequirement(KindRequiredSkill, "Go"),
		NewJobRequirement(KindPreferredSkill, "Rust"),
		NewJobRequirement(KindRequiredSkill, "SQL"),
		NewJobRequirement(KindResponsibility, "Own the service"),
	}}
	assert.Equal(t, 2, j.RequiredCount())
	assert.Equal(t, 0, (&JobModel{}).RequiredCount())
}

func TestBestMatchByEntityPrefersRequired(t *testing.T) {
	r := &AlignmentResult{Matches: []Match{
		{RequirementID: "r1", RequirementKind: KindPreferredSkill, EntityID: "e1", Weighted: 0.9},
		{RequirementID: "r2", RequirementKind: KindRequiredSkill, EntityID: "e1", Weighted: 0.5},
		{RequirementID: "r3", RequirementKind: KindRequiredSkill, EntityID: "e2", Weighted: 0.4},
		{RequirementID: "r4", RequirementKind: KindRequiredSkill, EntityID: "e2", Weighted: 0.7},
	}}

	best := r.BestMatchByEntity()
	require.Len(t, best, 2)
	// A required match beats a preferred one even with a lower weighted score.
	assert.Equal(t, "r2", best["e1"].RequirementID)
	// Within the same kind the higher weighted score wins.
	assert.Equal(t, "r4", best["e2"].RequirementID)
}

func TestMatchFor(t *testing.T) {
	r := &AlignmentResult{Matches: []Match{
		{RequirementID: "r1", EntityID: "e1"},
	}}
	require.NotNil(t, r.MatchFor("r1"))
	assert.Equal(t, "e1", r.MatchFor("r1").EntityID)
	assert.Nil(t, r.MatchFor("missing"))
}
