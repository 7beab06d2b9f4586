package scoring

import (
	"math"
	"testing"

	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateATSScore(t *testing.T) {
	tests := []struct {
		name      string
		breakdown types.ScoreBreakdown
		want      int
	}{
		{
			name:      "weighted example",
			breakdown: types.ScoreBreakdown{KeywordMatch: 80, SkillsAlignment: 70, ExperienceRelevance: 60, EducationMatch: 100, Formatting: 90},
			want:      76,
		},
		{
			name:      "all zero",
			breakdown: types.ScoreBreakdown{},
			want:      0,
		},
		{
			name:      "all hundred",
			breakdown: types.ScoreBreakdown{KeywordMatch: 100, SkillsAlignment: 100, ExperienceRelevance: 100, EducationMatch: 100, Formatting: 100},
			want:      100,
		},
		{
			name:      "half rounds up",
			breakdown: types.ScoreBreakdown{KeywordMatch: 50, SkillsAlignment: 50, ExperienceRelevance: 50, EducationMatch: 50, Formatting: 60},
			want:      51, // 50.5
		},
		{
			name:      "out of range inputs are clamped",
			breakdown: types.ScoreBreakdown{KeywordMatch: 250, SkillsAlignment: -40, ExperienceRelevance: 100, EducationMatch: 100, Formatting: 100},
			want:      75,
		},
		{
			name:      "NaN counts as zero",
			breakdown: types.ScoreBreakdown{KeywordMatch: math.NaN(), SkillsAlignment: 100, ExperienceRelevance: 100, EducationMatch: 100, Formatting: 100},
			want:      60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateATSScore(tt.breakdown))
		})
	}
}

func TestCalculateATSScoreIsPureAndBounded(t *testing.T) {
	values := []float64{0, 0.4, 12.5, 33.3, 49.9, 50, 66.6, 99.5, 100}
	for _, km := range values {
		for _, sa := range values {
			for _, er := range values {
				b := types.ScoreBreakdown{KeywordMatch: km, SkillsAlignment: sa, ExperienceRelevance: er, EducationMatch: km, Formatting: sa}
				first := CalculateATSScore(b)
				require.Equal(t, first, CalculateATSScore(b))
				require.GreaterOrEqual(t, first, 0)
				require.LessOrEqual(t, first, 100)
			}
		}
	}
}

func TestMatchKeywords(t *testing.T) {
	text := "Built services in Go and C++; deployed on Kubernetes (k8s). Familiar with Node.js and CI/CD pipelines."
	entries := []types.KeywordEntry{
		{Term: "Go", Importance: types.ImportanceRequired},
		{Term: "c++", Importance: types.ImportanceRequired},
		{Term: "Kubernetes", Importance: types.ImportanceRequired},
		{Term: "Container Orchestration", Variations: []string{"K8s"}, Importance: types.ImportancePreferred},
		{Term: "node.js", Importance: types.ImportancePreferred},
		{Term: "CI/CD", Importance: types.ImportancePreferred},
		{Term: "Rust", Importance: types.ImportanceNiceToHave},
		{Term: "Golang", Importance: types.ImportanceNiceToHave},
		{Term: "deploy", Importance: types.ImportanceNiceToHave},
	}

	m := MatchKeywords(text, entries)

	assert.Equal(t, []string{"Go", "c++", "Kubernetes", "Container Orchestration", "node.js", "CI/CD"}, Terms(m.Matched))
	assert.Equal(t, []string{"Rust", "Golang", "deploy"}, Terms(m.Missing))
}

func TestMatchKeywordsEmpty(t *testing.T) {
	m := MatchKeywords("anything", nil)
	assert.NotNil(t, m.Matched)
	assert.NotNil(t, m.Missing)
	assert.False(t, NewTextIndex("some text").Contains("   "))
}

func sampleKeywords() []types.KeywordEntry {
	return []types.KeywordEntry{
		{Term: "Go", Category: types.CategorySkill, Importance: types.ImportanceRequired},
		{Term: "PostgreSQL", Category: types.CategoryTool, Importance: types.ImportanceRequired},
		{Term: "Kafka", Category: types.CategoryTool, Importance: types.ImportancePreferred},
		{Term: "Computer Science", Category: types.CategoryQualification, Importance: types.ImportancePreferred},
		{Term: "Mentoring", Category: types.CategorySoftSkill, Importance: types.ImportanceNiceToHave},
	}
}

func sampleResume() types.ResumeRecord {
	return types.ResumeRecord{
		Contact: types.ContactInfo{Name: "Jane Doe", Email: "jane@example.com", Phone: "+1 555 010 9999"},
		Summary: "Backend engineer.",
		Experience: []types.Experience{
			{Company: "Acme", Title: "Senior Engineer", Description: "Built Go services on PostgreSQL.", Highlights: []string{"Cut latency by 40%"}},
		},
		Education:       []types.Education{{Institution: "State University", Degree: "B.Sc.", Field: "Computer Science"}},
		SkillCategories: []types.SkillCategory{{Name: "Languages", Skills: []string{"Go", "SQL"}}},
	}
}

func TestScore(t *testing.T) {
	res := Score(sampleResume(), "", sampleKeywords())

	assert.Equal(t, []string{"Go", "PostgreSQL", "Computer Science"}, Terms(res.Matched))
	assert.Equal(t, []string{"Kafka", "Mentoring"}, Terms(res.Missing))

	// matched weights 3+3+2 of 3+3+2+2+1
	assert.InDelta(t, 72.7, res.Breakdown.KeywordMatch, 0.05)
	// skills section only lists Go: 3 of 3+3+2
	assert.InDelta(t, 37.5, res.Breakdown.SkillsAlignment, 0.05)
	// experience mentions Go and PostgreSQL: 85*(6/10) plus one quantified highlight
	assert.InDelta(t, 54, res.Breakdown.ExperienceRelevance, 0.05)
	assert.InDelta(t, 100, res.Breakdown.EducationMatch, 0.05)
	assert.Equal(t, CalculateATSScore(res.Breakdown), res.Overall)
}

func TestScoreSubScoresStayInRange(t *testing.T) {
	records := []types.ResumeRecord{{}, sampleResume()}
	keywordSets := [][]types.KeywordEntry{nil, sampleKeywords()}

	for _, rec := range records {
		for _, kws := range keywordSets {
			res := Score(rec, "", kws)
			for _, v := range []float64{
				res.Breakdown.KeywordMatch, res.Breakdown.SkillsAlignment,
				res.Breakdown.ExperienceRelevance, res.Breakdown.EducationMatch, res.Breakdown.Formatting,
			} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
			assert.NotNil(t, res.Matched)
			assert.NotNil(t, res.Missing)
		}
	}
}

func TestFormattingRewardsSections(t *testing.T) {
	empty := Score(types.ResumeRecord{}, "", nil)
	full := Score(sampleResume(), "", nil)

	assert.Less(t, empty.Breakdown.Formatting, full.Breakdown.Formatting)
	assert.Equal(t, 0.0, empty.Breakdown.Formatting)
}
