package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
	"resumeforge/internal/recommend"
	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelError)

type fakeAI struct {
	keywords      []types.KeywordEntry
	keywordErr    error
	keywordCalls  int
	fit           types.FitAssessmentOutput
	fitErr        error
	fitInput      types.FitAssessmentInput
	letter        types.CoverLetterOutput
	letterInput   types.CoverLetterInput
	summary       types.SummaryOutput
	generationErr error
}

func (f *fakeAI) ExtractKeywords(ctx context.Context, input types.KeywordExtractionInput) ([]types.KeywordEntry, *ai.TokenUsage, error) {
	f.keywordCalls++
	return f.keywords, &ai.TokenUsage{TotalTokens: 100}, f.keywordErr
}

func (f *fakeAI) AssessFit(ctx context.Context, input types.FitAssessmentInput) (types.FitAssessmentOutput, *ai.TokenUsage, error) {
	f.fitInput = input
	return f.fit, &ai.TokenUsage{TotalTokens: 50}, f.fitErr
}

func (f *fakeAI) GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
	f.letterInput = input
	return f.letter, nil, f.generationErr
}

func (f *fakeAI) GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *ai.TokenUsage, error) {
	return f.summary, nil, f.generationErr
}

// memCache is an in-memory KeywordCache
type memCache struct {
	data   map[string][]types.KeywordEntry
	getErr error
	sets   int
}

func (m *memCache) Get(ctx context.Context, key string) ([]types.KeywordEntry, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, entries []types.KeywordEntry) error {
	m.sets++
	m.data[key] = entries
	return nil
}

func (m *memCache) Close() error { return nil }

func kw(term string, cat types.KeywordCategory, imp types.Importance) types.KeywordEntry {
	return types.KeywordEntry{Term: term, Category: cat, Importance: imp, Variations: []string{}, Contexts: []string{}}
}

var sampleKeywords = []types.KeywordEntry{
	kw("Go", types.CategorySkill, types.ImportanceRequired),
	kw("Kubernetes", types.CategoryTool, types.ImportanceRequired),
	kw("Terraform", types.CategoryTool, types.ImportancePreferred),
	kw("Rust", types.CategorySkill, types.ImportanceNiceToHave),
}

const sampleResume = `Jane Doe
jane@example.com | +1 555 0100 | Berlin

Summary
Backend engineer building Go services on Kubernetes.

Experience
Senior Engineer at Acme | 2020 - Present
- Cut deploy time by 40% with Go tooling on Kubernetes

Education
BSc Computer Science, TU Berlin

Skills
Go, Kubernetes, PostgreSQL`

func sampleRequest() types.AnalysisRequest {
	return types.AnalysisRequest{
		ResumeText:     sampleResume,
		JobTitle:       "Platform Engineer",
		JobCompany:     "Globex",
		JobDescription: "Run Go services on Kubernetes. Terraform preferred.",
	}
}

func newTestPipeline(f *fakeAI, c *memCache) *Pipeline {
	var p *Pipeline
	if c == nil {
		p = New(f, nil, testLogger)
	} else {
		p = New(f, c, testLogger)
	}
	p.newID = func() string { return "analysis-1" }
	return p
}

func TestAnalyze(t *testing.T) {
	f := &fakeAI{
		keywords: sampleKeywords,
		fit: types.FitAssessmentOutput{
			Summary: types.FitSummary{Strengths: []string{"Go depth"}, OverallFit: " Strong match "},
			Recommendations: []types.Recommendation{{
				Type:            types.RecommendationKeyword,
				Priority:        types.PriorityMedium,
				SuggestedText:   "Mention Terraform modules you wrote",
				Reason:          "Posting prefers Terraform",
				EstimatedImpact: 8,
			}},
		},
	}
	p := newTestPipeline(f, nil)

	res, usage, err := p.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "analysis-1", res.AnalysisID)
	assert.Equal(t, []string{"Go", "Kubernetes"}, res.MatchedKeywords)
	assert.Equal(t, []string{"Terraform", "Rust"}, res.MissingKeywords)
	assert.Len(t, res.ExtractedKeywords, 4)
	assert.GreaterOrEqual(t, res.ATSScore, 0)
	assert.LessOrEqual(t, res.ATSScore, 100)

	assert.Equal(t, "Strong match", res.Summary.OverallFit)
	assert.NotNil(t, res.Summary.Weaknesses)
	assert.NotEmpty(t, res.Recommendations)
	assert.True(t, recommend.IsOrdered(res.Recommendations))

	assert.Equal(t, res.ATSScore, f.fitInput.ATSScore)
	assert.Equal(t, sampleResume, f.fitInput.ResumeText)
	assert.Equal(t, "Globex", f.fitInput.Job.Company)

	require.NotNil(t, usage)
	assert.Equal(t, int64(150), usage.TotalTokens)
}

func TestAnalyzeWithoutRecommendations(t *testing.T) {
	no := false
	req := sampleRequest()
	req.IncludeRecommendations = &no

	res, _, err := newTestPipeline(&fakeAI{keywords: sampleKeywords}, nil).Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Recommendations)
}

func TestAnalyzeFlatResumeData(t *testing.T) {
	req := sampleRequest()
	req.ResumeText = ""
	req.ResumeData = map[string]string{
		"rms_contact_name":            "Jane Doe",
		"rms_experience_count":        "1",
		"rms_experience_0_company":    "Acme",
		"rms_experience_0_title":      "Go Engineer",
		"rms_experience_0_highlights": "Ran Kubernetes clusters",
	}
	f := &fakeAI{keywords: sampleKeywords}

	res, _, err := newTestPipeline(f, nil).Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.MatchedKeywords, "Kubernetes")
	assert.Contains(t, f.fitInput.ResumeText, "Acme")
}

func TestAnalyzeValidation(t *testing.T) {
	score := 120
	tests := []struct {
		name   string
		mutate func(*types.AnalysisRequest)
	}{
		{"no resume", func(r *types.AnalysisRequest) { r.ResumeText = "  " }},
		{"two resumes", func(r *types.AnalysisRequest) { r.ResumeData = map[string]string{"rms_contact_name": "x"} }},
		{"no title", func(r *types.AnalysisRequest) { r.JobTitle = "" }},
		{"no description", func(r *types.AnalysisRequest) { r.JobDescription = "\n" }},
		{"score out of range", func(r *types.AnalysisRequest) { r.TargetATSScore = &score }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAI{keywords: sampleKeywords}
			req := sampleRequest()
			tt.mutate(&req)

			_, _, err := newTestPipeline(f, nil).Analyze(context.Background(), req)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)
			assert.Equal(t, 0, f.keywordCalls)
		})
	}
}

func TestAnalyzeRemoteFailures(t *testing.T) {
	t.Run("extraction error passes through", func(t *testing.T) {
		f := &fakeAI{keywordErr: errors.NewExtractionError(errors.ErrCodeKeywordShortfall, "too few", nil)}
		_, _, err := newTestPipeline(f, nil).Analyze(context.Background(), sampleRequest())
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeKeywordShortfall, appErr.Code)
	})

	t.Run("fit failure becomes extraction failure", func(t *testing.T) {
		f := &fakeAI{keywords: sampleKeywords, fitErr: errors.NewAIError(errors.ErrCodeAITimeout, "slow", nil)}
		res, _, err := newTestPipeline(f, nil).Analyze(context.Background(), sampleRequest())
		assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
		assert.Equal(t, 502, errors.HTTPStatus(err))
		assert.Empty(t, res.AnalysisID, "no partial results")
	})
}

func TestAnalyzeKeywordCache(t *testing.T) {
	c := &memCache{data: map[string][]types.KeywordEntry{}}
	f := &fakeAI{keywords: sampleKeywords}
	p := newTestPipeline(f, c)

	var hits []bool
	p.SetCacheObserver(func(_ context.Context, hit bool) { hits = append(hits, hit) })

	_, _, err := p.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	_, _, err = p.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, f.keywordCalls)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, []bool{false, true}, hits)

	c.getErr = fmt.Errorf("redis down")
	_, _, err = p.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err, "cache failures must not fail the request")
	assert.Equal(t, 2, f.keywordCalls)
}

func TestAnalyzeKeywordCacheSeparatesTargetScores(t *testing.T) {
	c := &memCache{data: map[string][]types.KeywordEntry{}}
	f := &fakeAI{keywords: sampleKeywords}
	p := newTestPipeline(f, c)

	target := 90
	withTarget := sampleRequest()
	withTarget.TargetATSScore = &target

	_, _, err := p.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	_, _, err = p.Analyze(context.Background(), withTarget)
	require.NoError(t, err)
	_, _, err = p.Analyze(context.Background(), withTarget)
	require.NoError(t, err)

	assert.Equal(t, 2, f.keywordCalls)
	assert.Len(t, c.data, 2)
}

func TestAnalyzeIgnoresUndersizedCacheEntry(t *testing.T) {
	req := sampleRequest()
	req.JobDescription = strings.Repeat("operate distributed systems ", 20)

	c := &memCache{data: map[string][]types.KeywordEntry{}}
	f := &fakeAI{keywords: sampleKeywords}
	p := newTestPipeline(f, c)

	_, _, _ = p.Analyze(context.Background(), req)
	_, _, _ = p.Analyze(context.Background(), req)
	assert.Equal(t, 2, f.keywordCalls, "cached lists below the minimum are re-extracted")
}

func TestRunStageRecoversPanics(t *testing.T) {
	p := newTestPipeline(&fakeAI{}, nil)

	_, err := runStage(p, "score", func() int {
		var m map[string]int
		m["x"] = 1
		return 0
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProcessing))
	assert.Equal(t, 500, errors.HTTPStatus(err))
	appErr, _ := errors.AsAppError(err)
	assert.Equal(t, "score", appErr.Context["stage"])

	v, err := runStage(p, "ok", func() int { return 7 })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
