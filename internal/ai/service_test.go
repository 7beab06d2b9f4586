package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider returns queued keyword responses in order
type mockProvider struct {
	keywordResponses []keywordResponse
	keywordCalls     int
	lastInput        types.KeywordExtractionInput
	deadlineSeen     bool
	closed           bool
}

type keywordResponse struct {
	out types.KeywordExtractionOutput
	err error
}

func (m *mockProvider) ExtractKeywords(ctx context.Context, input types.KeywordExtractionInput) (types.KeywordExtractionOutput, *TokenUsage, error) {
	_, m.deadlineSeen = ctx.Deadline()
	m.lastInput = input
	resp := m.keywordResponses[min(m.keywordCalls, len(m.keywordResponses)-1)]
	m.keywordCalls++
	return resp.out, &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, resp.err
}

func (m *mockProvider) AssessFit(ctx context.Context, input types.FitAssessmentInput) (types.FitAssessmentOutput, *TokenUsage, error) {
	return types.FitAssessmentOutput{Summary: types.FitSummary{OverallFit: "good"}}, nil, nil
}

func (m *mockProvider) GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *TokenUsage, error) {
	return types.CoverLetterOutput{CoverLetter: "Dear team"}, nil, nil
}

func (m *mockProvider) GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *TokenUsage, error) {
	return types.SummaryOutput{Summary: "Engineer"}, nil, nil
}

func (m *mockProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{Name: "mock", Available: true}
}

func (m *mockProvider) Close() error {
	m.closed = true
	return nil
}

func keywordsOf(n int) []types.KeywordEntry {
	out := make([]types.KeywordEntry, n)
	for i := range out {
		out[i] = types.KeywordEntry{
			Term:       fmt.Sprintf("term-%d", i),
			Category:   types.CategorySkill,
			Importance: types.ImportanceRequired,
		}
	}
	return out
}

func newMockService(m *mockProvider) *Service {
	providers := map[config.Operation]AIProvider{}
	configs := map[config.Operation]config.OperationAIConfig{}
	for _, op := range config.Operations {
		providers[op] = m
		configs[op] = config.OperationAIConfig{Model: "mock-" + string(op), Timeout: timePtr(5 * time.Second)}
	}
	return NewServiceWithProviders(providers, configs, testLogger)
}

var longDescription = strings.Repeat("design build operate scale ", 15)

func TestExtractKeywords(t *testing.T) {
	badCategory := keywordsOf(30)
	badCategory[3].Category = "hobby"

	tests := []struct {
		name        string
		description string
		responses   []keywordResponse
		wantCount   int
		wantCalls   int
		wantCode    string
	}{
		{
			name:        "long description with enough keywords",
			description: longDescription,
			responses:   []keywordResponse{{out: types.KeywordExtractionOutput{Keywords: keywordsOf(30)}}},
			wantCount:   30,
			wantCalls:   1,
		},
		{
			name:        "short description accepts few keywords",
			description: "Go developer wanted",
			responses:   []keywordResponse{{out: types.KeywordExtractionOutput{Keywords: keywordsOf(3)}}},
			wantCount:   3,
			wantCalls:   1,
		},
		{
			name:        "shortfall then success",
			description: longDescription,
			responses: []keywordResponse{
				{out: types.KeywordExtractionOutput{Keywords: keywordsOf(10)}},
				{out: types.KeywordExtractionOutput{Keywords: keywordsOf(25)}},
			},
			wantCount: 25,
			wantCalls: 2,
		},
		{
			name:        "shortfall twice fails",
			description: longDescription,
			responses:   []keywordResponse{{out: types.KeywordExtractionOutput{Keywords: keywordsOf(24)}}},
			wantCalls:   2,
			wantCode:    errors.ErrCodeKeywordShortfall,
		},
		{
			name:        "invalid category twice fails",
			description: longDescription,
			responses:   []keywordResponse{{out: types.KeywordExtractionOutput{Keywords: badCategory}}},
			wantCalls:   2,
			wantCode:    errors.ErrCodeSchemaInvalid,
		},
		{
			name:        "unparseable response is retried",
			description: longDescription,
			responses: []keywordResponse{
				{err: errors.NewAIError(errors.ErrCodeAIResponseParse, "bad json", nil)},
				{out: types.KeywordExtractionOutput{Keywords: keywordsOf(26)}},
			},
			wantCount: 26,
			wantCalls: 2,
		},
		{
			name:        "remote failure is not retried",
			description: longDescription,
			responses:   []keywordResponse{{err: errors.NewAIError(errors.ErrCodeAIServiceFailed, "503", nil)}},
			wantCalls:   1,
			wantCode:    errors.ErrCodeExtractionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockProvider{keywordResponses: tt.responses}
			svc := newMockService(m)

			keywords, usage, err := svc.ExtractKeywords(context.Background(), types.KeywordExtractionInput{
				Job: types.JobPosting{Title: "Engineer", Description: tt.description},
			})

			assert.Equal(t, tt.wantCalls, m.keywordCalls)
			assert.True(t, m.deadlineSeen, "provider should receive the operation timeout")
			require.NotNil(t, usage)
			assert.Equal(t, int64(15*tt.wantCalls), usage.TotalTokens)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
				appErr, _ := errors.AsAppError(err)
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Nil(t, keywords)
				return
			}
			require.NoError(t, err)
			assert.Len(t, keywords, tt.wantCount)
		})
	}
}

func TestExtractKeywordsSetsMinimum(t *testing.T) {
	m := &mockProvider{keywordResponses: []keywordResponse{{out: types.KeywordExtractionOutput{Keywords: keywordsOf(25)}}}}
	svc := newMockService(m)

	_, _, err := svc.ExtractKeywords(context.Background(), types.KeywordExtractionInput{
		Job: types.JobPosting{Description: longDescription},
	})
	require.NoError(t, err)
	assert.Equal(t, MinKeywords, m.lastInput.MinKeywords)
}

func TestServiceMissingProvider(t *testing.T) {
	svc := NewServiceWithProviders(map[config.Operation]AIProvider{}, nil, testLogger)

	_, _, err := svc.GenerateSummary(context.Background(), types.SummaryInput{ExistingExperience: "x"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestServiceDelegates(t *testing.T) {
	m := &mockProvider{}
	svc := newMockService(m)
	ctx := context.Background()

	fit, _, err := svc.AssessFit(ctx, types.FitAssessmentInput{})
	require.NoError(t, err)
	assert.Equal(t, "good", fit.Summary.OverallFit)

	letter, _, err := svc.GenerateCoverLetter(ctx, types.CoverLetterInput{})
	require.NoError(t, err)
	assert.Equal(t, "Dear team", letter.CoverLetter)

	summary, _, err := svc.GenerateSummary(ctx, types.SummaryInput{})
	require.NoError(t, err)
	assert.Equal(t, "Engineer", summary.Summary)

	info := svc.GetModelInfo(ctx)
	assert.Len(t, info, len(config.Operations))
	assert.Equal(t, "mock-summary", svc.ModelName(config.OpSummary))

	require.NoError(t, svc.Close())
	assert.True(t, m.closed)
}
