package ai

import (
	"context"

	"resumeforge/internal/types"
)

// AIProvider interface for different AI implementations.
// Every call returns token usage; callers can ignore it if not needed.
type AIProvider interface {
	ExtractKeywords(ctx context.Context, input types.KeywordExtractionInput) (types.KeywordExtractionOutput, *TokenUsage, error)
	AssessFit(ctx context.Context, input types.FitAssessmentInput) (types.FitAssessmentOutput, *TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *TokenUsage, error)
	GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Add sums two usages; either may be nil
func (u *TokenUsage) Add(other *TokenUsage) *TokenUsage {
	if u == nil {
		return other
	}
	if other == nil {
		return u
	}
	return &TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}
