// Package pipeline runs the resume analysis flow (normalize, extract keywords,
// score, recommend) and the cover letter and summary generators around it.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/cache"
	"resumeforge/internal/errors"
	"resumeforge/internal/normalizer"
	"resumeforge/internal/recommend"
	"resumeforge/internal/scoring"
	"resumeforge/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// AIService is the set of model operations the pipeline depends on. *ai.Service implements it.
type AIService interface {
	ExtractKeywords(ctx context.Context, input types.KeywordExtractionInput) ([]types.KeywordEntry, *ai.TokenUsage, error)
	AssessFit(ctx context.Context, input types.FitAssessmentInput) (types.FitAssessmentOutput, *ai.TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *ai.TokenUsage, error)
	GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *ai.TokenUsage, error)
}

// CacheObserver is told whether each keyword cache lookup hit
type CacheObserver func(ctx context.Context, hit bool)

// Pipeline holds the process-level dependencies shared by every request
type Pipeline struct {
	ai         AIService
	cache      cache.KeywordCache
	normalizer *normalizer.Normalizer
	logger     *errors.Logger
	observe    CacheObserver
	newID      func() string
}

// New creates a pipeline. A nil cache disables keyword caching.
func New(service AIService, keywordCache cache.KeywordCache, logger *errors.Logger) *Pipeline {
	if keywordCache == nil {
		keywordCache = cache.Noop{}
	}
	return &Pipeline{
		ai:         service,
		cache:      keywordCache,
		normalizer: normalizer.New(logger),
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// SetCacheObserver registers a callback for keyword cache lookups
func (p *Pipeline) SetCacheObserver(fn CacheObserver) {
	p.observe = fn
}

var tracer = otel.Tracer("resumeforge.pipeline")

// runStage runs a local stage and converts a panic into a ProcessingError
func runStage[T any](p *Pipeline, stage string, fn func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			appErr := errors.NewProcessingError(errors.ErrCodeProcessingFailed,
				fmt.Sprintf("Unexpected failure in %s stage", stage), fmt.Errorf("%v", r)).
				WithContext("stage", stage)
			p.logger.LogError(appErr, "Recovered panic in pipeline stage", "stack", string(debug.Stack()))
			err = appErr
		}
	}()
	return fn(), nil
}

// resumeSource maps the request's resume field onto a normalizer source
func resumeSource(req types.AnalysisRequest) normalizer.ResumeSource {
	switch {
	case req.ResumeRecord != nil:
		return normalizer.Structured{Record: *req.ResumeRecord}
	case len(req.ResumeData) > 0:
		return normalizer.FlatIndexed{Fields: req.ResumeData}
	default:
		return normalizer.PlainText{Text: req.ResumeText}
	}
}

// Analyze scores a resume against a job posting. It returns a complete result or an
// error; partial results are never returned.
func (p *Pipeline) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, *ai.TokenUsage, error) {
	if err := ValidateAnalysisRequest(req); err != nil {
		return types.AnalysisResult{}, nil, err
	}

	analysisID := p.newID()
	ctx, span := tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("analysis.id", analysisID))

	logger := p.logger.With("analysis_id", analysisID)

	record, err := runStage(p, "normalize", func() types.ResumeRecord {
		return p.normalizer.Normalize(resumeSource(req))
	})
	if err != nil {
		return types.AnalysisResult{}, nil, err
	}

	resumeText := req.ResumeText
	if blank(resumeText) {
		resumeText, err = runStage(p, "render", func() string { return normalizer.RenderText(record) })
		if err != nil {
			return types.AnalysisResult{}, nil, err
		}
	}

	job := types.JobPosting{
		Title:       strings.TrimSpace(req.JobTitle),
		Company:     strings.TrimSpace(req.JobCompany),
		Description: req.JobDescription,
	}

	entries, usage, err := p.keywords(ctx, job, req)
	if err != nil {
		return types.AnalysisResult{}, usage, err
	}

	scored, err := runStage(p, "score", func() scoring.Result {
		return scoring.Score(record, resumeText, entries)
	})
	if err != nil {
		return types.AnalysisResult{}, usage, err
	}

	matched := scoring.Terms(scored.Matched)
	missing := scoring.Terms(scored.Missing)

	fit, fitUsage, err := p.ai.AssessFit(ctx, types.FitAssessmentInput{
		ResumeText:      resumeText,
		Job:             job,
		ATSScore:        scored.Overall,
		Breakdown:       scored.Breakdown,
		MatchedKeywords: matched,
		MissingKeywords: missing,
	})
	usage = usage.Add(fitUsage)
	if err != nil {
		logger.LogError(err, "Fit assessment failed")
		return types.AnalysisResult{}, usage, asExtractionFailure(err, "Fit assessment failed")
	}

	recommendations := []types.Recommendation{}
	if req.WantsRecommendations() {
		recommendations, err = runStage(p, "recommend", func() []types.Recommendation {
			return recommend.Compose(recommend.Input{
				Breakdown: scored.Breakdown,
				Matched:   scored.Matched,
				Missing:   scored.Missing,
				Suggested: fit.Recommendations,
			})
		})
		if err != nil {
			return types.AnalysisResult{}, usage, err
		}
	}

	span.SetAttributes(
		attribute.Int("analysis.ats_score", scored.Overall),
		attribute.Int("analysis.keywords", len(entries)),
		attribute.Int("analysis.recommendations", len(recommendations)),
	)
	logger.Info("Analysis completed",
		"ats_score", scored.Overall,
		"keywords", len(entries),
		"matched", len(matched),
		"recommendations", len(recommendations))

	return types.AnalysisResult{
		AnalysisID:        analysisID,
		ATSScore:          scored.Overall,
		Breakdown:         scored.Breakdown,
		ExtractedKeywords: entries,
		MatchedKeywords:   matched,
		MissingKeywords:   missing,
		Recommendations:   recommendations,
		Summary:           normalizeFitSummary(fit.Summary),
	}, usage, nil
}

// keywords returns cached keywords for the posting or extracts and caches them.
// Cache failures are logged and never fail the request.
func (p *Pipeline) keywords(ctx context.Context, job types.JobPosting, req types.AnalysisRequest) ([]types.KeywordEntry, *ai.TokenUsage, error) {
	key := cache.Key(job, req.IndustryContext, req.TargetATSScore)

	cached, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Keyword cache lookup failed", "error", err.Error())
	}
	if p.observe != nil && err == nil {
		p.observe(ctx, hit)
	}
	if hit && len(cached) >= ai.RequiredKeywords(job.Description) {
		p.logger.Debug("Keyword cache hit", "keywords", len(cached))
		return cached, nil, nil
	}

	entries, usage, err := p.ai.ExtractKeywords(ctx, types.KeywordExtractionInput{
		Job:             job,
		IndustryContext: req.IndustryContext,
		TargetATSScore:  req.TargetATSScore,
	})
	if err != nil {
		return nil, usage, asExtractionFailure(err, "Keyword extraction failed")
	}

	if err := p.cache.Set(ctx, key, entries); err != nil {
		p.logger.Warn("Keyword cache store failed", "error", err.Error())
	}
	return entries, usage, nil
}

// asExtractionFailure reports remote failures as ExtractionFailed while leaving
// validation, config and extraction errors untouched
func asExtractionFailure(err error, message string) error {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Type != errors.ErrorTypeAI && appErr.Type != errors.ErrorTypeNetwork {
		return err
	}
	return errors.NewExtractionError(errors.ErrCodeExtractionFailed, message, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func normalizeFitSummary(s types.FitSummary) types.FitSummary {
	return types.FitSummary{
		Strengths:  nonNil(s.Strengths),
		Weaknesses: nonNil(s.Weaknesses),
		QuickWins:  nonNil(s.QuickWins),
		OverallFit: strings.TrimSpace(s.OverallFit),
	}
}
