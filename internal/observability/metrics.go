package observability

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricAnalysis      = "analysis"
	MetricCoverLetter   = "cover_letter"
	MetricSummary       = "summary"
	MetricNormalization = "normalization"
	MetricInspection    = "inspection"
	MetricRateLimitHit  = "rate_limit_hit"
)

// Metrics holds all custom metrics for the service. The zero value records nothing.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	Analyses          metric.Int64Counter
	CoverLetters      metric.Int64Counter
	Summaries         metric.Int64Counter
	Normalizations    metric.Int64Counter
	Inspections       metric.Int64Counter
	ATSScores         metric.Int64Histogram
	ResumeContentSize metric.Int64Histogram

	// Infrastructure metrics
	RateLimitHits       metric.Int64Counter
	KeywordCacheLookups metric.Int64Counter

	settings *config.CustomMetricsConfig
}

// newMetrics creates every instrument on meter. A nil settings enables everything.
func newMetrics(meter metric.Meter, settings *config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings}
	var err error

	int64Counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.AIRequestCount, "resumeforge_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "resumeforge_ai_errors_total", "Total number of AI request errors"},
		{&m.Analyses, "resumeforge_analyses_total", "Total number of ATS analyses"},
		{&m.CoverLetters, "resumeforge_cover_letters_total", "Total number of cover letters generated"},
		{&m.Summaries, "resumeforge_summaries_total", "Total number of professional summaries generated"},
		{&m.Normalizations, "resumeforge_normalizations_total", "Total number of resumes normalized"},
		{&m.Inspections, "resumeforge_inspections_total", "Total number of documents inspected"},
		{&m.RateLimitHits, "resumeforge_rate_limit_hits_total", "Total number of rate limit hits"},
		{&m.KeywordCacheLookups, "resumeforge_keyword_cache_lookups_total", "Keyword cache lookups by outcome"},
	}
	for _, c := range int64Counters {
		if *c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	m.AIProcessingTime, err = meter.Float64Histogram(
		"resumeforge_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"resumeforge_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	m.ATSScores, err = meter.Int64Histogram(
		"resumeforge_ats_score",
		metric.WithDescription("Distribution of overall ATS scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ATS score metric: %w", err)
	}

	m.ResumeContentSize, err = meter.Int64Histogram(
		"resumeforge_resume_content_size",
		metric.WithDescription("Size of resume text submitted for analysis"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume content size metric: %w", err)
	}

	return m, nil
}

func (m *Metrics) aiEnabled() bool {
	return m.settings == nil || m.settings.AIOperations.Enabled
}

func (m *Metrics) businessEnabled() bool {
	return m.settings == nil || m.settings.BusinessMetrics.Enabled
}

func (m *Metrics) infraEnabled(flag func(config.InfrastructureMetricsConfig) bool) bool {
	return m.settings == nil || (m.settings.Infrastructure.Enabled && flag(m.settings.Infrastructure))
}

// TrackAIOperationWithTokens runs fn inside a span and records duration, outcome and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) (*ai.TokenUsage, error)) error {
	if m.AIProcessingTime == nil {
		_, err := fn(ctx)
		return err
	}

	ctx, span := otel.Tracer("resumeforge.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	usage, err := fn(ctx)
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	if m.aiEnabled() {
		if m.settings == nil || m.settings.AIOperations.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if usage != nil && (m.settings == nil || m.settings.AIOperations.TrackTokenUsage) {
			m.recordTokenMetrics(ctx, operation, usage)
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *Metrics) recordTokenMetrics(ctx context.Context, operation string, usage *ai.TokenUsage) {
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordBusinessMetric counts one completed request of metricType
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)

	if metricType == MetricRateLimitHit {
		if m.RateLimitHits != nil && m.infraEnabled(func(c config.InfrastructureMetricsConfig) bool { return c.TrackRateLimits }) {
			m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attributes...))
		}
		return
	}

	if !m.businessEnabled() {
		return
	}
	var counter metric.Int64Counter
	switch metricType {
	case MetricAnalysis:
		counter = m.Analyses
	case MetricCoverLetter:
		counter = m.CoverLetters
	case MetricSummary:
		counter = m.Summaries
	case MetricNormalization:
		counter = m.Normalizations
	case MetricInspection:
		counter = m.Inspections
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordATSScore records an overall score and the size of the resume text it was computed from
func (m *Metrics) RecordATSScore(ctx context.Context, score int, resumeChars int) {
	if m.ATSScores == nil || !m.businessEnabled() {
		return
	}
	if m.settings == nil || m.settings.BusinessMetrics.TrackScores {
		m.ATSScores.Record(ctx, int64(score))
	}
	if m.settings == nil || m.settings.BusinessMetrics.TrackContentSizes {
		m.ResumeContentSize.Record(ctx, int64(resumeChars))
	}
}

// RecordCacheLookup counts a keyword cache lookup. Its signature matches pipeline.CacheObserver.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m.KeywordCacheLookups == nil || !m.infraEnabled(func(c config.InfrastructureMetricsConfig) bool { return c.TrackCacheHits }) {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.KeywordCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
