package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumeforge/internal/config"
	appErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const defaultModelCheckTimeout = 10 * time.Second

// GeminiProvider implements AIProvider for Google Gemini. Each instance is bound
// to one operation's configuration (model, temperature, retries, breaker).
type GeminiProvider struct {
	client            *genai.Client
	op                config.Operation
	config            *config.OperationAIConfig
	circuitBreaker    *AICircuitBreaker
	modelBreaker      *ModelCircuitBreaker
	modelCheckTimeout time.Duration
	logger            *appErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(op config.Operation, cfg *config.OperationAIConfig, logger *appErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: *cfg.Timeout},
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:            client,
		op:                op,
		config:            cfg,
		circuitBreaker:    NewAICircuitBreaker(op, cfg, logger),
		modelBreaker:      NewModelCircuitBreaker(op, cfg, logger),
		modelCheckTimeout: defaultModelCheckTimeout,
		logger:            logger,
	}, nil
}

// SetModelCheckTimeout overrides how long GetModelInfo waits for the API
func (g *GeminiProvider) SetModelCheckTimeout(d time.Duration) {
	if d > 0 {
		g.modelCheckTimeout = d
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", string(g.op),
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"operation", string(g.op),
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// backoffDelay returns the wait before retry attempt n (n >= 1): exponential with up to 10% jitter, capped at 30s
func backoffDelay(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"max_retries", maxRetries)

	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeouts, refused connections) are transient
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// executeAIOperation is a generic helper to run AI operations with common tracing, circuit breaker, and parsing logic.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	userPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	operationName := string(g.op)

	tracer := otel.Tracer("resumeforge.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.String("ai.operation", operationName),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts {
		if sp := systemPrompt(g.op, g.config.CustomPrompts); sp != "" {
			genaiConfig.SystemInstruction = genai.NewContentFromText(sp, genai.RoleUser)
		}
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		code := appErrors.ErrCodeAIServiceFailed
		if errors.Is(err, context.DeadlineExceeded) {
			code = appErrors.ErrCodeAITimeout
		}
		return output, nil, appErrors.NewAIError(code, "Failed to generate content for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	if err := json.Unmarshal([]byte(cleanJSON(result.Text())), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, tokenUsage, appErrors.NewAIError(appErrors.ErrCodeAIResponseParse, "Failed to parse AI response for "+operationName, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

func (g *GeminiProvider) prompt(data any) (string, error) {
	p, err := renderUserPrompt(g.op, g.config.CustomPrompts, data)
	if err != nil {
		return "", appErrors.NewConfigError(appErrors.ErrCodeInvalidConfig, "Invalid prompt for "+string(g.op), err)
	}
	return p, nil
}

// ExtractKeywords asks the model for the posting's ATS keywords. Validation of the
// returned entries is left to the caller.
func (g *GeminiProvider) ExtractKeywords(ctx context.Context, input types.KeywordExtractionInput) (types.KeywordExtractionOutput, *TokenUsage, error) {
	userPrompt, err := g.prompt(input)
	if err != nil {
		return types.KeywordExtractionOutput{}, nil, err
	}

	output, usage, err := executeAIOperation[types.KeywordExtractionOutput](g, ctx, userPrompt, g.jsonConfig(keywordSchema()),
		attribute.Int("input.job_length", len(input.Job.Description)),
		attribute.Int("input.min_keywords", input.MinKeywords),
	)
	if err != nil {
		return types.KeywordExtractionOutput{}, usage, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.keyword_count", len(output.Keywords)))
	}
	return output, usage, nil
}

// AssessFit asks the model for a narrative fit summary and suggested edits
func (g *GeminiProvider) AssessFit(ctx context.Context, input types.FitAssessmentInput) (types.FitAssessmentOutput, *TokenUsage, error) {
	userPrompt, err := g.prompt(input)
	if err != nil {
		return types.FitAssessmentOutput{}, nil, err
	}

	output, usage, err := executeAIOperation[types.FitAssessmentOutput](g, ctx, userPrompt, g.jsonConfig(fitSchema()),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("ats.score", input.ATSScore),
	)
	if err != nil {
		return types.FitAssessmentOutput{}, usage, err
	}
	return output, usage, nil
}

// GenerateCoverLetter drafts a cover letter
func (g *GeminiProvider) GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *TokenUsage, error) {
	userPrompt, err := g.prompt(input)
	if err != nil {
		return types.CoverLetterOutput{}, nil, err
	}

	output, usage, err := executeAIOperation[types.CoverLetterOutput](g, ctx, userPrompt, g.jsonConfig(coverLetterSchema()),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.String("input.tone", string(input.Tone)),
		attribute.String("input.length", string(input.Length)),
	)
	if err != nil {
		return types.CoverLetterOutput{}, usage, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.letter_length", len(output.CoverLetter)))
	}
	return output, usage, nil
}

// GenerateSummary writes a professional summary
func (g *GeminiProvider) GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *TokenUsage, error) {
	userPrompt, err := g.prompt(input)
	if err != nil {
		return types.SummaryOutput{}, nil, err
	}

	output, usage, err := executeAIOperation[types.SummaryOutput](g, ctx, userPrompt, g.jsonConfig(summarySchema()),
		attribute.Int("input.experience_length", len(input.ExistingExperience)),
	)
	if err != nil {
		return types.SummaryOutput{}, usage, err
	}
	return output, usage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements AIProvider interface. The genai client holds no resources in unary mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
