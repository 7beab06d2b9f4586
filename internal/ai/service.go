package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// Service routes each AI operation to its own provider and applies the
// operation's timeout. Keyword extraction results are validated here.
type Service struct {
	providers map[config.Operation]AIProvider
	configs   map[config.Operation]config.OperationAIConfig
	logger    *errors.Logger
}

// NewService creates one provider per operation from cfg
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	providers := make(map[config.Operation]AIProvider, len(config.Operations))
	configs := make(map[config.Operation]config.OperationAIConfig, len(config.Operations))

	for _, op := range config.Operations {
		opCfg, err := cfg.GetOperationConfig(op)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid AI operation config", err)
		}

		logger.Debug("Initializing AI provider",
			"provider", opCfg.Provider,
			"operation", string(op),
			"model", opCfg.Model,
			"temperature", *opCfg.Temperature,
			"timeout", *opCfg.Timeout,
			"max_retries", *opCfg.MaxRetries,
			"use_system_prompts", *opCfg.UseSystemPrompts)

		var provider AIProvider
		switch opCfg.Provider {
		case "gemini":
			gp, err := NewGeminiProvider(op, &opCfg, logger)
			if err != nil {
				return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create AI provider", err)
			}
			gp.SetModelCheckTimeout(cfg.Observability.HealthCheck.AIModelCheckTimeout)
			provider = gp
		default:
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
		}

		providers[op] = provider
		configs[op] = opCfg
	}

	return NewServiceWithProviders(providers, configs, logger), nil
}

// NewServiceWithProviders assembles a Service from existing providers.
// Operations missing from configs run without a timeout.
func NewServiceWithProviders(providers map[config.Operation]AIProvider, configs map[config.Operation]config.OperationAIConfig, logger *errors.Logger) *Service {
	if configs == nil {
		configs = map[config.Operation]config.OperationAIConfig{}
	}
	return &Service{providers: providers, configs: configs, logger: logger}
}

func (s *Service) provider(op config.Operation) (AIProvider, error) {
	p, ok := s.providers[op]
	if !ok || p == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("No AI provider configured for %s", op), nil)
	}
	return p, nil
}

func (s *Service) withTimeout(ctx context.Context, op config.Operation) (context.Context, context.CancelFunc) {
	if cfg, ok := s.configs[op]; ok && cfg.Timeout != nil && *cfg.Timeout > 0 {
		return context.WithTimeout(ctx, *cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// ExtractKeywords derives validated keywords for a job posting. When the description
// is long enough, a response with fewer than MinKeywords entries is retried once.
// Any failure is reported as an extraction error.
func (s *Service) ExtractKeywords(ctx context.Context, input types.KeywordExtractionInput) ([]types.KeywordEntry, *TokenUsage, error) {
	p, err := s.provider(config.OpExtractKeywords)
	if err != nil {
		return nil, nil, err
	}
	if input.MinKeywords == 0 {
		input.MinKeywords = RequiredKeywords(input.Job.Description)
	}

	var usage *TokenUsage
	var lastErr error
	for attempt := 1; attempt <= keywordAttempts; attempt++ {
		callCtx, cancel := s.withTimeout(ctx, config.OpExtractKeywords)
		out, u, err := p.ExtractKeywords(callCtx, input)
		cancel()
		usage = usage.Add(u)

		if err != nil {
			if errors.IsType(err, errors.ErrorTypeConfig) {
				return nil, usage, err
			}
			if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeAIResponseParse {
				lastErr = &schemaError{index: -1, reason: appErr.Error()}
				s.logger.Warn("Keyword response could not be parsed", "attempt", attempt)
				continue
			}
			return nil, usage, errors.NewExtractionError(errors.ErrCodeExtractionFailed,
				"Keyword extraction call failed", err)
		}

		keywords, err := checkKeywords(out.Keywords, input.MinKeywords)
		if err == nil {
			s.logger.Debug("Keywords extracted",
				"count", len(keywords),
				"minimum", input.MinKeywords,
				"attempts", attempt)
			return keywords, usage, nil
		}
		lastErr = err
		s.logger.Warn("Keyword response rejected",
			"attempt", attempt,
			"reason", err.Error())
	}

	var shortfall *shortfallError
	if stderrors.As(lastErr, &shortfall) {
		return nil, usage, errors.NewExtractionError(errors.ErrCodeKeywordShortfall,
			"Too few keywords extracted", lastErr).
			WithContext("keywords_returned", shortfall.got).
			WithContext("keywords_required", shortfall.want)
	}
	return nil, usage, errors.NewExtractionError(errors.ErrCodeSchemaInvalid,
		"Keyword response did not match the expected schema", lastErr)
}

// AssessFit narrates the fit between a resume and a job
func (s *Service) AssessFit(ctx context.Context, input types.FitAssessmentInput) (types.FitAssessmentOutput, *TokenUsage, error) {
	p, err := s.provider(config.OpAssessFit)
	if err != nil {
		return types.FitAssessmentOutput{}, nil, err
	}
	ctx, cancel := s.withTimeout(ctx, config.OpAssessFit)
	defer cancel()
	return p.AssessFit(ctx, input)
}

// GenerateCoverLetter drafts a cover letter
func (s *Service) GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *TokenUsage, error) {
	p, err := s.provider(config.OpCoverLetter)
	if err != nil {
		return types.CoverLetterOutput{}, nil, err
	}
	ctx, cancel := s.withTimeout(ctx, config.OpCoverLetter)
	defer cancel()
	return p.GenerateCoverLetter(ctx, input)
}

// GenerateSummary writes a professional summary
func (s *Service) GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *TokenUsage, error) {
	p, err := s.provider(config.OpSummary)
	if err != nil {
		return types.SummaryOutput{}, nil, err
	}
	ctx, cancel := s.withTimeout(ctx, config.OpSummary)
	defer cancel()
	return p.GenerateSummary(ctx, input)
}

// ModelName returns the model configured for op, or "" if unknown
func (s *Service) ModelName(op config.Operation) string {
	return s.configs[op].Model
}

// GetModelInfo checks every operation's model for health checks
func (s *Service) GetModelInfo(ctx context.Context) map[config.Operation]*ModelInfo {
	info := make(map[config.Operation]*ModelInfo, len(s.providers))
	for op, p := range s.providers {
		info[op] = p.GetModelInfo(ctx)
	}
	return info
}

// CircuitBreakerStats reports breaker state for providers that expose it
func (s *Service) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(s.providers))
	for op, p := range s.providers {
		if gp, ok := p.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
			stats[string(op)] = gp.GetCircuitBreakerStats()
		}
	}
	return stats
}

// Close closes every provider and returns the first error
func (s *Service) Close() error {
	var first error
	for op, p := range s.providers {
		if err := p.Close(); err != nil {
			s.logger.LogError(err, "Failed to close AI provider", "operation", string(op))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
