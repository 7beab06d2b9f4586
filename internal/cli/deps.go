package cli

import (
	"context"

	"resumeforge/internal/ai"
	"resumeforge/internal/cache"
	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/extract"
	"resumeforge/internal/pipeline"
	"resumeforge/internal/storage"
)

// newFileProcessor reads local files and, when S3 is enabled, s3:// references
func newFileProcessor(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*common.FileProcessor, error) {
	var remote storage.Fetcher
	if cfg.Storage.S3.Enabled {
		s3, err := storage.NewS3(ctx, cfg.Storage.S3, cfg.App.MaxFileSize, logger)
		if err != nil {
			return nil, err
		}
		remote = s3
	}
	return common.NewFileProcessor(storage.NewLoader(cfg.App.MaxFileSize, remote, logger), logger), nil
}

// services are the long-lived components behind the AI commands and the server
type services struct {
	AI       *ai.Service
	Cache    cache.KeywordCache
	Pipeline *pipeline.Pipeline
}

// newServices builds the model service, keyword cache and pipeline
func newServices(cfg *config.Config, logger *errors.Logger) (*services, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "AI API key is not configured", err)
	}

	aiService, err := ai.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}

	keywordCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		_ = aiService.Close()
		return nil, err
	}

	return &services{
		AI:       aiService,
		Cache:    keywordCache,
		Pipeline: pipeline.New(aiService, keywordCache, logger),
	}, nil
}

// Close releases the model clients and the cache connection
func (s *services) Close(logger *errors.Logger) {
	if err := s.Cache.Close(); err != nil {
		logger.LogError(err, "Failed to close keyword cache")
	}
	if err := s.AI.Close(); err != nil {
		logger.LogError(err, "Failed to close AI service")
	}
}

func newInspector(cfg *config.Config, logger *errors.Logger) *extract.Inspector {
	return extract.NewInspector(cfg.Extractor, nil, logger)
}
