package server

import (
	"context"
	"sync"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/normalizer"
	"resumeforge/internal/types"
)

// Analyzer runs the resume pipeline. *pipeline.Pipeline implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, *ai.TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *ai.TokenUsage, error)
	GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *ai.TokenUsage, error)
}

// DocumentInspector reports on uploaded resume files. *extract.Inspector implements it.
type DocumentInspector interface {
	Inspect(ctx context.Context, name string, data []byte) (types.InspectionReport, error)
}

// ModelHealth exposes model availability for the health endpoint. *ai.Service implements it.
type ModelHealth interface {
	GetModelInfo(ctx context.Context) map[config.Operation]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Dependencies are the request-serving components shared by every handler
type Dependencies struct {
	Analyzer  Analyzer
	Inspector DocumentInspector
	Models    ModelHealth // optional
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NormalizeRequest carries exactly one resume representation to normalize
type NormalizeRequest struct {
	ResumeText   string              `json:"resumeText,omitempty"`
	ResumeData   map[string]string   `json:"resumeData,omitempty"`
	ResumeRecord *types.ResumeRecord `json:"resumeRecord,omitempty"`
	Prefix       string              `json:"prefix,omitempty"`
}

// InspectRequest is the JSON form of an inspect upload
type InspectRequest struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"` // base64
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// API Authentication
	keysMu  sync.RWMutex
	apiKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	deps       Dependencies
	normalizer *normalizer.Normalizer
	Logger     *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFrom builds a ServerConfig from the application configuration
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		normalizer:     normalizer.New(logger),
		Logger:         logger,
	}
	s.SetAPIKeys(cfg.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. Empty entries are ignored.
func (s *Server) SetAPIKeys(keys []string) {
	// Map for O(1) lookup
	apiKeyMap := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s.keysMu.Lock()
	s.apiKeys = apiKeyMap
	s.keysMu.Unlock()
}

func (s *Server) apiKeyCount() int {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return len(s.apiKeys)
}

func (s *Server) validAPIKey(key string) bool {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return s.apiKeys[key]
}
