package server

import (
	"context"
	"net/http"

	"resumeforge/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type requestIDKey struct{}

// Handler builds the routed and instrumented handler. om may be nil.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	mux := s.setupRoutes(om)
	handler := s.requestIDMiddleware(mux)
	if om != nil {
		handler = om.HTTPMiddleware()(handler)
	}
	return handler
}

// route is one API endpoint. Public routes skip rate limiting, auth and the size limit.
type route struct {
	pattern string
	summary string
	public  bool
	handler func(om *observability.ObservabilityManager) http.HandlerFunc
}

func (s *Server) routes() []route {
	plain := func(h http.HandlerFunc) func(*observability.ObservabilityManager) http.HandlerFunc {
		return func(*observability.ObservabilityManager) http.HandlerFunc { return h }
	}
	return []route{
		{"GET /health", "Health check including model availability", true, plain(s.healthHandler)},
		{"GET /stats", "Server statistics", true, plain(s.statsHandler)},
		{"POST /analyze", "ATS analysis of a resume against a job", false, s.analyzeHandler},
		{"POST /cover-letter", "Generate a cover letter", false, s.coverLetterHandler},
		{"POST /summary", "Generate a professional summary", false, s.summaryHandler},
		{"POST /normalize", "Normalize a resume into the canonical record", false, s.normalizeHandler},
		{"POST /inspect", "Inspect a PDF, DOCX or text resume file", false, s.inspectHandler},
	}
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	metrics := om.GetMetrics()
	rateLimit := s.rateLimitMiddleware(func(r *http.Request, _ string) {
		metrics.RecordBusinessMetric(r.Context(), observability.MetricRateLimitHit, true,
			attribute.String("endpoint", r.URL.Path),
			attribute.String("client_ip", getClientIP(r)))
	})

	for _, rt := range s.routes() {
		h := rt.handler(om)
		if rt.public {
			mux.Handle(rt.pattern, h)
			continue
		}
		mux.Handle(rt.pattern, rateLimit(s.authMiddleware(s.requestSizeLimitMiddleware(h))))
	}
	return mux
}

// requestIDMiddleware propagates X-Request-ID, generating one when the caller sent none
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No keys configured means the API is open
		if s.apiKeyCount() == 0 {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "UNAUTHORIZED", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.validAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "UNAUTHORIZED", "Invalid API key", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next.ServeHTTP(w, r)
	})
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next(w, r)
	})
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
