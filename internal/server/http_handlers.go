package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"resumeforge/internal/errors"
)

const defaultHealthCheckTimeout = 10 * time.Second

// getHealthCheckTimeout returns the configured model check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig == nil {
		return defaultHealthCheckTimeout
	}
	hc := s.AppConfig.Observability.HealthCheck
	if hc.AIModelCheckTimeout > 0 {
		return hc.AIModelCheckTimeout
	}
	if hc.Timeout > 0 {
		return hc.Timeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports service health including model availability and breaker state.
// Any unavailable model marks the service degraded.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumeforge",
		"version": s.Version,
	}

	status := http.StatusOK
	if s.deps.Models != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
		defer cancel()

		models := s.deps.Models.GetModelInfo(ctx)
		aiStatus := make(map[string]any, len(models))
		for op, info := range models {
			aiStatus[string(op)] = info
			if info == nil || !info.Available {
				response["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		response["ai_models"] = aiStatus
		response["circuit_breakers"] = s.deps.Models.CircuitBreakerStats()
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumeforge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.apiKeyCount(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v. Every failure is a ValidationError.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return bodyError(err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse JSON body", err)
	}
	return nil
}

// bodyError classifies a request body read failure
func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to read request body", err)
}

// writeAppError maps err onto its status code and error body. Internal details of
// non-client errors are not echoed back.
func writeAppError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	appErr, ok := errors.AsAppError(err)
	if !ok {
		writeErrorResponse(w, "INTERNAL_ERROR", "internal server error", status)
		return
	}
	writeErrorResponse(w, appErr.Code, appErr.Message, status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
