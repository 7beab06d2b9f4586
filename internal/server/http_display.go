package server

import (
	"fmt"
	"strings"

	"resumeforge/internal/utils"
)

// displayServerInfo prints the startup banner
func (s *Server) displayServerInfo() {
	fmt.Printf("resumeforge %s listening on %s:%s\n", s.Version, s.Host, s.Port)
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayLimits()
	s.displayBackends()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	for _, rt := range s.routes() {
		method, path, _ := strings.Cut(rt.pattern, " ")
		fmt.Printf("  %-4s %-14s - %s\n", method, path, rt.summary)
	}
}

func (s *Server) displayAuthInfo() {
	if n := s.apiKeyCount(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Send 'X-API-Key: <key>' or 'Authorization: Bearer <key>' with POST requests")
		return
	}
	fmt.Println("API authentication: DISABLED (no API keys configured)")
	fmt.Println("WARNING: API endpoints are publicly accessible!")
}

func (s *Server) displayLimits() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %s\n", utils.FormatFileSize(s.MaxRequestSize))
	} else {
		fmt.Println("WARNING: Request size limit disabled")
	}

	if s.RateLimit == nil || !s.RateLimit.Enabled {
		fmt.Println("WARNING: Rate limiting disabled")
		return
	}
	var scope []string
	if s.RateLimit.ByAPIKey {
		scope = append(scope, "API key")
	}
	if s.RateLimit.ByIP {
		scope = append(scope, "client IP")
	}
	fmt.Printf("Rate limiting: %d requests/min, burst %d, per %s\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, strings.Join(scope, " then "))
}

// displayBackends shows the optional integrations that affect request handling
func (s *Server) displayBackends() {
	if s.AppConfig == nil {
		return
	}
	cfg := s.AppConfig
	fmt.Printf("AI provider: %s (model %s)\n", cfg.AI.Provider, cfg.AI.Model)
	fmt.Printf("Keyword cache: %s\n", enabledLabel(cfg.Cache.Enabled))
	fmt.Printf("S3 resume storage: %s\n", enabledLabel(cfg.Storage.S3.Enabled))
	fmt.Printf("Prompt hot reload: %s\n", enabledLabel(cfg.Server.PromptWatch.Enabled))
	fmt.Printf("Vault key rotation: %s\n", enabledLabel(cfg.Server.VaultWatcher.Enabled))
	if s.deps.Inspector == nil {
		fmt.Println("Document inspection: not configured (POST /inspect returns 501)")
	}
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
