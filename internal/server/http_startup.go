package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/observability"
	"resumeforge/internal/pipeline"
)

// cacheObservable is implemented by analyzers that report keyword cache lookups
type cacheObservable interface {
	SetCacheObserver(fn pipeline.CacheObserver)
}

// Start starts the HTTP server with all configured components and blocks until
// SIGINT or SIGTERM.
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if obs, ok := s.deps.Analyzer.(cacheObservable); ok {
		obs.SetCacheObserver(om.GetMetrics().RecordCacheLookup)
	}

	httpServer := s.setupHTTPServer(om)

	stopPrompts, err := s.startPromptWatcher()
	if err != nil {
		return err
	}
	defer stopPrompts()

	stopVault, err := s.startVaultWatcher()
	if err != nil {
		return err
	}
	defer stopVault()

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)

	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability flushes exporters
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(om),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startPromptWatcher hot-reloads prompt override files when enabled and configured
func (s *Server) startPromptWatcher() (func(), error) {
	noop := func() {}
	if s.AppConfig == nil || !s.AppConfig.Server.PromptWatch.Enabled {
		return noop, nil
	}

	var paths []string
	for _, f := range s.AppConfig.PromptFiles() {
		paths = append(paths, f.Path)
	}
	if len(paths) == 0 {
		return noop, nil
	}

	watcher := NewPromptWatcher(paths, s.AppConfig.Server.PromptWatch.DebounceDelay, s.AppConfig, s.Logger)
	if err := watcher.Start(); err != nil {
		return noop, fmt.Errorf("failed to start prompt watcher: %w", err)
	}
	return func() {
		if err := watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}, nil
}

// startVaultWatcher polls Vault for rotated API keys when enabled
func (s *Server) startVaultWatcher() (func(), error) {
	noop := func() {}
	if s.AppConfig == nil || !s.AppConfig.Server.VaultWatcher.Enabled {
		return noop, nil
	}
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.Secrets.APIKeys == "" {
		s.Logger.Warn("Vault watcher enabled but Vault or the API key secret path is not configured")
		return noop, nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return noop, fmt.Errorf("failed to create vault client for watcher: %w", err)
	}
	if client == nil {
		return noop, nil
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, s.AppConfig.Server.VaultWatcher.PollInterval,
		func(keys []string, err error) {
			if err != nil {
				return
			}
			s.SetAPIKeys(keys)
		}, s.Logger)
	if err := watcher.Start(); err != nil {
		return noop, fmt.Errorf("failed to start vault watcher: %w", err)
	}
	return func() {
		if err := watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop vault watcher")
		}
	}, nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown drains in-flight requests for up to 30 seconds
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
