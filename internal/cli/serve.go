package cli

import (
	"resumeforge/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the analyzer and writing assistants as a JSON API.

Available endpoints:
- POST /analyze: Score a resume against a job posting
- POST /cover-letter: Draft a cover letter
- POST /summary: Write a professional summary
- POST /normalize: Convert a resume into a structured record
- POST /inspect: Check a resume document for ATS-unfriendly layout
- GET /health: Health check including model availability
- GET /stats: Server statistics and rate limiting info

API keys, rate limiting, prompt hot reload and Vault key rotation are
configured in the server section of the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	port string
	host string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	if serveFlags.port != "" {
		cfg.Server.Port = serveFlags.port
	}
	if serveFlags.host != "" {
		cfg.Server.Host = serveFlags.host
	}

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close(logger)

	deps := server.Dependencies{
		Analyzer:  svc.Pipeline,
		Inspector: newInspector(cfg, logger),
		Models:    svc.AI,
	}
	return server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), deps, logger).Start()
}
