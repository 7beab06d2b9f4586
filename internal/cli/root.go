package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "resumeforge",
	Short: "ATS analysis and resume writing assistant",
	Long: `ResumeForge scores a resume against a job posting the way an applicant
tracking system would, explains what is missing and suggests concrete edits.
It can also draft cover letters and professional summaries, normalize resumes
from text or RMS metadata, and inspect resume files for ATS-unfriendly layout.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the root command. Configuration and logging are loaded before any
// subcommand runs unless ctx already carries them.
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// WithRuntime attaches an already loaded config and logger to ctx
func WithRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// loadRuntime loads configuration, creates the logger and applies Vault secrets
func loadRuntime(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	logger.Debug("Runtime initialized",
		"command", cmd.Name(),
		"version", Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	cmd.SetContext(WithRuntime(ctx, cfg, logger))
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, errors.NewInternalError("CONTEXT_MISSING", "config not found in context", nil)
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, errors.NewInternalError("CONTEXT_MISSING", "logger not found in context", nil)
}

func runtimeFrom(cmd *cobra.Command) (*config.Config, *errors.Logger, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// addOutputFlags registers --output and --format with completion from the configured formats
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.config/resumeforge, /etc/resumeforge)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(coverLetterCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
