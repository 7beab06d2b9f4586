package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [experience-file]",
	Short: "Write a professional summary from work experience",
	Long: `Write a professional summary for the top of a resume from a description
of work experience. An existing summary can be passed to be rewritten, and a
target position steers the emphasis. Alternative versions are included when
the model offers them.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

var (
	summaryConfig common.CommandConfig
	summaryFlags  struct {
		targetPosition  string
		skills          string
		existingSummary string
	}
)

func init() {
	addOutputFlags(summaryCmd, &summaryConfig)
	summaryCmd.Flags().StringVar(&summaryFlags.targetPosition, "target-position", "", "Position the summary should aim at")
	summaryCmd.Flags().StringVar(&summaryFlags.skills, "skills", "", "Skills to highlight")
	summaryCmd.Flags().StringVar(&summaryFlags.existingSummary, "existing-summary", "", "Current summary to improve on")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	cmdConfig := summaryConfig
	if cmdConfig.OutputFormat, err = common.ResolveOutputFormat(summaryConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats); err != nil {
		return err
	}

	fp, err := newFileProcessor(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close(logger)

	createInput := func(contents []string) (types.SummaryInput, error) {
		if len(contents) != 1 {
			return types.SummaryInput{}, fmt.Errorf("expected 1 file content, got %d", len(contents))
		}
		return types.SummaryInput{
			ExistingExperience: contents[0],
			TargetPosition:     summaryFlags.targetPosition,
			SkillsHighlight:    summaryFlags.skills,
			ExistingSummary:    summaryFlags.existingSummary,
		}, nil
	}

	logDetails := func(input types.SummaryInput, c common.CommandConfig) {
		logger.Info("Generating professional summary",
			"experience_file", args[0],
			"target_position", input.TargetPosition,
			"rewrite", input.ExistingSummary != "",
			"output_format", c.OutputFormat)
	}

	return common.RunAICommand(cmd.Context(), logger, fp, cmdConfig, args, createInput,
		func(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *ai.TokenUsage, error) {
			return svc.Pipeline.GenerateSummary(ctx, input)
		}, logDetails)
}
