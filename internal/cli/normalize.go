package cli

import (
	"resumeforge/internal/common"
	"resumeforge/internal/errors"
	"resumeforge/internal/normalizer"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [resume-file]",
	Short: "Convert a resume into the structured record used for scoring",
	Long: `Convert a resume into the structured record the analyzer scores. The input
may be a PDF, DOCX or text resume, a JSON resume record or a JSON object of RMS
metadata keys. No AI calls are made.

With --flatten the record is written back out as RMS metadata keys, which is
useful for embedding resume data in PDF or DOCX document properties.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

var (
	normalizeConfig common.CommandConfig
	normalizeFlags  struct {
		prefix  string
		flatten bool
	}
)

func init() {
	addOutputFlags(normalizeCmd, &normalizeConfig)
	normalizeCmd.Flags().StringVar(&normalizeFlags.prefix, "prefix", normalizer.DefaultPrefix, "RMS metadata key prefix for input and --flatten output")
	normalizeCmd.Flags().BoolVar(&normalizeFlags.flatten, "flatten", false, "Output RMS metadata keys instead of a record (json only)")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	cmdConfig := normalizeConfig
	if cmdConfig.OutputFormat, err = common.ResolveOutputFormat(normalizeConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats); err != nil {
		return err
	}
	if normalizeFlags.flatten && cmdConfig.OutputFormat != "json" {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "--flatten only supports json output", nil)
	}

	fp, err := newFileProcessor(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	content, err := fp.ReadText(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	source := resumeSourceFrom(content, normalizeFlags.prefix)
	record := normalizer.New(logger).Normalize(source)
	logger.Info("Resume normalized",
		"file", args[0],
		"source", sourceKind(source),
		"experience", len(record.Experience),
		"education", len(record.Education),
		"skill_categories", len(record.SkillCategories))

	var out any = record
	if normalizeFlags.flatten {
		out = normalizer.Flatten(record, normalizeFlags.prefix)
	}
	return common.NewOutputHandler(fp, logger).HandleOutput(out, cmdConfig)
}

func sourceKind(src normalizer.ResumeSource) string {
	switch src.(type) {
	case normalizer.FlatIndexed:
		return "rms"
	case normalizer.Structured:
		return "record"
	default:
		return "text"
	}
}
