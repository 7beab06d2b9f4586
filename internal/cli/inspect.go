package cli

import (
	"resumeforge/internal/common"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [resume-file]",
	Short: "Check a resume document for ATS-unfriendly layout",
	Long: `Inspect a PDF, DOCX or text resume and report page count, word count, fonts
and sizes, embedded metadata and a preview of the extracted text. Anything
likely to confuse an applicant tracking system, such as image-only pages or a
very small font, is listed as a warning.

Metadata is read with the configured extractor.metadataCommand (exiftool by
default) when it is installed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectConfig common.CommandConfig

func init() {
	addOutputFlags(inspectCmd, &inspectConfig)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	cmdConfig := inspectConfig
	if cmdConfig.OutputFormat, err = common.ResolveOutputFormat(inspectConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats); err != nil {
		return err
	}

	fp, err := newFileProcessor(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	doc, err := fp.ReadDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	report, err := newInspector(cfg, logger).Inspect(cmd.Context(), doc.Name, doc.Data)
	if err != nil {
		return err
	}
	logger.Info("Document inspected",
		"file", report.FileName,
		"pages", report.Pages,
		"words", report.WordCount,
		"warnings", len(report.Warnings))

	return common.NewOutputHandler(fp, logger).HandleOutput(report, cmdConfig)
}
