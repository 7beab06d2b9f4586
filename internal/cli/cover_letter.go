package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter [resume-file] [job-description-file]",
	Short: "Draft a cover letter for a job",
	Long: `Draft a cover letter from a resume, optionally tailored to a job description.

The letter is returned in full and split into salutation, opening, body,
closing and signature, with word count, reading time and the target keywords
it managed to include.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCoverLetter,
}

var (
	coverLetterConfig common.CommandConfig
	coverLetterFlags  struct {
		jobTitle       string
		company        string
		tone           string
		length         string
		skills         []string
		keywords       []string
		noCallToAction bool
		research       string
		connection     string
	}
)

func init() {
	addOutputFlags(coverLetterCmd, &coverLetterConfig)
	f := coverLetterCmd.Flags()
	f.StringVar(&coverLetterFlags.jobTitle, "job-title", "", "Title of the position (required)")
	f.StringVar(&coverLetterFlags.company, "company", "", "Company name (required)")
	f.StringVar(&coverLetterFlags.tone, "tone", string(types.ToneProfessional), "Tone: professional, enthusiastic, confident, friendly")
	f.StringVar(&coverLetterFlags.length, "length", string(types.LengthStandard), "Length: concise, standard, detailed")
	f.StringSliceVar(&coverLetterFlags.skills, "skills", nil, "Skills to highlight")
	f.StringSliceVar(&coverLetterFlags.keywords, "keywords", nil, "Keywords the letter should include")
	f.BoolVar(&coverLetterFlags.noCallToAction, "no-call-to-action", false, "Omit the closing call to action")
	f.StringVar(&coverLetterFlags.research, "research", "", "Notes about the company to weave in")
	f.StringVar(&coverLetterFlags.connection, "connection", "", "Personal connection to the company or role")
	_ = coverLetterCmd.MarkFlagRequired("job-title")
	_ = coverLetterCmd.MarkFlagRequired("company")

	_ = coverLetterCmd.RegisterFlagCompletionFunc("tone", cobra.FixedCompletions(
		[]string{"professional", "enthusiastic", "confident", "friendly"}, cobra.ShellCompDirectiveNoFileComp))
	_ = coverLetterCmd.RegisterFlagCompletionFunc("length", cobra.FixedCompletions(
		[]string{"concise", "standard", "detailed"}, cobra.ShellCompDirectiveNoFileComp))
}

func runCoverLetter(cmd *cobra.Command, args []string) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	cmdConfig := coverLetterConfig
	if cmdConfig.OutputFormat, err = common.ResolveOutputFormat(coverLetterConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats); err != nil {
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

	createInput := func(contents []string) (types.CoverLetterInput, error) {
		if len(contents) == 0 || len(contents) > 2 {
			return types.CoverLetterInput{}, fmt.Errorf("expected 1 or 2 file contents, got %d", len(contents))
		}
		input := types.CoverLetterInput{
			ResumeText:         contents[0],
			JobTitle:           coverLetterFlags.jobTitle,
			CompanyName:        coverLetterFlags.company,
			SkillsHighlight:    coverLetterFlags.skills,
			TargetKeywords:     coverLetterFlags.keywords,
			Tone:               types.Tone(coverLetterFlags.tone),
			Length:             types.Length(coverLetterFlags.length),
			CompanyResearch:    coverLetterFlags.research,
			PersonalConnection: coverLetterFlags.connection,
		}
		if len(contents) == 2 {
			input.JobDescription = contents[1]
		}
		if coverLetterFlags.noCallToAction {
			include := false
			input.IncludeCallToAction = &include
		}
		return input, nil
	}

	logDetails := func(input types.CoverLetterInput, c common.CommandConfig) {
		logger.Info("Generating cover letter",
			"resume_file", args[0],
			"job_title", input.JobTitle,
			"company", input.CompanyName,
			"tone", string(input.Tone),
			"length", string(input.Length),
			"output_format", c.OutputFormat)
	}

	return common.RunAICommand(cmd.Context(), logger, fp, cmdConfig, args, createInput,
		func(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
			return svc.Pipeline.GenerateCoverLetter(ctx, input)
		}, logDetails)
}
