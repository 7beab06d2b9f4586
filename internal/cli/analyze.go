package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/normalizer"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Score a resume the way an applicant tracking system would. Keywords are
extracted from the job description, matched against the resume and combined
into a 0-100 ATS score with a per-component breakdown.

The resume may be a PDF, DOCX or text file, a JSON resume record, or a JSON
object of RMS metadata keys (rms_experience_0_title, ...). Either file may also
be an s3:// URI when S3 storage is enabled.

The result includes:
- Matched and missing keywords by category and importance
- Recommendations ranked by priority and estimated score impact
- A short fit summary with strengths and gaps`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeFlags  struct {
		jobTitle          string
		company           string
		industry          string
		targetScore       int
		noRecommendations bool
		prefix            string
	}
)

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)
	analyzeCmd.Flags().StringVar(&analyzeFlags.jobTitle, "job-title", "", "Title of the position (required)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.company, "company", "", "Hiring company")
	analyzeCmd.Flags().StringVar(&analyzeFlags.industry, "industry", "", "Industry context used during keyword extraction")
	analyzeCmd.Flags().IntVar(&analyzeFlags.targetScore, "target-score", -1, "Target ATS score (0-100)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.noRecommendations, "no-recommendations", false, "Skip recommendations and the fit summary")
	analyzeCmd.Flags().StringVar(&analyzeFlags.prefix, "prefix", normalizer.DefaultPrefix, "Key prefix of RMS metadata resumes")
	_ = analyzeCmd.MarkFlagRequired("job-title")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	cmdConfig := analyzeConfig
	if cmdConfig.OutputFormat, err = common.ResolveOutputFormat(analyzeConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats); err != nil {
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

	createInput := func(contents []string) (types.AnalysisRequest, error) {
		if len(contents) != 2 {
			return types.AnalysisRequest{}, fmt.Errorf("expected 2 file contents, got %d", len(contents))
		}
		req := types.AnalysisRequest{
			JobTitle:        analyzeFlags.jobTitle,
			JobDescription:  contents[1],
			JobCompany:      analyzeFlags.company,
			IndustryContext: analyzeFlags.industry,
		}
		setResume(&req, contents[0], analyzeFlags.prefix)
		if analyzeFlags.targetScore >= 0 {
			target := analyzeFlags.targetScore
			req.TargetATSScore = &target
		}
		if analyzeFlags.noRecommendations {
			include := false
			req.IncludeRecommendations = &include
		}
		return req, nil
	}

	logDetails := func(req types.AnalysisRequest, c common.CommandConfig) {
		logger.Info("Analyzing resume",
			"resume_file", args[0],
			"job_file", args[1],
			"job_title", req.JobTitle,
			"structured_resume", req.ResumeText == "",
			"output_format", c.OutputFormat)
	}

	return common.RunAICommand(cmd.Context(), logger, fp, cmdConfig, args, createInput,
		func(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, *ai.TokenUsage, error) {
			return svc.Pipeline.Analyze(ctx, req)
		}, logDetails)
}

// setResume fills the resume field of req that matches the content's shape
func setResume(req *types.AnalysisRequest, content, prefix string) {
	switch src := resumeSourceFrom(content, prefix).(type) {
	case normalizer.FlatIndexed:
		req.ResumeData = src.Fields
		if src.Prefix != normalizer.DefaultPrefix {
			req.ResumeData = renamePrefix(src.Fields, src.Prefix)
		}
	case normalizer.Structured:
		record := src.Record
		req.ResumeRecord = &record
	default:
		req.ResumeText = content
	}
}

// resumeSourceFrom picks the resume source from file content. JSON objects whose keys
// all carry the metadata prefix are RMS data, other JSON objects are resume records,
// and anything else is plain text.
func resumeSourceFrom(content, prefix string) normalizer.ResumeSource {
	if prefix == "" {
		prefix = normalizer.DefaultPrefix
	}
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return normalizer.PlainText{Text: content}
	}

	var flat map[string]string
	if err := json.Unmarshal([]byte(trimmed), &flat); err == nil && isFlatResume(flat, prefix) {
		return normalizer.FlatIndexed{Fields: flat, Prefix: prefix}
	}

	var record types.ResumeRecord
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		return normalizer.PlainText{Text: content}
	}
	return normalizer.Structured{Record: record}
}

func isFlatResume(fields map[string]string, prefix string) bool {
	if len(fields) == 0 {
		return false
	}
	for key := range fields {
		if !strings.HasPrefix(key, prefix+"_") {
			return false
		}
	}
	return true
}

// renamePrefix rewrites custom-prefixed keys to the default prefix the pipeline reads
func renamePrefix(fields map[string]string, prefix string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[normalizer.DefaultPrefix+strings.TrimPrefix(key, prefix)] = value
	}
	return out
}
