package formatters

import (
	"fmt"
	"strings"

	"resumeforge/internal/types"
)

// AnalysisTextFormatter handles text formatting for ATS analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Analysis ID: %s\n", result.AnalysisID))
	output.WriteString(fmt.Sprintf("ATS Score: %d/100\n\n", result.ATSScore))

	output.WriteString("=== SCORE BREAKDOWN ===\n")
	for _, row := range breakdownRows(result.Breakdown) {
		output.WriteString(fmt.Sprintf("%-22s %5.1f\n", row.label+":", row.value))
	}
	output.WriteString("\n")

	output.WriteString("=== KEYWORDS ===\n")
	output.WriteString(fmt.Sprintf("Matched (%d): %s\n", len(result.MatchedKeywords), strings.Join(result.MatchedKeywords, ", ")))
	output.WriteString(fmt.Sprintf("Missing (%d): %s\n\n", len(result.MissingKeywords), strings.Join(result.MissingKeywords, ", ")))

	if len(result.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n\n")
		for i, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. [%s] %s (+%d)\n", i+1, strings.ToUpper(string(rec.Priority)), rec.Type, rec.EstimatedImpact))
			output.WriteString("   Suggestion: ")
			output.WriteString(rec.SuggestedText)
			output.WriteString("\n")
			if rec.Reason != "" {
				output.WriteString("   Reason: ")
				output.WriteString(rec.Reason)
				output.WriteString("\n")
			}
			output.WriteString("\n")
		}
	}

	output.WriteString("=== SUMMARY ===\n")
	if result.Summary.OverallFit != "" {
		output.WriteString(result.Summary.OverallFit)
		output.WriteString("\n\n")
	}
	writeList(&output, "Strengths:\n", result.Summary.Strengths)
	writeList(&output, "Weaknesses:\n", result.Summary.Weaknesses)
	writeList(&output, "Quick Wins:\n", result.Summary.QuickWins)

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for ATS analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Analysis\n\n")
	output.WriteString(fmt.Sprintf("**ATS Score:** %d/100\n\n", result.ATSScore))

	output.WriteString("## Score Breakdown\n\n")
	output.WriteString("| Component | Score |\n|---|---|\n")
	for _, row := range breakdownRows(result.Breakdown) {
		output.WriteString(fmt.Sprintf("| %s | %.1f |\n", row.label, row.value))
	}
	output.WriteString("\n")

	output.WriteString("## Keywords\n\n")
	writeList(&output, "### Matched\n", result.MatchedKeywords)
	writeList(&output, "### Missing\n", result.MissingKeywords)

	if len(result.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for i, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("### %d. %s (%s priority, +%d)\n\n", i+1, rec.Type, rec.Priority, rec.EstimatedImpact))
			output.WriteString(rec.SuggestedText)
			output.WriteString("\n\n")
			if rec.Reason != "" {
				output.WriteString("**Reason:** ")
				output.WriteString(rec.Reason)
				output.WriteString("\n\n")
			}
		}
	}

	output.WriteString("## Summary\n\n")
	if result.Summary.OverallFit != "" {
		output.WriteString(result.Summary.OverallFit)
		output.WriteString("\n\n")
	}
	writeList(&output, "### Strengths\n", result.Summary.Strengths)
	writeList(&output, "### Weaknesses\n", result.Summary.Weaknesses)
	writeList(&output, "### Quick Wins\n", result.Summary.QuickWins)

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

type breakdownRow struct {
	label string
	value float64
}

func breakdownRows(b types.ScoreBreakdown) []breakdownRow {
	return []breakdownRow{
		{"Keyword Match", b.KeywordMatch},
		{"Skills Alignment", b.SkillsAlignment},
		{"Experience Relevance", b.ExperienceRelevance},
		{"Education Match", b.EducationMatch},
		{"Formatting", b.Formatting},
	}
}
