package formatters

import (
	"fmt"
	"strings"

	"resumeforge/internal/types"
)

// CoverLetterTextFormatter handles text formatting for generated cover letters
type CoverLetterTextFormatter struct{}

func (ctf *CoverLetterTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CoverLetterOutput)
	if !ok {
		return "", fmt.Errorf("expected CoverLetterOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== COVER LETTER ===\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	md := result.Metadata
	output.WriteString("=== DETAILS ===\n")
	output.WriteString(fmt.Sprintf("Words: %d (about %d min read)\n", md.WordCount, md.ReadingTime))
	output.WriteString(fmt.Sprintf("Tone: %s\n", md.Tone))
	output.WriteString(fmt.Sprintf("Strength: %d/100\n", md.StrengthScore))
	if len(md.KeywordsIncluded) > 0 {
		output.WriteString(fmt.Sprintf("Keywords included: %s\n", strings.Join(md.KeywordsIncluded, ", ")))
	}
	output.WriteString("\n")

	writeList(&output, "Highlights:\n", result.Highlights)
	writeList(&output, "Suggestions:\n", result.Suggestions)

	return output.String(), nil
}

func (ctf *CoverLetterTextFormatter) SupportedType() string {
	return "CoverLetterOutput"
}

// CoverLetterMarkdownFormatter handles markdown formatting for generated cover letters
type CoverLetterMarkdownFormatter struct{}

func (cmf *CoverLetterMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CoverLetterOutput)
	if !ok {
		return "", fmt.Errorf("expected CoverLetterOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Cover Letter\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	md := result.Metadata
	output.WriteString("## Details\n\n")
	output.WriteString(fmt.Sprintf("- **Words:** %d\n", md.WordCount))
	output.WriteString(fmt.Sprintf("- **Reading time:** %d min\n", md.ReadingTime))
	output.WriteString(fmt.Sprintf("- **Tone:** %s\n", md.Tone))
	output.WriteString(fmt.Sprintf("- **Strength:** %d/100\n", md.StrengthScore))
	if len(md.KeywordsIncluded) > 0 {
		output.WriteString(fmt.Sprintf("- **Keywords included:** %s\n", strings.Join(md.KeywordsIncluded, ", ")))
	}
	output.WriteString("\n")

	writeList(&output, "## Highlights\n\n", result.Highlights)
	writeList(&output, "## Suggestions\n\n", result.Suggestions)

	return output.String(), nil
}

func (cmf *CoverLetterMarkdownFormatter) SupportedType() string {
	return "CoverLetterOutput"
}

// SummaryTextFormatter handles text formatting for professional summaries
type SummaryTextFormatter struct{}

func (stf *SummaryTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SummaryOutput)
	if !ok {
		return "", fmt.Errorf("expected SummaryOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== PROFESSIONAL SUMMARY ===\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n\n")

	if len(result.AlternativeVersions) > 0 {
		output.WriteString("=== ALTERNATIVES ===\n")
		for i, alt := range result.AlternativeVersions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, alt))
		}
	}

	return output.String(), nil
}

func (stf *SummaryTextFormatter) SupportedType() string {
	return "SummaryOutput"
}

// SummaryMarkdownFormatter handles markdown formatting for professional summaries
type SummaryMarkdownFormatter struct{}

func (smf *SummaryMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SummaryOutput)
	if !ok {
		return "", fmt.Errorf("expected SummaryOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Professional Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n\n")

	if len(result.AlternativeVersions) > 0 {
		output.WriteString("## Alternatives\n\n")
		for i, alt := range result.AlternativeVersions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, alt))
		}
	}

	return output.String(), nil
}

func (smf *SummaryMarkdownFormatter) SupportedType() string {
	return "SummaryOutput"
}
