package pipeline

import (
	"context"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
	"resumeforge/internal/scoring"
	"resumeforge/internal/types"
)

// WordsPerMinute is the reading speed used for cover letter reading time
const WordsPerMinute = 200

// GenerateCoverLetter validates the input, drafts a letter and recomputes the metadata
// the model cannot be trusted to count.
func (p *Pipeline) GenerateCoverLetter(ctx context.Context, input types.CoverLetterInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
	if err := ValidateCoverLetterInput(&input); err != nil {
		return types.CoverLetterOutput{}, nil, err
	}

	out, usage, err := p.ai.GenerateCoverLetter(ctx, input)
	if err != nil {
		return types.CoverLetterOutput{}, usage, asExtractionFailure(err, "Cover letter generation failed")
	}

	out.CoverLetter = strings.TrimSpace(out.CoverLetter)
	if out.CoverLetter == "" {
		return types.CoverLetterOutput{}, usage, errors.NewExtractionError(errors.ErrCodeSchemaInvalid,
			"Model returned an empty cover letter", nil)
	}

	out.Sections.BodyParagraphs = nonNil(out.Sections.BodyParagraphs)
	out.Highlights = nonNil(out.Highlights)
	out.Metadata = letterMetadata(out.CoverLetter, input, out.Metadata.StrengthScore)

	p.logger.Debug("Cover letter generated",
		"company", input.CompanyName,
		"tone", string(input.Tone),
		"words", out.Metadata.WordCount)

	return out, usage, nil
}

// letterMetadata derives word count, reading time and included keywords from the letter text
func letterMetadata(letter string, input types.CoverLetterInput, strength int) types.CoverLetterMetadata {
	words := len(strings.Fields(letter))

	wanted := input.TargetKeywords
	if len(wanted) == 0 {
		wanted = input.SkillsHighlight
	}
	idx := scoring.NewTextIndex(letter)
	included := []string{}
	for _, kw := range wanted {
		if !blank(kw) && idx.Contains(kw) {
			included = append(included, strings.TrimSpace(kw))
		}
	}

	return types.CoverLetterMetadata{
		WordCount:        words,
		ReadingTime:      (words + WordsPerMinute - 1) / WordsPerMinute,
		Tone:             input.Tone,
		KeywordsIncluded: included,
		StrengthScore:    max(0, min(100, strength)),
	}
}

// GenerateSummary validates the input and writes a professional summary
func (p *Pipeline) GenerateSummary(ctx context.Context, input types.SummaryInput) (types.SummaryOutput, *ai.TokenUsage, error) {
	if err := ValidateSummaryInput(input); err != nil {
		return types.SummaryOutput{}, nil, err
	}

	out, usage, err := p.ai.GenerateSummary(ctx, input)
	if err != nil {
		return types.SummaryOutput{}, usage, asExtractionFailure(err, "Summary generation failed")
	}

	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return types.SummaryOutput{}, usage, errors.NewExtractionError(errors.ErrCodeSchemaInvalid,
			"Model returned an empty summary", nil)
	}

	alternatives := make([]string, 0, len(out.AlternativeVersions))
	for _, v := range out.AlternativeVersions {
		if v = strings.TrimSpace(v); v != "" {
			alternatives = append(alternatives, v)
		}
	}
	out.AlternativeVersions = alternatives

	return out, usage, nil
}
