package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

var (
	validTones   = []types.Tone{types.ToneProfessional, types.ToneEnthusiastic, types.ToneConfident, types.ToneFriendly}
	validLengths = []types.Length{types.LengthConcise, types.LengthStandard, types.LengthDetailed}
)

func invalid(format string, args ...any) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, fmt.Sprintf(format, args...), nil)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateAnalysisRequest checks an analysis request before any work is done
func ValidateAnalysisRequest(req types.AnalysisRequest) error {
	sources := 0
	if !blank(req.ResumeText) {
		sources++
	}
	if len(req.ResumeData) > 0 {
		sources++
	}
	if req.ResumeRecord != nil {
		sources++
	}
	switch {
	case sources == 0:
		return invalid("one of resumeText, resumeData or resumeRecord is required")
	case sources > 1:
		return invalid("only one of resumeText, resumeData or resumeRecord may be given")
	}

	if blank(req.JobTitle) {
		return invalid("jobTitle is required")
	}
	if blank(req.JobDescription) {
		return invalid("jobDescription is required")
	}
	if req.TargetATSScore != nil && (*req.TargetATSScore < 0 || *req.TargetATSScore > 100) {
		return invalid("targetATSScore must be between 0 and 100, got %d", *req.TargetATSScore)
	}
	return nil
}

// ValidateCoverLetterInput checks required fields and fills in tone and length defaults
func ValidateCoverLetterInput(in *types.CoverLetterInput) error {
	if blank(in.ResumeText) {
		return invalid("resumeText is required")
	}
	if blank(in.JobTitle) {
		return invalid("jobTitle is required")
	}
	if blank(in.CompanyName) {
		return invalid("companyName is required")
	}

	if in.Tone == "" {
		in.Tone = types.ToneProfessional
	}
	if !slices.Contains(validTones, in.Tone) {
		return invalid("tone must be one of professional, enthusiastic, confident, friendly; got %q", in.Tone)
	}
	if in.Length == "" {
		in.Length = types.LengthStandard
	}
	if !slices.Contains(validLengths, in.Length) {
		return invalid("length must be one of concise, standard, detailed; got %q", in.Length)
	}
	return nil
}

// ValidateSummaryInput checks a summary request
func ValidateSummaryInput(in types.SummaryInput) error {
	if blank(in.ExistingExperience) {
		return invalid("existingExperience is required")
	}
	return nil
}
