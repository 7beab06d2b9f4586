package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"resumeforge/internal/config"
)

// DefaultSystemPrompts holds the built-in system instruction for each operation
var DefaultSystemPrompts = map[config.Operation]string{
	config.OpExtractKeywords: `You are an expert technical recruiter and applicant tracking system (ATS) analyst. You read job postings the way ATS software does and list the terms a resume must contain to rank well.

Rules:
- Only extract terms that appear in, or are clearly implied by, the posting
- Use the posting's own wording for each term; put abbreviations and spelling variants in "variations"
- Classify every term with exactly one category and one importance level
- Never repeat a term`,

	config.OpAssessFit: `You are an experienced hiring manager reviewing how well a candidate's resume fits a job posting. You are given the resume, the posting and an ATS score computed by software.

Your principles:
- Base every statement on the resume text; never assume experience that is not written down
- Be specific and actionable; name the section and the keyword involved
- Keep the tone constructive and honest`,

	config.OpCoverLetter: `You are a professional career writer who drafts cover letters for real applications. You write in the candidate's voice and with strict honesty:

- NEVER invent employers, titles, dates, degrees, metrics or skills that are not in the resume
- Connect the candidate's actual experience to the role's needs
- Respect the requested tone and length`,

	config.OpSummary: `You are a professional resume writer specialising in the summary section at the top of a resume. You write concise, keyword-rich summaries that survive ATS parsing and read well to humans. You never invent experience or credentials.`,
}

// DefaultUserPrompts holds the built-in user prompt template for each operation.
// Templates use text/template syntax and receive the operation's input type.
var DefaultUserPrompts = map[config.Operation]string{
	config.OpExtractKeywords: `Extract the ATS keywords from this job posting.

Job title: {{.Job.Title}}
{{- if .Job.Company}}
Company: {{.Job.Company}}{{end}}
{{- if .Job.Location}}
Location: {{.Job.Location}}{{end}}
{{- if .Job.EmploymentType}}
Employment type: {{.Job.EmploymentType}}{{end}}
{{- if .Job.Salary}}
Salary: {{.Job.Salary}}{{end}}
{{- if .IndustryContext}}
Industry context: {{.IndustryContext}}{{end}}
{{- if .TargetATSScore}}
The candidate is aiming for an ATS score of {{deref .TargetATSScore}}.{{end}}

Job description:
{{.Job.Description}}

Return JSON with a "keywords" array. Each entry has:
- "term": the keyword as written in the posting
- "category": one of skill, tool, qualification, soft_skill, certification, industry_term
- "importance": one of required, preferred, nice_to_have
- "variations": other spellings or abbreviations (may be empty)
- "contexts": short phrases from the posting where the term appears (may be empty)
{{- if gt .MinKeywords 0}}

Return at least {{.MinKeywords}} distinct keywords.{{end}}`,

	config.OpAssessFit: `Assess how well this resume fits the job.

Job title: {{.Job.Title}}
{{- if .Job.Company}}
Company: {{.Job.Company}}{{end}}

Job description:
{{.Job.Description}}

Resume:
{{.ResumeText}}

ATS score: {{.ATSScore}}/100
Keyword match {{printf "%.0f" .Breakdown.KeywordMatch}}, skills alignment {{printf "%.0f" .Breakdown.SkillsAlignment}}, experience relevance {{printf "%.0f" .Breakdown.ExperienceRelevance}}, education match {{printf "%.0f" .Breakdown.EducationMatch}}, formatting {{printf "%.0f" .Breakdown.Formatting}}
Matched keywords: {{join .MatchedKeywords}}
Missing keywords: {{join .MissingKeywords}}

Return JSON with:
- "summary": {"strengths": [...], "weaknesses": [...], "quickWins": [...], "overallFit": "one paragraph"}
- "recommendations": up to 5 items with type (keyword, skill, experience, education, summary, format, structure), priority (high, medium, low), section, suggestedText, reason, keywords (missing keywords the change adds) and estimatedImpact (0-20 ATS points)`,

	config.OpCoverLetter: `Write a cover letter for the role of {{.JobTitle}} at {{.CompanyName}}.

Tone: {{.Tone}}
Length: {{.Length}}{{if eq (print .Length) "concise"}} (about 200 words){{else if eq (print .Length) "detailed"}} (about 450 words){{else}} (about 300 words){{end}}
{{- if .JobDescription}}

Job description:
{{.JobDescription}}{{end}}

Resume:
{{.ResumeText}}
{{- if .ResumeSummary}}

Candidate summary: {{.ResumeSummary}}{{end}}
{{- if .SkillsHighlight}}
Skills to highlight: {{join .SkillsHighlight}}{{end}}
{{- if .ExperienceHighlight}}
Experience to highlight: {{join .ExperienceHighlight}}{{end}}
{{- if .EducationHighlight}}
Education to highlight: {{.EducationHighlight}}{{end}}
{{- if .CompanyResearch}}
About the company: {{.CompanyResearch}}{{end}}
{{- if .PersonalConnection}}
Personal connection: {{.PersonalConnection}}{{end}}
{{- if .TargetKeywords}}
Work in these keywords where truthful: {{join .TargetKeywords}}{{end}}
{{- if .WantsCallToAction}}
End with a clear call to action.{{else}}
Do not include a call to action.{{end}}

Return JSON with "coverLetter" (full text), "sections" {salutation, opening, bodyParagraphs, closing, signature}, "highlights" (the candidate strengths you used), "metadata" {tone, strengthScore 0-100} and "suggestions" for the candidate.`,

	config.OpSummary: `Write a professional resume summary of 3 to 4 sentences.
{{- if .TargetPosition}}

Target position: {{.TargetPosition}}{{end}}
{{- if .SkillsHighlight}}
Skills to emphasise: {{.SkillsHighlight}}{{end}}

Experience:
{{.ExistingExperience}}
{{- if .ExistingSummary}}

Current summary (improve on it):
{{.ExistingSummary}}{{end}}

Return JSON with "summary" and "alternativeVersions" (two shorter variants).`,
}

var promptFuncs = template.FuncMap{
	"join": func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return strings.Join(items, ", ")
	},
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
}

// resolvePrompt selects the prompt by priority: loaded from file, then config, then the default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// systemPrompt returns the system instruction for op
func systemPrompt(op config.Operation, custom config.PromptConfig) string {
	return resolvePrompt(config.GetPromptsForOperation(op).System, custom.System, DefaultSystemPrompts[op])
}

// renderUserPrompt resolves the user template for op and executes it with data
func renderUserPrompt(op config.Operation, custom config.PromptConfig, data any) (string, error) {
	text := resolvePrompt(config.GetPromptsForOperation(op).User, custom.User, DefaultUserPrompts[op])
	tmpl, err := template.New(string(op)).Funcs(promptFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid %s user prompt template: %w", op, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s user prompt: %w", op, err)
	}
	return buf.String(), nil
}
