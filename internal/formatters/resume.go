package formatters

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"resumeforge/internal/normalizer"
	"resumeforge/internal/types"
)

// ResumeTextFormatter renders a normalized resume as plain text
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	record, ok := data.(types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected ResumeRecord, got %T", data)
	}
	return normalizer.RenderText(record) + "\n", nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "ResumeRecord"
}

// ResumeMarkdownFormatter renders a normalized resume as markdown
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	r, ok := data.(types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected ResumeRecord, got %T", data)
	}

	var output strings.Builder

	name := r.Contact.Name
	if name == "" {
		name = "Resume"
	}
	output.WriteString(fmt.Sprintf("# %s\n\n", name))
	if contact := joinNonBlank(" | ", r.Contact.Email, r.Contact.Phone, r.Contact.Location, r.Contact.LinkedIn, r.Contact.Website); contact != "" {
		output.WriteString(contact)
		output.WriteString("\n\n")
	}

	if r.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(r.Summary)
		output.WriteString("\n\n")
	}

	if len(r.Experience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, e := range r.Experience {
			output.WriteString(fmt.Sprintf("### %s\n\n", joinNonBlank(", ", e.Title, e.Company)))
			if dates := joinNonBlank(" - ", e.StartDate, e.EndDate); dates != "" {
				output.WriteString(fmt.Sprintf("*%s*\n\n", joinNonBlank(" | ", dates, e.Location)))
			}
			if e.Description != "" {
				output.WriteString(e.Description)
				output.WriteString("\n\n")
			}
			writeList(&output, "", e.Highlights)
		}
	}

	if len(r.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, e := range r.Education {
			degree := joinNonBlank(" in ", e.Degree, e.Field)
			output.WriteString(fmt.Sprintf("- **%s**", joinNonBlank(", ", degree, e.Institution)))
			if dates := joinNonBlank(" - ", e.StartDate, e.EndDate); dates != "" {
				output.WriteString(fmt.Sprintf(" (%s)", dates))
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if len(r.SkillCategories) > 0 {
		output.WriteString("## Skills\n\n")
		for _, c := range r.SkillCategories {
			if c.Name != "" {
				output.WriteString(fmt.Sprintf("- **%s:** %s\n", c.Name, strings.Join(c.Skills, ", ")))
			} else {
				output.WriteString(fmt.Sprintf("- %s\n", strings.Join(c.Skills, ", ")))
			}
		}
		output.WriteString("\n")
	}

	if len(r.Projects) > 0 {
		output.WriteString("## Projects\n\n")
		for _, p := range r.Projects {
			output.WriteString(fmt.Sprintf("- **%s**", p.Name))
			if p.Description != "" {
				output.WriteString(": " + p.Description)
			}
			if len(p.Technologies) > 0 {
				output.WriteString(fmt.Sprintf(" (%s)", strings.Join(p.Technologies, ", ")))
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	var extras []string
	for _, c := range r.Certifications {
		extras = append(extras, joinNonBlank(", ", c.Name, c.Organization, c.Date))
	}
	writeList(&output, "## Certifications\n\n", extras)

	extras = nil
	for _, a := range r.Awards {
		extras = append(extras, joinNonBlank(", ", a.Title, a.Organization, a.Date))
	}
	writeList(&output, "## Awards\n\n", extras)

	extras = nil
	for _, l := range r.Languages {
		extras = append(extras, joinNonBlank(" - ", l.Name, l.Proficiency))
	}
	writeList(&output, "## Languages\n\n", extras)

	return output.String(), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "ResumeRecord"
}

// InspectionTextFormatter handles text formatting for document inspection reports
type InspectionTextFormatter struct{}

func (itf *InspectionTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.InspectionReport)
	if !ok {
		return "", fmt.Errorf("expected InspectionReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== DOCUMENT INSPECTION ===\n\n")
	output.WriteString(fmt.Sprintf("File: %s (%s, %d bytes)\n", report.FileName, report.ContentType, report.SizeBytes))
	output.WriteString(fmt.Sprintf("Pages: %d\n", report.Pages))
	output.WriteString(fmt.Sprintf("Words: %d\n\n", report.WordCount))

	if len(report.Fonts) > 0 {
		output.WriteString("=== FONTS ===\n")
		for _, f := range report.Fonts {
			output.WriteString(fmt.Sprintf("%s: %s (%d runs)\n", f.Name, formatSizes(f.Sizes), f.Count))
		}
		output.WriteString("\n")
	}

	if len(report.Metadata) > 0 {
		output.WriteString("=== METADATA ===\n")
		for _, k := range slices.Sorted(maps.Keys(report.Metadata)) {
			output.WriteString(fmt.Sprintf("%s: %s\n", k, report.Metadata[k]))
		}
		output.WriteString("\n")
	}

	writeList(&output, "=== WARNINGS ===\n", report.Warnings)

	if report.TextPreview != "" {
		output.WriteString("=== PREVIEW ===\n")
		output.WriteString(report.TextPreview)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (itf *InspectionTextFormatter) SupportedType() string {
	return "InspectionReport"
}

// InspectionMarkdownFormatter handles markdown formatting for document inspection reports
type InspectionMarkdownFormatter struct{}

func (imf *InspectionMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.InspectionReport)
	if !ok {
		return "", fmt.Errorf("expected InspectionReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# Inspection: %s\n\n", report.FileName))
	output.WriteString(fmt.Sprintf("- **Type:** %s\n", report.ContentType))
	output.WriteString(fmt.Sprintf("- **Size:** %d bytes\n", report.SizeBytes))
	output.WriteString(fmt.Sprintf("- **Pages:** %d\n", report.Pages))
	output.WriteString(fmt.Sprintf("- **Words:** %d\n\n", report.WordCount))

	if len(report.Fonts) > 0 {
		output.WriteString("## Fonts\n\n| Font | Sizes | Runs |\n|---|---|---|\n")
		for _, f := range report.Fonts {
			output.WriteString(fmt.Sprintf("| %s | %s | %d |\n", f.Name, formatSizes(f.Sizes), f.Count))
		}
		output.WriteString("\n")
	}

	if len(report.Metadata) > 0 {
		output.WriteString("## Metadata\n\n")
		for _, k := range slices.Sorted(maps.Keys(report.Metadata)) {
			output.WriteString(fmt.Sprintf("- **%s:** %s\n", k, report.Metadata[k]))
		}
		output.WriteString("\n")
	}

	writeList(&output, "## Warnings\n\n", report.Warnings)

	if report.TextPreview != "" {
		output.WriteString("## Preview\n\n```\n")
		output.WriteString(report.TextPreview)
		output.WriteString("\n```\n")
	}

	return output.String(), nil
}

func (imf *InspectionMarkdownFormatter) SupportedType() string {
	return "InspectionReport"
}

func formatSizes(sizes []float64) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = fmt.Sprintf("%gpt", s)
	}
	return strings.Join(parts, ", ")
}

func joinNonBlank(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
