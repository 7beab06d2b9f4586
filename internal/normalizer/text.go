package normalizer

import (
	"regexp"
	"strings"

	"resumeforge/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	bulletPrefix = regexp.MustCompile(`^[-*•·▪]\s*`)
)

// detailIndent marks entry description lines in rendered text
const detailIndent = "  "

// Headings RenderText writes. ParseText also accepts the aliases in headingAliases.
const (
	headingSummary        = "SUMMARY"
	headingExperience     = "EXPERIENCE"
	headingEducation      = "EDUCATION"
	headingSkills         = "SKILLS"
	headingProjects       = "PROJECTS"
	headingCertifications = "CERTIFICATIONS"
	headingAwards         = "AWARDS"
	headingLanguages      = "LANGUAGES"
)

var headingAliases = map[string]string{
	"summary":                   headingSummary,
	"professional summary":      headingSummary,
	"profile":                   headingSummary,
	"objective":                 headingSummary,
	"experience":                headingExperience,
	"work experience":           headingExperience,
	"professional experience":   headingExperience,
	"employment history":        headingExperience,
	"education":                 headingEducation,
	"skills":                    headingSkills,
	"technical skills":          headingSkills,
	"core competencies":         headingSkills,
	"projects":                  headingProjects,
	"certifications":            headingCertifications,
	"licenses & certifications": headingCertifications,
	"awards":                    headingAwards,
	"honors & awards":           headingAwards,
	"languages":                 headingLanguages,
}

// RenderText lays a record out as plain resume text.
func RenderText(rec types.ResumeRecord) string {
	var b strings.Builder
	line := func(parts ...string) {
		b.WriteString(joinFields(parts...))
		b.WriteString("\n")
	}
	detail := func(text string) {
		for ln := range strings.SplitSeq(text, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				b.WriteString(detailIndent + ln + "\n")
			}
		}
	}
	section := func(heading string) {
		b.WriteString("\n")
		b.WriteString(heading)
		b.WriteString("\n")
	}

	c := rec.Contact
	if c.Name != "" {
		line(c.Name)
	}
	if contact := joinNonEmpty(c.Email, c.Phone, c.Location, c.LinkedIn, c.Website); contact != "" {
		line(contact)
	}

	if rec.Summary != "" {
		section(headingSummary)
		line(rec.Summary)
	}

	if len(rec.Experience) > 0 {
		section(headingExperience)
		for _, e := range rec.Experience {
			b.WriteString(entryHeader(e.Title, e.Company, e.Location, dateRange(e.StartDate, e.EndDate)) + "\n")
			detail(e.Description)
			for _, h := range e.Highlights {
				line("- " + h)
			}
		}
	}

	if len(rec.Education) > 0 {
		section(headingEducation)
		for _, e := range rec.Education {
			line(e.Degree, e.Institution, e.Field, dateRange(e.StartDate, e.EndDate), e.GPA)
		}
	}

	if len(rec.SkillCategories) > 0 {
		section(headingSkills)
		for _, s := range rec.SkillCategories {
			skills := strings.Join(s.Skills, ", ")
			if s.Name != "" {
				line(s.Name + ": " + skills)
			} else {
				line(skills)
			}
		}
	}

	if len(rec.Projects) > 0 {
		section(headingProjects)
		for _, p := range rec.Projects {
			b.WriteString(entryHeader(p.Name, p.Organization, p.URL) + "\n")
			detail(p.Description)
			if len(p.Technologies) > 0 {
				line("Technologies: " + strings.Join(p.Technologies, ", "))
			}
		}
	}

	if len(rec.Certifications) > 0 {
		section(headingCertifications)
		for _, c := range rec.Certifications {
			line(c.Name, c.Organization, c.Date)
		}
	}

	if len(rec.Awards) > 0 {
		section(headingAwards)
		for _, a := range rec.Awards {
			line(a.Title, a.Organization, a.Date)
		}
	}

	if len(rec.Languages) > 0 {
		section(headingLanguages)
		for _, l := range rec.Languages {
			line(l.Name, l.Proficiency)
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}

// ParseText recovers what structure it can from resume text. Lines it cannot place are
// kept as descriptions of the entry they follow. A "|" line opens a new entry only at
// the start of a block or after a header, bullet or indented line, so pipe-separated
// lists inside a description stay with it.
func ParseText(text string) types.ResumeRecord {
	var rec types.ResumeRecord
	current := ""
	headerDone := false

	var (
		exp     *types.Experience
		project *types.Project
	)
	flush := func() {
		if exp != nil {
			if exp.Company != "" || exp.Title != "" {
				rec.Experience = append(rec.Experience, *exp)
			}
			exp = nil
		}
		if project != nil {
			if project.Name != "" || project.Organization != "" {
				rec.Projects = append(rec.Projects, *project)
			}
			project = nil
		}
	}

	prevBlank, prevLoose := true, false
	for raw := range strings.SplitSeq(text, "\n") {
		ln := strings.TrimSpace(raw)
		if ln == "" {
			prevBlank = true
			continue
		}
		indented := raw[0] == ' ' || raw[0] == '\t'
		startsBlock := prevBlank
		canOpen := prevBlank || !prevLoose
		prevBlank, prevLoose = false, false
		if heading, ok := matchHeading(ln); ok {
			flush()
			current = heading
			headerDone = true
			continue
		}

		switch current {
		case "":
			if rec.Contact.Email == "" {
				rec.Contact.Email = emailPattern.FindString(ln)
			}
			if rec.Contact.Phone == "" {
				rec.Contact.Phone = strings.TrimSpace(phonePattern.FindString(emailPattern.ReplaceAllString(ln, "")))
			}
			if rec.Contact.Name == "" && !headerDone && !strings.Contains(ln, "@") && !strings.Contains(ln, "|") &&
				phonePattern.FindString(ln) != ln {
				rec.Contact.Name = ln
			}
		case headingSummary:
			rec.Summary = appendText(rec.Summary, ln)
		case headingExperience:
			switch {
			case bulletPrefix.MatchString(ln):
				if exp != nil {
					exp.Highlights = append(exp.Highlights, bulletPrefix.ReplaceAllString(ln, ""))
				}
			case indented && exp != nil:
				exp.Description = appendText(exp.Description, ln)
			case strings.Contains(ln, "|") && (exp == nil || canOpen),
				strings.Contains(ln, " at ") && (exp == nil || startsBlock):
				flush()
				exp = parseExperienceHeader(ln)
			case exp != nil:
				exp.Description = appendText(exp.Description, ln)
				prevLoose = true
			}
		case headingEducation:
			parts := splitFields(ln)
			edu := types.Education{
				Degree:      part(parts, 0),
				Institution: part(parts, 1),
				Field:       part(parts, 2),
				GPA:         part(parts, 4),
			}
			edu.StartDate, edu.EndDate = splitDates(part(parts, 3))
			if len(parts) == 1 {
				edu = types.Education{Institution: parts[0]}
			}
			rec.Education = append(rec.Education, edu)
		case headingSkills:
			name, list, found := strings.Cut(ln, ":")
			if !found {
				name, list = "", ln
			}
			rec.SkillCategories = append(rec.SkillCategories, types.SkillCategory{
				Name:   strings.TrimSpace(name),
				Skills: splitList(list),
			})
		case headingProjects:
			switch {
			case strings.HasPrefix(ln, "Technologies:"):
				if project != nil {
					project.Technologies = splitList(strings.TrimPrefix(ln, "Technologies:"))
				}
			case indented && project != nil:
				project.Description = appendText(project.Description, ln)
			case project == nil || (strings.Contains(ln, "|") && canOpen):
				flush()
				parts := splitFields(ln)
				project = &types.Project{Name: part(parts, 0), Organization: part(parts, 1), URL: part(parts, 2)}
			default:
				project.Description = appendText(project.Description, ln)
				prevLoose = true
			}
		case headingCertifications:
			parts := splitFields(ln)
			rec.Certifications = append(rec.Certifications, types.Certification{
				Name: part(parts, 0), Organization: part(parts, 1), Date: part(parts, 2),
			})
		case headingAwards:
			parts := splitFields(ln)
			rec.Awards = append(rec.Awards, types.Award{
				Title: part(parts, 0), Organization: part(parts, 1), Date: part(parts, 2),
			})
		case headingLanguages:
			parts := splitFields(ln)
			rec.Languages = append(rec.Languages, types.Language{Name: part(parts, 0), Proficiency: part(parts, 1)})
		}
	}
	flush()

	return rec
}

func parseExperienceHeader(ln string) *types.Experience {
	if !strings.Contains(ln, "|") {
		title, company, _ := strings.Cut(ln, " at ")
		return &types.Experience{Title: strings.TrimSpace(title), Company: strings.TrimSpace(company)}
	}
	parts := splitFields(ln)
	e := &types.Experience{
		Title:    part(parts, 0),
		Company:  part(parts, 1),
		Location: part(parts, 2),
	}
	e.StartDate, e.EndDate = splitDates(part(parts, 3))
	return e
}

func matchHeading(ln string) (string, bool) {
	key := strings.ToLower(strings.TrimSuffix(ln, ":"))
	heading, ok := headingAliases[key]
	return heading, ok
}

// joinFields writes positional fields separated by " | ", dropping trailing empties only
// so that ParseText can read fields back by position.
func joinFields(parts ...string) string {
	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	return strings.Join(parts[:end], " | ")
}

// entryHeader is joinFields that always keeps the first two fields, so even a
// title-only entry renders with a separator ParseText recognises.
func entryHeader(parts ...string) string {
	end := len(parts)
	for end > 2 && parts[end-1] == "" {
		end--
	}
	return strings.TrimSpace(strings.Join(parts[:end], " | "))
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}

func splitFields(ln string) []string {
	parts := strings.Split(ln, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	default:
		return start + " - " + end
	}
}

func splitDates(s string) (string, string) {
	start, end, found := strings.Cut(s, " - ")
	if !found {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(start), strings.TrimSpace(end)
}

func appendText(existing, ln string) string {
	if existing == "" {
		return ln
	}
	return existing + "\n" + ln
}
