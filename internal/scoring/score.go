// Package scoring computes ATS compatibility scores for a resume against extracted keywords.
package scoring

import (
	"math"
	"strings"
	"unicode"

	"resumeforge/internal/normalizer"
	"resumeforge/internal/types"
)

// Sub-score weights in percent. They sum to 100.
const (
	WeightKeywordMatch        = 40
	WeightSkillsAlignment     = 25
	WeightExperienceRelevance = 20
	WeightEducationMatch      = 10
	WeightFormatting          = 5
)

// CalculateATSScore combines a breakdown into the overall 0-100 score.
// Inputs are clamped to [0,100] first, so the result is always in range.
func CalculateATSScore(b types.ScoreBreakdown) int {
	sum := WeightKeywordMatch*clamp(b.KeywordMatch) +
		WeightSkillsAlignment*clamp(b.SkillsAlignment) +
		WeightExperienceRelevance*clamp(b.ExperienceRelevance) +
		WeightEducationMatch*clamp(b.EducationMatch) +
		WeightFormatting*clamp(b.Formatting)
	return int(clamp(math.Round(sum / 100)))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func round1(v float64) float64 {
	return math.Round(clamp(v)*10) / 10
}

// Result is the outcome of scoring one resume
type Result struct {
	Breakdown types.ScoreBreakdown
	Overall   int
	Matched   []types.KeywordEntry
	Missing   []types.KeywordEntry
}

// Score evaluates rec against entries. text is the resume's document text; when empty it is
// rendered from rec.
func Score(rec types.ResumeRecord, text string, entries []types.KeywordEntry) Result {
	if strings.TrimSpace(text) == "" {
		text = normalizer.RenderText(rec)
	}
	full := newTextIndex(text)
	match := matchIndex(full, entries)

	b := types.ScoreBreakdown{
		KeywordMatch:        round1(keywordMatch(match)),
		SkillsAlignment:     round1(skillsAlignment(rec, full, entries)),
		ExperienceRelevance: round1(experienceRelevance(rec, full, entries)),
		EducationMatch:      round1(educationMatch(rec, full, entries)),
		Formatting:          round1(formatting(rec, text)),
	}

	return Result{
		Breakdown: b,
		Overall:   CalculateATSScore(b),
		Matched:   match.Matched,
		Missing:   match.Missing,
	}
}

func importanceWeight(i types.Importance) float64 {
	switch i {
	case types.ImportanceRequired:
		return 3
	case types.ImportancePreferred:
		return 2
	default:
		return 1
	}
}

// weightedShare returns the importance-weighted share of entries found in idx, and false
// when no entry passes the filter.
func weightedShare(idx *TextIndex, entries []types.KeywordEntry, keep func(types.KeywordEntry) bool) (float64, bool) {
	var found, total float64
	for _, e := range entries {
		if !keep(e) {
			continue
		}
		w := importanceWeight(e.Importance)
		total += w
		if idx.ContainsEntry(e) {
			found += w
		}
	}
	if total == 0 {
		return 0, false
	}
	return found / total, true
}

func keywordMatch(m Match) float64 {
	var found, total float64
	for _, e := range m.Matched {
		w := importanceWeight(e.Importance)
		found += w
		total += w
	}
	for _, e := range m.Missing {
		total += importanceWeight(e.Importance)
	}
	if total == 0 {
		return 0
	}
	return 100 * found / total
}

func isSkillLike(e types.KeywordEntry) bool {
	switch e.Category {
	case types.CategorySkill, types.CategoryTool, types.CategoryCertification:
		return true
	}
	return false
}

func skillsAlignment(rec types.ResumeRecord, full *TextIndex, entries []types.KeywordEntry) float64 {
	var parts []string
	for _, c := range rec.SkillCategories {
		parts = append(parts, c.Name)
		parts = append(parts, c.Skills...)
	}
	for _, c := range rec.Certifications {
		parts = append(parts, c.Name)
	}
	for _, p := range rec.Projects {
		parts = append(parts, p.Name, p.Description)
		parts = append(parts, p.Technologies...)
	}

	idx := full
	if len(parts) > 0 {
		idx = newTextIndex(strings.Join(parts, "\n"))
	}

	share, ok := weightedShare(idx, entries, isSkillLike)
	if !ok {
		if len(rec.SkillCategories) > 0 {
			return 100
		}
		return 50
	}
	return 100 * share
}

func experienceRelevance(rec types.ResumeRecord, full *TextIndex, entries []types.KeywordEntry) float64 {
	var parts []string
	quantified := 0
	for _, e := range rec.Experience {
		parts = append(parts, e.Title, e.Company, e.Description)
		parts = append(parts, e.Highlights...)
		for _, h := range append([]string{e.Description}, e.Highlights...) {
			if strings.IndexFunc(h, unicode.IsDigit) >= 0 {
				quantified++
			}
		}
	}

	idx := full
	if len(parts) > 0 {
		idx = newTextIndex(strings.Join(parts, "\n"))
	}

	base := 40.0
	if len(rec.Experience) > 0 {
		base = 85
	}
	share, ok := weightedShare(idx, entries, func(e types.KeywordEntry) bool {
		return e.Importance == types.ImportanceRequired || e.Importance == types.ImportancePreferred
	})
	if ok {
		base = 85 * share
	}

	return base + float64(min(quantified*3, 15))
}

func educationMatch(rec types.ResumeRecord, full *TextIndex, entries []types.KeywordEntry) float64 {
	var parts []string
	for _, e := range rec.Education {
		parts = append(parts, e.Degree, e.Field, e.Institution)
	}
	for _, c := range rec.Certifications {
		parts = append(parts, c.Name, c.Organization)
	}

	idx := full
	if len(parts) > 0 {
		idx = newTextIndex(strings.Join(parts, "\n"))
	}

	hasEducation := len(rec.Education) > 0
	share, ok := weightedShare(idx, entries, func(e types.KeywordEntry) bool {
		return e.Category == types.CategoryQualification || e.Category == types.CategoryCertification
	})
	if !ok {
		if hasEducation {
			return 100
		}
		return 70
	}

	score := 80 * share
	if hasEducation {
		score += 20
	}
	return score
}

const (
	minWords     = 150
	maxWords     = 1200
	maxLineChars = 200
)

func formatting(rec types.ResumeRecord, text string) float64 {
	score := 0.0
	if rec.Contact.Name != "" || rec.Contact.Email != "" {
		score += 20
	}
	if rec.Contact.Email != "" {
		score += 10
	}
	if rec.Contact.Phone != "" {
		score += 5
	}
	if rec.Summary != "" {
		score += 10
	}
	if len(rec.Experience) > 0 {
		score += 20
	}
	if len(rec.Education) > 0 {
		score += 15
	}
	if len(rec.SkillCategories) > 0 {
		score += 15
	}

	words := len(strings.Fields(text))
	switch {
	case words >= minWords && words <= maxWords:
		score += 5
	case words < minWords/3:
		score -= 10
	}

	longLines := 0
	for line := range strings.SplitSeq(text, "\n") {
		if len([]rune(line)) > maxLineChars {
			longLines++
		}
	}
	score -= float64(min(longLines*2, 10))

	return score
}
