// Package recommend turns score gaps into a ranked list of resume edits.
package recommend

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"resumeforge/internal/scoring"
	"resumeforge/internal/types"
)

const (
	// MaxImpact bounds EstimatedImpact
	MaxImpact = 20

	maxRequiredRecs  = 5
	maxGroupKeywords = 5

	lowSkills     = 60
	lowExperience = 60
	lowEducation  = 60
	lowFormatting = 70
)

// Input is everything the composer looks at
type Input struct {
	Breakdown types.ScoreBreakdown
	Matched   []types.KeywordEntry
	Missing   []types.KeywordEntry
	// Suggested holds recommendations proposed by the model. They are sanitized before merging.
	Suggested []types.Recommendation
}

// Compose builds the ordered recommendation list. It never fails and returns an empty
// list when there is nothing to improve.
func Compose(in Input) []types.Recommendation {
	c := composer{in: in, totalWeight: totalWeight(in.Matched, in.Missing)}

	c.keywordGaps()
	c.skillsGap()
	c.experienceGap()
	c.educationGap()
	c.formattingGap()
	c.mergeSuggested()

	if c.out == nil {
		return []types.Recommendation{}
	}
	Sort(c.out)
	return c.out
}

// Sort orders recommendations by priority (high first) then by estimated impact, descending.
func Sort(recs []types.Recommendation) {
	slices.SortStableFunc(recs, compare)
}

// IsOrdered reports whether recs is already in Sort order.
func IsOrdered(recs []types.Recommendation) bool {
	return slices.IsSortedFunc(recs, compare)
}

func compare(a, b types.Recommendation) int {
	if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
		return c
	}
	return cmp.Compare(b.EstimatedImpact, a.EstimatedImpact)
}

type composer struct {
	in          Input
	totalWeight float64
	out         []types.Recommendation
	seen        map[string]bool
}

func (c *composer) add(r types.Recommendation) {
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	r.EstimatedImpact = clampImpact(r.EstimatedImpact)

	key := string(r.Type) + "|" + strings.ToLower(r.Section) + "|" + strings.ToLower(strings.TrimSpace(r.SuggestedText))
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	if c.out == nil {
		c.out = []types.Recommendation{}
	}
	c.out = append(c.out, r)
}

func (c *composer) keywordGaps() {
	byImportance := map[types.Importance][]types.KeywordEntry{}
	for _, e := range c.in.Missing {
		byImportance[e.Importance] = append(byImportance[e.Importance], e)
	}

	required := byImportance[types.ImportanceRequired]
	for i, e := range required {
		if i == maxRequiredRecs {
			c.addGroup(required[i:], types.PriorityHigh, "Work the remaining required keywords into your experience or skills")
			break
		}
		c.add(types.Recommendation{
			Type:            types.RecommendationKeyword,
			Priority:        types.PriorityHigh,
			Section:         sectionFor(e.Category),
			SuggestedText:   fmt.Sprintf("Add %q where it reflects real experience%s", e.Term, contextHint(e)),
			Reason:          "The posting lists this as a required keyword and the resume does not mention it",
			Keywords:        []string{e.Term},
			EstimatedImpact: c.impact(e),
		})
	}

	c.addGroup(byImportance[types.ImportancePreferred], types.PriorityMedium, "Mention these preferred qualifications if you have them")
	c.addGroup(byImportance[types.ImportanceNiceToHave], types.PriorityLow, "Consider referencing these nice-to-have keywords")
}

func (c *composer) addGroup(entries []types.KeywordEntry, priority types.Priority, text string) {
	if len(entries) == 0 {
		return
	}
	entries = entries[:min(len(entries), maxGroupKeywords)]
	impact := 0
	for _, e := range entries {
		impact += c.impact(e)
	}
	c.add(types.Recommendation{
		Type:            types.RecommendationKeyword,
		Priority:        priority,
		Section:         sectionFor(entries[0].Category),
		SuggestedText:   text + ": " + strings.Join(scoring.Terms(entries), ", "),
		Reason:          "Matching more of the posting's keywords raises the keyword score",
		Keywords:        scoring.Terms(entries),
		EstimatedImpact: impact,
	})
}

func (c *composer) skillsGap() {
	if c.in.Breakdown.SkillsAlignment >= lowSkills {
		return
	}
	missing := c.missingWhere(func(e types.KeywordEntry) bool {
		switch e.Category {
		case types.CategorySkill, types.CategoryTool, types.CategoryCertification:
			return true
		}
		return false
	})
	if len(missing) == 0 {
		return
	}
	c.add(types.Recommendation{
		Type:            types.RecommendationSkill,
		Priority:        types.PriorityMedium,
		Section:         "skills",
		SuggestedText:   "List these tools and skills explicitly in the skills section: " + strings.Join(missing, ", "),
		Reason:          fmt.Sprintf("Skills alignment is %.0f/100", c.in.Breakdown.SkillsAlignment),
		Keywords:        missing,
		EstimatedImpact: gapImpact(c.in.Breakdown.SkillsAlignment, scoring.WeightSkillsAlignment),
	})
}

func (c *composer) experienceGap() {
	if c.in.Breakdown.ExperienceRelevance >= lowExperience {
		return
	}
	missing := c.missingWhere(func(e types.KeywordEntry) bool {
		return e.Importance == types.ImportanceRequired || e.Importance == types.ImportancePreferred
	})
	reason := fmt.Sprintf("Experience relevance is %.0f/100", c.in.Breakdown.ExperienceRelevance)
	impact := gapImpact(c.in.Breakdown.ExperienceRelevance, scoring.WeightExperienceRelevance)
	if len(missing) == 0 {
		c.add(types.Recommendation{
			Type:            types.RecommendationStructure,
			Priority:        types.PriorityMedium,
			Section:         "experience",
			SuggestedText:   "Rewrite experience bullets around measurable results (numbers, percentages, scale)",
			Reason:          reason,
			EstimatedImpact: impact,
		})
		return
	}
	c.add(types.Recommendation{
		Type:            types.RecommendationExperience,
		Priority:        types.PriorityMedium,
		Section:         "experience",
		SuggestedText:   "Describe where you applied " + strings.Join(missing, ", ") + " in your experience bullets",
		Reason:          reason,
		Keywords:        missing,
		EstimatedImpact: impact,
	})
}

func (c *composer) educationGap() {
	if c.in.Breakdown.EducationMatch >= lowEducation {
		return
	}
	missing := c.missingWhere(func(e types.KeywordEntry) bool {
		return e.Category == types.CategoryQualification || e.Category == types.CategoryCertification
	})
	if len(missing) == 0 {
		return
	}
	c.add(types.Recommendation{
		Type:            types.RecommendationEducation,
		Priority:        types.PriorityLow,
		Section:         "education",
		SuggestedText:   "Spell out matching degrees or certifications: " + strings.Join(missing, ", "),
		Reason:          fmt.Sprintf("Education match is %.0f/100", c.in.Breakdown.EducationMatch),
		Keywords:        missing,
		EstimatedImpact: gapImpact(c.in.Breakdown.EducationMatch, scoring.WeightEducationMatch),
	})
}

func (c *composer) formattingGap() {
	f := c.in.Breakdown.Formatting
	if f >= lowFormatting {
		return
	}
	priority := types.PriorityMedium
	if f < 40 {
		priority = types.PriorityHigh
	}
	c.add(types.Recommendation{
		Type:            types.RecommendationFormat,
		Priority:        priority,
		Section:         "formatting",
		SuggestedText:   "Use standard headings (Summary, Experience, Education, Skills) and include email and phone in the header",
		Reason:          fmt.Sprintf("Formatting is %.0f/100; ATS parsers rely on conventional sections", f),
		EstimatedImpact: gapImpact(f, scoring.WeightFormatting),
	})
}

func (c *composer) mergeSuggested() {
	for _, s := range c.in.Suggested {
		if strings.TrimSpace(s.SuggestedText) == "" {
			continue
		}
		r := s
		r.Type = normalizeType(r.Type)
		r.Priority = normalizePriority(r.Priority)
		r.Keywords = c.knownTerms(r.Keywords)

		if !r.Type.Structural() && len(r.Keywords) == 0 {
			idx := scoring.NewTextIndex(r.SuggestedText + "\n" + r.Reason)
			for _, e := range c.in.Missing {
				if idx.ContainsEntry(e) {
					r.Keywords = append(r.Keywords, e.Term)
				}
			}
			if len(r.Keywords) == 0 {
				continue
			}
		}
		c.add(r)
	}
}

func (c *composer) missingWhere(keep func(types.KeywordEntry) bool) []string {
	var out []string
	for _, e := range c.in.Missing {
		if keep(e) {
			out = append(out, e.Term)
			if len(out) == maxGroupKeywords {
				break
			}
		}
	}
	return out
}

// impact estimates how many overall points adding e would be worth.
func (c *composer) impact(e types.KeywordEntry) int {
	if c.totalWeight == 0 {
		return 1
	}
	share := weight(e.Importance) / c.totalWeight
	return max(1, int(math.Round(scoring.WeightKeywordMatch*share)))
}

func gapImpact(score float64, weightPct int) int {
	gap := 100 - math.Max(0, math.Min(100, score))
	return int(math.Round(gap * float64(weightPct) / 100))
}

func totalWeight(sets ...[]types.KeywordEntry) float64 {
	var total float64
	for _, set := range sets {
		for _, e := range set {
			total += weight(e.Importance)
		}
	}
	return total
}

func weight(i types.Importance) float64 {
	switch i {
	case types.ImportanceRequired:
		return 3
	case types.ImportancePreferred:
		return 2
	default:
		return 1
	}
}

func clampImpact(v int) int {
	return max(0, min(MaxImpact, v))
}

func sectionFor(category types.KeywordCategory) string {
	switch category {
	case types.CategorySkill, types.CategoryTool, types.CategoryCertification:
		return "skills"
	case types.CategoryQualification:
		return "education"
	case types.CategoryIndustryTerm:
		return "summary"
	default:
		return "experience"
	}
}

func contextHint(e types.KeywordEntry) string {
	if len(e.Contexts) == 0 || strings.TrimSpace(e.Contexts[0]) == "" {
		return ""
	}
	return fmt.Sprintf(" (posting context: %s)", strings.TrimSpace(e.Contexts[0]))
}

func normalizeType(t types.RecommendationType) types.RecommendationType {
	switch v := types.RecommendationType(strings.ToLower(string(t))); v {
	case types.RecommendationKeyword, types.RecommendationSkill, types.RecommendationExperience,
		types.RecommendationEducation, types.RecommendationSummary, types.RecommendationFormat,
		types.RecommendationStructure:
		return v
	default:
		return types.RecommendationKeyword
	}
}

func normalizePriority(p types.Priority) types.Priority {
	switch v := types.Priority(strings.ToLower(string(p))); v {
	case types.PriorityHigh, types.PriorityMedium, types.PriorityLow:
		return v
	default:
		return types.PriorityLow
	}
}

// knownTerms keeps the suggested keywords that name an extracted term, spelled the way
// the extraction spelled them.
func (c *composer) knownTerms(in []string) []string {
	terms := make(map[string]string, len(c.in.Matched)+len(c.in.Missing))
	for _, set := range [][]types.KeywordEntry{c.in.Matched, c.in.Missing} {
		for _, e := range set {
			terms[strings.ToLower(strings.TrimSpace(e.Term))] = e.Term
		}
	}

	out := []string{}
	seen := map[string]bool{}
	for _, k := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		term, ok := terms[key]
		if key == "" || !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, term)
	}
	return out
}
