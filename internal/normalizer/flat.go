package normalizer

import (
	"strconv"
	"strings"

	"resumeforge/internal/types"
)

// maxSectionCount bounds how many indexed records are read per section
const maxSectionCount = 500

const (
	sectionExperience    = "experience"
	sectionEducation     = "education"
	sectionSkill         = "skill"
	sectionProject       = "project"
	sectionCertification = "certification"
	sectionAward         = "award"
	sectionLanguage      = "language"
)

// Alternative field names seen in RMS metadata. The first entry is the name Flatten writes.
var (
	fieldName         = []string{"fullName", "name"}
	fieldEmail        = []string{"email"}
	fieldPhone        = []string{"phone"}
	fieldLocation     = []string{"location", "city"}
	fieldLinkedIn     = []string{"linkedin"}
	fieldWebsite      = []string{"website", "url"}
	fieldCompany      = []string{"company"}
	fieldTitle        = []string{"title", "role", "position"}
	fieldStart        = []string{"startDate", "dateBegin"}
	fieldEnd          = []string{"endDate", "dateEnd"}
	fieldDescription  = []string{"description"}
	fieldHighlights   = []string{"highlights"}
	fieldInstitution  = []string{"institution", "school"}
	fieldDegree       = []string{"degree", "qualification"}
	fieldStudy        = []string{"field", "major"}
	fieldGPA          = []string{"gpa", "score"}
	fieldCategory     = []string{"category", "name"}
	fieldSkills       = []string{"keywords", "skills"}
	fieldProjectName  = []string{"name", "title"}
	fieldOrganization = []string{"organization", "issuer"}
	fieldTechnologies = []string{"technologies", "keywords"}
	fieldURL          = []string{"url"}
	fieldCertName     = []string{"name"}
	fieldDate         = []string{"date"}
	fieldAwardTitle   = []string{"title", "name"}
	fieldLanguage     = []string{"name", "language"}
	fieldProficiency  = []string{"proficiency", "level"}
)

type flatView struct {
	fields map[string]string
	prefix string
}

// lookup tries every alias, each as given, lowercased, then uppercased, and returns
// the first non-empty value.
func (v flatView) lookup(key string, aliases []string) string {
	for _, alias := range aliases {
		full := key + alias
		for _, candidate := range [...]string{full, strings.ToLower(full), strings.ToUpper(full)} {
			if val, ok := v.fields[candidate]; ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

func (v flatView) scalarKey(section string) string {
	if v.prefix == "" {
		return section + "_"
	}
	return v.prefix + "_" + section + "_"
}

func (v flatView) indexKey(section string, i int) string {
	return v.scalarKey(section) + strconv.Itoa(i) + "_"
}

func (v flatView) field(section string, i int, aliases []string) string {
	return v.lookup(v.indexKey(section, i), aliases)
}

// count reads <prefix>_<section>_count. Anything unparsable is zero.
func (v flatView) count(section string) int {
	raw := v.lookup(v.scalarKey(section), []string{"count"})
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return min(n, maxSectionCount)
}

func (n *Normalizer) parseFlat(src FlatIndexed) types.ResumeRecord {
	prefix := src.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	v := flatView{fields: src.Fields, prefix: prefix}
	if v.fields == nil {
		v.fields = map[string]string{}
	}

	contactKey := v.scalarKey("contact")
	rec := types.ResumeRecord{
		Contact: types.ContactInfo{
			Name:     v.lookup(contactKey, fieldName),
			Email:    v.lookup(contactKey, fieldEmail),
			Phone:    v.lookup(contactKey, fieldPhone),
			Location: v.lookup(contactKey, fieldLocation),
			LinkedIn: v.lookup(contactKey, fieldLinkedIn),
			Website:  v.lookup(contactKey, fieldWebsite),
		},
		Summary: v.lookup(prefix+"_", []string{"summary"}),
	}

	for i := range v.count(sectionExperience) {
		e := types.Experience{
			Company:     v.field(sectionExperience, i, fieldCompany),
			Title:       v.field(sectionExperience, i, fieldTitle),
			Location:    v.field(sectionExperience, i, fieldLocation),
			StartDate:   v.field(sectionExperience, i, fieldStart),
			EndDate:     v.field(sectionExperience, i, fieldEnd),
			Description: v.field(sectionExperience, i, fieldDescription),
			Highlights:  splitLines(v.field(sectionExperience, i, fieldHighlights)),
		}
		if e.Company == "" {
			continue
		}
		if len(rec.Experience) == 0 {
			n.debugFirst(sectionExperience, e)
		}
		rec.Experience = append(rec.Experience, e)
	}

	for i := range v.count(sectionEducation) {
		e := types.Education{
			Institution: v.field(sectionEducation, i, fieldInstitution),
			Degree:      v.field(sectionEducation, i, fieldDegree),
			Field:       v.field(sectionEducation, i, fieldStudy),
			StartDate:   v.field(sectionEducation, i, fieldStart),
			EndDate:     v.field(sectionEducation, i, append(append([]string{}, fieldEnd...), fieldDate...)),
			GPA:         v.field(sectionEducation, i, fieldGPA),
		}
		if e.Institution == "" {
			continue
		}
		if len(rec.Education) == 0 {
			n.debugFirst(sectionEducation, e)
		}
		rec.Education = append(rec.Education, e)
	}

	for i := range v.count(sectionSkill) {
		c := types.SkillCategory{
			Name:   v.field(sectionSkill, i, fieldCategory),
			Skills: splitList(v.field(sectionSkill, i, fieldSkills)),
		}
		if c.Name == "" && len(c.Skills) == 0 {
			continue
		}
		if len(rec.SkillCategories) == 0 {
			n.debugFirst(sectionSkill, c)
		}
		rec.SkillCategories = append(rec.SkillCategories, c)
	}

	for i := range v.count(sectionProject) {
		p := types.Project{
			Name:         v.field(sectionProject, i, fieldProjectName),
			Organization: v.field(sectionProject, i, fieldOrganization),
			Description:  v.field(sectionProject, i, fieldDescription),
			Technologies: splitList(v.field(sectionProject, i, fieldTechnologies)),
			URL:          v.field(sectionProject, i, fieldURL),
		}
		if p.Organization == "" && p.Name == "" {
			continue
		}
		if len(rec.Projects) == 0 {
			n.debugFirst(sectionProject, p)
		}
		rec.Projects = append(rec.Projects, p)
	}

	for i := range v.count(sectionCertification) {
		c := types.Certification{
			Name:         v.field(sectionCertification, i, fieldCertName),
			Organization: v.field(sectionCertification, i, fieldOrganization),
			Date:         v.field(sectionCertification, i, fieldDate),
		}
		if c.Organization == "" && c.Name == "" {
			continue
		}
		if len(rec.Certifications) == 0 {
			n.debugFirst(sectionCertification, c)
		}
		rec.Certifications = append(rec.Certifications, c)
	}

	for i := range v.count(sectionAward) {
		a := types.Award{
			Title:        v.field(sectionAward, i, fieldAwardTitle),
			Organization: v.field(sectionAward, i, fieldOrganization),
			Date:         v.field(sectionAward, i, fieldDate),
		}
		if a.Organization == "" && a.Title == "" {
			continue
		}
		if len(rec.Awards) == 0 {
			n.debugFirst(sectionAward, a)
		}
		rec.Awards = append(rec.Awards, a)
	}

	for i := range v.count(sectionLanguage) {
		l := types.Language{
			Name:        v.field(sectionLanguage, i, fieldLanguage),
			Proficiency: v.field(sectionLanguage, i, fieldProficiency),
		}
		if l.Name == "" {
			continue
		}
		if len(rec.Languages) == 0 {
			n.debugFirst(sectionLanguage, l)
		}
		rec.Languages = append(rec.Languages, l)
	}

	return rec
}

// Flatten writes rec in the FlatIndexed layout. Normalize(FlatIndexed{Fields: Flatten(rec, p), Prefix: p})
// returns the same non-empty named fields.
func Flatten(rec types.ResumeRecord, prefix string) map[string]string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	v := flatView{prefix: prefix}
	out := make(map[string]string)
	put := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}

	contactKey := v.scalarKey("contact")
	put(contactKey+fieldName[0], rec.Contact.Name)
	put(contactKey+fieldEmail[0], rec.Contact.Email)
	put(contactKey+fieldPhone[0], rec.Contact.Phone)
	put(contactKey+fieldLocation[0], rec.Contact.Location)
	put(contactKey+fieldLinkedIn[0], rec.Contact.LinkedIn)
	put(contactKey+fieldWebsite[0], rec.Contact.Website)
	put(prefix+"_summary", rec.Summary)

	out[v.scalarKey(sectionExperience)+"count"] = strconv.Itoa(len(rec.Experience))
	for i, e := range rec.Experience {
		k := v.indexKey(sectionExperience, i)
		put(k+fieldCompany[0], e.Company)
		put(k+fieldTitle[0], e.Title)
		put(k+fieldLocation[0], e.Location)
		put(k+fieldStart[0], e.StartDate)
		put(k+fieldEnd[0], e.EndDate)
		put(k+fieldDescription[0], e.Description)
		put(k+fieldHighlights[0], strings.Join(e.Highlights, "\n"))
	}

	out[v.scalarKey(sectionEducation)+"count"] = strconv.Itoa(len(rec.Education))
	for i, e := range rec.Education {
		k := v.indexKey(sectionEducation, i)
		put(k+fieldInstitution[0], e.Institution)
		put(k+fieldDegree[0], e.Degree)
		put(k+fieldStudy[0], e.Field)
		put(k+fieldStart[0], e.StartDate)
		put(k+fieldEnd[0], e.EndDate)
		put(k+fieldGPA[0], e.GPA)
	}

	out[v.scalarKey(sectionSkill)+"count"] = strconv.Itoa(len(rec.SkillCategories))
	for i, c := range rec.SkillCategories {
		k := v.indexKey(sectionSkill, i)
		put(k+fieldCategory[0], c.Name)
		put(k+fieldSkills[0], strings.Join(c.Skills, ", "))
	}

	out[v.scalarKey(sectionProject)+"count"] = strconv.Itoa(len(rec.Projects))
	for i, p := range rec.Projects {
		k := v.indexKey(sectionProject, i)
		put(k+fieldProjectName[0], p.Name)
		put(k+fieldOrganization[0], p.Organization)
		put(k+fieldDescription[0], p.Description)
		put(k+fieldTechnologies[0], strings.Join(p.Technologies, ", "))
		put(k+fieldURL[0], p.URL)
	}

	out[v.scalarKey(sectionCertification)+"count"] = strconv.Itoa(len(rec.Certifications))
	for i, c := range rec.Certifications {
		k := v.indexKey(sectionCertification, i)
		put(k+fieldCertName[0], c.Name)
		put(k+fieldOrganization[0], c.Organization)
		put(k+fieldDate[0], c.Date)
	}

	out[v.scalarKey(sectionAward)+"count"] = strconv.Itoa(len(rec.Awards))
	for i, a := range rec.Awards {
		k := v.indexKey(sectionAward, i)
		put(k+fieldAwardTitle[0], a.Title)
		put(k+fieldOrganization[0], a.Organization)
		put(k+fieldDate[0], a.Date)
	}

	out[v.scalarKey(sectionLanguage)+"count"] = strconv.Itoa(len(rec.Languages))
	for i, l := range rec.Languages {
		k := v.indexKey(sectionLanguage, i)
		put(k+fieldLanguage[0], l.Name)
		put(k+fieldProficiency[0], l.Proficiency)
	}

	return out
}

func splitLines(s string) []string {
	out := []string{}
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitList(s string) []string {
	out := []string{}
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
