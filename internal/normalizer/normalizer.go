// Package normalizer turns the resume shapes callers send into one canonical types.ResumeRecord.
package normalizer

import (
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// DefaultPrefix is the field prefix used by RMS metadata
const DefaultPrefix = "rms"

// ResumeSource is one of Structured, FlatIndexed or PlainText.
type ResumeSource interface {
	resumeSource()
}

// Structured carries an already structured record.
type Structured struct {
	Record types.ResumeRecord
}

// FlatIndexed carries RMS-style metadata keyed as <prefix>_<section>_<index>_<field>.
type FlatIndexed struct {
	Fields map[string]string
	Prefix string // DefaultPrefix when empty
}

// PlainText carries extracted document text.
type PlainText struct {
	Text string
}

func (Structured) resumeSource()  {}
func (FlatIndexed) resumeSource() {}
func (PlainText) resumeSource()   {}

// Normalizer produces ResumeRecords and optionally logs what it found.
type Normalizer struct {
	logger *errors.Logger
}

// New creates a Normalizer. A nil logger disables diagnostics.
func New(logger *errors.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize builds a ResumeRecord without diagnostics.
func Normalize(src ResumeSource) types.ResumeRecord {
	return New(nil).Normalize(src)
}

// Normalize never fails: anything missing or malformed is treated as absent.
func (n *Normalizer) Normalize(src ResumeSource) types.ResumeRecord {
	var rec types.ResumeRecord
	switch s := src.(type) {
	case Structured:
		rec = cloneRecord(s.Record)
	case *Structured:
		if s != nil {
			rec = cloneRecord(s.Record)
		}
	case FlatIndexed:
		rec = n.parseFlat(s)
	case *FlatIndexed:
		if s != nil {
			rec = n.parseFlat(*s)
		}
	case PlainText:
		rec = ParseText(s.Text)
	case *PlainText:
		if s != nil {
			rec = ParseText(s.Text)
		}
	}
	return ensureSlices(rec)
}

func (n *Normalizer) debugFirst(section string, record any) {
	if n.logger == nil {
		return
	}
	n.logger.Debug("Normalized first record of section", "section", section, "record", record)
}

func cloneRecord(in types.ResumeRecord) types.ResumeRecord {
	out := in
	out.Experience = make([]types.Experience, 0, len(in.Experience))
	for _, e := range in.Experience {
		e.Highlights = cloneStrings(e.Highlights)
		out.Experience = append(out.Experience, e)
	}
	out.Education = append([]types.Education{}, in.Education...)
	out.SkillCategories = make([]types.SkillCategory, 0, len(in.SkillCategories))
	for _, c := range in.SkillCategories {
		c.Skills = cloneStrings(c.Skills)
		out.SkillCategories = append(out.SkillCategories, c)
	}
	out.Projects = make([]types.Project, 0, len(in.Projects))
	for _, p := range in.Projects {
		p.Technologies = cloneStrings(p.Technologies)
		out.Projects = append(out.Projects, p)
	}
	out.Certifications = append([]types.Certification{}, in.Certifications...)
	out.Awards = append([]types.Award{}, in.Awards...)
	out.Languages = append([]types.Language{}, in.Languages...)
	return out
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}

func ensureSlices(rec types.ResumeRecord) types.ResumeRecord {
	if rec.Experience == nil {
		rec.Experience = []types.Experience{}
	}
	for i := range rec.Experience {
		if rec.Experience[i].Highlights == nil {
			rec.Experience[i].Highlights = []string{}
		}
	}
	if rec.Education == nil {
		rec.Education = []types.Education{}
	}
	if rec.SkillCategories == nil {
		rec.SkillCategories = []types.SkillCategory{}
	}
	for i := range rec.SkillCategories {
		if rec.SkillCategories[i].Skills == nil {
			rec.SkillCategories[i].Skills = []string{}
		}
	}
	if rec.Projects == nil {
		rec.Projects = []types.Project{}
	}
	for i := range rec.Projects {
		if rec.Projects[i].Technologies == nil {
			rec.Projects[i].Technologies = []string{}
		}
	}
	if rec.Certifications == nil {
		rec.Certifications = []types.Certification{}
	}
	if rec.Awards == nil {
		rec.Awards = []types.Award{}
	}
	if rec.Languages == nil {
		rec.Languages = []types.Language{}
	}
	return rec
}
