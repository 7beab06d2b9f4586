package types

// ContactInfo holds the header block of a resume
type ContactInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// Experience is a single position held
type Experience struct {
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// Education is a single degree or program
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	GPA         string `json:"gpa"`
}

// SkillCategory groups related skills under a heading
type SkillCategory struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

type Project struct {
	Name         string   `json:"name"`
	Organization string   `json:"organization"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
}

type Certification struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Date         string `json:"date"`
}

type Award struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Date         string `json:"date"`
}

type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// ResumeRecord is the canonical resume representation produced by the normalizer.
// List sections are never nil once normalized.
type ResumeRecord struct {
	Contact         ContactInfo     `json:"contact"`
	Summary         string          `json:"summary"`
	Experience      []Experience    `json:"experience"`
	Education       []Education     `json:"education"`
	SkillCategories []SkillCategory `json:"skillCategories"`
	Projects        []Project       `json:"projects"`
	Certifications  []Certification `json:"certifications"`
	Awards          []Award         `json:"awards"`
	Languages       []Language      `json:"languages"`
}

// JobPosting is the caller-supplied job being targeted
type JobPosting struct {
	Title          string `json:"title"`
	Company        string `json:"company,omitempty"`
	Description    string `json:"description"`
	Location       string `json:"location,omitempty"`
	Salary         string `json:"salary,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
}

// KeywordCategory classifies an extracted keyword
type KeywordCategory string

const (
	CategorySkill         KeywordCategory = "skill"
	CategoryTool          KeywordCategory = "tool"
	CategoryQualification KeywordCategory = "qualification"
	CategorySoftSkill     KeywordCategory = "soft_skill"
	CategoryCertification KeywordCategory = "certification"
	CategoryIndustryTerm  KeywordCategory = "industry_term"
)

// KeywordCategories lists every valid category in schema order
var KeywordCategories = []KeywordCategory{
	CategorySkill, CategoryTool, CategoryQualification,
	CategorySoftSkill, CategoryCertification, CategoryIndustryTerm,
}

// Importance ranks how strongly a posting asks for a keyword
type Importance string

const (
	ImportanceRequired   Importance = "required"
	ImportancePreferred  Importance = "preferred"
	ImportanceNiceToHave Importance = "nice_to_have"
)

var Importances = []Importance{ImportanceRequired, ImportancePreferred, ImportanceNiceToHave}

// KeywordEntry is a single term extracted from a job posting
type KeywordEntry struct {
	Term       string          `json:"term"`
	Category   KeywordCategory `json:"category"`
	Importance Importance      `json:"importance"`
	Variations []string        `json:"variations"`
	Contexts   []string        `json:"contexts"`
}

// ScoreBreakdown holds the five weighted sub-scores, each in [0,100]
type ScoreBreakdown struct {
	KeywordMatch        float64 `json:"keywordMatch"`
	SkillsAlignment     float64 `json:"skillsAlignment"`
	ExperienceRelevance float64 `json:"experienceRelevance"`
	EducationMatch      float64 `json:"educationMatch"`
	Formatting          float64 `json:"formatting"`
}

// RecommendationType names the kind of edit a recommendation suggests
type RecommendationType string

const (
	RecommendationKeyword    RecommendationType = "keyword"
	RecommendationSkill      RecommendationType = "skill"
	RecommendationExperience RecommendationType = "experience"
	RecommendationEducation  RecommendationType = "education"
	RecommendationSummary    RecommendationType = "summary"
	RecommendationFormat     RecommendationType = "format"
	RecommendationStructure  RecommendationType = "structure"
)

// Structural reports whether the recommendation may omit keyword references
func (t RecommendationType) Structural() bool {
	return t == RecommendationFormat || t == RecommendationStructure
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities so that high sorts first; unknown values rank last
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Recommendation is a single suggested resume edit
type Recommendation struct {
	Type            RecommendationType `json:"type"`
	Priority        Priority           `json:"priority"`
	Section         string             `json:"section"`
	SuggestedText   string             `json:"suggestedText"`
	Reason          string             `json:"reason"`
	Keywords        []string           `json:"keywords"`
	EstimatedImpact int                `json:"estimatedImpact"` // 0-20 points
}

// FitSummary is the narrative part of an analysis
type FitSummary struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	QuickWins  []string `json:"quickWins"`
	OverallFit string   `json:"overallFit"`
}

// AnalysisRequest is the input to an ATS analysis.
// Exactly one of ResumeText, ResumeData or ResumeRecord supplies the resume.
type AnalysisRequest struct {
	ResumeText             string            `json:"resumeText,omitempty"`
	ResumeData             map[string]string `json:"resumeData,omitempty"`
	ResumeRecord           *ResumeRecord     `json:"resumeRecord,omitempty"`
	JobTitle               string            `json:"jobTitle"`
	JobDescription         string            `json:"jobDescription"`
	JobCompany             string            `json:"jobCompany,omitempty"`
	IndustryContext        string            `json:"industryContext,omitempty"`
	TargetATSScore         *int              `json:"targetATSScore,omitempty"`
	IncludeRecommendations *bool             `json:"includeRecommendations,omitempty"`
}

// WantsRecommendations applies the default of true
func (r AnalysisRequest) WantsRecommendations() bool {
	return r.IncludeRecommendations == nil || *r.IncludeRecommendations
}

// AnalysisResult is the full output of an ATS analysis
type AnalysisResult struct {
	AnalysisID        string           `json:"analysisId"`
	ATSScore          int              `json:"atsScore"`
	Breakdown         ScoreBreakdown   `json:"breakdown"`
	ExtractedKeywords []KeywordEntry   `json:"extractedKeywords"`
	MatchedKeywords   []string         `json:"matchedKeywords"`
	MissingKeywords   []string         `json:"missingKeywords"`
	Recommendations   []Recommendation `json:"recommendations"`
	Summary           FitSummary       `json:"summary"`
}

// KeywordExtractionInput is sent to the model to derive keywords
type KeywordExtractionInput struct {
	Job             JobPosting `json:"job"`
	IndustryContext string     `json:"industryContext,omitempty"`
	TargetATSScore  *int       `json:"targetATSScore,omitempty"`
	MinKeywords     int        `json:"minKeywords"`
}

// KeywordExtractionOutput is the model response for keyword extraction
type KeywordExtractionOutput struct {
	Keywords []KeywordEntry `json:"keywords"`
}

// FitAssessmentInput is sent to the model to narrate the analysis
type FitAssessmentInput struct {
	ResumeText      string         `json:"resumeText"`
	Job             JobPosting     `json:"job"`
	ATSScore        int            `json:"atsScore"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	MatchedKeywords []string       `json:"matchedKeywords"`
	MissingKeywords []string       `json:"missingKeywords"`
}

// FitAssessmentOutput is the model response for a fit assessment
type FitAssessmentOutput struct {
	Summary         FitSummary       `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneConfident    Tone = "confident"
	ToneFriendly     Tone = "friendly"
)

type Length string

const (
	LengthConcise  Length = "concise"
	LengthStandard Length = "standard"
	LengthDetailed Length = "detailed"
)

// CoverLetterInput represents the input for generating a cover letter
type CoverLetterInput struct {
	ResumeText          string   `json:"resumeText"`
	ResumeSummary       string   `json:"resumeSummary,omitempty"`
	JobTitle            string   `json:"jobTitle"`
	CompanyName         string   `json:"companyName"`
	JobDescription      string   `json:"jobDescription,omitempty"`
	SkillsHighlight     []string `json:"skillsHighlight,omitempty"`
	EducationHighlight  string   `json:"educationHighlight,omitempty"`
	ExperienceHighlight []string `json:"experienceHighlight,omitempty"`
	Tone                Tone     `json:"tone,omitempty"`
	Length              Length   `json:"length,omitempty"`
	IncludeCallToAction *bool    `json:"includeCallToAction,omitempty"`
	CompanyResearch     string   `json:"companyResearch,omitempty"`
	PersonalConnection  string   `json:"personalConnection,omitempty"`
	TargetKeywords      []string `json:"targetKeywords,omitempty"`
}

// WantsCallToAction applies the default of true
func (in CoverLetterInput) WantsCallToAction() bool {
	return in.IncludeCallToAction == nil || *in.IncludeCallToAction
}

type CoverLetterSections struct {
	Salutation     string   `json:"salutation"`
	Opening        string   `json:"opening"`
	BodyParagraphs []string `json:"bodyParagraphs"`
	Closing        string   `json:"closing"`
	Signature      string   `json:"signature"`
}

type CoverLetterMetadata struct {
	WordCount        int      `json:"wordCount"`
	ReadingTime      int      `json:"readingTime"` // minutes
	Tone             Tone     `json:"tone"`
	KeywordsIncluded []string `json:"keywordsIncluded"`
	StrengthScore    int      `json:"strengthScore"` // 0-100
}

// CoverLetterOutput represents a generated cover letter
type CoverLetterOutput struct {
	CoverLetter string              `json:"coverLetter"`
	Sections    CoverLetterSections `json:"sections"`
	Highlights  []string            `json:"highlights"`
	Metadata    CoverLetterMetadata `json:"metadata"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

// SummaryInput represents the input for generating a professional summary
type SummaryInput struct {
	ExistingExperience string `json:"existingExperience"`
	TargetPosition     string `json:"targetPosition,omitempty"`
	SkillsHighlight    string `json:"skillsHighlight,omitempty"`
	ExistingSummary    string `json:"existingSummary,omitempty"`
}

// SummaryOutput represents a generated professional summary
type SummaryOutput struct {
	Summary             string   `json:"summary"`
	AlternativeVersions []string `json:"alternativeVersions,omitempty"`
}

// FontUsage records one font seen while sampling a PDF
type FontUsage struct {
	Name  string    `json:"name"`
	Sizes []float64 `json:"sizes"`
	Count int       `json:"count"`
}

// InspectionReport describes a resume document's ATS-relevant properties
type InspectionReport struct {
	FileName    string            `json:"fileName"`
	ContentType string            `json:"contentType"`
	SizeBytes   int64             `json:"sizeBytes"`
	Pages       int               `json:"pages"`
	WordCount   int               `json:"wordCount"`
	Fonts       []FontUsage       `json:"fonts"`
	Metadata    map[string]string `json:"metadata"`
	TextPreview string            `json:"textPreview"`
	Warnings    []string          `json:"warnings"`
}
