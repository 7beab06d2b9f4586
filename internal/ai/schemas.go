package ai

import (
	"strings"

	"resumeforge/internal/types"

	"google.golang.org/genai"
)

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// jsonConfig wraps a response schema with the operation's generation settings
func (g *GeminiProvider) jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}
	return config
}

func keywordSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"keywords": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"term":       {Type: genai.TypeString},
						"category":   {Type: genai.TypeString, Enum: enumOf(types.KeywordCategories)},
						"importance": {Type: genai.TypeString, Enum: enumOf(types.Importances)},
						"variations": stringArray(),
						"contexts":   stringArray(),
					},
					Required: []string{"term", "category", "importance"},
				},
			},
		},
		Required: []string{"keywords"},
	}
}

func recommendationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type": {Type: genai.TypeString, Enum: []string{
				string(types.RecommendationKeyword), string(types.RecommendationSkill),
				string(types.RecommendationExperience), string(types.RecommendationEducation),
				string(types.RecommendationSummary), string(types.RecommendationFormat),
				string(types.RecommendationStructure),
			}},
			"priority":        {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
			"section":         {Type: genai.TypeString},
			"suggestedText":   {Type: genai.TypeString},
			"reason":          {Type: genai.TypeString},
			"keywords":        stringArray(),
			"estimatedImpact": {Type: genai.TypeInteger},
		},
		Required: []string{"type", "priority", "suggestedText", "reason"},
	}
}

func fitSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"strengths":  stringArray(),
					"weaknesses": stringArray(),
					"quickWins":  stringArray(),
					"overallFit": {Type: genai.TypeString},
				},
				Required: []string{"strengths", "weaknesses", "quickWins", "overallFit"},
			},
			"recommendations": {Type: genai.TypeArray, Items: recommendationSchema()},
		},
		Required: []string{"summary"},
	}
}

func coverLetterSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"coverLetter": {Type: genai.TypeString},
			"sections": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"salutation":     {Type: genai.TypeString},
					"opening":        {Type: genai.TypeString},
					"bodyParagraphs": stringArray(),
					"closing":        {Type: genai.TypeString},
					"signature":      {Type: genai.TypeString},
				},
				Required: []string{"salutation", "opening", "bodyParagraphs", "closing", "signature"},
			},
			"highlights": stringArray(),
			"metadata": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tone":          {Type: genai.TypeString},
					"strengthScore": {Type: genai.TypeInteger},
				},
			},
			"suggestions": stringArray(),
		},
		Required: []string{"coverLetter", "sections", "highlights"},
	}
}

func summarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":             {Type: genai.TypeString},
			"alternativeVersions": stringArray(),
		},
		Required: []string{"summary"},
	}
}

// cleanJSON strips the markdown code fence some models wrap JSON in
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
