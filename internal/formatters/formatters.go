package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"resumeforge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	for _, f := range []Formatter{
		&AnalysisTextFormatter{},
		&CoverLetterTextFormatter{},
		&SummaryTextFormatter{},
		&ResumeTextFormatter{},
		&InspectionTextFormatter{},
	} {
		registry.RegisterFormatter("text", f.SupportedType(), f)
	}
	for _, f := range []Formatter{
		&AnalysisMarkdownFormatter{},
		&CoverLetterMarkdownFormatter{},
		&SummaryMarkdownFormatter{},
		&ResumeMarkdownFormatter{},
		&InspectionMarkdownFormatter{},
	} {
		registry.RegisterFormatter("markdown", f.SupportedType(), f)
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case types.CoverLetterOutput:
		return "CoverLetterOutput"
	case types.SummaryOutput:
		return "SummaryOutput"
	case types.ResumeRecord:
		return "ResumeRecord"
	case types.InspectionReport:
		return "InspectionReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func writeList(output *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(heading)
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
