package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/ledongthuc/pdf"
)

const previewLength = 300

// Inspector builds InspectionReports. It is safe for concurrent use.
type Inspector struct {
	cfg    config.ExtractorConfig
	runner CommandRunner
	logger *errors.Logger
}

// NewInspector creates an inspector that runs the configured metadata command through runner.
// A nil runner uses the real process runner.
func NewInspector(cfg config.ExtractorConfig, runner CommandRunner, logger *errors.Logger) *Inspector {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Inspector{cfg: cfg, runner: runner, logger: logger}
}

// Inspect reports page, font and metadata properties of a resume document. Problems that
// would hurt ATS parsing are listed as warnings; only unreadable input is an error.
func (i *Inspector) Inspect(ctx context.Context, name string, data []byte) (types.InspectionReport, error) {
	if len(data) == 0 {
		return types.InspectionReport{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Document is empty", nil)
	}
	format, err := DetectFormat(name, data)
	if err != nil {
		return types.InspectionReport{}, err
	}

	report := types.InspectionReport{
		FileName:    filepath.Base(name),
		ContentType: format.ContentType(),
		SizeBytes:   int64(len(data)),
		Fonts:       []types.FontUsage{},
		Metadata:    map[string]string{},
		Warnings:    []string{},
	}

	text, err := LoadText(name, data)
	if err != nil {
		return types.InspectionReport{}, err
	}
	report.WordCount = len(strings.Fields(text))
	report.TextPreview = preview(text)
	if report.WordCount == 0 {
		report.Warnings = append(report.Warnings, "No extractable text found; ATS parsers will see an empty resume")
	}

	switch format {
	case FormatPDF:
		i.inspectPDF(data, &report)
	case FormatDOCX, FormatText:
		report.Pages = 1
	}

	if format != FormatText {
		i.addMetadata(ctx, format, data, &report)
	}

	if i.logger != nil {
		i.logger.Debug("Document inspected",
			"file", report.FileName,
			"pages", report.Pages,
			"fonts", len(report.Fonts),
			"warnings", len(report.Warnings))
	}

	return report, nil
}

func (i *Inspector) inspectPDF(data []byte, report *types.InspectionReport) {
	reader, err := openPDF(data)
	if err != nil {
		report.Warnings = append(report.Warnings, "PDF structure could not be read: "+err.Error())
		return
	}

	report.Pages = reader.NumPage()
	if i.cfg.MaxPages > 0 && report.Pages > i.cfg.MaxPages {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Document has %d pages; keep resumes to %d or fewer", report.Pages, i.cfg.MaxPages))
	}

	fonts, err := sampleFonts(reader)
	if err != nil {
		report.Warnings = append(report.Warnings, "Fonts could not be sampled: "+err.Error())
	}
	report.Fonts = fonts

	if i.cfg.MaxFonts > 0 && len(fonts) > i.cfg.MaxFonts {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Uses %d fonts; more than %d can confuse parsers", len(fonts), i.cfg.MaxFonts))
	}
	if i.cfg.MinFontSize > 0 {
		for _, f := range fonts {
			if len(f.Sizes) > 0 && f.Sizes[0] < i.cfg.MinFontSize {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Font %s is used at %.1fpt, below the %.1fpt minimum", f.Name, f.Sizes[0], i.cfg.MinFontSize))
			}
		}
	}

	for key, value := range pdfInfo(reader) {
		report.Metadata[key] = value
	}
}

// sampleFonts collects the fonts and sizes used by the text runs on the first page
func sampleFonts(reader *pdf.Reader) (fonts []types.FontUsage, err error) {
	fonts = []types.FontUsage{}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	page := reader.Page(1)
	if page.V.IsNull() {
		return fonts, nil
	}

	index := map[string]int{}
	for _, run := range page.Content().Text {
		name := run.Font
		if name == "" {
			name = "unknown"
		}
		pos, ok := index[name]
		if !ok {
			pos = len(fonts)
			index[name] = pos
			fonts = append(fonts, types.FontUsage{Name: name, Sizes: []float64{}})
		}
		fonts[pos].Count++
		size := float64(int(run.FontSize*10+0.5)) / 10
		if !slices.Contains(fonts[pos].Sizes, size) {
			fonts[pos].Sizes = append(fonts[pos].Sizes, size)
		}
	}

	for j := range fonts {
		slices.Sort(fonts[j].Sizes)
	}
	slices.SortStableFunc(fonts, func(a, b types.FontUsage) int { return b.Count - a.Count })
	return fonts, nil
}

var pdfInfoKeys = []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate", "ModDate"}

// pdfInfo reads the document information dictionary
func pdfInfo(reader *pdf.Reader) (info map[string]string) {
	info = map[string]string{}
	defer func() {
		if recover() != nil {
			info = map[string]string{}
		}
	}()

	dict := reader.Trailer().Key("Info")
	if dict.IsNull() {
		return info
	}
	for _, key := range pdfInfoKeys {
		if v := strings.TrimSpace(dict.Key(key).Text()); v != "" {
			info[key] = v
		}
	}
	return info
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
