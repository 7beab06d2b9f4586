// Package extract turns uploaded resume documents into plain text and inspects
// them for properties that trip up ATS parsers.
package extract

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"resumeforge/internal/errors"
	"resumeforge/internal/utils"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format is a supported document type
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Content types reported for each format
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText = "text/plain; charset=utf-8"
)

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return ContentTypePDF
	case FormatDOCX:
		return ContentTypeDOCX
	default:
		return ContentTypeText
	}
}

// DetectFormat decides the document type from the file extension, falling back to
// content sniffing when the extension is missing or unknown.
func DetectFormat(name string, data []byte) (Format, error) {
	switch ext := utils.GetFileExtension(name); {
	case ext == ".pdf":
		return FormatPDF, nil
	case ext == ".docx":
		return FormatDOCX, nil
	case utils.IsTextFile(name):
		return FormatText, nil
	}

	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, "application/pdf"):
		return FormatPDF, nil
	case strings.HasPrefix(sniffed, "application/zip") && bytes.Contains(data, []byte("word/document.xml")):
		return FormatDOCX, nil
	case strings.HasPrefix(sniffed, "text/plain"):
		return FormatText, nil
	}
	return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
		fmt.Sprintf("Unsupported document type for %q (detected %s)", name, sniffed), nil)
}

// LoadText extracts the plain text of a resume document
func LoadText(name string, data []byte) (string, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = pdfText(data)
	case FormatDOCX:
		text, err = docxText(data)
	default:
		if !utf8.Valid(data) {
			return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("%s is not valid UTF-8 text", name), nil)
		}
		text = string(data)
	}
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot read %s as %s", name, format), err)
	}
	return strings.TrimSpace(text), nil
}

func openPDF(data []byte) (*pdf.Reader, error) {
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := openPDF(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxBreak = regexp.MustCompile(`</w:p>|<w:br/>|<w:br [^>]*/>|<w:tab/>`)
	xmlTag    = regexp.MustCompile(`<[^>]+>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return stripDocumentXML(doc.Editable().GetContent()), nil
}

// stripDocumentXML reduces WordprocessingML to text, one paragraph per line
func stripDocumentXML(content string) string {
	content = docxBreak.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return "\t"
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return blankRuns.ReplaceAllString(content, "\n\n")
}
