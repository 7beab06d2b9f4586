package common

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"resumeforge/internal/errors"
	"resumeforge/internal/extract"
	"resumeforge/internal/storage"
)

// DocumentFetcher retrieves raw documents. *storage.Loader implements it.
type DocumentFetcher interface {
	Fetch(ctx context.Context, ref string) (storage.Document, error)
}

// FileProcessor handles common file operations
type FileProcessor struct {
	fetcher DocumentFetcher
	logger  *errors.Logger
}

// NewFileProcessor creates a new file processor instance. A nil fetcher reads local
// files only, with no size limit.
func NewFileProcessor(fetcher DocumentFetcher, logger *errors.Logger) *FileProcessor {
	if fetcher == nil {
		fetcher = storage.NewLoader(0, nil, logger)
	}
	return &FileProcessor{fetcher: fetcher, logger: logger}
}

// ReadDocument fetches the raw bytes behind ref, a local path or s3:// URI
func (fp *FileProcessor) ReadDocument(ctx context.Context, ref string) (storage.Document, error) {
	return fp.fetcher.Fetch(ctx, ref)
}

// ReadText fetches ref and extracts its plain text. PDF and DOCX files are converted.
func (fp *FileProcessor) ReadText(ctx context.Context, ref string) (string, error) {
	doc, err := fp.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}

	text, err := extract.LoadText(doc.Name, doc.Data)
	if err != nil {
		return "", err
	}
	if text == "" && fp.logger != nil {
		fp.logger.Warn("Document contains no text", "file", ref)
	}
	return text, nil
}

// ReadJSON fetches ref and decodes it into v
func (fp *FileProcessor) ReadJSON(ctx context.Context, ref string, v any) error {
	doc, err := fp.fetcher.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc.Data, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File %s is not valid JSON", ref), err)
	}
	return nil
}

// ValidateAndReadFiles extracts the text of each reference in order
func (fp *FileProcessor) ValidateAndReadFiles(ctx context.Context, refs ...string) ([]string, error) {
	contents := make([]string, len(refs))
	for i, ref := range refs {
		text, err := fp.ReadText(ctx, ref)
		if err != nil {
			return nil, err
		}
		contents[i] = text
	}
	return contents, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}
